package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port int // HTTP API port

	// Bridge configuration
	BridgeHost         string // Loopback interface the bridge binds to
	BridgePort         int    // First port tried by the bridge
	BridgePortAttempts int    // Consecutive ports tried before giving up

	// Store configuration
	MaxFindings int // Capacity of the findings store

	// Fetcher configuration
	RequestTimeout time.Duration // Per-request timeout
	MaxBodyBytes   int64         // Largest response body analyzed
	FetchRate      float64       // Requests per second per host
	UserAgent      string        // User-Agent header for fetches

	// Renderer configuration
	RenderTimeout time.Duration // Headless capture timeout

	LogLevel string // debug|info|warn|error
}

// fileConfig is the YAML overlay. Zero values mean "not set".
type fileConfig struct {
	Port               int     `yaml:"port,omitempty"`
	BridgeHost         string  `yaml:"bridge_host,omitempty"`
	BridgePort         int     `yaml:"bridge_port,omitempty"`
	BridgePortAttempts int     `yaml:"bridge_port_attempts,omitempty"`
	MaxFindings        int     `yaml:"max_findings,omitempty"`
	RequestTimeoutMs   int     `yaml:"request_timeout_ms,omitempty"`
	MaxBodyBytes       int64   `yaml:"max_body_bytes,omitempty"`
	FetchRate          float64 `yaml:"fetch_rate,omitempty"`
	UserAgent          string  `yaml:"user_agent,omitempty"`
	RenderTimeoutMs    int     `yaml:"render_timeout_ms,omitempty"`
	LogLevel           string  `yaml:"log_level,omitempty"`
}

// Load reads configuration from environment variables and returns a Config
// struct with defaults applied. When SIDEEYE_CONFIG names a YAML file its
// non-zero fields override the environment; a missing file is ignored.
func Load() (*Config, error) {
	cfg := FromEnv()
	if path := getEnv("SIDEEYE_CONFIG", ""); path != "" {
		overlay, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg.apply(overlay)
	}
	return cfg, nil
}

// FromEnv reads configuration from environment variables only
func FromEnv() *Config {
	return &Config{
		Port:               getEnvAsInt("PORT", 8080),
		BridgeHost:         getEnv("BRIDGE_HOST", "127.0.0.1"),
		BridgePort:         getEnvAsInt("BRIDGE_PORT", 17373),
		BridgePortAttempts: getEnvAsInt("BRIDGE_PORT_ATTEMPTS", 10),
		MaxFindings:        getEnvAsInt("MAX_FINDINGS", 5000),
		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 10000*time.Millisecond),
		MaxBodyBytes:       int64(getEnvAsInt("MAX_BODY_BYTES", 5<<20)),
		FetchRate:          getEnvAsFloat("FETCH_RATE", 5),
		UserAgent:          getEnv("USER_AGENT", "sideeye/1.0"),
		RenderTimeout:      getEnvAsDuration("RENDER_TIMEOUT", 15000*time.Millisecond),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return fileConfig{}, nil
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// apply overrides c with the non-zero fields of fc
func (c *Config) apply(fc fileConfig) {
	if fc.Port != 0 {
		c.Port = fc.Port
	}
	if fc.BridgeHost != "" {
		c.BridgeHost = fc.BridgeHost
	}
	if fc.BridgePort != 0 {
		c.BridgePort = fc.BridgePort
	}
	if fc.BridgePortAttempts != 0 {
		c.BridgePortAttempts = fc.BridgePortAttempts
	}
	if fc.MaxFindings != 0 {
		c.MaxFindings = fc.MaxFindings
	}
	if fc.RequestTimeoutMs != 0 {
		c.RequestTimeout = time.Duration(fc.RequestTimeoutMs) * time.Millisecond
	}
	if fc.MaxBodyBytes != 0 {
		c.MaxBodyBytes = fc.MaxBodyBytes
	}
	if fc.FetchRate != 0 {
		c.FetchRate = fc.FetchRate
	}
	if fc.UserAgent != "" {
		c.UserAgent = fc.UserAgent
	}
	if fc.RenderTimeoutMs != 0 {
		c.RenderTimeout = time.Duration(fc.RenderTimeoutMs) * time.Millisecond
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as an integer
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloat reads an environment variable as a float
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads an environment variable as milliseconds and converts to time.Duration
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Parse as milliseconds
	ms, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return time.Duration(ms) * time.Millisecond
}
