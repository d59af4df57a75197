package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "BRIDGE_PORT", "MAX_FINDINGS", "REQUEST_TIMEOUT", "FETCH_RATE", "SIDEEYE_CONFIG"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.BridgePort != 17373 || cfg.MaxFindings != 5000 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout != 10*time.Second || cfg.FetchRate != 5 {
		t.Errorf("unexpected fetch defaults: %+v", cfg)
	}
	if cfg.BridgeHost != "127.0.0.1" {
		t.Errorf("bridge host = %q", cfg.BridgeHost)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "2500")
	t.Setenv("FETCH_RATE", "0.5")
	t.Setenv("MAX_FINDINGS", "not-a-number")
	t.Setenv("SIDEEYE_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.RequestTimeout != 2500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.RequestTimeout)
	}
	if cfg.FetchRate != 0.5 {
		t.Errorf("rate = %v", cfg.FetchRate)
	}
	if cfg.MaxFindings != 5000 {
		t.Errorf("unparseable value should fall back to default, got %d", cfg.MaxFindings)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sideeye.yaml")
	data := "port: 7000\nbridge_port: 18000\nrender_timeout_ms: 3000\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("SIDEEYE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7000 || cfg.BridgePort != 18000 {
		t.Errorf("overlay not applied: %+v", cfg)
	}
	if cfg.RenderTimeout != 3*time.Second || cfg.LogLevel != "debug" {
		t.Errorf("overlay not applied: %+v", cfg)
	}
}

func TestLoadMissingAndMalformedFiles(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("SIDEEYE_CONFIG", filepath.Join(dir, "absent.yaml"))
	if _, err := Load(); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("port: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIDEEYE_CONFIG", bad)
	if _, err := Load(); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}
