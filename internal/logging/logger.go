package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level orders log severities
type Level int

// Log levels, lowest first
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name used in output
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps debug|info|warn|error to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger wraps the standard library logger with structured logging methods
type Logger struct {
	logger *log.Logger
	level  Level
}

// New creates a new Logger writing to stdout at info level
func New() *Logger {
	return NewWithWriter(os.Stdout, LevelInfo)
}

// NewWithWriter creates a Logger writing to w, dropping messages below level
func NewWithWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// Discard returns a Logger that drops everything
func Discard() *Logger {
	return NewWithWriter(io.Discard, LevelError+1)
}

// Debug logs a debug message with structured key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an informational message with structured key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning with structured key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with structured key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

// log formats and outputs a log message with key-value pairs
// keysAndValues should be pairs like: "key1", value1, "key2", value2
func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	if l == nil || level < l.level {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		value := keysAndValues[i+1]
		if s, ok := value.(string); ok && strings.ContainsAny(s, " \t\n\"=") {
			value = fmt.Sprintf("%q", s)
		}
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], value)
	}

	l.logger.Println(b.String())
}
