package saringan

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the minimal structured logging interface used for debug output.
// Key/value pairs follow the message, alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SimpleLogger writes leveled log lines to standard output.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger creates a logger suitable for local debugging.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.print("DEBUG", msg, keysAndValues...)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...interface{}) {
	l.print("INFO", msg, keysAndValues...)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.print("WARN", msg, keysAndValues...)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...interface{}) {
	l.print("ERROR", msg, keysAndValues...)
}

func (l *SimpleLogger) print(level, msg string, keysAndValues ...interface{}) {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(level)
	sb.WriteString("] ")
	sb.WriteString(msg)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		sb.WriteString(fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	if len(keysAndValues)%2 != 0 {
		sb.WriteString(fmt.Sprintf(" %v", keysAndValues[len(keysAndValues)-1]))
	}

	l.logger.Println(sb.String())
}

// DebugConfig controls which areas emit debug logs and how request IDs are
// generated. Debug output is off unless Enabled is set and a Logger is
// configured.
type DebugConfig struct {
	Enabled      bool
	LogAdmission bool
	LogCache     bool
	LogDedup     bool
	LogSweeps    bool
	RequestIDGen func() string
}

var requestCounter uint64

// DefaultDebugConfig enables all areas with a monotonic request ID generator.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogAdmission: true,
		LogCache:     true,
		LogDedup:     true,
		LogSweeps:    true,
		RequestIDGen: func() string {
			return fmt.Sprintf("req-%d", atomic.AddUint64(&requestCounter, 1))
		},
	}
}
