// Package logx provides structured, leveled logging with per-component loggers
// and an in-memory buffer that backs the server's log endpoint.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes leveled log lines tagged with a component identifier.
type Logger struct {
	component string
	logger    *log.Logger
}

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// LogEntry is a structured log record retained in memory for the log endpoint.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Component string `json:"component"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// debugState controls debug-level output, initialized from the environment:
//
//	DEBUG=1                          enable debug for all components
//	DEBUG=1 DEBUG_DOMAINS=agent,web  enable debug for listed components only
type debugState struct {
	enabled bool
	domains map[string]bool // nil = all components
}

//nolint:gochecknoglobals // Process-wide logging state, mirrors stdlib log.
var (
	debugMu  sync.RWMutex
	debugCfg debugState

	bufferMu   sync.Mutex
	buffer     []LogEntry
	bufferSize = 1000
)

func init() { //nolint:gochecknoinits // Required for env var initialization
	debugMu.Lock()
	defer debugMu.Unlock()

	if v := os.Getenv("DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		debugCfg.enabled = true
	}
	if domains := os.Getenv("DEBUG_DOMAINS"); domains != "" {
		debugCfg.domains = make(map[string]bool)
		for _, d := range strings.Split(domains, ",") {
			debugCfg.domains[strings.TrimSpace(d)] = true
		}
	}
}

// NewLogger creates a logger for the named component.
// Output goes to stderr so agent responses on stdout stay clean.
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stderr, "", 0),
	}
}

// SetDebug enables or disables debug output for all components.
func SetDebug(enabled bool) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugCfg.enabled = enabled
}

// IsDebugEnabled reports whether debug logging is active for the component.
func IsDebugEnabled(component string) bool {
	debugMu.RLock()
	defer debugMu.RUnlock()
	if !debugCfg.enabled {
		return false
	}
	if debugCfg.domains == nil {
		return true
	}
	return debugCfg.domains[component]
}

// SetBufferSize adjusts how many log entries the in-memory buffer retains.
// Values below 1 are ignored. Shrinking drops the oldest entries.
func SetBufferSize(n int) {
	if n < 1 {
		return
	}
	bufferMu.Lock()
	defer bufferMu.Unlock()
	bufferSize = n
	if len(buffer) > bufferSize {
		buffer = buffer[len(buffer)-bufferSize:]
	}
}

// RecentEntries returns buffered log entries newer than since.
// An empty component matches all components.
func RecentEntries(component string, since time.Time) []LogEntry {
	bufferMu.Lock()
	defer bufferMu.Unlock()

	result := make([]LogEntry, 0, len(buffer))
	for i := range buffer {
		e := &buffer[i]
		if component != "" && e.Component != component {
			continue
		}
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err == nil && !ts.After(since) {
			continue
		}
		result = append(result, *e)
	}
	return result
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s: %s", timestamp, l.component, level, message)

	bufferMu.Lock()
	buffer = append(buffer, LogEntry{
		Timestamp: timestamp,
		Component: l.component,
		Level:     string(level),
		Message:   message,
	})
	if len(buffer) > bufferSize {
		buffer = buffer[len(buffer)-bufferSize:]
	}
	bufferMu.Unlock()
}

// Debug logs a debug message when debug output is enabled for this component.
func (l *Logger) Debug(format string, args ...any) {
	if !IsDebugEnabled(l.component) {
		return
	}
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Component returns the component identifier for this logger.
func (l *Logger) Component() string {
	return l.component
}

// WithComponent returns a new logger for a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return NewLogger(component)
}
