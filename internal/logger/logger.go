package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger provides structured logging capabilities
type Logger struct {
	name   string
	fields map[string]interface{}
}

// LogLevel represents different logging levels
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

var levelRank = map[LogLevel]int{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Logger    string                 `json:"logger"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

var (
	outMu    sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = levelFromEnv()
)

func levelFromEnv() LogLevel {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel maps a level name in either case to a LogLevel, defaulting to
// LevelInfo.
func ParseLevel(name string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(name))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	}
	return LevelInfo
}

// SetOutput redirects every logger. The TUI points this at a file so the
// alternate screen stays clean.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

// SetLevel drops entries below level.
func SetLevel(level LogLevel) {
	outMu.Lock()
	defer outMu.Unlock()
	minLevel = level
}

// New creates a new logger instance with the given name
func New(name string) *Logger {
	return &Logger{name: name}
}

// Debug logs a debug message with optional data
func (l *Logger) Debug(message string, data ...map[string]interface{}) {
	l.log(LevelDebug, message, data...)
}

// Info logs an info message with optional data
func (l *Logger) Info(message string, data ...map[string]interface{}) {
	l.log(LevelInfo, message, data...)
}

// Warn logs a warning message with optional data
func (l *Logger) Warn(message string, data ...map[string]interface{}) {
	l.log(LevelWarn, message, data...)
}

// Error logs an error message with optional data
func (l *Logger) Error(message string, data ...map[string]interface{}) {
	l.log(LevelError, message, data...)
}

func (l *Logger) log(level LogLevel, message string, data ...map[string]interface{}) {
	outMu.Lock()
	defer outMu.Unlock()
	if levelRank[level] < levelRank[minLevel] {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Logger:    l.name,
		Message:   message,
	}

	if len(l.fields) > 0 || len(data) > 0 {
		entry.Data = make(map[string]interface{}, len(l.fields))
		for k, v := range l.fields {
			entry.Data[k] = v
		}
		for _, d := range data {
			for k, v := range d {
				entry.Data[k] = errorValue(v)
			}
		}
	}

	if os.Getenv("LOG_FORMAT") == "json" {
		jsonBytes, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(out, "[%s] %s: %s\n", level, l.name, message)
			return
		}
		fmt.Fprintln(out, string(jsonBytes))
		return
	}

	ts := entry.Timestamp.Format("2006/01/02 15:04:05")
	if len(entry.Data) > 0 {
		dataStr, _ := json.Marshal(entry.Data)
		fmt.Fprintf(out, "%s [%s] %s: %s - %s\n", ts, level, l.name, message, string(dataStr))
	} else {
		fmt.Fprintf(out, "%s [%s] %s: %s\n", ts, level, l.name, message)
	}
}

// errors marshal to {} otherwise
func errorValue(v interface{}) interface{} {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

// WithField returns a child logger that adds key to every entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a child logger carrying fields on every entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = errorValue(v)
	}
	return &Logger{name: l.name, fields: merged}
}
