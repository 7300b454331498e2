// Package logging provides structured logging with file and console output.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) Color() string {
	switch l {
	case DEBUG:
		return "\033[36m" // Cyan
	case INFO:
		return "\033[32m" // Green
	case WARN:
		return "\033[33m" // Yellow
	case ERROR:
		return "\033[31m" // Red
	default:
		return "\033[0m"
	}
}

// ParseLevel converts a config string into a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured logging
type Logger struct {
	mu          sync.Mutex
	level       Level
	output      io.Writer
	fileOutput  io.WriteCloser
	enableColor bool
	enableJSON  bool
	component   string
	version     string
	logDir      string
}

// Config holds logger configuration
type Config struct {
	Level       Level
	LogDir      string    // Directory for log files
	EnableFile  bool      // Write to file
	EnableJSON  bool      // File entries as JSON lines
	EnableColor bool      // Color console output
	Component   string    // Tag added to every entry
	Version     string    // Application version added to JSON entries
	Output      io.Writer // Console writer, stdout when nil
	Rolling     *RollingConfig
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
	once          sync.Once
)

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:       INFO,
		LogDir:      "logs",
		EnableFile:  false,
		EnableColor: true,
		Component:   "app",
	}
}

// New creates a new logger with the given config
func New(cfg Config) (*Logger, error) {
	l := &Logger{
		level:       cfg.Level,
		output:      cfg.Output,
		enableColor: cfg.EnableColor,
		enableJSON:  cfg.EnableJSON,
		component:   cfg.Component,
		version:     cfg.Version,
		logDir:      cfg.LogDir,
	}
	if l.output == nil {
		l.output = os.Stdout
	}

	if IsLambda() {
		l.output = NewLambdaWriter(cfg.Component, cfg.Level)
		l.enableColor = false
		return l, nil
	}

	if cfg.EnableFile {
		if err := l.setupFileLogging(cfg); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// GetDefault returns the default logger, initializing it if needed
func GetDefault() *Logger {
	once.Do(func() {
		l, err := New(DefaultConfig())
		if err != nil {
			l = &Logger{
				level:       INFO,
				output:      os.Stdout,
				enableColor: true,
			}
		}
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = l
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	once.Do(func() {})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Discard returns a logger that drops everything, for tests
func Discard() *Logger {
	return &Logger{level: ERROR + 1, output: io.Discard}
}

func (l *Logger) setupFileLogging(cfg Config) error {
	rc := DefaultRollingConfig()
	if cfg.Rolling != nil {
		rc = *cfg.Rolling
	}
	if cfg.LogDir != "" {
		rc.LogDir = cfg.LogDir
	}

	rw, err := NewRollingWriter(rc, cfg.EnableJSON)
	if err != nil {
		return fmt.Errorf("failed to set up log file: %w", err)
	}

	l.fileOutput = rw
	l.logDir = rc.LogDir
	return nil
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.fileOutput != nil {
		return l.fileOutput.Close()
	}
	return nil
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Component returns the component tag of the logger
func (l *Logger) Component() string {
	return l.component
}

type jsonEntry struct {
	Time      string                 `json:"time"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Caller    string                 `json:"caller"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// log writes a log entry
func (l *Logger) log(level Level, fields Fields, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	now := time.Now()
	ts := now.Format("2006-01-02 15:04:05.000")

	// Get caller info
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		parts := strings.Split(file, "/")
		caller = fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
	}

	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}
	text := formattedMsg + formatFields(fields)

	comp := ""
	if l.component != "" {
		comp = fmt.Sprintf(" [%s]", l.component)
	}
	plainEntry := fmt.Sprintf("[%s] [%s]%s [%s] %s\n", ts, level.String(), comp, caller, text)

	if l.fileOutput != nil {
		if l.enableJSON {
			data, err := json.Marshal(jsonEntry{
				Time:      now.Format(time.RFC3339Nano),
				Level:     level.String(),
				Component: l.component,
				Version:   l.version,
				Caller:    caller,
				Message:   formattedMsg,
				Fields:    fields,
			})
			if err == nil {
				l.fileOutput.Write(append(data, '\n'))
			}
		} else {
			l.fileOutput.Write([]byte(plainEntry))
		}
	}

	if l.enableColor {
		colorEntry := fmt.Sprintf("%s[%s]%s [%s]%s [%s] %s\n",
			level.Color(), level.String(), "\033[0m", ts, comp, caller, text)
		l.output.Write([]byte(colorEntry))
	} else {
		l.output.Write([]byte(plainEntry))
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DEBUG, nil, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(INFO, nil, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WARN, nil, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ERROR, nil, msg, args...)
}

// Package-level convenience functions using default logger

// Debug logs a debug message using the default logger
func Debug(msg string, args ...interface{}) {
	GetDefault().log(DEBUG, nil, msg, args...)
}

// Info logs an info message using the default logger
func Info(msg string, args ...interface{}) {
	GetDefault().log(INFO, nil, msg, args...)
}

// Warn logs a warning message using the default logger
func Warn(msg string, args ...interface{}) {
	GetDefault().log(WARN, nil, msg, args...)
}

// Error logs an error message using the default logger
func Error(msg string, args ...interface{}) {
	GetDefault().log(ERROR, nil, msg, args...)
}

// Fields are key/value pairs attached to an entry
type Fields map[string]interface{}

// WithFields returns a field logger for structured logging
func (l *Logger) WithFields(fields Fields) *FieldLogger {
	return &FieldLogger{logger: l, fields: fields}
}

// FieldLogger provides structured field logging
type FieldLogger struct {
	logger *Logger
	fields Fields
}

// WithFields returns a new FieldLogger carrying both field sets
func (fl *FieldLogger) WithFields(fields Fields) *FieldLogger {
	merged := make(Fields, len(fl.fields)+len(fields))
	for k, v := range fl.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &FieldLogger{logger: fl.logger, fields: merged}
}

// formatFields renders fields sorted by key so entries are stable
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

func (fl *FieldLogger) Debug(msg string, args ...interface{}) {
	fl.logger.log(DEBUG, fl.fields, msg, args...)
}

func (fl *FieldLogger) Info(msg string, args ...interface{}) {
	fl.logger.log(INFO, fl.fields, msg, args...)
}

func (fl *FieldLogger) Warn(msg string, args ...interface{}) {
	fl.logger.log(WARN, fl.fields, msg, args...)
}

func (fl *FieldLogger) Error(msg string, args ...interface{}) {
	fl.logger.log(ERROR, fl.fields, msg, args...)
}
