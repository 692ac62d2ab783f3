package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level   string
	Output  io.Writer
	Service string
	Version string
	JSON    bool
}

// Logger provides structured logging on top of logrus
type Logger struct {
	entry *logrus.Entry
}

type runIDKey struct{}

// NewLogger creates a new logger instance. Output defaults to stderr so stdout
// stays reserved for the job's report.
func NewLogger(config LoggerConfig) *Logger {
	base := logrus.New()

	if config.Output == nil {
		config.Output = os.Stderr
	}
	base.SetOutput(config.Output)

	if config.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			DisableColors:    true,
			PadLevelText:     true,
			QuoteEmptyFields: true,
		})
	}

	base.SetLevel(ParseLevel(config.Level))

	fields := logrus.Fields{}
	if config.Service != "" {
		fields["service"] = config.Service
	}
	if config.Version != "" {
		fields["version"] = config.Version
	}

	return &Logger{entry: logrus.NewEntry(base).WithFields(fields)}
}

// ParseLevel converts a level name to a logrus level, falling back to warn.
func ParseLevel(level string) logrus.Level {
	if strings.TrimSpace(level) == "" {
		return logrus.WarnLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithError returns a new logger carrying err
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// WithContext attaches the run id stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := GetRunID(ctx); id != "" {
		return l.WithField("run_id", id)
	}
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.entry.Debug(msg)
}

// DebugWithFields logs a debug message with fields
func (l *Logger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

// InfoWithFields logs an info message with fields
func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.entry.Warn(msg)
}

// WarnWithFields logs a warning message with fields
func (l *Logger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

// NewRunID returns a fresh identifier for one job run
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID stores a run id in ctx
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// GetRunID extracts the run id from ctx
func GetRunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

var defaultLogger = NewLogger(LoggerConfig{Service: "activation"})

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the global default logger
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// Discard returns a logger that drops everything; used in tests.
func Discard() *Logger {
	return NewLogger(LoggerConfig{Level: "panic", Output: io.Discard})
}
