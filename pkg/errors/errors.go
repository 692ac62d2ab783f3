package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed  ErrorCode = "GACT1001"
	ErrCodeConnectionTimeout ErrorCode = "GACT1002"
	ErrCodeNotConnected      ErrorCode = "GACT1003"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "GACT2001"
	ErrCodeConfigInvalid  ErrorCode = "GACT2002"

	// SQL execution errors (4xxx)
	ErrCodeSQLSyntax         ErrorCode = "GACT4001"
	ErrCodeSQLTimeout        ErrorCode = "GACT4003"
	ErrCodeSQLTransaction    ErrorCode = "GACT4004"
	ErrCodeSQLObjectNotFound ErrorCode = "GACT4005"
	ErrCodeSQLExecution      ErrorCode = "GACT4006"
	ErrCodeResultParsing     ErrorCode = "GACT4007"

	// File system errors (5xxx)
	ErrCodeFileNotFound  ErrorCode = "GACT5001"
	ErrCodeFileOperation ErrorCode = "GACT5005"

	// Validation errors (6xxx)
	ErrCodeInvariantBroken ErrorCode = "GACT6002"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "GACT9001"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so callers can compare against a sentinel built with New.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError. A nil error yields nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	if cause == nil {
		return nil
	}
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Check that the database file is readable",
			"Make sure no other process holds a write lock on the file",
		)
}

// ConnectionTimeoutError reports a database that did not answer within the timeout
func ConnectionTimeoutError(message string, cause error) *AppError {
	if cause == nil {
		return nil
	}
	return Wrap(cause, ErrCodeConnectionTimeout, message).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Another process may hold a write lock on the database file",
			"Increase database.timeout or set it to 0 to disable",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'activation config show' to inspect the effective configuration",
		)
}

// SQLError creates an SQL execution error. The code is refined from the driver message.
func SQLError(message string, query string, cause error) *AppError {
	if cause == nil {
		return nil
	}
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	lower := strings.ToLower(cause.Error())
	switch {
	case strings.Contains(lower, "catalog error") ||
		strings.Contains(lower, "does not exist"):
		err.Code = ErrCodeSQLObjectNotFound
		_ = err.WithSuggestions(
			"Verify the upstream gold tables have been built",
			"Check for typos in table or column names",
		)
	case strings.Contains(lower, "parser error") || strings.Contains(lower, "syntax error"):
		err.Code = ErrCodeSQLSyntax
	case strings.Contains(lower, "context deadline exceeded") || strings.Contains(lower, "timeout"):
		err.Code = ErrCodeSQLTimeout
		_ = err.WithSuggestions("Increase database.timeout or set it to 0 to disable")
	}

	return err
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
