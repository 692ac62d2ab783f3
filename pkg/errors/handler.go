package errors

import (
	"sync"
	"time"
)

// Sink receives structured error records. observability.Logger satisfies it.
// Records are diagnostics: the caller that receives the error reports it.
type Sink interface {
	DebugWithFields(msg string, fields map[string]interface{})
}

// ErrorHandler provides centralized error recording
type ErrorHandler struct {
	mu         sync.Mutex
	sink       Sink
	errorLog   []ErrorLogEntry
	maxEntries int
}

// ErrorLogEntry represents a logged error
type ErrorLogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Code      ErrorCode              `json:"code"`
	Severity  ErrorSeverity          `json:"severity"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// NewErrorHandler creates a new error handler. A nil sink only records in memory.
func NewErrorHandler(sink Sink) *ErrorHandler {
	return &ErrorHandler{
		sink:       sink,
		errorLog:   make([]ErrorLogEntry, 0),
		maxEntries: 100,
	}
}

// Handle records an error with full context
func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	appErr, ok := err.(*AppError)
	if !ok {
		appErr = Wrap(err, ErrCodeInternal, err.Error())
	}

	entry := ErrorLogEntry{
		Timestamp: appErr.Timestamp,
		Code:      appErr.Code,
		Severity:  appErr.Severity,
		Message:   appErr.Message,
		Context:   appErr.Context,
	}

	h.errorLog = append(h.errorLog, entry)
	if len(h.errorLog) > h.maxEntries {
		h.errorLog = h.errorLog[1:]
	}

	if h.sink != nil {
		fields := map[string]interface{}{
			"code":     string(entry.Code),
			"severity": string(entry.Severity),
		}
		for k, v := range entry.Context {
			fields[k] = v
		}
		if appErr.Cause != nil {
			fields["cause"] = appErr.Cause.Error()
		}
		h.sink.DebugWithFields(entry.Message, fields)
	}
}

// Entries returns a copy of the recorded errors, oldest first
func (h *ErrorHandler) Entries() []ErrorLogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ErrorLogEntry, len(h.errorLog))
	copy(out, h.errorLog)
	return out
}

// TransactionHandler manages error handling for transactions
type TransactionHandler struct {
	handler      *ErrorHandler
	rollbackFunc func() error
	committed    bool
}

// NewTransactionHandler creates a new transaction handler
func (h *ErrorHandler) NewTransactionHandler(rollbackFunc func() error) *TransactionHandler {
	return &TransactionHandler{
		handler:      h,
		rollbackFunc: rollbackFunc,
	}
}

// Execute runs fn and rolls back when it fails. fn is expected to commit on success.
func (th *TransactionHandler) Execute(fn func() error) error {
	err := fn()

	if err != nil {
		th.handler.Handle(err)

		if th.rollbackFunc != nil && !th.committed {
			if rollbackErr := th.rollbackFunc(); rollbackErr != nil {
				th.handler.Handle(Wrap(rollbackErr, ErrCodeSQLTransaction, "Failed to rollback transaction"))
			}
		}

		return err
	}

	th.committed = true
	return nil
}

// Committed reports whether the wrapped function completed without error
func (th *TransactionHandler) Committed() bool {
	return th.committed
}
