// Package duckdb opens the embedded analytics database and runs statements against it.
package duckdb

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"activation/internal/common"
	"activation/internal/observability"
	"activation/pkg/errors"

	_ "github.com/marcboeker/go-duckdb"
)

// DriverName is the database/sql driver registered by go-duckdb.
const DriverName = "duckdb"

// Service provides DuckDB database operations
type Service struct {
	db           *sql.DB
	config       Config
	connected    bool
	errorHandler *errors.ErrorHandler
	logger       *observability.Logger
}

// Config holds DuckDB connection configuration
type Config struct {
	Path     string
	Timeout  time.Duration // per statement, 0 disables
	ReadOnly bool
}

// NewService creates a new DuckDB service
func NewService(config Config, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.GetDefaultLogger()
	}
	logger = logger.WithField("component", "duckdb")
	return &Service{
		config:       config,
		errorHandler: errors.NewErrorHandler(logger),
		logger:       logger,
	}
}

// NewServiceWithDB wraps an already open handle. The service takes ownership of db.
func NewServiceWithDB(db *sql.DB, config Config, logger *observability.Logger) *Service {
	s := NewService(config, logger)
	s.db = db
	s.connected = true
	return s
}

// Connect opens the database file. The file must already exist: the driver
// would otherwise create an empty database in its place.
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}

	if err := ValidateConfig(s.config); err != nil {
		return err
	}

	if !common.FileExists(s.config.Path) {
		return errors.New(errors.ErrCodeFileNotFound, "Database file not found").
			WithSeverity(errors.SeverityCritical).
			WithContext("path", s.config.Path).
			WithSuggestions(
				"Build the upstream gold tables into the shared database first",
				"Point --db or ACTIVATION_DATABASE_PATH at the right file",
			)
	}

	db, err := sql.Open(DriverName, s.dsn())
	if err != nil {
		return errors.ConnectionError("Failed to open DuckDB database", err).
			WithContext("path", s.config.Path)
	}

	pingCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		if stderrors.Is(err, context.DeadlineExceeded) {
			return errors.ConnectionTimeoutError("Timed out connecting to DuckDB database", err).
				WithContext("path", s.config.Path).
				WithContext("timeout", s.config.Timeout.String())
		}
		return errors.ConnectionError("Failed to connect to DuckDB database", err).
			WithContext("path", s.config.Path)
	}

	s.db = db
	s.connected = true
	s.logger.DebugWithFields("connected", map[string]interface{}{
		"path":      s.config.Path,
		"read_only": s.config.ReadOnly,
	})
	return nil
}

// Close closes the database connection. It is safe to call more than once.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}

	s.connected = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	s.logger.Debug("connection closed")
	return nil
}

// ExecuteSQL executes one statement inside a transaction
func (s *Service) ExecuteSQL(ctx context.Context, stmt string) error {
	if !s.connected {
		return notConnected()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}

	txHandler := s.errorHandler.NewTransactionHandler(func() error {
		// a failed Commit has already ended the transaction
		if err := tx.Rollback(); err != nil && !stderrors.Is(err, sql.ErrTxDone) {
			return err
		}
		return nil
	})

	err = txHandler.Execute(func() error {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.SQLError("Failed to execute statement", stmt, err)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugWithFields("statement executed", map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// QueryContext runs a query. The caller's context bounds it and the caller closes the rows.
func (s *Service) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if !s.connected {
		return nil, notConnected()
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.SQLError("Failed to run query", query, err)
	}
	return rows, nil
}

// QueryInt64 runs a query returning a single integer
func (s *Service) QueryInt64(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if !s.connected {
		return 0, notConnected()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.SQLError("Failed to run query", query, err)
	}
	return n.Int64, nil
}

// tableExistsQuery matches the way unqualified names resolve: the current
// catalog and schema, ignoring case.
const tableExistsQuery = `SELECT COUNT(*) FROM information_schema.tables
WHERE table_catalog = current_database()
  AND table_schema = current_schema()
  AND lower(table_name) = lower(?)`

// TableExists reports whether a table or view named name resolves unqualified
func (s *Service) TableExists(ctx context.Context, name string) (bool, error) {
	n, err := s.QueryInt64(ctx, tableExistsQuery, name)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RowCount returns the number of rows in table
func (s *Service) RowCount(ctx context.Context, table string) (int64, error) {
	return s.QueryInt64(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(table))
}

// ValidateConfig validates the DuckDB configuration
func ValidateConfig(config Config) error {
	if strings.TrimSpace(config.Path) == "" {
		return errors.ConfigError("Database path is required", "database.path")
	}
	if config.Timeout < 0 {
		return errors.ConfigError("Database timeout must not be negative", "database.timeout")
	}
	return nil
}

// QuoteIdent quotes a SQL identifier
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Service) dsn() string {
	if s.config.ReadOnly {
		return s.config.Path + "?access_mode=READ_ONLY"
	}
	return s.config.Path
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

func notConnected() error {
	return errors.New(errors.ErrCodeNotConnected, "Not connected to database").
		WithSuggestions("Call Connect() before executing SQL")
}
