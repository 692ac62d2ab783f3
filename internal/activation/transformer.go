// Package activation builds and inspects the gold__fact_advanced_activation table.
package activation

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"activation/internal/observability"
	"activation/pkg/errors"
)

// Store is the slice of the database connector the transformer needs.
type Store interface {
	ExecuteSQL(ctx context.Context, stmt string) error
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryInt64(ctx context.Context, query string, args ...interface{}) (int64, error)
	TableExists(ctx context.Context, name string) (bool, error)
	RowCount(ctx context.Context, table string) (int64, error)
}

// Transformer rebuilds the activation table from the upstream gold tables
type Transformer struct {
	store  Store
	logger *observability.Logger
}

// BuildResult describes a completed rebuild
type BuildResult struct {
	Table    string
	Rows     int64
	Duration time.Duration
}

// NewTransformer creates a transformer over store
func NewTransformer(store Store, logger *observability.Logger) *Transformer {
	if logger == nil {
		logger = observability.GetDefaultLogger()
	}
	return &Transformer{
		store:  store,
		logger: logger.WithField("table", TableName),
	}
}

// Build replaces the activation table. The statement is atomic: on failure the
// previous table, if any, is left untouched.
func (t *Transformer) Build(ctx context.Context) (*BuildResult, error) {
	log := t.logger.WithContext(ctx)
	start := time.Now()

	if err := t.checkSources(ctx); err != nil {
		return nil, err
	}

	log.Debug("executing create statement")
	if err := t.store.ExecuteSQL(ctx, CreateStatement); err != nil {
		return nil, err
	}

	rows, err := t.store.RowCount(ctx, TableName)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Table:    TableName,
		Rows:     rows,
		Duration: time.Since(start),
	}

	log.InfoWithFields("activation table rebuilt", map[string]interface{}{
		"rows":        result.Rows,
		"duration_ms": result.Duration.Milliseconds(),
	})
	return result, nil
}

// checkSources fails with every missing upstream table named at once.
func (t *Transformer) checkSources(ctx context.Context) error {
	var missing []string
	for _, table := range SourceTables {
		ok, err := t.store.TableExists(ctx, table)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		return errors.New(errors.ErrCodeSQLObjectNotFound, "Upstream tables are missing: "+strings.Join(missing, ", ")).
			WithContext("tables", missing).
			WithSuggestions(
				"Build the upstream gold tables before this one",
				"Check that the database path points at the shared analytics database",
			)
	}
	return nil
}
