package activation

import (
	"context"
	"fmt"

	"activation/pkg/errors"
)

// CheckResult is the outcome of one invariant check
type CheckResult struct {
	Name        string
	Description string
	Violations  int64
}

// Passed reports whether the check found no violations
func (c CheckResult) Passed() bool {
	return c.Violations == 0
}

// Verification collects the invariant checks run against the built table
type Verification struct {
	Table  string
	Checks []CheckResult
}

// OK reports whether every check passed
func (v *Verification) OK() bool {
	for _, c := range v.Checks {
		if !c.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the checks with violations
func (v *Verification) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range v.Checks {
		if !c.Passed() {
			failed = append(failed, c)
		}
	}
	return failed
}

type rowCheck struct {
	name        string
	description string
	query       string
}

// Each query counts the rows breaking one invariant.
var rowChecks = []rowCheck{
	{
		name:        "unique_account",
		description: "each AccountId appears once",
		query: `SELECT CAST(COALESCE(SUM(n - 1), 0) AS BIGINT) FROM (
    SELECT COUNT(*) AS n FROM gold__fact_advanced_activation GROUP BY AccountId
)`,
	},
	{
		name:        "activation_flag",
		description: "IsActivated is set and true exactly when both signals are present",
		query: `SELECT COUNT(*) FROM gold__fact_advanced_activation
WHERE IsActivated IS NULL
   OR IsActivated <> (FirstCoreEventDate IS NOT NULL AND FirstDealDate IS NOT NULL)`,
	},
	{
		name:        "activation_date",
		description: "ActivationDate is the later first signal when activated, absent otherwise",
		query: `SELECT COUNT(*) FROM gold__fact_advanced_activation
WHERE (IsActivated AND (ActivationDate IS NULL
        OR ActivationDate <> GREATEST(FirstCoreEventDate, FirstDealDate)))
   OR (NOT IsActivated AND ActivationDate IS NOT NULL)`,
	},
	{
		name:        "time_to_value",
		description: "TimeToValueDays is the non-negative day gap to activation, absent otherwise",
		query: `SELECT COUNT(*) FROM gold__fact_advanced_activation
WHERE (IsActivated AND (TimeToValueDays IS NULL
        OR TimeToValueDays < 0
        OR TimeToValueDays <> DATE_DIFF('day', CreatedDate, ActivationDate)))
   OR (NOT IsActivated AND TimeToValueDays IS NOT NULL)`,
	},
	{
		name:        "counts_present",
		description: "window counts are never absent",
		query: `SELECT COUNT(*) FROM gold__fact_advanced_activation
WHERE CoreEventsInFirst14Days IS NULL OR DealsInFirst14Days IS NULL`,
	},
	{
		name:        "window_bounds",
		description: "first signal dates fall inside the 14 day window",
		query: `SELECT COUNT(*) FROM gold__fact_advanced_activation
WHERE FirstCoreEventDate NOT BETWEEN CreatedDate AND CreatedDate + INTERVAL 14 DAY
   OR FirstDealDate NOT BETWEEN CreatedDate AND CreatedDate + INTERVAL 14 DAY`,
	},
}

// Verify checks the built table against the upstream accounts and its own invariants.
func (t *Transformer) Verify(ctx context.Context) (*Verification, error) {
	exists, err := t.store.TableExists(ctx, TableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New(errors.ErrCodeSQLObjectNotFound, "Activation table has not been built").
			WithContext("table", TableName).
			WithSuggestions("Run 'activation build' first")
	}

	v := &Verification{Table: TableName}

	parity, err := t.rowCountParity(ctx)
	if err != nil {
		return nil, err
	}
	v.Checks = append(v.Checks, parity)

	for _, c := range rowChecks {
		n, err := t.store.QueryInt64(ctx, c.query)
		if err != nil {
			return nil, err
		}
		v.Checks = append(v.Checks, CheckResult{
			Name:        c.name,
			Description: c.description,
			Violations:  n,
		})
	}

	log := t.logger.WithContext(ctx)
	for _, c := range v.Failed() {
		log.WarnWithFields("invariant violated", map[string]interface{}{
			"check":      c.Name,
			"violations": c.Violations,
		})
	}

	return v, nil
}

func (t *Transformer) rowCountParity(ctx context.Context) (CheckResult, error) {
	accounts, err := t.store.RowCount(ctx, AccountsTable)
	if err != nil {
		return CheckResult{}, err
	}
	facts, err := t.store.RowCount(ctx, TableName)
	if err != nil {
		return CheckResult{}, err
	}

	diff := accounts - facts
	if diff < 0 {
		diff = -diff
	}

	return CheckResult{
		Name:        "row_count_parity",
		Description: fmt.Sprintf("one row per account (%d accounts, %d rows)", accounts, facts),
		Violations:  diff,
	}, nil
}
