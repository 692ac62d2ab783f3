package activation

import (
	"context"
	"database/sql"

	"activation/pkg/errors"
)

// Fact is one row of gold__fact_advanced_activation. AccountID and
// CreatedDate come straight from gold__dim_accounts and may be NULL there.
type Fact struct {
	AccountID               sql.NullString
	CreatedDate             sql.NullTime
	FirstCoreEventDate      sql.NullTime
	FirstDealDate           sql.NullTime
	ActivationDate          sql.NullTime
	IsActivated             bool
	TimeToValueDays         sql.NullInt64
	CoreEventsInFirst14Days int64
	DealsInFirst14Days      int64
}

// HasCoreSignal reports whether a qualifying product event fell inside the window.
func (f Fact) HasCoreSignal() bool {
	return f.FirstCoreEventDate.Valid
}

// HasDealSignal reports whether a deal fell inside the window.
func (f Fact) HasDealSignal() bool {
	return f.FirstDealDate.Valid
}

func scanFact(rows *sql.Rows) (Fact, error) {
	var f Fact
	err := rows.Scan(
		&f.AccountID,
		&f.CreatedDate,
		&f.FirstCoreEventDate,
		&f.FirstDealDate,
		&f.ActivationDate,
		&f.IsActivated,
		&f.TimeToValueDays,
		&f.CoreEventsInFirst14Days,
		&f.DealsInFirst14Days,
	)
	return f, err
}

// Facts reads every row of the activation table ordered by AccountId
func (t *Transformer) Facts(ctx context.Context) ([]Fact, error) {
	rows, err := t.store.QueryContext(ctx, selectFacts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facts := make([]Fact, 0)
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "Failed to read activation row").
				WithContext("table", TableName)
		}
		facts = append(facts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "Failed to read activation rows").
			WithContext("table", TableName)
	}

	return facts, nil
}
