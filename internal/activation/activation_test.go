package activation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"activation/internal/duckdb"
	"activation/internal/observability"
	"activation/internal/testutil"
	"activation/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioFixture(t *testing.T) testutil.Fixture {
	return testutil.Fixture{
		Accounts: []testutil.Account{
			{ID: "A", Created: testutil.Day(t, "2024-01-01")},
			{ID: "B", Created: testutil.Day(t, "2024-01-01")},
			{ID: "C", Created: testutil.Day(t, "2024-01-01")},
			{ID: "D", Created: testutil.Day(t, "2024-02-01")},
			{ID: "E", Created: testutil.Day(t, "2024-02-01")},
			{ID: "F", Created: testutil.Day(t, "2024-03-01")},
			{ID: "G", Created: testutil.Day(t, "2024-04-01")},
		},
		ProductEvents: []testutil.ProductEvent{
			{AccountID: "A", At: testutil.Day(t, "2024-01-05"), HasDealContext: true},
			// outside the window
			{AccountID: "B", At: testutil.Day(t, "2024-01-20"), HasDealContext: true},
			// last day of the window, late in the day
			{AccountID: "D", At: testutil.Day(t, "2024-02-15").Add(23 * time.Hour), HasDealContext: true},
			{AccountID: "E", At: testutil.Day(t, "2024-02-02"), HasDealContext: false},
			{AccountID: "F", At: testutil.Day(t, "2024-03-02"), HasDealContext: true},
			{AccountID: "F", At: testutil.Day(t, "2024-03-03"), HasDealContext: false},
			{AccountID: "F", At: testutil.Day(t, "2024-03-04"), HasDealContext: true},
			{AccountID: "G", At: testutil.Day(t, "2024-04-08"), HasDealContext: true},
			// unknown account is ignored
			{AccountID: "Z", At: testutil.Day(t, "2024-01-02"), HasDealContext: true},
		},
		Deals: []testutil.Deal{
			{AccountID: "A", Created: testutil.Day(t, "2024-01-10")},
			{AccountID: "B", Created: testutil.Day(t, "2024-01-03")},
			// day 15 and before signup are both excluded
			{AccountID: "D", Created: testutil.Day(t, "2024-02-16")},
			{AccountID: "D", Created: testutil.Day(t, "2024-01-31")},
			{AccountID: "E", Created: testutil.Day(t, "2024-02-03")},
			{AccountID: "F", Created: testutil.Day(t, "2024-03-06")},
			{AccountID: "F", Created: testutil.Day(t, "2024-03-05")},
			{AccountID: "G", Created: testutil.Day(t, "2024-04-02")},
		},
	}
}

func openTransformer(t *testing.T, path string) *Transformer {
	t.Helper()
	store := duckdb.NewService(duckdb.Config{Path: path}, observability.Discard())
	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() { store.Close() })
	return NewTransformer(store, observability.Discard())
}

func buildFacts(t *testing.T, f testutil.Fixture) (*Transformer, []Fact) {
	t.Helper()
	transformer := openTransformer(t, testutil.NewDatabase(t, f))

	_, err := transformer.Build(context.Background())
	require.NoError(t, err)

	facts, err := transformer.Facts(context.Background())
	require.NoError(t, err)
	return transformer, facts
}

func date(nt sql.NullTime) string {
	if !nt.Valid {
		return ""
	}
	return nt.Time.Format("2006-01-02")
}

func byAccount(facts []Fact) map[string]Fact {
	out := make(map[string]Fact, len(facts))
	for _, f := range facts {
		out[f.AccountID.String] = f
	}
	return out
}

func TestBuildScenarios(t *testing.T) {
	_, facts := buildFacts(t, scenarioFixture(t))
	got := byAccount(facts)

	tests := []struct {
		account    string
		firstCore  string
		firstDeal  string
		activation string
		activated  bool
		ttv        int64
		ttvValid   bool
		coreCount  int64
		dealCount  int64
	}{
		{account: "A", firstCore: "2024-01-05", firstDeal: "2024-01-10", activation: "2024-01-10", activated: true, ttv: 9, ttvValid: true, coreCount: 1, dealCount: 1},
		{account: "B", firstDeal: "2024-01-03", dealCount: 1},
		{account: "C"},
		{account: "D", firstCore: "2024-02-15", coreCount: 1},
		{account: "E", firstDeal: "2024-02-03", dealCount: 1},
		{account: "F", firstCore: "2024-03-02", firstDeal: "2024-03-05", activation: "2024-03-05", activated: true, ttv: 4, ttvValid: true, coreCount: 2, dealCount: 2},
		{account: "G", firstCore: "2024-04-08", firstDeal: "2024-04-02", activation: "2024-04-08", activated: true, ttv: 7, ttvValid: true, coreCount: 1, dealCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.account, func(t *testing.T) {
			f, ok := got[tt.account]
			require.True(t, ok, "missing row for account %s", tt.account)

			assert.Equal(t, tt.firstCore, date(f.FirstCoreEventDate), "FirstCoreEventDate")
			assert.Equal(t, tt.firstDeal, date(f.FirstDealDate), "FirstDealDate")
			assert.Equal(t, tt.activation, date(f.ActivationDate), "ActivationDate")
			assert.Equal(t, tt.activated, f.IsActivated, "IsActivated")
			assert.Equal(t, tt.ttvValid, f.TimeToValueDays.Valid, "TimeToValueDays present")
			if tt.ttvValid {
				assert.Equal(t, tt.ttv, f.TimeToValueDays.Int64, "TimeToValueDays")
			}
			assert.Equal(t, tt.coreCount, f.CoreEventsInFirst14Days, "CoreEventsInFirst14Days")
			assert.Equal(t, tt.dealCount, f.DealsInFirst14Days, "DealsInFirst14Days")
		})
	}
}

func TestBuildOneRowPerAccountInOrder(t *testing.T) {
	_, facts := buildFacts(t, scenarioFixture(t))

	ids := make([]string, len(facts))
	for i, f := range facts {
		ids[i] = f.AccountID.String
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, ids)
	assert.Equal(t, "2024-01-01", date(facts[0].CreatedDate))
}

func TestBuildEmptyUpstream(t *testing.T) {
	transformer := openTransformer(t, testutil.NewDatabase(t, testutil.Fixture{}))

	result, err := transformer.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Rows)

	facts, err := transformer.Facts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, facts)
}

// row flattens a fact into comparable column values, dates as YYYY-MM-DD
func row(f Fact) []interface{} {
	return []interface{}{
		f.AccountID,
		date(f.CreatedDate),
		date(f.FirstCoreEventDate),
		date(f.FirstDealDate),
		date(f.ActivationDate),
		f.IsActivated,
		f.TimeToValueDays,
		f.CoreEventsInFirst14Days,
		f.DealsInFirst14Days,
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	transformer, first := buildFacts(t, scenarioFixture(t))

	_, err := transformer.Build(context.Background())
	require.NoError(t, err)

	second, err := transformer.Facts(context.Background())
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, row(first[i]), row(second[i]), "row %d", i)
	}
}

func TestBuildUpstreamNulls(t *testing.T) {
	path := testutil.NewDatabase(t, scenarioFixture(t))
	testutil.Exec(t, path, `INSERT INTO gold__dim_accounts VALUES ('H', NULL)`)
	testutil.Exec(t, path, `INSERT INTO gold__dim_accounts VALUES (NULL, '2024-01-01')`)
	testutil.Exec(t, path, `INSERT INTO gold__fact_deals VALUES ('H', '2024-01-02')`)

	transformer := openTransformer(t, path)
	result, err := transformer.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Rows)

	facts, err := transformer.Facts(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 9)

	h := byAccount(facts)["H"]
	assert.False(t, h.CreatedDate.Valid)
	assert.False(t, h.IsActivated)
	assert.Equal(t, int64(0), h.DealsInFirst14Days)

	// NULL sorts last
	assert.False(t, facts[len(facts)-1].AccountID.Valid)

	s := Summarize(facts)
	assert.Equal(t, 9, s.Accounts)
	assert.Equal(t, 1, s.MissingCreatedDate)
	assert.Equal(t, 3, s.Activated)

	v, err := transformer.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, v.OK(), "unexpected failures: %+v", v.Failed())
}

func TestBuildMixedCaseUpstreamTable(t *testing.T) {
	f := scenarioFixture(t)
	f.Omit = []string{testutil.AccountsTable}
	path := testutil.NewDatabase(t, f)
	testutil.Exec(t, path, `CREATE TABLE "Gold__Dim_Accounts" (AccountId VARCHAR, CreatedDate TIMESTAMP)`)
	testutil.Exec(t, path, `INSERT INTO "Gold__Dim_Accounts" VALUES ('A', '2024-01-01')`)

	transformer := openTransformer(t, path)
	result, err := transformer.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Rows)

	facts, err := transformer.Facts(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.True(t, facts[0].IsActivated)
}

func TestBuildReplacesStaleTable(t *testing.T) {
	path := testutil.NewDatabase(t, scenarioFixture(t))
	testutil.Exec(t, path, `CREATE TABLE gold__fact_advanced_activation AS SELECT 'stale' AS AccountId`)

	transformer := openTransformer(t, path)
	result, err := transformer.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.Rows)
}

func TestBuildMissingUpstreamLeavesNoTable(t *testing.T) {
	f := scenarioFixture(t)
	f.Omit = []string{testutil.DealsTable}
	path := testutil.NewDatabase(t, f)

	store := duckdb.NewService(duckdb.Config{Path: path}, observability.Discard())
	require.NoError(t, store.Connect(context.Background()))
	defer store.Close()

	_, err := NewTransformer(store, observability.Discard()).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSQLObjectNotFound, errors.GetErrorCode(err))
	assert.Contains(t, err.Error(), testutil.DealsTable)

	exists, err := store.TableExists(context.Background(), TableName)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVerifyBuiltTable(t *testing.T) {
	transformer, _ := buildFacts(t, scenarioFixture(t))

	v, err := transformer.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, v.OK(), "unexpected failures: %+v", v.Failed())
	assert.Len(t, v.Checks, 1+len(rowChecks))
	assert.Equal(t, "row_count_parity", v.Checks[0].Name)
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := testutil.NewDatabase(t, scenarioFixture(t))

	transformer := openTransformer(t, path)
	_, err := transformer.Build(context.Background())
	require.NoError(t, err)

	store := transformer.store.(*duckdb.Service)
	require.NoError(t, store.ExecuteSQL(context.Background(),
		`UPDATE gold__fact_advanced_activation SET IsActivated = TRUE WHERE AccountId = 'C'`))
	require.NoError(t, store.ExecuteSQL(context.Background(),
		`DELETE FROM gold__fact_advanced_activation WHERE AccountId = 'B'`))

	v, err := transformer.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, v.OK())

	failed := map[string]int64{}
	for _, c := range v.Failed() {
		failed[c.Name] = c.Violations
	}
	assert.Equal(t, int64(1), failed["row_count_parity"])
	assert.Equal(t, int64(1), failed["activation_flag"])
	assert.Equal(t, int64(1), failed["activation_date"])
	assert.Equal(t, int64(1), failed["time_to_value"])
	assert.NotContains(t, failed, "counts_present")
}

func TestSummarizeScenarios(t *testing.T) {
	_, facts := buildFacts(t, scenarioFixture(t))

	s := Summarize(facts)
	assert.Equal(t, 7, s.Accounts)
	assert.Equal(t, 3, s.Activated)
	assert.Equal(t, 1, s.CoreOnly)
	assert.Equal(t, 2, s.DealsOnly)
	assert.Equal(t, 1, s.Neither)
	assert.InDelta(t, 3.0/7.0, s.ActivationRate, 1e-9)
	assert.Equal(t, 7.0, s.MedianTimeToValue)
	assert.Equal(t, int64(9), s.MaxTimeToValue)
}
