// Package testutil builds throwaway DuckDB files holding the upstream gold tables.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

const (
	AccountsTable      = "gold__dim_accounts"
	ProductEventsTable = "gold__fact_product_events"
	DealsTable         = "gold__fact_deals"
)

// Account is a row of gold__dim_accounts
type Account struct {
	ID      string
	Created time.Time
}

// ProductEvent is a row of gold__fact_product_events
type ProductEvent struct {
	AccountID      string
	At             time.Time
	HasDealContext bool
}

// Deal is a row of gold__fact_deals
type Deal struct {
	AccountID string
	Created   time.Time
}

// Fixture describes the upstream data of one test database
type Fixture struct {
	Accounts      []Account
	ProductEvents []ProductEvent
	Deals         []Deal

	// Omit lists upstream tables that should not be created at all.
	Omit []string
}

var ddl = map[string]string{
	AccountsTable:      `CREATE TABLE gold__dim_accounts (AccountId VARCHAR, CreatedDate TIMESTAMP)`,
	ProductEventsTable: `CREATE TABLE gold__fact_product_events (AccountId VARCHAR, EventDate TIMESTAMP, HasDealContext BOOLEAN)`,
	DealsTable:         `CREATE TABLE gold__fact_deals (AccountId VARCHAR, CreatedDate TIMESTAMP)`,
}

// Day parses a YYYY-MM-DD date in UTC and fails the test on bad input
func Day(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

// NewDatabase writes f into a fresh DuckDB file under t.TempDir and returns its path.
// The handle used for seeding is closed before returning.
func NewDatabase(t testing.TB, f Fixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "product_analytics_light.db")
	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer db.Close()

	Seed(t, db, f)
	return path
}

// Seed creates the upstream tables on db and inserts the fixture rows
func Seed(t testing.TB, db *sql.DB, f Fixture) {
	t.Helper()

	omit := make(map[string]bool, len(f.Omit))
	for _, name := range f.Omit {
		omit[name] = true
	}

	for _, table := range []string{AccountsTable, ProductEventsTable, DealsTable} {
		if omit[table] {
			continue
		}
		mustExec(t, db, ddl[table])
	}

	if !omit[AccountsTable] {
		for _, a := range f.Accounts {
			mustExec(t, db, `INSERT INTO gold__dim_accounts VALUES (?, ?)`, a.ID, a.Created)
		}
	}
	if !omit[ProductEventsTable] {
		for _, e := range f.ProductEvents {
			mustExec(t, db, `INSERT INTO gold__fact_product_events VALUES (?, ?, ?)`, e.AccountID, e.At, e.HasDealContext)
		}
	}
	if !omit[DealsTable] {
		for _, d := range f.Deals {
			mustExec(t, db, `INSERT INTO gold__fact_deals VALUES (?, ?)`, d.AccountID, d.Created)
		}
	}
}

// Exec runs a statement against the file at path, for tests that tamper with data
func Exec(t testing.TB, path string, stmt string, args ...interface{}) {
	t.Helper()

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	mustExec(t, db, stmt, args...)
}

func mustExec(t testing.TB, db *sql.DB, stmt string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(stmt, args...); err != nil {
		t.Fatalf("fixture statement failed: %v\n%s", err, stmt)
	}
}
