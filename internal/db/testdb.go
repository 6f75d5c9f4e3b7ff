package db

import (
	"database/sql"
	"testing"
)

// NewTestDB opens an in-memory database with the equipment schema
// applied, closed automatically when the test finishes. Open already
// limits the pool to one connection, which for :memory: also keeps
// every query on the same underlying database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	return database
}
