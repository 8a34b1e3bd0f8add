package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"provisioning-audit/internal/domain"
)

// OpenTestSQLite creates a migrated local store in t.TempDir() and registers
// cleanup. It returns the write pool and the file path.
func OpenTestSQLite(t *testing.T) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := OpenLocalStore(context.Background(), path)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

// InsertTestRecords writes recs into the provisioning table. Keys must be
// column names; missing columns are stored as NULL.
func InsertTestRecords(t *testing.T, db *sql.DB, recs ...domain.Record) {
	t.Helper()

	for _, rec := range recs {
		cols := make([]string, 0, len(rec))
		marks := make([]string, 0, len(rec))
		args := make([]any, 0, len(rec))
		for k, v := range rec {
			cols = append(cols, k)
			marks = append(marks, "?")
			args = append(args, v)
		}
		query := "INSERT INTO " + domain.ProvisioningTable +
			" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("insert test record: %v", err)
		}
	}
}
