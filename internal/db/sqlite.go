// Package db opens the databases provisioning records are read from: Oracle
// through go-ora and a local SQLite store used for development and tests.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// SQLite DSN parameters shared by every local store connection.
const (
	sqliteBusyTimeout = "5000" // 5 seconds
	sqliteJournalMode = "WAL"
	sqliteSynchronous = "NORMAL"
)

// SQLiteMode selects how a local store is opened.
type SQLiteMode string

const (
	// SQLiteReadWrite opens a single-connection pool used for migrations and
	// seeding.
	SQLiteReadWrite SQLiteMode = "write"
	// SQLiteReadOnly opens a small pool that rejects writes, used to serve
	// record queries.
	SQLiteReadOnly SQLiteMode = "read"
)

// OpenSQLite opens a *sql.DB pool for the local store at path.
//
// Write pools hold one connection and take immediate write locks; read pools
// hold maxOpen connections (0 defaults to 4) with query_only set. Both use WAL
// journaling and a 5s busy timeout.
func OpenSQLite(ctx context.Context, path string, mode SQLiteMode, maxOpen int) (*sql.DB, error) {
	if mode != SQLiteReadOnly && mode != SQLiteReadWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be %q or %q", mode, SQLiteReadOnly, SQLiteReadWrite)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if mode == SQLiteReadWrite {
		maxOpen = 1
	} else if maxOpen <= 0 {
		maxOpen = 4
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return db, nil
}

// OpenLocalStore opens the store at path for writing and applies pending
// migrations, creating the provisioning table when the file is new.
func OpenLocalStore(ctx context.Context, path string) (*sql.DB, error) {
	db, err := OpenSQLite(ctx, path, SQLiteReadWrite, 0)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string, mode SQLiteMode) string {
	params := url.Values{}
	params.Set("_journal_mode", sqliteJournalMode)
	params.Set("_busy_timeout", sqliteBusyTimeout)
	params.Set("_synchronous", sqliteSynchronous)

	switch mode {
	case SQLiteReadWrite:
		params.Set("_txlock", "immediate")
	case SQLiteReadOnly:
		params.Set("_query_only", "true")
	}
	return path + "?" + params.Encode()
}
