package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provisioning-audit/internal/domain"
)

func TestSQLiteDSN_Write(t *testing.T) {
	dsn := sqliteDSN("/tmp/audit.sqlite", SQLiteReadWrite)

	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_synchronous=NORMAL")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.NotContains(t, dsn, "_query_only")
	assert.True(t, strings.HasPrefix(dsn, "/tmp/audit.sqlite?"))
}

func TestSQLiteDSN_Read(t *testing.T) {
	dsn := sqliteDSN("/tmp/audit.sqlite", SQLiteReadOnly)

	assert.Contains(t, dsn, "_query_only=true")
	assert.NotContains(t, dsn, "_txlock")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"), "bogus", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "/nonexistent/dir/x.db", SQLiteReadWrite, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpenSQLite_PoolSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")

	w, err := OpenSQLite(context.Background(), path, SQLiteReadWrite, 8)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	assert.Equal(t, 1, w.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, w.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	r, err := OpenSQLite(context.Background(), path, SQLiteReadOnly, 0)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	assert.Equal(t, 4, r.Stats().MaxOpenConnections)
}

func TestOpenSQLite_ReadPoolRejectsWrites(t *testing.T) {
	_, path := OpenTestSQLite(t)

	r, err := OpenSQLite(context.Background(), path, SQLiteReadOnly, 0)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	_, err = r.Exec("INSERT INTO " + domain.ProvisioningTable + " (pri_id) VALUES (1)")
	assert.Error(t, err)
}

func TestOpenLocalStore_MigratesSchema(t *testing.T) {
	db, _ := OpenTestSQLite(t)

	rows, err := db.Query("SELECT name FROM pragma_table_info('" + domain.ProvisioningTable + "')")
	require.NoError(t, err)
	defer rows.Close()

	got := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		got[name] = true
	}
	require.NoError(t, rows.Err())

	for _, c := range domain.Columns {
		assert.True(t, got[c.Name], "missing column %s", c.Name)
	}
	assert.True(t, got["pri_ne_group"])
}

func TestOpenLocalStore_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")
	db, err := OpenLocalStore(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenLocalStore(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
