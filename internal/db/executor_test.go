package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provisioning-audit/internal/domain"
)

func seededExecutor(t *testing.T) *Executor {
	t.Helper()
	db, _ := OpenTestSQLite(t)
	InsertTestRecords(t, db,
		domain.Record{"pri_id": 1, "pri_ne_id": "DTH01", "pri_action": "ALTA", "pri_action_date": "2025-03-01 10:00:00"},
		domain.Record{"pri_id": 2, "pri_ne_id": "DTH01", "pri_action": "BAJA", "pri_action_date": "2025-03-02 10:00:00"},
		domain.Record{"pri_id": 3, "pri_ne_id": "MSC04", "pri_action": "ALTA", "pri_action_date": "2025-03-02 11:00:00"},
	)
	return NewExecutor(db, time.Second)
}

func TestExecutor_SelectNamedBinds(t *testing.T) {
	e := seededExecutor(t)

	recs, err := e.Select(context.Background(),
		"SELECT pri_id AS PRI_ID, pri_action FROM swp_provisioning_interfaces WHERE pri_ne_id = :ne AND pri_action = :action ORDER BY pri_id",
		map[string]any{"ne": "DTH01", "action": "ALTA"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0]["pri_id"])
	assert.Equal(t, "ALTA", recs[0]["pri_action"])
}

func TestExecutor_SelectEmpty(t *testing.T) {
	e := seededExecutor(t)
	recs, err := e.Select(context.Background(),
		"SELECT pri_id FROM swp_provisioning_interfaces WHERE pri_ne_id = :ne", map[string]any{"ne": "NONE"})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestExecutor_Count(t *testing.T) {
	e := seededExecutor(t)
	n, err := e.Count(context.Background(),
		"SELECT COUNT(1) AS total FROM swp_provisioning_interfaces WHERE pri_ne_id = :ne", map[string]any{"ne": "DTH01"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExecutor_ErrorsAreExecutionErrors(t *testing.T) {
	e := seededExecutor(t)
	_, err := e.Select(context.Background(), "SELECT nope FROM missing_table", nil)

	var exec *domain.ExecutionError
	require.True(t, errors.As(err, &exec))
	assert.Equal(t, "select", exec.Op)
	assert.False(t, exec.Unreachable)
}

func TestToInt64(t *testing.T) {
	for _, v := range []any{int64(7), 7, int32(7), float64(7), "7", " 7.0 "} {
		n, err := toInt64(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, int64(7), n)
	}
	_, err := toInt64("seven")
	assert.Error(t, err)
}

func TestNamedArgsSorted(t *testing.T) {
	args := namedArgs(map[string]any{"b": 2, "a": 1})
	require.Len(t, args, 2)
	assert.Equal(t, sql.Named("a", 1), args[0])
	assert.Equal(t, sql.Named("b", 2), args[1])
}
