package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provisioning-audit/internal/domain"
)

func TestRegistry_SQLiteTarget(t *testing.T) {
	_, path := OpenTestSQLite(t)
	r := NewRegistry(RegistryConfig{SQLitePath: path}, nil, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = r.Close() })

	target, err := r.Open(context.Background(), domain.ConnParams{Driver: "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, domain.DriverSQLite, target.Dialect)
	assert.False(t, target.Legacy)
	require.NotNil(t, target.Rows)

	_, err = r.Open(context.Background(), domain.ConnParams{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ModeOverride(t *testing.T) {
	_, path := OpenTestSQLite(t)
	r := NewRegistry(RegistryConfig{SQLitePath: path, Mode: PaginationLegacy}, nil, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = r.Close() })

	target, err := r.Open(context.Background(), domain.ConnParams{Driver: "sqlite"})
	require.NoError(t, err)
	assert.True(t, target.Legacy)
}

func TestRegistry_SQLitePathRestricted(t *testing.T) {
	_, path := OpenTestSQLite(t)
	r := NewRegistry(RegistryConfig{SQLitePath: path}, nil, slog.New(slog.DiscardHandler))

	_, err := r.Open(context.Background(), domain.ConnParams{Driver: "sqlite", Path: "/etc/passwd"})
	var validation *domain.ValidationError
	require.True(t, errors.As(err, &validation))

	disabled := NewRegistry(RegistryConfig{}, nil, slog.New(slog.DiscardHandler))
	_, err = disabled.Open(context.Background(), domain.ConnParams{Driver: "sqlite"})
	require.True(t, errors.As(err, &validation))
}

func TestRegistry_InvalidParams(t *testing.T) {
	r := NewRegistry(RegistryConfig{}, nil, slog.New(slog.DiscardHandler))
	_, err := r.Open(context.Background(), domain.ConnParams{Host: "db", Port: 1521, User: "u"})

	var missing *domain.MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "db.service", missing.Field)
}

func TestRegistry_OracleSharesOnePool(t *testing.T) {
	f := &fakeOpener{t: t}
	var mu sync.Mutex
	open := f.open
	c := newTestConnector(f)
	c.Open = func(ctx context.Context, dsn string) (*sql.DB, error) {
		mu.Lock()
		defer mu.Unlock()
		return open(ctx, dsn)
	}
	r := NewRegistry(RegistryConfig{}, c, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = r.Close() })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target, err := r.Open(context.Background(), oracleParams())
			assert.NoError(t, err)
			assert.Equal(t, domain.DriverOracle, target.Dialect)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, f.dsns, 1)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	f := &fakeOpener{t: t}
	r := NewRegistry(RegistryConfig{MaxPools: 2}, newTestConnector(f), slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = r.Close() })

	for _, user := range []string{"a", "b", "c"} {
		p := oracleParams()
		p.User = user
		_, err := r.Open(context.Background(), p)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_EvictedTargetStaysUsable(t *testing.T) {
	f := &fakeOpener{t: t}
	r := NewRegistry(RegistryConfig{MaxPools: 1, EvictGrace: time.Hour}, newTestConnector(f), slog.New(slog.DiscardHandler))
	ctx := context.Background()

	first, err := r.Open(ctx, oracleParams())
	require.NoError(t, err)

	p := oracleParams()
	p.User = "other"
	_, err = r.Open(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.Retired())

	n, err := first.Rows.Count(ctx, "SELECT 1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, r.Close())
	assert.Equal(t, 0, r.Retired())
	_, err = first.Rows.Count(ctx, "SELECT 1", nil)
	assert.Error(t, err)
}

func TestRegistry_RetiredPoolClosesAfterGrace(t *testing.T) {
	f := &fakeOpener{t: t}
	r := NewRegistry(RegistryConfig{MaxPools: 1, EvictGrace: 10 * time.Millisecond}, newTestConnector(f), slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()

	first, err := r.Open(ctx, oracleParams())
	require.NoError(t, err)
	p := oracleParams()
	p.User = "other"
	_, err = r.Open(ctx, p)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return r.Retired() == 0 }, time.Second, 5*time.Millisecond)
	_, err = first.Rows.Count(ctx, "SELECT 1", nil)
	assert.Error(t, err)
}
