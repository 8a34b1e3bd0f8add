package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provisioning-audit/internal/domain"
)

func oracleParams() domain.ConnParams {
	return domain.ConnParams{Host: "db.local", Port: 1521, Service: "ORCL", User: "audit", Password: "secret"}
}

// fakeOpener records every DSN and answers with the queued errors; a nil
// entry opens a scratch SQLite pool.
type fakeOpener struct {
	t    *testing.T
	errs []error
	dsns []string
}

func (f *fakeOpener) open(ctx context.Context, dsn string) (*sql.DB, error) {
	f.dsns = append(f.dsns, dsn)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	if err != nil {
		return nil, err
	}
	db, oerr := OpenSQLite(ctx, filepath.Join(f.t.TempDir(), "x.db"), SQLiteReadWrite, 0)
	require.NoError(f.t, oerr)
	f.t.Cleanup(func() { db.Close() })
	return db, nil
}

func newTestConnector(f *fakeOpener) *OracleConnector {
	c := NewOracleConnector(0, slog.New(slog.DiscardHandler))
	c.Open = f.open
	c.Resolve = func(context.Context, string) error { return nil }
	return c
}

func TestParseOracleTarget(t *testing.T) {
	got := ParseOracleTarget(oracleParams())
	assert.Equal(t, OracleTarget{Host: "db.local", Port: 1521, ServiceName: "ORCL"}, got)

	p := oracleParams()
	p.Service = "10.0.0.5:1522:PROD"
	got = ParseOracleTarget(p)
	assert.Equal(t, OracleTarget{Host: "10.0.0.5", Port: 1522, SID: "PROD"}, got)
	assert.Equal(t, "10.0.0.5:1522", got.Address())

	p.Service = "a:notaport:PROD"
	got = ParseOracleTarget(p)
	assert.Equal(t, "a:notaport:PROD", got.ServiceName)
	assert.Empty(t, got.SID)
}

func TestConnect_ServiceNameSucceeds(t *testing.T) {
	f := &fakeOpener{t: t}
	db, err := newTestConnector(f).Connect(context.Background(), oracleParams())
	require.NoError(t, err)
	require.NotNil(t, db)

	require.Len(t, f.dsns, 1)
	assert.Contains(t, f.dsns[0], "db.local:1521/ORCL")
	assert.NotContains(t, f.dsns[0], "SID=")
}

func TestConnect_FallsBackToSID(t *testing.T) {
	for _, code := range []string{"ORA-12514", "ORA-12505"} {
		t.Run(code, func(t *testing.T) {
			f := &fakeOpener{t: t, errs: []error{errors.New(code + ": TNS:listener does not currently know of service")}}
			db, err := newTestConnector(f).Connect(context.Background(), oracleParams())
			require.NoError(t, err)
			require.NotNil(t, db)

			require.Len(t, f.dsns, 2)
			assert.Contains(t, f.dsns[1], "SID=ORCL")
		})
	}
}

func TestConnect_SIDFromServiceField(t *testing.T) {
	f := &fakeOpener{t: t}
	p := oracleParams()
	p.Service = "10.0.0.5:1522:PROD"

	_, err := newTestConnector(f).Connect(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, f.dsns, 1)
	assert.Contains(t, f.dsns[0], "10.0.0.5:1522")
	assert.Contains(t, f.dsns[0], "SID=PROD")
}

func TestConnect_OtherErrorsDoNotFallBack(t *testing.T) {
	f := &fakeOpener{t: t, errs: []error{errors.New("ORA-01017: invalid username/password")}}
	_, err := newTestConnector(f).Connect(context.Background(), oracleParams())

	var exec *domain.ExecutionError
	require.True(t, errors.As(err, &exec))
	assert.False(t, exec.Unreachable)
	assert.Len(t, f.dsns, 1)
}

func TestConnect_NetworkErrorHasHint(t *testing.T) {
	f := &fakeOpener{t: t, errs: []error{errors.New("ORA-12541: TNS:no listener")}}
	_, err := newTestConnector(f).Connect(context.Background(), oracleParams())

	var exec *domain.ExecutionError
	require.True(t, errors.As(err, &exec))
	assert.True(t, exec.Unreachable)
	assert.Contains(t, exec.Hint, "db.local:1521")
}

func TestConnect_FallbackFailureIsClassified(t *testing.T) {
	f := &fakeOpener{t: t, errs: []error{
		errors.New("ORA-12514: unknown service"),
		errors.New("ORA-12170: TNS:Connect timeout occurred"),
	}}
	_, err := newTestConnector(f).Connect(context.Background(), oracleParams())

	var exec *domain.ExecutionError
	require.True(t, errors.As(err, &exec))
	assert.True(t, exec.Unreachable)
	assert.Len(t, f.dsns, 2)
}

func TestConnect_DNSFailure(t *testing.T) {
	f := &fakeOpener{t: t}
	c := newTestConnector(f)
	c.Resolve = func(context.Context, string) error { return errors.New("no such host") }

	_, err := c.Connect(context.Background(), oracleParams())
	var exec *domain.ExecutionError
	require.True(t, errors.As(err, &exec))
	assert.True(t, exec.Unreachable)
	assert.True(t, strings.Contains(exec.Hint, "db.local"))
	assert.Empty(t, f.dsns)
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(errors.New("ORA-12545: Connect failed because target host or object does not exist")))
	assert.True(t, IsNetworkError(errors.New("TNS:no listener")))
	assert.False(t, IsNetworkError(errors.New("ORA-00942: table or view does not exist")))
	assert.False(t, IsNetworkError(nil))
}
