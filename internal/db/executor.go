package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"provisioning-audit/internal/domain"
)

// Executor runs builder statements against a pool and returns rows keyed by
// lower-case column name. It implements domain.RowSource.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
}

var _ domain.RowSource = (*Executor)(nil)

// NewExecutor wraps db. A positive timeout bounds every statement.
func NewExecutor(db *sql.DB, timeout time.Duration) *Executor {
	return &Executor{db: db, timeout: timeout}
}

// Select runs query and returns every row.
func (e *Executor) Select(ctx context.Context, query string, binds map[string]any) ([]domain.Record, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, query, namedArgs(binds)...)
	if err != nil {
		return nil, queryError("select", err)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, queryError("select columns", err)
	}
	for i := range cols {
		cols[i] = strings.ToLower(cols[i])
	}

	var out []domain.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, queryError("scan", err)
		}
		rec := make(domain.Record, len(cols))
		for i, c := range cols {
			rec[c] = normalizeValue(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("select rows", err)
	}
	return out, nil
}

// Count runs a single-value statement and returns it as an integer.
func (e *Executor) Count(ctx context.Context, query string, binds map[string]any) (int64, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var v any
	if err := e.db.QueryRowContext(ctx, query, namedArgs(binds)...).Scan(&v); err != nil {
		return 0, queryError("count", err)
	}
	n, err := toInt64(normalizeValue(v))
	if err != nil {
		return 0, domain.ErrExecution("count", err)
	}
	return n, nil
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// namedArgs converts binds to sql.Named arguments in a stable order.
func namedArgs(binds map[string]any) []any {
	keys := make([]string, 0, len(binds))
	for k := range binds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, sql.Named(k, binds[k]))
	}
	return args
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(domain.DateTimeLayout)
	default:
		return v
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("count value %q is not numeric", x)
		}
		return int64(f), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("count value has unsupported type %T", v)
	}
}

func queryError(op string, err error) error {
	if IsNetworkError(err) {
		return &domain.ExecutionError{Op: op, Err: err, Hint: "database connection lost", Unreachable: true}
	}
	return domain.ErrExecution(op, err)
}
