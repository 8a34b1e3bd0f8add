package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"provisioning-audit/internal/domain"
)

// Pool is an opened database with the capabilities negotiated for it.
type Pool struct {
	DB       *sql.DB
	Caps     Capabilities
	Executor *Executor
	lastUsed time.Time
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Mode overrides pagination negotiation for every pool.
	Mode PaginationMode
	// QueryTimeout bounds each statement; zero disables the bound.
	QueryTimeout time.Duration
	// SQLitePath is the only local store requests may open. Empty disables
	// the sqlite driver.
	SQLitePath string
	// MaxPools caps the number of cached pools; the least recently used pool
	// is retired when the cap is reached. Zero defaults to 16.
	MaxPools int
	// EvictGrace is how long a retired pool stays open for requests that
	// already hold its target. Zero defaults to twice QueryTimeout, or five
	// minutes when statements are unbounded.
	EvictGrace time.Duration
}

// Registry caches one pool per distinct set of connection parameters and
// implements domain.TargetOpener.
type Registry struct {
	cfg       RegistryConfig
	connector *OracleConnector
	logger    *slog.Logger

	mu      sync.Mutex
	pools   map[string]*Pool
	retired map[*Pool]*time.Timer
	group   singleflight.Group
}

var _ domain.TargetOpener = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig, connector *OracleConnector, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPools <= 0 {
		cfg.MaxPools = 16
	}
	if cfg.EvictGrace <= 0 {
		cfg.EvictGrace = 5 * time.Minute
		if cfg.QueryTimeout > 0 {
			cfg.EvictGrace = 2 * cfg.QueryTimeout
		}
	}
	return &Registry{
		cfg:       cfg,
		connector: connector,
		logger:    logger.With("component", "db-registry"),
		pools:     make(map[string]*Pool),
		retired:   make(map[*Pool]*time.Timer),
	}
}

// Open returns the cached target for p, connecting and probing on first use.
func (r *Registry) Open(ctx context.Context, p domain.ConnParams) (domain.Target, error) {
	pool, err := r.Pool(ctx, p)
	if err != nil {
		return domain.Target{}, err
	}
	return domain.Target{Rows: pool.Executor, Dialect: pool.Caps.Dialect, Legacy: pool.Caps.LegacyPagination}, nil
}

// Pool returns the cached pool for p, opening it if needed. Concurrent calls
// for the same parameters share one connection attempt.
func (r *Registry) Pool(ctx context.Context, p domain.ConnParams) (*Pool, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := p.Key()

	if pool, ok := r.cached(key); ok {
		return pool, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if pool, ok := r.cached(key); ok {
			return pool, nil
		}
		pool, err := r.open(ctx, p)
		if err != nil {
			return nil, err
		}
		r.store(key, pool)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Pool), nil
}

func (r *Registry) cached(key string) (*Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, ok := r.pools[key]
	if ok {
		pool.lastUsed = time.Now()
	}
	return pool, ok
}

func (r *Registry) open(ctx context.Context, p domain.ConnParams) (*Pool, error) {
	var (
		db   *sql.DB
		caps Capabilities
		err  error
	)
	switch p.DriverName() {
	case domain.DriverSQLite:
		path, perr := r.sqlitePath(p)
		if perr != nil {
			return nil, perr
		}
		db, err = OpenSQLite(ctx, path, SQLiteReadOnly, 0)
		if err != nil {
			return nil, domain.ErrExecution("open sqlite", err)
		}
		caps = SQLiteCapabilities()
	default:
		if r.connector == nil {
			return nil, domain.ErrValidation("oracle connections are not configured")
		}
		db, err = r.connector.Connect(ctx, p)
		if err != nil {
			return nil, err
		}
		caps = ProbeOracle(ctx, db)
	}
	caps = r.cfg.Mode.Apply(caps)

	r.logger.Info("opened database pool",
		"db", p,
		"major_version", caps.MajorVersion,
		"legacy_pagination", caps.LegacyPagination)

	return &Pool{DB: db, Caps: caps, Executor: NewExecutor(db, r.cfg.QueryTimeout), lastUsed: time.Now()}, nil
}

func (r *Registry) sqlitePath(p domain.ConnParams) (string, error) {
	if r.cfg.SQLitePath == "" {
		return "", domain.ErrValidation("the sqlite driver is not enabled")
	}
	if p.Path == "" {
		return r.cfg.SQLitePath, nil
	}
	if filepath.Clean(p.Path) != filepath.Clean(r.cfg.SQLitePath) {
		return "", domain.ErrValidation("sqlite path %q is not allowed", p.Path)
	}
	return r.cfg.SQLitePath, nil
}

func (r *Registry) store(key string, pool *Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pools) >= r.cfg.MaxPools {
		var (
			oldestKey string
			oldest    *Pool
		)
		for k, p := range r.pools {
			if oldest == nil || p.lastUsed.Before(oldest.lastUsed) {
				oldestKey, oldest = k, p
			}
		}
		if oldest != nil {
			delete(r.pools, oldestKey)
			r.retire(oldest)
		}
	}
	r.pools[key] = pool
}

// retire stops handing out pool and closes it once EvictGrace has passed, so
// statements running on targets obtained before the eviction can finish.
// Caller must hold r.mu.
func (r *Registry) retire(pool *Pool) {
	pool.DB.SetMaxIdleConns(0)
	r.retired[pool] = time.AfterFunc(r.cfg.EvictGrace, func() {
		r.mu.Lock()
		_, ok := r.retired[pool]
		delete(r.retired, pool)
		r.mu.Unlock()
		if !ok {
			return
		}
		if err := pool.DB.Close(); err != nil {
			r.logger.Warn("close evicted pool", "error", err)
		}
	})
}

// Retired returns the number of evicted pools still waiting to be closed.
func (r *Registry) Retired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.retired)
}

// Len returns the number of cached pools.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools)
}

// Close closes every cached pool, including retired pools still in their
// grace period.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for k, p := range r.pools {
		if err := p.DB.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.pools, k)
	}
	for p, timer := range r.retired {
		timer.Stop()
		if err := p.DB.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.retired, p)
	}
	return errors.Join(errs...)
}
