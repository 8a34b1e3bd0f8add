// Package app wires configuration, database access, services and the HTTP
// router of the audit API.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"provisioning-audit/internal/api"
	"provisioning-audit/internal/config"
	"provisioning-audit/internal/db"
	"provisioning-audit/internal/db/repository"
	"provisioning-audit/internal/middleware"
	"provisioning-audit/internal/service/ask"
	"provisioning-audit/internal/service/records"
	"provisioning-audit/internal/sqlexport"
)

// Deps holds what main must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
	// Now overrides the clock of the ask service. Defaults to time.Now.
	Now func() time.Time
}

// App is the fully wired application.
type App struct {
	Registry *db.Registry
	Records  *records.Service
	Ask      *ask.Service
	Handler  *api.Handler

	cfg    *config.Config
	logger *slog.Logger
}

// New builds the application from deps. When a development SQLite store is
// configured it is migrated, and seeded if empty and seeding is enabled.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg, logger := deps.Cfg, deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mode, err := db.ParsePaginationMode(cfg.PaginationMode)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.DevSQLitePath != "" {
		if err := prepareDevStore(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}

	registry := db.NewRegistry(db.RegistryConfig{
		Mode:         mode,
		QueryTimeout: cfg.DBQueryTimeout,
		SQLitePath:   cfg.DevSQLitePath,
	}, db.NewOracleConnector(cfg.DBConnectTimeout, logger), logger)

	recordsSvc := records.NewService(registry, repository.NewRecordsRepo(), exporter, logger)

	askOpts := []ask.Option{}
	if deps.Now != nil {
		askOpts = append(askOpts, ask.WithClock(deps.Now))
	}
	askSvc := ask.NewService(logger, askOpts...)

	return &App{
		Registry: registry,
		Records:  recordsSvc,
		Ask:      askSvc,
		Handler:  api.NewHandler(recordsSvc, askSvc, logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Router returns the HTTP handler with the middleware chain applied. ctx
// bounds background work of the rate limiter.
func (a *App) Router(ctx context.Context) (http.Handler, error) {
	var validator middleware.JWTValidator
	if a.cfg.AuthEnabled() {
		v, err := middleware.NewHS256Validator(a.cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		validator = v
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition", "X-Exported-Rows"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", api.Healthz)
	r.Route(a.cfg.APIPrefix, func(r chi.Router) {
		r.Use(middleware.RateLimiter(ctx, middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		}))
		r.Use(middleware.Auth(validator))
		a.Handler.Routes(r)
	})
	return r, nil
}

// Close releases every cached database pool.
func (a *App) Close() error {
	return a.Registry.Close()
}

func newExporter(cfg *config.Config) (*sqlexport.Generator, error) {
	var opts []sqlexport.Option
	if cfg.ExportOverridesFile != "" {
		f, err := sqlexport.LoadFile(cfg.ExportOverridesFile)
		if err != nil {
			return nil, fmt.Errorf("export overrides: %w", err)
		}
		opts = append(opts, f.Options()...)
	}
	if cfg.ExportTable != "" {
		opts = append(opts, sqlexport.WithTable(cfg.ExportTable))
	}
	return sqlexport.New(opts...), nil
}

func prepareDevStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := db.OpenLocalStore(ctx, cfg.DevSQLitePath)
	if err != nil {
		return fmt.Errorf("open dev store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	if cfg.DevSeed {
		n, err := SeedDevStore(ctx, store, time.Now())
		if err != nil {
			return fmt.Errorf("seed dev store: %w", err)
		}
		if n > 0 {
			logger.Info("seeded dev store", "path", cfg.DevSQLitePath, "records", n)
		}
	}
	logger.Warn("sqlite driver enabled for development", "path", cfg.DevSQLitePath)
	return nil
}
