// Package records implements the record query, export and options use cases.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"provisioning-audit/internal/domain"
	"provisioning-audit/internal/sqlexport"
)

// Service resolves a connection, validates the filter and delegates to the
// records repository.
type Service struct {
	opener   domain.TargetOpener
	repo     domain.RecordsRepository
	exporter *sqlexport.Generator
	logger   *slog.Logger
}

// NewService creates a Service. A nil exporter uses the default generator.
func NewService(opener domain.TargetOpener, repo domain.RecordsRepository, exporter *sqlexport.Generator, logger *slog.Logger) *Service {
	if exporter == nil {
		exporter = sqlexport.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{opener: opener, repo: repo, exporter: exporter, logger: logger.With("component", "records")}
}

// Query returns one page of records matching in.
func (s *Service) Query(ctx context.Context, p domain.ConnParams, in domain.FilterInput) (*domain.RecordsPage, error) {
	f, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	if f.Limit <= 0 {
		return nil, &domain.InvalidPaginationError{Limit: f.Limit, Offset: f.Offset}
	}
	target, err := s.opener.Open(ctx, p)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := s.repo.Page(ctx, target, f)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	s.logger.InfoContext(ctx, "records queried",
		"entity_id", f.EntityID,
		"dialect", target.Dialect,
		"legacy_pagination", target.Legacy,
		"offset", f.Offset,
		"limit", f.Limit,
		"returned", len(page.Items),
		"total", page.Total,
		"duration_ms", time.Since(start).Milliseconds())
	return page, nil
}

// Export renders every record matching in, ignoring its page window, as
// INSERT statements. It also returns the number of rows exported.
func (s *Service) Export(ctx context.Context, p domain.ConnParams, in domain.FilterInput) (string, int, error) {
	f, err := in.Normalize()
	if err != nil {
		return "", 0, err
	}
	target, err := s.opener.Open(ctx, p)
	if err != nil {
		return "", 0, err
	}
	rows, err := s.repo.All(ctx, target, f.WithoutPage())
	if err != nil {
		return "", 0, fmt.Errorf("export records: %w", err)
	}
	s.logger.InfoContext(ctx, "records exported", "entity_id", f.EntityID, "rows", len(rows))
	return s.exporter.Generate(rows), len(rows), nil
}

// Options lists the values available for the optional filters.
func (s *Service) Options(ctx context.Context, p domain.ConnParams, in domain.FilterInput) (*domain.DistinctOptions, error) {
	f, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	target, err := s.opener.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	opts, err := s.repo.Options(ctx, target, f)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	return opts, nil
}
