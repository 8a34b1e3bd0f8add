// Package ask turns a free-text request into filters and the SQL they would
// run, without touching a database.
package ask

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"provisioning-audit/internal/domain"
	"provisioning-audit/internal/nlfilter"
	"provisioning-audit/internal/querybuilder"
)

// Result is the answer to one ask request. SQL is empty whenever Errors is not.
type Result struct {
	Filters domain.FilterInput `json:"filters"`
	SQL     string             `json:"sql"`
	Errors  []string           `json:"errors"`
}

// Service runs the extractor and the query builder.
type Service struct {
	dialect querybuilder.Dialect
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDialect selects the dialect of the rendered SQL. Defaults to Oracle.
func WithDialect(d querybuilder.Dialect) Option {
	return func(s *Service) { s.dialect = d }
}

// NewService creates a Service.
func NewService(logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{dialect: querybuilder.Oracle, now: time.Now, logger: logger.With("component", "ask")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask extracts filters from text and renders the unpaginated select they
// produce. Problems are reported in Result.Errors rather than as an error.
func (s *Service) Ask(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Errors: []string{"text is empty"}}
	}

	ext := nlfilter.Extract(text, s.now())
	res := Result{Filters: ext.Filter, Errors: []string{}}
	if len(ext.Errors) > 0 {
		res.Errors = ext.Errors
		s.logger.InfoContext(ctx, "ask rejected", "problems", len(ext.Errors))
		return res
	}

	f, err := ext.Filter.Normalize()
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	plan, err := querybuilder.Build(f, querybuilder.Options{Dialect: s.dialect})
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	res.SQL = plan.SelectSQL
	s.logger.DebugContext(ctx, "ask resolved", "entity_id", f.EntityID, "date_rule", string(ext.Range.Rule))
	return res
}
