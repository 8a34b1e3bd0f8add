// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"

	"provisioning-audit/internal/domain"
)

// === Target Opener Mock ===

// MockOpener implements domain.TargetOpener for testing.
type MockOpener struct {
	OpenFn func(ctx context.Context, p domain.ConnParams) (domain.Target, error)
	Opened []domain.ConnParams // collected parameters for assertions
}

// Open implements the interface method for testing.
func (m *MockOpener) Open(ctx context.Context, p domain.ConnParams) (domain.Target, error) {
	m.Opened = append(m.Opened, p)
	if m.OpenFn != nil {
		return m.OpenFn(ctx, p)
	}
	return domain.Target{Rows: &MockRowSource{}, Dialect: domain.DriverOracle}, nil
}

// === Records Repository Mock ===

// MockRecordsRepo implements domain.RecordsRepository for testing.
type MockRecordsRepo struct {
	PageFn    func(ctx context.Context, t domain.Target, f domain.Filter) (*domain.RecordsPage, error)
	AllFn     func(ctx context.Context, t domain.Target, f domain.Filter) ([]domain.Record, error)
	OptionsFn func(ctx context.Context, t domain.Target, f domain.Filter) (*domain.DistinctOptions, error)
}

// Page implements the interface method for testing.
func (m *MockRecordsRepo) Page(ctx context.Context, t domain.Target, f domain.Filter) (*domain.RecordsPage, error) {
	if m.PageFn != nil {
		return m.PageFn(ctx, t, f)
	}
	panic("unexpected call to MockRecordsRepo.Page")
}

// All implements the interface method for testing.
func (m *MockRecordsRepo) All(ctx context.Context, t domain.Target, f domain.Filter) ([]domain.Record, error) {
	if m.AllFn != nil {
		return m.AllFn(ctx, t, f)
	}
	panic("unexpected call to MockRecordsRepo.All")
}

// Options implements the interface method for testing.
func (m *MockRecordsRepo) Options(ctx context.Context, t domain.Target, f domain.Filter) (*domain.DistinctOptions, error) {
	if m.OptionsFn != nil {
		return m.OptionsFn(ctx, t, f)
	}
	panic("unexpected call to MockRecordsRepo.Options")
}

// === Row Source Mock ===

// MockRowSource implements domain.RowSource for testing.
type MockRowSource struct {
	SelectFn func(ctx context.Context, query string, binds map[string]any) ([]domain.Record, error)
	CountFn  func(ctx context.Context, query string, binds map[string]any) (int64, error)
}

// Select implements the interface method for testing.
func (m *MockRowSource) Select(ctx context.Context, query string, binds map[string]any) ([]domain.Record, error) {
	if m.SelectFn != nil {
		return m.SelectFn(ctx, query, binds)
	}
	return nil, nil
}

// Count implements the interface method for testing.
func (m *MockRowSource) Count(ctx context.Context, query string, binds map[string]any) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, query, binds)
	}
	return 0, nil
}
