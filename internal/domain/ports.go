package domain

import "context"

// RowSource executes statements produced by the query builder.
// Implemented by db.Executor; column names are lower-cased before they reach
// the caller.
type RowSource interface {
	Select(ctx context.Context, query string, binds map[string]any) ([]Record, error)
	Count(ctx context.Context, query string, binds map[string]any) (int64, error)
}

// Target is an opened data source together with the SQL flavour it speaks
// and the pagination strategy negotiated when it was opened.
type Target struct {
	Rows    RowSource
	Dialect string
	Legacy  bool
}

// TargetOpener resolves connection parameters to a Target.
// Implemented by db.Registry.
type TargetOpener interface {
	Open(ctx context.Context, p ConnParams) (Target, error)
}

// RecordsRepository reads provisioning records for a filter.
// Implemented by repository.RecordsRepo.
type RecordsRepository interface {
	Page(ctx context.Context, t Target, f Filter) (*RecordsPage, error)
	All(ctx context.Context, t Target, f Filter) ([]Record, error)
	Options(ctx context.Context, t Target, f Filter) (*DistinctOptions, error)
}
