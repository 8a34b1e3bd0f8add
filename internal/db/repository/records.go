package repository

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"provisioning-audit/internal/domain"
	"provisioning-audit/internal/querybuilder"
)

// RecordsRepo reads provisioning records through a target's row source.
type RecordsRepo struct{}

var _ domain.RecordsRepository = (*RecordsRepo)(nil)

func NewRecordsRepo() *RecordsRepo {
	return &RecordsRepo{}
}

// Page returns one page of records and the size of the whole result. The page
// and the count run concurrently over the same predicates.
func (r *RecordsRepo) Page(ctx context.Context, t domain.Target, f domain.Filter) (*domain.RecordsPage, error) {
	d, err := querybuilder.DialectByName(t.Dialect)
	if err != nil {
		return nil, err
	}
	plan, err := querybuilder.Build(f, querybuilder.Options{Paginate: true, Legacy: t.Legacy, Dialect: d})
	if err != nil {
		return nil, err
	}

	var (
		items []domain.Record
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := t.Rows.Select(gctx, plan.SelectSQL, plan.Binds)
		if err != nil {
			return fmt.Errorf("select page: %w", err)
		}
		items = rows
		return nil
	})
	g.Go(func() error {
		n, err := t.Rows.Count(gctx, plan.CountSQL, plan.CountBinds)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i] = items[i].Normalize()
	}
	if items == nil {
		items = []domain.Record{}
	}
	return &domain.RecordsPage{Items: items, Total: total}, nil
}

// All returns every record matching f, ignoring its page window.
func (r *RecordsRepo) All(ctx context.Context, t domain.Target, f domain.Filter) ([]domain.Record, error) {
	d, err := querybuilder.DialectByName(t.Dialect)
	if err != nil {
		return nil, err
	}
	plan, err := querybuilder.Build(f.WithoutPage(), querybuilder.Options{Dialect: d})
	if err != nil {
		return nil, err
	}
	rows, err := t.Rows.Select(ctx, plan.SelectSQL, plan.Binds)
	if err != nil {
		return nil, fmt.Errorf("select all: %w", err)
	}
	for i := range rows {
		rows[i] = rows[i].Normalize()
	}
	return rows, nil
}

// Options lists the distinct action, group and status values within the
// filter's date range and entity id.
func (r *RecordsRepo) Options(ctx context.Context, t domain.Target, f domain.Filter) (*domain.DistinctOptions, error) {
	d, err := querybuilder.DialectByName(t.Dialect)
	if err != nil {
		return nil, err
	}

	out := &domain.DistinctOptions{Action: []string{}, Group: []string{}, Status: []string{}}
	targets := map[string]*[]string{
		"action": &out.Action,
		"group":  &out.Group,
		"status": &out.Status,
	}

	g, gctx := errgroup.WithContext(ctx)
	for column, dst := range targets {
		query, binds, err := querybuilder.BuildDistinct(f, column, d)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			rows, err := t.Rows.Select(gctx, query, binds)
			if err != nil {
				return fmt.Errorf("distinct %s: %w", column, err)
			}
			values := make([]string, 0, len(rows))
			for _, row := range rows {
				if v, ok := row["v"]; ok && v != nil {
					values = append(values, fmt.Sprint(v))
				}
			}
			*dst = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
