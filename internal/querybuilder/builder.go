// Package querybuilder assembles parameterized select/count statements for
// provisioning records from a validated domain.Filter.
package querybuilder

import (
	"strings"

	"provisioning-audit/internal/domain"
)

// Bind names shared by every statement.
const (
	BindStartDate = "start_date"
	BindEndDate   = "end_date"
	BindEntityID  = "pri_ne_id"
	BindNumericID = "pri_id"
	BindAction    = "pri_action"
	BindGroup     = "pri_ne_group"
	BindStatus    = "pri_status"
	BindOffset    = "offset"
	BindLimit     = "limit"
)

const (
	tableAlias = "a"
	rowNumber  = "rn"
	// orderBy is shared by both pagination strategies so they page identically.
	orderBy = "a.pri_action_date DESC, a.pri_id DESC"
)

// Options selects how the select statement is paged.
type Options struct {
	// Paginate applies the filter's Limit/Offset window.
	Paginate bool
	// Legacy pages with ROW_NUMBER() for servers without skip/take syntax.
	Legacy bool
	// Dialect defaults to Oracle.
	Dialect Dialect
}

// Plan is the paired select/count output of Build.
type Plan struct {
	Predicates []string
	Binds      map[string]any
	SelectSQL  string
	CountSQL   string
	// CountBinds is Binds without the pagination-only keys.
	CountBinds map[string]any
}

// Build turns f into a select statement, a count statement over the same
// predicates, and their bind parameters.
func Build(f domain.Filter, opts Options) (*Plan, error) {
	d := opts.Dialect
	if d == nil {
		d = Oracle
	}

	where, binds, err := predicates(f, d)
	if err != nil {
		return nil, err
	}
	whereClause := strings.Join(where, " AND ")
	from := "FROM " + domain.ProvisioningTable + " " + tableAlias

	columns := selectColumns(d)
	var sb strings.Builder

	if opts.Paginate {
		if f.Limit <= 0 {
			return nil, &domain.InvalidPaginationError{Limit: f.Limit, Offset: f.Offset}
		}
		if f.Offset < 0 {
			return nil, &domain.InvalidPaginationError{Limit: f.Limit, Offset: f.Offset}
		}
		binds[BindOffset] = f.Offset
		binds[BindLimit] = f.Limit

		if opts.Legacy {
			withRN := append(columns, "ROW_NUMBER() OVER (ORDER BY "+orderBy+") AS "+rowNumber)
			sb.WriteString("SELECT q.* FROM (\n  SELECT\n    ")
			sb.WriteString(strings.Join(withRN, ",\n    "))
			sb.WriteString("\n  " + from + "\n  WHERE " + whereClause + "\n) q\n")
			sb.WriteString("WHERE q." + rowNumber + " > :" + BindOffset +
				" AND q." + rowNumber + " <= (:" + BindOffset + " + :" + BindLimit + ")\n")
			sb.WriteString("ORDER BY q." + rowNumber)
		} else {
			writeBaseSelect(&sb, columns, from, whereClause)
			sb.WriteString("\nORDER BY " + orderBy)
			sb.WriteString("\n" + d.SkipTake(BindOffset, BindLimit))
		}
	} else {
		writeBaseSelect(&sb, columns, from, whereClause)
		sb.WriteString("\nORDER BY " + orderBy)
	}

	return &Plan{
		Predicates: where,
		Binds:      binds,
		SelectSQL:  sb.String(),
		CountSQL:   "SELECT COUNT(1) AS total " + from + " WHERE " + whereClause,
		CountBinds: withoutPagination(binds),
	}, nil
}

// Distinct columns available to BuildDistinct.
var distinctColumns = map[string]string{
	"action": "a.pri_action",
	"group":  "a.pri_ne_group",
	"status": "a.pri_status",
}

// BuildDistinct returns a statement listing the distinct non-null values of
// one optional filter column ("action", "group" or "status") within the
// filter's date range and entity id. Optional predicates are ignored so the
// caller sees every value it could filter on.
func BuildDistinct(f domain.Filter, column string, d Dialect) (string, map[string]any, error) {
	if d == nil {
		d = Oracle
	}
	col, ok := distinctColumns[column]
	if !ok {
		return "", nil, domain.ErrValidation("unknown options column %q", column)
	}
	mandatory := domain.Filter{StartDate: f.StartDate, EndDate: f.EndDate, EntityID: f.EntityID}
	where, binds, err := predicates(mandatory, d)
	if err != nil {
		return "", nil, err
	}
	query := "SELECT DISTINCT " + col + " AS v FROM " + domain.ProvisioningTable + " " + tableAlias +
		" WHERE " + strings.Join(where, " AND ") + " AND " + col + " IS NOT NULL ORDER BY " + col
	return query, binds, nil
}

// predicates returns the WHERE fragments in their fixed order together with
// the binds they reference.
func predicates(f domain.Filter, d Dialect) ([]string, map[string]any, error) {
	if !f.HasDateRange() {
		return nil, nil, &domain.MissingFilterError{Field: "date_range"}
	}
	if strings.TrimSpace(f.EntityID) == "" {
		return nil, nil, &domain.MissingFilterError{Field: "entity_id"}
	}
	if f.StartDate.After(f.EndDate) {
		return nil, nil, domain.ErrValidation("start date %s is after end date %s",
			f.StartDate.Format(domain.DateTimeLayout), f.EndDate.Format(domain.DateTimeLayout))
	}

	where := []string{
		"a.pri_action_date BETWEEN " + d.DateParam(BindStartDate) + " AND " + d.DateParam(BindEndDate),
		"a.pri_ne_id = :" + BindEntityID,
	}
	binds := map[string]any{
		BindStartDate: f.StartDate.Format(domain.DateTimeLayout),
		BindEndDate:   f.EndDate.Format(domain.DateTimeLayout),
		BindEntityID:  f.EntityID,
	}

	if f.NumericID != nil {
		where = append(where, "a.pri_id = :"+BindNumericID)
		binds[BindNumericID] = *f.NumericID
	}
	optional := []struct {
		column, bind, value string
	}{
		{"a.pri_action", BindAction, f.Action},
		{"a.pri_ne_group", BindGroup, f.Group},
		{"a.pri_status", BindStatus, f.Status},
	}
	for _, o := range optional {
		if !domain.IsSet(o.value) {
			continue
		}
		where = append(where, o.column+" = :"+o.bind)
		binds[o.bind] = o.value
	}
	return where, binds, nil
}

func selectColumns(d Dialect) []string {
	out := make([]string, 0, len(domain.Columns))
	for _, c := range domain.Columns {
		expr := tableAlias + "." + c.Name
		switch {
		case c.Kind == domain.KindDate:
			out = append(out, d.DateColumn(expr, c.Name))
		case c.Name == "pri_error_code":
			out = append(out, d.NumberAsText(expr, c.Name))
		default:
			out = append(out, expr)
		}
	}
	return out
}

func writeBaseSelect(sb *strings.Builder, columns []string, from, where string) {
	sb.WriteString("SELECT\n  ")
	sb.WriteString(strings.Join(columns, ",\n  "))
	sb.WriteString("\n" + from + "\nWHERE " + where)
}

func withoutPagination(binds map[string]any) map[string]any {
	out := make(map[string]any, len(binds))
	for k, v := range binds {
		if k == BindOffset || k == BindLimit {
			continue
		}
		out[k] = v
	}
	return out
}
