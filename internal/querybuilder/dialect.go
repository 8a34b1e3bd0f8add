package querybuilder

import "fmt"

// Dialect renders the database-specific fragments of a statement.
// Both supported dialects use ":name" bind placeholders.
type Dialect interface {
	Name() string
	// DateParam renders a bind that carries a "YYYY-MM-DD HH:MM:SS" string
	// as a value comparable with a date column.
	DateParam(bind string) string
	// DateColumn renders a date column as a "YYYY-MM-DD HH:MM:SS" string.
	DateColumn(expr, alias string) string
	// NumberAsText renders a numeric column as text.
	NumberAsText(expr, alias string) string
	// SkipTake renders the native page clause appended after ORDER BY.
	SkipTake(offsetBind, limitBind string) string
}

type oracleDialect struct{}

// Oracle targets Oracle Database. OFFSET/FETCH requires 12c or later; older
// servers must be paged with the legacy strategy.
var Oracle Dialect = oracleDialect{}

func (oracleDialect) Name() string { return "oracle" }

func (oracleDialect) DateParam(bind string) string {
	return fmt.Sprintf("TO_DATE(:%s,'YYYY-MM-DD HH24:MI:SS')", bind)
}

func (oracleDialect) DateColumn(expr, alias string) string {
	return fmt.Sprintf("TO_CHAR(%s,'YYYY-MM-DD HH24:MI:SS') AS %s", expr, alias)
}

func (oracleDialect) NumberAsText(expr, alias string) string {
	return fmt.Sprintf("TO_CHAR(%s) AS %s", expr, alias)
}

func (oracleDialect) SkipTake(offsetBind, limitBind string) string {
	return fmt.Sprintf("OFFSET :%s ROWS FETCH NEXT :%s ROWS ONLY", offsetBind, limitBind)
}

type sqliteDialect struct{}

// SQLite targets the local development store, where dates are stored as
// "YYYY-MM-DD HH:MM:SS" text and compare lexicographically.
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) DateParam(bind string) string { return ":" + bind }

func (sqliteDialect) DateColumn(expr, alias string) string {
	return fmt.Sprintf("%s AS %s", expr, alias)
}

func (sqliteDialect) NumberAsText(expr, alias string) string {
	return fmt.Sprintf("CAST(%s AS TEXT) AS %s", expr, alias)
}

func (sqliteDialect) SkipTake(offsetBind, limitBind string) string {
	return fmt.Sprintf("LIMIT :%s OFFSET :%s", limitBind, offsetBind)
}

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case "", "oracle":
		return Oracle, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unknown SQL dialect %q", name)
	}
}
