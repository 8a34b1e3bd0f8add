package sqlexport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provisioning-audit/internal/domain"
)

func sampleRecord() domain.Record {
	return domain.Record{
		"pri_id":              int64(10),
		"pri_cellular_number": "0991234567",
		"pri_action":          "ALTA",
		"pri_status":          "OK",
		"pri_action_date":     "2025-03-01 10:15:00",
		"pri_ne_id":           "DTH01",
		"pri_user_sender":     "O'Brien",
		"pri_sis_id":          "42",
		"pri_correlation_id":  float64(7.5),
	}
}

// valueOf returns the rendered value of column name in a single INSERT.
func valueOf(t *testing.T, stmt, name string) string {
	t.Helper()
	open := strings.Index(stmt, "VALUES (")
	require.GreaterOrEqual(t, open, 0)
	body := strings.TrimSuffix(strings.TrimSpace(stmt[open+len("VALUES ("):]), ");")

	// Split on top-level commas so override subqueries stay whole.
	var values []string
	depth, quoted, start := 0, false, 0
	for i, r := range body {
		switch {
		case r == '\'':
			quoted = !quoted
		case quoted:
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			values = append(values, strings.TrimSpace(body[start:i]))
			start = i + 1
		}
	}
	values = append(values, strings.TrimSpace(body[start:]))
	require.Len(t, values, len(domain.Columns))

	for i, c := range domain.Columns {
		if c.Name == name {
			return values[i]
		}
	}
	t.Fatalf("unknown column %s", name)
	return ""
}

func TestGenerate_Literals(t *testing.T) {
	out := New().Generate([]domain.Record{sampleRecord()})

	require.True(t, strings.HasPrefix(out, "INSERT INTO swp_provisioning_interfaces (pri_id, pri_cellular_number, "))
	require.True(t, strings.HasSuffix(out, ");\n"))
	assert.Equal(t, 1, strings.Count(out, "\n"))

	assert.Equal(t, NextIDExpr, valueOf(t, out, "pri_id"))
	assert.Equal(t, "'0991234567'", valueOf(t, out, "pri_cellular_number"))
	assert.Equal(t, "'O''Brien'", valueOf(t, out, "pri_user_sender"))
	assert.Equal(t, "TO_DATE('2025-03-01 10:15:00','YYYY-MM-DD HH24:MI:SS')", valueOf(t, out, "pri_action_date"))
	assert.Equal(t, "42", valueOf(t, out, "pri_sis_id"))
	assert.Equal(t, "7.5", valueOf(t, out, "pri_correlation_id"))
	assert.Equal(t, "NULL", valueOf(t, out, "pri_response"))
	assert.Equal(t, "NULL", valueOf(t, out, "pri_system_date"))
}

func TestGenerate_Empty(t *testing.T) {
	assert.Equal(t, "", New().Generate(nil))
}

func TestGenerate_OneLinePerRow(t *testing.T) {
	out := New().Generate([]domain.Record{sampleRecord(), sampleRecord(), {}})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "INSERT INTO "))
	}
}

func TestGenerate_Overrides(t *testing.T) {
	g := New(
		WithTable("audit_copy"),
		WithOverrides(map[string]string{
			"PRI_STATUS":      "'PENDING'",
			"pri_action_date": "SYSDATE",
		}),
	)
	out := g.Generate([]domain.Record{sampleRecord()})

	assert.True(t, strings.HasPrefix(out, "INSERT INTO audit_copy ("))
	assert.Equal(t, "'PENDING'", valueOf(t, out, "pri_status"))
	assert.Equal(t, "SYSDATE", valueOf(t, out, "pri_action_date"))
	// Replacing the overrides drops the pri_id default.
	assert.Equal(t, "10", valueOf(t, out, "pri_id"))
}

func TestLiteral(t *testing.T) {
	cases := []struct {
		name string
		kind domain.ColumnKind
		in   any
		want string
	}{
		{"nil", domain.KindString, nil, "NULL"},
		{"time", domain.KindDate, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), "TO_DATE('2025-01-02 03:04:05','YYYY-MM-DD HH24:MI:SS')"},
		{"date only", domain.KindDate, "2025-01-02", "TO_DATE('2025-01-02','YYYY-MM-DD')"},
		{"minutes", domain.KindDate, "2025-01-02 03:04", "TO_DATE('2025-01-02 03:04','YYYY-MM-DD HH24:MI')"},
		{"iso t", domain.KindString, "2025-01-02T03:04:05", "TO_DATE('2025-01-02 03:04:05','YYYY-MM-DD HH24:MI:SS')"},
		{"day first", domain.KindDate, "02/01/2025", "TO_DATE('02/01/2025','DD/MM/YYYY')"},
		{"unparseable date column", domain.KindDate, "soon", "'soon'"},
		{"bytes", domain.KindString, []byte("x'y"), "'x''y'"},
		{"negative number", domain.KindNumber, "-3", "-3"},
		{"text in number column", domain.KindNumber, "n/a", "'n/a'"},
		{"bool", domain.KindNumber, true, "1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Literal(tc.kind, tc.in))
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
table: swp_copy
overrides:
  pri_id: "(SELECT seq.NEXTVAL FROM dual)"
  pri_status: "'PENDING'"
`), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "swp_copy", f.Table)

	out := New(f.Options()...).Generate([]domain.Record{sampleRecord()})
	assert.True(t, strings.HasPrefix(out, "INSERT INTO swp_copy ("))
	assert.Equal(t, "(SELECT seq.NEXTVAL FROM dual)", valueOf(t, out, "pri_id"))
	assert.Equal(t, "'PENDING'", valueOf(t, out, "pri_status"))
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("overrides:\n  pri_password: x\n"), 0o600))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column")
}
