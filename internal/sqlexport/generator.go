// Package sqlexport renders provisioning records as Oracle INSERT statements.
package sqlexport

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"provisioning-audit/internal/domain"
)

// NextIDExpr allocates a fresh pri_id on the target database.
const NextIDExpr = "(SELECT NVL(MAX(pri_id), 0) + 1 FROM " + domain.ProvisioningTable + ")"

// DefaultOverrides replaces pri_id so exported rows never collide with
// existing ones.
func DefaultOverrides() map[string]string {
	return map[string]string{"pri_id": NextIDExpr}
}

// Generator builds INSERT statements. It is safe for concurrent use.
type Generator struct {
	table     string
	overrides map[string]string
}

// Option configures a Generator.
type Option func(*Generator)

// WithOverrides replaces the per-column raw SQL overrides. Override values are
// emitted verbatim.
func WithOverrides(overrides map[string]string) Option {
	return func(g *Generator) {
		g.overrides = make(map[string]string, len(overrides))
		for k, v := range overrides {
			g.overrides[strings.ToLower(k)] = v
		}
	}
}

// WithTable sets the target table name.
func WithTable(table string) Option {
	return func(g *Generator) {
		if table != "" {
			g.table = table
		}
	}
}

// New creates a Generator targeting the provisioning table with the default
// overrides.
func New(opts ...Option) *Generator {
	g := &Generator{table: domain.ProvisioningTable}
	WithOverrides(DefaultOverrides())(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one INSERT per row, newline-terminated. No rows yields "".
func (g *Generator) Generate(rows []domain.Record) string {
	if len(rows) == 0 {
		return ""
	}
	prefix := "INSERT INTO " + g.table + " (" + strings.Join(domain.ColumnNames(), ", ") + ") VALUES ("

	var sb strings.Builder
	values := make([]string, len(domain.Columns))
	for _, row := range rows {
		for i, c := range domain.Columns {
			if raw, ok := g.overrides[c.Name]; ok {
				values[i] = raw
				continue
			}
			values[i] = Literal(c.Kind, row[c.Name])
		}
		sb.WriteString(prefix)
		sb.WriteString(strings.Join(values, ", "))
		sb.WriteString(");\n")
	}
	return sb.String()
}

var numberRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

// dateShapes maps the accepted date literal shapes to their Oracle masks.
var dateShapes = []struct {
	re   *regexp.Regexp
	mask string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`), "YYYY-MM-DD HH24:MI:SS"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`), "YYYY-MM-DD HH24:MI"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "YYYY-MM-DD"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}$`), "DD/MM/YYYY HH24:MI:SS"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "DD/MM/YYYY"},
}

// Literal renders v as an Oracle SQL literal for a column of the given kind.
func Literal(kind domain.ColumnKind, v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return toDate(x.Format(domain.DateTimeLayout), "YYYY-MM-DD HH24:MI:SS")
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case []byte:
		return Literal(kind, string(x))
	case string:
		return stringLiteral(kind, x)
	default:
		return stringLiteral(kind, fmt.Sprint(x))
	}
}

func stringLiteral(kind domain.ColumnKind, s string) string {
	trimmed := strings.TrimSpace(s)
	if kind == domain.KindDate || looksLikeDate(trimmed) {
		normalized := strings.Replace(trimmed, "T", " ", 1)
		for _, shape := range dateShapes {
			if shape.re.MatchString(normalized) {
				return toDate(normalized, shape.mask)
			}
		}
	}
	// Text columns keep numeric-looking values quoted so leading zeros in
	// phone numbers and IMSIs survive.
	if kind == domain.KindNumber && numberRe.MatchString(trimmed) {
		return trimmed
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func looksLikeDate(s string) bool {
	return len(s) >= 10 && s[4] == '-' && s[7] == '-' && strings.Count(s, "-") == 2
}

func toDate(v, mask string) string {
	return "TO_DATE('" + v + "','" + mask + "')"
}

// File is the on-disk override configuration.
//
//	table: swp_provisioning_interfaces
//	overrides:
//	  pri_id: "(SELECT NVL(MAX(pri_id), 0) + 1 FROM swp_provisioning_interfaces)"
//	  pri_status: "'PENDING'"
type File struct {
	Table     string            `yaml:"table"`
	Overrides map[string]string `yaml:"overrides"`
}

// LoadFile reads and validates an override file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read export overrides %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse export overrides %s: %w", path, err)
	}
	for col := range f.Overrides {
		if !isColumn(strings.ToLower(col)) {
			return nil, fmt.Errorf("export overrides %s: unknown column %q", path, col)
		}
	}
	return &f, nil
}

// Options converts the file into generator options.
func (f *File) Options() []Option {
	var opts []Option
	if f.Table != "" {
		opts = append(opts, WithTable(f.Table))
	}
	if f.Overrides != nil {
		opts = append(opts, WithOverrides(f.Overrides))
	}
	return opts
}

func isColumn(name string) bool {
	for _, c := range domain.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}
