package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"provisioning-audit/internal/datephrase"
	"provisioning-audit/internal/domain"
)

// PasswordEnv supplies the database password when --password is not given.
const PasswordEnv = "PROVCTL_DB_PASSWORD"

type connFlags struct {
	driver   string
	host     string
	port     int
	service  string
	user     string
	password string
	path     string
}

func (c *connFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.driver, "driver", domain.DriverOracle, "Database driver (oracle, sqlite)")
	fs.StringVar(&c.host, "db-host", "", "Oracle listener host")
	fs.IntVar(&c.port, "db-port", 1521, "Oracle listener port")
	fs.StringVar(&c.service, "db-service", "", "Oracle service name, SID, or host:port:SID")
	fs.StringVar(&c.user, "db-user", "", "Database user")
	fs.StringVar(&c.password, "db-password", "", "Database password (prompted when omitted on a terminal; also "+PasswordEnv+")")
	fs.StringVar(&c.path, "db-path", "", "SQLite file when --driver=sqlite")
}

// params resolves the connection parameters, prompting for the Oracle
// password when it was not supplied and stdin is a terminal.
func (c *connFlags) params(e *env) (domain.ConnParams, error) {
	p := domain.ConnParams{
		Driver:   c.driver,
		Host:     c.host,
		Port:     c.port,
		Service:  c.service,
		User:     c.user,
		Password: c.password,
		Path:     c.path,
	}
	if p.DriverName() == domain.DriverSQLite {
		if strings.TrimSpace(p.Path) == "" {
			return p, errors.New("--db-path is required with --driver=sqlite")
		}
		return p, nil
	}
	if p.Password == "" {
		p.Password = os.Getenv(PasswordEnv)
	}
	if p.Password == "" && e.isTerminal() {
		_, _ = fmt.Fprintf(e.stderr, "Password for %s: ", p.User)
		pw, err := e.readPassword()
		_, _ = fmt.Fprintln(e.stderr)
		if err != nil {
			return p, fmt.Errorf("read password: %w", err)
		}
		p.Password = pw
	}
	return p, p.Validate()
}

type filterFlags struct {
	from      string
	to        string
	when      string
	entity    string
	numericID string
	action    string
	group     string
	status    string
	limit     int
	offset    int
}

func (f *filterFlags) register(fs *pflag.FlagSet, paged bool) {
	fs.StringVar(&f.from, "from", "", "Range start (YYYY-MM-DD HH:MM:SS)")
	fs.StringVar(&f.to, "to", "", "Range end (YYYY-MM-DD HH:MM:SS)")
	fs.StringVar(&f.when, "when", "", `Date phrase such as "last 7 days" or "mes pasado" (default today)`)
	fs.StringVarP(&f.entity, "entity", "e", "", "Network element id (required)")
	fs.StringVar(&f.numericID, "id", "", "Record id")
	fs.StringVar(&f.action, "action", "", "Action, e.g. ALTA")
	fs.StringVar(&f.group, "group", "", "Network element group")
	fs.StringVar(&f.status, "status", "", "Status")
	if paged {
		fs.IntVar(&f.limit, "limit", domain.DefaultLimit, "Page size")
		fs.IntVar(&f.offset, "offset", 0, "Rows to skip")
	}
}

// input builds the filter. --from and --to must be given together; without
// them the range comes from --when.
func (f *filterFlags) input(e *env) (domain.FilterInput, error) {
	in := domain.FilterInput{
		EntityID:  f.entity,
		NumericID: domain.NumericID(f.numericID),
		Action:    f.action,
		Group:     f.group,
		Status:    f.status,
		Limit:     &f.limit,
		Offset:    &f.offset,
	}
	switch {
	case f.from != "" || f.to != "":
		if f.when != "" {
			return in, errors.New("--when cannot be combined with --from/--to")
		}
		in.StartDate, in.EndDate = f.from, f.to
	default:
		r := datephrase.Resolve(f.when, e.now())
		if f.when != "" && !r.Matched() {
			return in, fmt.Errorf("--when %q is not a recognized date phrase", f.when)
		}
		in.StartDate = r.Start.Format(domain.DateTimeLayout)
		in.EndDate = r.End.Format(domain.DateTimeLayout)
	}
	return in, nil
}
