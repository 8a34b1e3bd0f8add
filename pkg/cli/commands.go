package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"provisioning-audit/internal/db"
	"provisioning-audit/internal/db/repository"
	"provisioning-audit/internal/domain"
	"provisioning-audit/internal/service/ask"
	"provisioning-audit/internal/service/records"
	"provisioning-audit/internal/sqlexport"
)

// recordColumns are the columns of the table output of query.
var recordColumns = []string{"pri_id", "pri_action_date", "pri_ne_id", "pri_action", "pri_status", "pri_cellular_number"}

type dbOptions struct {
	mode      string
	timeout   time.Duration
	overrides string
	table     string
}

func (o *dbOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.mode, "pagination", "auto", "Pagination strategy (auto, modern, legacy)")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 60*time.Second, "Connect and statement timeout")
}

// openService builds the records service for p and returns it with a
// function that closes the database.
func openService(e *env, root *rootOptions, o *dbOptions, p domain.ConnParams) (*records.Service, func(), error) {
	mode, err := db.ParsePaginationMode(o.mode)
	if err != nil {
		return nil, nil, err
	}
	var exportOpts []sqlexport.Option
	if o.overrides != "" {
		f, err := sqlexport.LoadFile(o.overrides)
		if err != nil {
			return nil, nil, err
		}
		exportOpts = append(exportOpts, f.Options()...)
	}
	if o.table != "" {
		exportOpts = append(exportOpts, sqlexport.WithTable(o.table))
	}

	logger := root.logger(e)
	registry := db.NewRegistry(db.RegistryConfig{
		Mode:         mode,
		QueryTimeout: o.timeout,
		SQLitePath:   p.Path,
		MaxPools:     1,
	}, db.NewOracleConnector(o.timeout, logger), logger)

	svc := records.NewService(registry, repository.NewRecordsRepo(), sqlexport.New(exportOpts...), logger)
	release := func() {
		if err := registry.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}
	return svc, release, nil
}

func newAskCmd(e *env, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <text>",
		Short: "Turn a free-text request into filters and SQL",
		Long: `Extract filters from a request such as "entity id DTH01 action ALTA last 3 days"
and print the SQL they would run. No database is contacted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := ask.NewService(root.logger(e), ask.WithClock(e.now))
			res := svc.Ask(cmd.Context(), strings.Join(args, " "))

			if root.output == "json" {
				if err := printJSON(e.stdout, res); err != nil {
					return err
				}
			} else {
				f := res.Filters
				rows := [][]string{
					{"start_date", f.StartDate},
					{"end_date", f.EndDate},
					{"entity_id", f.EntityID},
					{"numeric_id", string(f.NumericID)},
					{"action", f.Action},
					{"group", f.Group},
					{"status", f.Status},
				}
				if err := printTable(e.stdout, []string{"FILTER", "VALUE"}, rows); err != nil {
					return err
				}
				if res.SQL != "" {
					_, _ = fmt.Fprintf(e.stdout, "\n%s\n", res.SQL)
				}
			}
			if len(res.Errors) > 0 {
				return &domain.ExtractionError{Problems: res.Errors}
			}
			return nil
		},
	}
}

func newQueryCmd(e *env, root *rootOptions) *cobra.Command {
	var (
		conn    connFlags
		filters filterFlags
		dbOpts  dbOptions
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print one page of records",
		Example: `  provctl query --db-host db1 --db-service ORCL --db-user audit -e DTH01 --when "last 7 days"
  provctl query --driver sqlite --db-path dev.sqlite -e MSC4 --action ALTA -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := filters.input(e)
			if err != nil {
				return err
			}
			p, err := conn.params(e)
			if err != nil {
				return err
			}
			svc, release, err := openService(e, root, &dbOpts, p)
			if err != nil {
				return err
			}
			defer release()

			page, err := svc.Query(cmd.Context(), p, in)
			if err != nil {
				return err
			}
			if root.output == "json" {
				return printJSON(e.stdout, page)
			}

			rows := make([][]string, 0, len(page.Items))
			for _, rec := range page.Items {
				row := make([]string, len(recordColumns))
				for i, c := range recordColumns {
					row[i] = cell(rec[c])
				}
				rows = append(rows, row)
			}
			headers := make([]string, len(recordColumns))
			for i, c := range recordColumns {
				headers[i] = strings.ToUpper(strings.TrimPrefix(c, "pri_"))
			}
			if err := printTable(e.stdout, headers, rows); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(e.stdout, "\n%d of %d records", len(page.Items), page.Total)
			if next := domain.NextOffset(filters.offset, filters.limit, page.Total); next >= 0 {
				_, _ = fmt.Fprintf(e.stdout, ", next page: --offset %d", next)
			}
			_, _ = fmt.Fprintln(e.stdout)
			return nil
		},
	}
	conn.register(cmd.Flags())
	filters.register(cmd.Flags(), true)
	dbOpts.register(cmd)
	return cmd
}

func newExportCmd(e *env, root *rootOptions) *cobra.Command {
	var (
		conn    connFlags
		filters filterFlags
		dbOpts  dbOptions
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every matching record as INSERT statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := filters.input(e)
			if err != nil {
				return err
			}
			p, err := conn.params(e)
			if err != nil {
				return err
			}
			svc, release, err := openService(e, root, &dbOpts, p)
			if err != nil {
				return err
			}
			defer release()

			script, n, err := svc.Export(cmd.Context(), p, in)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := fmt.Fprint(e.stdout, script)
				return err
			}
			if err := os.WriteFile(out, []byte(script), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			if root.output == "json" {
				return printJSON(e.stdout, map[string]any{"file": out, "rows": n})
			}
			_, err = fmt.Fprintf(e.stdout, "wrote %d rows to %s\n", n, out)
			return err
		},
	}
	conn.register(cmd.Flags())
	filters.register(cmd.Flags(), false)
	dbOpts.register(cmd)
	cmd.Flags().StringVar(&out, "out", "provisioning_inserts.sql", `Output file, "-" for stdout`)
	cmd.Flags().StringVar(&dbOpts.overrides, "overrides", "", "YAML file with the target table and column overrides")
	cmd.Flags().StringVar(&dbOpts.table, "table", "", "Target table of the INSERT statements")
	return cmd
}

func newOptionsCmd(e *env, root *rootOptions) *cobra.Command {
	var (
		conn    connFlags
		filters filterFlags
		dbOpts  dbOptions
	)
	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the action, group and status values in a range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := filters.input(e)
			if err != nil {
				return err
			}
			p, err := conn.params(e)
			if err != nil {
				return err
			}
			svc, release, err := openService(e, root, &dbOpts, p)
			if err != nil {
				return err
			}
			defer release()

			opts, err := svc.Options(cmd.Context(), p, in)
			if err != nil {
				return err
			}
			if root.output == "json" {
				return printJSON(e.stdout, opts)
			}
			return printTable(e.stdout, []string{"FILTER", "VALUES"}, [][]string{
				{"action", strings.Join(opts.Action, ", ")},
				{"group", strings.Join(opts.Group, ", ")},
				{"status", strings.Join(opts.Status, ", ")},
			})
		},
	}
	conn.register(cmd.Flags())
	filters.register(cmd.Flags(), false)
	dbOpts.register(cmd)
	return cmd
}

