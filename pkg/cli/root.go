// Package cli implements provctl, a command-line client that queries and
// exports provisioning records directly against the audit database.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "none"
)

// env holds the process dependencies of the commands.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	// isTerminal reports whether stdin is interactive.
	isTerminal func() bool
	// readPassword reads a line from the terminal without echo.
	readPassword func() (string, error)
}

func defaultEnv() *env {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	return &env{
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		now:          time.Now,
		isTerminal:   func() bool { return term.IsTerminal(fd) },
		readPassword: func() (string, error) { b, err := term.ReadPassword(fd); return string(b), err },
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	e := defaultEnv()
	rootCmd := newRootCmd(e)
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type rootOptions struct {
	output   string
	logLevel string
}

func (o *rootOptions) logger(e *env) *slog.Logger {
	level := slog.LevelWarn
	_ = level.UnmarshalText([]byte(o.logLevel))
	return slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))
}

func newRootCmd(e *env) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "provctl",
		Short:         "Provisioning audit CLI",
		Long:          "Query, export and explore provisioning audit records from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOutputFormat(opts.output)
		},
	}
	rootCmd.SetIn(e.stdin)
	rootCmd.SetOut(e.stdout)
	rootCmd.SetErr(e.stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd(e, opts))
	rootCmd.AddCommand(newAskCmd(e, opts))
	rootCmd.AddCommand(newQueryCmd(e, opts))
	rootCmd.AddCommand(newExportCmd(e, opts))
	rootCmd.AddCommand(newOptionsCmd(e, opts))
	return rootCmd
}

func newVersionCmd(e *env, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if opts.output == "json" {
				return printJSON(e.stdout, map[string]string{"version": version, "commit": commit})
			}
			_, err := fmt.Fprintf(e.stdout, "provctl version %s (commit: %s)\n", version, commit)
			return err
		},
	}
}
