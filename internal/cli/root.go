// Package cli implements the quarry command line: schema synchronization,
// planning and introspection driven by a YAML schema file.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect"
	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/dialect/sql/schema"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string // schema file path
	Dialect string // overrides the dialect of the schema file
	DSN     string // overrides the dsn of the schema file
}

// ValidDialects defines the accepted dialect names.
var ValidDialects = []string{dialect.Postgres, dialect.MySQL, dialect.SQLite}

// NewRootCommand creates the root command of the quarry CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "quarry - SQL query compiler and schema synchronizer",
		Long: `Synchronize database tables with the tables declared in a YAML
schema file, print the statements a synchronization would run, or inspect
the live columns of the declared tables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Dialect != "" && !slices.Contains(ValidDialects, opts.Dialect) {
				return fmt.Errorf("invalid dialect %q: must be one of %v", opts.Dialect, ValidDialects)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "quarry.yaml", "schema file")
	cmd.PersistentFlags().StringVar(&opts.Dialect, "dialect", "", "database dialect (postgres|mysql|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "data source name")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// newLogger returns the logger of a command. Schema changes are logged at
// info level, statements only with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// session is the loaded schema file and the driver it points to.
type session struct {
	cfg    *Config
	tables []*schema.Table
	drv    dialect.Driver
	logger *slog.Logger
}

// open loads the schema file and opens its database. Flags override the
// dialect and dsn of the file.
func open(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Dialect != "" {
		cfg.Dialect = opts.Dialect
	}
	if opts.DSN != "" {
		cfg.DSN = opts.DSN
	}
	switch {
	case cfg.Dialect == "":
		return nil, errors.New("missing dialect: set it in the schema file or with --dialect")
	case !slices.Contains(ValidDialects, cfg.Dialect):
		return nil, fmt.Errorf("invalid dialect %q: must be one of %v", cfg.Dialect, ValidDialects)
	case cfg.DSN == "":
		return nil, errors.New("missing dsn: set it in the schema file or with --dsn")
	}
	tables, err := cfg.Schema()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, tables: tables, logger: newLogger(opts, cmd.ErrOrStderr())}
	drv, err := sql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}
	s.drv = drv
	if opts.Verbose {
		s.drv = sql.NewDebugDriver(drv, sql.DebugWithLogger(s.logger))
	}
	return s, nil
}

func (s *session) migrate(opts ...schema.MigrateOption) (*schema.Migrate, error) {
	return schema.NewMigrate(s.drv, append([]schema.MigrateOption{schema.WithLogger(s.logger)}, opts...)...)
}

func (s *session) Close() error {
	return s.drv.Close()
}

// printPlan writes the statements of the changes, one per line, each
// change preceded by its comment.
func printPlan(w io.Writer, changes []*schema.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "-- schema is up to date")
		return
	}
	for _, c := range changes {
		fmt.Fprintf(w, "-- %s\n", c.Comment)
		for _, stmt := range c.Stmts {
			fmt.Fprintf(w, "%s;\n", stmt.Text())
		}
	}
}
