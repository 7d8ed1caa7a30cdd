package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/sqltool"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/quarry/dialect"
	"github.com/syssam/quarry/dialect/sql"
)

// ErrValidation is returned when the validation of a synchronization
// blocks it.
var ErrValidation = errors.New("schema: validation failed")

// Migrate synchronizes declared tables with the database of a driver and
// exposes the DDL operations of its dialect.
type Migrate struct {
	drv         dialect.Driver
	grammar     sql.Grammar
	dropColumn  bool
	strict      bool
	logger      *slog.Logger
	dir         migrate.Dir
	fmt         migrate.Formatter
	planName    string
	concurrency int
	now         func() time.Time
}

// MigrateOption allows configuring Migrate using functional arguments.
type MigrateOption func(*Migrate)

// WithDropColumn sets the columns dropping option. Columns are dropped by
// default on dialects that support it.
func WithDropColumn(b bool) MigrateOption {
	return func(m *Migrate) {
		m.dropColumn = b
	}
}

// WithStrictValidation makes validation warnings block the
// synchronization. By default, they are only logged.
func WithStrictValidation() MigrateOption {
	return func(m *Migrate) {
		m.strict = true
	}
}

// WithLogger sets the logger of applied changes and validation findings.
func WithLogger(l *slog.Logger) MigrateOption {
	return func(m *Migrate) {
		m.logger = l
	}
}

// WithDir sets the migration directory. When set, Create writes the
// planned statements as a new migration file instead of executing them.
func WithDir(dir migrate.Dir) MigrateOption {
	return func(m *Migrate) {
		m.dir = dir
	}
}

// WithFormatter sets the formatter of the migration files. It defaults
// to the formatter matching the directory type.
func WithFormatter(fmt migrate.Formatter) MigrateOption {
	return func(m *Migrate) {
		m.fmt = fmt
	}
}

// WithPlanName sets the name of the migration files. Defaults to "sync".
func WithPlanName(name string) MigrateOption {
	return func(m *Migrate) {
		m.planName = name
	}
}

// WithConcurrency limits the number of tables introspected concurrently.
func WithConcurrency(n int) MigrateOption {
	return func(m *Migrate) {
		m.concurrency = n
	}
}

// NewMigrate returns a new Migrate for the dialect of the driver.
func NewMigrate(drv dialect.Driver, opts ...MigrateOption) (*Migrate, error) {
	if drv == nil {
		return nil, errors.New("schema: missing driver")
	}
	m := &Migrate{
		drv:         drv,
		grammar:     sql.NewGrammar(sql.DialectOf(drv.Dialect())),
		dropColumn:  true,
		logger:      slog.Default(),
		planName:    "sync",
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.concurrency < 1 {
		return nil, fmt.Errorf("schema: invalid concurrency %d", m.concurrency)
	}
	if m.fmt != nil && m.dir == nil {
		return nil, errors.New("schema: formatter requires a migration directory")
	}
	if m.dir != nil && m.fmt == nil {
		m.fmt = formatterFor(m.dir)
	}
	return m, nil
}

// formatterFor returns the migration file formatter of the tool the
// directory belongs to.
func formatterFor(dir migrate.Dir) migrate.Formatter {
	switch dir.(type) {
	case *sqltool.GolangMigrateDir:
		return sqltool.GolangMigrateFormatter
	case *sqltool.GooseDir:
		return sqltool.GooseFormatter
	case *sqltool.DBMateDir:
		return sqltool.DBMateFormatter
	case *sqltool.FlywayDir:
		return sqltool.FlywayFormatter
	case *sqltool.LiquibaseDir:
		return sqltool.LiquibaseFormatter
	default:
		return migrate.DefaultFormatter
	}
}

// Change is a planned change of one table.
type Change struct {
	Table   string
	Comment string
	// Create is set if the table does not exist.
	Create bool
	// Diff is the column diff of an existing table.
	Diff  Diff
	Stmts []sql.Fragment
}

// Create synchronizes the given tables. Missing tables are created with
// their indexes; existing tables get the columns they miss added and,
// if enabled and supported by the dialect, the columns no longer
// declared dropped. Tables already in sync execute no statement.
func (m *Migrate) Create(ctx context.Context, tables ...*Table) error {
	changes, err := m.Plan(ctx, tables...)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		m.logger.DebugContext(ctx, "schema is up to date", "tables", len(tables))
		return nil
	}
	if m.dir != nil {
		return m.WritePlan(changes)
	}
	for _, c := range changes {
		m.logger.InfoContext(ctx, "applying schema change", "table", c.Table, "change", c.Comment)
		if err := m.exec(ctx, c.Stmts...); err != nil {
			return fmt.Errorf("schema: %s: %w", c.Comment, err)
		}
	}
	return nil
}

// Plan validates the given tables, introspects the live ones and
// compiles the statements that synchronize them, without executing
// anything. Tables already in sync are left out of the result.
func (m *Migrate) Plan(ctx context.Context, tables ...*Table) ([]*Change, error) {
	if len(tables) == 0 {
		return nil, nil
	}
	result := ValidateSchema(tables)
	live, err := m.Inspect(ctx, names(tables)...)
	if err != nil {
		return nil, err
	}
	var (
		changes []*Change
		diffs   []Diff
		drop    = m.dropColumn && m.grammar.SupportsDropColumn()
	)
	for i, t := range tables {
		if live[i] == nil {
			changes = append(changes, &Change{
				Table:   t.Name,
				Comment: fmt.Sprintf("create %q table", t.Name),
				Create:  true,
			})
			continue
		}
		d := TableDiff(t, live[i].ColumnNames(), drop)
		if d.Empty() {
			continue
		}
		diffs = append(diffs, d)
		changes = append(changes, &Change{
			Table:   t.Name,
			Comment: fmt.Sprintf("modify %q table", t.Name),
			Diff:    d,
		})
	}
	opts := []DiffOption{AllowDropColumn()}
	if m.grammar.Name() == dialect.SQLite {
		opts = append(opts, RequireAddDefaults())
	}
	result.Merge(ValidateDiff(tables, diffs, opts...))
	if err := m.report(ctx, result); err != nil {
		return nil, err
	}
	declared := make(map[string]*Table, len(tables))
	for _, t := range tables {
		declared[t.Name] = t
	}
	for _, c := range changes {
		t := declared[c.Table]
		if c.Create {
			c.Stmts, err = m.grammar.CreateTable(t.Name, false, t.Columns, t.Indexes...)
		} else {
			adds := make([]*Column, 0, len(c.Diff.Adds))
			for _, name := range c.Diff.Adds {
				col, _ := t.Column(name)
				adds = append(adds, col)
			}
			c.Stmts, err = m.grammar.AlterTable(t.Name, c.Diff.Drops, adds, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", c.Comment, err)
		}
	}
	return changes, nil
}

// report logs the validation findings and returns an error if they
// block the synchronization.
func (m *Migrate) report(ctx context.Context, r *Report) error {
	for _, f := range r.Errors {
		m.logger.ErrorContext(ctx, "schema validation error", "table", f.Table, "column", f.Column, "message", f.Message, "breaking", f.Breaking)
	}
	for _, f := range r.Warnings {
		m.logger.WarnContext(ctx, "schema validation warning", "table", f.Table, "column", f.Column, "message", f.Message, "breaking", f.Breaking)
	}
	if r.Blocks(m.strict) {
		return fmt.Errorf("%w:\n%s", ErrValidation, r)
	}
	return nil
}

// WritePlan writes the statements of the changes as a new migration
// file of the configured directory.
func (m *Migrate) WritePlan(changes []*Change) error {
	if m.dir == nil {
		return errors.New("schema: no migration directory configured")
	}
	plan := &migrate.Plan{
		Version:       m.now().UTC().Format("20060102150405"),
		Name:          m.planName,
		Transactional: true,
	}
	for _, c := range changes {
		for i, stmt := range c.Stmts {
			cmd, args, err := stmt.Query(m.grammar.Dialect)
			if err != nil {
				return fmt.Errorf("schema: %s: %w", c.Comment, err)
			}
			change := &migrate.Change{Cmd: cmd}
			if len(args) > 0 {
				change.Args = args
			}
			if i == 0 {
				change.Comment = c.Comment
			}
			plan.Changes = append(plan.Changes, change)
		}
	}
	if err := migrate.NewPlanner(nil, m.dir, migrate.PlanFormat(m.fmt)).WritePlan(plan); err != nil {
		return fmt.Errorf("schema: writing migration plan: %w", err)
	}
	return nil
}

// Inspect returns the live shape of the given tables, in the same order.
// Missing tables are returned as nil. Live columns carry only their name.
// Tables are introspected concurrently.
func (m *Migrate) Inspect(ctx context.Context, tables ...string) ([]*Table, error) {
	live := make([]*Table, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, name := range tables {
		g.Go(func() error {
			exists, err := m.HasTable(ctx, name)
			if err != nil || !exists {
				return err
			}
			columns, err := m.Columns(ctx, name)
			if err != nil {
				return err
			}
			t := NewTable(name)
			for _, c := range columns {
				t.AddColumn(&Column{Name: c})
			}
			live[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return live, nil
}

// HasTable reports if the table exists.
func (m *Migrate) HasTable(ctx context.Context, name string) (bool, error) {
	f, err := m.grammar.HasTable(name)
	if err != nil {
		return false, err
	}
	rows, err := m.query(ctx, f)
	if err != nil {
		return false, fmt.Errorf("schema: probing table %q: %w", name, err)
	}
	if len(rows) == 0 || len(rows[0].Values) == 0 {
		return false, fmt.Errorf("schema: probing table %q: %w", name, sql.ErrCountNoRows)
	}
	n, err := count(rows[0].Values[0])
	if err != nil {
		return false, fmt.Errorf("schema: probing table %q: %w", name, err)
	}
	return n > 0, nil
}

// Columns returns the names of the live columns of the table in their
// ordinal order.
func (m *Migrate) Columns(ctx context.Context, table string) ([]string, error) {
	f, err := m.grammar.Columns(table)
	if err != nil {
		return nil, err
	}
	rows, err := m.query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("schema: listing columns of %q: %w", table, err)
	}
	columns := make([]string, 0, len(rows))
	for _, r := range rows {
		switch v := r.Values[0].(type) {
		case sql.String:
			columns = append(columns, string(v))
		case sql.Bytes:
			columns = append(columns, string(v))
		default:
			return nil, fmt.Errorf("schema: unexpected column name of kind %s", v.Kind())
		}
	}
	return columns, nil
}

// CreateTable creates the table and its indexes.
func (m *Migrate) CreateTable(ctx context.Context, t *Table, ifNotExists bool) error {
	stmts, err := m.grammar.CreateTable(t.Name, ifNotExists, t.Columns, t.Indexes...)
	if err != nil {
		return err
	}
	return m.exec(ctx, stmts...)
}

// AlterTable adds, alters and drops columns of the table. Drops are
// skipped on dialects without DROP COLUMN.
func (m *Migrate) AlterTable(ctx context.Context, name string, drops []string, adds, alters []*Column) error {
	stmts, err := m.grammar.AlterTable(name, drops, adds, alters)
	if err != nil {
		return err
	}
	return m.exec(ctx, stmts...)
}

// RenameTable renames a table.
func (m *Migrate) RenameTable(ctx context.Context, from, to string) error {
	return m.exec(ctx, m.grammar.RenameTable(from, to))
}

// DropTable drops a table.
func (m *Migrate) DropTable(ctx context.Context, name string, ifExists bool) error {
	return m.exec(ctx, m.grammar.DropTable(name, ifExists))
}

// RenameColumn renames a column of a table.
func (m *Migrate) RenameColumn(ctx context.Context, table, from, to string) error {
	return m.exec(ctx, m.grammar.RenameColumn(table, from, to))
}

// CreateIndexes creates the given indexes on a table.
func (m *Migrate) CreateIndexes(ctx context.Context, table string, indexes ...*Index) error {
	return m.exec(ctx, m.grammar.CreateIndexes(table, indexes...)...)
}

// DropIndex drops an index of a table.
func (m *Migrate) DropIndex(ctx context.Context, table, name string) error {
	return m.exec(ctx, m.grammar.DropIndex(table, name))
}

// exec executes the statements in order and stops at the first failure.
func (m *Migrate) exec(ctx context.Context, stmts ...sql.Fragment) error {
	for _, stmt := range stmts {
		query, args, err := stmt.Query(m.grammar.Dialect)
		if err != nil {
			return err
		}
		m.logger.DebugContext(ctx, "executing ddl", "query", query)
		if err := m.drv.Exec(ctx, query, args, nil); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrate) query(ctx context.Context, f sql.Fragment) ([]sql.Row, error) {
	query, args, err := f.Query(m.grammar.Dialect)
	if err != nil {
		return nil, err
	}
	var rows sql.Rows
	if err := m.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return sql.ScanRows(rows)
}

func count(v sql.Value) (int64, error) {
	switch v := v.(type) {
	case sql.Int:
		return int64(v), nil
	case sql.Double:
		return int64(v), nil
	case sql.String:
		return strconv.ParseInt(string(v), 10, 64)
	case sql.Bytes:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("schema: unexpected count of kind %s", v.Kind())
	}
}

func names(tables []*Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
