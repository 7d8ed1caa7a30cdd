package sql

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/quarry/schema/field"
)

// Grammar compiles query builder state and DDL requests into fragments.
// Dialect specific syntax is delegated to the embedded Dialect.
type Grammar struct {
	Dialect
}

// NewGrammar returns the Grammar of the dialect.
func NewGrammar(d Dialect) Grammar {
	if d == nil {
		d = Default{}
	}
	return Grammar{Dialect: d}
}

func (g Grammar) quote(name string) string { return quoteIdent(g.Dialect, name) }

func (g Grammar) quoteAll(names []string) []string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = g.quote(n)
	}
	return q
}

// finish joins the accumulated build errors and validates the result.
func finish(b *Builder, errs ...error) (Fragment, error) {
	if err := errors.Join(append(errs, b.Err())...); err != nil {
		return Fragment{}, err
	}
	f := b.Fragment()
	if err := f.ValidateFor(b.dialect); err != nil {
		return Fragment{}, err
	}
	return f, nil
}

// Select compiles the SELECT statement of the query. Sections are
// written in a fixed order and omitted when empty.
func (g Grammar) Select(q *Query) (Fragment, error) {
	if q.table == "" {
		return Fragment{}, ErrTableRequired
	}
	b := NewBuilder(g.Dialect)
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(q.columns) == 0 {
		b.WriteString("*")
	} else {
		b.IdentComma(q.columns...)
	}
	b.WriteString(" FROM ")
	g.from(b, q)
	g.joins(b, q.joins)
	g.wheres(b, "WHERE", q.wheres)
	if len(q.groups) > 0 {
		b.WriteString(" GROUP BY ").IdentComma(q.groups...)
	}
	g.wheres(b, "HAVING", q.havings)
	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.orders {
			if i > 0 {
				b.Comma()
			}
			b.Ident(o.Column)
			if o.Desc {
				b.WriteString(" DESC")
			}
		}
	}
	switch {
	case q.limit != nil:
		b.WriteString(" LIMIT ").Arg(*q.limit)
	case q.offset != nil && g.NoLimit() != "":
		b.WriteString(" LIMIT " + g.NoLimit())
	}
	if q.offset != nil {
		b.WriteString(" OFFSET ").Arg(*q.offset)
	}
	if q.lock != nil {
		if s := g.LockClause(*q.lock); s != "" {
			b.Pad().WriteString(s)
		}
	}
	return finish(b, q.errs...)
}

func (g Grammar) from(b *Builder, q *Query) {
	b.Ident(q.table)
	if q.alias != "" {
		b.WriteString(" AS ").Ident(q.alias)
	}
}

func (g Grammar) joins(b *Builder, joins []*JoinClause) {
	for _, j := range joins {
		b.Pad()
		j.render(b)
	}
}

func (g Grammar) wheres(b *Builder, keyword string, ws []Where) {
	if len(ws) == 0 {
		return
	}
	b.Pad().WriteString(keyword).Pad()
	renderWheres(b, ws)
}

// Insert compiles a multi-row INSERT. The columns are the sorted union
// of the row keys; keys missing from a row are bound as NULL. An empty
// row list compiles to an empty fragment.
func (g Grammar) Insert(table string, rows []Values) (Fragment, error) {
	if table == "" {
		return Fragment{}, ErrTableRequired
	}
	if len(rows) == 0 {
		return Fragment{}, nil
	}
	cols := columnsOf(rows)
	if len(cols) == 0 {
		return Fragment{}, fmt.Errorf("dialect/sql: insert into %q without columns", table)
	}
	b := NewBuilder(g.Dialect)
	b.WriteString("INSERT INTO ").Ident(table).Pad().Wrap(func(b *Builder) {
		b.IdentComma(cols...)
	})
	b.WriteString(" VALUES ")
	for i, r := range rows {
		if i > 0 {
			b.Comma()
		}
		b.Wrap(func(b *Builder) {
			for j, c := range cols {
				if j > 0 {
					b.Comma()
				}
				b.Arg(r[c])
			}
		})
	}
	return finish(b)
}

// InsertReturn compiles an INSERT returning the inserted rows. Dialects
// with native RETURNING get one statement. Otherwise, the result holds
// one INSERT and one re-selecting SELECT per row, in input order; the
// SELECT filters on the key column value of the row, or on the last
// generated id if the row has no key.
func (g Grammar) InsertReturn(table, key string, rows []Values) ([]Fragment, error) {
	if g.SupportsReturning() {
		f, err := g.Insert(table, rows)
		if err != nil || f.Empty() {
			return nil, err
		}
		return []Fragment{f.Append(" ", NewFragment("RETURNING *"))}, nil
	}
	var stmts []Fragment
	for _, r := range rows {
		ins, err := g.Insert(table, []Values{r})
		if err != nil {
			return nil, err
		}
		b := NewBuilder(g.Dialect)
		b.WriteString("SELECT * FROM ").Ident(table).WriteString(" WHERE ").Ident(key).WriteString(" = ")
		if v, ok := r[key]; ok && v != nil {
			b.Arg(v)
		} else {
			b.WriteString(g.LastInsertID())
		}
		sel, err := finish(b)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, ins, sel)
	}
	return stmts, nil
}

// Upsert compiles an INSERT with a conflict clause on the given columns.
// Non-conflict columns are overwritten with the proposed values; if all
// columns are conflict columns, conflicts are ignored.
func (g Grammar) Upsert(table string, rows []Values, conflict []string) (Fragment, error) {
	f, err := g.Insert(table, rows)
	if err != nil || f.Empty() {
		return f, err
	}
	if len(conflict) == 0 {
		return Fragment{}, fmt.Errorf("dialect/sql: upsert into %q requires conflict columns", table)
	}
	var update []string
	for _, c := range columnsOf(rows) {
		if !slices.Contains(conflict, c) {
			update = append(update, g.quote(c))
		}
	}
	return f.Append(" ", NewFragment(g.OnConflict(g.quoteAll(conflict), update))), nil
}

// UpsertReturn compiles an upsert returning the affected rows. Without
// native RETURNING, every row gets an upsert and a SELECT filtering on
// its conflict column values.
func (g Grammar) UpsertReturn(table string, rows []Values, conflict []string) ([]Fragment, error) {
	if g.SupportsReturning() {
		f, err := g.Upsert(table, rows, conflict)
		if err != nil || f.Empty() {
			return nil, err
		}
		return []Fragment{f.Append(" ", NewFragment("RETURNING *"))}, nil
	}
	var stmts []Fragment
	for _, r := range rows {
		up, err := g.Upsert(table, []Values{r}, conflict)
		if err != nil {
			return nil, err
		}
		b := NewBuilder(g.Dialect)
		b.WriteString("SELECT * FROM ").Ident(table).WriteString(" WHERE ")
		for i, c := range conflict {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.Ident(c).WriteString(" = ").Arg(r[c])
		}
		sel, err := finish(b)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, up, sel)
	}
	return stmts, nil
}

// Update compiles the UPDATE statement of the query. The SET list keeps
// the assignment order. No assignments compile to an empty fragment.
func (g Grammar) Update(q *Query, sets []Assignment) (Fragment, error) {
	if q.table == "" {
		return Fragment{}, ErrTableRequired
	}
	if len(sets) == 0 {
		return Fragment{}, nil
	}
	b := NewBuilder(g.Dialect)
	b.WriteString("UPDATE ")
	g.from(b, q)
	g.joins(b, q.joins)
	b.WriteString(" SET ")
	for i, s := range sets {
		if i > 0 {
			b.Comma()
		}
		b.Ident(s.Column).WriteString(" = ").Arg(s.Value)
	}
	g.wheres(b, "WHERE", q.wheres)
	return finish(b, q.errs...)
}

// Delete compiles the DELETE statement of the query.
func (g Grammar) Delete(q *Query) (Fragment, error) {
	if q.table == "" {
		return Fragment{}, ErrTableRequired
	}
	b := NewBuilder(g.Dialect)
	b.WriteString("DELETE FROM ")
	g.from(b, q)
	g.wheres(b, "WHERE", q.wheres)
	return finish(b, q.errs...)
}

// columnsOf returns the sorted union of the row keys.
func columnsOf(rows []Values) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// CreateTable compiles a CREATE TABLE statement followed by the CREATE
// INDEX statements of the given indexes. A single primary key column is
// declared inline, composite keys and foreign keys as table constraints.
func (g Grammar) CreateTable(name string, ifNotExists bool, columns []*ColumnDef, indexes ...*IndexDef) ([]Fragment, error) {
	if name == "" {
		return nil, ErrTableRequired
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("dialect/sql: create table %q without columns", name)
	}
	var pks []string
	for _, c := range columns {
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
	}
	b := NewBuilder(g.Dialect)
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.Ident(name).WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.Comma()
		}
		g.columnDef(b, c, len(pks) == 1 && c.PrimaryKey)
	}
	if len(pks) > 1 {
		b.WriteString(", PRIMARY KEY (").IdentComma(pks...).WriteString(")")
	}
	for _, c := range columns {
		if c.References != nil {
			b.Comma()
			g.foreignKey(b, name, c)
		}
	}
	b.WriteString(")")
	f, err := finish(b)
	if err != nil {
		return nil, err
	}
	return append([]Fragment{f}, g.CreateIndexes(name, indexes...)...), nil
}

// AlterTable compiles the ALTER TABLE statements adding, altering and
// dropping columns. Drops are skipped on dialects without DROP COLUMN.
// Unique added columns get a unique index, since not all dialects can
// add a column with a UNIQUE constraint. Dialects without multi-action
// ALTER TABLE get one statement per action. No changes compile to nil.
func (g Grammar) AlterTable(name string, drops []string, adds, alters []*ColumnDef) ([]Fragment, error) {
	if name == "" {
		return nil, ErrTableRequired
	}
	var (
		actions []string
		uniques []*IndexDef
		errs    []error
	)
	for _, c := range adds {
		b := NewBuilder(g.Dialect)
		cc := *c
		cc.Unique = false
		b.WriteString("ADD COLUMN ")
		g.columnDef(b, &cc, false)
		if fk := c.References; fk != nil && g.InlineReferences() {
			g.references(b, fk)
		}
		errs = append(errs, b.Err())
		actions = append(actions, b.Fragment().Text())
		if fk := c.References; fk != nil && !g.InlineReferences() {
			b := NewBuilder(g.Dialect)
			b.WriteString("ADD ")
			g.foreignKey(b, name, c)
			actions = append(actions, b.Fragment().Text())
		}
		if c.Unique {
			uniques = append(uniques, &IndexDef{Columns: []string{c.Name}, Unique: true})
		}
	}
	for _, c := range alters {
		acts, err := g.AlterColumn(g.quote(c.Name), g.columnType(c), c.Nullable)
		if err != nil {
			return nil, err
		}
		actions = append(actions, acts...)
	}
	if g.SupportsDropColumn() {
		for _, c := range drops {
			actions = append(actions, "DROP COLUMN "+g.quote(c))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if len(actions) == 0 && len(uniques) == 0 {
		return nil, nil
	}
	var (
		stmts  []Fragment
		prefix = "ALTER TABLE " + g.quote(name) + " "
	)
	switch {
	case len(actions) == 0:
	case g.SupportsMultiActionAlter():
		stmts = append(stmts, NewFragment(prefix+strings.Join(actions, ", ")))
	default:
		for _, a := range actions {
			stmts = append(stmts, NewFragment(prefix+a))
		}
	}
	return append(stmts, g.CreateIndexes(name, uniques...)...), nil
}

// RenameTable compiles a table rename.
func (g Grammar) RenameTable(from, to string) Fragment {
	return NewFragment("ALTER TABLE " + g.quote(from) + " RENAME TO " + g.quote(to))
}

// DropTable compiles a DROP TABLE statement.
func (g Grammar) DropTable(name string, ifExists bool) Fragment {
	s := "DROP TABLE "
	if ifExists {
		s += "IF EXISTS "
	}
	return NewFragment(s + g.quote(name))
}

// RenameColumn compiles a column rename.
func (g Grammar) RenameColumn(table, from, to string) Fragment {
	return NewFragment("ALTER TABLE " + g.quote(table) + " RENAME COLUMN " + g.quote(from) + " TO " + g.quote(to))
}

// CreateIndexes compiles one CREATE INDEX statement per index.
func (g Grammar) CreateIndexes(table string, indexes ...*IndexDef) []Fragment {
	stmts := make([]Fragment, 0, len(indexes))
	for _, idx := range indexes {
		b := NewBuilder(g.Dialect)
		b.WriteString("CREATE ")
		if idx.Unique {
			b.WriteString("UNIQUE ")
		}
		b.WriteString("INDEX ").Ident(idx.IndexName(table)).WriteString(" ON ").Ident(table).Pad().Wrap(func(b *Builder) {
			b.IdentComma(idx.Columns...)
		})
		stmts = append(stmts, b.Fragment())
	}
	return stmts
}

// DropIndex compiles a DROP INDEX statement.
func (g Grammar) DropIndex(table, name string) Fragment {
	return NewFragment(g.Dialect.DropIndex(g.quote(table), g.quote(name)))
}

// HasTable compiles the table existence query of the dialect.
func (g Grammar) HasTable(table string) (Fragment, error) {
	return g.HasTableQuery(table)
}

// Columns compiles the column listing query of the dialect.
func (g Grammar) Columns(table string) (Fragment, error) {
	return g.ColumnsQuery(table)
}

func (g Grammar) columnType(c *ColumnDef) string {
	if t, ok := c.SchemaType[g.Name()]; ok {
		return t
	}
	return g.ColumnType(c)
}

func (g Grammar) columnDef(b *Builder, c *ColumnDef, inlinePK bool) {
	b.Ident(c.Name).Pad().WriteString(g.columnType(c))
	if !c.Nullable || c.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil && !c.Increment {
		lit, ok, err := g.literal(c)
		b.AddError(err)
		if ok {
			b.WriteString(" DEFAULT " + lit)
		}
	}
	if inlinePK {
		if c.Increment {
			b.Pad().WriteString(g.IncrementPrimaryKey())
		} else {
			b.WriteString(" PRIMARY KEY")
		}
	}
	if c.Unique && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
}

func (g Grammar) foreignKey(b *Builder, table string, c *ColumnDef) {
	b.WriteString("CONSTRAINT ").Ident(table + "_" + c.Name + "_fkey").
		WriteString(" FOREIGN KEY (").Ident(c.Name).WriteString(")")
	g.references(b, c.References)
}

func (g Grammar) references(b *Builder, fk *ForeignKey) {
	col := fk.Column
	if col == "" {
		col = "id"
	}
	b.WriteString(" REFERENCES ").Ident(fk.Table).WriteString(" (").Ident(col).WriteString(")")
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + fk.OnDelete)
	}
}

// literal renders the default value of a column. Function defaults,
// except time.Now, are evaluated by the caller on insert and are not
// part of the column definition.
func (g Grammar) literal(c *ColumnDef) (string, bool, error) {
	switch d := c.Default.(type) {
	case Expr:
		return string(d), true, nil
	case func() time.Time:
		return "CURRENT_TIMESTAMP", true, nil
	}
	if reflect.TypeOf(c.Default).Kind() == reflect.Func {
		return "", false, nil
	}
	v, err := ValueOf(c.Default)
	if err != nil {
		return "", false, fmt.Errorf("dialect/sql: default of column %q: %w", c.Name, err)
	}
	switch v := v.(type) {
	case Null:
		return "NULL", true, nil
	case Bool:
		return strconv.FormatBool(bool(v)), true, nil
	case Int:
		return strconv.FormatInt(int64(v), 10), true, nil
	case Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), true, nil
	case String:
		if c.Type == field.TypeJSON {
			return g.JSONLiteral(string(v)), true, nil
		}
		return g.QuoteString(string(v)), true, nil
	case Date:
		return g.QuoteString(time.Time(v).UTC().Format("2006-01-02 15:04:05")), true, nil
	case UUID:
		return g.QuoteString(v.Any().(string)), true, nil
	case JSON:
		return g.JSONLiteral(string(v)), true, nil
	case Bytes:
		if c.Type == field.TypeJSON {
			return g.JSONLiteral(string(v)), true, nil
		}
	}
	return "", false, fmt.Errorf("dialect/sql: unsupported default %T for column %q", c.Default, c.Name)
}
