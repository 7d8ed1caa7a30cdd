package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/quarry/dialect"
	"github.com/syssam/quarry/schema/field"
)

// Dialect holds the syntax and capability hooks of a SQL engine. The
// Default type implements every hook; Postgres, MySQL and SQLite embed
// it and override only the hooks where the engine differs.
//
// Hooks receive identifiers already quoted by the Grammar.
type Dialect interface {
	// Name returns the dialect name, as used in field.SchemaType maps.
	Name() string
	// QuoteIdent quotes a single identifier.
	QuoteIdent(string) string
	// QuoteString quotes a string literal.
	QuoteString(string) string
	// Placeholder returns the n-th (1-based) parameter placeholder.
	Placeholder(n int) string
	// BackslashEscapes reports if a backslash escapes the next character
	// of a string literal.
	BackslashEscapes() bool
	// ColumnType returns the type name of a column.
	ColumnType(*ColumnDef) string
	// IncrementPrimaryKey returns the inline attributes of an
	// auto-increment primary key column.
	IncrementPrimaryKey() string
	// JSONLiteral renders a JSON document as a column default.
	JSONLiteral(string) string
	// LockClause renders the row-lock suffix of a SELECT, or "" if the
	// engine has no row locks.
	LockClause(Lock) string
	// NoLimit returns the LIMIT value used when only OFFSET is set, or ""
	// if OFFSET may appear alone.
	NoLimit() string
	// OnConflict renders the conflict clause of an upsert. An empty update
	// list renders the do-nothing form.
	OnConflict(conflict, update []string) string
	// DropIndex renders a DROP INDEX statement.
	DropIndex(table, name string) string
	// AlterColumn renders the ALTER TABLE actions changing the type and
	// nullability of a column.
	AlterColumn(column, typ string, nullable bool) ([]string, error)
	// LastInsertID returns the expression of the last generated id.
	LastInsertID() string
	// SupportsReturning reports native multi-row RETURNING.
	SupportsReturning() bool
	// SupportsDropColumn reports ALTER TABLE ... DROP COLUMN support.
	SupportsDropColumn() bool
	// SupportsMultiActionAlter reports if one ALTER TABLE may carry
	// several comma separated actions.
	SupportsMultiActionAlter() bool
	// InlineReferences reports if foreign keys of added columns are
	// declared inline instead of with ADD CONSTRAINT.
	InlineReferences() bool
	// ColumnsQuery returns the query listing the column names of a table.
	ColumnsQuery(table string) (Fragment, error)
	// HasTableQuery returns a COUNT query probing for a table.
	HasTableQuery(table string) (Fragment, error)
}

// DialectOf returns the dialect of the given name. Unknown names get
// the Default dialect.
func DialectOf(name string) Dialect {
	switch name {
	case dialect.Postgres:
		return Postgres{}
	case dialect.MySQL:
		return MySQL{}
	case dialect.SQLite:
		return SQLite{}
	default:
		return Default{}
	}
}

// Default is the Postgres-like default dialect.
type Default struct{}

// Name implements Dialect.
func (Default) Name() string { return "default" }

// QuoteIdent implements Dialect.
func (Default) QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteString implements Dialect.
func (Default) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Placeholder implements Dialect.
func (Default) Placeholder(int) string { return "?" }

// BackslashEscapes implements Dialect.
func (Default) BackslashEscapes() bool { return false }

// ColumnType implements Dialect.
func (Default) ColumnType(c *ColumnDef) string {
	switch c.Type {
	case field.TypeBool:
		return "boolean"
	case field.TypeInt:
		if c.Increment {
			return "serial"
		}
		return "integer"
	case field.TypeInt64:
		if c.Increment {
			return "bigserial"
		}
		return "bigint"
	case field.TypeFloat64:
		return "double precision"
	case field.TypeTime:
		return "timestamp with time zone"
	case field.TypeUUID:
		return "uuid"
	case field.TypeJSON:
		return "jsonb"
	case field.TypeBytes:
		return "bytea"
	default:
		return varchar(c, 10485760)
	}
}

// IncrementPrimaryKey implements Dialect.
func (Default) IncrementPrimaryKey() string { return "PRIMARY KEY" }

// JSONLiteral implements Dialect.
func (d Default) JSONLiteral(s string) string { return d.QuoteString(s) + "::jsonb" }

// LockClause implements Dialect.
func (Default) LockClause(l Lock) string {
	s := "FOR " + string(l.Strength)
	if l.Option != "" {
		s += " " + string(l.Option)
	}
	return s
}

// NoLimit implements Dialect.
func (Default) NoLimit() string { return "" }

// OnConflict implements Dialect.
func (Default) OnConflict(conflict, update []string) string {
	var b strings.Builder
	b.WriteString("ON CONFLICT (")
	b.WriteString(strings.Join(conflict, ", "))
	b.WriteString(") ")
	if len(update) == 0 {
		b.WriteString("DO NOTHING")
		return b.String()
	}
	b.WriteString("DO UPDATE SET ")
	for i, c := range update {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c + " = EXCLUDED." + c)
	}
	return b.String()
}

// DropIndex implements Dialect.
func (Default) DropIndex(_, name string) string { return "DROP INDEX " + name }

// AlterColumn implements Dialect.
func (Default) AlterColumn(column, typ string, nullable bool) ([]string, error) {
	null := "SET NOT NULL"
	if nullable {
		null = "DROP NOT NULL"
	}
	return []string{
		"ALTER COLUMN " + column + " TYPE " + typ,
		"ALTER COLUMN " + column + " " + null,
	}, nil
}

// LastInsertID implements Dialect.
func (Default) LastInsertID() string { return "LASTVAL()" }

// SupportsReturning implements Dialect.
func (Default) SupportsReturning() bool { return true }

// SupportsDropColumn implements Dialect.
func (Default) SupportsDropColumn() bool { return true }

// SupportsMultiActionAlter implements Dialect.
func (Default) SupportsMultiActionAlter() bool { return true }

// InlineReferences implements Dialect.
func (Default) InlineReferences() bool { return false }

// ColumnsQuery implements Dialect.
func (Default) ColumnsQuery(string) (Fragment, error) {
	return Fragment{}, &UnsupportedError{Dialect: "default", Feature: "column introspection"}
}

// HasTableQuery implements Dialect.
func (Default) HasTableQuery(string) (Fragment, error) {
	return Fragment{}, &UnsupportedError{Dialect: "default", Feature: "table introspection"}
}

// Postgres is the PostgreSQL dialect.
type Postgres struct{ Default }

// Name implements Dialect.
func (Postgres) Name() string { return dialect.Postgres }

// Placeholder implements Dialect.
func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

// ColumnsQuery implements Dialect.
func (Postgres) ColumnsQuery(table string) (Fragment, error) {
	return NewFragment(
		"SELECT column_name FROM information_schema.columns WHERE table_schema = CURRENT_SCHEMA() AND table_name = ? ORDER BY ordinal_position",
		String(table),
	), nil
}

// HasTableQuery implements Dialect.
func (Postgres) HasTableQuery(table string) (Fragment, error) {
	return NewFragment(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = ?",
		String(table),
	), nil
}

// MySQL is the MySQL dialect.
type MySQL struct{ Default }

// Name implements Dialect.
func (MySQL) Name() string { return dialect.MySQL }

// BackslashEscapes implements Dialect.
func (MySQL) BackslashEscapes() bool { return true }

// QuoteIdent implements Dialect.
func (MySQL) QuoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// QuoteString implements Dialect. Backslashes are escape characters in
// MySQL string literals.
func (MySQL) QuoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ColumnType implements Dialect.
func (MySQL) ColumnType(c *ColumnDef) string {
	switch c.Type {
	case field.TypeInt:
		return "int"
	case field.TypeInt64:
		return "bigint"
	case field.TypeFloat64:
		return "double"
	case field.TypeTime:
		return "datetime"
	case field.TypeUUID:
		return "char(36)"
	case field.TypeJSON:
		return "json"
	case field.TypeBytes:
		if c.Size > 65535 {
			return "longblob"
		}
		return "blob"
	case field.TypeEnum:
		if len(c.Enums) > 0 {
			vs := make([]string, len(c.Enums))
			for i, e := range c.Enums {
				vs[i] = MySQL{}.QuoteString(e)
			}
			return "enum(" + strings.Join(vs, ", ") + ")"
		}
	case field.TypeString:
		if c.Size > 65535 {
			return "longtext"
		}
	}
	return Default{}.ColumnType(c)
}

// IncrementPrimaryKey implements Dialect.
func (MySQL) IncrementPrimaryKey() string { return "AUTO_INCREMENT PRIMARY KEY" }

// JSONLiteral implements Dialect. JSON columns accept only expression defaults.
func (d MySQL) JSONLiteral(s string) string { return "(" + d.QuoteString(s) + ")" }

// LockClause implements Dialect.
func (MySQL) LockClause(l Lock) string {
	if l.Strength == LockShare && l.Option == "" {
		return "LOCK IN SHARE MODE"
	}
	return Default{}.LockClause(l)
}

// NoLimit implements Dialect.
func (MySQL) NoLimit() string { return "18446744073709551615" }

// OnConflict implements Dialect.
func (MySQL) OnConflict(conflict, update []string) string {
	if len(update) == 0 {
		// Assigning a key to itself leaves the row untouched.
		return "ON DUPLICATE KEY UPDATE " + conflict[0] + " = " + conflict[0]
	}
	sets := make([]string, len(update))
	for i, c := range update {
		sets[i] = c + " = VALUES(" + c + ")"
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

// DropIndex implements Dialect.
func (MySQL) DropIndex(table, name string) string {
	return "DROP INDEX " + name + " ON " + table
}

// AlterColumn implements Dialect.
func (MySQL) AlterColumn(column, typ string, nullable bool) ([]string, error) {
	null := " NOT NULL"
	if nullable {
		null = " NULL"
	}
	return []string{"MODIFY COLUMN " + column + " " + typ + null}, nil
}

// LastInsertID implements Dialect.
func (MySQL) LastInsertID() string { return "LAST_INSERT_ID()" }

// SupportsReturning implements Dialect.
func (MySQL) SupportsReturning() bool { return false }

// ColumnsQuery implements Dialect.
func (MySQL) ColumnsQuery(table string) (Fragment, error) {
	return NewFragment(
		"SELECT column_name FROM information_schema.columns WHERE table_schema = (SELECT DATABASE()) AND table_name = ? ORDER BY ordinal_position",
		String(table),
	), nil
}

// HasTableQuery implements Dialect.
func (MySQL) HasTableQuery(table string) (Fragment, error) {
	return NewFragment(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = (SELECT DATABASE()) AND table_name = ?",
		String(table),
	), nil
}

// SQLite is the SQLite dialect.
type SQLite struct{ Default }

// Name implements Dialect.
func (SQLite) Name() string { return dialect.SQLite }

// ColumnType implements Dialect.
func (SQLite) ColumnType(c *ColumnDef) string {
	switch c.Type {
	case field.TypeBool:
		return "bool"
	case field.TypeInt, field.TypeInt64:
		return "integer"
	case field.TypeFloat64:
		return "real"
	case field.TypeTime:
		return "datetime"
	case field.TypeUUID:
		return "char(36)"
	case field.TypeJSON:
		return "json"
	case field.TypeBytes:
		return "blob"
	}
	return Default{}.ColumnType(c)
}

// IncrementPrimaryKey implements Dialect.
func (SQLite) IncrementPrimaryKey() string { return "PRIMARY KEY AUTOINCREMENT" }

// JSONLiteral implements Dialect.
func (d SQLite) JSONLiteral(s string) string { return d.QuoteString(s) }

// LockClause implements Dialect. SQLite locks the whole database.
func (SQLite) LockClause(Lock) string { return "" }

// NoLimit implements Dialect.
func (SQLite) NoLimit() string { return "-1" }

// AlterColumn implements Dialect.
func (SQLite) AlterColumn(string, string, bool) ([]string, error) {
	return nil, &UnsupportedError{Dialect: dialect.SQLite, Feature: "ALTER COLUMN"}
}

// LastInsertID implements Dialect.
func (SQLite) LastInsertID() string { return "last_insert_rowid()" }

// SupportsDropColumn implements Dialect.
func (SQLite) SupportsDropColumn() bool { return false }

// SupportsMultiActionAlter implements Dialect.
func (SQLite) SupportsMultiActionAlter() bool { return false }

// InlineReferences implements Dialect.
func (SQLite) InlineReferences() bool { return true }

// ColumnsQuery implements Dialect.
func (SQLite) ColumnsQuery(table string) (Fragment, error) {
	return NewFragment("SELECT name FROM pragma_table_info(?) ORDER BY cid", String(table)), nil
}

// HasTableQuery implements Dialect.
func (SQLite) HasTableQuery(table string) (Fragment, error) {
	return NewFragment("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", String(table)), nil
}

// varchar returns the string column type for the size of the column.
// Sizes above limit are stored as text.
func varchar(c *ColumnDef, limit int64) string {
	size := c.Size
	switch {
	case size == 0:
		size = 255
	case size > limit:
		return "text"
	}
	return fmt.Sprintf("varchar(%d)", size)
}
