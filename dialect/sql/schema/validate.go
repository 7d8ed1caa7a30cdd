package schema

import (
	"fmt"
	"strings"
)

// Finding is a problem detected in the declared tables or in the
// changes planned for them.
type Finding struct {
	Table   string
	Column  string // empty for table-level findings
	Message string
	// Breaking findings lose data or rewrite existing rows.
	Breaking bool
}

func (f *Finding) Error() string {
	var b strings.Builder
	b.WriteString(f.Table)
	if f.Column != "" {
		b.WriteString(".")
		b.WriteString(f.Column)
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	if f.Breaking {
		b.WriteString(" [BREAKING]")
	}
	return b.String()
}

// Report groups findings by severity. Errors always block a
// synchronization; warnings block it only in strict mode.
type Report struct {
	Errors   []*Finding
	Warnings []*Finding
}

func (r *Report) errorf(table, column, format string, args ...any) *Finding {
	f := &Finding{Table: table, Column: column, Message: fmt.Sprintf(format, args...)}
	r.Errors = append(r.Errors, f)
	return f
}

func (r *Report) warnf(table, column, format string, args ...any) *Finding {
	f := &Finding{Table: table, Column: column, Message: fmt.Sprintf(format, args...)}
	r.Warnings = append(r.Warnings, f)
	return f
}

// Blocks reports whether the findings prevent a synchronization.
func (r *Report) Blocks(strict bool) bool {
	return len(r.Errors) > 0 || strict && len(r.Warnings) > 0
}

// Breaking reports whether any finding is a breaking change.
func (r *Report) Breaking() bool {
	for _, fs := range [][]*Finding{r.Errors, r.Warnings} {
		for _, f := range fs {
			if f.Breaking {
				return true
			}
		}
	}
	return false
}

// Merge appends the findings of other to r.
func (r *Report) Merge(other *Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// String lists the findings, one per line, errors first.
func (r *Report) String() string {
	if len(r.Errors)+len(r.Warnings) == 0 {
		return "no findings"
	}
	var lines []string
	for _, f := range r.Errors {
		lines = append(lines, "error: "+f.Error())
	}
	for _, f := range r.Warnings {
		lines = append(lines, "warning: "+f.Error())
	}
	return strings.Join(lines, "\n")
}

// DiffOption configures the validation of planned changes.
type DiffOption func(*diffRules)

type diffRules struct {
	allowDrop    bool
	requireAddDf bool
}

// AllowDropColumn downgrades dropped columns from errors to warnings.
func AllowDropColumn() DiffOption {
	return func(r *diffRules) { r.allowDrop = true }
}

// RequireAddDefaults makes added NOT NULL columns without a default an
// error. SQLite rejects them even on empty tables.
func RequireAddDefaults() DiffOption {
	return func(r *diffRules) { r.requireAddDf = true }
}

// ValidateDiff checks the column changes of diffs against the declared
// tables.
func ValidateDiff(tables []*Table, diffs []Diff, opts ...DiffOption) *Report {
	rules := &diffRules{}
	for _, opt := range opts {
		opt(rules)
	}
	declared := make(map[string]*Table, len(tables))
	for _, t := range tables {
		declared[t.Name] = t
	}
	r := &Report{}
	for _, d := range diffs {
		for _, name := range d.Drops {
			var f *Finding
			if rules.allowDrop {
				f = r.warnf(d.Table, name, "column will be dropped")
			} else {
				f = r.errorf(d.Table, name, "column will be dropped")
			}
			f.Breaking = true
		}
		t, ok := declared[d.Table]
		if !ok {
			r.errorf(d.Table, "", "diff of an undeclared table")
			continue
		}
		for _, name := range d.Adds {
			c, ok := t.Column(name)
			switch {
			case !ok:
				r.errorf(d.Table, name, "added column is not declared")
				continue
			case c.PrimaryKey:
				r.errorf(d.Table, name, "primary key columns cannot be added to an existing table").Breaking = true
			case c.Nullable || c.Default != nil:
			case rules.requireAddDf:
				r.errorf(d.Table, name, "new NOT NULL column requires a default value")
			default:
				r.warnf(d.Table, name, "new NOT NULL column without default value may fail if table has data")
			}
			if c.Unique {
				r.warnf(d.Table, name, "adding UNIQUE constraint may fail if duplicate values exist")
			}
		}
	}
	return r
}

// ValidateTable checks the definition of a single table.
func ValidateTable(t *Table) *Report {
	r := &Report{}
	if t.Name == "" {
		r.errorf("", "", "table without a name")
	}
	if len(t.Columns) == 0 {
		r.errorf(t.Name, "", "table has no columns")
	}
	if len(t.PrimaryKey()) == 0 {
		r.warnf(t.Name, "", "table has no primary key")
	}
	columns := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			r.errorf(t.Name, "", "column without a name")
		} else if _, dup := columns[c.Name]; dup {
			r.errorf(t.Name, c.Name, "duplicate column name")
		}
		if !c.Type.Valid() && c.SchemaType == nil {
			r.errorf(t.Name, c.Name, "column has no type")
		}
		columns[c.Name] = struct{}{}
	}
	indexes := make(map[string]struct{}, len(t.Indexes))
	for _, idx := range t.Indexes {
		name := idx.IndexName(t.Name)
		if _, dup := indexes[name]; dup {
			r.errorf(t.Name, "", "duplicate index name: %s", name)
		}
		indexes[name] = struct{}{}
		if len(idx.Columns) == 0 {
			r.errorf(t.Name, "", "index %q has no columns", name)
		}
		for _, col := range idx.Columns {
			if _, ok := columns[col]; !ok {
				r.errorf(t.Name, "", "index %q references non-existent column %q", name, col)
			}
		}
	}
	return r
}

// ValidateSchema checks all tables and the foreign keys between them.
func ValidateSchema(tables []*Table) *Report {
	r := &Report{}
	seen := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		if _, dup := seen[t.Name]; dup {
			r.errorf(t.Name, "", "duplicate table name")
		}
		seen[t.Name] = struct{}{}
		r.Merge(ValidateTable(t))
	}
	for _, t := range tables {
		for _, c := range t.Columns {
			if fk := c.References; fk != nil {
				if _, ok := seen[fk.Table]; !ok {
					r.errorf(t.Name, c.Name, "foreign key references non-existent table %q", fk.Table)
				}
			}
		}
	}
	return r
}
