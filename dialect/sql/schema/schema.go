// Package schema synchronizes declared tables with a live database.
//
// Given the declared tables, Migrate creates the missing ones and adds
// (and, where the dialect allows it, drops) the columns of existing ones:
//
//	m, err := schema.NewMigrate(drv, schema.WithDropColumn(false))
//	if err != nil {
//		return err
//	}
//	if err := m.Create(ctx, users, pets); err != nil {
//		return err
//	}
//
// Only column names are compared. Type, size and nullability changes of
// existing columns are not detected.
package schema

import (
	"slices"

	"github.com/syssam/quarry/dialect/sql"
)

type (
	// Column is a declared table column.
	Column = sql.ColumnDef
	// Index is a declared table index.
	Index = sql.IndexDef
)

// Table is the declared shape of a database table.
type Table struct {
	Name    string
	Columns []*Column
	Indexes []*Index
	// Comment is written next to the table statements of migration plans.
	Comment string
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends the given column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	t.Columns = append(t.Columns, c)
	return t
}

// AddIndex appends an index on the given columns.
func (t *Table) AddIndex(name string, unique bool, columns ...string) *Table {
	t.Indexes = append(t.Indexes, &Index{Name: name, Unique: unique, Columns: columns})
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	i := slices.IndexFunc(t.Columns, func(c *Column) bool { return c.Name == name })
	if i == -1 {
		return nil, false
	}
	return t.Columns[i], true
}

// HasColumn reports if the table declares a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// PrimaryKey returns the primary key columns of the table.
func (t *Table) PrimaryKey() []*Column {
	var pks []*Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}

// ColumnNames returns the names of the table columns in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
