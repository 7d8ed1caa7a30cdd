package sql

import (
	"strings"

	"github.com/syssam/quarry/schema/field"
)

// ColumnDef describes a table column for DDL generation.
type ColumnDef struct {
	Name       string
	Type       field.Type
	Size       int64             // max size of string and bytes columns.
	Increment  bool              // auto-increment primary key.
	Nullable   bool              // NULL values allowed.
	PrimaryKey bool              // (part of) the primary key.
	Unique     bool              // unique constraint.
	Default    any               // literal or Expr default.
	SchemaType map[string]string // type override per dialect name.
	Enums      []string          // enum values.
	Comment    string
	References *ForeignKey
}

// ForeignKey is a column reference to another table.
type ForeignKey struct {
	Table    string
	Column   string
	OnDelete string // e.g. CASCADE, SET NULL.
}

// IndexDef describes a table index.
type IndexDef struct {
	Name    string
	Columns []string
	Unique  bool
}

// IndexName returns the name of the index, or a name derived from the
// table and columns if none is set.
func (i *IndexDef) IndexName(table string) string {
	if i.Name != "" {
		return i.Name
	}
	return table + "_" + strings.Join(i.Columns, "_")
}

// ColumnDefOf converts a field descriptor to a column definition.
func ColumnDefOf(fd *field.Descriptor) *ColumnDef {
	c := &ColumnDef{
		Name:       fd.Column(),
		Size:       fd.Size,
		Increment:  fd.Increment,
		Nullable:   fd.Nullable(),
		PrimaryKey: fd.PrimaryKey,
		Unique:     fd.Unique,
		SchemaType: fd.SchemaType,
		Enums:      fd.Enums,
		Comment:    fd.Comment,
		Default:    fd.Default,
	}
	if fd.Info != nil {
		c.Type = fd.Info.Type
	}
	return c
}
