package edge

import "fmt"

// Action is the referential action of a foreign key on delete.
type Action string

// Referential actions.
const (
	NoAction   Action = "NO ACTION"
	Restrict   Action = "RESTRICT"
	Cascade    Action = "CASCADE"
	SetNull    Action = "SET NULL"
	SetDefault Action = "SET DEFAULT"
)

// Valid reports if the action is one of the referential actions, or empty.
func (a Action) Valid() bool {
	switch a {
	case "", NoAction, Restrict, Cascade, SetNull, SetDefault:
		return true
	}
	return false
}

// A Descriptor for edge configuration.
type Descriptor struct {
	Name     string // edge name.
	Table    string // referenced table.
	Column   string // referenced column, "id" if empty.
	Field    string // field holding the foreign key.
	OnDelete Action // referential action on delete.
	Comment  string
	Err      error
}

// Builder for edges.
type Builder struct {
	desc *Descriptor
}

// To defines an edge to the rows of the given table.
//
//	edge.To("owner", "users")
func To(name, table string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Table: table, Field: name + "_id"}}
}

// Field sets the field holding the foreign key. Defaults to the edge
// name followed by "_id".
func (b *Builder) Field(name string) *Builder {
	b.desc.Field = name
	return b
}

// Column sets the referenced column. Defaults to "id".
func (b *Builder) Column(name string) *Builder {
	b.desc.Column = name
	return b
}

// OnDelete sets the referential action on delete of the referenced row.
func (b *Builder) OnDelete(a Action) *Builder {
	if !a.Valid() {
		b.desc.Err = fmt.Errorf("edge %q: invalid on delete action %q", b.desc.Name, a)
		return b
	}
	b.desc.OnDelete = a
	return b
}

// Comment sets the comment of the edge.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the quarry.Edge interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
