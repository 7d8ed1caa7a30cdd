// Package index provides the index descriptors of an entity schema.
//
//	func (User) Indexes() []quarry.Index {
//		return []quarry.Index{
//			index.Fields("first_name", "last_name"),
//			index.Fields("email").Unique(),
//		}
//	}
package index

import (
	"errors"
	"fmt"
)

// Descriptor holds the configuration of a schema index.
type Descriptor struct {
	Fields     []string // indexed fields, in column order
	Unique     bool
	StorageKey string // index name; empty for <table>_<columns>
	Err        error
}

// Builder configures an index.
type Builder struct {
	desc *Descriptor
}

// Fields creates an index on the given fields. A field listed twice, or
// an index without fields, is reported when the schema is loaded.
func Fields(fields ...string) *Builder {
	d := &Descriptor{Fields: fields}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			d.Err = fmt.Errorf("index: field %q listed twice", f)
			break
		}
		seen[f] = struct{}{}
	}
	if len(fields) == 0 {
		d.Err = errors.New("index: no fields")
	}
	return &Builder{desc: d}
}

// Unique marks the index as unique. Rows holding NULL in one of the
// columns are not considered duplicates.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// StorageKey sets the index name.
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// Descriptor implements the quarry.Index interface.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
