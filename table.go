package quarry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-openapi/inflect"

	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/dialect/sql/schema"
)

// TableName returns the table name of the schema: the configured one,
// or the snake-cased plural of its type name.
func TableName(s Interface) string {
	if name := s.Config().Table; name != "" {
		return name
	}
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return inflect.Pluralize(inflect.Underscore(t.Name()))
}

// TableOf converts the schema to its table declaration. Mixin fields and
// indexes come before the schema ones. Edges set the foreign key of the
// field they are stored in. Field, index and edge errors are collected
// and returned together.
func TableOf(s Interface) (*schema.Table, error) {
	t := schema.NewTable(TableName(s))
	t.Comment = s.Config().Comment
	var (
		errs    []error
		fields  []Field
		indexes []Index
		columns = make(map[string]string)
	)
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)
	for _, f := range fields {
		d := f.Descriptor()
		switch {
		case d.Err != nil:
			errs = append(errs, NewValidationError(t.Name, d.Name, d.Err))
			continue
		case d.Info == nil || !d.Info.Type.Valid():
			errs = append(errs, NewValidationError(t.Name, d.Name, errors.New("invalid field type")))
			continue
		}
		if _, ok := columns[d.Name]; ok {
			errs = append(errs, NewValidationError(t.Name, d.Name, errors.New("duplicate field")))
			continue
		}
		columns[d.Name] = d.Column()
		t.AddColumn(sql.ColumnDefOf(d))
	}
	for _, idx := range indexes {
		d := idx.Descriptor()
		if d.Err != nil {
			errs = append(errs, NewValidationError(t.Name, "", d.Err))
			continue
		}
		def := &schema.Index{Name: d.StorageKey, Unique: d.Unique}
		for _, name := range d.Fields {
			c, ok := columns[name]
			if !ok {
				errs = append(errs, NewValidationError(t.Name, "", fmt.Errorf("index on unknown field %q", name)))
				continue
			}
			def.Columns = append(def.Columns, c)
		}
		t.Indexes = append(t.Indexes, def)
	}
	for _, e := range s.Edges() {
		d := e.Descriptor()
		if d.Err != nil {
			errs = append(errs, NewValidationError(t.Name, d.Name, d.Err))
			continue
		}
		name, ok := columns[d.Field]
		if !ok {
			errs = append(errs, NewValidationError(t.Name, d.Name, fmt.Errorf("edge on unknown field %q", d.Field)))
			continue
		}
		c, _ := t.Column(name)
		c.References = &sql.ForeignKey{Table: d.Table, Column: d.Column, OnDelete: string(d.OnDelete)}
	}
	if err := NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

// Tables converts the schemas to their table declarations.
func Tables(schemas ...Interface) ([]*schema.Table, error) {
	tables := make([]*schema.Table, 0, len(schemas))
	var errs []error
	for _, s := range schemas {
		t, err := TableOf(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tables = append(tables, t)
	}
	if err := NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return tables, nil
}
