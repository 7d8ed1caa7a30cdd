package field

import (
	"errors"
	"fmt"
	"math"
)

// TextSize is the size assigned to Text fields. Strings larger than the
// varchar limit of the dialect are stored as TEXT columns.
const TextSize = math.MaxInt32

// Descriptor for field configuration.
type Descriptor struct {
	Name          string            // field name.
	Info          *TypeInfo         // field type info.
	Size          int64             // max size of string and bytes fields.
	Optional      bool              // not required on create.
	Nillable      bool              // nullable column.
	Unique        bool              // unique index of field.
	Immutable     bool              // create only field.
	PrimaryKey    bool              // field is (part of) the primary key.
	Increment     bool              // auto-increment integer primary key.
	Default       any               // default value on create.
	UpdateDefault any               // default value on update.
	Enums         []string          // enum values.
	Comment       string            // field comment.
	StorageKey    string            // sql column name.
	SchemaType    map[string]string // override default schema type per dialect.
	Err           error
}

// Column returns the name of the column the field is stored in.
func (d *Descriptor) Column() string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

// Nullable reports if the column accepts NULL values.
func (d *Descriptor) Nullable() bool {
	return d.Nillable
}

// Builder is the fluent builder for all field types.
type Builder struct {
	desc *Descriptor
}

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{
		Name: name,
		Info: &TypeInfo{Type: t},
	}}
}

// String returns a new Field with type string.
func String(name string) *Builder { return newBuilder(name, TypeString) }

// Text returns a new string field without limitation on the size.
// It is stored in a "text" column in all dialects.
func Text(name string) *Builder {
	b := newBuilder(name, TypeString)
	b.desc.Size = TextSize
	return b
}

// Int returns a new Field with type int.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Int64 returns a new Field with type int64.
func Int64(name string) *Builder { return newBuilder(name, TypeInt64) }

// Float64 returns a new Field with type float64.
func Float64(name string) *Builder { return newBuilder(name, TypeFloat64) }

// Bool returns a new Field with type bool.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Time returns a new Field with type timestamp.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// UUID returns a new Field with type UUID. Dialects without a native
// UUID type store it as a fixed-length string.
func UUID(name string) *Builder { return newBuilder(name, TypeUUID) }

// JSON returns a new Field with type JSON. The value is opaque to
// the query compiler.
func JSON(name string) *Builder { return newBuilder(name, TypeJSON) }

// Bytes returns a new Field with type bytes/buffer.
// In MySQL and SQLite, it is the "blob" type and in Postgres "bytea".
func Bytes(name string) *Builder { return newBuilder(name, TypeBytes) }

// Enum returns a new Field with type enum. Use Values to set the
// allowed values.
//
//	field.Enum("status").Values("pending", "active")
func Enum(name string) *Builder { return newBuilder(name, TypeEnum) }

// Optional indicates that this field is optional on create.
// It does not change the nullability of the column, see Nillable.
func (b *Builder) Optional() *Builder {
	b.desc.Optional = true
	return b
}

// Nillable indicates that this field is stored in a nullable column.
func (b *Builder) Nillable() *Builder {
	b.desc.Nillable = true
	return b
}

// Unique makes the field unique within all vertices of this type.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *Builder) Immutable() *Builder {
	b.desc.Immutable = true
	return b
}

// PrimaryKey marks the field as the primary key of the table. Integer
// primary keys are auto-incremented unless Increment(false) is called
// afterwards.
func (b *Builder) PrimaryKey() *Builder {
	b.desc.PrimaryKey = true
	b.desc.Increment = b.desc.Info.Type.Integer()
	return b
}

// Increment configures the auto-increment of an integer primary key.
func (b *Builder) Increment(inc bool) *Builder {
	if inc && !b.desc.Info.Type.Integer() {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: auto-increment requires an integer type, got %s", b.desc.Name, b.desc.Info))
		return b
	}
	b.desc.Increment = inc
	return b
}

// Default sets the default value of the field. A function value (e.g.
// time.Now) is evaluated by the caller on insert; literal values are also
// written to the column definition.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// UpdateDefault sets the default value of the field on update.
func (b *Builder) UpdateDefault(v any) *Builder {
	b.desc.UpdateDefault = v
	return b
}

// MaxLen sets the maximum length of a string or bytes field.
func (b *Builder) MaxLen(n int) *Builder {
	switch t := b.desc.Info.Type; {
	case n <= 0:
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: invalid size %d", b.desc.Name, n))
	case t != TypeString && t != TypeBytes && t != TypeEnum:
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: MaxLen is not supported for type %s", b.desc.Name, t))
	default:
		b.desc.Size = int64(n)
	}
	return b
}

// Values adds given values to the enum values.
func (b *Builder) Values(values ...string) *Builder {
	if b.desc.Info.Type != TypeEnum {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: Values is supported only by enum fields", b.desc.Name))
		return b
	}
	for _, v := range values {
		if v == "" {
			b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: empty enum value", b.desc.Name))
			continue
		}
		b.desc.Enums = append(b.desc.Enums, v)
	}
	return b
}

// Comment sets the comment of the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key (column name) of the field.
//
//	field.String("name").
//		StorageKey("full_name")
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the default database type with a custom
// schema type (per dialect) for the field.
//
//	field.Float64("amount").
//		SchemaType(map[string]string{
//			dialect.MySQL:    "decimal(6,2)",
//			dialect.Postgres: "numeric",
//		})
func (b *Builder) SchemaType(types map[string]string) *Builder {
	b.desc.SchemaType = types
	return b
}

// Descriptor implements the quarry.Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
