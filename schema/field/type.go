package field

import (
	"fmt"
	"strings"
)

// A Type represents a logical column type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeInt
	TypeInt64
	TypeFloat64
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeJSON:    "json",
	TypeUUID:    "uuid",
	TypeBytes:   "bytes",
	TypeEnum:    "enum",
	TypeString:  "string",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt && t < endTypes
}

// Integer reports if the given type is an integer type.
func (t Type) Integer() bool {
	return t == TypeInt || t == TypeInt64
}

// Valid reports if the given type is known and not TypeInvalid.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// typeAliases maps the names accepted by ParseType to their types.
var typeAliases = map[string]Type{
	"bool":      TypeBool,
	"boolean":   TypeBool,
	"time":      TypeTime,
	"date":      TypeTime,
	"timestamp": TypeTime,
	"json":      TypeJSON,
	"uuid":      TypeUUID,
	"bytes":     TypeBytes,
	"blob":      TypeBytes,
	"enum":      TypeEnum,
	"string":    TypeString,
	"text":      TypeString,
	"int":       TypeInt,
	"integer":   TypeInt,
	"int64":     TypeInt64,
	"bigint":    TypeInt64,
	"float64":   TypeFloat64,
	"double":    TypeFloat64,
}

// ParseType returns the Type for the given name. Both the type names
// (e.g. "int64") and their SQL flavored aliases (e.g. "bigint") are accepted.
func ParseType(name string) (Type, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", name)
}

// TypeInfo holds the type information of a field.
type TypeInfo struct {
	Type Type
}

// String returns the name of the type.
func (t *TypeInfo) String() string {
	if t == nil {
		return TypeInvalid.String()
	}
	return t.Type.String()
}
