package sql

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the active variant of a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindDate
	KindUUID
	KindJSON
	KindBytes
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindDouble: "double",
	KindString: "string",
	KindDate:   "date",
	KindUUID:   "uuid",
	KindJSON:   "json",
	KindBytes:  "bytes",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a bindable SQL scalar. It is used both as a bound-parameter
// payload and as a decoded row cell. The set of implementations is closed.
type Value interface {
	// Kind returns the active variant.
	Kind() Kind
	// Any returns the value in a form accepted by database/sql drivers.
	Any() any

	sqlValue()
}

type (
	// Null is the SQL NULL value.
	Null struct{}
	// Bool is a boolean value.
	Bool bool
	// Int is a 64-bit integer value.
	Int int64
	// Double is a 64-bit floating point value.
	Double float64
	// String is a text value.
	String string
	// Date is a date/time value.
	Date time.Time
	// UUID is a UUID value.
	UUID uuid.UUID
	// JSON is an opaque JSON document.
	JSON []byte
	// Bytes is a binary blob.
	Bytes []byte
)

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Double) Kind() Kind { return KindDouble }
func (String) Kind() Kind { return KindString }
func (Date) Kind() Kind   { return KindDate }
func (UUID) Kind() Kind   { return KindUUID }
func (JSON) Kind() Kind   { return KindJSON }
func (Bytes) Kind() Kind  { return KindBytes }

func (Null) Any() any     { return nil }
func (v Bool) Any() any   { return bool(v) }
func (v Int) Any() any    { return int64(v) }
func (v Double) Any() any { return float64(v) }
func (v String) Any() any { return string(v) }
func (v Date) Any() any   { return time.Time(v) }
func (v UUID) Any() any   { return uuid.UUID(v).String() }
func (v JSON) Any() any   { return string(v) }
func (v Bytes) Any() any  { return []byte(v) }

func (Null) sqlValue()   {}
func (Bool) sqlValue()   {}
func (Int) sqlValue()    {}
func (Double) sqlValue() {}
func (String) sqlValue() {}
func (Date) sqlValue()   {}
func (UUID) sqlValue()   {}
func (JSON) sqlValue()   {}
func (Bytes) sqlValue()  {}

// ValueOf converts a Go value into a Value. Pointers are dereferenced
// (nil pointers become Null) and driver.Valuer implementations are
// resolved before conversion.
func ValueOf(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Int(v), nil
	case uint64:
		return uintValue(v)
	case float32:
		return Double(v), nil
	case float64:
		return Double(v), nil
	case string:
		return String(v), nil
	case []byte:
		if v == nil {
			return Null{}, nil
		}
		return Bytes(v), nil
	case json.RawMessage:
		if v == nil {
			return Null{}, nil
		}
		return JSON(v), nil
	case time.Time:
		return Date(v), nil
	case uuid.UUID:
		return UUID(v), nil
	case driver.Valuer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null{}, nil
		}
		dv, err := v.Value()
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: converting %T: %w", v, err)
		}
		return ValueOf(dv)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Double(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Bytes(rv.Bytes()), nil
		}
		fallthrough
	case reflect.Map, reflect.Struct:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: converting %T: %w", v, err)
		}
		return JSON(b), nil
	}
	return nil, fmt.Errorf("dialect/sql: unsupported value type %T", v)
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("dialect/sql: value %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// decodeValue converts a cell scanned by database/sql into a Value.
// Drivers deliver text, numeric, JSON and binary payloads as []byte,
// so the database type name of the column selects the variant.
func decodeValue(src any, typeName string) (Value, error) {
	typeName = strings.ToUpper(typeName)
	if i := strings.IndexByte(typeName, '('); i > 0 {
		typeName = typeName[:i]
	}
	switch v := src.(type) {
	case nil:
		return Null{}, nil
	case []byte:
		return decodeText(string(v), v, typeName)
	case string:
		return decodeText(v, nil, typeName)
	}
	return ValueOf(src)
}

func decodeText(s string, raw []byte, typeName string) (Value, error) {
	switch typeName {
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BYTEA", "BINARY", "VARBINARY":
		if raw == nil {
			raw = []byte(s)
		}
		return Bytes(append([]byte(nil), raw...)), nil
	case "JSON", "JSONB":
		return JSON(s), nil
	case "UUID":
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: decoding uuid: %w", err)
		}
		return UUID(u), nil
	case "CHAR", "CHARACTER":
		// MySQL and SQLite store UUID columns as char(36).
		if len(s) == 36 {
			if u, err := uuid.Parse(s); err == nil {
				return UUID(u), nil
			}
		}
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT", "INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(n), nil
		}
	case "DOUBLE", "FLOAT", "REAL", "DECIMAL", "NUMERIC", "FLOAT4", "FLOAT8":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Double(f), nil
		}
	case "BOOL", "BOOLEAN":
		if b, err := strconv.ParseBool(s); err == nil {
			return Bool(b), nil
		}
	}
	return String(s), nil
}

// Row is a decoded result row.
type Row struct {
	Columns []string
	Values  []Value
}

// Get returns the value of the given column.
func (r Row) Get(column string) (Value, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as a column-to-driver-value map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i].Any()
	}
	return m
}

// Values is a row of column values used by Insert and Upsert.
type Values map[string]any

// Expr is a raw SQL expression. It is written verbatim where a value is
// expected, e.g. Set("count", Expr("count + 1")) or a column default.
type Expr string
