package sql

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Predicate applies a filter to a query.
type Predicate func(*Query)

// PredicateFunc is a constraint type for predicate functions.
// It allows generic field types to work with any predicate type that is
// based on func(*Query).
type PredicateFunc interface {
	~func(*Query)
}

// FieldEQ returns a predicate that checks if the field equals v.
func FieldEQ(name string, v any) func(*Query) {
	return func(q *Query) { q.Where(name, "=", v) }
}

// FieldNEQ returns a predicate that checks if the field does not equal v.
func FieldNEQ(name string, v any) func(*Query) {
	return func(q *Query) { q.Where(name, "<>", v) }
}

// FieldGT returns a predicate that checks if the field is greater than v.
func FieldGT(name string, v any) func(*Query) {
	return func(q *Query) { q.Where(name, ">", v) }
}

// FieldGTE returns a predicate that checks if the field is greater than or equal to v.
func FieldGTE(name string, v any) func(*Query) {
	return func(q *Query) { q.Where(name, ">=", v) }
}

// FieldLT returns a predicate that checks if the field is less than v.
func FieldLT(name string, v any) func(*Query) {
	return func(q *Query) { q.Where(name, "<", v) }
}

// FieldLTE returns a predicate that checks if the field is less than or equal to v.
func FieldLTE(name string, v any) func(*Query) {
	return func(q *Query) { q.Where(name, "<=", v) }
}

// FieldIn returns a predicate that checks if the field value is in vs.
func FieldIn[T any](name string, vs ...T) func(*Query) {
	return func(q *Query) { q.WhereIn(name, anySlice(vs)...) }
}

// FieldNotIn returns a predicate that checks if the field value is not in vs.
func FieldNotIn[T any](name string, vs ...T) func(*Query) {
	return func(q *Query) { q.WhereNotIn(name, anySlice(vs)...) }
}

// FieldIsNull returns a predicate that checks if the field is NULL.
func FieldIsNull(name string) func(*Query) {
	return func(q *Query) { q.WhereNull(name) }
}

// FieldNotNull returns a predicate that checks if the field is not NULL.
func FieldNotNull(name string) func(*Query) {
	return func(q *Query) { q.WhereNotNull(name) }
}

// FieldContains returns a predicate that checks if the field contains the substring.
func FieldContains(name, sub string) func(*Query) {
	return func(q *Query) { q.Where(name, "LIKE", "%"+sub+"%") }
}

// FieldHasPrefix returns a predicate that checks if the field has the prefix.
func FieldHasPrefix(name, prefix string) func(*Query) {
	return func(q *Query) { q.Where(name, "LIKE", prefix+"%") }
}

// FieldHasSuffix returns a predicate that checks if the field has the suffix.
func FieldHasSuffix(name, suffix string) func(*Query) {
	return func(q *Query) { q.Where(name, "LIKE", "%"+suffix) }
}

// FieldContainsFold returns a predicate that checks if the field contains
// the substring, ignoring case.
func FieldContainsFold(name, sub string) func(*Query) {
	return func(q *Query) {
		q.WhereRaw("LOWER("+quoteIdent(q.Dialect(), name)+") LIKE ?", "%"+strings.ToLower(sub)+"%")
	}
}

// FieldEqualFold returns a predicate that checks if the field equals v, ignoring case.
func FieldEqualFold(name, v string) func(*Query) {
	return func(q *Query) {
		q.WhereRaw("LOWER("+quoteIdent(q.Dialect(), name)+") = ?", strings.ToLower(v))
	}
}

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i := range vs {
		out[i] = vs[i]
	}
	return out
}

// AllOf groups the predicates in parentheses, and-ed together.
func AllOf[P PredicateFunc](preds ...P) P {
	return P(func(q *Query) {
		q.WhereNested(func(q *Query) {
			for _, p := range preds {
				p(q)
			}
		})
	})
}

// AnyOf groups the predicates in parentheses, or-ed together.
func AnyOf[P PredicateFunc](preds ...P) P {
	return P(func(q *Query) {
		q.WhereNested(func(q *Query) {
			for i, p := range preds {
				sub := &Query{grammar: q.grammar}
				p(sub)
				q.errs = append(q.errs, sub.errs...)
				conj := Or
				if i == 0 {
					conj = And
				}
				q.wheres = append(q.wheres, WhereNested{Conjunction: conj, Wheres: sub.wheres})
			}
		})
	})
}

// OrderedField is a generic field of a comparable and ordered type that
// provides type-safe predicate methods.
//
//	var Age = sql.IntField[sql.Predicate]("age")
//	q.Filter(Age.GTE(18), Age.LT(65))
type OrderedField[P PredicateFunc, T any] string

// Name returns the field name.
func (f OrderedField[P, T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f OrderedField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f OrderedField[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), v)) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f OrderedField[P, T]) GT(v T) P { return P(FieldGT(string(f), v)) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f OrderedField[P, T]) GTE(v T) P { return P(FieldGTE(string(f), v)) }

// LT returns a predicate that checks if the field is less than the given value.
func (f OrderedField[P, T]) LT(v T) P { return P(FieldLT(string(f), v)) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f OrderedField[P, T]) LTE(v T) P { return P(FieldLTE(string(f), v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f OrderedField[P, T]) In(vs ...T) P { return P(FieldIn(string(f), vs...)) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f OrderedField[P, T]) NotIn(vs ...T) P { return P(FieldNotIn(string(f), vs...)) }

// IsNull returns a predicate that checks if the field is NULL.
func (f OrderedField[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f OrderedField[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }

type (
	// IntField is a generic int field.
	IntField[P PredicateFunc] = OrderedField[P, int]
	// Int64Field is a generic int64 field.
	Int64Field[P PredicateFunc] = OrderedField[P, int64]
	// Float64Field is a generic float64 field.
	Float64Field[P PredicateFunc] = OrderedField[P, float64]
	// TimeField is a generic time field.
	TimeField[P PredicateFunc] = OrderedField[P, time.Time]
	// UUIDField is a generic UUID field.
	UUIDField[P PredicateFunc] = OrderedField[P, uuid.UUID]
)

// StringField is a generic string field that provides type-safe predicate methods.
//
//	var Email = sql.StringField[sql.Predicate]("email")
//	q.Filter(Email.HasSuffix("@example.com"))
type StringField[P PredicateFunc] string

func (f StringField[P]) ordered() OrderedField[P, string] { return OrderedField[P, string](f) }

// Name returns the field name.
func (f StringField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField[P]) EQ(v string) P { return f.ordered().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField[P]) NEQ(v string) P { return f.ordered().NEQ(v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField[P]) GT(v string) P { return f.ordered().GT(v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f StringField[P]) GTE(v string) P { return f.ordered().GTE(v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField[P]) LT(v string) P { return f.ordered().LT(v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f StringField[P]) LTE(v string) P { return f.ordered().LTE(v) }

// In returns a predicate that checks if the field value is in the given list.
func (f StringField[P]) In(vs ...string) P { return f.ordered().In(vs...) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f StringField[P]) NotIn(vs ...string) P { return f.ordered().NotIn(vs...) }

// IsNull returns a predicate that checks if the field is NULL.
func (f StringField[P]) IsNull() P { return f.ordered().IsNull() }

// NotNull returns a predicate that checks if the field is not NULL.
func (f StringField[P]) NotNull() P { return f.ordered().NotNull() }

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField[P]) Contains(v string) P { return P(FieldContains(string(f), v)) }

// ContainsFold returns a predicate that checks if the field contains the given substring (case-insensitive).
func (f StringField[P]) ContainsFold(v string) P { return P(FieldContainsFold(string(f), v)) }

// HasPrefix returns a predicate that checks if the field has the given prefix.
func (f StringField[P]) HasPrefix(v string) P { return P(FieldHasPrefix(string(f), v)) }

// HasSuffix returns a predicate that checks if the field has the given suffix.
func (f StringField[P]) HasSuffix(v string) P { return P(FieldHasSuffix(string(f), v)) }

// EqualFold returns a predicate that checks if the field equals the given value (case-insensitive).
func (f StringField[P]) EqualFold(v string) P { return P(FieldEqualFold(string(f), v)) }

// BoolField is a generic bool field that provides type-safe predicate methods.
type BoolField[P PredicateFunc] string

// Name returns the field name.
func (f BoolField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f BoolField[P]) EQ(v bool) P { return P(FieldEQ(string(f), v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f BoolField[P]) NEQ(v bool) P { return P(FieldNEQ(string(f), v)) }

// IsNull returns a predicate that checks if the field is NULL.
func (f BoolField[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f BoolField[P]) NotNull() P { return P(FieldNotNull(string(f))) }
