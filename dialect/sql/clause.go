package sql

import (
	"fmt"
	"strings"
)

// Conjunction tags how a clause combines with the previous clause in its list.
type Conjunction string

// Conjunctions.
const (
	And Conjunction = "AND"
	Or  Conjunction = "OR"
)

// Conj returns the conjunction. It is promoted to every clause type.
func (c Conjunction) Conj() Conjunction {
	if c == "" {
		return And
	}
	return c
}

// Where is a node of a WHERE, HAVING or JOIN ... ON predicate list.
// Implementations: WhereValue, WhereColumn, WhereIn, WhereRaw and WhereNested.
type Where interface {
	Conj() Conjunction
	render(*Builder)
}

type (
	// WhereValue compares a column with a bound value.
	WhereValue struct {
		Conjunction
		Column string
		Op     string
		Value  any
	}

	// WhereColumn compares two columns. It is the leaf of JOIN ... ON lists.
	WhereColumn struct {
		Conjunction
		Left  string
		Op    string
		Right string
	}

	// WhereIn tests a column against a list of values. An empty list never
	// matches (or always matches, for NOT IN).
	WhereIn struct {
		Conjunction
		Column string
		Values []any
		Not    bool
	}

	// WhereRaw is a raw SQL predicate with its own bound values.
	WhereRaw struct {
		Conjunction
		SQL  string
		Args []any
	}

	// WhereNested is a parenthesized predicate list.
	WhereNested struct {
		Conjunction
		Wheres []Where
	}
)

var operators = map[string]bool{
	"=": true, "<>": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "NOT LIKE": true, "ILIKE": true, "IS": true, "IS NOT": true,
}

// checkOp normalizes and validates a comparison operator.
func checkOp(op string) (string, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if !operators[norm] {
		return "", fmt.Errorf("dialect/sql: unsupported operator %q", op)
	}
	return norm, nil
}

func (w WhereValue) render(b *Builder) {
	op, err := checkOp(w.Op)
	if err != nil {
		b.AddError(err)
		op = w.Op
	}
	b.Ident(w.Column).Pad().WriteString(op).Pad()
	if w.Value == nil && (op == "IS" || op == "IS NOT") {
		b.WriteString("NULL")
		return
	}
	b.Arg(w.Value)
}

func (w WhereColumn) render(b *Builder) {
	op, err := checkOp(w.Op)
	if err != nil {
		b.AddError(err)
		op = w.Op
	}
	b.Ident(w.Left).Pad().WriteString(op).Pad().Ident(w.Right)
}

func (w WhereIn) render(b *Builder) {
	if len(w.Values) == 0 {
		if w.Not {
			b.WriteString("1 = 1")
		} else {
			b.WriteString("1 = 0")
		}
		return
	}
	b.Ident(w.Column)
	if w.Not {
		b.WriteString(" NOT")
	}
	b.WriteString(" IN ").Wrap(func(b *Builder) {
		b.Args(w.Values...)
	})
}

func (w WhereRaw) render(b *Builder) {
	f := Fragment{text: w.SQL}
	for _, a := range w.Args {
		v, err := ValueOf(a)
		if err != nil {
			b.AddError(err)
			v = Null{}
		}
		f.args = append(f.args, v)
	}
	b.AddError(f.ValidateFor(b.dialect))
	b.Join(f)
}

func (w WhereNested) render(b *Builder) {
	if len(w.Wheres) == 0 {
		b.WriteString("1 = 1")
		return
	}
	b.Wrap(func(b *Builder) {
		renderWheres(b, w.Wheres)
	})
}

// renderWheres writes the clause list. Every clause renders as its
// conjunction followed by its text; the conjunction of the first clause
// is dropped.
func renderWheres(b *Builder, ws []Where) {
	for i, w := range ws {
		if i > 0 {
			b.Pad().WriteString(string(w.Conj())).Pad()
		}
		w.render(b)
	}
}

// JoinKind is the kind of a join.
type JoinKind string

// Join kinds.
const (
	JoinInner JoinKind = "INNER JOIN"
	JoinLeft  JoinKind = "LEFT JOIN"
	JoinRight JoinKind = "RIGHT JOIN"
	JoinCross JoinKind = "CROSS JOIN"
)

// JoinClause describes a joined table, its ON predicate list and the
// joins nested under it.
type JoinClause struct {
	Kind  JoinKind
	Table string
	Ons   []Where
	Joins []*JoinClause
}

// On adds a column comparison to the ON list.
func (j *JoinClause) On(left, op, right string) *JoinClause {
	j.Ons = append(j.Ons, WhereColumn{Conjunction: And, Left: left, Op: op, Right: right})
	return j
}

// OrOn adds a column comparison to the ON list, or-ed with the previous one.
func (j *JoinClause) OrOn(left, op, right string) *JoinClause {
	j.Ons = append(j.Ons, WhereColumn{Conjunction: Or, Left: left, Op: op, Right: right})
	return j
}

// Where adds a value comparison to the ON list.
func (j *JoinClause) Where(column, op string, v any) *JoinClause {
	j.Ons = append(j.Ons, WhereValue{Conjunction: And, Column: column, Op: op, Value: v})
	return j
}

// Join nests a join under this one.
func (j *JoinClause) Join(kind JoinKind, table string, fn func(*JoinClause)) *JoinClause {
	nj := &JoinClause{Kind: kind, Table: table}
	if fn != nil {
		fn(nj)
	}
	j.Joins = append(j.Joins, nj)
	return j
}

func (j *JoinClause) clone() *JoinClause {
	c := &JoinClause{
		Kind:  j.Kind,
		Table: j.Table,
		Ons:   append([]Where(nil), j.Ons...),
	}
	for _, n := range j.Joins {
		c.Joins = append(c.Joins, n.clone())
	}
	return c
}

func (j *JoinClause) render(b *Builder) {
	kind := j.Kind
	if kind == "" {
		kind = JoinInner
	}
	b.WriteString(string(kind)).Pad().Ident(j.Table)
	if len(j.Ons) > 0 && kind != JoinCross {
		b.WriteString(" ON ")
		renderWheres(b, j.Ons)
	}
	for _, n := range j.Joins {
		b.Pad()
		n.render(b)
	}
}

// Order is an ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// LockStrength is the row-lock strength of a SELECT.
type LockStrength string

// Lock strengths.
const (
	LockUpdate LockStrength = "UPDATE"
	LockShare  LockStrength = "SHARE"
)

// LockOption alters the waiting behavior of a row lock.
type LockOption string

// Lock options.
const (
	LockNoWait     LockOption = "NOWAIT"
	LockSkipLocked LockOption = "SKIP LOCKED"
)

// Lock is the row-lock descriptor of a SELECT.
type Lock struct {
	Strength LockStrength
	Option   LockOption
}

// Assignment is a SET term of an UPDATE statement.
type Assignment struct {
	Column string
	Value  any
}

// Set returns an assignment of v to column.
func Set(column string, v any) Assignment {
	return Assignment{Column: column, Value: v}
}
