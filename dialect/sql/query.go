package sql

import (
	"fmt"
	"time"

	"github.com/syssam/quarry/dialect"
)

// Query is a fluent, mutable query builder. Configuration methods mutate
// the query and return it for chaining; a Query is owned by one goroutine.
// Use Copy to diverge two queries from a shared prefix.
//
//	rows, err := sql.Table(drv, "users").
//		Select("id", "name").
//		Where("age", ">", 30).
//		OrderBy("name").
//		Get(ctx)
type Query struct {
	conn    dialect.ExecQuerier
	grammar Grammar

	table    string
	alias    string
	columns  []string
	distinct bool
	joins    []*JoinClause
	wheres   []Where
	groups   []string
	havings  []Where
	orders   []Order
	limit    *int
	offset   *int
	lock     *Lock
	key      string

	cache    Cache
	cacheTTL time.Duration

	errs []error
}

// NewQuery returns a query executed on conn and compiled for the dialect.
func NewQuery(conn dialect.ExecQuerier, d Dialect) *Query {
	return &Query{conn: conn, grammar: NewGrammar(d), key: "id"}
}

// Table returns a query on the given table, compiled for the dialect of
// the driver.
func Table(drv dialect.Driver, name string) *Query {
	return NewQuery(drv, DialectOf(drv.Dialect())).Table(name)
}

// Dialect returns the dialect the query is compiled for.
func (q *Query) Dialect() Dialect { return q.grammar.Dialect }

// Table sets the target table.
func (q *Query) Table(name string) *Query {
	q.table = name
	return q
}

// As sets the alias of the target table.
func (q *Query) As(alias string) *Query {
	q.alias = alias
	return q
}

// Select sets the projected columns. No columns select "*".
func (q *Query) Select(columns ...string) *Query {
	q.columns = columns
	return q
}

// AppendSelect adds columns to the projection.
func (q *Query) AppendSelect(columns ...string) *Query {
	q.columns = append(q.columns, columns...)
	return q
}

// Distinct makes the query return distinct rows.
func (q *Query) Distinct() *Query {
	q.distinct = true
	return q
}

// PrimaryKey sets the key column used to re-select rows returned by
// InsertReturn on dialects without RETURNING. Defaults to "id".
func (q *Query) PrimaryKey(column string) *Query {
	q.key = column
	return q
}

// Where adds a comparison of column and v, and-ed with the previous predicate.
func (q *Query) Where(column, op string, v any) *Query {
	q.wheres = append(q.wheres, WhereValue{Conjunction: And, Column: column, Op: op, Value: v})
	return q
}

// OrWhere adds a comparison of column and v, or-ed with the previous predicate.
func (q *Query) OrWhere(column, op string, v any) *Query {
	q.wheres = append(q.wheres, WhereValue{Conjunction: Or, Column: column, Op: op, Value: v})
	return q
}

// WhereColumn adds a comparison of two columns.
func (q *Query) WhereColumn(left, op, right string) *Query {
	q.wheres = append(q.wheres, WhereColumn{Conjunction: And, Left: left, Op: op, Right: right})
	return q
}

// WhereNull adds a "column IS NULL" predicate.
func (q *Query) WhereNull(column string) *Query {
	return q.Where(column, "IS", nil)
}

// WhereNotNull adds a "column IS NOT NULL" predicate.
func (q *Query) WhereNotNull(column string) *Query {
	return q.Where(column, "IS NOT", nil)
}

// WhereIn adds an IN predicate. An empty list never matches.
func (q *Query) WhereIn(column string, vs ...any) *Query {
	q.wheres = append(q.wheres, WhereIn{Conjunction: And, Column: column, Values: vs})
	return q
}

// OrWhereIn adds an IN predicate, or-ed with the previous predicate.
func (q *Query) OrWhereIn(column string, vs ...any) *Query {
	q.wheres = append(q.wheres, WhereIn{Conjunction: Or, Column: column, Values: vs})
	return q
}

// WhereNotIn adds a NOT IN predicate. An empty list always matches.
func (q *Query) WhereNotIn(column string, vs ...any) *Query {
	q.wheres = append(q.wheres, WhereIn{Conjunction: And, Column: column, Values: vs, Not: true})
	return q
}

// OrWhereNotIn adds a NOT IN predicate, or-ed with the previous predicate.
func (q *Query) OrWhereNotIn(column string, vs ...any) *Query {
	q.wheres = append(q.wheres, WhereIn{Conjunction: Or, Column: column, Values: vs, Not: true})
	return q
}

// WhereRaw adds a raw SQL predicate. Every ? in the text binds one of args.
func (q *Query) WhereRaw(sql string, args ...any) *Query {
	q.wheres = append(q.wheres, WhereRaw{Conjunction: And, SQL: sql, Args: args})
	return q
}

// OrWhereRaw adds a raw SQL predicate, or-ed with the previous predicate.
func (q *Query) OrWhereRaw(sql string, args ...any) *Query {
	q.wheres = append(q.wheres, WhereRaw{Conjunction: Or, SQL: sql, Args: args})
	return q
}

// WhereNested adds a parenthesized group of the predicates added by fn.
//
//	q.Where("active", "=", true).WhereNested(func(q *sql.Query) {
//		q.Where("role", "=", "admin").OrWhere("role", "=", "owner")
//	})
func (q *Query) WhereNested(fn func(*Query)) *Query {
	return q.nested(And, fn)
}

// OrWhereNested adds a parenthesized group, or-ed with the previous predicate.
func (q *Query) OrWhereNested(fn func(*Query)) *Query {
	return q.nested(Or, fn)
}

func (q *Query) nested(conj Conjunction, fn func(*Query)) *Query {
	sub := &Query{grammar: q.grammar}
	fn(sub)
	q.errs = append(q.errs, sub.errs...)
	q.wheres = append(q.wheres, WhereNested{Conjunction: conj, Wheres: sub.wheres})
	return q
}

// Filter applies the predicates to the query.
func (q *Query) Filter(preds ...Predicate) *Query {
	for _, p := range preds {
		p(q)
	}
	return q
}

// Join adds an INNER JOIN on "left op right".
func (q *Query) Join(table, left, op, right string) *Query {
	return q.JoinOn(JoinInner, table, func(j *JoinClause) { j.On(left, op, right) })
}

// LeftJoin adds a LEFT JOIN on "left op right".
func (q *Query) LeftJoin(table, left, op, right string) *Query {
	return q.JoinOn(JoinLeft, table, func(j *JoinClause) { j.On(left, op, right) })
}

// RightJoin adds a RIGHT JOIN on "left op right".
func (q *Query) RightJoin(table, left, op, right string) *Query {
	return q.JoinOn(JoinRight, table, func(j *JoinClause) { j.On(left, op, right) })
}

// CrossJoin adds a CROSS JOIN.
func (q *Query) CrossJoin(table string) *Query {
	return q.JoinOn(JoinCross, table, nil)
}

// JoinOn adds a join of the given kind configured by fn.
//
//	q.JoinOn(sql.JoinLeft, "posts", func(j *sql.JoinClause) {
//		j.On("users.id", "=", "posts.author_id").Where("posts.published", "=", true)
//	})
func (q *Query) JoinOn(kind JoinKind, table string, fn func(*JoinClause)) *Query {
	j := &JoinClause{Kind: kind, Table: table}
	if fn != nil {
		fn(j)
	}
	q.joins = append(q.joins, j)
	return q
}

// GroupBy sets the GROUP BY columns.
func (q *Query) GroupBy(columns ...string) *Query {
	q.groups = append(q.groups, columns...)
	return q
}

// Having adds an aggregate predicate, and-ed with the previous one.
func (q *Query) Having(column, op string, v any) *Query {
	q.havings = append(q.havings, WhereValue{Conjunction: And, Column: column, Op: op, Value: v})
	return q
}

// OrHaving adds an aggregate predicate, or-ed with the previous one.
func (q *Query) OrHaving(column, op string, v any) *Query {
	q.havings = append(q.havings, WhereValue{Conjunction: Or, Column: column, Op: op, Value: v})
	return q
}

// OrderBy adds ascending ORDER BY terms.
func (q *Query) OrderBy(columns ...string) *Query {
	for _, c := range columns {
		q.orders = append(q.orders, Order{Column: c})
	}
	return q
}

// OrderByDesc adds descending ORDER BY terms.
func (q *Query) OrderByDesc(columns ...string) *Query {
	for _, c := range columns {
		q.orders = append(q.orders, Order{Column: c, Desc: true})
	}
	return q
}

// Limit sets the LIMIT of the query.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		q.errs = append(q.errs, fmt.Errorf("dialect/sql: negative limit %d", n))
		return q
	}
	q.limit = &n
	return q
}

// Offset sets the OFFSET of the query.
func (q *Query) Offset(n int) *Query {
	if n < 0 {
		q.errs = append(q.errs, fmt.Errorf("dialect/sql: negative offset %d", n))
		return q
	}
	q.offset = &n
	return q
}

// Page sets the offset and limit of the 1-indexed page n.
func (q *Query) Page(n, size int) *Query {
	if n < 1 || size < 1 {
		q.errs = append(q.errs, fmt.Errorf("dialect/sql: invalid page %d of size %d", n, size))
		return q
	}
	return q.Offset((n - 1) * size).Limit(size)
}

// ForUpdate locks the selected rows for update.
func (q *Query) ForUpdate(opts ...LockOption) *Query {
	return q.Lock(LockUpdate, opts...)
}

// ForShare locks the selected rows in share mode.
func (q *Query) ForShare(opts ...LockOption) *Query {
	return q.Lock(LockShare, opts...)
}

// Lock sets the row lock of the query.
func (q *Query) Lock(s LockStrength, opts ...LockOption) *Query {
	l := &Lock{Strength: s}
	if len(opts) > 0 {
		l.Option = opts[len(opts)-1]
	}
	q.lock = l
	return q
}

// Cache serves Get from c, keeping results for ttl. Writes through the
// query invalidate the cached results of its table.
func (q *Query) Cache(c Cache, ttl time.Duration) *Query {
	q.cache, q.cacheTTL = c, ttl
	return q
}

// AddError records a build error returned by the terminal operations.
func (q *Query) AddError(err error) *Query {
	if err != nil {
		q.errs = append(q.errs, err)
	}
	return q
}

// Copy returns a deep copy of the query. The copy shares the connection
// but no mutable state with q.
func (q *Query) Copy() *Query {
	c := *q
	c.columns = append([]string(nil), q.columns...)
	c.wheres = append([]Where(nil), q.wheres...)
	c.groups = append([]string(nil), q.groups...)
	c.havings = append([]Where(nil), q.havings...)
	c.orders = append([]Order(nil), q.orders...)
	c.errs = append([]error(nil), q.errs...)
	c.joins = make([]*JoinClause, len(q.joins))
	for i, j := range q.joins {
		c.joins[i] = j.clone()
	}
	if q.limit != nil {
		n := *q.limit
		c.limit = &n
	}
	if q.offset != nil {
		n := *q.offset
		c.offset = &n
	}
	if q.lock != nil {
		l := *q.lock
		c.lock = &l
	}
	return &c
}

// SQL compiles the SELECT statement of the query without executing it.
// The text uses the placeholder style of the dialect.
func (q *Query) SQL() (string, []any, error) {
	f, err := q.grammar.Select(q)
	if err != nil {
		return "", nil, err
	}
	return f.Query(q.grammar.Dialect)
}
