package sql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/syssam/quarry/dialect"
)

// Get executes the SELECT statement of the query and returns all rows.
func (q *Query) Get(ctx context.Context) ([]Row, error) {
	f, err := q.grammar.Select(q)
	if err != nil {
		return nil, err
	}
	return q.rows(ctx, f)
}

// rows runs a compiled SELECT of the query, through its cache if the
// query is cacheable.
func (q *Query) rows(ctx context.Context, f Fragment) ([]Row, error) {
	if q.cacheable() {
		return q.cachedRows(ctx, f)
	}
	return q.query(ctx, q.conn, f)
}

// First returns the first row of the query, or a *NotFoundError if the
// query yields no rows.
func (q *Query) First(ctx context.Context) (*Row, error) {
	rows, err := q.Copy().Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Table: q.table}
	}
	return &rows[0], nil
}

// Exist reports if the query yields at least one row.
func (q *Query) Exist(ctx context.Context) (bool, error) {
	_, err := q.First(ctx)
	switch {
	case IsNotFound(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Count returns the number of rows matching the query. An empty column
// counts all rows; on a distinct query, it counts the distinct rows of
// the selected columns.
func (q *Query) Count(ctx context.Context, column string) (int, error) {
	c := q.Copy()
	c.orders, c.limit, c.offset, c.lock = nil, nil, nil, nil
	var (
		f   Fragment
		err error
	)
	switch {
	case c.distinct && (column == "" || column == "*"):
		f, err = q.grammar.Select(c)
		if err == nil {
			b := NewBuilder(q.grammar.Dialect)
			b.WriteString("SELECT COUNT(*) FROM ").Wrap(func(b *Builder) { b.Join(f) }).WriteString(" AS ").Ident("t")
			f = b.Fragment()
		}
	default:
		expr := "*"
		if column != "" && column != "*" {
			expr = quoteIdent(q.grammar.Dialect, column)
		}
		if c.distinct {
			expr = "DISTINCT " + expr
			c.distinct = false
		}
		c.columns = []string{"COUNT(" + expr + ")"}
		f, err = q.grammar.Select(c)
	}
	if err != nil {
		return 0, err
	}
	rows, err := c.rows(ctx, f)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0].Values) == 0 {
		return 0, ErrCountNoRows
	}
	switch v := rows[0].Values[0].(type) {
	case Int:
		return int(v), nil
	case Double:
		return int(v), nil
	case String:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return 0, fmt.Errorf("dialect/sql: decoding count: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("dialect/sql: unexpected count value of kind %s", v.Kind())
	}
}

// Insert inserts the rows in one statement. No rows execute nothing.
func (q *Query) Insert(ctx context.Context, rows ...Values) error {
	f, err := q.grammar.Insert(q.table, rows)
	if err != nil || f.Empty() {
		return err
	}
	if _, err := q.exec(ctx, q.conn, f); err != nil {
		return err
	}
	return q.invalidate(ctx)
}

// InsertReturn inserts the rows and returns them as stored, in input
// order. On dialects without RETURNING, every row is inserted and
// re-selected inside one transaction; any failure rolls back all rows.
func (q *Query) InsertReturn(ctx context.Context, rows ...Values) ([]Row, error) {
	if q.table == "" {
		return nil, ErrTableRequired
	}
	stmts, err := q.grammar.InsertReturn(q.table, q.key, rows)
	if err != nil {
		return nil, err
	}
	return q.returning(ctx, stmts)
}

// Upsert inserts the rows, updating the non-conflict columns of rows that
// conflict on the given columns. If all columns are conflict columns,
// conflicting rows are left untouched.
func (q *Query) Upsert(ctx context.Context, rows []Values, conflict ...string) error {
	f, err := q.grammar.Upsert(q.table, rows, conflict)
	if err != nil || f.Empty() {
		return err
	}
	if _, err := q.exec(ctx, q.conn, f); err != nil {
		return err
	}
	return q.invalidate(ctx)
}

// UpsertReturn upserts the rows and returns them as stored. It follows
// the transactional fallback of InsertReturn.
func (q *Query) UpsertReturn(ctx context.Context, rows []Values, conflict ...string) ([]Row, error) {
	if q.table == "" {
		return nil, ErrTableRequired
	}
	stmts, err := q.grammar.UpsertReturn(q.table, rows, conflict)
	if err != nil {
		return nil, err
	}
	return q.returning(ctx, stmts)
}

// Update applies the assignments to the rows matching the query and
// returns the number of affected rows. No assignments execute nothing.
func (q *Query) Update(ctx context.Context, sets ...Assignment) (int64, error) {
	f, err := q.grammar.Update(q, sets)
	if err != nil || f.Empty() {
		return 0, err
	}
	n, err := q.exec(ctx, q.conn, f)
	if err != nil {
		return 0, err
	}
	return n, q.invalidate(ctx)
}

// Delete deletes the rows matching the query and returns their number.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	f, err := q.grammar.Delete(q)
	if err != nil {
		return 0, err
	}
	n, err := q.exec(ctx, q.conn, f)
	if err != nil {
		return 0, err
	}
	return n, q.invalidate(ctx)
}

// Chunk pages through the rows of the query, calling fn with every page
// of size rows. It stops after the first short page or when fn fails.
func (q *Query) Chunk(ctx context.Context, size int, fn func([]Row) error) error {
	if size < 1 {
		return fmt.Errorf("dialect/sql: invalid chunk size %d", size)
	}
	for page := 1; ; page++ {
		rows, err := q.Copy().Page(page, size).Get(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		if len(rows) < size {
			return nil
		}
	}
}

// returning executes statements compiled by InsertReturn or UpsertReturn.
// A single statement carries native RETURNING; otherwise, the statements
// are write/select pairs executed in one transaction.
func (q *Query) returning(ctx context.Context, stmts []Fragment) ([]Row, error) {
	switch {
	case len(stmts) == 0:
		return nil, nil
	case q.grammar.SupportsReturning():
		rows, err := q.query(ctx, q.conn, stmts[0])
		if err != nil {
			return nil, err
		}
		return rows, q.invalidate(ctx)
	}
	var out []Row
	err := q.inTx(ctx, func(tx dialect.ExecQuerier) error {
		for i := 0; i+1 < len(stmts); i += 2 {
			if _, err := q.exec(ctx, tx, stmts[i]); err != nil {
				return err
			}
			rows, err := q.query(ctx, tx, stmts[i+1])
			if err != nil {
				return err
			}
			if len(rows) != 1 {
				return fmt.Errorf("%w: row %d of %q matched %d rows", ErrReturningRow, i/2+1, q.table, len(rows))
			}
			out = append(out, rows[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, q.invalidate(ctx)
}

// inTx runs fn in a transaction. A query already bound to a transaction
// joins it; otherwise a transaction is started on the driver, committed
// if fn succeeds and rolled back if it fails.
func (q *Query) inTx(ctx context.Context, fn func(dialect.ExecQuerier) error) error {
	switch conn := q.conn.(type) {
	case dialect.Tx:
		return fn(conn)
	case dialect.Driver:
		tx, err := conn.Tx(ctx)
		if err != nil {
			return fmt.Errorf("dialect/sql: starting transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("dialect/sql: committing transaction: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("dialect/sql: %T cannot start a transaction", q.conn)
	}
}

func (q *Query) query(ctx context.Context, conn dialect.ExecQuerier, f Fragment) ([]Row, error) {
	if conn == nil {
		return nil, errors.New("dialect/sql: query has no connection")
	}
	text, args, err := f.Query(q.grammar.Dialect)
	if err != nil {
		return nil, err
	}
	var rows Rows
	if err := conn.Query(ctx, text, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanRows(rows)
}

func (q *Query) exec(ctx context.Context, conn dialect.ExecQuerier, f Fragment) (int64, error) {
	if conn == nil {
		return 0, errors.New("dialect/sql: query has no connection")
	}
	text, args, err := f.Query(q.grammar.Dialect)
	if err != nil {
		return 0, err
	}
	var res Result
	if err := conn.Exec(ctx, text, args, &res); err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	return n, nil
}
