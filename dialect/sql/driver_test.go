package sql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry/dialect"
)

func TestDriverDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	tests := map[string]string{
		"postgres":        dialect.Postgres,
		"postgres-traced": dialect.Postgres,
		"pgx":             dialect.Postgres,
		"mysql":           dialect.MySQL,
		"sqlite":          dialect.SQLite,
		"sqlite3":         dialect.SQLite,
		"oracle":          "oracle",
	}
	for name, want := range tests {
		assert.Equal(t, want, OpenDB(name, db).Dialect(), name)
	}
	assert.Same(t, db, OpenDB(dialect.MySQL, db).DB())
	assert.IsType(t, MySQL{}, DialectOf(dialect.MySQL))
	assert.IsType(t, Default{}, DialectOf("oracle"))
}

func TestConnArgs(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE "users" SET "name" = $1 WHERE "id" = $2`).
		WithArgs("a8m", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	var res sql.Result
	require.NoError(t, drv.Exec(ctx, `UPDATE "users" SET "name" = $1 WHERE "id" = $2`, []Value{String("a8m"), Int(1)}, &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec(`DELETE FROM "users"`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(ctx, `DELETE FROM "users"`, nil, nil))

	mock.ExpectQuery(`SELECT * FROM "users" WHERE "id" = $1`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	var rows Rows
	require.NoError(t, drv.Query(ctx, `SELECT * FROM "users" WHERE "id" = $1`, []any{2}, &rows))
	decoded, err := ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.NoError(t, rows.Close())

	err = drv.Exec(ctx, "DELETE FROM users", map[string]any{}, nil)
	assert.EqualError(t, err, "dialect/sql: invalid type map[string]interface {}. expect []any or []Value for args")
	err = drv.Exec(ctx, "DELETE FROM users", nil, new(int))
	assert.EqualError(t, err, "dialect/sql: invalid type *int. expect *sql.Result")
	err = drv.Query(ctx, "SELECT 1", nil, new(int))
	assert.EqualError(t, err, "dialect/sql: invalid type *int. expect *sql.Rows")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNopTx(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	tx := dialect.NopTx(drv)
	mock.ExpectExec(`DELETE FROM "users"`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, tx.Exec(context.Background(), `DELETE FROM "users"`, []any{}, nil))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}
