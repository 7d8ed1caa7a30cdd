// Package dialect names the supported SQL dialects and declares the
// driver contract shared by the query compiler and the schema
// synchronizer.
//
// A dialect name selects how statements are rendered, not only which
// database/sql driver is opened:
//
//	dialect.Postgres  // "double quoted" identifiers, $1..$n placeholders, RETURNING
//	dialect.MySQL     // `backquoted` identifiers, ? placeholders, ON DUPLICATE KEY UPDATE
//	dialect.SQLite    // "double quoted" identifiers, ? placeholders, one ALTER action per statement
//
// Statements always reach a Driver fully rendered for its dialect.
// Exec scans a database/sql.Result into v and Query scans the rows:
//
//	var res stdsql.Result
//	err := drv.Exec(ctx, `DELETE FROM "users" WHERE "id" = $1`, []any{1}, &res)
//
// Drivers compose by wrapping: dialect/sql provides the database/sql
// implementation and the statistics and debug wrappers, each of which is
// itself a Driver.
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//		return err
//	}
//	logged := sql.NewDebugDriver(sql.NewStatsDriver(drv))
//
// NopTx adapts a Driver to the Tx interface for code paths that accept
// either a transaction or a plain connection.
package dialect
