// Package sql compiles fluent query descriptions into parameterized SQL
// for PostgreSQL, MySQL and SQLite, and executes them through a
// dialect.Driver.
//
// # Queries
//
// A Query is a mutable builder owned by one goroutine. Configuration
// methods return the query for chaining and terminal operations compile
// and execute it:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//		return err
//	}
//	rows, err := sql.Table(drv, "users").
//		Select("id", "name").
//		Where("age", ">", 30).
//		WhereIn("role", "admin", "owner").
//		OrderByDesc("created_at").
//		Page(2, 20).
//		Get(ctx)
//
// Use Copy to branch two queries from a shared prefix. Build errors, such
// as an unknown operator or a negative limit, are collected and returned
// by the terminal operation; nothing is sent to the database.
//
// # Fragments
//
// Every statement is a Fragment: SQL text using ? placeholders plus the
// bound values in placeholder order. The Builder writes a placeholder
// and its value in the same call, and Fragment.Query renumbers the
// placeholders for dialects such as PostgreSQL ($1, $2, ...).
//
// # Dialects
//
// Dialect specific syntax lives behind the Dialect interface. Default
// implements every hook; Postgres, MySQL and SQLite embed it and override
// what differs: quoting, placeholders, column types, lock clauses,
// upsert syntax and introspection queries. The Grammar compiles queries
// and DDL against a Dialect.
//
// # RETURNING
//
// InsertReturn and UpsertReturn use RETURNING where the dialect supports
// it. MySQL gets an insert and a re-select per row, executed in a single
// transaction that is rolled back on any failure.
//
// # Predicates
//
// Generic field types build typed predicates:
//
//	var (
//		Age   = sql.IntField[sql.Predicate]("age")
//		Email = sql.StringField[sql.Predicate]("email")
//	)
//	q.Filter(Age.GTE(18), sql.AnyOf(Email.HasSuffix("@a.io"), Email.IsNull()))
//
// # Drivers
//
// Driver wraps a database/sql connection. NewDebugDriver logs statements
// with log/slog, and NewStatsDriver counts statements and reports slow ones.
package sql
