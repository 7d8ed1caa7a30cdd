package sql

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors returned by the query builder and its terminal operations.
var (
	// ErrTableRequired is returned when a terminal operation is invoked
	// on a query without a target table. No statement is sent to the driver.
	ErrTableRequired = errors.New("dialect/sql: table required")

	// ErrCountNoRows is returned when a COUNT query yields zero rows.
	// COUNT always returns exactly one row, so this is a database error
	// and not a "not found" condition.
	ErrCountNoRows = errors.New("dialect/sql: count query returned no rows")

	// ErrArgsMismatch is returned when the number of placeholders in a
	// statement does not match the number of its bound arguments.
	ErrArgsMismatch = errors.New("dialect/sql: placeholder and argument count mismatch")

	// ErrNotFound is returned by First when no row matches the query.
	ErrNotFound = errors.New("dialect/sql: row not found")

	// ErrReturningRow is returned by the RETURNING fallback when the
	// select following a write does not yield exactly one row, e.g. when
	// the key of a MySQL row is neither given nor generated.
	ErrReturningRow = errors.New("dialect/sql: written row not re-selected")
)

// NotFoundError is returned by First when the query yields no rows.
type NotFoundError struct {
	Table string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dialect/sql: %s: row not found", e.Table)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(err, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// UnsupportedError is returned when a dialect has no strategy for the
// requested feature, e.g. introspection on an unknown dialect or ALTER
// COLUMN on SQLite.
type UnsupportedError struct {
	Dialect string
	Feature string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("dialect/sql: %s is not supported by dialect %q", e.Feature, e.Dialect)
}

// IsUnsupported returns true if the error is an UnsupportedError.
func IsUnsupported(err error) bool {
	var e *UnsupportedError
	return errors.As(err, &e)
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild  = 1452 // Cannot add or update a child row
	mysqlCheckViolation   = 3819
	mysqlBadNull          = 1048
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return classify(err, constraintCodes{
		pg:     []string{pgUniqueViolation},
		mysql:  []uint16{mysqlDuplicateEntry},
		sqlite: []int{sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY},
		text: []string{
			"Error 1062",
			"violates unique constraint",
			"UNIQUE constraint failed",
		},
	})
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return classify(err, constraintCodes{
		pg:     []string{pgForeignKeyViolation},
		mysql:  []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		sqlite: []int{sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY},
		text: []string{
			"Error 1451",
			"Error 1452",
			"violates foreign key constraint",
			"FOREIGN KEY constraint failed",
		},
	})
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return classify(err, constraintCodes{
		pg:     []string{pgCheckViolation},
		mysql:  []uint16{mysqlCheckViolation},
		sqlite: []int{sqlite3.SQLITE_CONSTRAINT_CHECK},
		text: []string{
			"Error 3819",
			"violates check constraint",
			"CHECK constraint failed",
		},
	})
}

// IsNotNullConstraintError reports if the error resulted from writing NULL
// into a NOT NULL column.
func IsNotNullConstraintError(err error) bool {
	return classify(err, constraintCodes{
		pg:     []string{pgNotNullViolation},
		mysql:  []uint16{mysqlBadNull},
		sqlite: []int{sqlite3.SQLITE_CONSTRAINT_NOTNULL},
		text: []string{
			"Error 1048",
			"violates not-null constraint",
			"NOT NULL constraint failed",
		},
	})
}

type constraintCodes struct {
	pg     []string
	mysql  []uint16
	sqlite []int
	text   []string
}

// classify inspects the driver error types first and falls back to
// matching the error message for wrapped or foreign drivers. SQLite
// errors are matched by message too, in case extended result codes
// are disabled on the connection.
func classify(err error, codes constraintCodes) bool {
	if err == nil {
		return false
	}
	var (
		pqErr     *pq.Error
		mysqlErr  *mysql.MySQLError
		sqliteErr *sqlite.Error
	)
	switch {
	case errors.As(err, &pqErr):
		return slices.Contains(codes.pg, string(pqErr.Code))
	case errors.As(err, &mysqlErr):
		return slices.Contains(codes.mysql, mysqlErr.Number)
	case errors.As(err, &sqliteErr) && slices.Contains(codes.sqlite, sqliteErr.Code()):
		return true
	}
	msg := err.Error()
	for _, s := range codes.text {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
