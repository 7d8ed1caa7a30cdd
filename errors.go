package quarry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/dialect/sql/schema"
)

// ErrNotFound is returned by First when no row matches the query.
var ErrNotFound = sql.ErrNotFound

// IsNotFound returns a boolean indicating whether the error is a not
// found error.
func IsNotFound(err error) bool {
	return sql.IsNotFound(err)
}

// IsConstraintError returns true if the error resulted from a database
// constraint violation.
func IsConstraintError(err error) bool {
	return sql.IsConstraintError(err)
}

// ValidationError reports an invalid field, index or edge of a schema.
type ValidationError struct {
	Table string
	Field string // empty for table-level errors
	Err   error
}

// Name returns the table name, or "table.field" for field errors.
func (e *ValidationError) Name() string {
	if e.Field == "" {
		return e.Table
	}
	return e.Table + "." + e.Field
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("quarry: invalid schema %q: %s", e.Name(), e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError. The field is empty
// for errors of the table itself.
func NewValidationError(table, field string, err error) *ValidationError {
	return &ValidationError{Table: table, Field: field, Err: err}
}

// IsValidationError reports if the schemas were rejected, either when
// converted to tables or by the synchronizer.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e) || errors.Is(err, schema.ErrValidation)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("quarry: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError holds the errors collected while converting schemas.
type AggregateError struct {
	Errors []error
}

// Error lists the collected errors, one per line.
func (e *AggregateError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "quarry: no errors"
	case 1:
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "quarry: %d errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n\t")
		b.WriteString(strings.TrimPrefix(err.Error(), "quarry: "))
	}
	return b.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns nil if all errors are nil, the error itself
// if only one is not nil, and an AggregateError otherwise. Nested
// AggregateErrors are flattened.
func NewAggregateError(errs ...error) error {
	var flat []error
	for _, err := range errs {
		var agg *AggregateError
		switch {
		case err == nil:
		case errors.As(err, &agg):
			flat = append(flat, agg.Errors...)
		default:
			flat = append(flat, err)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &AggregateError{Errors: flat}
}
