package quarry_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry"
	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/dialect/sql/schema"
)

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("wrapper: %w", &sql.NotFoundError{Table: "users"})
	assert.True(t, quarry.IsNotFound(err))
	assert.True(t, errors.Is(err, quarry.ErrNotFound))
	assert.False(t, quarry.IsNotFound(errors.New("other error")))
	assert.False(t, quarry.IsNotFound(nil))
}

func TestConstraintError(t *testing.T) {
	assert.True(t, quarry.IsConstraintError(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, quarry.IsConstraintError(errors.New("other error")))
	assert.False(t, quarry.IsConstraintError(nil))
}

func TestValidationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := quarry.NewValidationError("users", "email", errors.New("invalid size 0"))
		assert.Equal(t, `quarry: invalid schema "users.email": invalid size 0`, err.Error())
		assert.Equal(t, "users.email", err.Name())
		assert.Equal(t, `quarry: invalid schema "users": no fields`, quarry.NewValidationError("users", "", errors.New("no fields")).Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		inner := errors.New("inner")
		err := quarry.NewValidationError("users", "", inner)
		assert.ErrorIs(t, err, inner)
	})

	t.Run("IsValidationError", func(t *testing.T) {
		err := quarry.NewValidationError("users", "", errors.New("x"))
		assert.True(t, quarry.IsValidationError(err))
		assert.True(t, quarry.IsValidationError(fmt.Errorf("%w: users: drop(a)", schema.ErrValidation)))
		assert.True(t, quarry.IsValidationError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, quarry.IsValidationError(errors.New("other error")))
		assert.False(t, quarry.IsValidationError(nil))
	})
}

func TestRollbackError(t *testing.T) {
	inner := errors.New("connection lost")
	err := &quarry.RollbackError{Err: inner}
	assert.Equal(t, "quarry: rollback failed: connection lost", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestAggregateError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, quarry.NewAggregateError())
		assert.NoError(t, quarry.NewAggregateError(nil, nil))
	})

	t.Run("single", func(t *testing.T) {
		err := errors.New("single")
		assert.Equal(t, err, quarry.NewAggregateError(nil, err))
	})

	t.Run("multiple", func(t *testing.T) {
		first, second := errors.New("first"), errors.New("second")
		err := quarry.NewAggregateError(first, nil, second)
		var agg *quarry.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Len(t, agg.Errors, 2)
		assert.Equal(t, "quarry: 2 errors:\n\tfirst\n\tsecond", err.Error())
		assert.ErrorIs(t, err, second)

		third := quarry.NewValidationError("users", "age", errors.New("invalid field type"))
		err = quarry.NewAggregateError(err, third)
		require.ErrorAs(t, err, &agg)
		assert.Len(t, agg.Errors, 3, "nested aggregates are flattened")
		assert.Equal(t, "quarry: 3 errors:\n\tfirst\n\tsecond\n\tinvalid schema \"users.age\": invalid field type", err.Error())
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "quarry: no errors", (&quarry.AggregateError{}).Error())
	})
}
