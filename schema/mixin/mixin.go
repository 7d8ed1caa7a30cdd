package mixin

import (
	"time"

	"github.com/google/uuid"

	"github.com/syssam/quarry"
	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/schema/field"
	"github.com/syssam/quarry/schema/index"
)

// Schema is the default implementation for the quarry.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []quarry.Field { return nil }

// Indexes returns the indexes of the mixin.
func (Schema) Indexes() []quarry.Index { return nil }

var _ quarry.Mixin = (*Schema)(nil)

// ID adds a UUID primary key generated on create.
type ID struct{ Schema }

// Fields of the ID mixin.
func (ID) Fields() []quarry.Field {
	return []quarry.Field{
		field.UUID("id").
			Default(uuid.New).
			PrimaryKey().
			Immutable(),
	}
}

// CreateTime adds the created_at time field. The field is immutable and
// defaults to the current time.
type CreateTime struct{ Schema }

// Fields of the create time mixin.
func (CreateTime) Fields() []quarry.Field {
	return []quarry.Field{
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// UpdateTime adds the updated_at time field, set on create and update.
type UpdateTime struct{ Schema }

// Fields of the update time mixin.
func (UpdateTime) Fields() []quarry.Field {
	return []quarry.Field{
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Time composes create and update time mixins.
type Time struct{ Schema }

// Fields of the time mixin.
func (Time) Fields() []quarry.Field {
	return append(CreateTime{}.Fields(), UpdateTime{}.Fields()...)
}

// SoftDelete adds the nullable deleted_at field. Rows with a deleted_at
// value are considered deleted.
type SoftDelete struct{ Schema }

// Fields of the soft delete mixin.
func (SoftDelete) Fields() []quarry.Field {
	return []quarry.Field{
		field.Time("deleted_at").
			Optional().
			Nillable(),
	}
}

// Indexes of the soft delete mixin.
func (SoftDelete) Indexes() []quarry.Index {
	return []quarry.Index{
		index.Fields("deleted_at"),
	}
}

// TimeSoftDelete composes the time and soft delete mixins.
type TimeSoftDelete struct{ Schema }

// Fields of the time soft delete mixin.
func (TimeSoftDelete) Fields() []quarry.Field {
	return append(Time{}.Fields(), SoftDelete{}.Fields()...)
}

// Indexes of the time soft delete mixin.
func (TimeSoftDelete) Indexes() []quarry.Index {
	return SoftDelete{}.Indexes()
}

// TenantID adds the immutable tenant_id field and its index.
type TenantID struct{ Schema }

// Fields of the tenant mixin.
func (TenantID) Fields() []quarry.Field {
	return []quarry.Field{
		field.String("tenant_id").
			MaxLen(64).
			Immutable(),
	}
}

// Indexes of the tenant mixin.
func (TenantID) Indexes() []quarry.Index {
	return []quarry.Index{
		index.Fields("tenant_id"),
	}
}

var (
	_ quarry.Mixin = (*ID)(nil)
	_ quarry.Mixin = (*Time)(nil)
	_ quarry.Mixin = (*TimeSoftDelete)(nil)
	_ quarry.Mixin = (*TenantID)(nil)
)

// NotDeleted filters out the soft-deleted rows of a query on a table
// with the SoftDelete mixin.
//
//	rows, err := client.Query("users").Filter(mixin.NotDeleted).Get(ctx)
func NotDeleted(q *sql.Query) {
	q.WhereNull("deleted_at")
}

// ForTenant restricts a query on a table with the TenantID mixin to the
// rows of the given tenant.
func ForTenant(id string) sql.Predicate {
	return func(q *sql.Query) {
		q.Where("tenant_id", "=", id)
	}
}
