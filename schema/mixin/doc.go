// Package mixin provides reusable field sets for quarry schemas.
//
// Mixins are applied to schemas via the Mixin() method. Their fields are
// placed before the schema fields, in the order the mixins are listed:
//
//	type User struct{ quarry.Schema }
//
//	func (User) Mixin() []quarry.Mixin {
//		return []quarry.Mixin{
//			mixin.ID{},
//			mixin.Time{},
//		}
//	}
//
// The users table then starts with the columns:
//   - id (uuid, primary key)
//   - created_at (timestamp, immutable)
//   - updated_at (timestamp)
//
// Custom mixins embed Schema and override the methods they need:
//
//	type Audit struct{ mixin.Schema }
//
//	func (Audit) Fields() []quarry.Field {
//		return []quarry.Field{
//			field.String("created_by").Immutable(),
//			field.String("updated_by").Optional().Nillable(),
//		}
//	}
package mixin
