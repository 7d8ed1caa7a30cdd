// Package edge provides fluent builders for the relationships of an
// entity schema. An edge is stored as a foreign key column of the schema
// table referencing the key of another table.
//
//	func (Pet) Fields() []quarry.Field {
//		return []quarry.Field{
//			field.Int("id").PrimaryKey(),
//			field.Int("owner_id").Optional().Nillable(),
//		}
//	}
//
//	func (Pet) Edges() []quarry.Edge {
//		return []quarry.Edge{
//			edge.To("owner", "users").
//				Field("owner_id").
//				OnDelete(edge.SetNull),
//		}
//	}
//
// # Edge Fields
//
// The foreign key is held by a field of the schema. It defaults to the
// edge name followed by "_id":
//
//	edge.To("owner", "users")                  // owner_id -> users.id
//	edge.To("author", "users").Field("writer") // writer -> users.id
//	edge.To("team", "teams").Column("code")    // team_id -> teams.code
//
// # Foreign Key Actions
//
// Control what happens when referenced rows are deleted:
//
//   - edge.Cascade: Delete the referencing rows
//   - edge.SetNull: Set the foreign key to NULL
//   - edge.Restrict: Prevent the deletion
//   - edge.NoAction: Database default
//   - edge.SetDefault: Set the foreign key to its default value
package edge
