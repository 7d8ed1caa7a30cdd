// Package field provides fluent builders for declaring the fields of an
// entity schema. The descriptors are the input of the schema synchronizer:
// each field becomes one column of the entity table.
//
//	field.Int64("id").PrimaryKey()   // id bigint NOT NULL PRIMARY KEY (auto-increment)
//	field.String("email").Unique()   // email varchar(255) NOT NULL UNIQUE
//
// # Field Types
//
//	field.String("name")         // varchar, size set with MaxLen
//	field.Text("description")    // text
//	field.Int("count")           // integer
//	field.Int64("big_number")    // bigint
//	field.Float64("price")       // double precision
//	field.Bool("is_active")      // boolean
//	field.Time("created_at")     // timestamp
//	field.UUID("id")             // uuid, char(36) where there is no native type
//	field.JSON("metadata")       // json
//	field.Bytes("data")          // blob / bytea
//	field.Enum("status").Values("pending", "active")
//
// # Nullability
//
// API input requirements are separated from database nullability:
//
//	// Optional: Not required in input, NOT NULL in DB
//	field.String("role").Optional().Default("user")
//
//	// Nillable: Nullable in DB
//	field.String("nickname").Nillable()
//
//	// Both: Optional input, nullable DB
//	field.String("bio").Optional().Nillable()
//
// # Defaults
//
// Literal defaults are part of the column definition. Function defaults are
// evaluated by the caller, except time.Now which maps to CURRENT_TIMESTAMP:
//
//	field.String("status").Default("active")
//	field.Int64("count").Default(0)
//	field.Time("created_at").Default(time.Now)
//	field.UUID("id").Default(uuid.New)
//
// # Custom Schema Types
//
//	field.Float64("amount").
//	    SchemaType(map[string]string{
//	        dialect.Postgres: "decimal(10,2)",
//	    })
package field
