// Package quarry declares entity schemas and binds them to a database.
//
// An entity schema lists the fields, indexes and foreign keys of a table:
//
//	type User struct {
//		quarry.Schema
//	}
//
//	func (User) Fields() []quarry.Field {
//		return []quarry.Field{
//			field.Int("id").PrimaryKey(),
//			field.String("email").Unique(),
//			field.Int("age").Optional().Nillable(),
//		}
//	}
//
// A Client synchronizes the tables of the schemas and builds queries on
// its driver:
//
//	client, err := quarry.Open(dialect.Postgres, dsn)
//	if err != nil {
//		return err
//	}
//	if err := client.Sync(ctx, User{}); err != nil {
//		return err
//	}
//	rows, err := client.Query("users").Where("age", ">", 30).Get(ctx)
package quarry

import (
	"github.com/syssam/quarry/schema/edge"
	"github.com/syssam/quarry/schema/field"
	"github.com/syssam/quarry/schema/index"
)

type (
	// Interface is the interface for entity schemas.
	Interface interface {
		// Fields returns the fields of the schema.
		Fields() []Field
		// Indexes returns the indexes of the schema.
		Indexes() []Index
		// Edges returns the foreign keys of the schema.
		Edges() []Edge
		// Mixin returns an optional list of Mixin to extend the schema.
		Mixin() []Mixin
		// Config returns an optional config for the schema.
		Config() Config
	}

	// A Field interface returns a field descriptor for schema fields.
	// Implemented by the schema/field builders.
	Field interface {
		Descriptor() *field.Descriptor
	}

	// An Index interface returns an index descriptor for schema indexes.
	// Implemented by the schema/index builders.
	Index interface {
		Descriptor() *index.Descriptor
	}

	// An Edge interface returns an edge descriptor for schema foreign keys.
	// Implemented by the schema/edge builders.
	Edge interface {
		Descriptor() *edge.Descriptor
	}

	// A Mixin is a reusable set of fields and indexes that can be added
	// to a schema. Mixin fields are placed before the schema fields.
	Mixin interface {
		Fields() []Field
		Indexes() []Index
	}

	// Config holds the configuration of a schema.
	Config struct {
		// Table is the name of the table. Defaults to the snake-cased
		// plural of the schema type name.
		Table string
		// Comment describes the table in migration plans.
		Comment string
	}

	// Schema is the default implementation for the schema Interface.
	// It can be embedded in end-user schemas as follows:
	//
	//	type T struct {
	//		quarry.Schema
	//	}
	Schema struct{}
)

// Fields of the schema.
func (Schema) Fields() []Field { return nil }

// Indexes of the schema.
func (Schema) Indexes() []Index { return nil }

// Edges of the schema.
func (Schema) Edges() []Edge { return nil }

// Mixin of the schema.
func (Schema) Mixin() []Mixin { return nil }

// Config of the schema.
func (Schema) Config() Config { return Config{} }

var _ Interface = (*Schema)(nil)
