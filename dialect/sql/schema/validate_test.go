package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/schema/field"
)

func TestValidateDiff(t *testing.T) {
	users := usersTable("id", "name").
		AddColumn(&Column{Name: "age", Type: field.TypeInt}).
		AddColumn(&Column{Name: "score", Type: field.TypeInt, Default: 0}).
		AddColumn(&Column{Name: "email", Type: field.TypeString, Nullable: true, Unique: true})

	t.Run("drops", func(t *testing.T) {
		diffs := []Diff{{Table: "users", Drops: []string{"legacy"}}}
		r := ValidateDiff([]*Table{users}, diffs)
		require.Len(t, r.Errors, 1)
		assert.True(t, r.Breaking())
		assert.True(t, r.Blocks(false))
		assert.Equal(t, "users.legacy: column will be dropped [BREAKING]", r.Errors[0].Error())

		r = ValidateDiff([]*Table{users}, diffs, AllowDropColumn())
		assert.Empty(t, r.Errors)
		assert.Len(t, r.Warnings, 1)
		assert.True(t, r.Breaking())
		assert.False(t, r.Blocks(false))
		assert.True(t, r.Blocks(true), "warnings block in strict mode")
	})

	t.Run("adds", func(t *testing.T) {
		diffs := []Diff{{Table: "users", Adds: []string{"age", "score", "email"}}}
		r := ValidateDiff([]*Table{users}, diffs)
		assert.Empty(t, r.Errors)
		assert.False(t, r.Breaking())
		require.Len(t, r.Warnings, 2)
		assert.Equal(t, "age", r.Warnings[0].Column)
		assert.Contains(t, r.Warnings[1].Message, "UNIQUE")

		r = ValidateDiff([]*Table{users}, diffs, RequireAddDefaults())
		require.Len(t, r.Errors, 1)
		assert.Equal(t, "users.age: new NOT NULL column requires a default value", r.Errors[0].Error())
	})

	t.Run("primary key", func(t *testing.T) {
		r := ValidateDiff([]*Table{users}, []Diff{{Table: "users", Adds: []string{"id"}}})
		require.Len(t, r.Errors, 1)
		assert.Equal(t, "users.id: primary key columns cannot be added to an existing table [BREAKING]", r.Errors[0].Error())
	})

	t.Run("undeclared", func(t *testing.T) {
		r := ValidateDiff([]*Table{users}, []Diff{
			{Table: "pets", Adds: []string{"name"}},
			{Table: "users", Adds: []string{"nickname"}},
		})
		assert.Len(t, r.Errors, 2)
	})
}

func TestValidateSchema(t *testing.T) {
	pets := NewTable("pets").
		AddColumn(&Column{Name: "name", Type: field.TypeString}).
		AddColumn(&Column{Name: "name", Type: field.TypeString}).
		AddColumn(&Column{Name: "owner_id", Type: field.TypeInt, References: &sql.ForeignKey{Table: "owners"}}).
		AddColumn(&Column{Name: "kind"}).
		AddIndex("", false, "name").
		AddIndex("pets_name", true, "name").
		AddIndex("pets_age", false, "age")
	r := ValidateSchema([]*Table{usersTable("id", "name"), pets, usersTable("id")})

	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	assert.ElementsMatch(t, []string{
		"users: duplicate table name",
		"pets.name: duplicate column name",
		"pets.kind: column has no type",
		"pets: duplicate index name: pets_name",
		`pets: index "pets_age" references non-existent column "age"`,
		`pets.owner_id: foreign key references non-existent table "owners"`,
	}, msgs)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "pets: table has no primary key", r.Warnings[0].Error())

	empty := ValidateTable(NewTable(""))
	assert.Len(t, empty.Errors, 2)
}

func TestReportString(t *testing.T) {
	assert.Equal(t, "no findings", (&Report{}).String())
	r := &Report{
		Errors:   []*Finding{{Table: "users", Column: "legacy", Message: "column will be dropped", Breaking: true}},
		Warnings: []*Finding{{Table: "users", Message: "table has no primary key"}},
	}
	assert.Equal(t, "error: users.legacy: column will be dropped [BREAKING]\nwarning: users: table has no primary key", r.String())
}
