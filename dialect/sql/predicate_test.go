package sql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userAge     = IntField[Predicate]("age")
	userName    = StringField[Predicate]("name")
	userActive  = BoolField[Predicate]("active")
	userCreated = TimeField[Predicate]("created_at")
	userTeam    = UUIDField[Predicate]("team_id")
	userScore   = Float64Field[Predicate]("score")
)

func TestPredicates(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	team := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name  string
		preds []Predicate
		want  string
		args  []any
	}{
		{
			name:  "ordered",
			preds: []Predicate{userAge.GTE(18), userAge.LT(65), userScore.NEQ(0.5)},
			want:  `SELECT * FROM "users" WHERE "age" >= $1 AND "age" < $2 AND "score" <> $3`,
			args:  []any{int64(18), int64(65), 0.5},
		},
		{
			name:  "string",
			preds: []Predicate{userName.HasPrefix("a"), userName.Contains("b"), userName.HasSuffix("c")},
			want:  `SELECT * FROM "users" WHERE "name" LIKE $1 AND "name" LIKE $2 AND "name" LIKE $3`,
			args:  []any{"a%", "%b%", "%c"},
		},
		{
			name:  "fold",
			preds: []Predicate{userName.EqualFold("Bob"), userName.ContainsFold("OB")},
			want:  `SELECT * FROM "users" WHERE LOWER("name") = $1 AND LOWER("name") LIKE $2`,
			args:  []any{"bob", "%ob%"},
		},
		{
			name:  "in",
			preds: []Predicate{userTeam.In(team), userName.NotIn("x", "y"), userAge.In()},
			want:  `SELECT * FROM "users" WHERE "team_id" IN ($1) AND "name" NOT IN ($2, $3) AND 1 = 0`,
			args:  []any{team.String(), "x", "y"},
		},
		{
			name:  "null",
			preds: []Predicate{userCreated.IsNull(), userActive.NotNull()},
			want:  `SELECT * FROM "users" WHERE "created_at" IS NULL AND "active" IS NOT NULL`,
			args:  []any{},
		},
		{
			name:  "any of",
			preds: []Predicate{AnyOf(userAge.LT(18), userAge.GT(65)), userActive.EQ(true)},
			want:  `SELECT * FROM "users" WHERE (("age" < $1) OR ("age" > $2)) AND "active" = $3`,
			args:  []any{int64(18), int64(65), true},
		},
		{
			name:  "all of",
			preds: []Predicate{AnyOf(AllOf(userActive.EQ(true), userCreated.GT(since)), userName.EQ("root"))},
			want:  `SELECT * FROM "users" WHERE ((("active" = $1 AND "created_at" > $2)) OR ("name" = $3))`,
			args:  []any{true, since, "root"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery(nil, Postgres{}).Table("users").Filter(tt.preds...)
			query, args, err := q.SQL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, tt.args, args)
		})
	}
	assert.Equal(t, "age", userAge.Name())
	assert.Equal(t, "name", userName.Name())
	assert.Equal(t, "active", userActive.Name())
}

// userPredicate is a named predicate type, as declared by entity packages.
type userPredicate func(*Query)

func TestNamedPredicate(t *testing.T) {
	age := IntField[userPredicate]("age")
	p := AllOf(age.GT(1), age.LT(9))
	q := NewQuery(nil, MySQL{}).Table("users")
	p(q)
	query, args, err := q.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE (`age` > ? AND `age` < ?)", query)
	assert.Equal(t, []any{int64(1), int64(9)}, args)
}
