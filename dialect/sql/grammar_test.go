package sql

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry/schema/field"
)

var dialects = []Dialect{Default{}, Postgres{}, MySQL{}, SQLite{}}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func compiled(t *testing.T, d Dialect, f Fragment) string {
	t.Helper()
	text, args, err := f.Query(d)
	require.NoError(t, err)
	return fmt.Sprintf("%s\n%v\n", text, args)
}

func TestSelectGolden(t *testing.T) {
	for _, d := range dialects {
		t.Run(d.Name(), func(t *testing.T) {
			q := NewQuery(nil, d).
				Table("users").As("u").
				Distinct().
				Select("u.id", "u.name").
				LeftJoin("posts", "posts.user_id", "=", "u.id").
				Where("u.age", ">", 30).
				OrWhereIn("u.role", "admin", "owner").
				WhereNested(func(q *Query) {
					q.WhereNull("u.deleted_at").OrWhere("u.name", "LIKE", "a%")
				}).
				GroupBy("u.id", "u.name").
				Having("COUNT(posts.id)", ">", 1).
				OrderByDesc("u.id").
				OrderBy("u.name").
				Limit(10).
				Offset(20).
				ForUpdate(LockSkipLocked)
			f, err := q.grammar.Select(q)
			require.NoError(t, err)
			newGolden(t).Assert(t, "select_"+d.Name(), []byte(compiled(t, d, f)))
		})
	}
}

func TestSelectClauseOrder(t *testing.T) {
	// Clauses added in any order render in their fixed SELECT position,
	// and predicates keep the order they were added in.
	q := NewQuery(nil, Postgres{}).
		Limit(5).
		OrderBy("name").
		Where("b", "=", 2).
		Table("t").
		GroupBy("name").
		Where("a", "=", 1).
		OrWhere("c", "<>", 3)
	query, args, err := q.SQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "t" WHERE "b" = $1 AND "a" = $2 OR "c" <> $3 GROUP BY "name" ORDER BY "name" LIMIT $4`, query)
	assert.Equal(t, []any{int64(2), int64(1), int64(3), int64(5)}, args)
}

func TestSelectWhere(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Query)
		want  string
		args  []any
	}{
		{
			name:  "empty in",
			build: func(q *Query) { q.WhereIn("id") },
			want:  `SELECT * FROM "t" WHERE 1 = 0`,
		},
		{
			name:  "empty not in",
			build: func(q *Query) { q.Where("a", "=", 1).WhereNotIn("id") },
			want:  `SELECT * FROM "t" WHERE "a" = $1 AND 1 = 1`,
			args:  []any{int64(1)},
		},
		{
			name:  "not in",
			build: func(q *Query) { q.WhereNotIn("id", 1, 2) },
			want:  `SELECT * FROM "t" WHERE "id" NOT IN ($1, $2)`,
			args:  []any{int64(1), int64(2)},
		},
		{
			name:  "null",
			build: func(q *Query) { q.WhereNull("a").WhereNotNull("b") },
			want:  `SELECT * FROM "t" WHERE "a" IS NULL AND "b" IS NOT NULL`,
		},
		{
			name:  "raw",
			build: func(q *Query) { q.WhereRaw("LOWER(name) = ?", "bob").OrWhereRaw("age > ? AND age < ?", 1, 9) },
			want:  `SELECT * FROM "t" WHERE LOWER(name) = $1 OR age > $2 AND age < $3`,
			args:  []any{"bob", int64(1), int64(9)},
		},
		{
			name: "or nested",
			build: func(q *Query) {
				q.Where("a", "=", 1).OrWhereNested(func(q *Query) {
					q.Where("b", "=", 2).Where("c", "=", 3)
				})
			},
			want: `SELECT * FROM "t" WHERE "a" = $1 OR ("b" = $2 AND "c" = $3)`,
			args: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:  "operator normalized",
			build: func(q *Query) { q.Where("a", "not  like", "x%") },
			want:  `SELECT * FROM "t" WHERE "a" NOT LIKE $1`,
			args:  []any{"x%"},
		},
		{
			name:  "column comparison",
			build: func(q *Query) { q.WhereColumn("updated_at", ">", "created_at") },
			want:  `SELECT * FROM "t" WHERE "updated_at" > "created_at"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery(nil, Postgres{}).Table("t")
			tt.build(q)
			query, args, err := q.SQL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			if tt.args == nil {
				tt.args = []any{}
			}
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSelectJoins(t *testing.T) {
	q := NewQuery(nil, MySQL{}).Table("users").
		JoinOn(JoinLeft, "posts", func(j *JoinClause) {
			j.On("users.id", "=", "posts.author_id").
				Where("posts.published", "=", true).
				Join(JoinInner, "comments", func(j *JoinClause) {
					j.On("comments.post_id", "=", "posts.id").OrOn("comments.pinned_id", "=", "posts.id")
				})
		}).
		CrossJoin("tags").
		Where("users.active", "=", true)
	query, args, err := q.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` LEFT JOIN `posts` ON `users`.`id` = `posts`.`author_id` AND `posts`.`published` = ? "+
		"INNER JOIN `comments` ON `comments`.`post_id` = `posts`.`id` OR `comments`.`pinned_id` = `posts`.`id` "+
		"CROSS JOIN `tags` WHERE `users`.`active` = ?", query)
	assert.Equal(t, []any{true, true}, args)
}

func TestSelectPagination(t *testing.T) {
	tests := []struct {
		name  string
		d     Dialect
		build func(*Query)
		want  string
		args  []any
	}{
		{
			name:  "first page",
			d:     Postgres{},
			build: func(q *Query) { q.Page(1, 20) },
			want:  `SELECT * FROM "t" LIMIT $1 OFFSET $2`,
			args:  []any{int64(20), int64(0)},
		},
		{
			name:  "third page",
			d:     Postgres{},
			build: func(q *Query) { q.Page(3, 10) },
			want:  `SELECT * FROM "t" LIMIT $1 OFFSET $2`,
			args:  []any{int64(10), int64(20)},
		},
		{
			name:  "offset only postgres",
			d:     Postgres{},
			build: func(q *Query) { q.Offset(5) },
			want:  `SELECT * FROM "t" OFFSET $1`,
			args:  []any{int64(5)},
		},
		{
			name:  "offset only mysql",
			d:     MySQL{},
			build: func(q *Query) { q.Offset(5) },
			want:  "SELECT * FROM `t` LIMIT 18446744073709551615 OFFSET ?",
			args:  []any{int64(5)},
		},
		{
			name:  "offset only sqlite",
			d:     SQLite{},
			build: func(q *Query) { q.Offset(5) },
			want:  `SELECT * FROM "t" LIMIT -1 OFFSET ?`,
			args:  []any{int64(5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery(nil, tt.d).Table("t")
			tt.build(q)
			query, args, err := q.SQL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSelectLocks(t *testing.T) {
	tests := []struct {
		d    Dialect
		lock func(*Query)
		want string
	}{
		{Postgres{}, func(q *Query) { q.ForShare() }, `SELECT * FROM "t" FOR SHARE`},
		{Postgres{}, func(q *Query) { q.ForUpdate(LockNoWait) }, `SELECT * FROM "t" FOR UPDATE NOWAIT`},
		{MySQL{}, func(q *Query) { q.ForShare() }, "SELECT * FROM `t` LOCK IN SHARE MODE"},
		{MySQL{}, func(q *Query) { q.ForShare(LockSkipLocked) }, "SELECT * FROM `t` FOR SHARE SKIP LOCKED"},
		{SQLite{}, func(q *Query) { q.ForUpdate() }, `SELECT * FROM "t"`},
	}
	for _, tt := range tests {
		q := NewQuery(nil, tt.d).Table("t")
		tt.lock(q)
		query, _, err := q.SQL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, query)
	}
}

func TestSelectBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Query)
		is    error
		msg   string
	}{
		{
			name:  "missing table",
			build: func(q *Query) { q.Table("") },
			is:    ErrTableRequired,
		},
		{
			name:  "unknown operator",
			build: func(q *Query) { q.Where("a", "==", 1) },
			msg:   `unsupported operator "=="`,
		},
		{
			name:  "negative limit",
			build: func(q *Query) { q.Limit(-1) },
			msg:   "negative limit",
		},
		{
			name:  "invalid page",
			build: func(q *Query) { q.Page(0, 10) },
			msg:   "invalid page",
		},
		{
			name:  "raw args mismatch",
			build: func(q *Query) { q.WhereRaw("a = ? AND b = ?", 1) },
			is:    ErrArgsMismatch,
		},
		{
			name:  "nested error",
			build: func(q *Query) { q.WhereNested(func(q *Query) { q.Offset(-2) }) },
			msg:   "negative offset",
		},
		{
			name:  "unsupported value",
			build: func(q *Query) { q.Where("a", "=", make(chan int)) },
			msg:   "unsupported value type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery(nil, Postgres{}).Table("t")
			tt.build(q)
			_, _, err := q.SQL()
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestCopy(t *testing.T) {
	base := NewQuery(nil, Postgres{}).Table("users").Where("active", "=", true).Limit(10)
	base.JoinOn(JoinInner, "teams", func(j *JoinClause) { j.On("users.team_id", "=", "teams.id") })
	admins := base.Copy().Where("role", "=", "admin").Limit(1)
	admins.joins[0].On("teams.active", "=", "users.active")

	query, args, err := base.SQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" INNER JOIN "teams" ON "users"."team_id" = "teams"."id" WHERE "active" = $1 LIMIT $2`, query)
	assert.Equal(t, []any{true, int64(10)}, args)

	query, args, err = admins.SQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" INNER JOIN "teams" ON "users"."team_id" = "teams"."id" AND "teams"."active" = "users"."active" WHERE "active" = $1 AND "role" = $2 LIMIT $3`, query)
	assert.Equal(t, []any{true, "admin", int64(1)}, args)
}

func TestInsert(t *testing.T) {
	g := NewGrammar(Postgres{})
	f, err := g.Insert("users", []Values{
		{"name": "a", "age": 1},
		{"name": "b", "email": "b@x.io"},
	})
	require.NoError(t, err)
	query, args, err := f.Query(g.Dialect)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("age", "email", "name") VALUES ($1, $2, $3), ($4, $5, $6)`, query)
	assert.Equal(t, []any{int64(1), nil, "a", nil, "b@x.io", "b"}, args)

	t.Run("empty", func(t *testing.T) {
		f, err := g.Insert("users", nil)
		require.NoError(t, err)
		assert.True(t, f.Empty())
	})
	t.Run("no table", func(t *testing.T) {
		_, err := g.Insert("", []Values{{"a": 1}})
		assert.ErrorIs(t, err, ErrTableRequired)
	})
	t.Run("no columns", func(t *testing.T) {
		_, err := g.Insert("users", []Values{{}})
		assert.Error(t, err)
	})
	t.Run("expression", func(t *testing.T) {
		f, err := NewGrammar(MySQL{}).Insert("users", []Values{{"name": "a", "created_at": Expr("NOW()")}})
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO `users` (`created_at`, `name`) VALUES (NOW(), ?)", f.Text())
		assert.Len(t, f.Args(), 1)
	})
}

func TestInsertReturn(t *testing.T) {
	rows := []Values{{"name": "a"}, {"id": 7, "name": "b"}}

	stmts, err := NewGrammar(Postgres{}).InsertReturn("users", "id", rows)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `INSERT INTO "users" ("id", "name") VALUES (?, ?), (?, ?) RETURNING *`, stmts[0].Text())

	stmts, err = NewGrammar(MySQL{}).InsertReturn("users", "id", rows)
	require.NoError(t, err)
	require.Len(t, stmts, 4)
	assert.Equal(t, "INSERT INTO `users` (`name`) VALUES (?)", stmts[0].Text())
	assert.Equal(t, "SELECT * FROM `users` WHERE `id` = LAST_INSERT_ID()", stmts[1].Text())
	assert.Equal(t, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?)", stmts[2].Text())
	assert.Equal(t, "SELECT * FROM `users` WHERE `id` = ?", stmts[3].Text())
	assert.Equal(t, []Value{Int(7)}, stmts[3].Args())

	stmts, err = NewGrammar(MySQL{}).InsertReturn("users", "id", nil)
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestUpsert(t *testing.T) {
	tests := []struct {
		name     string
		d        Dialect
		rows     []Values
		conflict []string
		want     string
	}{
		{
			name:     "postgres update",
			d:        Postgres{},
			rows:     []Values{{"email": "a@x.io", "name": "A", "age": 3}},
			conflict: []string{"email"},
			want:     `INSERT INTO "users" ("age", "email", "name") VALUES ($1, $2, $3) ON CONFLICT ("email") DO UPDATE SET "age" = EXCLUDED."age", "name" = EXCLUDED."name"`,
		},
		{
			name:     "postgres do nothing",
			d:        Postgres{},
			rows:     []Values{{"name": "go"}},
			conflict: []string{"name"},
			want:     `INSERT INTO "users" ("name") VALUES ($1) ON CONFLICT ("name") DO NOTHING`,
		},
		{
			name:     "sqlite do nothing",
			d:        SQLite{},
			rows:     []Values{{"a": 1, "b": 2}},
			conflict: []string{"a", "b"},
			want:     `INSERT INTO "users" ("a", "b") VALUES (?, ?) ON CONFLICT ("a", "b") DO NOTHING`,
		},
		{
			name:     "mysql update",
			d:        MySQL{},
			rows:     []Values{{"email": "a@x.io", "name": "A"}},
			conflict: []string{"email"},
			want:     "INSERT INTO `users` (`email`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `name` = VALUES(`name`)",
		},
		{
			name:     "mysql do nothing",
			d:        MySQL{},
			rows:     []Values{{"name": "go"}},
			conflict: []string{"name"},
			want:     "INSERT INTO `users` (`name`) VALUES (?) ON DUPLICATE KEY UPDATE `name` = `name`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewGrammar(tt.d).Upsert("users", tt.rows, tt.conflict)
			require.NoError(t, err)
			query, _, err := f.Query(tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
		})
	}

	_, err := NewGrammar(Postgres{}).Upsert("users", []Values{{"a": 1}}, nil)
	assert.Error(t, err, "conflict columns are required")

	stmts, err := NewGrammar(MySQL{}).UpsertReturn("users", []Values{{"email": "a@x.io", "name": "A"}}, []string{"email"})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT * FROM `users` WHERE `email` = ?", stmts[1].Text())
	assert.Equal(t, []Value{String("a@x.io")}, stmts[1].Args())
}

func TestUpdateDelete(t *testing.T) {
	g := NewGrammar(Postgres{})
	q := NewQuery(nil, Postgres{}).Table("users").Where("id", "=", 1)
	f, err := g.Update(q, []Assignment{Set("name", "x"), Set("visits", Expr(`"visits" + 1`)), Set("bio", nil)})
	require.NoError(t, err)
	query, args, err := f.Query(g.Dialect)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "name" = $1, "visits" = "visits" + 1, "bio" = $2 WHERE "id" = $3`, query)
	assert.Equal(t, []any{"x", nil, int64(1)}, args)

	f, err = g.Update(q, nil)
	require.NoError(t, err)
	assert.True(t, f.Empty())

	f, err = g.Delete(NewQuery(nil, Postgres{}).Table("users").WhereIn("id", 1, 2))
	require.NoError(t, err)
	query, args, err = f.Query(g.Dialect)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "users" WHERE "id" IN ($1, $2)`, query)
	assert.Equal(t, []any{int64(1), int64(2)}, args)

	_, err = g.Delete(NewQuery(nil, Postgres{}))
	assert.ErrorIs(t, err, ErrTableRequired)
	_, err = g.Update(NewQuery(nil, Postgres{}), []Assignment{Set("a", 1)})
	assert.ErrorIs(t, err, ErrTableRequired)
}

func usersTable() ([]*ColumnDef, *IndexDef) {
	return []*ColumnDef{
		{Name: "id", Type: field.TypeInt, Increment: true, PrimaryKey: true},
		{Name: "email", Type: field.TypeString, Size: 100, Unique: true},
		{Name: "name", Type: field.TypeString, Nullable: true, Default: "anon"},
		{Name: "data", Type: field.TypeJSON, Default: `{"a":1}`},
		{Name: "created_at", Type: field.TypeTime, Default: time.Now},
		{Name: "team_id", Type: field.TypeInt64, Nullable: true, References: &ForeignKey{Table: "teams", OnDelete: "SET NULL"}},
	}, &IndexDef{Columns: []string{"team_id", "name"}}
}

func TestCreateTableGolden(t *testing.T) {
	for _, d := range []Dialect{Postgres{}, MySQL{}, SQLite{}} {
		t.Run(d.Name(), func(t *testing.T) {
			cols, idx := usersTable()
			stmts, err := NewGrammar(d).CreateTable("users", true, cols, idx)
			require.NoError(t, err)
			var b strings.Builder
			for _, s := range stmts {
				assert.Empty(t, s.Args(), "DDL never binds parameters")
				b.WriteString(s.Text() + "\n")
			}
			newGolden(t).Assert(t, "create_table_"+d.Name(), []byte(b.String()))
		})
	}
}

func TestCreateTable(t *testing.T) {
	g := NewGrammar(Postgres{})
	stmts, err := g.CreateTable("memberships", false, []*ColumnDef{
		{Name: "user_id", Type: field.TypeInt, PrimaryKey: true},
		{Name: "team_id", Type: field.TypeInt, PrimaryKey: true},
		{Name: "role", Type: field.TypeString, SchemaType: map[string]string{"postgres": "citext"}, Default: "it's"},
		{Name: "score", Type: field.TypeFloat64, Default: 1.5},
		{Name: "owner", Type: field.TypeBool, Default: false},
	})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `CREATE TABLE "memberships" ("user_id" integer NOT NULL, "team_id" integer NOT NULL, "role" citext NOT NULL DEFAULT 'it''s', "score" double precision NOT NULL DEFAULT 1.5, "owner" boolean NOT NULL DEFAULT false, PRIMARY KEY ("user_id", "team_id"))`, stmts[0].Text())

	_, err = g.CreateTable("", false, nil)
	assert.ErrorIs(t, err, ErrTableRequired)
	_, err = g.CreateTable("t", false, nil)
	assert.Error(t, err)
	_, err = g.CreateTable("t", false, []*ColumnDef{{Name: "a", Type: field.TypeString, Default: make(chan int)}})
	assert.Error(t, err)
}

func TestAlterTable(t *testing.T) {
	adds := []*ColumnDef{
		{Name: "age", Type: field.TypeInt, Nullable: true},
		{Name: "slug", Type: field.TypeString, Default: ""},
		{Name: "handle", Type: field.TypeString, Nullable: true, Unique: true},
		{Name: "team_id", Type: field.TypeInt, Nullable: true, References: &ForeignKey{Table: "teams"}},
	}
	alters := []*ColumnDef{{Name: "score", Type: field.TypeInt64, Nullable: true}}
	tests := []struct {
		d      Dialect
		alters []*ColumnDef
		want   []string
	}{
		{
			d:      Postgres{},
			alters: alters,
			want: []string{
				`ALTER TABLE "users" ADD COLUMN "age" integer, ADD COLUMN "slug" varchar(255) NOT NULL DEFAULT '', ADD COLUMN "handle" varchar(255), ADD COLUMN "team_id" integer, ` +
					`ADD CONSTRAINT "users_team_id_fkey" FOREIGN KEY ("team_id") REFERENCES "teams" ("id"), ` +
					`ALTER COLUMN "score" TYPE bigint, ALTER COLUMN "score" DROP NOT NULL, DROP COLUMN "legacy"`,
				`CREATE UNIQUE INDEX "users_handle" ON "users" ("handle")`,
			},
		},
		{
			d:      MySQL{},
			alters: alters,
			want: []string{
				"ALTER TABLE `users` ADD COLUMN `age` int, ADD COLUMN `slug` varchar(255) NOT NULL DEFAULT '', ADD COLUMN `handle` varchar(255), ADD COLUMN `team_id` int, " +
					"ADD CONSTRAINT `users_team_id_fkey` FOREIGN KEY (`team_id`) REFERENCES `teams` (`id`), " +
					"MODIFY COLUMN `score` bigint NULL, DROP COLUMN `legacy`",
				"CREATE UNIQUE INDEX `users_handle` ON `users` (`handle`)",
			},
		},
		{
			d: SQLite{},
			want: []string{
				`ALTER TABLE "users" ADD COLUMN "age" integer`,
				`ALTER TABLE "users" ADD COLUMN "slug" varchar(255) NOT NULL DEFAULT ''`,
				`ALTER TABLE "users" ADD COLUMN "handle" varchar(255)`,
				`ALTER TABLE "users" ADD COLUMN "team_id" integer REFERENCES "teams" ("id")`,
				`CREATE UNIQUE INDEX "users_handle" ON "users" ("handle")`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			stmts, err := NewGrammar(tt.d).AlterTable("users", []string{"legacy"}, adds, tt.alters)
			require.NoError(t, err)
			got := make([]string, len(stmts))
			for i, s := range stmts {
				got[i] = s.Text()
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no changes", func(t *testing.T) {
		stmts, err := NewGrammar(Postgres{}).AlterTable("users", nil, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, stmts)
	})
	t.Run("sqlite drops only", func(t *testing.T) {
		stmts, err := NewGrammar(SQLite{}).AlterTable("users", []string{"legacy"}, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, stmts)
	})
	t.Run("sqlite alter column", func(t *testing.T) {
		_, err := NewGrammar(SQLite{}).AlterTable("users", nil, nil, alters)
		assert.True(t, IsUnsupported(err))
	})
}

func TestDDLStatements(t *testing.T) {
	pg, my := NewGrammar(Postgres{}), NewGrammar(MySQL{})
	assert.Equal(t, `ALTER TABLE "a" RENAME TO "b"`, pg.RenameTable("a", "b").Text())
	assert.Equal(t, `DROP TABLE IF EXISTS "a"`, pg.DropTable("a", true).Text())
	assert.Equal(t, "DROP TABLE `a`", my.DropTable("a", false).Text())
	assert.Equal(t, `ALTER TABLE "a" RENAME COLUMN "x" TO "y"`, pg.RenameColumn("a", "x", "y").Text())
	assert.Equal(t, `DROP INDEX "a_x"`, pg.DropIndex("a", "a_x").Text())
	assert.Equal(t, "DROP INDEX `a_x` ON `a`", my.DropIndex("a", "a_x").Text())

	idx := pg.CreateIndexes("a", &IndexDef{Name: "by_x", Columns: []string{"x"}, Unique: true}, &IndexDef{Columns: []string{"x", "y"}})
	require.Len(t, idx, 2)
	assert.Equal(t, `CREATE UNIQUE INDEX "by_x" ON "a" ("x")`, idx[0].Text())
	assert.Equal(t, `CREATE INDEX "a_x_y" ON "a" ("x", "y")`, idx[1].Text())
}

func TestIntrospectionQueries(t *testing.T) {
	for _, d := range []Dialect{Postgres{}, MySQL{}, SQLite{}} {
		g := NewGrammar(d)
		f, err := g.HasTable("users")
		require.NoError(t, err)
		assert.NoError(t, f.Validate())
		assert.Equal(t, []Value{String("users")}, f.Args())
		f, err = g.Columns("users")
		require.NoError(t, err)
		assert.NoError(t, f.Validate())
	}
	_, err := NewGrammar(Default{}).HasTable("users")
	assert.True(t, IsUnsupported(err))
	_, err = NewGrammar(Default{}).Columns("users")
	assert.True(t, IsUnsupported(err))
}

func TestColumnTypes(t *testing.T) {
	tests := []struct {
		col  ColumnDef
		want map[string]string
	}{
		{ColumnDef{Type: field.TypeBool}, map[string]string{"postgres": "boolean", "mysql": "boolean", "sqlite": "bool"}},
		{ColumnDef{Type: field.TypeInt64, Increment: true}, map[string]string{"postgres": "bigserial", "mysql": "bigint", "sqlite": "integer"}},
		{ColumnDef{Type: field.TypeUUID}, map[string]string{"postgres": "uuid", "mysql": "char(36)", "sqlite": "char(36)"}},
		{ColumnDef{Type: field.TypeJSON}, map[string]string{"postgres": "jsonb", "mysql": "json", "sqlite": "json"}},
		{ColumnDef{Type: field.TypeBytes, Size: 1 << 20}, map[string]string{"postgres": "bytea", "mysql": "longblob", "sqlite": "blob"}},
		{ColumnDef{Type: field.TypeString, Size: field.TextSize}, map[string]string{"postgres": "text", "mysql": "longtext", "sqlite": "text"}},
		{ColumnDef{Type: field.TypeEnum, Enums: []string{"a", "b"}}, map[string]string{"postgres": "varchar(255)", "mysql": "enum('a', 'b')", "sqlite": "varchar(255)"}},
		{ColumnDef{Type: field.TypeTime}, map[string]string{"postgres": "timestamp with time zone", "mysql": "datetime", "sqlite": "datetime"}},
	}
	for _, tt := range tests {
		for _, d := range []Dialect{Postgres{}, MySQL{}, SQLite{}} {
			assert.Equal(t, tt.want[d.Name()], d.ColumnType(&tt.col), "%s on %s", tt.col.Type, d.Name())
		}
	}
}
