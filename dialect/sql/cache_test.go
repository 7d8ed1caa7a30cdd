package sql

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/quarry/dialect"
)

type memCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	fail bool
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errors.New("cache down")
	}
	return c.m[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	c.m[key] = value
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func TestQueryCache(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	ctx := context.Background()
	cache := newMemCache()
	users := func() *Query { return Table(drv, "users").Cache(cache, time.Minute).Where("age", ">", 30) }

	mock.ExpectQuery(`SELECT * FROM "users" WHERE "age" > $1`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a"))
	first, err := users().Get(ctx)
	require.NoError(t, err)
	second, err := users().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.len())
	require.NoError(t, mock.ExpectationsWereMet(), "second read is served from the cache")

	mock.ExpectExec(`DELETE FROM "users" WHERE "age" > $1`).
		WithArgs(30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = users().Delete(ctx)
	require.NoError(t, err)
	assert.Zero(t, cache.len(), "writes invalidate the table")

	cache.fail = true
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "age" > $1`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	rows, err := users().Get(ctx)
	require.NoError(t, err, "cache failures fall back to the database")
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCacheBypass(t *testing.T) {
	ctx := context.Background()
	t.Run("joins", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		cache := newMemCache()
		feed := func() *Query {
			return Table(drv, "users").
				Cache(cache, time.Minute).
				Select("users.name", "posts.title").
				Join("posts", "posts.user_id", "=", "users.id")
		}
		const query = `SELECT "users"."name", "posts"."title" FROM "users" INNER JOIN "posts" ON "posts"."user_id" = "users"."id"`
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"name", "title"}).AddRow("a", "old"))
		_, err := feed().Get(ctx)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "posts" SET "title" = $1`).WithArgs("new").WillReturnResult(sqlmock.NewResult(0, 1))
		_, err = Table(drv, "posts").Cache(cache, time.Minute).Update(ctx, Set("title", "new"))
		require.NoError(t, err)

		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"name", "title"}).AddRow("a", "new"))
		rows, err := feed().Get(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		title, _ := rows[0].Get("title")
		assert.Equal(t, String("new"), title)
		assert.Zero(t, cache.len(), "joined reads are not cached")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locks", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		cache := newMemCache()
		for i := 0; i < 2; i++ {
			mock.ExpectQuery(`SELECT * FROM "users" FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
			_, err := Table(drv, "users").Cache(cache, time.Minute).ForUpdate().Get(ctx)
			require.NoError(t, err)
		}
		assert.Zero(t, cache.len())
		require.NoError(t, mock.ExpectationsWereMet(), "every locking read reaches the database")
	})
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("users", NewFragment("SELECT * FROM users WHERE id = ?", Int(1)))
	b := cacheKey("users", NewFragment("SELECT * FROM users WHERE id = ?", Int(2)))
	c := cacheKey("users", NewFragment("SELECT * FROM users WHERE id = ?", String("1")))
	assert.True(t, strings.HasPrefix(a, "users:"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c, "kinds are part of the key")
	assert.Equal(t, a, cacheKey("users", NewFragment("SELECT * FROM users WHERE id = ?", Int(1))))
}

func TestRowMsgpack(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	id := uuid.New()
	rows := []Row{{
		Columns: []string{"n", "b", "i", "d", "s", "t", "u", "j", "x"},
		Values:  []Value{Null{}, Bool(true), Int(-7), Double(1.25), String("hi"), Date(now), UUID(id), JSON(`{"a":1}`), Bytes{0, 1}},
	}}
	b, err := msgpack.Marshal(rows)
	require.NoError(t, err)
	var got []Row
	require.NoError(t, msgpack.Unmarshal(b, &got))
	require.Len(t, got, 1)
	assert.Equal(t, rows[0].Columns, got[0].Columns)
	for i, v := range rows[0].Values {
		if d, ok := v.(Date); ok {
			assert.True(t, time.Time(d).Equal(time.Time(got[0].Values[i].(Date))))
			continue
		}
		assert.Equal(t, v, got[0].Values[i], rows[0].Columns[i])
	}
}
