package sql

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for caching query results.
// Implementations wrap the caching solution of the application
// (e.g. Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// cacheKey returns the key of a compiled statement. Keys of a table share
// the "table:" prefix, so writes can invalidate them together.
func cacheKey(table string, f Fragment) string {
	h := sha256.New()
	h.Write([]byte(f.text))
	for _, a := range f.args {
		fmt.Fprintf(h, "\x00%d:%v", a.Kind(), a.Any())
	}
	return table + ":" + hex.EncodeToString(h.Sum(nil))
}

// cacheable reports if the results of the query may be cached. Locking
// reads must reach the database, and joined reads would outlive writes
// to the joined tables, which only invalidate their own keys.
func (q *Query) cacheable() bool {
	return q.cache != nil && q.lock == nil && len(q.joins) == 0
}

// cachedRows serves the statement from the cache of the query. Cache
// failures fall back to the database.
func (q *Query) cachedRows(ctx context.Context, f Fragment) ([]Row, error) {
	key := cacheKey(q.table, f)
	b, err := q.cache.Get(ctx, key)
	switch {
	case err != nil:
		slog.DebugContext(ctx, "query cache get failed", "key", key, "error", err)
	case b != nil:
		var rows []Row
		if err := msgpack.Unmarshal(b, &rows); err == nil {
			return rows, nil
		}
	}
	rows, err := q.query(ctx, q.conn, f)
	if err != nil {
		return nil, err
	}
	if b, err = msgpack.Marshal(rows); err == nil {
		err = q.cache.Set(ctx, key, b, q.cacheTTL)
	}
	if err != nil {
		slog.DebugContext(ctx, "query cache set failed", "key", key, "error", err)
	}
	return rows, nil
}

// invalidate drops the cached results of the query table.
func (q *Query) invalidate(ctx context.Context) error {
	if q.cache == nil {
		return nil
	}
	return InvalidateTable(ctx, q.cache, q.table)
}

// InvalidateTable drops the cached results of all queries on the table.
func InvalidateTable(ctx context.Context, c Cache, table string) error {
	if err := c.DeletePrefix(ctx, table+":"); err != nil {
		return fmt.Errorf("dialect/sql: invalidating cache of %q: %w", table, err)
	}
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (r Row) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(r.Columns)); err != nil {
		return err
	}
	for i, c := range r.Columns {
		if err := enc.EncodeString(c); err != nil {
			return err
		}
		if err := encodeValue(enc, r.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (r *Row) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	r.Columns, r.Values = make([]string, n), make([]Value, n)
	for i := 0; i < n; i++ {
		if r.Columns[i], err = dec.DecodeString(); err != nil {
			return err
		}
		if r.Values[i], err = decodeMsgpackValue(dec); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(enc *msgpack.Encoder, v Value) error {
	if err := enc.EncodeUint8(uint8(v.Kind())); err != nil {
		return err
	}
	switch v := v.(type) {
	case Bool:
		return enc.EncodeBool(bool(v))
	case Int:
		return enc.EncodeInt(int64(v))
	case Double:
		return enc.EncodeFloat64(float64(v))
	case String:
		return enc.EncodeString(string(v))
	case Date:
		return enc.EncodeTime(time.Time(v))
	case UUID:
		return enc.EncodeBytes(v[:])
	case JSON:
		return enc.EncodeBytes(v)
	case Bytes:
		return enc.EncodeBytes(v)
	default:
		return enc.EncodeNil()
	}
}

func decodeMsgpackValue(dec *msgpack.Decoder) (Value, error) {
	k, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	switch Kind(k) {
	case KindNull:
		return Null{}, dec.DecodeNil()
	case KindBool:
		b, err := dec.DecodeBool()
		return Bool(b), err
	case KindInt:
		n, err := dec.DecodeInt64()
		return Int(n), err
	case KindDouble:
		f, err := dec.DecodeFloat64()
		return Double(f), err
	case KindString:
		s, err := dec.DecodeString()
		return String(s), err
	case KindDate:
		t, err := dec.DecodeTime()
		return Date(t), err
	case KindUUID:
		b, err := dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		u, err := uuid.FromBytes(b)
		return UUID(u), err
	case KindJSON:
		b, err := dec.DecodeBytes()
		return JSON(b), err
	case KindBytes:
		b, err := dec.DecodeBytes()
		return Bytes(b), err
	}
	return nil, fmt.Errorf("dialect/sql: unknown value kind %d", k)
}
