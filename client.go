package quarry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/syssam/quarry/dialect"
	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/dialect/sql/schema"
)

// Client binds queries and schema synchronization to a driver.
type Client struct {
	config
	stats *sql.StatsDriver
}

type config struct {
	driver   dialect.Driver
	debug    bool
	logger   *slog.Logger
	cache    sql.Cache
	cacheTTL time.Duration
	stats    []sql.StatsOption
	migrate  []schema.MigrateOption
}

// Option configures the client.
type Option func(*config)

// Debug logs every statement of the client at debug level.
func Debug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// Log sets the logger of the client statements and schema changes.
func Log(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithStats collects the statistics of the client statements.
func WithStats(opts ...sql.StatsOption) Option {
	return func(c *config) {
		c.stats = append(c.stats, opts...)
		if c.stats == nil {
			c.stats = []sql.StatsOption{}
		}
	}
}

// WithCache serves the reads of the client queries from the cache.
// Writes invalidate the cached reads of their table.
func WithCache(cache sql.Cache, ttl time.Duration) Option {
	return func(c *config) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithMigrateOptions sets the options of the schema synchronizer.
func WithMigrateOptions(opts ...schema.MigrateOption) Option {
	return func(c *config) {
		c.migrate = append(c.migrate, opts...)
	}
}

// NewClient creates a new client configured with the given options.
func NewClient(drv dialect.Driver, opts ...Option) *Client {
	cfg := config{driver: drv, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Client{config: cfg}
	if cfg.stats != nil {
		c.stats = sql.NewStatsDriver(c.driver, append([]sql.StatsOption{sql.WithSlowQueryLog(cfg.logger)}, cfg.stats...)...)
		c.driver = c.stats
	}
	if cfg.debug {
		c.driver = sql.NewDebugDriver(c.driver, sql.DebugWithLogger(cfg.logger))
	}
	return c
}

// Open opens a database/sql.DB specified by the driver name and the data
// source name, and returns a new client attached to it.
func Open(driverName, dataSourceName string, opts ...Option) (*Client, error) {
	drv, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("quarry: opening %s: %w", driverName, err)
	}
	return NewClient(drv, opts...), nil
}

// Driver returns the driver of the client.
func (c *Client) Driver() dialect.Driver {
	return c.driver
}

// Dialect returns the dialect name of the client driver.
func (c *Client) Dialect() string {
	return c.driver.Dialect()
}

// Stats returns the statement statistics of the client, or nil if the
// client was created without WithStats.
func (c *Client) Stats() *sql.QueryStats {
	if c.stats == nil {
		return nil
	}
	return c.stats.QueryStats()
}

// Query returns a new query on the table.
func (c *Client) Query(table string) *sql.Query {
	q := sql.Table(c.driver, table)
	if c.cache != nil {
		q.Cache(c.cache, c.cacheTTL)
	}
	return q
}

// Migrate returns the schema synchronizer of the client.
func (c *Client) Migrate() (*schema.Migrate, error) {
	return schema.NewMigrate(c.driver, append([]schema.MigrateOption{schema.WithLogger(c.logger)}, c.migrate...)...)
}

// Sync synchronizes the tables of the schemas with the database.
//
//	if err := client.Sync(ctx, User{}, Pet{}); err != nil {
//		log.Fatalf("failed creating schema resources: %v", err)
//	}
func (c *Client) Sync(ctx context.Context, schemas ...Interface) error {
	tables, err := Tables(schemas...)
	if err != nil {
		return err
	}
	m, err := c.Migrate()
	if err != nil {
		return err
	}
	if err := m.Create(ctx, tables...); err != nil {
		return err
	}
	if c.cache != nil {
		for _, t := range tables {
			if err := sql.InvalidateTable(ctx, c.cache, t.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Plan returns the changes Sync would apply, without applying them.
func (c *Client) Plan(ctx context.Context, schemas ...Interface) ([]*schema.Change, error) {
	tables, err := Tables(schemas...)
	if err != nil {
		return nil, err
	}
	m, err := c.Migrate()
	if err != nil {
		return nil, err
	}
	return m.Plan(ctx, tables...)
}

// Tx returns a new transactional client.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("quarry: starting a transaction: %w", err)
	}
	return &Tx{tx: tx, dialect: sql.DialectOf(c.driver.Dialect()), cache: c.cache}, nil
}

// WithTx runs fn in a transaction. The transaction is committed if fn
// returns nil, and rolled back if it fails or panics.
//
//	err := client.WithTx(ctx, func(tx *quarry.Tx) error {
//		_, err := tx.Query("users").Where("id", "=", 1).Update(ctx, sql.Set("name", "a8m"))
//		return err
//	})
func (c *Client) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := c.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, &RollbackError{Err: rerr})
		}
		return err
	}
	return tx.Commit(ctx)
}

// Close closes the database connection and prevents new queries from starting.
func (c *Client) Close() error {
	return c.driver.Close()
}

// Tx is a transactional client. Its queries bypass the cache of the
// client; the cached reads of the tables it queried are invalidated on
// commit.
type Tx struct {
	tx      dialect.Tx
	dialect sql.Dialect
	cache   sql.Cache
	mu      sync.Mutex
	tables  []string
}

// Query returns a new query on the table, bound to the transaction.
func (tx *Tx) Query(table string) *sql.Query {
	tx.mu.Lock()
	tx.tables = append(tx.tables, table)
	tx.mu.Unlock()
	return sql.NewQuery(tx.tx, tx.dialect).Table(table)
}

// Commit commits the transaction.
func (tx *Tx) Commit(ctx context.Context) error {
	if err := tx.tx.Commit(); err != nil {
		return fmt.Errorf("quarry: committing transaction: %w", err)
	}
	if tx.cache == nil {
		return nil
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for _, t := range tx.tables {
		if err := sql.InvalidateTable(ctx, tx.cache, t); err != nil {
			return err
		}
	}
	return nil
}

// Rollback rollbacks the transaction.
func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}
