// Package cache is the embedded relational cache store: a single sqlite
// file with WAL journaling and foreign-key enforcement, holding products,
// variations, sync-status, events, and sessions.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the cache file's connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache file at path, enables WAL
// journaling and foreign-key enforcement, and runs migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: one writer, serialize via this handle

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	if err := s.migrateAddedColumns(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: migrate added columns: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the store is reachable, used by the operator API's health
// surface.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             INTEGER PRIMARY KEY,
	retailer_id    TEXT NOT NULL UNIQUE,
	parent_id      INTEGER NOT NULL DEFAULT 0,
	kind           TEXT NOT NULL,
	name           TEXT NOT NULL,
	sku            TEXT NOT NULL DEFAULT '',
	permalink      TEXT NOT NULL DEFAULT '',
	regular_price  TEXT NOT NULL DEFAULT '0',
	sale_price     TEXT,
	stock_status   TEXT NOT NULL,
	stock_quantity INTEGER,
	description    TEXT NOT NULL DEFAULT '',
	images_json    TEXT NOT NULL DEFAULT '[]',
	attributes_json TEXT NOT NULL DEFAULT '[]',
	categories_json TEXT NOT NULL DEFAULT '[]',
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_parent_id ON products(parent_id);
CREATE INDEX IF NOT EXISTS idx_products_stock_status ON products(stock_status);

CREATE TABLE IF NOT EXISTS variations (
	id             INTEGER PRIMARY KEY,
	retailer_id    TEXT NOT NULL UNIQUE,
	parent_id      INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	sku            TEXT NOT NULL DEFAULT '',
	permalink      TEXT NOT NULL DEFAULT '',
	regular_price  TEXT NOT NULL DEFAULT '0',
	sale_price     TEXT,
	stock_status   TEXT NOT NULL,
	stock_quantity INTEGER,
	description    TEXT NOT NULL DEFAULT '',
	images_json    TEXT NOT NULL DEFAULT '[]',
	attributes_json TEXT NOT NULL DEFAULT '[]',
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_variations_parent_id ON variations(parent_id);
CREATE INDEX IF NOT EXISTS idx_variations_stock_status ON variations(stock_status);

-- sync_status.product_id deliberately carries no single-table FK: it
-- tracks either a products.id or a variations.id. Cascade-on-delete for
-- both cases is enforced by the triggers below rather than a literal FK,
-- since sqlite FKs can only target one table.
CREATE TABLE IF NOT EXISTS sync_status (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	retailer_id     TEXT NOT NULL UNIQUE,
	product_id      INTEGER NOT NULL,
	last_availability TEXT NOT NULL DEFAULT '',
	last_inventory  INTEGER,
	sync_state      TEXT NOT NULL DEFAULT 'pending',
	exists_remote   INTEGER NOT NULL DEFAULT 0,
	last_error      TEXT NOT NULL DEFAULT '',
	synced_at       TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sync_status_state ON sync_status(sync_state);
CREATE INDEX IF NOT EXISTS idx_sync_status_product_id ON sync_status(product_id);

CREATE TRIGGER IF NOT EXISTS trg_products_delete_sync_status
AFTER DELETE ON products
BEGIN
	DELETE FROM sync_status WHERE product_id = OLD.id;
END;

CREATE TRIGGER IF NOT EXISTS trg_variations_delete_sync_status
AFTER DELETE ON variations
BEGIN
	DELETE FROM sync_status WHERE product_id = OLD.id;
END;

CREATE TABLE IF NOT EXISTS events (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	source_product_id  INTEGER NOT NULL,
	action             TEXT NOT NULL,
	topic              TEXT NOT NULL DEFAULT '',
	delivery_id        TEXT NOT NULL DEFAULT '',
	name               TEXT NOT NULL DEFAULT '',
	kind               TEXT NOT NULL DEFAULT '',
	retailer_id        TEXT NOT NULL DEFAULT '',
	old_stock_status   TEXT NOT NULL DEFAULT '',
	new_stock_status   TEXT NOT NULL DEFAULT '',
	old_quantity       INTEGER,
	new_quantity       INTEGER,
	stock_change       INTEGER,
	processed          INTEGER NOT NULL DEFAULT 0,
	processed_at       TIMESTAMP,
	error              TEXT NOT NULL DEFAULT '',
	attempt_count      INTEGER NOT NULL DEFAULT 0,
	next_retry_at      TIMESTAMP,
	created_at         TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_processed ON events(processed);
CREATE INDEX IF NOT EXISTS idx_events_source_product_id ON events(source_product_id);
CREATE INDEX IF NOT EXISTS idx_events_action ON events(action);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);

CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`

// migrate applies the base schema in one script. Every statement is
// IF NOT EXISTS, so re-running against an already-initialized file is a
// no-op; column additions from later revisions go through
// migrateAddedColumns instead.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// addColumnIfNotExists runs an ALTER TABLE ADD COLUMN, swallowing the
// "duplicate column name" error sqlite returns when it already exists.
// Used by schema revisions that extend an already-deployed table.
func (s *Store) addColumnIfNotExists(ctx context.Context, table, ddl string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, ddl))
	if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
		return err
	}
	return nil
}

// migrateAddedColumns extends the events table with the raw payload and
// signature columns, added after the initial schema shipped. Re-adding an
// existing column is swallowed rather than failing startup on an
// already-migrated database.
func (s *Store) migrateAddedColumns(ctx context.Context) error {
	if err := s.addColumnIfNotExists(ctx, "events", "raw_payload TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	if err := s.addColumnIfNotExists(ctx, "events", "signature TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
