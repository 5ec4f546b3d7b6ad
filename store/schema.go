package store

import "database/sql"

// Schema is the complete pricewatch schema.
const Schema = `
-- Tracked products, keyed naturally by hash(merchant + normalized_url)
CREATE TABLE IF NOT EXISTS products (
    id              TEXT PRIMARY KEY,
    hash            TEXT NOT NULL UNIQUE,
    merchant        TEXT NOT NULL,
    original_url    TEXT NOT NULL,
    normalized_url  TEXT NOT NULL,
    title           TEXT NOT NULL DEFAULT '',
    currency        TEXT NOT NULL DEFAULT '',
    last_tracked_at INTEGER,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_merchant ON products(merchant);
CREATE INDEX IF NOT EXISTS idx_products_tracked ON products(last_tracked_at);

-- Append-only price readings; latest = max(observed_at)
CREATE TABLE IF NOT EXISTS price_observations (
    id          TEXT PRIMARY KEY,
    product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    price       REAL NOT NULL CHECK (price >= 0),
    currency    TEXT NOT NULL DEFAULT '',
    source      TEXT NOT NULL DEFAULT 'automated',
    observed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_product
    ON price_observations(product_id, observed_at DESC);

-- Watch signals: a user asked to be told about price drops
CREATE TABLE IF NOT EXISTS watches (
    product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (product_id, user_id)
);

-- View signals: a user looked at the product recently
CREATE TABLE IF NOT EXISTS product_views (
    product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    viewed_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_views_product ON product_views(product_id, viewed_at DESC);
`

// ApplySchema creates all tables and indexes.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
