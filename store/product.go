package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/pricewatch/catalog"
)

const productCols = `id, hash, merchant, original_url, normalized_url,
	title, currency, last_tracked_at, created_at, updated_at`

// UpsertProduct inserts a product keyed on its content hash. A second
// insert with the same hash (same product reached via different tracking
// params) refreshes original_url and returns the existing row's ID.
func (s *Store) UpsertProduct(ctx context.Context, p *catalog.Product) (string, error) {
	if p.Hash == "" {
		p.Hash = catalog.ProductHash(p.Merchant, p.NormalizedURL)
	}
	if p.ID == "" {
		p.ID = s.NewID()
	}
	now := time.Now().UnixMilli()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO products (id, hash, merchant, original_url, normalized_url,
		title, currency, last_tracked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			original_url = excluded.original_url,
			updated_at = excluded.updated_at`,
		p.ID, p.Hash, p.Merchant, p.OriginalURL, p.NormalizedURL,
		p.Title, p.Currency, p.LastTrackedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("upsert product: %w", err)
	}

	var id string
	if err := s.DB.QueryRowContext(ctx,
		`SELECT id FROM products WHERE hash = ?`, p.Hash).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert product: resolve id: %w", err)
	}
	p.ID = id
	return id, nil
}

// GetProduct retrieves a product by ID. Returns nil when absent.
func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

// ListProducts returns catalog entries in insertion order, optionally
// narrowed by merchant and truncated to a limit.
func (s *Store) ListProducts(ctx context.Context, f Filter) ([]*catalog.Product, error) {
	q := `SELECT ` + productCols + ` FROM products`
	args := []any{}
	if f.Merchant != "" {
		q += ` WHERE merchant = ?`
		args = append(args, f.Merchant)
	}
	q += ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*catalog.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TouchLastTracked advances a product's last-tracked timestamp. Called
// after every attempt, success or failure, so due-for-refresh accounting
// backs off on schedule even for permanently-failing products.
func (s *Store) TouchLastTracked(ctx context.Context, productID string) error {
	now := time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`UPDATE products SET last_tracked_at = ?, updated_at = ? WHERE id = ?`,
		now, now, productID)
	return err
}

// UpdateProductMeta freshens title and last-known currency from a
// successful reading. Empty values leave the stored ones untouched.
func (s *Store) UpdateProductMeta(ctx context.Context, productID, title, currency string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE products SET
			title = CASE WHEN ? != '' THEN ? ELSE title END,
			currency = CASE WHEN ? != '' THEN ? ELSE currency END,
			updated_at = ?
		WHERE id = ?`,
		title, title, currency, currency, time.Now().UnixMilli(), productID)
	return err
}

func scanProduct(row *sql.Row) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Hash, &p.Merchant, &p.OriginalURL, &p.NormalizedURL,
		&p.Title, &p.Currency, &p.LastTrackedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func scanProductRows(rows *sql.Rows) (*catalog.Product, error) {
	var p catalog.Product
	err := rows.Scan(&p.ID, &p.Hash, &p.Merchant, &p.OriginalURL, &p.NormalizedURL,
		&p.Title, &p.Currency, &p.LastTrackedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}
