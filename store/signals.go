package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddWatch registers a user's watch on a product. Idempotent.
func (s *Store) AddWatch(ctx context.Context, productID, userID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO watches (product_id, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(product_id, user_id) DO NOTHING`,
		productID, userID, time.Now().UnixMilli())
	return err
}

// RemoveWatch drops a user's watch.
func (s *Store) RemoveWatch(ctx context.Context, productID, userID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM watches WHERE product_id = ? AND user_id = ?`, productID, userID)
	return err
}

// CountWatchers returns how many users watch a product.
func (s *Store) CountWatchers(ctx context.Context, productID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watches WHERE product_id = ?`, productID).Scan(&n)
	return n, err
}

// RecordView logs a product view at the current time.
func (s *Store) RecordView(ctx context.Context, productID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO product_views (product_id, viewed_at) VALUES (?, ?)`,
		productID, time.Now().UnixMilli())
	return err
}

// RecordViewAt logs a product view at an explicit timestamp (import path).
func (s *Store) RecordViewAt(ctx context.Context, productID string, viewedAt int64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO product_views (product_id, viewed_at) VALUES (?, ?)`,
		productID, viewedAt)
	return err
}

// LastViewedAt returns the most recent view timestamp, or nil when the
// product has never been viewed.
func (s *Store) LastViewedAt(ctx context.Context, productID string) (*int64, error) {
	var ts int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT viewed_at FROM product_views WHERE product_id = ?
		ORDER BY viewed_at DESC LIMIT 1`, productID).Scan(&ts)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("last viewed: %w", err)
	}
	return &ts, nil
}
