package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertObservation appends a price reading. ID and timestamp are filled
// when absent.
func (s *Store) InsertObservation(ctx context.Context, obs *PriceObservation) error {
	if obs.ID == "" {
		obs.ID = s.NewID()
	}
	if obs.ObservedAt == 0 {
		obs.ObservedAt = time.Now().UnixMilli()
	}
	if obs.Source == "" {
		obs.Source = SourceAutomated
	}
	if obs.Price < 0 {
		return fmt.Errorf("insert observation: negative price %v", obs.Price)
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO price_observations (id, product_id, price, currency, source, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		obs.ID, obs.ProductID, obs.Price, obs.Currency, obs.Source, obs.ObservedAt)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// GetLatestObservation returns the most recent reading for a product, or
// nil when none exists.
func (s *Store) GetLatestObservation(ctx context.Context, productID string) (*PriceObservation, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, product_id, price, currency, source, observed_at
		FROM price_observations WHERE product_id = ?
		ORDER BY observed_at DESC, id DESC LIMIT 1`, productID)

	var obs PriceObservation
	err := row.Scan(&obs.ID, &obs.ProductID, &obs.Price, &obs.Currency, &obs.Source, &obs.ObservedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest observation: %w", err)
	}
	return &obs, nil
}

// ListObservations returns a product's price history, newest first.
func (s *Store) ListObservations(ctx context.Context, productID string, limit int) ([]*PriceObservation, error) {
	q := `SELECT id, product_id, price, currency, source, observed_at
		FROM price_observations WHERE product_id = ?
		ORDER BY observed_at DESC, id DESC`
	args := []any{productID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PriceObservation
	for rows.Next() {
		var obs PriceObservation
		if err := rows.Scan(&obs.ID, &obs.ProductID, &obs.Price, &obs.Currency,
			&obs.Source, &obs.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, &obs)
	}
	return out, rows.Err()
}

// LastPriceChangeAt returns when the product's price last changed: the
// observed_at of the newest observation whose price differs from its
// predecessor, or the first observation's timestamp. nil when untracked.
func (s *Store) LastPriceChangeAt(ctx context.Context, productID string) (*int64, error) {
	obs, err := s.ListObservations(ctx, productID, 0)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, nil
	}
	for i := 0; i < len(obs)-1; i++ {
		if obs[i].Price != obs[i+1].Price {
			return &obs[i].ObservedAt, nil
		}
	}
	return &obs[len(obs)-1].ObservedAt, nil
}

// CountObservations returns the number of stored readings for a product.
func (s *Store) CountObservations(ctx context.Context, productID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM price_observations WHERE product_id = ?`, productID).Scan(&n)
	return n, err
}
