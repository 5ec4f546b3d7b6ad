package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/pricewatch/store"
	"github.com/hazyhaar/pricewatch/track"
)

// RecorderStore is the slice of the repository the recorder writes
// through. *store.Store satisfies it.
type RecorderStore interface {
	GetLatestObservation(ctx context.Context, productID string) (*store.PriceObservation, error)
	InsertObservation(ctx context.Context, obs *store.PriceObservation) error
	TouchLastTracked(ctx context.Context, productID string) error
	UpdateProductMeta(ctx context.Context, productID, title, currency string) error
}

// Recorder persists tracking results: a new observation only when the
// price actually changed, last-tracked metadata unconditionally.
type Recorder struct {
	store  RecorderStore
	logger *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(st RecorderStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: st, logger: logger}
}

// Record handles one attempt's outcome. The last-tracked timestamp
// advances for failures too, so a permanently-failing product still backs
// off on schedule instead of being retried at fresh-product cadence.
func (r *Recorder) Record(ctx context.Context, res track.Result) error {
	// Touch first: it must happen regardless of what else fails.
	if err := r.store.TouchLastTracked(ctx, res.ProductID); err != nil {
		return fmt.Errorf("touch last tracked: %w", err)
	}

	if !res.Success {
		return nil
	}

	latest, err := r.store.GetLatestObservation(ctx, res.ProductID)
	if err != nil {
		return fmt.Errorf("latest observation: %w", err)
	}

	if latest == nil || latest.Price != res.Price {
		obs := &store.PriceObservation{
			ProductID: res.ProductID,
			Price:     res.Price,
			Currency:  res.Currency,
			Source:    store.SourceAutomated,
		}
		if err := r.store.InsertObservation(ctx, obs); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
		r.logger.Info("recorder: price changed",
			"product_id", res.ProductID, "price", res.Price, "currency", res.Currency)
	} else {
		r.logger.Debug("recorder: price unchanged",
			"product_id", res.ProductID, "price", res.Price)
	}

	if err := r.store.UpdateProductMeta(ctx, res.ProductID, res.Title, res.Currency); err != nil {
		return fmt.Errorf("update product meta: %w", err)
	}
	return nil
}
