// Package schedule decides which products are due for a price refresh and
// in what order. Priority tiers are a pure function of recency-of-interest
// signals, recomputed every run and never persisted.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/store"
)

// Tier is a discrete priority class governing refresh cadence.
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
	TierInactive
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "inactive"
	}
}

// Interval returns the minimum re-check interval for the tier.
func (t Tier) Interval() time.Duration {
	switch t {
	case TierHigh:
		return 12 * time.Hour
	case TierMedium:
		return 24 * time.Hour
	case TierLow:
		return 168 * time.Hour
	default:
		return 720 * time.Hour
	}
}

// Signals are the recency inputs to tier assignment. Timestamps are
// milliseconds since epoch; nil means the event never happened.
type Signals struct {
	WatchCount        int
	LastViewedAt      *int64
	LastPriceChangeAt *int64
	LastTrackedAt     *int64
}

const (
	sevenDays  = 7 * 24 * time.Hour
	thirtyDays = 30 * 24 * time.Hour
)

// TierFor assigns a tier. Total and deterministic: every signal
// combination maps to exactly one tier. Boundaries are inclusive — a view
// exactly 7 days old still yields HIGH.
func TierFor(sig Signals, now time.Time) Tier {
	nowMs := now.UnixMilli()

	if sig.WatchCount > 0 || within(sig.LastViewedAt, nowMs, sevenDays) {
		return TierHigh
	}
	if within(sig.LastPriceChangeAt, nowMs, sevenDays) {
		return TierMedium
	}
	if within(sig.LastViewedAt, nowMs, thirtyDays) {
		return TierLow
	}
	return TierInactive
}

// Due reports whether a product needs a refresh. Never-tracked products
// are always due; otherwise hours-since-last-tracked must reach the tier
// threshold, boundary inclusive.
func Due(lastTrackedAt *int64, tier Tier, now time.Time) bool {
	if lastTrackedAt == nil {
		return true
	}
	elapsed := now.UnixMilli() - *lastTrackedAt
	return elapsed >= tier.Interval().Milliseconds()
}

func within(ts *int64, nowMs int64, window time.Duration) bool {
	if ts == nil {
		return false
	}
	return nowMs-*ts <= window.Milliseconds()
}

// SignalReader provides the per-product signals the scheduler derives
// tiers from. *store.Store satisfies it.
type SignalReader interface {
	ListProducts(ctx context.Context, f store.Filter) ([]*catalog.Product, error)
	CountWatchers(ctx context.Context, productID string) (int, error)
	LastViewedAt(ctx context.Context, productID string) (*int64, error)
	LastPriceChangeAt(ctx context.Context, productID string) (*int64, error)
}

// Options narrows and shapes a scheduling run.
type Options struct {
	Limit    int    // max items in the work list; 0 = unlimited
	Merchant string // restrict to one merchant; "" = all
	Force    bool   // bypass the due-check, select the full eligible set
	Now      time.Time
}

// Item is one entry of the ordered work list.
type Item struct {
	Product *catalog.Product
	Tier    Tier
}

// BuildWorkList loads the catalog slice, computes each product's tier,
// filters to due items (unless forced), orders HIGH→MEDIUM→LOW→INACTIVE
// (stable within tier, catalog order), and truncates to the limit.
//
// A signal read failing for one product downgrades that product to
// INACTIVE handling rather than failing the run.
func BuildWorkList(ctx context.Context, repo SignalReader, opts Options, logger *slog.Logger) ([]Item, error) {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	products, err := repo.ListProducts(ctx, store.Filter{Merchant: opts.Merchant})
	if err != nil {
		return nil, err
	}

	buckets := make([][]Item, TierInactive+1)
	for _, p := range products {
		sig := Signals{LastTrackedAt: p.LastTrackedAt}

		if n, err := repo.CountWatchers(ctx, p.ID); err == nil {
			sig.WatchCount = n
		} else {
			logger.Warn("schedule: count watchers", "product_id", p.ID, "error", err)
		}
		if ts, err := repo.LastViewedAt(ctx, p.ID); err == nil {
			sig.LastViewedAt = ts
		} else {
			logger.Warn("schedule: last viewed", "product_id", p.ID, "error", err)
		}
		if ts, err := repo.LastPriceChangeAt(ctx, p.ID); err == nil {
			sig.LastPriceChangeAt = ts
		} else {
			logger.Warn("schedule: last price change", "product_id", p.ID, "error", err)
		}

		tier := TierFor(sig, now)
		if !opts.Force && !Due(p.LastTrackedAt, tier, now) {
			continue
		}
		buckets[tier] = append(buckets[tier], Item{Product: p, Tier: tier})
	}

	var out []Item
	for _, b := range buckets {
		out = append(out, b...)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	logger.Debug("schedule: work list built",
		"candidates", len(products), "selected", len(out), "force", opts.Force)
	return out, nil
}
