package runner

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hazyhaar/pricewatch/schedule"
	"github.com/hazyhaar/pricewatch/track"
)

// StrategyPicker maps a product URL to the strategy that should fetch
// it. *track.Selector satisfies it.
type StrategyPicker interface {
	Select(rawURL string) track.Strategy
}

// Config controls batch execution.
type Config struct {
	// Concurrency is the batch size: every item of a batch is dispatched
	// at once, and the next batch starts only when all of them returned.
	Concurrency int

	// DelayBase and DelayJitter pace consecutive batches. The actual
	// pause is DelayBase plus a uniform random fraction of DelayJitter,
	// so the request train does not tick at a fixed period.
	DelayBase   time.Duration
	DelayJitter time.Duration

	// WarmBrowser, when set, is called once before the first batch if any
	// item needs the browser strategy. An error here aborts the run: a
	// renderer that cannot start would fail every browser item anyway.
	WarmBrowser func(ctx context.Context) error

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.DelayBase <= 0 {
		c.DelayBase = 2 * time.Second
	}
	if c.DelayJitter <= 0 {
		c.DelayJitter = 3 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Failure describes one item that did not produce a price.
type Failure struct {
	ProductID string
	Title     string
	Kind      track.ErrKind
	Reason    string
}

// Summary aggregates the outcome of one run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []Failure
}

// Runner executes a work list in fixed-size concurrent batches.
type Runner struct {
	picker StrategyPicker
	rec    *Recorder
	cfg    Config
	logger *slog.Logger

	// sleep is the inter-batch pause, replaceable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Runner.
func New(picker StrategyPicker, rec *Recorder, cfg Config) *Runner {
	cfg.defaults()
	return &Runner{
		picker: picker,
		rec:    rec,
		cfg:    cfg,
		logger: cfg.Logger,
		sleep:  sleepCtx,
	}
}

// Run tracks every item and records the results. Per-item failures are
// collected into the summary; the returned error is non-nil only for
// run-fatal conditions (context cancellation, renderer startup failure).
func (r *Runner) Run(ctx context.Context, items []schedule.Item) (*Summary, error) {
	sum := &Summary{Total: len(items)}
	if len(items) == 0 {
		return sum, nil
	}

	if r.cfg.WarmBrowser != nil && r.needsBrowser(items) {
		if err := r.cfg.WarmBrowser(ctx); err != nil {
			return nil, fmt.Errorf("browser startup: %w", err)
		}
	}

	var mu sync.Mutex
	for start := 0; start < len(items); start += r.cfg.Concurrency {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		end := min(start+r.cfg.Concurrency, len(items))
		batch := items[start:end]

		var wg sync.WaitGroup
		for _, it := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := r.trackOne(ctx, it)
				mu.Lock()
				defer mu.Unlock()
				if res.Success {
					sum.Succeeded++
				} else {
					sum.Failed++
					sum.Failures = append(sum.Failures, Failure{
						ProductID: it.Product.ID,
						Title:     truncate(it.Product.Title, 48),
						Kind:      res.ErrKind,
						Reason:    res.Err,
					})
				}
			}()
		}
		wg.Wait()

		if end < len(items) {
			r.sleep(ctx, r.pause())
		}
	}

	r.logger.Info("run finished",
		"total", sum.Total, "succeeded", sum.Succeeded, "failed", sum.Failed)
	return sum, nil
}

func (r *Runner) trackOne(ctx context.Context, it schedule.Item) track.Result {
	p := it.Product
	strategy := r.picker.Select(p.NormalizedURL)

	r.logger.Debug("tracking product",
		"product_id", p.ID, "merchant", p.Merchant, "tier", it.Tier.String(),
		"strategy", string(strategy.Kind()))

	res := strategy.Track(ctx, p)
	if err := r.rec.Record(ctx, res); err != nil {
		r.logger.Error("recording failed", "product_id", p.ID, "error", err)
		if res.Success {
			res.Success = false
			res.ErrKind = track.ErrPersist
			res.Err = err.Error()
		}
	}
	return res
}

func (r *Runner) needsBrowser(items []schedule.Item) bool {
	for _, it := range items {
		if track.KindFor(it.Product.NormalizedURL) == track.KindBrowser {
			return true
		}
	}
	return false
}

func (r *Runner) pause() time.Duration {
	return r.cfg.DelayBase + rand.N(r.cfg.DelayJitter)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
