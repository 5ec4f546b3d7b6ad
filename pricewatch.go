// Package pricewatch tracks product prices across e-commerce sites. It
// wires the persistent catalog, the priority scheduler, the fetch
// strategies and the batch runner into one engine driven by RunOnce.
package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/runner"
	"github.com/hazyhaar/pricewatch/schedule"
	"github.com/hazyhaar/pricewatch/store"
	"github.com/hazyhaar/pricewatch/track"

	_ "modernc.org/sqlite"
)

// Service is the assembled engine. Create with New, release with Close.
type Service struct {
	cfg     Config
	store   *store.Store
	browser *track.BrowserStrategy
	sel     *track.Selector
	rec     *runner.Recorder
	logger  *slog.Logger
}

// New opens the database and assembles the engine. The browser does not
// start here; it launches lazily on the first run that needs it.
func New(cfg Config, logger *slog.Logger) (*Service, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	httpStrat := track.NewHTTPStrategy(track.HTTPConfig{
		Timeout:  cfg.HTTP.Timeout,
		MaxBytes: cfg.HTTP.MaxBytes,
		Locale:   cfg.HTTP.Locale,
	})
	browserStrat := track.NewBrowserStrategy(track.BrowserConfig{
		RemoteURL:  cfg.Browser.Remote,
		NavTimeout: cfg.Browser.NavTimeout,
		WaitPoll:   cfg.Browser.WaitPoll,
		Logger:     logger,
	})

	return &Service{
		cfg:     cfg,
		store:   st,
		browser: browserStrat,
		sel:     track.NewSelector(httpStrat, browserStrat),
		rec:     runner.NewRecorder(st, logger),
		logger:  logger,
	}, nil
}

// Store exposes the underlying repository for read paths (history,
// product listings) that do not need the engine.
func (s *Service) Store() *store.Store { return s.store }

// RunOptions shapes a single tracking run.
type RunOptions struct {
	Limit       int    // max products this run; 0 = unlimited
	Merchant    string // restrict to one merchant; "" = all
	Concurrency int    // batch size override; 0 = configured default
	Force       bool   // track everything eligible, ignore due-times
}

// RunOnce builds the work list and tracks it in batches. Per-product
// failures land in the summary; the error is non-nil only for run-fatal
// conditions (ErrCatalog, ErrRenderer, context cancellation).
func (s *Service) RunOnce(ctx context.Context, opts RunOptions) (*runner.Summary, error) {
	items, err := schedule.BuildWorkList(ctx, s.store, schedule.Options{
		Limit:    opts.Limit,
		Merchant: opts.Merchant,
		Force:    opts.Force,
		Now:      time.Now(),
	}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	rcfg := runner.Config{
		Concurrency: opts.Concurrency,
		DelayBase:   s.cfg.Runner.DelayBase,
		DelayJitter: s.cfg.Runner.DelayJitter,
		WarmBrowser: s.warmBrowser,
		Logger:      s.logger,
	}
	if rcfg.Concurrency <= 0 {
		rcfg.Concurrency = s.cfg.Runner.Concurrency
	}

	return runner.New(s.sel, s.rec, rcfg).Run(ctx, items)
}

func (s *Service) warmBrowser(ctx context.Context) error {
	if err := s.browser.Warm(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderer, err)
	}
	return nil
}

// AddProduct registers a product URL under a merchant and returns the
// catalog row, existing or new. An empty merchant name resolves the
// merchant from the URL host.
func (s *Service) AddProduct(ctx context.Context, merchant, rawURL string) (*catalog.Product, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidInput)
	}

	var m catalog.Merchant
	if merchant != "" {
		m = catalog.Lookup(merchant)
	} else {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		m = catalog.MerchantForHost(u.Hostname())
	}

	normalized, err := catalog.Normalize(m, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p := &catalog.Product{
		Merchant:      m.Name,
		OriginalURL:   rawURL,
		NormalizedURL: normalized,
		Hash:          catalog.ProductHash(m.Name, normalized),
		Currency:      m.DefaultCurrency,
	}
	if _, err := s.store.UpsertProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert product: %w", err)
	}
	return p, nil
}

// Watch registers a user's interest in a product; it feeds the HIGH
// scheduling tier. Idempotent.
func (s *Service) Watch(ctx context.Context, productID, userID string) error {
	return s.store.AddWatch(ctx, productID, userID)
}

// Unwatch removes a watch.
func (s *Service) Unwatch(ctx context.Context, productID, userID string) error {
	return s.store.RemoveWatch(ctx, productID, userID)
}

// RecordView notes that a product page was viewed just now.
func (s *Service) RecordView(ctx context.Context, productID string) error {
	return s.store.RecordView(ctx, productID)
}

// History returns the observation trail for a product, newest first.
func (s *Service) History(ctx context.Context, productID string, limit int) ([]*store.PriceObservation, error) {
	return s.store.ListObservations(ctx, productID, limit)
}

// Close shuts down the browser (if it ever started) and the database.
func (s *Service) Close() error {
	return errors.Join(s.browser.Close(), s.store.Close())
}
