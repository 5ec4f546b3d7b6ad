package track

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/track/internal/browser"
)

// botRedirectPatterns are URL fragments that mark a verification page:
// landing on one means the site identified automated access and diverted
// the request away from the real content.
var botRedirectPatterns = []string{
	"captcha", "/verify", "challenge", "punish", "robot_check",
	"unusual_traffic", "distil_r", "px-captcha", "traffic/anomaly",
}

// BrowserConfig configures the rendering strategy.
type BrowserConfig struct {
	// RemoteURL connects to an external Chrome instead of launching one.
	RemoteURL string
	// NavTimeout bounds navigation plus the price/bot-redirect race.
	// Default: 45s.
	NavTimeout time.Duration
	// WaitPoll is the poll interval of the readiness race. Default: 500ms.
	WaitPoll time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 45 * time.Second
	}
	if c.WaitPoll <= 0 {
		c.WaitPoll = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// BrowserStrategy renders product pages in a shared headless Chrome. One
// long-lived browser, one isolated page context per product, a rotated
// user agent per page.
type BrowserStrategy struct {
	mgr     *browser.Manager
	cfg     BrowserConfig
	uaIndex atomic.Uint64
	logger  *slog.Logger
}

// NewBrowserStrategy creates the rendering strategy. Chrome starts lazily
// on first use; call Warm to surface initialization failures eagerly.
func NewBrowserStrategy(cfg BrowserConfig) *BrowserStrategy {
	cfg.defaults()
	return &BrowserStrategy{
		mgr: browser.NewManager(browser.Config{
			RemoteURL: cfg.RemoteURL,
			Logger:    cfg.Logger,
		}),
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

func (s *BrowserStrategy) Kind() Kind { return KindBrowser }

// Warm starts the shared browser if it is not already running. The
// manager retries the launch once internally; an error here is the
// run-fatal initialization class.
func (s *BrowserStrategy) Warm(ctx context.Context) error {
	_, err := s.mgr.Browser(ctx)
	return err
}

// Close shuts down the shared browser exactly once.
func (s *BrowserStrategy) Close() error {
	return s.mgr.Close()
}

// Track renders the product page and extracts. The page handle is closed
// on every exit path; panics from the CDP layer are converted into an
// ordinary failed Result.
func (s *BrowserStrategy) Track(ctx context.Context, p *catalog.Product) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(p, KindBrowser, ErrNetwork, fmt.Sprintf("render: %v", r))
		}
	}()

	page, err := s.mgr.NewPage(ctx, s.nextUserAgent())
	if err != nil {
		return failure(p, KindBrowser, ErrNetwork, fmt.Sprintf("open page: %v", err))
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	nav := page.Context(navCtx)
	if err := nav.Navigate(p.NormalizedURL); err != nil {
		return failure(p, KindBrowser, ErrNetwork, fmt.Sprintf("navigate: %v", err))
	}
	if err := nav.WaitLoad(); err != nil {
		s.logger.Debug("render: wait load timeout", "url", p.NormalizedURL, "error", err)
	}

	merchant := catalog.Lookup(p.Merchant)
	switch s.awaitPriceOrBotRedirect(navCtx, nav, merchant) {
	case outcomeBotRedirect:
		return failure(p, KindBrowser, ErrBotDetected, "bot detection")
	}

	// The race can also end by timeout; re-check the landing URL before
	// trusting whatever the page now holds.
	finalCtx, cancelFinal := context.WithTimeout(ctx, 10*time.Second)
	defer cancelFinal()
	final := page.Context(finalCtx)

	if info, err := final.Info(); err == nil && isBotRedirect(info.URL) {
		return failure(p, KindBrowser, ErrBotDetected, "bot detection")
	}

	markup, err := final.HTML()
	if err != nil {
		return failure(p, KindBrowser, ErrNetwork, fmt.Sprintf("read dom: %v", err))
	}

	return extractResult(p, KindBrowser, markup)
}

type waitOutcome int

const (
	outcomeTimeout waitOutcome = iota
	outcomePriceReady
	outcomeBotRedirect
)

// awaitPriceOrBotRedirect races "a price element appeared" against
// "navigation landed on a verification page". Whichever resolves first
// short-circuits further waiting; ctx expiry yields outcomeTimeout.
func (s *BrowserStrategy) awaitPriceOrBotRedirect(ctx context.Context, page *rod.Page, m catalog.Merchant) waitOutcome {
	selectors := m.Selectors.Whole
	if m.Selectors.IntegerPart != "" {
		selectors = append(selectors, m.Selectors.IntegerPart)
	}

	ticker := time.NewTicker(s.cfg.WaitPoll)
	defer ticker.Stop()

	for {
		if info, err := page.Info(); err == nil && isBotRedirect(info.URL) {
			return outcomeBotRedirect
		}
		for _, sel := range selectors {
			if has, _, err := page.Has(sel); err == nil && has {
				return outcomePriceReady
			}
		}

		select {
		case <-ctx.Done():
			return outcomeTimeout
		case <-ticker.C:
		}
	}
}

func isBotRedirect(url string) bool {
	u := strings.ToLower(url)
	for _, pat := range botRedirectPatterns {
		if strings.Contains(u, pat) {
			return true
		}
	}
	return false
}

// nextUserAgent rotates through the fixed pool.
func (s *BrowserStrategy) nextUserAgent() string {
	n := s.uaIndex.Add(1)
	return userAgents[int(n-1)%len(userAgents)]
}
