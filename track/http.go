package track

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/extract"
)

// HTTPConfig configures the lightweight strategy.
type HTTPConfig struct {
	Timeout   time.Duration // per-request. Default: 20s.
	MaxBytes  int64         // response body cap. Default: 5MB.
	UserAgent string        // default: first entry of the rotation pool.
	Locale    string        // Accept-Language header. Default: "en-US,en;q=0.9".
}

func (c *HTTPConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = userAgents[0]
	}
	if c.Locale == "" {
		c.Locale = "en-US,en;q=0.9"
	}
}

// HTTPStrategy fetches product pages with a single GET and runs the
// extraction cascade over the returned markup. It is the optimistic
// default for sites without bot defenses.
type HTTPStrategy struct {
	client *http.Client
	config HTTPConfig
}

// errBotRedirect marks a redirect into a verification page. The request
// is abandoned without fetching it: there is no price behind a captcha.
var errBotRedirect = errors.New("bot detection")

// NewHTTPStrategy creates the lightweight strategy.
func NewHTTPStrategy(cfg HTTPConfig) *HTTPStrategy {
	cfg.defaults()
	return &HTTPStrategy{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if isBotRedirect(req.URL.String()) {
					return errBotRedirect
				}
				return nil
			},
		},
		config: cfg,
	}
}

func (s *HTTPStrategy) Kind() Kind { return KindHTTP }

// Track issues the GET and extracts. Every failure mode becomes a Result;
// auth/bot blockade statuses are reported distinctly and never retried
// within the attempt.
func (s *HTTPStrategy) Track(ctx context.Context, p *catalog.Product) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.NormalizedURL, nil)
	if err != nil {
		return failure(p, KindHTTP, ErrNetwork, fmt.Sprintf("new request: %v", err))
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept-Language", s.config.Locale)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, errBotRedirect) {
			return failure(p, KindHTTP, ErrBotDetected, "bot detection")
		}
		return failure(p, KindHTTP, ErrNetwork, fmt.Sprintf("http get: %v", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return failure(p, KindHTTP, ErrAuthBlocked,
			fmt.Sprintf("auth/bot blockade: http %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 400:
		return failure(p, KindHTTP, ErrNetwork, fmt.Sprintf("http %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxBytes))
	if err != nil {
		return failure(p, KindHTTP, ErrNetwork, fmt.Sprintf("read body: %v", err))
	}

	return extractResult(p, KindHTTP, string(body))
}

// extractResult runs the cascade over fetched markup and shapes the
// Result. Shared by both strategies.
func extractResult(p *catalog.Product, strategy Kind, markup string) Result {
	doc, err := extract.Parse(markup)
	if err != nil {
		return failure(p, strategy, ErrNotFound, fmt.Sprintf("parse html: %v", err))
	}

	merchant := catalog.Lookup(p.Merchant)
	res, ok := extract.Extract(doc, merchant)
	if !ok {
		return failure(p, strategy, ErrNotFound, "price not found")
	}

	title := strings.TrimSpace(extract.Title(doc))
	return Result{
		ProductID: p.ID,
		Success:   true,
		Price:     res.Amount,
		Currency:  res.Currency,
		Title:     title,
		Method:    res.Method,
		Strategy:  strategy,
	}
}
