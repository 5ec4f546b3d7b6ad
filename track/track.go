// Package track obtains current price readings for catalog products. Two
// strategies share one contract: a lightweight HTTP GET for sites without
// bot defenses, and a full browser rendering path for the rest. Every
// failure mode is normalized into a Result — nothing escapes a strategy
// boundary as a fault.
package track

import (
	"context"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/extract"
)

// ErrKind classifies a failed attempt so operators can tell
// defense-triggered misses from genuine extraction gaps.
type ErrKind string

const (
	ErrNone        ErrKind = ""
	ErrNetwork     ErrKind = "network"         // timeout, connection reset, DNS
	ErrBotDetected ErrKind = "bot_detection"   // verification-page redirect
	ErrAuthBlocked ErrKind = "auth_blockade"   // 401/403 status
	ErrNotFound    ErrKind = "price_not_found" // page loaded, cascade missed
	ErrPersist     ErrKind = "persistence"     // repository call failed
)

// Result is the ephemeral per-attempt record consumed by the recorder.
type Result struct {
	ProductID string
	Success   bool
	Price     float64
	Currency  string
	Title     string
	Method    extract.Method
	Strategy  Kind
	ErrKind   ErrKind
	Err       string
}

// failure builds a failed Result for a product.
func failure(p *catalog.Product, strategy Kind, kind ErrKind, msg string) Result {
	return Result{
		ProductID: p.ID,
		Strategy:  strategy,
		ErrKind:   kind,
		Err:       msg,
	}
}

// Strategy is a pluggable method for obtaining and extracting price data.
// Implementations may also satisfy io.Closer for teardown.
type Strategy interface {
	Track(ctx context.Context, p *catalog.Product) Result
	Kind() Kind
}

// userAgents is the fixed rotation pool. Realistic desktop signatures;
// the browser strategy rotates per page, the HTTP strategy uses the first.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}
