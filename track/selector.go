package track

import (
	"net/url"
	"strings"
)

// Kind is the closed set of strategy variants. Resolution is an ordered
// rule match over hostname substrings, not open-ended registration, so
// selection stays auditable and exhaustively testable.
type Kind string

const (
	KindHTTP    Kind = "http"
	KindBrowser Kind = "browser"
)

// hostRule declares a site family's anti-scraping posture and the
// strategy expected to succeed against it.
type hostRule struct {
	host string // hostname substring, tolerant of ccTLD subdomains
	kind Kind
}

// hostRules is ordered: first match wins.
var hostRules = []hostRule{
	{"shopee.", KindBrowser}, // aggressive bot checks, client-rendered price
	{"lazada.", KindBrowser},
	{"amazon.", KindBrowser},
	{"temu.", KindBrowser},
	{"tiki.vn", KindHTTP},
	{"ebay.", KindHTTP},
}

// KindFor maps a product URL to a strategy kind. Unmapped hosts default
// to HTTP (optimistic: assume no defenses until proven otherwise), and
// malformed URLs fail closed to the same default.
func KindFor(rawURL string) Kind {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return KindHTTP
	}
	host := strings.ToLower(parsed.Hostname())
	for _, r := range hostRules {
		if strings.Contains(host, r.host) {
			return r.kind
		}
	}
	return KindHTTP
}

// Selector resolves a strategy instance per product URL.
type Selector struct {
	httpStrategy    Strategy
	browserStrategy Strategy
}

// NewSelector builds a Selector over concrete strategy instances.
func NewSelector(httpStrategy, browserStrategy Strategy) *Selector {
	return &Selector{httpStrategy: httpStrategy, browserStrategy: browserStrategy}
}

// Select returns the strategy for a URL. When the browser strategy is not
// configured, everything degrades to HTTP.
func (s *Selector) Select(rawURL string) Strategy {
	if KindFor(rawURL) == KindBrowser && s.browserStrategy != nil {
		return s.browserStrategy
	}
	return s.httpStrategy
}
