// Package catalog defines the product model and merchant rules used to
// canonicalize and deduplicate tracked product URLs.
package catalog

import (
	"strings"
)

// Product is one tracked catalog entry. Hash is the content-addressed
// natural key (merchant + normalized URL); LastTrackedAt is nil until the
// engine first visits the product.
type Product struct {
	ID            string `json:"id"`
	Hash          string `json:"hash"`
	Merchant      string `json:"merchant"`
	OriginalURL   string `json:"original_url"`
	NormalizedURL string `json:"normalized_url"`
	Title         string `json:"title"`
	Currency      string `json:"currency"`
	LastTrackedAt *int64 `json:"last_tracked_at,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

// QueryRule decides what happens to query parameters during normalization.
// The choice is declared per merchant, never inferred: it directly
// determines de-duplication correctness.
type QueryRule int

const (
	// StripTracking removes a denylist of known tracking keys and keeps
	// the rest. Safe default for merchants whose product ID may live in
	// the query string.
	StripTracking QueryRule = iota
	// StripAll removes every query parameter. Only for merchants whose
	// product ID lives entirely in the path.
	StripAll
)

// PriceSelectors is the ordered list of DOM selectors known to host the
// visible price on a merchant's pages. When IntegerPart and CentsPart are
// both set, their texts are concatenated before parsing.
type PriceSelectors struct {
	Whole       []string `json:"whole" yaml:"whole"`
	IntegerPart string   `json:"integer_part" yaml:"integer_part"`
	CentsPart   string   `json:"cents_part" yaml:"cents_part"`
}

// Merchant describes one known site family.
type Merchant struct {
	Name            string
	Hosts           []string // hostname substrings, tolerant of ccTLD subdomains
	Rule            QueryRule
	DefaultCurrency string
	Selectors       PriceSelectors
}

// trackingParams is the shared denylist applied under StripTracking.
var trackingParams = map[string]bool{
	"ref": true, "tag": true, "src": true, "spm": true,
	"fbclid": true, "gclid": true, "msclkid": true, "igshid": true,
	"mc_cid": true, "mc_eid": true, "_ga": true, "affiliate_id": true,
	"campaign": true, "campaignid": true, "adgroupid": true,
}

func isTrackingParam(key string) bool {
	if trackingParams[key] {
		return true
	}
	return strings.HasPrefix(key, "utm_") || strings.HasPrefix(key, "pk_")
}

// builtin is the registry of known merchants. Unknown merchants fall back
// to Generic (StripTracking, no selectors).
var builtin = []Merchant{
	{
		Name:            "shopee",
		Hosts:           []string{"shopee."},
		Rule:            StripAll, // product id is in the path (i.<shop>.<item>)
		DefaultCurrency: "VND",
		Selectors: PriceSelectors{
			Whole: []string{"div.IZPeQz", "div.pqTWkA", "section div.flex .G27FPf"},
		},
	},
	{
		Name:            "lazada",
		Hosts:           []string{"lazada."},
		Rule:            StripTracking,
		DefaultCurrency: "VND",
		Selectors: PriceSelectors{
			Whole: []string{"span.pdp-price_type_normal", ".pdp-product-price span"},
		},
	},
	{
		Name:            "tiki",
		Hosts:           []string{"tiki.vn"},
		Rule:            StripTracking,
		DefaultCurrency: "VND",
		Selectors: PriceSelectors{
			Whole: []string{".product-price__current-price", "div.styles__Price"},
		},
	},
	{
		Name:            "amazon",
		Hosts:           []string{"amazon."},
		Rule:            StripTracking,
		DefaultCurrency: "USD",
		Selectors: PriceSelectors{
			Whole:       []string{"span.a-price span.a-offscreen", "#priceblock_ourprice", "#priceblock_dealprice"},
			IntegerPart: "span.a-price-whole",
			CentsPart:   "span.a-price-fraction",
		},
	},
	{
		Name:            "ebay",
		Hosts:           []string{"ebay."},
		Rule:            StripTracking,
		DefaultCurrency: "USD",
		Selectors: PriceSelectors{
			Whole: []string{"div.x-price-primary span.ux-textspans", "#prcIsum"},
		},
	},
}

// Generic is the fallback merchant for hosts not in the registry.
var Generic = Merchant{
	Name:            "generic",
	Rule:            StripTracking,
	DefaultCurrency: "USD",
	Selectors: PriceSelectors{
		Whole: []string{"[itemprop=price]", ".price", ".product-price", ".current-price"},
	},
}

// Lookup returns the merchant registered under name, or Generic.
func Lookup(name string) Merchant {
	for _, m := range builtin {
		if m.Name == name {
			return m
		}
	}
	return Generic
}

// MerchantForHost matches a hostname against the registry by substring,
// tolerating country-code subdomains (shopee.vn, amazon.co.uk, ...).
func MerchantForHost(host string) Merchant {
	h := strings.ToLower(host)
	for _, m := range builtin {
		for _, sub := range m.Hosts {
			if strings.Contains(h, sub) {
				return m
			}
		}
	}
	return Generic
}

// Merchants returns the names of all registered merchants.
func Merchants() []string {
	names := make([]string, 0, len(builtin))
	for _, m := range builtin {
		names = append(names, m.Name)
	}
	return names
}
