// Package extract runs the price-extraction cascade over a fetched product
// document. Methods are tried in decreasing order of trust — structured
// data, declarative meta tags, embedded state blobs, DOM selectors — and
// the first usable amount wins.
//
// An amount of exactly 0 is always treated as "not found": it is a parser
// artifact, not a price anybody charges.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/pricewatch/catalog"
)

// Method names the cascade stage that produced a result.
type Method string

const (
	MethodStructured Method = "structured" // JSON-LD product/offer markup
	MethodMeta       Method = "meta"       // price meta tags
	MethodStateBlob  Method = "state_blob" // embedded application state JSON
	MethodDOM        Method = "dom"        // merchant CSS selectors
)

// Extracted is a normalized price reading plus its provenance.
type Extracted struct {
	Raw      string  `json:"raw"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Method   Method  `json:"method"`
}

// Parse parses raw HTML into a document usable by Extract.
func Parse(markup string) (*goquery.Document, error) {
	node, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(node), nil
}

// Extract runs the cascade. ok is false when no stage yields a usable
// amount. Currency falls back to the merchant default when no stage
// reports one explicitly.
func Extract(doc *goquery.Document, m catalog.Merchant) (Extracted, bool) {
	stages := []func(*goquery.Document, catalog.Merchant) (Extracted, bool){
		fromStructuredData,
		fromMetaTags,
		fromStateBlob,
		fromSelectors,
	}

	for _, stage := range stages {
		res, ok := stage(doc, m)
		if !ok || res.Amount <= 0 {
			continue
		}
		if res.Currency == "" {
			res.Currency = m.DefaultCurrency
		}
		return res, true
	}
	return Extracted{}, false
}

// titlePolicy strips any markup a hostile page smuggles into title
// fields before they reach the catalog.
var titlePolicy = bluemonday.StrictPolicy()

// Title pulls the page title for catalog freshening: og:title wins over
// <title> since merchants stuff SEO noise into the latter.
func Title(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(titlePolicy.Sanitize(v)); t != "" {
			return t
		}
	}
	return strings.TrimSpace(titlePolicy.Sanitize(doc.Find("title").First().Text()))
}
