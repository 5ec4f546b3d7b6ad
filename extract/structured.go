package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/priceparse"
)

// ldNode is the subset of a JSON-LD block the cascade cares about. price
// and priceCurrency arrive as string or number depending on the site, so
// both are raw messages decoded leniently.
type ldNode struct {
	Type          json.RawMessage `json:"@type"`
	Graph         []ldNode        `json:"@graph"`
	Offers        json.RawMessage `json:"offers"`
	Price         json.RawMessage `json:"price"`
	PriceCurrency string          `json:"priceCurrency"`
}

type ldOffer struct {
	Price         json.RawMessage `json:"price"`
	PriceCurrency string          `json:"priceCurrency"`
	LowPrice      json.RawMessage `json:"lowPrice"`
}

// fromStructuredData reads the first well-formed JSON-LD block whose
// declared type is Product or Offer. Highest-trust stage: the merchant
// published this for machines.
func fromStructuredData(doc *goquery.Document, m catalog.Merchant) (Extracted, bool) {
	var out Extracted
	var found bool

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var node ldNode
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			// Some sites emit a top-level array of blocks.
			var nodes []ldNode
			if err := json.Unmarshal([]byte(s.Text()), &nodes); err != nil {
				return true
			}
			for _, n := range nodes {
				if res, ok := offerFromNode(n); ok {
					out, found = res, true
					return false
				}
			}
			return true
		}
		if res, ok := offerFromNode(node); ok {
			out, found = res, true
			return false
		}
		return true
	})

	return out, found
}

func offerFromNode(n ldNode) (Extracted, bool) {
	if t := ldType(n.Type); t == "product" || t == "offer" {
		if res, ok := offerPrice(n.Offers); ok {
			return res, true
		}
		// An Offer block carries price fields directly on the node.
		if t == "offer" {
			if res, ok := priceFields(n.Price, n.PriceCurrency); ok {
				return res, true
			}
		}
	}
	for _, g := range n.Graph {
		if res, ok := offerFromNode(g); ok {
			return res, true
		}
	}
	return Extracted{}, false
}

// offerPrice handles offers as a single object or an array (first element
// wins, per the contract).
func offerPrice(raw json.RawMessage) (Extracted, bool) {
	if len(raw) == 0 {
		return Extracted{}, false
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var offers []json.RawMessage
		if err := json.Unmarshal(raw, &offers); err != nil || len(offers) == 0 {
			return Extracted{}, false
		}
		raw = offers[0]
	}
	return decodeOffer(raw)
}

func decodeOffer(raw json.RawMessage) (Extracted, bool) {
	var offer ldOffer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return Extracted{}, false
	}
	priceRaw := offer.Price
	if len(priceRaw) == 0 {
		priceRaw = offer.LowPrice // AggregateOffer
	}
	return priceFields(priceRaw, offer.PriceCurrency)
}

// priceFields normalizes a JSON-LD price scalar plus declared currency.
func priceFields(priceRaw json.RawMessage, currency string) (Extracted, bool) {
	text := rawScalar(priceRaw)
	if text == "" {
		return Extracted{}, false
	}

	// JSON-LD prices are machine-formatted (dot-decimal), so no locale
	// hint: "1299.00" must stay 1299 even for thousands-dot currencies.
	amount, ok := priceparse.Parse(text, "")
	if !ok || amount <= 0 {
		return Extracted{}, false
	}
	return Extracted{
		Raw:      text,
		Amount:   amount,
		Currency: strings.ToUpper(currency),
		Method:   MethodStructured,
	}, true
}

// ldType decodes @type, which may be a string or an array of strings.
func ldType(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.ToLower(s)
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, t := range arr {
			lt := strings.ToLower(t)
			if lt == "product" || lt == "offer" {
				return lt
			}
		}
	}
	return ""
}

// rawScalar renders a raw JSON scalar (string or number) as text.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return fmt.Sprintf("%v", f)
	}
	return ""
}
