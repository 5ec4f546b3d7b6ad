package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/pricewatch/catalog"
)

// priceFieldRe locates candidate price fields inside embedded application
// state (__NEXT_DATA__, window.__INITIAL_STATE__ and friends). The capture
// must then survive structural validation — a regex hit alone is not
// trusted.
var priceFieldRe = regexp.MustCompile(`"(?:price|sellingPrice|salePrice|current_price|price_amount)"\s*:\s*("?[0-9][0-9.,]*"?)`)

// stateBlobMinLen filters out tiny inline scripts; real state blobs are
// serialized app state measured in kilobytes.
const stateBlobMinLen = 512

// fromStateBlob searches inline scripts for a serialized state blob with a
// plausible price field. Lowest-confidence JSON path in the cascade.
func fromStateBlob(doc *goquery.Document, m catalog.Merchant) (Extracted, bool) {
	var out Extracted
	var found bool

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t, _ := s.Attr("type"); t == "application/ld+json" {
			return true // stage 1 territory
		}
		text := s.Text()
		if len(text) < stateBlobMinLen {
			return true
		}

		for _, match := range priceFieldRe.FindAllStringSubmatch(text, 8) {
			if amount, ok := validBlobPrice(match[1]); ok {
				out = Extracted{
					Raw:    strings.Trim(match[1], `"`),
					Amount: amount,
					Method: MethodStateBlob,
				}
				found = true
				return false
			}
		}
		return true
	})

	return out, found
}

// validBlobPrice structurally validates a captured fragment: it must
// unmarshal as a JSON scalar and yield a finite positive number. Guards
// against regex matches inside unrelated strings.
func validBlobPrice(fragment string) (float64, bool) {
	var f float64
	if err := json.Unmarshal([]byte(fragment), &f); err == nil {
		if f > 0 {
			return f, true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal([]byte(fragment), &s); err != nil {
		return 0, false
	}
	// String-typed prices in state blobs are machine-formatted.
	var f2 float64
	if err := json.Unmarshal([]byte(strings.ReplaceAll(s, ",", "")), &f2); err != nil {
		return 0, false
	}
	if f2 <= 0 {
		return 0, false
	}
	return f2, true
}
