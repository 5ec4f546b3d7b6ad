package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/priceparse"
)

// metaAmountSelectors are declarative price meta fields, in trust order.
var metaAmountSelectors = []string{
	`meta[property="product:price:amount"]`,
	`meta[property="og:price:amount"]`,
	`meta[itemprop="price"]`,
}

var metaCurrencySelectors = []string{
	`meta[property="product:price:currency"]`,
	`meta[property="og:price:currency"]`,
	`meta[itemprop="priceCurrency"]`,
}

// fromMetaTags reads dedicated price meta attributes. Second trust tier:
// still declarative, but less standardized than JSON-LD.
func fromMetaTags(doc *goquery.Document, m catalog.Merchant) (Extracted, bool) {
	var raw string
	for _, sel := range metaAmountSelectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				raw = v
				break
			}
		}
	}
	if raw == "" {
		return Extracted{}, false
	}

	var currency string
	for _, sel := range metaCurrencySelectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				currency = strings.ToUpper(v)
				break
			}
		}
	}

	// Meta content is machine-formatted like JSON-LD.
	amount, ok := priceparse.Parse(raw, "")
	if !ok || amount <= 0 {
		return Extracted{}, false
	}
	return Extracted{Raw: raw, Amount: amount, Currency: currency, Method: MethodMeta}, true
}
