package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/priceparse"
)

// groupSeps drops grouping separators from a split integer part.
var groupSeps = strings.NewReplacer(".", "", ",", "")

// fromSelectors reads the visible price from merchant-specific DOM
// selectors. Last stage: whatever the page renders for humans.
func fromSelectors(doc *goquery.Document, m catalog.Merchant) (Extracted, bool) {
	sel := m.Selectors

	// Split integer/cents layout (Amazon-style) takes precedence when the
	// merchant declares it: the whole-price selector on those pages holds
	// a screen-reader duplicate that is not always present.
	if sel.IntegerPart != "" && sel.CentsPart != "" {
		intPart := strings.TrimSpace(doc.Find(sel.IntegerPart).First().Text())
		centsPart := strings.TrimSpace(doc.Find(sel.CentsPart).First().Text())
		if intPart != "" && centsPart != "" {
			// The integer selector carries whatever grouping the locale
			// renders ("1,234" or "1.234"); the join supplies the one real
			// decimal point, so all separators in the integer part go.
			raw := groupSeps.Replace(intPart) + "." + centsPart
			cur := priceparse.Currency(intPart)
			if cur == "" {
				cur = m.DefaultCurrency
			}
			if amount, ok := priceparse.Parse(raw, ""); ok && amount > 0 {
				return Extracted{Raw: raw, Amount: amount, Currency: cur, Method: MethodDOM}, true
			}
		}
	}

	for _, s := range sel.Whole {
		text := strings.TrimSpace(doc.Find(s).First().Text())
		if text == "" {
			continue
		}
		if res, ok := domPrice(text, m); ok {
			return res, true
		}
	}
	return Extracted{}, false
}

func domPrice(raw string, m catalog.Merchant) (Extracted, bool) {
	p, ok := priceparse.ParsePrice(raw, m.DefaultCurrency)
	if !ok || p.Amount <= 0 {
		return Extracted{}, false
	}
	return Extracted{Raw: raw, Amount: p.Amount, Currency: p.Currency, Method: MethodDOM}, true
}
