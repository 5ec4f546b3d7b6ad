package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/pricewatch/catalog"
)

func mustDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := Parse(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtract_StructuredDataWins(t *testing.T) {
	// WHAT: A valid JSON-LD Product block short-circuits later stages.
	// WHY: Structured data is the highest-trust source.
	markup := `<html><head>
		<script type="application/ld+json">
		{"@type":"Product","name":"Widget","offers":{"@type":"Offer","price":"129900","priceCurrency":"VND"}}
		</script>
		</head><body><span class="price">999</span></body></html>`
	res, ok := Extract(mustDoc(t, markup), catalog.Lookup("shopee"))
	if !ok {
		t.Fatal("expected extraction")
	}
	if res.Amount != 129900 {
		t.Fatalf("amount: got %v, want 129900", res.Amount)
	}
	if res.Method != MethodStructured {
		t.Fatalf("method: got %q, want structured", res.Method)
	}
	if res.Currency != "VND" {
		t.Fatalf("currency: got %q", res.Currency)
	}
}

func TestExtract_StructuredOffersArray(t *testing.T) {
	// WHAT: offers as an array uses the first element.
	markup := `<script type="application/ld+json">
	{"@type":"Product","offers":[{"price":49.99,"priceCurrency":"USD"},{"price":59.99}]}
	</script>`
	res, ok := Extract(mustDoc(t, markup), catalog.Generic)
	if !ok || res.Amount != 49.99 || res.Currency != "USD" {
		t.Fatalf("got %+v ok=%v", res, ok)
	}
}

func TestExtract_StructuredGraph(t *testing.T) {
	// WHAT: Product nested in @graph is still found.
	markup := `<script type="application/ld+json">
	{"@graph":[{"@type":"WebPage"},{"@type":"Product","offers":{"price":"19.50","priceCurrency":"EUR"}}]}
	</script>`
	res, ok := Extract(mustDoc(t, markup), catalog.Generic)
	if !ok || res.Amount != 19.5 || res.Currency != "EUR" {
		t.Fatalf("got %+v ok=%v", res, ok)
	}
}

func TestExtract_MalformedJSONLDFallsThrough(t *testing.T) {
	// WHAT: Broken JSON-LD does not abort the cascade.
	markup := `<head>
		<script type="application/ld+json">{not json</script>
		<meta property="product:price:amount" content="250000">
		<meta property="product:price:currency" content="VND">
		</head>`
	res, ok := Extract(mustDoc(t, markup), catalog.Lookup("shopee"))
	if !ok || res.Method != MethodMeta {
		t.Fatalf("got %+v ok=%v", res, ok)
	}
	if res.Amount != 250000 || res.Currency != "VND" {
		t.Fatalf("got %+v", res)
	}
}

func TestExtract_ZeroIsNotFound(t *testing.T) {
	// WHAT: An amount of exactly 0 triggers fallthrough, then failure.
	// WHY: Zero is a parser artifact, not a real price.
	markup := `<head>
		<script type="application/ld+json">{"@type":"Product","offers":{"price":"0"}}</script>
		<meta property="og:price:amount" content="0">
		</head>`
	if _, ok := Extract(mustDoc(t, markup), catalog.Generic); ok {
		t.Fatal("zero price should be not-found")
	}
}

func TestExtract_StateBlob(t *testing.T) {
	// WHAT: A large inline state blob with a plausible price field is
	// used when declarative stages miss.
	pad := strings.Repeat(`{"k":"v"},`, 100)
	markup := `<script>window.__INITIAL_STATE__={"junk":[` + pad + `{}],"item":{"sellingPrice":459000,"name":"x"}}</script>`
	res, ok := Extract(mustDoc(t, markup), catalog.Lookup("tiki"))
	if !ok || res.Method != MethodStateBlob {
		t.Fatalf("got %+v ok=%v", res, ok)
	}
	if res.Amount != 459000 {
		t.Fatalf("amount: got %v", res.Amount)
	}
	if res.Currency != "VND" {
		t.Fatalf("currency fallback: got %q", res.Currency)
	}
}

func TestExtract_StateBlobRejectsGarbage(t *testing.T) {
	// WHAT: Regex hits that fail structural validation are discarded.
	pad := strings.Repeat("x", 600)
	markup := `<script>/* ` + pad + ` */ var s = '"price": "unavailable"';</script>`
	if _, ok := Extract(mustDoc(t, markup), catalog.Generic); ok {
		t.Fatal("garbage blob value should not extract")
	}
}

func TestExtract_DOMSelectors(t *testing.T) {
	// WHAT: Merchant selectors read the visible price as last resort.
	markup := `<body><div class="IZPeQz">₫1.299.000</div></body>`
	res, ok := Extract(mustDoc(t, markup), catalog.Lookup("shopee"))
	if !ok || res.Method != MethodDOM {
		t.Fatalf("got %+v ok=%v", res, ok)
	}
	if res.Amount != 1299000 || res.Currency != "VND" {
		t.Fatalf("got %+v", res)
	}
}

func TestExtract_DOMIntegerCentsConcat(t *testing.T) {
	// WHAT: Split integer/cents selectors are concatenated before parsing,
	// with any grouping inside the integer part removed first.
	// WHY: a dot-grouped integer part ("1.234" + "56") would otherwise
	// join into a two-dot numeral and parse 100x too large.
	cases := map[string]struct {
		whole, fraction string
		want            float64
	}{
		"comma grouped": {"1,299.", "99", 1299.99},
		"dot grouped":   {"1.234", "56", 1234.56},
		"ungrouped":     {"42", "00", 42},
	}
	for name, tc := range cases {
		markup := `<body><span class="a-price-whole">` + tc.whole +
			`</span><span class="a-price-fraction">` + tc.fraction + `</span></body>`
		res, ok := Extract(mustDoc(t, markup), catalog.Lookup("amazon"))
		if !ok {
			t.Fatalf("%s: expected extraction", name)
		}
		if res.Amount != tc.want {
			t.Fatalf("%s: amount: got %v, want %v", name, res.Amount, tc.want)
		}
	}
}

func TestExtract_NotFound(t *testing.T) {
	markup := `<body><p>Out of stock</p></body>`
	if _, ok := Extract(mustDoc(t, markup), catalog.Generic); ok {
		t.Fatal("expected not found")
	}
}

func TestTitle(t *testing.T) {
	// WHAT: og:title beats <title>.
	markup := `<head><title>Buy Widget | MegaShop</title><meta property="og:title" content="Widget"></head>`
	if got := Title(mustDoc(t, markup)); got != "Widget" {
		t.Fatalf("title: got %q", got)
	}
	markup = `<head><title>Widget</title></head>`
	if got := Title(mustDoc(t, markup)); got != "Widget" {
		t.Fatalf("title fallback: got %q", got)
	}
}
