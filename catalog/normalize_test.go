package catalog

import (
	"errors"
	"testing"
)

func TestNormalize_StripTracking(t *testing.T) {
	// WHAT: Tracking params are removed, content params survive sorted.
	// WHY: De-dup must collapse URLs that differ only by tracking noise.
	m := Lookup("amazon")
	got, err := Normalize(m, "https://www.Amazon.com/dp/B08N5WRWNW/?tag=aff-20&utm_source=tw&th=1#reviews")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := "https://www.amazon.com/dp/B08N5WRWNW?th=1"
	if got != want {
		t.Fatalf("normalize: got %q, want %q", got, want)
	}
}

func TestNormalize_StripAll(t *testing.T) {
	// WHAT: StripAll merchants lose every query param.
	// WHY: Shopee product identity lives in the path.
	m := Lookup("shopee")
	got, err := Normalize(m, "https://shopee.vn/product-i.1234.5678?sp_atk=abc&xptdk=def")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := "https://shopee.vn/product-i.1234.5678"
	if got != want {
		t.Fatalf("normalize: got %q, want %q", got, want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	// WHAT: normalize(normalize(u)) == normalize(u).
	// WHY: Re-seeding an already-canonical URL must not create a new entry.
	urls := []string{
		"https://shopee.vn/x-i.1.2?gclid=z",
		"https://www.amazon.co.uk/dp/B0ABC?psc=1&ref=sr_1_1",
		"https://tiki.vn/p123.html?utm_campaign=x&spid=9",
		"https://example.com/item/42/",
	}
	for _, raw := range urls {
		m := MerchantForHost(hostOf(t, raw))
		once, err := Normalize(m, raw)
		if err != nil {
			t.Fatalf("normalize %q: %v", raw, err)
		}
		twice, err := Normalize(m, once)
		if err != nil {
			t.Fatalf("re-normalize %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	// WHAT: Empty, schemeless, and hostless inputs are rejected.
	for _, raw := range []string{"", "ftp://example.com/x", "not a url", "https:///path-only"} {
		if _, err := Normalize(Generic, raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("normalize %q: expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestProductHash_EqualAcrossTracking(t *testing.T) {
	// WHAT: Two URLs differing only by stripped params hash identically.
	// WHY: The hash is the upsert key preventing duplicate catalog rows.
	m := Lookup("lazada")
	u1, _ := Normalize(m, "https://www.lazada.vn/products/x-i123.html?spm=a2o4n.home&mc_cid=7")
	u2, _ := Normalize(m, "https://www.lazada.vn/products/x-i123.html?utm_medium=mail")
	if ProductHash(m.Name, u1) != ProductHash(m.Name, u2) {
		t.Fatalf("hash mismatch: %q vs %q", u1, u2)
	}
}

func TestProductHash_MerchantScoped(t *testing.T) {
	// WHAT: Same URL under different merchants yields different hashes.
	u := "https://example.com/item"
	if ProductHash("a", u) == ProductHash("b", u) {
		t.Fatal("hash should be merchant-scoped")
	}
}

func TestMerchantForHost(t *testing.T) {
	// WHAT: Hostname substring matching tolerates ccTLD variants.
	cases := map[string]string{
		"shopee.vn":        "shopee",
		"shopee.co.id":     "shopee",
		"www.amazon.co.jp": "amazon",
		"www.ebay.de":      "ebay",
		"unknown-shop.io":  "generic",
	}
	for host, want := range cases {
		if got := MerchantForHost(host).Name; got != want {
			t.Errorf("host %q: got %q, want %q", host, got, want)
		}
	}
}

func hostOf(t *testing.T, raw string) string {
	t.Helper()
	m := Generic
	norm, err := Normalize(m, raw)
	if err != nil {
		t.Fatalf("host of %q: %v", raw, err)
	}
	// normalized form always has scheme://host...
	rest := norm[len("https://"):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' || rest[i] == '?' {
			return rest[:i]
		}
	}
	return rest
}
