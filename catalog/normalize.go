package catalog

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Normalize canonicalizes a product URL for de-duplication: lowercases
// scheme and host, removes the fragment, applies the merchant's query rule,
// sorts surviving query params, and strips the trailing slash (except root).
// Normalizing an already-normalized URL is a no-op.
func Normalize(m Merchant, raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")

	switch m.Rule {
	case StripAll:
		parsed.RawQuery = ""
	default:
		parsed.RawQuery = filterQuery(parsed.Query())
	}

	return parsed.String(), nil
}

// filterQuery drops tracking params and re-encodes the rest sorted by key
// for a stable canonical form.
func filterQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if isTrackingParam(strings.ToLower(k)) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for i, k := range keys {
		vals := params[k]
		sort.Strings(vals)
		for j, v := range vals {
			if i > 0 || j > 0 {
				buf.WriteByte('&')
			}
			buf.WriteString(url.QueryEscape(k))
			buf.WriteByte('=')
			buf.WriteString(url.QueryEscape(v))
		}
	}
	return buf.String()
}

// ProductHash derives the content-addressed natural key for a product:
// two URLs that normalize identically under the same merchant collapse to
// one catalog entry. Insertion is an upsert keyed on this hash.
func ProductHash(merchant, normalizedURL string) string {
	sum := sha256.Sum256([]byte(merchant + "\x00" + normalizedURL))
	return fmt.Sprintf("%x", sum)
}
