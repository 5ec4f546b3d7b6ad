// Package priceparse turns raw price fragments scraped from product pages
// into normalized amounts. It is pure: no network, no DOM, never panics.
//
// The hard part is separator ambiguity. "70.378" is seventy thousand dong,
// not seventy point three. The currency hint decides: currencies that
// conventionally group thousands with '.' treat a lone '.' numeral as
// grouped, everything else treats it as a decimal point.
package priceparse

import (
	"math"
	"strconv"
	"strings"
)

// Price is a normalized (amount, currency) pair.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// thousandsDot lists currencies that conventionally use '.' as the
// thousands separator and ',' as the decimal mark.
var thousandsDot = map[string]bool{
	"VND": true, "IDR": true, "COP": true, "CLP": true,
	"HUF": true, "KRW": true, "ISK": true, "TRY": true,
	"BRL": true, "ARS": true, "EUR": true,
}

// symbols maps currency glyphs and common prefixes to ISO-like codes.
// Longer entries are checked first so "R$" wins over "$".
var symbols = []struct {
	sym  string
	code string
}{
	{"R$", "BRL"},
	{"Rp", "IDR"},
	{"kr", "SEK"},
	{"₫", "VND"},
	{"đ", "VND"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"₹", "INR"},
	{"¥", "JPY"},
	{"₩", "KRW"},
	{"$", "USD"},
}

// Currency guesses a currency code from symbols present in raw.
// Returns "" when nothing is recognized.
func Currency(raw string) string {
	for _, s := range symbols {
		if strings.Contains(raw, s.sym) {
			return s.code
		}
	}
	return ""
}

// Parse extracts a normalized amount from raw under the given currency
// hint. ok is false when raw holds no digits or the value is not a finite
// positive number — a zero reading is a placeholder, not a price.
func Parse(raw, currencyHint string) (float64, bool) {
	digits := extractNumeric(raw)
	if digits == "" {
		return 0, false
	}

	dots := strings.Count(digits, ".")
	commas := strings.Count(digits, ",")

	var cleaned string
	switch {
	case dots > 0 && commas > 0:
		// Both present: first separator groups thousands, second is the
		// decimal mark, whichever order they appear in.
		if strings.LastIndexByte(digits, '.') > strings.LastIndexByte(digits, ',') {
			cleaned = strings.ReplaceAll(digits, ",", "")
		} else {
			cleaned = strings.ReplaceAll(digits, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case commas > 0:
		// Only commas: decimal when single, grouping when repeated.
		if commas == 1 {
			cleaned = strings.Replace(digits, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(digits, ",", "")
		}
	case dots > 1:
		// Repeated dots are always grouping: 1.234.567
		cleaned = strings.ReplaceAll(digits, ".", "")
	case dots == 1:
		if thousandsDot[strings.ToUpper(currencyHint)] {
			cleaned = strings.ReplaceAll(digits, ".", "")
		} else {
			cleaned = digits
		}
	default:
		cleaned = digits
	}

	amount, ok := parseFloat(cleaned)
	if !ok || amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, false
	}
	return amount, true
}

// ParsePrice combines Parse with symbol-based currency detection,
// preferring an explicit symbol in raw over the hint.
func ParsePrice(raw, currencyHint string) (Price, bool) {
	cur := Currency(raw)
	if cur == "" {
		cur = strings.ToUpper(currencyHint)
	}
	amount, ok := Parse(raw, cur)
	if !ok {
		return Price{}, false
	}
	return Price{Amount: amount, Currency: cur}, true
}

// extractNumeric keeps the first contiguous run of digits and separators,
// dropping currency symbols, spaces, and grouping junk around it.
func extractNumeric(raw string) string {
	var b strings.Builder
	started := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			started = true
		case (r == '.' || r == ',') && started:
			b.WriteRune(r)
		case started:
			// A run ended; ignore any second numeric run ("3 for $12").
			return strings.TrimRight(b.String(), ".,")
		}
	}
	return strings.TrimRight(b.String(), ".,")
}

// parseFloat guards strconv.ParseFloat against stray separators left by
// malformed grouping ("1.2.3" with letters mixed in, etc).
func parseFloat(s string) (float64, bool) {
	if s == "" || strings.Count(s, ".") > 1 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
