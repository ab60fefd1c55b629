// Package normalize holds the pure canonicalization rules for the three
// identity-bearing values in the pipeline: phone numbers (record keys),
// street addresses (set members), and page URLs (crawl-state keys).
package normalize

import (
	"net/url"
	"strings"
	"unicode"
)

// Phone reduces a raw phone string to a canonical 10-digit form. All
// non-digit characters are stripped; an 11-digit result with a leading 1 (US
// country code) is reduced to 10. Any other digit count is invalid and the
// second return is false — never an error, absence of a phone is a normal
// outcome for a page.
func Phone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", false
	}
	return digits, true
}

// streetSuffixes and directionals are forced to uppercase during address
// normalization; every other word is title-cased.
var streetSuffixes = map[string]bool{
	"ST": true, "AVE": true, "RD": true, "BLVD": true, "LN": true,
	"CT": true, "DR": true, "WAY": true, "PL": true, "PKWY": true,
}

var directionals = map[string]bool{
	"N": true, "S": true, "E": true, "W": true,
	"NE": true, "NW": true, "SE": true, "SW": true,
}

// Address produces a consistent display form for a street address so the same
// physical address extracted by different strategies deduplicates in a
// phone's address set. Whitespace is collapsed, directional and street-suffix
// abbreviations are uppercased, everything else is title-cased. Idempotent.
func Address(raw string) string {
	words := strings.Fields(raw)
	for i, w := range words {
		upper := strings.ToUpper(w)
		switch {
		case streetSuffixes[upper] || directionals[upper]:
			words[i] = upper
		default:
			words[i] = titleWord(w)
		}
	}
	return strings.Join(words, " ")
}

// titleWord uppercases the first letter and lowercases the rest.
func titleWord(w string) string {
	runes := []rune(w)
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}

// URL canonicalizes a page URL for crawl-state deduplication: the query
// string and fragment are discarded and a single trailing slash is stripped,
// so URLs differing only in tracking parameters map to the same key.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(raw, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}
