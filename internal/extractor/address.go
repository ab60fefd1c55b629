package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/dmaher/rentleads/internal/normalize"
	"github.com/dmaher/rentleads/internal/types"
)

// streetPattern is the last-resort sweep for a street-address shape in free
// text: a house number followed by a street name and a recognized suffix.
var streetPattern = regexp.MustCompile(`(?i)\d+\s+[A-Za-z0-9\s]+?(?:St|Street|Ave|Avenue|Rd|Road|Dr|Drive|Blvd|Boulevard|Ln|Lane|Ct|Court|Way|Pl|Place|Pkwy|Parkway)\b`)

// ExtractAddress runs the address cascade: structured listing data, microdata
// street markup, site-specific selectors, the semantic <address> element, and
// finally a street-shape regex over the page text. The result is normalized
// for display; empty means no plausible address was found, which is fine.
func (e *Extractor) ExtractAddress(page *types.Page, meta ListingMeta) string {
	if addr := addressCandidate(meta.StreetAddress); addr != "" {
		e.logger.Debug("address from structured data", "address", addr)
		return addr
	}

	doc, err := page.Document()
	if err != nil {
		return ""
	}

	if text := doc.Find(`[itemprop="streetAddress"]`).First().Text(); text != "" {
		if addr := addressCandidate(text); addr != "" {
			e.logger.Debug("address from microdata", "address", addr)
			return addr
		}
	}

	for _, selector := range e.profile.AddressSelectors {
		var found string
		doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if addr := addressCandidate(sel.Text()); addr != "" {
				found = addr
				return false
			}
			return true
		})
		if found != "" {
			e.logger.Debug("address from selector", "selector", selector, "address", found)
			return found
		}
	}

	if root, err := page.Root(); err == nil {
		for _, node := range htmlquery.Find(root, "//address") {
			if addr := addressCandidate(htmlquery.InnerText(node)); addr != "" {
				e.logger.Debug("address from address element", "address", addr)
				return addr
			}
		}
	}

	if match := streetPattern.FindString(page.Text()); match != "" {
		if addr := addressCandidate(match); addr != "" {
			e.logger.Debug("address from page text", "address", addr)
			return addr
		}
	}

	return ""
}

// addressCandidate validates and canonicalizes one raw address string. Only
// the first line matters and only the street part before any comma; the result
// must start with a house number and fall in a sane length range.
func addressCandidate(raw string) string {
	line := raw
	if idx := strings.IndexAny(line, "\n\r"); idx >= 0 {
		line = line[:idx]
	}
	line, _, _ = strings.Cut(line, ",")
	line = strings.TrimSpace(line)

	if len(line) < 10 || len(line) > 200 {
		return ""
	}
	if line[0] < '0' || line[0] > '9' {
		return ""
	}
	return normalize.Address(line)
}
