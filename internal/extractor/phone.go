package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmaher/rentleads/internal/normalize"
	"github.com/dmaher/rentleads/internal/types"
)

// phonePattern matches US phone shapes in free text: optional country code,
// optional area-code parens, separators of space, dot, or dash.
var phonePattern = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)

// ExtractPhone runs the phone cascade and returns the first candidate that
// normalizes to a valid 10-digit number. Strategy order: structured listing
// data, tel: links, site-specific contact selectors, then a regex sweep of the
// page's visible text. Earlier strategies are more precise; the text sweep is
// the noisiest and runs last.
func (e *Extractor) ExtractPhone(page *types.Page, meta ListingMeta) (string, bool) {
	if phone, ok := phoneFromMeta(meta); ok {
		e.logger.Debug("phone from structured data", "phone", phone)
		return phone, true
	}

	doc, err := page.Document()
	if err != nil {
		return "", false
	}

	if phone, ok := phoneFromTelLinks(doc); ok {
		e.logger.Debug("phone from tel link", "phone", phone)
		return phone, true
	}

	if phone, ok := phoneFromSelectors(doc, e.profile.PhoneSelectors); ok {
		e.logger.Debug("phone from contact selector", "phone", phone)
		return phone, true
	}

	if phone, ok := phoneFromText(page.Text()); ok {
		e.logger.Debug("phone from page text", "phone", phone)
		return phone, true
	}

	return "", false
}

func phoneFromMeta(meta ListingMeta) (string, bool) {
	if phone, ok := normalize.Phone(meta.Telephone); ok {
		return phone, true
	}
	if meta.Agent != nil {
		if phone, ok := normalize.Phone(meta.Agent.Telephone); ok {
			return phone, true
		}
	}
	return "", false
}

func phoneFromTelLinks(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(`a[href^="tel:"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		raw := strings.TrimPrefix(href, "tel:")
		if phone, ok := normalize.Phone(raw); ok {
			found = phone
			return false
		}
		return true
	})
	return found, found != ""
}

func phoneFromSelectors(doc *goquery.Document, selectors []string) (string, bool) {
	for _, selector := range selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if match := phonePattern.FindString(sel.Text()); match != "" {
				if phone, ok := normalize.Phone(match); ok {
					found = phone
					return false
				}
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

func phoneFromText(text string) (string, bool) {
	for _, match := range phonePattern.FindAllString(text, 10) {
		if phone, ok := normalize.Phone(match); ok {
			return phone, true
		}
	}
	return "", false
}
