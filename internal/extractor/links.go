package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmaher/rentleads/internal/normalize"
	"github.com/dmaher/rentleads/internal/types"
)

// DiscoverLinks pulls listing-detail URLs out of a search results page. Links
// are absolutized against the site base, canonicalized, filtered through the
// profile's URL shapes, and deduplicated in discovery order.
func (e *Extractor) DiscoverLinks(page *types.Page) ([]string, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string

	for _, selector := range e.profile.LinkSelectors {
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			link := e.resolveLink(href)
			if link == "" || seen[link] {
				return
			}
			seen[link] = true
			links = append(links, link)
		})
	}

	e.logger.Debug("discovered listing links", "url", page.URL, "count", len(links))
	return links, nil
}

// resolveLink absolutizes and canonicalizes one href, returning "" when the
// URL does not look like a listing-detail page.
func (e *Extractor) resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	base, err := url.Parse(e.profile.BaseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Host != base.Host {
		return ""
	}

	link := normalize.URL(abs.String())
	if !e.isListingLink(link) {
		return ""
	}
	return link
}

func (e *Extractor) isListingLink(link string) bool {
	for _, excl := range e.profile.LinkExcludes {
		if strings.Contains(link, excl) {
			return false
		}
	}
	for _, want := range e.profile.LinkContains {
		if strings.Contains(link, want) {
			return true
		}
	}
	return false
}
