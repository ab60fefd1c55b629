package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/dmaher/rentleads/internal/types"
)

var (
	// cityStatePattern rejects "Atlanta GA" / "Atlanta, GA" shapes that site
	// chrome often places where a contact name would be.
	cityStatePattern = regexp.MustCompile(`^[A-Za-z\s]+,?\s+[A-Z]{2}$`)

	zipPattern = regexp.MustCompile(`\d{5}`)

	// labeledBusinessPattern picks a company name out of labeled page text such
	// as "Managed by Acme Property Group".
	labeledBusinessPattern = regexp.MustCompile(`(?i)(?:Managed by|Leasing Office|Property Management|Listing Agent|Contact|Agent|Landlord|Owner|Listed by)[:\s]+([A-Z][A-Za-z0-9&.,'\- ]{2,60})`)

	// titleSitePrefix strips the site-category lead-in from a <title> chunk,
	// e.g. "Apartments for rent by Acme" keeps "Acme".
	titleSitePrefix = regexp.MustCompile(`(?i)^(?:Apartments?|Rentals?|Homes?|Properties)\s+(?:for rent\s+)?(?:by|from)\s+`)
)

// genericWords are single tokens that mark a string as UI text rather than a
// name when they make up the whole candidate.
var genericWords = map[string]bool{
	"manager": true, "agent": true, "owner": true, "contact": true,
	"details": true, "more": true, "about": true, "this": true,
	"home": true, "features": true, "exterior": true, "interior": true,
	"photos": true, "appl": true, "accepts": true,
}

// fragmentVerbs mark sentence fragments scraped out of amenity or policy text,
// e.g. "Tenant is responsible for lawn care".
var fragmentVerbs = []string{
	" is ", " pays ", " responsible for ", " lawn care", " pest control",
}

// cleanName reduces a scraped name string to its usable core: first line only,
// embedded phone numbers and verification badges removed, trailing punctuation
// cut, whitespace collapsed.
func cleanName(raw string) string {
	line := raw
	if idx := strings.IndexAny(line, "\n\r"); idx >= 0 {
		line = line[:idx]
	}
	line = phonePattern.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "Verified Source", "")
	line = strings.Join(strings.Fields(line), " ")
	line = strings.TrimRight(line, " .,:;|-")
	return strings.TrimSpace(line)
}

// validName reports whether a cleaned string plausibly names a person or
// company rather than page chrome, a location, or a sentence fragment.
func (e *Extractor) validName(name string) bool {
	if len(name) < 2 || len(name) > 80 {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	if zipPattern.MatchString(name) {
		return false
	}
	if cityStatePattern.MatchString(name) {
		return false
	}

	lower := strings.ToLower(name)
	if strings.Contains(lower, strings.ToLower(e.profile.SiteToken)) {
		return false
	}
	for _, token := range e.profile.NoiseTokens() {
		if strings.Contains(lower, token) {
			return false
		}
	}

	words := strings.Fields(lower)
	if len(words) == 0 {
		return false
	}

	generic := true
	for _, w := range words {
		if !genericWords[strings.Trim(w, ".,:")] {
			generic = false
			break
		}
	}
	if generic {
		return false
	}

	if len(words) > 3 {
		padded := " " + lower + " "
		for _, verb := range fragmentVerbs {
			if strings.Contains(padded, verb) {
				return false
			}
		}
	}

	// Single-word names are accepted only when long enough to look like a
	// company name ("Greystar") rather than a stray token.
	if len(words) == 1 && len(name) < 8 {
		return false
	}
	return true
}

// NoiseTokens returns the lowercase substrings that disqualify a name
// candidate for this site. The site's own brand is always included.
func (p *Profile) NoiseTokens() []string {
	return []string{
		strings.ToLower(p.SiteToken),
		"sign in", "sign up", "log in", "skip to", "main content",
		"menu", "search", "filters", "save this",
	}
}

// ExtractAgentName runs the person-name cascade: structured agent data, then
// the site's agent selectors. Empty means unknown.
func (e *Extractor) ExtractAgentName(page *types.Page, meta ListingMeta) string {
	if meta.Agent != nil {
		if name := cleanName(meta.Agent.Name); e.validName(name) {
			e.logger.Debug("agent name from structured data", "name", name)
			return name
		}
	}

	doc, err := page.Document()
	if err != nil {
		return ""
	}
	if name := e.nameFromSelectors(doc, e.profile.AgentSelectors); name != "" {
		e.logger.Debug("agent name from selector", "name", name)
		return name
	}
	return ""
}

// ExtractBusinessName runs the company-name cascade: structured listing name,
// site-specific selectors, labeled free text, page headers, and finally the
// document title.
func (e *Extractor) ExtractBusinessName(page *types.Page, meta ListingMeta) string {
	if name := cleanName(meta.Name); e.validName(name) {
		e.logger.Debug("business name from structured data", "name", name)
		return name
	}

	doc, err := page.Document()
	if err != nil {
		return ""
	}

	if name := e.nameFromSelectors(doc, e.profile.BusinessSelectors); name != "" {
		e.logger.Debug("business name from selector", "name", name)
		return name
	}

	if match := labeledBusinessPattern.FindStringSubmatch(page.Text()); match != nil {
		if name := cleanName(match[1]); e.validName(name) {
			e.logger.Debug("business name from labeled text", "name", name)
			return name
		}
	}

	if root, err := page.Root(); err == nil {
		for _, node := range htmlquery.Find(root, "//h1 | //h2") {
			if name := cleanName(htmlquery.InnerText(node)); e.validName(name) {
				e.logger.Debug("business name from header", "name", name)
				return name
			}
		}
	}

	if name := e.nameFromTitle(doc); name != "" {
		e.logger.Debug("business name from title", "name", name)
		return name
	}
	return ""
}

func (e *Extractor) nameFromSelectors(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if name := cleanName(sel.Text()); e.validName(name) {
				found = name
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// nameFromTitle takes the first chunk of the document title before a dash or
// pipe separator, after stripping a site-category prefix.
func (e *Extractor) nameFromTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return ""
	}
	chunk := title
	if idx := strings.IndexAny(chunk, "-|"); idx >= 0 {
		chunk = chunk[:idx]
	}
	chunk = titleSitePrefix.ReplaceAllString(strings.TrimSpace(chunk), "")
	if name := cleanName(chunk); e.validName(name) {
		return name
	}
	return ""
}
