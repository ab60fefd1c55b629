package extractor

import (
	"fmt"
	"strings"
)

// Profile is the per-site configuration table for the cascade engine: the
// selectors and URL shapes that differ between the two listing sites. The
// extraction algorithm itself is shared; only these tables vary.
type Profile struct {
	// Name identifies the crawl target ("apartments", "zillow").
	Name string

	// BaseURL is the site root, used to absolutize discovered links.
	BaseURL string

	// SiteToken is the site's own name as it appears in page chrome;
	// candidates containing it are rejected as UI noise.
	SiteToken string

	// PhoneSelectors are elements whose text is scanned for phone shapes
	// after tel: links come up empty.
	PhoneSelectors []string

	// AddressSelectors are site-specific markup patterns for the listing
	// address, tried before the generic <address> tag and regex fallbacks.
	AddressSelectors []string

	// AgentSelectors target a person name for the listing contact.
	AgentSelectors []string

	// BusinessSelectors target a company/management-company name.
	BusinessSelectors []string

	// LinkSelectors locate listing-detail links on a search results page.
	LinkSelectors []string

	// LinkContains marks detail-page URLs; a discovered link must contain at
	// least one of these substrings.
	LinkContains []string

	// LinkExcludes rejects browse/search URLs that would otherwise match.
	LinkExcludes []string

	// SearchPageURL builds the search-results URL for a city, state, and
	// 1-based page number.
	SearchPageURL func(city, state string, page int) string
}

// slugify converts "Sandy Springs" to "sandy-springs" for search URLs.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "'", "")
	return strings.ReplaceAll(s, " ", "-")
}

// Apartments returns the profile for the apartment-listings site.
func Apartments() *Profile {
	base := "https://www.apartments.com"
	return &Profile{
		Name:      "apartments",
		BaseURL:   base,
		SiteToken: "apartments.com",
		PhoneSelectors: []string{
			`a[href*="phone"]`,
			`a[href*="call"]`,
			`[class*="contact"]`,
			`[class*="phone"]`,
			`[class*="call"]`,
			`[id*="contact"]`,
			`[id*="phone"]`,
		},
		AddressSelectors: []string{
			`[data-testid*="address"]`,
			`.property-address`,
			`.propertyAddress`,
			`[class*="address"]`,
		},
		AgentSelectors: []string{
			`[class*="agent"]`,
			`[class*="contactName"]`,
		},
		BusinessSelectors: []string{
			`.logoName`,
			`[class*="management"]`,
			`[class*="company"]`,
		},
		LinkSelectors: []string{
			`article.placard a.property-link`,
			`a.property-link`,
			`a[href*="/apartments/"]`,
			`a[href*="/property/"]`,
			`article[class*="placard"] a`,
		},
		LinkContains: []string{"/apartments/", "/property/"},
		LinkExcludes: []string{"/houses/"},
		SearchPageURL: func(city, state string, page int) string {
			slug := slugify(city) + "-" + slugify(state)
			if page <= 1 {
				return fmt.Sprintf("%s/houses/%s/", base, slug)
			}
			return fmt.Sprintf("%s/houses/%s/%d/", base, slug, page)
		},
	}
}

// Zillow returns the profile for the rental-listings site.
func Zillow() *Profile {
	base := "https://www.zillow.com"
	return &Profile{
		Name:      "zillow",
		BaseURL:   base,
		SiteToken: "zillow.com",
		PhoneSelectors: []string{
			`a[href*="phone"]`,
			`a[href*="call"]`,
			`[class*="contact"]`,
			`[class*="phone"]`,
			`[data-testid*="contact"]`,
			`[data-testid*="phone"]`,
		},
		AddressSelectors: []string{
			`h1[data-test="property-card-addr"]`,
			`[data-test="property-card-addr"]`,
			`.PropertyHeaderContainer h1`,
			`h1.address`,
			`[data-testid="address"]`,
			`[class*="address"]`,
		},
		AgentSelectors: []string{
			`[data-test="agent-name"]`,
			`[data-testid="agent-name"]`,
			`.ds-listing-agent-display-name`,
			`[class*="agent-display-name"]`,
		},
		BusinessSelectors: []string{
			`.ds-listing-agent-business-name`,
			`[class*="agent-business-name"]`,
		},
		LinkSelectors: []string{
			`a[data-test="property-card-link"]`,
			`a[href*="/homedetails/"]`,
			`a[href*="/b/"]`,
			`article[data-test="property-card"] a`,
			`[data-test="property-card"] a`,
		},
		LinkContains: []string{"/homedetails/", "/b/"},
		LinkExcludes: []string{"/browse/"},
		SearchPageURL: func(city, state string, page int) string {
			slug := slugify(city) + "-" + slugify(state)
			if page <= 1 {
				return fmt.Sprintf("%s/%s/rentals/", base, slug)
			}
			return fmt.Sprintf("%s/%s/rentals/%d_p/", base, slug, page)
		},
	}
}

// ProfileFor returns the profile for a crawl-target name.
func ProfileFor(name string) (*Profile, error) {
	switch strings.ToLower(name) {
	case "apartments":
		return Apartments(), nil
	case "zillow":
		return Zillow(), nil
	default:
		return nil, fmt.Errorf("unknown site %q (want apartments or zillow)", name)
	}
}
