package extractor

import (
	"log/slog"
	"testing"

	"github.com/dmaher/rentleads/internal/types"
)

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	return New(Apartments(), slog.New(slog.DiscardHandler))
}

func pageOf(t *testing.T, html string) *types.Page {
	t.Helper()
	return types.NewPage("https://www.apartments.com/property/test-listing", []byte(html))
}

func TestExtractPhoneFromStructuredData(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type":"SingleFamilyResidence","name":"123 Main St","telephone":"(404) 334-2532"}
		</script>
		</head><body><a href="tel:+15559990000">Call</a></body></html>`

	e := testExtractor(t)
	candidate, ok := e.Extract(pageOf(t, html))
	if !ok {
		t.Fatal("expected a candidate")
	}
	// Structured data outranks the tel link.
	if candidate.Phone != "4043342532" {
		t.Errorf("phone = %q, want 4043342532", candidate.Phone)
	}
}

func TestExtractPhoneFromTelLink(t *testing.T) {
	html := `<html><body>
		<a href="tel:404-334-2532">Call now</a>
		<p>Office: 555-111-2222</p>
	</body></html>`

	e := testExtractor(t)
	candidate, ok := e.Extract(pageOf(t, html))
	if !ok {
		t.Fatal("expected a candidate")
	}
	if candidate.Phone != "4043342532" {
		t.Errorf("phone = %q, want 4043342532", candidate.Phone)
	}
}

func TestExtractPhoneFromContactSelector(t *testing.T) {
	html := `<html><body>
		<div class="contactBlock">Call (404) 334-2532 to schedule a tour</div>
	</body></html>`

	e := testExtractor(t)
	phone, ok := e.ExtractPhone(pageOf(t, html), ListingMeta{})
	if !ok || phone != "4043342532" {
		t.Errorf("phone = %q, ok = %v, want 4043342532", phone, ok)
	}
}

func TestExtractPhoneFromPageText(t *testing.T) {
	html := `<html><body>
		<p>Questions about this rental? Reach us at 404.334.2532 any time.</p>
	</body></html>`

	e := testExtractor(t)
	phone, ok := e.ExtractPhone(pageOf(t, html), ListingMeta{})
	if !ok || phone != "4043342532" {
		t.Errorf("phone = %q, ok = %v, want 4043342532", phone, ok)
	}
}

func TestExtractNoPhone(t *testing.T) {
	html := `<html><body><h1>Beautiful 3BR Home</h1><p>No contact info here.</p></body></html>`

	e := testExtractor(t)
	if _, ok := e.Extract(pageOf(t, html)); ok {
		t.Error("expected no candidate for a page without a phone")
	}
}

func TestExtractPhoneIgnoresInvalidTelLink(t *testing.T) {
	html := `<html><body>
		<a href="tel:911">Emergency</a>
		<a href="tel:404-334-2532">Leasing office</a>
	</body></html>`

	e := testExtractor(t)
	phone, ok := e.ExtractPhone(pageOf(t, html), ListingMeta{})
	if !ok || phone != "4043342532" {
		t.Errorf("phone = %q, ok = %v, want 4043342532", phone, ok)
	}
}

func TestExtractAddressCascade(t *testing.T) {
	tests := []struct {
		name string
		html string
		meta ListingMeta
		want string
	}{
		{
			name: "structured data wins",
			html: `<html><body><span itemprop="streetAddress">999 Wrong Rd</span></body></html>`,
			meta: ListingMeta{StreetAddress: "123 main st"},
			want: "123 Main ST",
		},
		{
			name: "microdata",
			html: `<html><body><span itemprop="streetAddress">456 Oak Ave, Atlanta, GA</span></body></html>`,
			want: "456 Oak AVE",
		},
		{
			name: "site selector",
			html: `<html><body><div class="propertyAddress">789 N Highland Blvd</div></body></html>`,
			want: "789 N Highland BLVD",
		},
		{
			name: "address element",
			html: `<html><body><address>1015 Peachtree Pkwy NE</address></body></html>`,
			want: "1015 Peachtree PKWY NE",
		},
		{
			name: "text regex fallback",
			html: `<html><body><p>Located at 2200 Riverside Drive near the park.</p></body></html>`,
			want: "2200 Riverside Drive",
		},
		{
			name: "no address",
			html: `<html><body><p>Great location!</p></body></html>`,
			want: "",
		},
		{
			name: "rejects non numeric start",
			html: `<html><body><div class="propertyAddress">Peachtree Street Atlanta</div></body></html>`,
			want: "",
		},
	}

	e := testExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractAddress(pageOf(t, tt.html), tt.meta)
			if got != tt.want {
				t.Errorf("ExtractAddress = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"John Smith", true},
		{"Acme Property Group", true},
		{"Greystar", true},         // single long word
		{"Bob", false},             // single short word
		{"Atlanta, GA", false},     // city-state
		{"Atlanta GA", false},      // city-state without comma
		{"30309", false},           // zip only
		{"Zip 30309 Area", false},  // embedded zip
		{"123 Main St", false},     // leading digit
		{"Contact", false},         // generic
		{"More Details", false},    // generic pair
		{"Apartments.com Living", false},
		{"Tenant is responsible for lawn care", false},
		{"", false},
	}

	e := testExtractor(t)
	for _, tt := range tests {
		if got := e.validName(tt.in); got != tt.want {
			t.Errorf("validName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Smith\nSenior Agent", "John Smith"},
		{"Call John Smith 404-334-2532", "Call John Smith"},
		{"Acme Realty Verified Source", "Acme Realty"},
		{"  Acme   Group , ", "Acme Group"},
	}

	for _, tt := range tests {
		if got := cleanName(tt.in); got != tt.want {
			t.Errorf("cleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractBusinessNameFromLabeledText(t *testing.T) {
	html := `<html><body>
		<p>This property is Managed by: Magnolia Property Group</p>
	</body></html>`

	e := testExtractor(t)
	got := e.ExtractBusinessName(pageOf(t, html), ListingMeta{})
	if got != "Magnolia Property Group" {
		t.Errorf("business = %q, want Magnolia Property Group", got)
	}
}

func TestExtractBusinessNameFromTitle(t *testing.T) {
	html := `<html><head>
		<title>Apartments for rent by Magnolia Group - Atlanta, GA</title>
	</head><body></body></html>`

	e := testExtractor(t)
	got := e.ExtractBusinessName(pageOf(t, html), ListingMeta{})
	if got != "Magnolia Group" {
		t.Errorf("business = %q, want Magnolia Group", got)
	}
}

func TestExtractAgentNameFromStructuredData(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type":"RentAction","agent":{"name":"Jane Doe","telephone":"404-334-2532"}}
		</script>
		</head><body></body></html>`

	e := testExtractor(t)
	page := pageOf(t, html)
	doc, err := page.Document()
	if err != nil {
		t.Fatal(err)
	}
	meta := ParseListingMeta(doc, slog.New(slog.DiscardHandler))

	if got := e.ExtractAgentName(page, meta); got != "Jane Doe" {
		t.Errorf("agent = %q, want Jane Doe", got)
	}
	if phone, ok := e.ExtractPhone(page, meta); !ok || phone != "4043342532" {
		t.Errorf("phone = %q, ok = %v, want agent telephone", phone, ok)
	}
}

func TestParseListingMetaArrayAndMalformed(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{not json at all</script>
		<script type="application/ld+json">
		[{"@type":"BreadcrumbList"},{"@type":"Apartment","name":"The Oaks","address":{"streetAddress":"550 Elm St","addressLocality":"Atlanta"}}]
		</script>
		</head><body></body></html>`

	page := pageOf(t, html)
	doc, err := page.Document()
	if err != nil {
		t.Fatal(err)
	}
	meta := ParseListingMeta(doc, slog.New(slog.DiscardHandler))
	if meta.StreetAddress != "550 Elm St" {
		t.Errorf("street = %q, want 550 Elm St", meta.StreetAddress)
	}
	if meta.Name != "The Oaks" {
		t.Errorf("name = %q, want The Oaks", meta.Name)
	}
}

func TestDiscoverLinks(t *testing.T) {
	html := `<html><body>
		<article class="placard">
			<a class="property-link" href="/property/oak-ridge-atlanta-ga/">Oak Ridge</a>
		</article>
		<article class="placard">
			<a class="property-link" href="https://www.apartments.com/property/elm-court-atlanta-ga/?utm_source=x">Elm Court</a>
		</article>
		<a class="property-link" href="/property/oak-ridge-atlanta-ga/">duplicate</a>
		<a href="https://other-site.com/property/offsite/">offsite</a>
		<a class="property-link" href="/houses/atlanta-ga/2/">next page</a>
	</body></html>`

	e := testExtractor(t)
	links, err := e.DiscoverLinks(pageOf(t, html))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"https://www.apartments.com/property/oak-ridge-atlanta-ga",
		"https://www.apartments.com/property/elm-court-atlanta-ga",
	}
	if len(links) != len(want) {
		t.Fatalf("got %d links %v, want %d", len(links), links, len(want))
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}
