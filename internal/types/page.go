package types

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Page is one fetched listing or search page, handed from a fetcher to the
// extraction core. The core never fetches; it only reads this.
type Page struct {
	// URL is the address the page was requested from.
	URL string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// Body is the rendered HTML.
	Body []byte

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration

	// FetchedAt is when the page was received.
	FetchedAt time.Time

	doc  *goquery.Document
	root *html.Node
	text string
}

// NewPage creates a Page from rendered HTML.
func NewPage(url string, body []byte) *Page {
	return &Page{
		URL:       url,
		FinalURL:  url,
		Body:      body,
		FetchedAt: time.Now(),
	}
}

// Document returns the parsed goquery document, lazily initializing it.
func (p *Page) Document() (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(p.Body)))
	if err != nil {
		return nil, err
	}
	p.doc = doc
	return doc, nil
}

// Root returns the parsed html.Node tree for XPath queries, lazily initializing it.
func (p *Page) Root() (*html.Node, error) {
	if p.root != nil {
		return p.root, nil
	}
	root, err := htmlquery.Parse(strings.NewReader(string(p.Body)))
	if err != nil {
		return nil, err
	}
	p.root = root
	return root, nil
}

// Text returns the page rendered as plain text, the fallback input for the
// regex extraction strategies. Script and style content is skipped and block
// elements produce line breaks.
func (p *Page) Text() string {
	if p.text != "" {
		return p.text
	}
	root, err := p.Root()
	if err != nil {
		return ""
	}
	var b strings.Builder
	renderText(&b, root)
	p.text = b.String()
	return p.text
}

var blockTags = map[string]bool{
	"address": true, "article": true, "body": true, "br": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "p": true, "section": true, "td": true, "tr": true, "ul": true,
}

func renderText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte(' ')
			}
			b.WriteString(t)
		}
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
}
