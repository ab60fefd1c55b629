package extractor

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AgentMeta is the nested contact block some listings embed alongside the
// property data.
type AgentMeta struct {
	Name      string
	Telephone string
}

// ListingMeta is the typed view of a page's embedded JSON-LD listing data.
// Every field is optional; the zero value means the page carried no usable
// structured data. This is the most authoritative extraction source and the
// first strategy in every cascade.
type ListingMeta struct {
	StreetAddress string
	Telephone     string
	Name          string
	Agent         *AgentMeta
}

// ParseListingMeta scans all <script type="application/ld+json"> blocks and
// folds recognized keys into a ListingMeta. Malformed blocks are skipped;
// later blocks fill only fields still empty.
func ParseListingMeta(doc *goquery.Document, logger *slog.Logger) ListingMeta {
	var meta ListingMeta

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		for _, data := range decodeBlocks(raw) {
			mergeListingMeta(&meta, data)
		}
	})

	if logger != nil && (meta.Telephone != "" || meta.StreetAddress != "" || meta.Name != "") {
		logger.Debug("structured listing data found",
			"telephone", meta.Telephone != "",
			"address", meta.StreetAddress != "",
			"name", meta.Name != "",
		)
	}

	return meta
}

// decodeBlocks parses a JSON-LD payload that may be a single object or an
// array of objects.
func decodeBlocks(raw string) []map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return []map[string]any{obj}
	}

	var arr []map[string]any
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return arr
	}
	return nil
}

func mergeListingMeta(meta *ListingMeta, data map[string]any) {
	if meta.StreetAddress == "" {
		meta.StreetAddress = addressFromValue(data["address"])
	}
	if meta.Telephone == "" {
		meta.Telephone = telephoneFromValue(data["telephone"])
	}
	if meta.Name == "" {
		if name, ok := data["name"].(string); ok {
			meta.Name = strings.TrimSpace(name)
		}
	}
	if meta.Agent == nil {
		meta.Agent = agentFromValue(data)
	}
}

// addressFromValue accepts either a plain string or a schema.org PostalAddress
// sub-object. Only the street line matters here: locality, region, and postal
// code are discarded because the canonical unit of identity is the street
// address alone.
func addressFromValue(v any) string {
	switch addr := v.(type) {
	case string:
		street, _, _ := strings.Cut(addr, ",")
		return strings.TrimSpace(street)
	case map[string]any:
		if street, ok := addr["streetAddress"].(string); ok {
			return strings.TrimSpace(street)
		}
	}
	return ""
}

// telephoneFromValue accepts either a string or a list of strings.
func telephoneFromValue(v any) string {
	switch tel := v.(type) {
	case string:
		return strings.TrimSpace(tel)
	case []any:
		for _, item := range tel {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// agentFromValue looks for a nested agent/realEstateAgent sub-object carrying
// its own name and telephone.
func agentFromValue(data map[string]any) *AgentMeta {
	for _, key := range []string{"agent", "realEstateAgent", "provider"} {
		sub, ok := data[key].(map[string]any)
		if !ok {
			continue
		}
		agent := &AgentMeta{}
		if name, ok := sub["name"].(string); ok {
			agent.Name = strings.TrimSpace(name)
		}
		agent.Telephone = telephoneFromValue(sub["telephone"])
		if agent.Name != "" || agent.Telephone != "" {
			return agent
		}
	}
	return nil
}
