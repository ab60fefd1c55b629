// Package extractor pulls contact details out of listing pages using a
// cascade of strategies per field: embedded JSON-LD first, then site-specific
// CSS selectors, then semantic markup, then regex sweeps over visible text.
// Precision degrades down the cascade, so each strategy runs only when every
// strategy above it found nothing.
package extractor

import (
	"log/slog"

	"github.com/dmaher/rentleads/internal/types"
)

// Extractor binds the field cascades to one site profile.
type Extractor struct {
	profile *Profile
	logger  *slog.Logger
}

// New builds an Extractor for a site profile.
func New(profile *Profile, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		profile: profile,
		logger:  logger.With("component", "extractor", "site", profile.Name),
	}
}

// Profile returns the site profile this extractor was built with.
func (e *Extractor) Profile() *Profile { return e.profile }

// Extract runs all field cascades on a listing page. The phone number is the
// record key; without one there is no candidate and the second return is
// false. Missing names and addresses are normal and leave fields empty.
func (e *Extractor) Extract(page *types.Page) (*types.Candidate, bool) {
	doc, err := page.Document()
	if err != nil {
		e.logger.Warn("page failed to parse", "url", page.URL, "error", err)
		return nil, false
	}

	meta := ParseListingMeta(doc, e.logger)

	phone, ok := e.ExtractPhone(page, meta)
	if !ok {
		e.logger.Debug("no phone on page", "url", page.URL)
		return nil, false
	}

	candidate := &types.Candidate{
		Phone:        phone,
		Address:      e.ExtractAddress(page, meta),
		AgentName:    e.ExtractAgentName(page, meta),
		BusinessName: e.ExtractBusinessName(page, meta),
	}

	e.logger.Info("extracted candidate",
		"url", page.URL,
		"phone", candidate.Phone,
		"has_address", candidate.Address != "",
		"has_agent", candidate.AgentName != "",
		"has_business", candidate.BusinessName != "",
	)
	return candidate, true
}
