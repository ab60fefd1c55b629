// Package fetcher retrieves listing pages over plain HTTP or through a
// headless browser. Listing sites are aggressively bot-hostile, so the
// browser path carries stealth patches and both paths rotate user agents and
// jitter their pacing.
package fetcher

import (
	"context"
	"math/rand"
	"time"

	"github.com/dmaher/rentleads/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the page at url.
	Fetch(ctx context.Context, url string) (*types.Page, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// RandomDelay returns a random delay around the base duration (±25%), so
// request pacing never looks machine-regular.
func RandomDelay(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	jitter := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*jitter-jitter)
}
