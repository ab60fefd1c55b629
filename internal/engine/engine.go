// Package engine orchestrates a crawl: search pagination, link discovery,
// per-listing fetch and extraction, durable bookkeeping, and incremental
// export. The loop is deliberately sequential. Listing sites rate-limit
// aggressively, and a single polite worker that persists progress after every
// page outlasts any parallel crawler that gets itself blocked.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmaher/rentleads/internal/config"
	"github.com/dmaher/rentleads/internal/export"
	"github.com/dmaher/rentleads/internal/extractor"
	"github.com/dmaher/rentleads/internal/fetcher"
	"github.com/dmaher/rentleads/internal/store"
	"github.com/dmaher/rentleads/internal/types"
)

// Stats tracks crawl counters. Safe for concurrent reads while the crawl runs.
type Stats struct {
	SearchPages     atomic.Int64
	LinksDiscovered atomic.Int64
	ListingsFetched atomic.Int64
	ListingsSkipped atomic.Int64
	FetchFailures   atomic.Int64
	PhonesStored    atomic.Int64
	AddressesAdded  atomic.Int64
	StartTime       time.Time
}

// Snapshot returns the counters as a loggable map.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"search_pages":     s.SearchPages.Load(),
		"links_discovered": s.LinksDiscovered.Load(),
		"listings_fetched": s.ListingsFetched.Load(),
		"listings_skipped": s.ListingsSkipped.Load(),
		"fetch_failures":   s.FetchFailures.Load(),
		"phones_stored":    s.PhonesStored.Load(),
		"addresses_added":  s.AddressesAdded.Load(),
		"elapsed":          time.Since(s.StartTime).String(),
	}
}

// Engine runs one crawl of one site.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	fetcher   fetcher.Fetcher
	extractor *extractor.Extractor
	store     *store.Store
	stats     *Stats

	exportPath string
	stopped    atomic.Bool
}

// New wires an engine from its parts. The store and fetcher are owned by the
// caller and stay open after Run returns.
func New(cfg *config.Config, f fetcher.Fetcher, ex *extractor.Extractor, st *store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		logger:     logger.With("component", "engine", "site", ex.Profile().Name),
		fetcher:    f,
		extractor:  ex,
		store:      st,
		stats:      &Stats{},
		exportPath: cfg.ExportPath(),
	}
}

// Stats returns the crawl counters.
func (e *Engine) Stats() *Stats { return e.stats }

// Stop requests a graceful stop. The current listing finishes, its state is
// persisted, and Run returns types.ErrCrawlStopped.
func (e *Engine) Stop() {
	if e.stopped.CompareAndSwap(false, true) {
		e.logger.Info("stop requested, finishing current listing")
	}
}

// Run walks search pages for the configured city and processes every
// discovered listing. It returns nil when the page range is exhausted or the
// phone target is reached, and types.ErrCrawlStopped on Stop or context
// cancellation. Progress survives any exit path: crawl state and leads are
// committed per listing and the CSV export is rewritten after every store.
func (e *Engine) Run(ctx context.Context) error {
	e.stats.StartTime = time.Now()
	e.logger.Info("crawl starting",
		"city", e.cfg.Crawl.City,
		"state", e.cfg.Crawl.State,
		"max_pages", e.cfg.Crawl.MaxPages,
		"target_phones", e.cfg.Crawl.TargetPhones,
	)

	profile := e.extractor.Profile()
	for pageNum := 1; pageNum <= e.cfg.Crawl.MaxPages; pageNum++ {
		if err := e.checkStop(ctx); err != nil {
			return err
		}

		searchURL := profile.SearchPageURL(e.cfg.Crawl.City, e.cfg.Crawl.State, pageNum)
		page, err := e.fetchWithRetry(ctx, searchURL)
		if err != nil {
			if errors.Is(err, types.ErrCrawlStopped) {
				return err
			}
			// A dead search page ends pagination; listings already found on
			// earlier pages are safe in the store.
			e.logger.Warn("search page failed, stopping pagination",
				"url", searchURL, "page", pageNum, "error", err)
			break
		}
		e.stats.SearchPages.Add(1)

		links, err := e.extractor.DiscoverLinks(page)
		if err != nil {
			e.logger.Warn("search page did not parse", "url", searchURL, "error", err)
			continue
		}
		if len(links) == 0 {
			e.logger.Info("no listings on search page, stopping pagination", "page", pageNum)
			break
		}
		e.stats.LinksDiscovered.Add(int64(len(links)))
		e.logger.Info("search page processed", "page", pageNum, "listings", len(links))

		for _, link := range links {
			if err := e.checkStop(ctx); err != nil {
				return err
			}
			done, err := e.processListing(ctx, link)
			if err != nil {
				return err
			}
			if done {
				e.logger.Info("phone target reached", "stats", e.stats.Snapshot())
				return nil
			}
		}
	}

	e.logger.Info("crawl complete", "stats", e.stats.Snapshot())
	return nil
}

// processListing handles one listing URL end to end. The bool return is true
// when the phone target has been reached and the crawl should end.
func (e *Engine) processListing(ctx context.Context, url string) (bool, error) {
	crawled, err := e.store.IsURLCrawled(url)
	if err != nil {
		return false, err
	}
	if crawled {
		e.stats.ListingsSkipped.Add(1)
		e.logger.Debug("listing already crawled", "url", url)
		return false, nil
	}

	e.politenessPause(ctx)
	if err := e.checkStop(ctx); err != nil {
		return false, err
	}

	page, err := e.fetchWithRetry(ctx, url)
	if err != nil {
		if errors.Is(err, types.ErrCrawlStopped) {
			return false, err
		}
		// The retry ladder already covered transient failures, so the page is
		// marked crawled anyway. Visiting each listing at most once beats
		// hammering a dead or blocking URL on every rerun.
		e.stats.FetchFailures.Add(1)
		e.logger.Warn("listing fetch failed, marking crawled", "url", url, "error", err)
		return false, e.store.MarkURLCrawled(url)
	}
	e.stats.ListingsFetched.Add(1)

	candidate, found := e.extractor.Extract(page)

	// The page was examined, with or without a phone on it. Marking phoneless
	// pages keeps reruns from refetching dead listings.
	if err := e.store.MarkURLCrawled(url); err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if err := e.store.UpsertPhone(candidate.Phone, candidate.AgentName, candidate.BusinessName); err != nil {
		return false, err
	}
	e.stats.PhonesStored.Add(1)

	if candidate.Address != "" {
		added, err := e.store.AddAddress(candidate.Phone, candidate.Address)
		if err != nil {
			return false, err
		}
		if added {
			e.stats.AddressesAdded.Add(1)
		}
	}

	if err := e.exportSnapshot(); err != nil {
		// Export failure is not fatal; the store still has everything and the
		// next successful export catches up.
		e.logger.Error("incremental export failed", "error", err)
	}

	if target := e.cfg.Crawl.TargetPhones; target > 0 {
		count, err := e.store.UniquePhonesCount()
		if err != nil {
			return false, err
		}
		if count >= target {
			return true, nil
		}
	}
	return false, nil
}

// fetchWithRetry fetches a URL, retrying retryable failures with doubling
// backoff. A 429 with Retry-After waits at least that long.
func (e *Engine) fetchWithRetry(ctx context.Context, url string) (*types.Page, error) {
	delay := e.cfg.Crawl.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	attempts := e.cfg.Crawl.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := e.checkStop(ctx); err != nil {
			return nil, err
		}

		page, err := e.fetcher.Fetch(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err

		var fe *types.FetchError
		if errors.As(err, &fe) && !fe.Retryable {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		wait := delay
		if errors.As(err, &fe) && fe.RetryAfter > wait {
			wait = fe.RetryAfter
		}
		e.logger.Debug("fetch retry", "url", url, "attempt", attempt, "wait", wait, "error", err)
		if err := e.sleep(ctx, wait); err != nil {
			return nil, err
		}
		delay *= 2
	}
	return nil, fmt.Errorf("%w for %s: %w", types.ErrMaxRetries, url, lastErr)
}

// politenessPause waits the configured delay with jitter between requests.
func (e *Engine) politenessPause(ctx context.Context) {
	if e.cfg.Crawl.PolitenessDelay <= 0 {
		return
	}
	_ = e.sleep(ctx, fetcher.RandomDelay(e.cfg.Crawl.PolitenessDelay))
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return types.ErrCrawlStopped
	case <-timer.C:
		return nil
	}
}

func (e *Engine) checkStop(ctx context.Context) error {
	if e.stopped.Load() {
		return types.ErrCrawlStopped
	}
	if ctx.Err() != nil {
		return types.ErrCrawlStopped
	}
	return nil
}

// exportSnapshot rewrites the CSV export from the store's current contents.
func (e *Engine) exportSnapshot() error {
	records, err := e.store.AllPhones()
	if err != nil {
		return err
	}
	return export.WriteCSV(e.exportPath, records)
}

// ExportFinal writes a last export snapshot, used on shutdown paths where the
// most recent incremental export may have failed.
func (e *Engine) ExportFinal() error {
	return e.exportSnapshot()
}
