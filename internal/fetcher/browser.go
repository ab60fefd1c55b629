package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/dmaher/rentleads/internal/config"
	"github.com/dmaher/rentleads/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod. Listing
// sites render contact details client-side and fingerprint plain HTTP
// clients, so this is the default fetcher for real crawls.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     *config.FetcherConfig
	logger  *slog.Logger
}

// NewBrowserFetcher launches a headless Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:    &cfg.Fetcher,
		logger: logger.With("component", "browser_fetcher"),
	}

	launchURL, err := bf.launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready", "stealth", bf.cfg.Stealth)
	return bf, nil
}

// launchBrowser starts a Chromium instance with appropriate flags.
func (bf *BrowserFetcher) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	return l.Launch()
}

// Fetch navigates to a URL and returns the rendered page.
func (bf *BrowserFetcher) Fetch(ctx context.Context, url string) (*types.Page, error) {
	start := time.Now()

	var page *rod.Page
	var err error
	if bf.cfg.Stealth {
		page, err = stealth.Page(bf.browser)
	} else {
		page, err = bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("open page: %w", err), Retryable: true}
	}
	defer page.Close()

	page = page.Context(ctx)

	timeout := bf.cfg.RequestTimeout
	if err := page.Timeout(timeout).Navigate(url); err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: true}
	}

	// Give client-side rendering a chance to settle; proceed on timeout, the
	// partially rendered DOM is often still extractable.
	waitStable := bf.cfg.WaitStable
	if waitStable <= 0 {
		waitStable = 300 * time.Millisecond
	}
	if err := page.Timeout(timeout).WaitStable(waitStable); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: true}
	}
	if len(html) == 0 {
		return nil, &types.FetchError{URL: url, Err: types.ErrEmptyPage, Retryable: true}
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	result := types.NewPage(url, []byte(html))
	result.FinalURL = finalURL
	result.FetchDuration = duration

	bf.logger.Debug("browser fetch complete",
		"url", url,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)
	return result, nil
}

// Close shuts down the browser and releases resources.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

// New builds the fetcher named by the configuration.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "browser":
		return NewBrowserFetcher(cfg, logger)
	default:
		return NewHTTPFetcher(cfg, logger)
	}
}
