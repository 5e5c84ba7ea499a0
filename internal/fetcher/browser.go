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

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
// Useful for reference pages that render their article body client-side,
// where the plain HTTP fetcher sees an empty shell.
type BrowserFetcher struct {
	browser   *rod.Browser
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewBrowserFetcher launches a headless Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf := &BrowserFetcher{
		browser:   browser,
		timeout:   cfg.Fetcher.RequestTimeout,
		userAgent: cfg.Source.UserAgent,
		logger:    logger.With("component", "browser_fetcher"),
	}
	bf.logger.Info("browser fetcher ready")
	return bf, nil
}

// Fetch navigates to a URL and returns the rendered page markup.
func (bf *BrowserFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()

	page, err := stealth.Page(bf.browser)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("stealth page: %w", err)}
	}
	defer page.Close()

	if bf.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bf.userAgent}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	page = page.Context(ctx)
	if err := page.Timeout(bf.timeout).Navigate(rawURL); err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	if err := page.Timeout(bf.timeout).WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", rawURL, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	bf.logger.Debug("browser fetch complete",
		"url", rawURL,
		"size", len(html),
		"duration", time.Since(start),
	)

	return []byte(html), nil
}

// Close shuts down the browser.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string { return "browser" }
