package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/fetcher"
	"github.com/nandincho/blogforge/internal/types"
)

// Listing paginates the source site's listing pages and collects item
// summaries. No total page count is known in advance: the crawl stops at
// the first page that yields zero item cards.
type Listing struct {
	fetcher fetcher.Fetcher
	cfg     *config.SourceConfig
	delay   time.Duration
	logger  *slog.Logger
}

// NewListing creates a listing crawler.
func NewListing(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *Listing {
	return &Listing{
		fetcher: f,
		cfg:     &cfg.Source,
		delay:   cfg.Pipeline.RequestDelay,
		logger:  logger.With("component", "listing_crawler"),
	}
}

// Crawl walks listing pages sequentially from page 1 and returns all items
// in crawl order. A listing page fetch failure terminates the crawl with an
// error: there is no retry or partial-result path for listing pages.
func (l *Listing) Crawl(ctx context.Context) ([]types.ListingItem, error) {
	var all []types.ListingItem

	for page := 1; ; page++ {
		pageURL := l.PageURL(page)
		l.logger.Info("crawling listing page", "url", pageURL, "page", page)

		body, err := l.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}

		items := l.parseItems(body, pageURL)
		if len(items) == 0 {
			l.logger.Info("empty listing page, stopping pagination", "page", page, "collected", len(all))
			break
		}

		all = append(all, items...)

		if err := wait(ctx, l.delay); err != nil {
			return nil, err
		}
	}

	return all, nil
}

// PageURL constructs the listing URL for a page number. Page 1 uses the
// bare listing path; later pages use the page-indexed path.
func (l *Listing) PageURL(page int) string {
	base := strings.TrimRight(l.cfg.BaseURL, "/") + l.cfg.ListingPath
	if page == 1 {
		return base
	}
	return fmt.Sprintf("%spage/%d/", base, page)
}

// parseItems extracts {title, link} pairs from the item cards of a listing
// page. Cards missing either field are skipped.
func (l *Listing) parseItems(body []byte, pageURL string) []types.ListingItem {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		l.logger.Warn("listing page parse failed", "url", pageURL, "error", err)
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var items []types.ListingItem
	doc.Find(l.cfg.ItemSelector).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(l.cfg.TitleSelector).Text())
		href, _ := card.Find("a[href]").First().Attr("href")
		link := resolveLink(base, href)
		if title != "" && link != "" {
			items = append(items, types.ListingItem{Title: title, Link: link})
		}
	})

	return items
}

// TailWindow returns the last n items in crawl order. Pagination proceeds
// newest first, so the tail of the accumulated sequence is the oldest-n
// stable slice.
func TailWindow(items []types.ListingItem, n int) []types.ListingItem {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

// resolveLink resolves a possibly relative href against the page URL.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// wait sleeps for the politeness delay, honoring context cancellation.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
