package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nandincho/blogforge/internal/crawler"
	"github.com/nandincho/blogforge/internal/extractor"
	"github.com/nandincho/blogforge/internal/fetcher"
	"github.com/nandincho/blogforge/internal/store"
	"github.com/nandincho/blogforge/internal/types"
)

// SeedReport is the aggregate outcome of a seeding run.
type SeedReport struct {
	Collected int // listing items found across all pages
	Fetched   int // articles in the bounded window
	New       int
	Updated   int
	Failed    int
}

// Seeder runs the ingestion stage: crawl the listing, take the oldest
// bounded window, extract each article body, and upsert originals.
// Running it twice with identical input updates records in place; the
// sourceUrl key makes the whole stage idempotent.
type Seeder struct {
	listing  *crawler.Listing
	fetcher  fetcher.Fetcher
	cascade  *extractor.Cascade
	store    store.Store
	maxItems int
	delay    time.Duration
	logger   *slog.Logger
}

// NewSeeder wires the seeding stage.
func NewSeeder(listing *crawler.Listing, f fetcher.Fetcher, cascade *extractor.Cascade, st store.Store, maxItems int, delay time.Duration, logger *slog.Logger) *Seeder {
	return &Seeder{
		listing:  listing,
		fetcher:  f,
		cascade:  cascade,
		store:    st,
		maxItems: maxItems,
		delay:    delay,
		logger:   logger.With("component", "seeder"),
	}
}

// Run crawls the listing and seeds the store. A listing crawl failure is
// fatal; failures on individual articles are isolated and counted.
func (s *Seeder) Run(ctx context.Context) (SeedReport, error) {
	var report SeedReport

	items, err := s.listing.Crawl(ctx)
	if err != nil {
		return report, err
	}
	report.Collected = len(items)
	if len(items) == 0 {
		return report, types.ErrNoListingItems
	}

	window := crawler.TailWindow(items, s.maxItems)
	report.Fetched = len(window)
	s.logger.Info("seeding window selected", "collected", len(items), "window", len(window))

	for i, item := range window {
		if err := wait(ctx, s.delay); err != nil {
			return report, err
		}

		content := s.fetchContent(ctx, item.Link)

		result, err := s.store.UpsertOriginal(ctx, &types.Article{
			Title:           item.Title,
			SourceURL:       item.Link,
			OriginalContent: content,
			Version:         types.VersionOriginal,
		})
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			s.logger.Error("seed failed", "index", i+1, "title", item.Title, "error", err)
			continue
		}

		if result.Created {
			report.New++
		} else {
			report.Updated++
		}
	}

	s.logger.Info("seeding complete",
		"new", report.New,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	return report, nil
}

// fetchContent downloads an article page and extracts its body. Fetch
// failures map to empty content; the extractor logs the diagnostic.
func (s *Seeder) fetchContent(ctx context.Context, link string) string {
	body, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		s.logger.Warn("article fetch failed, storing empty content", "url", link, "error", err)
		return ""
	}
	return s.cascade.Extract(string(body), link)
}
