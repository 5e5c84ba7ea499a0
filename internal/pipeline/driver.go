package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nandincho/blogforge/internal/fetcher"
	"github.com/nandincho/blogforge/internal/store"
	"github.com/nandincho/blogforge/internal/types"
)

// State tracks an item through the rewrite pipeline.
type State string

const (
	StatePending           State = "pending"
	StateReferencesFound   State = "references_found"
	StateReferencesScraped State = "references_scraped"
	StateRewritten         State = "rewritten"
	StatePublished         State = "published"
	StateSkipped           State = "skipped"
	StateFailed            State = "failed"
)

// RunReport is the aggregate outcome of a rewrite run. It is a local
// accumulator threaded through the sequential loop; no shared or global
// state exists across items.
type RunReport struct {
	Processed int
	Published int
	Skipped   int
	Failed    int
}

// Searcher discovers candidate reference articles for a title.
type Searcher interface {
	Discover(ctx context.Context, title string) []types.SearchResult
}

// RefExtractor pulls the main content out of a reference page.
type RefExtractor interface {
	Extract(rawHTML, pageURL string) (types.ReferenceArticle, bool)
}

// TextRewriter generates the rewritten article text.
type TextRewriter interface {
	Rewrite(ctx context.Context, title, content string, refs []types.ReferenceArticle) (string, error)
}

// Driver sequences the rewrite stages per item: discovery, reference
// scraping, generation, publication. Items are processed strictly one at a
// time to respect target-site rate limits; a fixed delay separates
// successive network fetches.
type Driver struct {
	store    store.Store
	search   Searcher
	fetcher  fetcher.Fetcher
	refs     RefExtractor
	rewriter TextRewriter
	delay    time.Duration
	minRefs  int
	logger   *slog.Logger
}

// NewDriver wires the rewrite pipeline.
func NewDriver(st store.Store, search Searcher, f fetcher.Fetcher, refs RefExtractor, rewriter TextRewriter, delay time.Duration, minRefs int, logger *slog.Logger) *Driver {
	return &Driver{
		store:    st,
		search:   search,
		fetcher:  f,
		refs:     refs,
		rewriter: rewriter,
		delay:    delay,
		minRefs:  minRefs,
		logger:   logger.With("component", "driver"),
	}
}

// Run processes every original article in the store. A failure while
// processing item i is logged with the item's title and index and does not
// prevent processing of item i+1; only context cancellation stops the run.
func (d *Driver) Run(ctx context.Context) (RunReport, error) {
	var report RunReport

	originals, err := d.store.List(ctx, types.VersionOriginal)
	if err != nil {
		return report, err
	}
	if len(originals) == 0 {
		d.logger.Info("no original articles to process")
		return report, nil
	}

	for i := range originals {
		article := &originals[i]
		d.logger.Info("processing article", "index", i+1, "title", article.Title)
		report.Processed++

		state, err := d.processItem(ctx, article)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			d.logger.Error("article failed", "index", i+1, "title", article.Title, "state", state, "error", err)
			continue
		}

		switch state {
		case StatePublished:
			report.Published++
		case StateSkipped:
			report.Skipped++
		}
	}

	d.logger.Info("run complete",
		"processed", report.Processed,
		"published", report.Published,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// processItem walks one article through the state machine. Panics are
// contained here so a single bad item cannot take down the batch.
func (d *Driver) processItem(ctx context.Context, article *types.Article) (state State, err error) {
	defer func() {
		if r := recover(); r != nil {
			state = StateFailed
			err = fmt.Errorf("panic while processing %q: %v", article.Title, r)
		}
	}()

	state = StatePending

	results := d.search.Discover(ctx, article.Title)
	if len(results) < d.minRefs {
		d.logger.Info("not enough search results, skipping", "title", article.Title, "found", len(results))
		return StateSkipped, nil
	}
	state = StateReferencesFound

	refs, err := d.scrapeReferences(ctx, results)
	if err != nil {
		return state, err
	}
	if len(refs) < d.minRefs {
		d.logger.Info("could not scrape enough reference content, skipping",
			"title", article.Title, "usable", len(refs))
		return StateSkipped, nil
	}
	state = StateReferencesScraped

	text, err := d.rewriter.Rewrite(ctx, article.Title, article.OriginalContent, refs)
	if err != nil {
		return state, err
	}
	// An updated record must carry non-empty content; a blank completion is
	// a generation failure, not a publishable result.
	if strings.TrimSpace(text) == "" {
		return state, &types.GenerationError{Err: fmt.Errorf("empty completion for %q", article.Title)}
	}
	state = StateRewritten

	// References holds only the URLs that actually fed the rewrite.
	urls := make([]string, len(refs))
	for i, r := range refs {
		urls[i] = r.URL
	}

	record := &types.Article{
		Title:          article.Title,
		SourceURL:      store.DerivedSourceURL(article),
		UpdatedContent: text,
		Version:        types.VersionUpdated,
		References:     urls,
		ParentArticle:  article.ID,
	}

	id, err := d.store.InsertUpdated(ctx, record)
	if err != nil {
		return state, err
	}

	d.logger.Info("updated article published", "title", article.Title, "id", id)
	return StatePublished, nil
}

// scrapeReferences fetches and extracts each discovered reference
// sequentially. Fetch and extraction failures drop the reference, never the
// item; the minimum-reference gate decides afterwards.
func (d *Driver) scrapeReferences(ctx context.Context, results []types.SearchResult) ([]types.ReferenceArticle, error) {
	refs := make([]types.ReferenceArticle, 0, len(results))
	for _, r := range results {
		if err := wait(ctx, d.delay); err != nil {
			return nil, err
		}

		body, err := d.fetcher.Fetch(ctx, r.Link)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d.logger.Warn("reference fetch failed", "url", r.Link, "error", err)
			continue
		}

		if ref, ok := d.refs.Extract(string(body), r.Link); ok {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// wait sleeps for the configured inter-request delay, honoring context
// cancellation. Applied uniformly after every network fetch.
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
