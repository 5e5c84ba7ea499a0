package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/crawler"
	"github.com/nandincho/blogforge/internal/extractor"
	"github.com/nandincho/blogforge/internal/types"
)

func seedConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.BaseURL = "https://blog.test"
	cfg.Source.ListingPath = "/blogs/"
	cfg.Pipeline.RequestDelay = 0
	return cfg
}

func card(title, href string) string {
	return `<article class="entry-card"><h2 class="entry-title">` + title + `</h2><a href="` + href + `">Read more</a></article>`
}

func articlePage(text string) string {
	return `<html><body><div class="entry-content"><p>` + text + `</p></div></body></html>`
}

// seedFixture builds a two-page listing of five posts plus their article pages.
func seedFixture() map[string]string {
	return map[string]string{
		"https://blog.test/blogs/": "<html><body>" +
			card("Post 1", "/blog/1/") + card("Post 2", "/blog/2/") + card("Post 3", "/blog/3/") +
			"</body></html>",
		"https://blog.test/blogs/page/2/": "<html><body>" +
			card("Post 4", "/blog/4/") + card("Post 5", "/blog/5/") +
			"</body></html>",
		"https://blog.test/blogs/page/3/": "<html><body></body></html>",
		"https://blog.test/blog/1/":       articlePage("body one"),
		"https://blog.test/blog/2/":       articlePage("body two"),
		"https://blog.test/blog/3/":       articlePage("body three"),
		"https://blog.test/blog/4/":       articlePage("body four"),
		"https://blog.test/blog/5/":       articlePage("body five"),
	}
}

func newTestSeeder(t *testing.T, f *fakeFetcher, st *fakeStore, maxItems int) *Seeder {
	t.Helper()
	cfg := seedConfig()
	cascade, err := extractor.NewCascade(&config.ExtractConfig{
		Rules:            []config.ExtractRule{{Type: "css", Expr: ".entry-content"}},
		MinContentLength: 5,
	}, testLogger)
	if err != nil {
		t.Fatalf("NewCascade: %v", err)
	}
	listing := crawler.NewListing(f, cfg, testLogger)
	return NewSeeder(listing, f, cascade, st, maxItems, 0, testLogger)
}

func TestSeederStoresOldestWindow(t *testing.T) {
	f := &fakeFetcher{pages: seedFixture()}
	st := &fakeStore{}

	report, err := newTestSeeder(t, f, st, 2).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Collected != 5 || report.Fetched != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.New != 2 || report.Updated != 0 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	// Listing order is newest first, so the tail is the oldest posts.
	if len(st.originals) != 2 {
		t.Fatalf("expected 2 stored articles, got %d", len(st.originals))
	}
	if st.originals[0].Title != "Post 4" || st.originals[1].Title != "Post 5" {
		t.Errorf("expected the oldest posts, got %q and %q", st.originals[0].Title, st.originals[1].Title)
	}
	if st.originals[0].OriginalContent == "" {
		t.Error("stored article has no content")
	}
}

func TestSeederReseedIsIdempotent(t *testing.T) {
	st := &fakeStore{}

	first, err := newTestSeeder(t, &fakeFetcher{pages: seedFixture()}, st, 5).Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.New != 5 || first.Updated != 0 {
		t.Fatalf("first run report: %+v", first)
	}

	second, err := newTestSeeder(t, &fakeFetcher{pages: seedFixture()}, st, 5).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.New != 0 || second.Updated != 5 {
		t.Fatalf("reseed must update in place, got %+v", second)
	}
}

func TestSeederArticleFetchFailureStoresEmptyContent(t *testing.T) {
	pages := seedFixture()
	delete(pages, "https://blog.test/blog/5/")
	st := &fakeStore{}

	report, err := newTestSeeder(t, &fakeFetcher{pages: pages}, st, 2).Run(context.Background())
	if err != nil {
		t.Fatalf("an article fetch failure must not fail the run: %v", err)
	}
	if report.New != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var found bool
	for _, a := range st.originals {
		if a.Title == "Post 5" {
			found = true
			if a.OriginalContent != "" {
				t.Errorf("expected empty content for unfetchable article, got %q", a.OriginalContent)
			}
		}
	}
	if !found {
		t.Error("unfetchable article was not stored at all")
	}
}

func TestSeederListingFailureIsFatal(t *testing.T) {
	_, err := newTestSeeder(t, &fakeFetcher{}, &fakeStore{}, 5).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when the listing cannot be crawled")
	}
}

func TestSeederEmptyListing(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://blog.test/blogs/": "<html><body>no cards here</body></html>",
	}}
	_, err := newTestSeeder(t, f, &fakeStore{}, 5).Run(context.Background())
	if !errors.Is(err, types.ErrNoListingItems) {
		t.Fatalf("expected ErrNoListingItems, got %v", err)
	}
}
