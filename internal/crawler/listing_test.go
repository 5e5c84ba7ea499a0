package crawler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFetcher serves canned pages and records every URL it was asked for.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	f.calls = append(f.calls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &types.FetchError{URL: rawURL, StatusCode: 404, Err: errors.New("not found")}
	}
	return []byte(body), nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.BaseURL = "https://blog.test"
	cfg.Source.ListingPath = "/blogs/"
	cfg.Pipeline.RequestDelay = 0
	return cfg
}

func card(title, href string) string {
	return `<article class="entry-card"><h2 class="entry-title">` + title + `</h2><a href="` + href + `">Read more</a></article>`
}

func listingPage(cards ...string) string {
	page := "<html><body><main>"
	for _, c := range cards {
		page += c
	}
	return page + "</main></body></html>"
}

func TestPageURL(t *testing.T) {
	l := NewListing(&fakeFetcher{}, testConfig(), testLogger)

	if got := l.PageURL(1); got != "https://blog.test/blogs/" {
		t.Errorf("page 1 URL: got %q", got)
	}
	if got := l.PageURL(2); got != "https://blog.test/blogs/page/2/" {
		t.Errorf("page 2 URL: got %q", got)
	}
	if got := l.PageURL(7); got != "https://blog.test/blogs/page/7/" {
		t.Errorf("page 7 URL: got %q", got)
	}
}

func TestCrawlStopsAtEmptyPage(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://blog.test/blogs/":        listingPage(card("Post A", "/blog/a/"), card("Post B", "/blog/b/")),
		"https://blog.test/blogs/page/2/": listingPage(card("Post C", "https://blog.test/blog/c/")),
		"https://blog.test/blogs/page/3/": listingPage(),
		"https://blog.test/blogs/page/4/": listingPage(card("Never", "/never/")),
	}}

	l := NewListing(f, testConfig(), testLogger)
	items, err := l.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if len(f.calls) != 3 {
		t.Errorf("expected exactly 3 page fetches, got %d: %v", len(f.calls), f.calls)
	}

	// Relative hrefs resolve against the page URL.
	if items[0].Link != "https://blog.test/blog/a/" {
		t.Errorf("item 0 link: got %q", items[0].Link)
	}
	if items[2].Title != "Post C" || items[2].Link != "https://blog.test/blog/c/" {
		t.Errorf("item 2: got %+v", items[2])
	}
}

func TestCrawlListingFetchFailureIsFatal(t *testing.T) {
	// Page 2 is missing: the crawl must fail, not return partial results.
	f := &fakeFetcher{pages: map[string]string{
		"https://blog.test/blogs/": listingPage(card("Post A", "/blog/a/")),
	}}

	l := NewListing(f, testConfig(), testLogger)
	items, err := l.Crawl(context.Background())
	if err == nil {
		t.Fatal("expected error for failed listing page fetch")
	}
	if items != nil {
		t.Errorf("expected nil items on failure, got %d", len(items))
	}

	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Errorf("expected FetchError in chain, got %v", err)
	}
}

func TestCrawlSkipsIncompleteCards(t *testing.T) {
	page := listingPage(
		card("Complete", "/blog/ok/"),
		`<article class="entry-card"><h2 class="entry-title">No link</h2></article>`,
		`<article class="entry-card"><a href="/blog/untitled/">link only</a></article>`,
	)
	f := &fakeFetcher{pages: map[string]string{
		"https://blog.test/blogs/":        page,
		"https://blog.test/blogs/page/2/": listingPage(),
	}}

	l := NewListing(f, testConfig(), testLogger)
	items, err := l.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Complete" {
		t.Fatalf("expected only the complete card, got %+v", items)
	}
}

func TestTailWindow(t *testing.T) {
	items := []types.ListingItem{
		{Title: "newest"}, {Title: "b"}, {Title: "c"}, {Title: "d"}, {Title: "oldest"},
	}

	tail := TailWindow(items, 2)
	if len(tail) != 2 {
		t.Fatalf("expected 2 items, got %d", len(tail))
	}
	if tail[0].Title != "d" || tail[1].Title != "oldest" {
		t.Errorf("expected the last items in crawl order, got %+v", tail)
	}

	if got := TailWindow(items, 10); len(got) != len(items) {
		t.Errorf("window larger than input should return all items, got %d", len(got))
	}
	if got := TailWindow(items, 0); len(got) != len(items) {
		t.Errorf("non-positive window should return all items, got %d", len(got))
	}
	if got := TailWindow(nil, 3); got != nil {
		t.Errorf("nil input should stay nil, got %+v", got)
	}
}
