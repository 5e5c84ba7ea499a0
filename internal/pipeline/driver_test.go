package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nandincho/blogforge/internal/store"
	"github.com/nandincho/blogforge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// --- Fakes ---

type fakeStore struct {
	originals []types.Article
	inserted  []types.Article
	seen      map[string]bool
}

func (s *fakeStore) UpsertOriginal(ctx context.Context, a *types.Article) (store.UpsertResult, error) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	created := !s.seen[a.SourceURL]
	s.seen[a.SourceURL] = true
	s.originals = append(s.originals, *a)
	return store.UpsertResult{Created: created}, nil
}

func (s *fakeStore) InsertUpdated(ctx context.Context, a *types.Article) (string, error) {
	a.ID = primitive.NewObjectID()
	s.inserted = append(s.inserted, *a)
	return a.ID.Hex(), nil
}

func (s *fakeStore) List(ctx context.Context, version types.Version) ([]types.Article, error) {
	var out []types.Article
	for _, a := range s.originals {
		if version == "" || a.Version == version {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*types.Article, error) {
	return nil, types.ErrNotFound
}

func (s *fakeStore) Update(ctx context.Context, id string, patch *types.Article) (*types.Article, error) {
	return nil, types.ErrNotFound
}

func (s *fakeStore) Delete(ctx context.Context, id string) error { return types.ErrNotFound }
func (s *fakeStore) Close(ctx context.Context) error             { return nil }

type fakeSearcher struct {
	results map[string][]types.SearchResult
}

func (f *fakeSearcher) Discover(ctx context.Context, title string) []types.SearchResult {
	return f.results[title]
}

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

// fakeRefExtractor succeeds for any non-empty page.
type fakeRefExtractor struct{}

func (fakeRefExtractor) Extract(rawHTML, pageURL string) (types.ReferenceArticle, bool) {
	if rawHTML == "" {
		return types.ReferenceArticle{}, false
	}
	return types.ReferenceArticle{Title: "ref", Content: rawHTML, URL: pageURL}, true
}

type fakeRewriter struct {
	calls    int
	failFor  string
	panicOn  string
	emptyFor string
}

func (f *fakeRewriter) Rewrite(ctx context.Context, title, content string, refs []types.ReferenceArticle) (string, error) {
	f.calls++
	if title == f.panicOn {
		panic("rewriter exploded")
	}
	if title == f.failFor {
		return "", &types.GenerationError{Model: "fake", Err: errors.New("boom")}
	}
	if title == f.emptyFor {
		return "  \n", nil
	}
	return "rewritten: " + title, nil
}

// --- Helpers ---

func original(title, sourceURL string) types.Article {
	return types.Article{
		ID:              primitive.NewObjectID(),
		Title:           title,
		SourceURL:       sourceURL,
		OriginalContent: "original content of " + title,
		Version:         types.VersionOriginal,
	}
}

func twoResults(prefix string) []types.SearchResult {
	return []types.SearchResult{
		{Title: prefix + "-1", Link: "https://a.example/" + prefix + "1"},
		{Title: prefix + "-2", Link: "https://a.example/" + prefix + "2"},
	}
}

func pagesFor(results ...[]types.SearchResult) map[string]string {
	pages := make(map[string]string)
	for _, rs := range results {
		for _, r := range rs {
			pages[r.Link] = "<p>reference content</p>"
		}
	}
	return pages
}

func newTestDriver(st *fakeStore, se *fakeSearcher, f *fakeFetcher, rw *fakeRewriter) *Driver {
	return NewDriver(st, se, f, fakeRefExtractor{}, rw, 0, 2, testLogger)
}

// --- Tests ---

func TestDriverPublishesDerivedRecord(t *testing.T) {
	parent := original("Post A", "https://blog.test/blog/a/")
	st := &fakeStore{originals: []types.Article{parent}}
	results := twoResults("a")
	se := &fakeSearcher{results: map[string][]types.SearchResult{"Post A": results}}
	f := &fakeFetcher{pages: pagesFor(results)}
	rw := &fakeRewriter{}

	report, err := newTestDriver(st, se, f, rw).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed != 1 || report.Published != 1 || report.Skipped != 0 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(st.inserted) != 1 {
		t.Fatalf("expected 1 inserted record, got %d", len(st.inserted))
	}

	rec := st.inserted[0]
	if rec.SourceURL != "https://blog.test/blog/a/-updated" {
		t.Errorf("derived sourceUrl: got %q", rec.SourceURL)
	}
	if rec.Version != types.VersionUpdated {
		t.Errorf("version: got %q", rec.Version)
	}
	if rec.ParentArticle != parent.ID {
		t.Errorf("parent linkage: got %s, want %s", rec.ParentArticle.Hex(), parent.ID.Hex())
	}
	if rec.UpdatedContent != "rewritten: Post A" {
		t.Errorf("content: got %q", rec.UpdatedContent)
	}
	if len(rec.References) != 2 || rec.References[0] != "https://a.example/a1" {
		t.Errorf("references should be the scraped URLs, got %+v", rec.References)
	}
}

func TestDriverSkipsOnInsufficientDiscovery(t *testing.T) {
	st := &fakeStore{originals: []types.Article{original("Lonely", "https://blog.test/lonely/")}}
	se := &fakeSearcher{results: map[string][]types.SearchResult{
		"Lonely": {{Title: "only one", Link: "https://a.example/1"}},
	}}
	f := &fakeFetcher{}
	rw := &fakeRewriter{}

	report, err := newTestDriver(st, se, f, rw).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Skipped != 1 || report.Published != 0 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if rw.calls != 0 {
		t.Errorf("rewriter must not be invoked below the reference minimum, got %d calls", rw.calls)
	}
	if len(f.calls) != 0 {
		t.Errorf("no reference should be fetched when discovery is short, got %v", f.calls)
	}
}

func TestDriverSkipsWhenScrapingComesUpShort(t *testing.T) {
	results := twoResults("x")
	st := &fakeStore{originals: []types.Article{original("Post X", "https://blog.test/x/")}}
	se := &fakeSearcher{results: map[string][]types.SearchResult{"Post X": results}}
	// Only one of the two reference pages is fetchable.
	f := &fakeFetcher{pages: map[string]string{results[0].Link: "<p>ok</p>"}}
	rw := &fakeRewriter{}

	report, err := newTestDriver(st, se, f, rw).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if rw.calls != 0 {
		t.Errorf("rewriter invoked with too few usable references")
	}
}

func TestDriverFailureIsolation(t *testing.T) {
	st := &fakeStore{originals: []types.Article{
		original("A", "https://blog.test/a/"),
		original("B", "https://blog.test/b/"),
		original("C", "https://blog.test/c/"),
	}}
	ra, rb, rc := twoResults("a"), twoResults("b"), twoResults("c")
	se := &fakeSearcher{results: map[string][]types.SearchResult{"A": ra, "B": rb, "C": rc}}
	f := &fakeFetcher{pages: pagesFor(ra, rb, rc)}
	rw := &fakeRewriter{failFor: "B"}

	report, err := newTestDriver(st, se, f, rw).Run(context.Background())
	if err != nil {
		t.Fatalf("a per-item failure must not fail the run: %v", err)
	}
	if report.Processed != 3 || report.Published != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(st.inserted) != 2 {
		t.Fatalf("expected 2 published records, got %d", len(st.inserted))
	}
	for _, rec := range st.inserted {
		if rec.Title == "B" {
			t.Errorf("failed item was published: %+v", rec)
		}
	}
}

func TestDriverRejectsBlankCompletion(t *testing.T) {
	// A 200 response with no text must never become a published record.
	st := &fakeStore{originals: []types.Article{original("Blank", "https://blog.test/blank/")}}
	results := twoResults("blank")
	se := &fakeSearcher{results: map[string][]types.SearchResult{"Blank": results}}
	f := &fakeFetcher{pages: pagesFor(results)}
	rw := &fakeRewriter{emptyFor: "Blank"}

	report, err := newTestDriver(st, se, f, rw).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 1 || report.Published != 0 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(st.inserted) != 0 {
		t.Errorf("record with empty content was published: %+v", st.inserted)
	}
}

func TestDriverContainsPanics(t *testing.T) {
	st := &fakeStore{originals: []types.Article{
		original("Boom", "https://blog.test/boom/"),
		original("Fine", "https://blog.test/fine/"),
	}}
	rboom, rfine := twoResults("boom"), twoResults("fine")
	se := &fakeSearcher{results: map[string][]types.SearchResult{"Boom": rboom, "Fine": rfine}}
	f := &fakeFetcher{pages: pagesFor(rboom, rfine)}
	rw := &fakeRewriter{panicOn: "Boom"}

	report, err := newTestDriver(st, se, f, rw).Run(context.Background())
	if err != nil {
		t.Fatalf("a panic must be contained to its item: %v", err)
	}
	if report.Failed != 1 || report.Published != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestDriverEmptyStore(t *testing.T) {
	report, err := newTestDriver(&fakeStore{}, &fakeSearcher{}, &fakeFetcher{}, &fakeRewriter{}).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestDriverStopsOnCancellation(t *testing.T) {
	st := &fakeStore{originals: []types.Article{
		original("A", "https://blog.test/a/"),
		original("B", "https://blog.test/b/"),
	}}
	ra, rb := twoResults("a"), twoResults("b")
	se := &fakeSearcher{results: map[string][]types.SearchResult{"A": ra, "B": rb}}
	f := &fakeFetcher{pages: pagesFor(ra, rb)}

	ctx, cancel := context.WithCancel(context.Background())
	rw := &cancellingRewriter{cancel: cancel}

	d := NewDriver(st, se, f, fakeRefExtractor{}, rw, 0, 2, testLogger)
	_, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(st.inserted) != 0 {
		t.Errorf("no record should be published after cancellation, got %d", len(st.inserted))
	}
}

// cancellingRewriter cancels the run from inside the first generation call.
type cancellingRewriter struct {
	cancel context.CancelFunc
}

func (c *cancellingRewriter) Rewrite(ctx context.Context, title, content string, refs []types.ReferenceArticle) (string, error) {
	c.cancel()
	return "", fmt.Errorf("cancelled: %w", ctx.Err())
}
