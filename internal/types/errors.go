package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's failure modes.
var (
	ErrNoListingItems  = errors.New("listing page yielded no items")
	ErrNotFound        = errors.New("article not found")
	ErrImmutableRecord = errors.New("updated records are immutable")
)

// FetchError wraps errors that occur while fetching a page. Fetch failures
// are always non-fatal to a run: callers map them to empty content.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SearchError wraps failures from the reference discovery service.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search error for %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// GenerationError wraps failures from the rewrite service. A generation
// failure drops the current item for the run; there is no local fallback.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error (model=%s): %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StoreError wraps failures from the article store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
