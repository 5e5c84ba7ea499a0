package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nandincho/blogforge/internal/config"
)

// Fetcher retrieves the raw HTML of a page. Implementations must treat a
// timeout like any other fetch failure; callers map failures to empty
// content rather than aborting the batch.
type Fetcher interface {
	// Fetch downloads the page at rawURL and returns its body.
	Fetch(ctx context.Context, rawURL string) ([]byte, error)

	// Close releases resources.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New creates the fetcher selected by the configuration.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "http":
		return NewHTTPFetcher(cfg, logger), nil
	case "browser":
		return NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %q", cfg.Fetcher.Type)
	}
}
