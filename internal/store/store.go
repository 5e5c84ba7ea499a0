package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/types"
)

// UpsertResult reports whether an upsert created a new record or modified
// an existing one. Used for run reporting only; no behavioral branching
// depends on it.
type UpsertResult struct {
	Created bool
}

// Store is the article persistence boundary. Two adapters exist: a direct
// document-store adapter and an HTTP client for the CRUD collaborator,
// which is the deployed pipeline's only write path.
type Store interface {
	// UpsertOriginal atomically creates or updates the record keyed by
	// sourceUrl, setting only title and originalContent on update.
	UpsertOriginal(ctx context.Context, a *types.Article) (UpsertResult, error)

	// InsertUpdated creates a rewrite record. The caller supplies the
	// derived sourceUrl, references, and parent linkage.
	InsertUpdated(ctx context.Context, a *types.Article) (string, error)

	// List returns articles, optionally filtered by version ("" = all).
	List(ctx context.Context, version types.Version) ([]types.Article, error)

	// Get returns one article by id, or types.ErrNotFound.
	Get(ctx context.Context, id string) (*types.Article, error)

	// Update patches a record's mutable fields by id.
	Update(ctx context.Context, id string, patch *types.Article) (*types.Article, error)

	// Delete removes a record by id.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// New creates the store adapter selected by the configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Store.Backend {
	case "mongo":
		return NewMongo(ctx, &cfg.Store, logger)
	case "api":
		return NewAPIClient(&cfg.Store, cfg.Fetcher.RequestTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}
}

// DerivedSourceURL constructs the sourceUrl for a rewrite record. It must
// be deterministic and distinct from the parent's to preserve the store's
// uniqueness invariant without a conflict at insert time.
func DerivedSourceURL(parent *types.Article) string {
	if parent.SourceURL != "" {
		return parent.SourceURL + "-updated"
	}
	return "updated-" + parent.ID.Hex()
}
