package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/types"
)

// APIClient implements Store against the articles CRUD collaborator. In the
// deployed system this boundary is the pipeline's only write path into
// persisted state; upsert semantics live server-side.
type APIClient struct {
	base   string
	httpc  *http.Client
	logger *slog.Logger
}

// NewAPIClient creates a store adapter backed by the CRUD API.
func NewAPIClient(cfg *config.StoreConfig, timeout time.Duration, logger *slog.Logger) *APIClient {
	return &APIClient{
		base:   strings.TrimRight(cfg.APIBase, "/"),
		httpc:  &http.Client{Timeout: timeout},
		logger: logger.With("component", "api_store"),
	}
}

// UpsertOriginal posts the article; the server upserts by sourceUrl and
// answers 201 on create, 200 on update.
func (c *APIClient) UpsertOriginal(ctx context.Context, a *types.Article) (UpsertResult, error) {
	status, _, err := c.post(ctx, a)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Created: status == http.StatusCreated}, nil
}

// InsertUpdated posts the rewrite record and returns the assigned id.
func (c *APIClient) InsertUpdated(ctx context.Context, a *types.Article) (string, error) {
	a.Version = types.VersionUpdated
	_, stored, err := c.post(ctx, a)
	if err != nil {
		return "", err
	}
	return stored.ID.Hex(), nil
}

// List fetches articles, optionally filtered by version.
func (c *APIClient) List(ctx context.Context, version types.Version) ([]types.Article, error) {
	endpoint := c.base
	if version != "" {
		endpoint += "?version=" + url.QueryEscape(string(version))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &types.StoreError{Op: "list", Err: err}
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &types.StoreError{Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.StoreError{Op: "list", Err: httpStatusError(resp)}
	}

	var articles []types.Article
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, &types.StoreError{Op: "list_decode", Err: err}
	}
	return articles, nil
}

// Get fetches one article by id.
func (c *APIClient) Get(ctx context.Context, id string) (*types.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, &types.StoreError{Op: "get", Err: err}
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &types.StoreError{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &types.StoreError{Op: "get", Err: httpStatusError(resp)}
	}

	var a types.Article
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, &types.StoreError{Op: "get_decode", Err: err}
	}
	return &a, nil
}

// Update patches a record via PUT.
func (c *APIClient) Update(ctx context.Context, id string, patch *types.Article) (*types.Article, error) {
	body, _ := json.Marshal(patch)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.base+"/"+url.PathEscape(id), bytes.NewReader(body))
	if err != nil {
		return nil, &types.StoreError{Op: "update", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &types.StoreError{Op: "update", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, types.ErrNotFound
	case http.StatusConflict:
		return nil, types.ErrImmutableRecord
	case http.StatusOK:
	default:
		return nil, &types.StoreError{Op: "update", Err: httpStatusError(resp)}
	}

	var a types.Article
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, &types.StoreError{Op: "update_decode", Err: err}
	}
	return &a, nil
}

// Delete removes a record via DELETE.
func (c *APIClient) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/"+url.PathEscape(id), nil)
	if err != nil {
		return &types.StoreError{Op: "delete", Err: err}
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &types.StoreError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusConflict:
		return types.ErrImmutableRecord
	case http.StatusOK, http.StatusNoContent:
		return nil
	default:
		return &types.StoreError{Op: "delete", Err: httpStatusError(resp)}
	}
}

// Close releases resources.
func (c *APIClient) Close(ctx context.Context) error {
	c.httpc.CloseIdleConnections()
	return nil
}

// post sends an article to the collection endpoint and decodes the stored
// record from the response.
func (c *APIClient) post(ctx context.Context, a *types.Article) (int, *types.Article, error) {
	body, _ := json.Marshal(a)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base, bytes.NewReader(body))
	if err != nil {
		return 0, nil, &types.StoreError{Op: "post", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, &types.StoreError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, nil, &types.StoreError{Op: "post", Err: httpStatusError(resp)}
	}

	var stored types.Article
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return resp.StatusCode, nil, &types.StoreError{Op: "post_decode", Err: err}
	}
	return resp.StatusCode, &stored, nil
}

func httpStatusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}
