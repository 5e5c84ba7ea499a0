package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/types"
)

// Client queries the search service for competing articles on a topic.
// Results keep the service's own ranking; no local re-ranking is done.
type Client struct {
	httpc      *http.Client
	cfg        *config.SearchConfig
	sourceHost string
	logger     *slog.Logger
}

// NewClient creates a search client. sourceHost is the origin of the source
// site, used for self-reference exclusion.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	sourceHost := ""
	if u, err := url.Parse(cfg.Source.BaseURL); err == nil {
		sourceHost = strings.TrimPrefix(u.Hostname(), "www.")
	}
	return &Client{
		httpc:      &http.Client{Timeout: cfg.Fetcher.RequestTimeout},
		cfg:        &cfg.Search,
		sourceHost: sourceHost,
		logger:     logger.With("component", "search"),
	}
}

// organicResponse is the organic_results-shaped payload of the service.
type organicResponse struct {
	OrganicResults []types.SearchResult `json:"organic_results"`
}

// Discover queries the search service with the article title, filters out
// same-origin results, and truncates to the top-K by service ranking.
// Any discovery failure degrades to an empty sequence: callers treat fewer
// than the minimum references as a skip condition, never a fatal error.
func (c *Client) Discover(ctx context.Context, title string) []types.SearchResult {
	results, err := c.query(ctx, title)
	if err != nil {
		c.logger.Warn("search failed", "query", title, "error", err)
		return nil
	}

	filtered := make([]types.SearchResult, 0, c.cfg.TopK)
	for _, r := range results {
		if r.Link == "" || c.sameOrigin(r.Link) {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == c.cfg.TopK {
			break
		}
	}

	c.logger.Info("references discovered",
		"query", title,
		"raw", len(results),
		"selected", len(filtered),
	)
	return filtered
}

// query performs the GET against the search endpoint.
func (c *Client) query(ctx context.Context, title string) ([]types.SearchResult, error) {
	params := url.Values{}
	params.Set("q", title)
	params.Set("engine", c.cfg.Engine)
	params.Set("num", strconv.Itoa(c.cfg.ResultCount))
	params.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &types.SearchError{Query: title, Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &types.SearchError{Query: title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, &types.SearchError{Query: title, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var payload organicResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &types.SearchError{Query: title, Err: fmt.Errorf("decode response: %w", err)}
	}
	return payload.OrganicResults, nil
}

// sameOrigin reports whether a link belongs to the source site. Prevents an
// article being rewritten using itself as a reference. Subdomains of the
// source host count as same-origin.
func (c *Client) sameOrigin(link string) bool {
	if c.sourceHost == "" {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return true // unparseable links are unusable anyway
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == c.sourceHost || strings.HasSuffix(host, "."+c.sourceHost)
}
