package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/nandincho/blogforge/internal/types"
)

// Readability extracts the primary textual content of an arbitrary HTML
// document using content-density scoring, without site-specific knowledge.
// Used for third-party reference pages whose markup is unknown.
type Readability struct {
	minLength int
	logger    *slog.Logger
}

// NewReadability creates a readability extractor. minLength only affects
// the diagnostic warning threshold.
func NewReadability(minLength int, logger *slog.Logger) *Readability {
	return &Readability{
		minLength: minLength,
		logger:    logger.With("component", "readability"),
	}
}

// Extract parses the DOM, strips navigation/ads/boilerplate, and returns the
// article text with detected title and a short excerpt. Returns ok=false on
// any parse failure or empty result, never an error: a failed page must not
// abort a batch.
func (r *Readability) Extract(rawHTML, pageURL string) (types.ReferenceArticle, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		r.logger.Warn("invalid reference URL", "url", pageURL, "error", err)
		return types.ReferenceArticle{}, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		r.logger.Warn("readability parse failed", "url", pageURL, "error", err)
		return types.ReferenceArticle{}, false
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		r.logger.Warn("readability found no content", "url", pageURL)
		return types.ReferenceArticle{}, false
	}

	if len(text) < r.minLength {
		r.logger.Warn("reference content unusually short", "url", pageURL, "length", len(text))
	} else {
		r.logger.Info("reference content extracted",
			"url", pageURL,
			"title", article.Title,
			"length", len(text),
			"excerpt", truncate(article.Excerpt, 80),
		)
	}

	return types.ReferenceArticle{
		Title:   article.Title,
		Content: text,
		URL:     pageURL,
	}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
