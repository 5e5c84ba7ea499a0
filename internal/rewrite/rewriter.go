package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/types"
)

// Rewriter invokes the generative rewrite service. One request, one
// completion: no streaming, no multi-turn. The temperature is tuned for
// creative-but-grounded rewriting and the raw generated text is returned
// verbatim; human review is expected downstream.
type Rewriter struct {
	cfg    *config.RewriteConfig
	httpc  *http.Client
	logger *slog.Logger
}

// NewRewriter creates a rewrite client.
func NewRewriter(cfg *config.Config, logger *slog.Logger) *Rewriter {
	return &Rewriter{
		cfg: &cfg.Rewrite,
		httpc: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger.With("component", "rewriter"),
	}
}

// Rewrite generates a rewritten version of the original article grounded in
// the reference articles. Caller contract: at least two references with
// non-empty content, not enforced here. Any service error propagates; a
// failed rewrite drops the item for this run.
func (r *Rewriter) Rewrite(ctx context.Context, title, content string, refs []types.ReferenceArticle) (string, error) {
	prompt := BuildPrompt(title, content, refs)

	payload := map[string]any{
		"model": r.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": r.cfg.Temperature,
	}
	if r.cfg.MaxTokens > 0 {
		payload["max_tokens"] = r.cfg.MaxTokens
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &types.GenerationError{Model: r.cfg.Model, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", &types.GenerationError{Model: r.cfg.Model, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &types.GenerationError{
			Model: r.cfg.Model,
			Err:   fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg)),
		}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &types.GenerationError{Model: r.cfg.Model, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return "", &types.GenerationError{Model: r.cfg.Model, Err: fmt.Errorf("no choices in response")}
	}

	text := result.Choices[0].Message.Content
	r.logger.Info("rewrite generated",
		"title", title,
		"references", len(refs),
		"length", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}
