package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/nandincho/blogforge/internal/config"
)

// Page is a parsed HTML document, usable by both CSS and XPath strategies.
type Page struct {
	Doc  *goquery.Document
	Root *html.Node
}

// ParsePage parses raw HTML once and wraps it for strategy use.
func ParsePage(rawHTML string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &Page{Doc: goquery.NewDocumentFromNode(root), Root: root}, nil
}

// Strategy is a single attempt at locating the main content container.
type Strategy interface {
	// Name identifies the strategy in diagnostics.
	Name() string

	// TryExtract returns the inner markup of the matched container, or
	// ok=false when the strategy does not apply to this page.
	TryExtract(p *Page) (content string, ok bool)
}

// CSSStrategy matches a content container by CSS selector.
type CSSStrategy struct {
	Expr string
}

func (s *CSSStrategy) Name() string { return "css:" + s.Expr }

func (s *CSSStrategy) TryExtract(p *Page) (string, bool) {
	sel := p.Doc.Find(s.Expr)
	if sel.Length() == 0 {
		return "", false
	}
	markup, err := sel.Html()
	if err != nil || strings.TrimSpace(markup) == "" {
		return "", false
	}
	return markup, true
}

// XPathStrategy matches a content container by XPath expression.
type XPathStrategy struct {
	Expr string
}

func (s *XPathStrategy) Name() string { return "xpath:" + s.Expr }

func (s *XPathStrategy) TryExtract(p *Page) (string, bool) {
	nodes, err := htmlquery.QueryAll(p.Root, s.Expr)
	if err != nil || len(nodes) == 0 {
		return "", false
	}
	markup := innerHTML(nodes[0])
	if strings.TrimSpace(markup) == "" {
		return "", false
	}
	return markup, true
}

// Cascade tries an ordered list of strategies and keeps the first non-empty
// match. Earlier entries are more specific; the ordering exists because site
// markup varies across templates.
type Cascade struct {
	strategies []Strategy
	minLength  int
	logger     *slog.Logger
}

// NewCascade builds a cascade from configured extraction rules.
func NewCascade(cfg *config.ExtractConfig, logger *slog.Logger) (*Cascade, error) {
	strategies := make([]Strategy, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		switch rule.Type {
		case "css":
			strategies = append(strategies, &CSSStrategy{Expr: rule.Expr})
		case "xpath":
			strategies = append(strategies, &XPathStrategy{Expr: rule.Expr})
		default:
			return nil, fmt.Errorf("unknown extract rule type: %q", rule.Type)
		}
	}
	return &Cascade{
		strategies: strategies,
		minLength:  cfg.MinContentLength,
		logger:     logger.With("component", "extractor"),
	}, nil
}

// Extract returns the best-guess main article body as HTML. Parse failures
// and missing containers map to an empty string; a single bad page must
// not abort a batch. Falls back to the first article-like container, then
// the full body markup.
func (c *Cascade) Extract(rawHTML, baseURL string) string {
	page, err := ParsePage(rawHTML)
	if err != nil {
		c.logger.Warn("parse failed, treating as empty content", "url", baseURL, "error", err)
		return ""
	}

	for _, strategy := range c.strategies {
		if content, ok := strategy.TryExtract(page); ok {
			c.report(baseURL, strategy.Name(), content)
			return content
		}
	}

	if markup, err := page.Doc.Find("article").First().Html(); err == nil && strings.TrimSpace(markup) != "" {
		c.report(baseURL, "fallback:article", markup)
		return markup
	}

	if markup, err := page.Doc.Find("body").Html(); err == nil && strings.TrimSpace(markup) != "" {
		c.report(baseURL, "fallback:body", markup)
		return markup
	}

	c.logger.Warn("no content found by any strategy", "url", baseURL)
	return ""
}

// report emits the extraction diagnostic: content length, or a warning when
// the result is empty or suspiciously short. Consumed by run reporting, not
// control flow.
func (c *Cascade) report(url, strategy, content string) {
	n := len(content)
	switch {
	case n == 0:
		c.logger.Warn("extracted content empty", "url", url, "strategy", strategy)
	case n < c.minLength:
		c.logger.Warn("extracted content unusually short", "url", url, "strategy", strategy, "length", n)
	default:
		c.logger.Info("content extracted", "url", url, "strategy", strategy, "length", n)
	}
}

// innerHTML renders the children of a node as markup.
func innerHTML(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&b, child); err != nil {
			return ""
		}
	}
	return b.String()
}
