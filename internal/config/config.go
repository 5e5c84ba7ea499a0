package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for blogforge. Loaded once at startup
// and treated as immutable for the lifetime of a run.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"   yaml:"source"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Extract  ExtractConfig  `mapstructure:"extract"  yaml:"extract"`
	Search   SearchConfig   `mapstructure:"search"   yaml:"search"`
	Rewrite  RewriteConfig  `mapstructure:"rewrite"  yaml:"rewrite"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// SourceConfig describes the blog being ingested.
type SourceConfig struct {
	BaseURL       string `mapstructure:"base_url"       yaml:"base_url"`
	ListingPath   string `mapstructure:"listing_path"   yaml:"listing_path"`
	ItemSelector  string `mapstructure:"item_selector"  yaml:"item_selector"`
	TitleSelector string `mapstructure:"title_selector" yaml:"title_selector"`
	UserAgent     string `mapstructure:"user_agent"     yaml:"user_agent"`
}

// FetcherConfig controls page fetching.
type FetcherConfig struct {
	Type           string        `mapstructure:"type"            yaml:"type"` // http or browser
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodySize    int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
	MaxRedirects   int           `mapstructure:"max_redirects"   yaml:"max_redirects"`
}

// ExtractRule is a single entry in the content-container cascade.
// Earlier rules are more specific and preferred.
type ExtractRule struct {
	Type string `mapstructure:"type" yaml:"type"` // css or xpath
	Expr string `mapstructure:"expr" yaml:"expr"`
}

// ExtractConfig controls main-content extraction.
type ExtractConfig struct {
	Rules            []ExtractRule `mapstructure:"rules"              yaml:"rules"`
	MinContentLength int           `mapstructure:"min_content_length" yaml:"min_content_length"`
}

// SearchConfig controls reference discovery.
type SearchConfig struct {
	Endpoint    string `mapstructure:"endpoint"     yaml:"endpoint"`
	Engine      string `mapstructure:"engine"       yaml:"engine"`
	ResultCount int    `mapstructure:"result_count" yaml:"result_count"`
	TopK        int    `mapstructure:"top_k"        yaml:"top_k"`
	APIKey      string `mapstructure:"api_key"      yaml:"api_key"`
}

// RewriteConfig controls the generative rewrite call.
type RewriteConfig struct {
	Endpoint    string  `mapstructure:"endpoint"    yaml:"endpoint"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	APIKey      string  `mapstructure:"api_key"     yaml:"api_key"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
}

// StoreConfig controls the article store. Backend "mongo" writes directly
// to the document store; "api" goes through the CRUD collaborator.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"    yaml:"backend"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
	APIBase    string `mapstructure:"api_base"   yaml:"api_base"`
}

// PipelineConfig controls the batch run.
type PipelineConfig struct {
	MaxItems     int           `mapstructure:"max_items"     yaml:"max_items"`
	RequestDelay time.Duration `mapstructure:"request_delay" yaml:"request_delay"`
	MinRefs      int           `mapstructure:"min_refs"      yaml:"min_refs"`
}

// APIConfig controls the articles CRUD server.
type APIConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults. The extract rules
// mirror the source site's template variants, most specific first.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:       "https://beyondchats.com",
			ListingPath:   "/blogs/",
			ItemSelector:  "article.entry-card",
			TitleSelector: "h2.entry-title",
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		},
		Fetcher: FetcherConfig{
			Type:           "http",
			RequestTimeout: 10 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			MaxRedirects:   10,
		},
		Extract: ExtractConfig{
			Rules: []ExtractRule{
				{Type: "css", Expr: ".entry-content"},
				{Type: "css", Expr: ".post-content"},
				{Type: "css", Expr: ".article-content"},
				{Type: "xpath", Expr: "//div[@itemprop='articleBody']"},
				{Type: "css", Expr: "article .entry-content"},
				{Type: "css", Expr: "article.post"},
				{Type: "css", Expr: "main"},
				{Type: "css", Expr: "#content"},
			},
			MinContentLength: 1000,
		},
		Search: SearchConfig{
			Endpoint:    "https://serpapi.com/search",
			Engine:      "google",
			ResultCount: 5,
			TopK:        2,
		},
		Rewrite: RewriteConfig{
			Endpoint:    "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Store: StoreConfig{
			Backend:    "mongo",
			URI:        "mongodb://localhost:27017",
			Database:   "blogforge",
			Collection: "articles",
		},
		Pipeline: PipelineConfig{
			MaxItems:     5,
			RequestDelay: 500 * time.Millisecond,
			MinRefs:      2,
		},
		API: APIConfig{
			Addr: ":5000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
