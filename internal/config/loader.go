package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// BLOGFORGE_SEARCH_API_KEY, BLOGFORGE_REWRITE_API_KEY, etc.
	v.SetEnvPrefix("BLOGFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("blogforge")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".blogforge"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine when none was explicitly requested; a file
		// that exists but cannot be parsed is always an error.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env-only keys resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.base_url", cfg.Source.BaseURL)
	v.SetDefault("source.listing_path", cfg.Source.ListingPath)
	v.SetDefault("source.item_selector", cfg.Source.ItemSelector)
	v.SetDefault("source.title_selector", cfg.Source.TitleSelector)
	v.SetDefault("source.user_agent", cfg.Source.UserAgent)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)

	v.SetDefault("extract.min_content_length", cfg.Extract.MinContentLength)

	v.SetDefault("search.endpoint", cfg.Search.Endpoint)
	v.SetDefault("search.engine", cfg.Search.Engine)
	v.SetDefault("search.result_count", cfg.Search.ResultCount)
	v.SetDefault("search.top_k", cfg.Search.TopK)
	v.SetDefault("search.api_key", cfg.Search.APIKey)

	v.SetDefault("rewrite.endpoint", cfg.Rewrite.Endpoint)
	v.SetDefault("rewrite.model", cfg.Rewrite.Model)
	v.SetDefault("rewrite.api_key", cfg.Rewrite.APIKey)
	v.SetDefault("rewrite.temperature", cfg.Rewrite.Temperature)
	v.SetDefault("rewrite.max_tokens", cfg.Rewrite.MaxTokens)

	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.uri", cfg.Store.URI)
	v.SetDefault("store.database", cfg.Store.Database)
	v.SetDefault("store.collection", cfg.Store.Collection)
	v.SetDefault("store.api_base", cfg.Store.APIBase)

	v.SetDefault("pipeline.max_items", cfg.Pipeline.MaxItems)
	v.SetDefault("pipeline.request_delay", cfg.Pipeline.RequestDelay)
	v.SetDefault("pipeline.min_refs", cfg.Pipeline.MinRefs)

	v.SetDefault("api.addr", cfg.API.Addr)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
