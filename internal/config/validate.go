package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Source.BaseURL); err != nil {
		return fmt.Errorf("source.base_url: %w", err)
	}
	if cfg.Source.ListingPath == "" {
		return fmt.Errorf("source.listing_path must not be empty")
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if len(cfg.Extract.Rules) == 0 {
		return fmt.Errorf("extract.rules must not be empty")
	}
	for i, r := range cfg.Extract.Rules {
		if r.Type != "css" && r.Type != "xpath" {
			return fmt.Errorf("extract.rules[%d].type must be 'css' or 'xpath', got %q", i, r.Type)
		}
		if r.Expr == "" {
			return fmt.Errorf("extract.rules[%d].expr must not be empty", i)
		}
	}

	if cfg.Search.ResultCount < 1 {
		return fmt.Errorf("search.result_count must be >= 1, got %d", cfg.Search.ResultCount)
	}
	if cfg.Search.TopK < 1 || cfg.Search.TopK > cfg.Search.ResultCount {
		return fmt.Errorf("search.top_k must be 1..result_count, got %d", cfg.Search.TopK)
	}

	if cfg.Rewrite.Temperature < 0 || cfg.Rewrite.Temperature > 2 {
		return fmt.Errorf("rewrite.temperature must be 0..2, got %v", cfg.Rewrite.Temperature)
	}

	switch cfg.Store.Backend {
	case "mongo":
		if cfg.Store.URI == "" {
			return fmt.Errorf("store.uri must be set for the mongo backend")
		}
	case "api":
		if err := ValidateURL(cfg.Store.APIBase); err != nil {
			return fmt.Errorf("store.api_base: %w", err)
		}
	default:
		return fmt.Errorf("store.backend must be 'mongo' or 'api', got %q", cfg.Store.Backend)
	}

	if cfg.Pipeline.MaxItems < 1 {
		return fmt.Errorf("pipeline.max_items must be >= 1, got %d", cfg.Pipeline.MaxItems)
	}
	if cfg.Pipeline.RequestDelay < 0 {
		return fmt.Errorf("pipeline.request_delay must be >= 0")
	}
	if cfg.Pipeline.MinRefs < 1 {
		return fmt.Errorf("pipeline.min_refs must be >= 1, got %d", cfg.Pipeline.MinRefs)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a fetch target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
