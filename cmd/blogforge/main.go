package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nandincho/blogforge/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blogforge",
		Short: "BlogForge: blog content acquisition and rewriting pipeline",
		Long: `BlogForge ingests articles from a source blog, discovers competing
articles on the same topics, and publishes AI-rewritten versions.

Stages:
  seed     crawl the source blog listing and store original articles
  rewrite  discover references, scrape them, and generate rewritten versions
  serve    run the articles CRUD API`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(rewriteCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration for a command run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("BlogForge %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Source:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Source.BaseURL)
			fmt.Printf("  Listing Path:      %s\n", cfg.Source.ListingPath)
			fmt.Printf("  Item Selector:     %s\n", cfg.Source.ItemSelector)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Rules:             %d configured\n", len(cfg.Extract.Rules))
			fmt.Printf("  Min Length:        %d\n", cfg.Extract.MinContentLength)
			fmt.Printf("\nSearch:\n")
			fmt.Printf("  Endpoint:          %s\n", cfg.Search.Endpoint)
			fmt.Printf("  Engine:            %s\n", cfg.Search.Engine)
			fmt.Printf("  Top K:             %d\n", cfg.Search.TopK)
			fmt.Printf("  API Key:           %s\n", maskSecret(cfg.Search.APIKey))
			fmt.Printf("\nRewrite:\n")
			fmt.Printf("  Endpoint:          %s\n", cfg.Rewrite.Endpoint)
			fmt.Printf("  Model:             %s\n", cfg.Rewrite.Model)
			fmt.Printf("  Temperature:       %.2f\n", cfg.Rewrite.Temperature)
			fmt.Printf("  API Key:           %s\n", maskSecret(cfg.Rewrite.APIKey))
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Backend:           %s\n", cfg.Store.Backend)
			fmt.Printf("  URI:               %s\n", cfg.Store.URI)
			fmt.Printf("  Database:          %s\n", cfg.Store.Database)
			fmt.Printf("\nPipeline:\n")
			fmt.Printf("  Max Items:         %d\n", cfg.Pipeline.MaxItems)
			fmt.Printf("  Request Delay:     %s\n", cfg.Pipeline.RequestDelay)
			fmt.Printf("  Min References:    %d\n", cfg.Pipeline.MinRefs)
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Addr:              %s\n", cfg.API.Addr)
			return nil
		},
	}
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "****"
}

// setupLogger creates a structured logger from the logging configuration.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
