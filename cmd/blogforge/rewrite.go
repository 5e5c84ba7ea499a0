package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nandincho/blogforge/internal/extractor"
	"github.com/nandincho/blogforge/internal/fetcher"
	"github.com/nandincho/blogforge/internal/pipeline"
	"github.com/nandincho/blogforge/internal/rewrite"
	"github.com/nandincho/blogforge/internal/search"
	"github.com/nandincho/blogforge/internal/store"
)

// rewriteCmd creates the "rewrite" subcommand.
func rewriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewrite",
		Short: "Generate rewritten versions of stored original articles",
		Long: `For every original article in the store: search the web for competing
articles on the same topic, scrape their content, and generate a rewritten
version grounded in those references. Each result is published as a new
"updated" record linked to its parent.

Articles with too few usable references are skipped. A failure on one
article never stops the batch.`,
		RunE: runRewrite,
	}
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("search API key is required (set BLOGFORGE_SEARCH_API_KEY)")
	}
	if cfg.Rewrite.APIKey == "" {
		return fmt.Errorf("rewrite API key is required (set BLOGFORGE_REWRITE_API_KEY)")
	}

	logger := setupLogger(cfg)
	ctx := signalContext(logger)

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	st, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer st.Close(context.Background())

	driver := pipeline.NewDriver(
		st,
		search.NewClient(cfg, logger),
		f,
		extractor.NewReadability(cfg.Extract.MinContentLength, logger),
		rewrite.NewRewriter(cfg, logger),
		cfg.Pipeline.RequestDelay,
		cfg.Pipeline.MinRefs,
		logger,
	)

	logger.Info("starting rewrite run",
		"model", cfg.Rewrite.Model,
		"min_refs", cfg.Pipeline.MinRefs,
	)

	start := time.Now()
	report, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("rewrite run: %w", err)
	}

	fmt.Printf("\nRewrite complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Processed:  %d articles\n", report.Processed)
	fmt.Printf("  Published:  %d\n", report.Published)
	fmt.Printf("  Skipped:    %d (insufficient references)\n", report.Skipped)
	fmt.Printf("  Failed:     %d\n", report.Failed)

	return nil
}
