package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nandincho/blogforge/internal/crawler"
	"github.com/nandincho/blogforge/internal/extractor"
	"github.com/nandincho/blogforge/internal/fetcher"
	"github.com/nandincho/blogforge/internal/pipeline"
	"github.com/nandincho/blogforge/internal/store"
)

var seedMaxItems int

// seedCmd creates the "seed" subcommand.
func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crawl the source blog and store original articles",
		Long: `Crawl the source blog's listing pages, select the oldest articles,
extract their content, and upsert them into the store keyed by source URL.
Running seed twice with unchanged input leaves the store unchanged.`,
		RunE: runSeed,
	}

	cmd.Flags().IntVarP(&seedMaxItems, "max-items", "m", 0, "number of oldest articles to seed (0 = config default)")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if seedMaxItems > 0 {
		cfg.Pipeline.MaxItems = seedMaxItems
	}

	logger := setupLogger(cfg)
	ctx := signalContext(logger)

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	cascade, err := extractor.NewCascade(&cfg.Extract, logger)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	st, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer st.Close(context.Background())

	listing := crawler.NewListing(f, cfg, logger)
	seeder := pipeline.NewSeeder(listing, f, cascade, st, cfg.Pipeline.MaxItems, cfg.Pipeline.RequestDelay, logger)

	logger.Info("starting seed run",
		"base_url", cfg.Source.BaseURL,
		"max_items", cfg.Pipeline.MaxItems,
	)

	start := time.Now()
	report, err := seeder.Run(ctx)
	if err != nil {
		return fmt.Errorf("seed run: %w", err)
	}

	fmt.Printf("\nSeed complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Listing items:  %d collected\n", report.Collected)
	fmt.Printf("  Window:         %d articles\n", report.Fetched)
	fmt.Printf("  Stored:         %d new, %d updated, %d failed\n", report.New, report.Updated, report.Failed)

	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig.String())
		cancel()
	}()
	return ctx
}
