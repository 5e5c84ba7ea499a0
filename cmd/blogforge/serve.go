package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nandincho/blogforge/internal/api"
	"github.com/nandincho/blogforge/internal/store"
)

var serveAddr string

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the articles CRUD API",
		Long: `Serve the articles HTTP API backed by the document store.
The seed and rewrite stages can write through this API by setting
store.backend to "api".`,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.API.Addr = serveAddr
	}
	// The server itself must not write through its own HTTP surface.
	cfg.Store.Backend = "mongo"

	logger := setupLogger(cfg)
	ctx := signalContext(logger)

	st, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer st.Close(context.Background())

	server := api.NewServer(st, logger)

	fmt.Printf("Articles API listening on %s\n", cfg.API.Addr)
	return server.Run(cfg.API.Addr)
}
