package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/memsrv/internal/config"
	"github.com/aman-cerp/memsrv/internal/embed"
	"github.com/aman-cerp/memsrv/internal/httpadapter"
	"github.com/aman-cerp/memsrv/internal/logging"
	"github.com/aman-cerp/memsrv/internal/mcpadapter"
	"github.com/aman-cerp/memsrv/internal/metrics"
	"github.com/aman-cerp/memsrv/internal/service"
	"github.com/aman-cerp/memsrv/internal/summarize"
	"github.com/aman-cerp/memsrv/internal/vectorstore"
)

func newServeCmd() *cobra.Command {
	var transport string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the memory server",
		Long: `Start the memory server over one of two transports:

  stdio  MCP tool protocol over stdin/stdout, for agent clients (default)
  http   REST API for ingest, search, summarize, and discovery

In stdio mode, stdout carries JSON-RPC frames exclusively; all logging
goes to file (use --debug to see it) or stderr, never stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport, addr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport to serve on: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for the http transport (defaults to the configured server port)")

	return cmd
}

// runServe builds the dependency graph (embedder, store, summarizer,
// service) and starts the requested surface adapter. Neither adapter
// performs storage side effects of its own; both call into the same
// *service.Service.
func runServe(ctx context.Context, transport, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// MCP protocol requires stdout to carry JSON-RPC frames exclusively.
	// Route startup logging to file/stderr before touching the embedder
	// or store, neither of which may write to stdout either.
	var cleanup func()
	if transport == "stdio" {
		cleanup, err = logging.SetupStdioMode()
	} else {
		cleanup, err = logging.SetupDefault()
	}
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer cleanup()

	embedder, err := embed.New(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}
	defer embedder.Close()

	store, err := vectorstore.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
	if err != nil {
		return fmt.Errorf("connecting to qdrant: %w", err)
	}
	defer store.Close()

	summarizer := summarize.NewClient(newLiveProvider(cfg))
	svc := service.New(embedder, store, summarizer, metrics.New(), cfg)

	switch transport {
	case "stdio":
		slog.Info("starting memsrv", slog.String("transport", "stdio"))
		return mcpadapter.New(svc, slog.Default()).Run(ctx)
	case "http":
		listenAddr := addr
		if listenAddr == "" {
			listenAddr = fmt.Sprintf(":%d", cfg.Server.Port)
		}
		slog.Info("starting memsrv", slog.String("transport", "http"), slog.String("addr", listenAddr))
		srv := httpadapter.New(svc)
		if err := srv.Start(listenAddr); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q: must be stdio or http", transport)
	}
}

// newLiveProvider wires the abstractive summarization backend. Without an
// OpenAI key the client still works: Auto and Extractive strategies need
// no live provider, and an explicit Abstractive request fails with a
// ProviderUnavailable error instead of silently downgrading.
func newLiveProvider(cfg config.Config) summarize.LiveProvider {
	if cfg.Embedding.OpenAIKey == "" {
		return nil
	}
	return summarize.NewOpenAIProvider(cfg.Embedding.OpenAIKey)
}
