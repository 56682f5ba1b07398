// Package cmd provides the CLI commands for memsrv.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/memsrv/internal/logging"
	"github.com/aman-cerp/memsrv/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the memsrv CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memsrv",
		Short: "Agent memory server: chunk, embed, and search free-form text",
		Long: `memsrv accepts free-form text, token-bounds it into chunks, embeds each
chunk, and persists vectors and metadata in Qdrant.

It serves filtered semantic search and time-windowed summarization over
that memory through two surfaces: an MCP stdio tool protocol for agent
clients, and an HTTP API for everything else.

Run 'memsrv serve' to start it.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("memsrv version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (optional, env vars always win)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.memsrv/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// startLogging wires debug file logging when --debug is set. It runs before
// every subcommand, serve included; serve then installs its own default
// logger (logging.SetupStdioMode for stdio, logging.SetupDefault for http).
func startLogging(cmd *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
