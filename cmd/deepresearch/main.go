// Package main provides the deepresearch MCP server entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/deepresearch/config"
	"github.com/richinex/deepresearch/mcpserver"
	"github.com/richinex/deepresearch/research"
	"github.com/richinex/deepresearch/upstream"
)

var verbose bool

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "deepresearch",
		Short: "MCP server proxying to hosted deep research",
		Long: `An MCP stdio server exposing background deep research as two tools:

- start_research: start a research job, returns its id immediately
- get_result: poll a job by id; returns the report, citations, and steps once completed

Requires OPENAI_API_KEY in the environment or a .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio (also the default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	// stdout carries the MCP wire protocol; all logging goes to stderr.
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	settings, err := config.New()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	client := upstream.NewHTTPClient(settings)
	svc := research.NewService(client, settings)

	logger.Debug("starting MCP server",
		"model", settings.Model,
		"max_tool_calls", settings.MaxToolCalls,
		"timeout", settings.RequestTimeout,
	)

	return mcpserver.Serve(ctx, svc, logger)
}
