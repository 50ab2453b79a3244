// Package main is the entry point for the itinerary API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		// The logger may not be configured yet; the default handler writes to stderr.
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newRootCmd builds "api". With no subcommand it serves, so existing process
// managers can keep running the bare binary.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Trip itinerary draft/commit service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// newLogger builds the JSON logger at the configured level. An unknown level
// falls back to info.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
