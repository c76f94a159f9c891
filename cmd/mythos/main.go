// Package main provides the entry point for the mythos CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"

	globalDataDir  string
	globalSource   string
	globalLogLevel string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := newRootCmd()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mythos",
		Short:         "Alternate-name index for mythological entities",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalDataDir, "data", "d", "", "Data directory (overrides data.dir)")
	rootCmd.PersistentFlags().StringVar(&globalSource, "source", "", "Entity source: directory, sqlite or http (overrides data.source)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newInitCmd(),
		newFindCmd(),
		newAliasesCmd(),
		newExpandCmd(),
		newStatsCmd(),
		newTypesCmd(),
		newImportCmd(),
		newLoadCmd(),
		newSyncVectorsCmd(),
		newSearchCmd(),
		newWatchCmd(),
	)

	return rootCmd
}
