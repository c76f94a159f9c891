package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/mythos/internal/application/handlers"
	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/services"
)

type loadFlags struct {
	categories []string
	workers    int
	history    bool
	limit      int
	asJSON     bool
}

func newLoadCmd() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the name index from the configured source and report",
		Long:  "Builds the name index from the configured source, prints load statistics and per-file errors, and records the run in the SQLite store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.history {
				return runLoadHistory(cmd, flags)
			}
			return runLoad(cmd, flags)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.categories, "category", "c", nil, "Categories to load (default: all)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Concurrent fetches (default from config)")
	cmd.Flags().BoolVar(&flags.history, "history", false, "Show recorded load runs instead of loading")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultHistoryLimit, "Number of runs to show with --history")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Output as JSON")

	return cmd
}

func runLoad(cmd *cobra.Command, flags loadFlags) error {
	ctx := cmd.Context()

	return withStore(func(d *internalDeps) error {
		opts := d.loadOptions()
		if len(flags.categories) > 0 {
			opts.Categories = flags.categories
		}
		if flags.workers > 0 {
			opts.Workers = flags.workers
		}

		index := services.NewNameVariantIndex(d.Logger)
		handler := handlers.NewLoadHandler(services.NewLoaderService(index, d.Logger), d.store, d.Logger)

		var result *handlers.LoadResult
		err := withWriteLock(ctx, d.BasePath, func() error {
			var err error
			result, err = handler.Handle(ctx, d.source, d.sourceName, opts)
			return err
		})
		if err != nil {
			return fmt.Errorf("loading index: %w", err)
		}

		if flags.asJSON {
			return printJSON(result)
		}
		printLoadResult(result, index.Stats())
		return nil
	})
}

func printLoadResult(result *handlers.LoadResult, stats entities.IndexStats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Source:\t%s\n", result.Source)
	fmt.Fprintf(w, "Run:\t%s\n", result.Stats.RunID)
	fmt.Fprintf(w, "Entities:\t%d\n", result.Stats.TotalEntities)
	fmt.Fprintf(w, "Names:\t%d (%d distinct)\n", result.Stats.TotalNames, stats.TotalNameVariants)
	fmt.Fprintf(w, "Skipped:\t%d\n", result.Stats.Skipped)
	fmt.Fprintf(w, "Duration:\t%s\n", result.Stats.Duration.Round(time.Millisecond))
	w.Flush()

	if len(result.Stats.ByType) > 0 {
		fmt.Println("\nBy type:")
		for _, tc := range handlers.NewEntityTypeHandler().HandleList(result.Stats.ByType) {
			if tc.Count > 0 {
				fmt.Printf("  %-12s %d\n", tc.Name, tc.Count)
			}
		}
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
}

func runLoadHistory(cmd *cobra.Command, flags loadFlags) error {
	return withStore(func(d *internalDeps) error {
		handler := handlers.NewLoadHandler(nil, d.store, d.Logger)

		runs, err := handler.HandleHistory(cmd.Context(), flags.limit)
		if err != nil {
			return err
		}

		if flags.asJSON {
			return printJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Println("No load runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tSOURCE\tENTITIES\tNAMES\tSKIPPED\tERRORS\tDURATION")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%dms\n",
				r.CreatedAt.Local().Format(time.DateTime), truncate(r.Source, 40),
				r.TotalEntities, r.TotalNames, r.Skipped, r.Errors, r.DurationMS)
		}
		return w.Flush()
	})
}
