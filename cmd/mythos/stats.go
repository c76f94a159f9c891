package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/mythos/internal/application/handlers"
)

func newStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show name index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				stats := d.LookupHandler.HandleStats()
				if asJSON {
					return printJSON(stats)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Source:\t%s\n", d.LoadResult.Source)
				fmt.Fprintf(w, "Entities:\t%d\n", stats.TotalEntities)
				fmt.Fprintf(w, "Name variants:\t%d\n", stats.TotalNameVariants)
				fmt.Fprintf(w, "Names per entity:\t%.2f\n", stats.AverageNamesPerEntity)
				fmt.Fprintf(w, "Skipped records:\t%d\n", d.LoadResult.Stats.Skipped)
				fmt.Fprintf(w, "Load errors:\t%d\n", len(d.LoadResult.Errors))
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List entity types and how many indexed entities use each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				handler := handlers.NewEntityTypeHandler()
				types := handler.HandleList(d.LoadResult.Stats.ByType)

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCOUNT\tDEFAULT\tDESCRIPTION")
				for i := range types {
					isDefault := ""
					if types[i].Default {
						isDefault = "yes"
					}
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", types[i].Name, types[i].Count, isDefault, truncate(types[i].Description, 50))
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(newTypesDescribeCmd())

	return cmd
}

func newTypesDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show a default entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := handlers.NewEntityTypeHandler().HandleDescribe(args[0])
			if t == nil {
				return fmt.Errorf("%q is not a default entity type", args[0])
			}
			fmt.Printf("Name:        %s\n", t.Name)
			fmt.Printf("Description: %s\n", t.Description)
			return nil
		},
	}
}
