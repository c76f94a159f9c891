package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/mythos/internal/domain/services"
)

type findFlags struct {
	exact           bool
	mythology       string
	entityType      string
	limit           int
	allowDuplicates bool
	asJSON          bool
}

func newFindCmd() *cobra.Command {
	var flags findFlags

	cmd := &cobra.Command{
		Use:   "find <name>",
		Short: "Find entities by any of their names",
		Long:  "Looks up entities whose names contain the query, ignoring case and accents, ranked by relevance.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.exact, "exact", false, "Match the whole name")
	cmd.Flags().StringVarP(&flags.mythology, "mythology", "m", "", "Filter by mythology")
	cmd.Flags().StringVarP(&flags.entityType, "type", "t", "", "Filter by entity type")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 0, "Maximum number of results (default from config)")
	cmd.Flags().BoolVar(&flags.allowDuplicates, "allow-duplicates", false, "Return one result per matching name instead of per entity")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Output as JSON")

	return cmd
}

func runFind(cmd *cobra.Command, query string, flags findFlags) error {
	return withDeps(cmd.Context(), func(d *Deps) error {
		limit := flags.limit
		if limit <= 0 {
			limit = d.Config.Index.DefaultLimit
		}

		result := d.LookupHandler.HandleFind(query, services.FindOptions{
			ExactMatch:      flags.exact,
			Mythology:       flags.mythology,
			EntityType:      flags.entityType,
			Limit:           limit,
			AllowDuplicates: flags.allowDuplicates,
		})

		if flags.asJSON {
			return printJSON(result)
		}

		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if len(result.Matches) == 0 {
			fmt.Printf("No entities found for %q.\n", query)
			return nil
		}

		fmt.Printf("Found %d entities for %q:\n\n", len(result.Matches), query)
		writeMatches(os.Stdout, result.Matches)
		return nil
	})
}

func newAliasesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "aliases <id>",
		Short: "List every name of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result := d.LookupHandler.HandleAliases(args[0])
				if asJSON {
					return printJSON(result)
				}
				if result.Entity == nil {
					return fmt.Errorf("entity %q not found", args[0])
				}

				fmt.Printf("%s (%s)\n", result.Entity.PrimaryName, result.Entity.ID)
				for _, name := range result.Names {
					fmt.Printf("  %s\n", name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newExpandCmd() *cobra.Command {
	var (
		maxAlternates int
		partial       bool
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "expand <term>",
		Short: "Expand a search term with known aliases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return withDeps(cmd.Context(), func(d *Deps) error {
				if maxAlternates <= 0 {
					maxAlternates = d.Config.Index.MaxAlternates
				}
				result := d.LookupHandler.HandleExpand(term, services.ExpandOptions{
					MaxAlternates:         maxAlternates,
					IncludePartialMatches: partial,
				})
				if asJSON {
					return printJSON(result)
				}
				fmt.Println(strings.Join(result.Terms, "\n"))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxAlternates, "max", 0, "Maximum aliases to add (default from config)")
	cmd.Flags().BoolVar(&partial, "partial", false, "Draw aliases from partial matches too")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
