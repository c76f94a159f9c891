package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/mythos/internal/application/handlers"
	"github.com/ersonp/mythos/internal/domain/services"
	"github.com/ersonp/mythos/internal/infrastructure/embedder/openai"
)

type searchFlags struct {
	limit      int
	mythology  string
	entityType string
	partial    bool
	asJSON     bool
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search entities by name and meaning",
		Long:  "Expands the query with known aliases, then combines name matches with a semantic search over entity vectors (see sync-vectors).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().StringVarP(&flags.mythology, "mythology", "m", "", "Filter by mythology")
	cmd.Flags().StringVarP(&flags.entityType, "type", "t", "", "Filter by entity type")
	cmd.Flags().BoolVar(&flags.partial, "partial", false, "Expand with aliases of partial matches too")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Output as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, flags searchFlags) error {
	return withSearchHandler(cmd.Context(), func(handler *handlers.SearchHandler, d *Deps) error {
		result, err := handler.Handle(cmd.Context(), query, services.SearchOptions{
			Limit:                 flags.limit,
			Mythology:             flags.mythology,
			EntityType:            flags.entityType,
			MaxAlternates:         d.Config.Index.MaxAlternates,
			IncludePartialMatches: flags.partial,
		})
		if err != nil {
			return err
		}

		if flags.asJSON {
			return printJSON(result)
		}

		fmt.Printf("Terms: %s\n\n", strings.Join(result.Terms, ", "))
		if len(result.Hits) == 0 {
			fmt.Println("No entities found.")
			return nil
		}

		for i, h := range result.Hits {
			score := fmt.Sprintf("relevance %d", h.Relevance)
			if h.Source == services.HitSourceVector {
				score = fmt.Sprintf("score %.3f", h.Score)
			}
			fmt.Printf("%d. %s (%s) [%s, %s]\n", i+1, h.Name, h.ID, h.Source, score)
		}
		return nil
	})
}

func newSyncVectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-vectors",
		Short: "Embed stored entity records into the vector store",
		Long:  "Embeds the names of every record in the SQLite store and upserts them into the Qdrant collection. Populate the store with import first.",
		Args:  cobra.NoArgs,
		RunE:  runSyncVectors,
	}
}

func runSyncVectors(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	return withStore(func(d *internalDeps) error {
		v, err := openVectors(d.Config, d.BasePath, d.Logger)
		if err != nil {
			return err
		}
		defer v.Close()

		searchService := services.NewSearchService(services.NewNameVariantIndex(d.Logger), v.embedder, v.repo, d.Logger)
		handler := handlers.NewSearchHandler(searchService, d.store, v.repo, openai.VectorSize)

		return withWriteLock(ctx, d.BasePath, func() error {
			result, err := handler.HandleSync(ctx)
			if errors.Is(err, services.ErrVectorSearchDisabled) {
				return fmt.Errorf("semantic search needs an embedder and a vector store: %w", err)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Synced %d of %d records to %s\n", result.Written, result.Records, v.repo.Collection())
			return nil
		})
	})
}
