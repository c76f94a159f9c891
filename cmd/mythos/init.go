package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/mythos/internal/application/handlers"
	"github.com/ersonp/mythos/internal/infrastructure/embedder/openai"
)

func newInitCmd() *cobra.Command {
	var vectors bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new mythos project",
		Long:  "Creates a .mythos directory with default configuration and the SQLite entity store. With --vectors, also creates the Qdrant collection.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, vectors)
		},
	}

	cmd.Flags().BoolVar(&vectors, "vectors", false, "Create the Qdrant collection for semantic search")

	return cmd
}

func runInit(cmd *cobra.Command, vectors bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	handler := handlers.NewInitHandler(openCollection, openai.VectorSize)

	result, err := handler.Handle(cmd.Context(), cwd, handlers.InitOptions{Vectors: vectors})
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	fmt.Printf("Created %s\n", result.DatabasePath)
	if result.CollectionName != "" {
		fmt.Printf("Created Qdrant collection: %s\n", result.CollectionName)
	}
	fmt.Println("Mythos initialized successfully!")

	return nil
}
