package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/mythos/internal/application/handlers"
	"github.com/ersonp/mythos/internal/domain/services"
)

type importFlags struct {
	format      string
	dryRun      bool
	onConflict  string
	generateIDs bool
	category    string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file|dir>",
		Short: "Import entity records into the SQLite store",
		Long:  "Imports entity records from a JSON, YAML or CSV file, or from every supported file under a data directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, yaml, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Conflict handling (skip, overwrite)")
	cmd.Flags().BoolVar(&flags.generateIDs, "generate-ids", false, "Assign a UUID to records without an id")
	cmd.Flags().StringVar(&flags.category, "category", "", "Category for records that carry none")

	return cmd
}

func runImport(cmd *cobra.Command, path string, flags importFlags) error {
	onConflict, err := services.ParseConflictStrategy(flags.onConflict)
	if err != nil {
		return err
	}
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid --format value %q (valid: %v)", flags.format, validFormats)
	}

	ctx := cmd.Context()
	opts := handlers.ImportOptions{
		Format:      flags.format,
		DryRun:      flags.dryRun,
		OnConflict:  onConflict,
		GenerateIDs: flags.generateIDs,
		Category:    flags.category,
	}

	return withStore(func(d *internalDeps) error {
		return withWriteLock(ctx, d.BasePath, func() error {
			handler := handlers.NewImportHandler(services.NewImportService(d.store))

			if handlers.IsDirectory(path) {
				return importDirectory(cmd, handler, path, opts)
			}

			fmt.Printf("Importing %s...\n", path)

			result, err := handler.Handle(ctx, path, opts)
			if err != nil {
				return fmt.Errorf("importing file: %w", err)
			}

			printImportIssues(result)
			printImportSummary(flags.dryRun, result.Imported, result.Skipped, len(result.Errors))
			return nil
		})
	})
}

func importDirectory(cmd *cobra.Command, handler *handlers.ImportHandler, dir string, opts handlers.ImportOptions) error {
	result, err := handler.HandleDirectory(cmd.Context(), dir, opts, func(file string) {
		fmt.Printf("Importing %s...\n", file)
	})
	if err != nil {
		return fmt.Errorf("importing directory: %w", err)
	}

	recordErrors := 0
	for file, fr := range result.FileResults {
		if len(fr.Errors) > 0 || len(fr.Warnings) > 0 {
			fmt.Printf("\n%s:\n", file)
			printImportIssues(fr)
		}
		recordErrors += len(fr.Errors)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nFailed files (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %v\n", e)
		}
	}

	fmt.Printf("\nFiles: %d\n", result.TotalFiles)
	printImportSummary(opts.DryRun, result.Imported, result.Skipped, recordErrors)
	return nil
}

func printImportIssues(result *handlers.ImportResult) {
	if len(result.Errors) > 0 {
		fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  %s\n", w.Error())
		}
	}
}

func printImportSummary(dryRun bool, imported, skipped, errs int) {
	fmt.Println()
	if dryRun {
		fmt.Printf("Dry run: %d entities would be imported", imported)
	} else {
		fmt.Printf("Imported: %d entities", imported)
	}

	if skipped > 0 {
		fmt.Printf(", %d skipped (already exist)", skipped)
	}

	if errs > 0 {
		fmt.Printf(", %d errors", errs)
	}

	fmt.Println()
}
