package handlers

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ersonp/mythos/internal/domain/services"
	"github.com/ersonp/mythos/internal/infrastructure/parsers"
	"github.com/ersonp/mythos/internal/infrastructure/source"
)

// ImportHandler handles importing entity records from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format      string                    // "json", "yaml", "csv", or "auto"
	DryRun      bool                      // Validate without saving
	OnConflict  services.ConflictStrategy // How to handle existing records
	GenerateIDs bool                      // Assign a UUID to records without an ID
	Category    string                    // Category for records that carry none
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []services.ImportError
	Warnings []services.ImportError
}

// ImportBatchResult contains the result of importing a directory.
type ImportBatchResult struct {
	TotalFiles  int
	Imported    int
	Skipped     int
	FileResults map[string]*ImportResult
	Errors      []error
}

// Handle imports records from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	// Get parser
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	// Parse records
	raws, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(raws) == 0 {
		return &ImportResult{}, nil
	}

	serviceOpts := services.ImportOptions{
		DryRun:      opts.DryRun,
		OnConflict:  opts.OnConflict,
		GenerateIDs: opts.GenerateIDs,
		Category:    opts.Category,
	}

	serviceResult, err := h.service.Import(ctx, raws, serviceOpts)
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Imported: serviceResult.Imported,
		Skipped:  serviceResult.Skipped,
		Errors:   serviceResult.Errors,
		Warnings: serviceResult.Warnings,
	}, nil
}

// HandleDirectory imports every supported file under a data directory laid
// out as <category>/<file>. Records without a category take the name of
// the directory holding their file, unless opts.Category is set. A file
// that fails to import is reported and the rest continue.
func (h *ImportHandler) HandleDirectory(ctx context.Context, dirPath string, opts ImportOptions, progressFn func(file string)) (*ImportBatchResult, error) {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	files, err := findEntityFiles(absPath)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no entity files found in %s", absPath)
	}

	result := &ImportBatchResult{
		FileResults: make(map[string]*ImportResult, len(files)),
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if progressFn != nil {
			progressFn(file)
		}

		fileOpts := opts
		if fileOpts.Category == "" {
			if dir := filepath.Dir(file); dir != absPath {
				fileOpts.Category = filepath.Base(dir)
			}
		}
		fileOpts.Format = "auto"

		fileResult, err := h.Handle(ctx, file, fileOpts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", file, err))
			continue
		}

		result.FileResults[file] = fileResult
		result.TotalFiles++
		result.Imported += fileResult.Imported
		result.Skipped += fileResult.Skipped
	}

	return result, nil
}

// findEntityFiles lists supported files below dir, skipping hidden entries
// and manifests, in lexical order.
func findEntityFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || name == source.ManifestFile {
			return nil
		}
		if parsers.ForFile(name) != nil {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// IsDirectory checks if the given path is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
