package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/infrastructure/parsers"
)

// Ensure DirectorySource implements the ports.EntitySource interface.
var _ ports.EntitySource = (*DirectorySource)(nil)

// DirectorySource reads categories from subdirectories of a root directory.
// A category without a manifest lists every supported file it contains.
type DirectorySource struct {
	root string
}

// NewDirectorySource creates a source rooted at dir.
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{root: dir}
}

// Root returns the data directory.
func (s *DirectorySource) Root() string {
	return s.root
}

// Categories lists the subdirectories of the root in sorted order. Hidden
// directories are skipped.
func (s *DirectorySource) Categories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var categories []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			categories = append(categories, e.Name())
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// Manifest returns the files listed in <category>/manifest.json, or the
// supported files of the category directory when there is no manifest.
func (s *DirectorySource) Manifest(ctx context.Context, category string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(category) {
		return nil, fmt.Errorf("invalid category %q", category)
	}

	dir := filepath.Join(s.root, category)
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err == nil {
		return parseManifest(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading category directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == ManifestFile || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if parsers.ForFile(e.Name()) != nil {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Fetch parses one file of a category.
func (s *DirectorySource) Fetch(ctx context.Context, category, ref string) ([]entities.EntityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(category) || !validRef(ref) {
		return nil, fmt.Errorf("invalid reference %q in category %q", ref, category)
	}

	parser := parsers.ForFile(ref)
	if parser == nil {
		return nil, fmt.Errorf("unsupported file type: %s", ref)
	}

	f, err := os.Open(filepath.Join(s.root, category, filepath.FromSlash(ref)))
	if err != nil {
		return nil, fmt.Errorf("opening entity file: %w", err)
	}
	defer f.Close()

	raws, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ref, err)
	}
	return parsers.Records(raws), nil
}
