package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/infrastructure/parsers"
)

// DefaultHTTPTimeout bounds each request of an HTTPSource.
const DefaultHTTPTimeout = 30 * time.Second

// maxBodySize caps a fetched manifest or entity file.
const maxBodySize = 32 << 20

// Ensure HTTPSource implements the ports.EntitySource interface.
var _ ports.EntitySource = (*HTTPSource)(nil)

// HTTPSource reads the directory layout from a web server:
// <base>/categories.json, <base>/<category>/manifest.json and
// <base>/<category>/<file>.
type HTTPSource struct {
	base       *url.URL
	client     *http.Client
	categories []string
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithCategories fixes the category list so categories.json is not needed.
func WithCategories(categories []string) HTTPOption {
	return func(s *HTTPSource) { s.categories = categories }
}

// NewHTTPSource creates a source for baseURL. timeout applies per request;
// zero means DefaultHTTPTimeout.
func NewHTTPSource(baseURL string, timeout time.Duration, opts ...HTTPOption) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	s := &HTTPSource{
		base:   u,
		client: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Categories returns the configured categories or the list in categories.json.
func (s *HTTPSource) Categories(ctx context.Context) ([]string, error) {
	if len(s.categories) > 0 {
		return append([]string(nil), s.categories...), nil
	}

	data, err := s.get(ctx, CategoriesFile)
	if err != nil {
		return nil, err
	}

	var categories []string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parsing categories: %w", err)
	}
	return categories, nil
}

// Manifest fetches <category>/manifest.json.
func (s *HTTPSource) Manifest(ctx context.Context, category string) ([]string, error) {
	if !validRef(category) {
		return nil, fmt.Errorf("invalid category %q", category)
	}
	data, err := s.get(ctx, category, ManifestFile)
	if err != nil {
		return nil, err
	}
	return parseManifest(data)
}

// Fetch downloads and parses one file of a category.
func (s *HTTPSource) Fetch(ctx context.Context, category, ref string) ([]entities.EntityRecord, error) {
	if !validRef(category) || !validRef(ref) {
		return nil, fmt.Errorf("invalid reference %q in category %q", ref, category)
	}

	parser := parsers.ForFile(ref)
	if parser == nil {
		return nil, fmt.Errorf("unsupported file type: %s", ref)
	}

	data, err := s.get(ctx, category, ref)
	if err != nil {
		return nil, err
	}

	raws, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ref, err)
	}
	return parsers.Records(raws), nil
}

// get fetches a path below the base URL.
func (s *HTTPSource) get(ctx context.Context, elems ...string) ([]byte, error) {
	u := *s.base
	u.Path = path.Join(append([]string{"/", s.base.Path}, elems...)...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", u.Path, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.Path, err)
	}
	return data, nil
}
