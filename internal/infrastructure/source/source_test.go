package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "array", input: `["zeus.json", "hera.json"]`, want: []string{"zeus.json", "hera.json"}},
		{name: "object", input: `{"files": ["odin.yaml"]}`, want: []string{"odin.yaml"}},
		{name: "blank entries dropped", input: `["a.json", " ", ""]`, want: []string{"a.json"}},
		{name: "empty array", input: `[]`, want: []string{}},
		{name: "empty input", input: "  ", wantErr: true},
		{name: "wrong shape", input: `{"files": "a.json"}`, wantErr: true},
		{name: "not json", input: `zeus.json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseManifest([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidRef(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"zeus.json", true},
		{"sub/zeus.json", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../secret.json", false},
		{"a/../../b.json", false},
		{"/etc/passwd", false},
		{`..\b.json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, validRef(tt.ref))
		})
	}
}

func TestDirectorySource_Categories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "norse", "odin.json"), `{"id": "odin", "name": "Odin"}`)
	writeFile(t, filepath.Join(root, "greek", "zeus.json"), `{"id": "zeus", "name": "Zeus"}`)
	writeFile(t, filepath.Join(root, ".mythos", "config.yaml"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")

	src := NewDirectorySource(root)
	categories, err := src.Categories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"greek", "norse"}, categories)
}

func TestDirectorySource_Categories_MissingRoot(t *testing.T) {
	src := NewDirectorySource(filepath.Join(t.TempDir(), "missing"))
	_, err := src.Categories(context.Background())
	assert.Error(t, err)
}

func TestDirectorySource_Manifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "greek", ManifestFile), `["zeus.json", "olympians.yaml"]`)
	writeFile(t, filepath.Join(root, "norse", "odin.json"), `{}`)
	writeFile(t, filepath.Join(root, "norse", "thor.csv"), "id,name\n")
	writeFile(t, filepath.Join(root, "norse", "notes.txt"), "")
	writeFile(t, filepath.Join(root, "broken", ManifestFile), `{`)

	src := NewDirectorySource(root)
	ctx := context.Background()

	t.Run("listed by manifest", func(t *testing.T) {
		refs, err := src.Manifest(ctx, "greek")
		require.NoError(t, err)
		assert.Equal(t, []string{"zeus.json", "olympians.yaml"}, refs)
	})

	t.Run("supported files without manifest", func(t *testing.T) {
		refs, err := src.Manifest(ctx, "norse")
		require.NoError(t, err)
		assert.Equal(t, []string{"odin.json", "thor.csv"}, refs)
	})

	t.Run("malformed manifest", func(t *testing.T) {
		_, err := src.Manifest(ctx, "broken")
		assert.Error(t, err)
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := src.Manifest(ctx, "egyptian")
		assert.Error(t, err)
	})

	t.Run("escaping category", func(t *testing.T) {
		_, err := src.Manifest(ctx, "../greek")
		assert.Error(t, err)
	})
}

func TestDirectorySource_Fetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "greek", "olympians.json"),
		`[{"id": "zeus", "name": "Zeus"}, {"id": "hera", "name": "Hera"}]`)
	writeFile(t, filepath.Join(root, "norse", "aesir.yaml"), "- id: odin\n  name: Odin\n")
	writeFile(t, filepath.Join(root, "norse", "bad.json"), `[{"id": "x"`)

	src := NewDirectorySource(root)
	ctx := context.Background()

	records, err := src.Fetch(ctx, "greek", "olympians.json")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "zeus", records[0].ID)
	assert.Equal(t, "Hera", records[1].Name)

	records, err = src.Fetch(ctx, "norse", "aesir.yaml")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "odin", records[0].ID)

	_, err = src.Fetch(ctx, "norse", "bad.json")
	assert.Error(t, err)

	_, err = src.Fetch(ctx, "norse", "missing.json")
	assert.Error(t, err)

	_, err = src.Fetch(ctx, "norse", "notes.txt")
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = src.Fetch(ctx, "greek", "../norse/aesir.yaml")
	assert.ErrorContains(t, err, "invalid reference")
}

func TestDirectorySource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewDirectorySource(t.TempDir())
	_, err := src.Categories(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = src.Fetch(ctx, "greek", "zeus.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func newMythServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/categories.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["greek", "norse"]`))
	})
	mux.HandleFunc("/data/greek/manifest.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"files": ["zeus.json"]}`))
	})
	mux.HandleFunc("/data/greek/zeus.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "zeus", "name": "Zeus", "mythology": "greek"}`))
	})
	mux.HandleFunc("/data/norse/manifest.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["odin.csv"]`))
	})
	mux.HandleFunc("/data/norse/odin.csv", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("id,name,mythology\nodin,Odin,norse\n"))
	})
	mux.HandleFunc("/data/slow/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource(t *testing.T) {
	srv := newMythServer(t)
	src, err := NewHTTPSource(srv.URL+"/data", time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	categories, err := src.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"greek", "norse"}, categories)

	refs, err := src.Manifest(ctx, "greek")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeus.json"}, refs)

	records, err := src.Fetch(ctx, "greek", "zeus.json")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Zeus", records[0].Name)

	records, err = src.Fetch(ctx, "norse", "odin.csv")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "norse", records[0].Mythology)
}

func TestHTTPSource_Errors(t *testing.T) {
	srv := newMythServer(t)
	src, err := NewHTTPSource(srv.URL+"/data", 100*time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = src.Manifest(ctx, "egyptian")
	assert.ErrorContains(t, err, "unexpected status")

	_, err = src.Fetch(ctx, "greek", "../norse/odin.csv")
	assert.ErrorContains(t, err, "invalid reference")

	_, err = src.Fetch(ctx, "greek", "zeus.txt")
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = src.Manifest(ctx, "slow")
	assert.Error(t, err)
}

func TestHTTPSource_FixedCategories(t *testing.T) {
	src, err := NewHTTPSource("https://example.invalid/myths", 0, WithCategories([]string{"egyptian"}))
	require.NoError(t, err)

	categories, err := src.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"egyptian"}, categories)
}

func TestNewHTTPSource_InvalidURL(t *testing.T) {
	_, err := NewHTTPSource("ftp://example.com", 0)
	assert.Error(t, err)

	_, err = NewHTTPSource("://bad", 0)
	assert.Error(t, err)
}
