package catalog

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const mainCatalog = `# nevra catalog format: version 1.0
ARCHES
  i686 x86_64
PACKAGES
  pilchard-1.2.3-1.i686
  penny-lib-4-1.x86_64
    provides:
      P-lib
`

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestIndex_Load_Remote(t *testing.T) {
	// Arrange: Create a mock server with properly gzipped content
	content := gzipped(t, mainCatalog)
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		if r.URL.Path != "/repo/catalog.txt.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(content)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	idx := NewIndex(cacheDir, time.Hour, 2, nil)
	repos := []Repo{{Name: "main", URL: server.URL + "/repo/catalog.txt.gz"}}

	// Act
	cat, err := idx.Load(context.Background(), repos)

	// Assert
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cat.Len())
	}
	for _, p := range cat.Packages() {
		if p.Repo != "main" {
			t.Errorf("package %s repo = %q, want main", p, p.Repo)
		}
	}
	if ok, _ := cat.CapabilityExists("P-lib", false); !ok {
		t.Error("P-lib should be provided")
	}

	cachePath := filepath.Join(cacheDir, "main", "catalog.txt.gz")
	if idx.CachePath(repos[0]) != cachePath {
		t.Errorf("CachePath() = %q, want %q", idx.CachePath(repos[0]), cachePath)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Errorf("cache file was not created: %v", err)
	}

	// A second load within the TTL reuses the cache
	if _, err := idx.Load(context.Background(), repos); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if n := requestCount.Load(); n != 1 {
		t.Errorf("server was called %d times, want 1", n)
	}
}

func TestIndex_Load_StaleCache(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mainCatalog))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	idx := NewIndex(cacheDir, time.Hour, 1, nil)
	repo := Repo{Name: "main", URL: server.URL + "/catalog.txt"}

	stale := idx.CachePath(repo)
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("PACKAGES\n"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	// Act
	cat, err := idx.Load(context.Background(), []Repo{repo})

	// Assert
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (stale cache should be refreshed)", cat.Len())
	}
}

func TestIndex_Load_Local(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	textPath := filepath.Join(dir, "main.txt")
	if err := os.WriteFile(textPath, []byte(mainCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "extras.yaml.gz")
	yamlContent := `packages:
  - name: fool
    version: "1"
    release: "3"
    arch: noarch
    repo: pinned
  - name: penny
    version: "4"
    release: "1"
    arch: noarch
`
	if err := os.WriteFile(yamlPath, gzipped(t, yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	idx := NewIndex(t.TempDir(), 0, 1, nil)

	// Act
	cat, err := idx.Load(context.Background(), []Repo{
		{Name: "main", URL: textPath},
		{Name: "extras", URL: yamlPath},
	})

	// Assert
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cat.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", cat.Len())
	}

	repos := map[string]string{}
	for _, p := range cat.Packages() {
		repos[p.Name] = p.Repo
	}
	want := map[string]string{"pilchard": "main", "penny-lib": "main", "fool": "pinned", "penny": "extras"}
	for name, repo := range want {
		if repos[name] != repo {
			t.Errorf("package %s repo = %q, want %q", name, repos[name], repo)
		}
	}
}

func TestIndex_Load_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tests := []struct {
		name string
		repo Repo
	}{
		{"unnamed repo", Repo{URL: "/nowhere"}},
		{"missing local file", Repo{Name: "main", URL: filepath.Join(t.TempDir(), "missing.txt")}},
		{"server error", Repo{Name: "main", URL: server.URL + "/catalog.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIndex(t.TempDir(), time.Hour, 1, nil)
			if _, err := idx.Load(context.Background(), []Repo{tt.repo}); err == nil {
				t.Error("Load() should return error")
			}
		})
	}
}

func TestReadFile_BadGzip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.txt.gz")
	if err := os.WriteFile(p, []byte("not gzip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(p); err == nil {
		t.Error("ReadFile() should fail on invalid gzip")
	}
}
