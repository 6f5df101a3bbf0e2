package catalog

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frederic-klein/nevra/internal/downloader"
)

// DefaultTTL is how long a fetched catalog is reused before it is fetched again.
const DefaultTTL = 24 * time.Hour

// Repo is a named catalog source: an http(s) URL or a local path.
type Repo struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"`
}

func (r Repo) remote() bool {
	return strings.HasPrefix(r.URL, "http://") || strings.HasPrefix(r.URL, "https://")
}

// Index loads repositories into one catalog, caching remote files on disk.
type Index struct {
	cacheDir string
	ttl      time.Duration
	workers  int
	dl       *downloader.Downloader
	logger   *slog.Logger
}

// NewIndex creates an index caching under cacheDir. A non-positive ttl
// means DefaultTTL; a nil logger discards output.
func NewIndex(cacheDir string, ttl time.Duration, workers int, logger *slog.Logger) *Index {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Index{
		cacheDir: cacheDir,
		ttl:      ttl,
		workers:  workers,
		dl:       downloader.NewDownloader(workers, logger),
		logger:   logger,
	}
}

// CachePath returns where the file of a remote repo is cached.
func (idx *Index) CachePath(r Repo) string {
	base := "catalog.txt"
	if u, err := url.Parse(r.URL); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		base = path.Base(u.Path)
	}
	return filepath.Join(idx.cacheDir, r.Name, base)
}

// Load fetches the remote repos that are missing or stale, then parses every
// repo into a new catalog, in the order of repos. Packages without a repo
// take the repo's name.
func (idx *Index) Load(ctx context.Context, repos []Repo) (*Catalog, error) {
	var jobs []downloader.Job
	for _, r := range repos {
		if r.Name == "" {
			return nil, fmt.Errorf("repo %q has no name", r.URL)
		}
		if !r.remote() {
			continue
		}
		dest := idx.CachePath(r)
		jobs = append(jobs, downloader.Job{
			URL:      r.URL,
			DestPath: dest,
			Repo:     r.Name,
			Refresh:  !idx.isCacheValid(dest),
		})
	}

	for _, res := range idx.dl.Download(ctx, jobs) {
		if res.Error != nil {
			return nil, fmt.Errorf("fetching repo %s: %w", res.Job.Repo, res.Error)
		}
	}

	files := make([]*File, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for i, r := range repos {
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := r.URL
			if r.remote() {
				src = idx.CachePath(r)
			}
			f, err := ReadFile(src)
			if err != nil {
				return fmt.Errorf("loading repo %s: %w", r.Name, err)
			}
			for j := range f.Packages {
				if f.Packages[j].Repo == "" {
					f.Packages[j].Repo = r.Name
				}
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat := New(idx.logger)
	for i, f := range files {
		cat.Load(f)
		idx.logger.Debug("repo loaded", "repo", repos[i].Name, "packages", len(f.Packages))
	}
	return cat, nil
}

func (idx *Index) isCacheValid(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < idx.ttl
}

// ReadFile parses a catalog file. A ".gz" suffix is decompressed; ".yaml" or
// ".yml" selects the YAML format, anything else the text format.
func ReadFile(name string) (*File, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	base := name
	if strings.HasSuffix(base, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("decompressing catalog: %w", err)
		}
		defer gz.Close()
		r = gz
		base = strings.TrimSuffix(base, ".gz")
	}

	switch filepath.Ext(base) {
	case ".yaml", ".yml":
		return DecodeYAML(r)
	default:
		return NewParser(r).Parse()
	}
}
