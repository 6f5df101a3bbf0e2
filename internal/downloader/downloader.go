package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// Job is one file to fetch.
type Job struct {
	URL      string
	DestPath string
	Repo     string // catalog repository the file belongs to
	Refresh  bool   // fetch even if DestPath already exists
}

// Result is the outcome of a Job.
type Result struct {
	Job   Job
	Error error
}

// Downloader fetches catalog files over HTTP with a fixed number of workers.
type Downloader struct {
	workers int
	client  *http.Client
	logger  *slog.Logger
}

// NewDownloader creates a downloader with the given number of workers. A
// nil logger discards output.
func NewDownloader(workers int, logger *slog.Logger) *Downloader {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Downloader{
		workers: workers,
		client:  &http.Client{},
		logger:  logger,
	}
}

// Download runs jobs in parallel. Results are in the order of jobs.
func (d *Downloader) Download(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(d.workers, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = Result{Job: jobs[i], Error: d.downloadOne(ctx, jobs[i])}
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

func (d *Downloader) downloadOne(ctx context.Context, job Job) error {
	if !job.Refresh {
		if _, err := os.Stat(job.DestPath); err == nil {
			d.logger.Debug("using cached file", "repo", job.Repo, "path", job.DestPath)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(job.DestPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", job.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: HTTP %d", job.URL, resp.StatusCode)
	}

	// Write to temp file first, then rename
	tmpPath := job.DestPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing file: %w", err)
	}

	if err := os.Rename(tmpPath, job.DestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	d.logger.Debug("downloaded", "repo", job.Repo, "url", job.URL)
	return nil
}
