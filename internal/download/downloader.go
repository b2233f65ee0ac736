package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// FileDownloadResult describes a completed file download.
type FileDownloadResult struct {
	Path         string
	BytesWritten int64
	Duration     time.Duration
}

// Downloader streams files from HTTP endpoints.
type Downloader struct {
	httpClient *http.Client
}

// New creates a Downloader.
func New(httpClient *http.Client) *Downloader {
	return &Downloader{httpClient: httpClient}
}

// DownloadTemp downloads a URL into a new file created by os.CreateTemp(dir, pattern).
// The caller owns the returned path. Nothing is left behind on failure.
func (d *Downloader) DownloadTemp(ctx context.Context, url, dir, pattern string) (FileDownloadResult, error) {
	out, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return FileDownloadResult{}, fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := out.Name()

	result, err := d.download(ctx, url, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temporary file: %w", closeErr)
	}
	if err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("remove temporary file: %w", rmErr))
		}
		return FileDownloadResult{}, err
	}
	result.Path = tmpPath
	return result, nil
}

func (d *Downloader) download(ctx context.Context, url string, dst io.Writer) (FileDownloadResult, error) {
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FileDownloadResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return FileDownloadResult{}, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FileDownloadResult{}, fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return FileDownloadResult{}, fmt.Errorf("download %s: %w", url, err)
	}

	return FileDownloadResult{
		BytesWritten: n,
		Duration:     time.Since(started),
	}, nil
}
