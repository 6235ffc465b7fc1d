// Package downloader fetches produced artifacts (subtitle files,
// transcripts, processed media) from the short-lived URLs the API
// hands back after a job completes.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"media-translator/internal/logger"
	"media-translator/internal/types"
)

const (
	httpTimeout    = 2 * time.Minute
	maxElapsedTime = 90 * time.Second
)

// Downloader saves remote files to a local directory.
type Downloader struct {
	http *http.Client
}

// New creates a downloader with its own HTTP client.
func New() *Downloader {
	return &Downloader{
		http: &http.Client{Timeout: httpTimeout},
	}
}

// SetHTTPClient overrides the HTTP client, for tests.
func (d *Downloader) SetHTTPClient(h *http.Client) {
	d.http = h
}

// Download fetches url into destDir under fileName and returns the
// final path. Transient failures (connection errors, 5xx) retry with
// exponential backoff; client errors fail immediately. The file is
// written to a temp name and renamed in place so a failed download
// never leaves a partial file behind.
func (d *Downloader) Download(ctx context.Context, url, destDir, fileName string) (string, error) {
	if url == "" {
		return "", types.NewAppError(types.ErrInvalidInput, "download url is required", nil)
	}
	name := sanitizeName(fileName)
	if name == "" {
		return "", types.NewAppError(types.ErrInvalidInput, "file name is required", nil)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", types.NewAppError(types.ErrDownload, "failed to create download directory", err)
	}

	destPath := filepath.Join(destDir, name)
	tmpPath := destPath + ".part"

	operation := func() error {
		return d.fetchToFile(ctx, url, tmpPath)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsedTime
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		os.Remove(tmpPath)
		if appErr, ok := err.(*types.AppError); ok {
			return "", appErr
		}
		return "", types.NewAppError(types.ErrDownload, "download failed", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", types.NewAppError(types.ErrDownload, "failed to finalize download", err)
	}

	logger.Info("download complete", logger.String("path", destPath))
	return destPath, nil
}

// fetchToFile performs one download attempt into path, overwriting any
// earlier partial content.
func (d *Downloader) fetchToFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(types.NewAppError(types.ErrDownload, "failed to create download request", err))
	}

	resp, err := d.http.Do(req)
	if err != nil {
		logger.Warn("download attempt failed", logger.Err(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return backoff.Permanent(types.NewAppError(types.ErrDownload,
			fmt.Sprintf("server refused the download with status %d", resp.StatusCode), nil))
	}

	f, err := os.Create(path)
	if err != nil {
		return backoff.Permanent(types.NewAppError(types.ErrDownload, "failed to create file", err))
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// sanitizeName strips path components and characters that are invalid
// in file names on common filesystems.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return replacer.Replace(name)
}
