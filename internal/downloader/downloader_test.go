package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-translator/internal/types"
)

func TestDownloadWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1\n00:00:01,000 --> 00:00:02,000\nhello\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := New().Download(context.Background(), srv.URL, dir, "movie.srt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "movie.srt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("content"))
	}))
	defer srv.Close()

	path, err := New().Download(context.Background(), srv.URL, t.TempDir(), "out.txt")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(3))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestDownloadDoesNotRetryClientErrors(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := New().Download(context.Background(), srv.URL, dir, "missing.srt")
	require.Error(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "a 404 must not be retried")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrDownload, appErr.Code)

	// No partial file left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadSanitizesFileName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := New().Download(context.Background(), srv.URL, dir, "../weird: name?.srt")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path), "path traversal must be stripped")
	assert.NotContains(t, filepath.Base(path), ":")
	assert.NotContains(t, filepath.Base(path), "?")
}

func TestDownloadValidatesInput(t *testing.T) {
	_, err := New().Download(context.Background(), "", t.TempDir(), "a.srt")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrInvalidInput, appErr.Code)
}
