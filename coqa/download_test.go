package coqa

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
)

func TestDownloadSplit(t *testing.T) {
	payload := []byte(`{"version": "1.0", "data": []}`)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dataPath := filepath.Join(t.TempDir(), "data")

	var lastDownloaded, lastTotal int64
	path, err := DownloadSplit(context.Background(), dataPath, server.URL, "dev",
		func(downloadedBytes, totalBytes int64) {
			lastDownloaded = downloadedBytes
			lastTotal = totalBytes
		})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataPath, "dev.json"), path)
	assert.EqualValues(t, 1, requests.Load())
	assert.Equal(t, int64(len(payload)), lastDownloaded)
	assert.Equal(t, int64(len(payload)), lastTotal)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, content)
}

// A second request for an already-present split must not touch the network.
func TestDownloadSplit_Idempotent(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	dataPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataPath, "train.json"), []byte("{}"), 0644))

	path, err := DownloadSplit(context.Background(), dataPath, server.URL, "train", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataPath, "train.json"), path)
	assert.EqualValues(t, 0, requests.Load())
}

// A failed transfer must leave nothing at the target path.
func TestDownloadSplit_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	dataPath := t.TempDir()
	_, err := DownloadSplit(context.Background(), dataPath, server.URL, "dev", nil)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dataPath, "dev.json"))
}

func TestDownloadSplit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DownloadSplit(ctx, t.TempDir(), "http://unused.invalid", "dev", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "dev.json"), SplitPath("data", "dev"))
}
