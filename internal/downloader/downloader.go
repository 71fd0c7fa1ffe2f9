// Package downloader implements a context-aware HTTP download manager with
// per-chunk progress reporting.
package downloader

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
)

// ProgressCallback is called as the download progresses.
// totalBytes is taken from the Content-Length header and is -1 when the
// server doesn't report a length.
type ProgressCallback func(downloadedBytes, totalBytes int64)

// DefaultTimeout applies to the whole transfer when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 30 * time.Minute

const copyBufferSize = 128 * 1024

// Manager handles downloads, bound to a maximum number of concurrent
// transfers. Create it with New, and configure with the chained methods.
type Manager struct {
	client      *http.Client
	semaphore   chan struct{}
	maxParallel int
}

// New creates a new download Manager with default settings.
func New() *Manager {
	m := &Manager{
		client:      http.DefaultClient,
		maxParallel: 1,
	}
	m.semaphore = make(chan struct{}, m.maxParallel)
	return m
}

// MaxParallel sets the maximum number of concurrent transfers.
// It returns the updated Manager, so calls can be chained.
func (m *Manager) MaxParallel(n int) *Manager {
	if n < 1 {
		n = 1
	}
	m.maxParallel = n
	m.semaphore = make(chan struct{}, n)
	return m
}

// WithClient sets the HTTP client used for transfers.
// It returns the updated Manager, so calls can be chained.
func (m *Manager) WithClient(client *http.Client) *Manager {
	m.client = client
	return m
}

// Download fetches url into filePath, creating or truncating the file.
// The progress callback, if not nil, is invoked after every chunk written.
//
// The transfer is aborted when ctx is cancelled; a partial file may be left
// behind, it's the caller's responsibility to download to a temporary
// location and rename on success.
func (m *Manager) Download(ctx context.Context, url, filePath string, progress ProgressCallback) error {
	select {
	case m.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.semaphore }()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create request for %q", url)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to GET %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GET %q returned status %q", url, resp.Status)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", filePath)
	}

	totalBytes := resp.ContentLength // -1 when unknown
	var downloadedBytes int64
	buf := make([]byte, copyBufferSize)
	var copyErr error
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				copyErr = errors.Wrapf(writeErr, "failed writing to %q", filePath)
				break
			}
			downloadedBytes += int64(n)
			if progress != nil {
				progress(downloadedBytes, totalBytes)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			copyErr = errors.Wrapf(readErr, "failed downloading %q", url)
			break
		}
	}

	if closeErr := f.Close(); closeErr != nil && copyErr == nil {
		copyErr = errors.Wrapf(closeErr, "failed to close %q", filePath)
	}
	return copyErr
}
