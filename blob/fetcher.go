package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBytes caps downloaded image size at 20 MiB.
const DefaultMaxBytes = 20 << 20

var (
	// ErrFetchFailed indicates the image could not be downloaded.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrTooLarge indicates the image exceeded the configured size cap.
	ErrTooLarge = errors.New("image too large")
)

// Fetcher downloads image bytes from a URL.
type Fetcher interface {
	// Fetch returns the image bytes and detected MIME type.
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// HTTPFetcher downloads images over HTTP(S).
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets the underlying HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithMaxBytes sets the download size cap.
func WithMaxBytes(maxBytes int64) HTTPOption {
	return func(f *HTTPFetcher) {
		f.maxBytes = maxBytes
	}
}

// NewHTTPFetcher creates a fetcher with a 30 second timeout and the default
// size cap.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the image at url. The MIME type comes from the
// Content-Type header when present, otherwise from sniffing the bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: status %d from %s", ErrFetchFailed, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, f.maxBytes)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(body)
	}

	return body, mime, nil
}
