package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal valid PNG header for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n" + "0000000000000000")

func TestFetch(t *testing.T) {
	t.Run("success with content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher()
		body, mime, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg-bytes"), body)
		assert.Equal(t, "image/jpeg", mime)
	})

	t.Run("sniffs missing content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(pngBytes)
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher()
		_, mime, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher()
		_, _, err := fetcher.Fetch(context.Background(), server.URL)
		assert.ErrorIs(t, err, ErrFetchFailed)
	})

	t.Run("size cap", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(make([]byte, 64))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(WithMaxBytes(16))
		_, _, err := fetcher.Fetch(context.Background(), server.URL)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("invalid url", func(t *testing.T) {
		fetcher := NewHTTPFetcher()
		_, _, err := fetcher.Fetch(context.Background(), "://bad-url")
		assert.ErrorIs(t, err, ErrFetchFailed)
	})
}
