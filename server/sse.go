package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/poiesic/picsearch/pipeline"
)

// sseSink forwards pipeline events to an HTTP response as server-sent
// events. Emit may be called from multiple goroutines when the reasoning
// loop fans out, so writes are serialized.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *slog.Logger
	mu      sync.Mutex
}

var _ pipeline.Sink = (*sseSink)(nil)

// newSSESink prepares the response for event streaming. Returns an error if
// the response writer does not support flushing.
func newSSESink(w http.ResponseWriter, logger *slog.Logger) (*sseSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseSink{w: w, flusher: flusher, logger: logger}, nil
}

// Emit writes one event frame. Write failures are logged and swallowed; the
// pipeline must not be aborted because a client went away, and persistence
// already in flight is never rolled back.
func (s *sseSink) Emit(event pipeline.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal event", "kind", event.Kind(), "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Kind(), payload); err != nil {
		s.logger.Debug("client disconnected during event stream", "err", err)
		return
	}
	s.flusher.Flush()
}
