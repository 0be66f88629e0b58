package pipeline

import "sync"

// Sink receives pipeline events in emission order. Implement this interface
// to forward events to a caller, e.g. over a server-sent event stream.
// Emit is called from the pipeline's goroutine; implementations that fan out
// per-candidate work must be safe for concurrent use.
type Sink interface {
	Emit(event Event)
}

// noopSink discards all events.
type noopSink struct{}

var _ Sink = (*noopSink)(nil)

func (noopSink) Emit(_ Event) {}

// CollectorSink records every emitted event, preserving order. Useful in
// tests and for callers that want the full sequence after the run.
type CollectorSink struct {
	mu     sync.Mutex
	events []Event
}

var _ Sink = (*CollectorSink)(nil)

// Emit appends the event to the collected sequence.
func (c *CollectorSink) Emit(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of the collected sequence.
func (c *CollectorSink) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Kinds returns the collected event kinds in order.
func (c *CollectorSink) Kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]string, len(c.events))
	for i, event := range c.events {
		kinds[i] = event.Kind()
	}
	return kinds
}
