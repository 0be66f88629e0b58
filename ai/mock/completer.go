package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/picsearch/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields, or scripted
// responses keyed by a substring of the prompt.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses scripted or default deterministic behavior.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (ai.Fragments, error)

	// Responses maps a prompt substring to the full response text. The
	// response is split into small fragments to exercise chunked streaming.
	// The first matching key wins; iteration follows Script order.
	Responses map[string]string

	// Script fixes the lookup order of Responses keys. Keys absent from
	// Script are tried afterwards in map order.
	Script []string

	// Default is returned when no scripted response matches.
	Default string

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockCompleter creates a mock completer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		Responses: make(map[string]string),
		Default:   "mock completion",
	}
}

// Complete returns the scripted response as a fragment stream.
// The returned sequence is single-pass: a second iteration yields nothing.
func (m *MockCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (ai.Fragments, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	return FragmentsFromText(m.lookup(req.Prompt)), nil
}

func (m *MockCompleter) lookup(prompt string) string {
	for _, key := range m.Script {
		if text, ok := m.Responses[key]; ok && strings.Contains(prompt, key) {
			return text
		}
	}
	for key, text := range m.Responses {
		if strings.Contains(prompt, key) {
			return text
		}
	}
	return m.Default
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns the prompts of all Complete calls in order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears recorded calls and custom functions.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.CompleteFunc = nil
}

// FragmentsFromText splits text into small chunks and exposes them as a
// single-pass fragment sequence, mimicking a chunked model response.
func FragmentsFromText(text string) ai.Fragments {
	chunks := splitChunks(text, 7)
	drained := false
	return func(yield func(string, error) bool) {
		if drained {
			return
		}
		drained = true
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// FragmentsWithError yields the given fragments and then a terminal error,
// mimicking a stream that fails mid-response.
func FragmentsWithError(err error, fragments ...string) ai.Fragments {
	drained := false
	return func(yield func(string, error) bool) {
		if drained {
			return
		}
		drained = true
		for _, chunk := range fragments {
			if !yield(chunk, nil) {
				return
			}
		}
		yield("", err)
	}
}

// splitChunks cuts text into pieces of at most size bytes.
func splitChunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	for len(text) > size {
		chunks = append(chunks, text[:size])
		text = text[size:]
	}
	return append(chunks, text)
}
