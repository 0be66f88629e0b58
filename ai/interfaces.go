package ai

import (
	"context"
	"iter"
)

// Fragments is the lazy output of a streamed completion: a finite,
// single-pass, non-restartable sequence of text fragments. Consumers must
// iterate it exactly once; a drained sequence silently yields nothing.
// A non-nil error terminates the sequence and reports why the stream failed.
type Fragments = iter.Seq2[string, error]

// CompletionRequest describes a single inference call.
type CompletionRequest struct {
	// System is an optional system prompt.
	System string

	// Prompt is the user prompt built from prior-stage outputs.
	Prompt string

	// Image carries optional image bytes for multimodal calls.
	Image []byte

	// ImageMIME is the MIME type of Image, e.g. "image/jpeg".
	// Ignored when Image is empty.
	ImageMIME string

	// JSONOutput asks the model for a JSON-shaped response.
	JSONOutput bool
}

// Completer streams model output for a single completion request.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete issues the request and returns the response as a fragment
	// stream. The call itself failing (connection, auth, bad request) is
	// reported through the returned error; failures mid-stream surface as
	// the terminal error of the Fragments sequence.
	Complete(ctx context.Context, req CompletionRequest) (Fragments, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
// Returned vectors need not be unit length; callers that persist or compare
// vectors pass them through NormalizeVector first.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// InferenceProvider aggregates inference services for convenient initialization
// and lifecycle management. A provider creates and manages Completer and
// Embedder instances, ensuring they share configuration and resources.
type InferenceProvider interface {
	// Completer returns the streamed completion service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
