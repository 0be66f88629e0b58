package openai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/picsearch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client llms.Model
	logger *slog.Logger
}

// fragment carries one streamed chunk or the terminal stream error.
type fragment struct {
	text string
	err  error
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		client: client,
		logger: slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new streamed completion service using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete issues the request and returns the model's response as a fragment
// stream. The underlying call runs in a goroutine that feeds the sequence;
// abandoning the sequence mid-iteration cancels the call.
func (c *Completer) Complete(ctx context.Context, req ai.CompletionRequest) (ai.Fragments, error) {
	content := buildContent(req)

	opts := []llms.CallOption{llms.WithTemperature(0.0)}
	if req.JSONOutput {
		opts = append(opts, llms.WithJSONMode())
	}

	ch := make(chan fragment)
	stop := make(chan struct{})
	var stopOnce sync.Once

	opts = append(opts, llms.WithStreamingFunc(func(sctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		select {
		case ch <- fragment{text: string(chunk)}:
			return nil
		case <-stop:
			return context.Canceled
		case <-sctx.Done():
			return sctx.Err()
		}
	}))

	go func() {
		defer close(ch)
		if _, err := c.client.GenerateContent(ctx, content, opts...); err != nil {
			c.logger.Error("streamed completion failed", "err", err)
			select {
			case ch <- fragment{err: err}:
			case <-stop:
			}
		}
	}()

	seq := func(yield func(string, error) bool) {
		defer stopOnce.Do(func() { close(stop) })
		for f := range ch {
			if !yield(f.text, f.err) {
				return
			}
		}
	}
	return seq, nil
}

// buildContent assembles langchaingo message content from a completion request.
func buildContent(req ai.CompletionRequest) []llms.MessageContent {
	var content []llms.MessageContent

	if req.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}

	parts := make([]llms.ContentPart, 0, 2)
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, llms.BinaryPart(mime, req.Image))
	}
	parts = append(parts, llms.TextPart(req.Prompt))

	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: parts,
	})
	return content
}
