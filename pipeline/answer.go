package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// AnswerStart marks the beginning of a streamed answer about a match.
type AnswerStart struct {
	MatchId string `json:"match_id"`
}

func (AnswerStart) Kind() string { return "answer_start" }

// AnswerChunk carries one fragment of a streamed answer.
type AnswerChunk struct {
	Chunk string `json:"chunk"`
}

func (AnswerChunk) Kind() string { return "answer_chunk" }

// AnswerComplete carries the full answer text.
type AnswerComplete struct {
	Answer string `json:"answer"`
}

func (AnswerComplete) Kind() string { return "complete" }

// Answerer answers user questions about a specific match, grounded in the
// matched photo's analysis and the conversation so far. Both the question
// and the answer are appended to the match's chat history.
type Answerer struct {
	completer ai.Completer
	photos    storage.PhotoRepository
	searches  storage.SearchRepository
	chats     storage.ChatRepository
	logger    *slog.Logger
}

// AnswererOption configures an Answerer.
type AnswererOption func(*Answerer) error

// WithAnswererLogger sets a custom logger.
// Default is slog.Default().
func WithAnswererLogger(logger *slog.Logger) AnswererOption {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates a question answerer over the given collaborators.
func NewAnswerer(
	provider ai.InferenceProvider,
	photos storage.PhotoRepository,
	searches storage.SearchRepository,
	chats storage.ChatRepository,
	opts ...AnswererOption,
) (*Answerer, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if photos == nil {
		return nil, ErrPhotoRepositoryRequired
	}
	if searches == nil {
		return nil, ErrSearchRepositoryRequired
	}
	if chats == nil {
		return nil, ErrChatRepositoryRequired
	}

	a := &Answerer{
		completer: provider.Completer(),
		photos:    photos,
		searches:  searches,
		chats:     chats,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Answer generates a streamed answer to a question about a match. Events are
// emitted to sink in order; a nil sink discards them. The question is stored
// before generation and the answer after, so the history a later question
// sees includes both.
func (a *Answerer) Answer(ctx context.Context, matchId, question string, sink Sink) (string, error) {
	if sink == nil {
		sink = noopSink{}
	}

	answer, err := a.answer(ctx, matchId, question, sink)
	if err != nil {
		a.logger.Error("answer generation failed", "match_id", matchId, "err", err)
		sink.Emit(Error{Message: err.Error()})
		return "", err
	}
	return answer, nil
}

func (a *Answerer) answer(ctx context.Context, matchId, question string, sink Sink) (string, error) {
	match, err := a.searches.GetMatch(ctx, matchId)
	if err != nil {
		return "", fmt.Errorf("loading match: %w", err)
	}

	photo, err := a.photos.GetPhoto(ctx, match.PhotoId)
	if err != nil {
		return "", fmt.Errorf("loading matched photo: %w", err)
	}
	if photo.Analysis == "" {
		return "", fmt.Errorf("no analysis available for photo %d", photo.Id)
	}

	history, err := a.chats.GetMessages(ctx, matchId, 0)
	if err != nil {
		return "", fmt.Errorf("loading chat history: %w", err)
	}

	if _, err := a.chats.AppendMessage(ctx, &core.ChatMessage{
		MatchId: matchId,
		IsUser:  true,
		Text:    question,
	}); err != nil {
		a.logger.Warn("failed to store user question", "match_id", matchId, "err", err)
	}

	sink.Emit(AnswerStart{MatchId: matchId})
	frags, err := a.completer.Complete(ctx, ai.CompletionRequest{
		Prompt: buildConversationPrompt(question, history, photo.Analysis),
	})
	if err != nil {
		return "", wrapUpstream(err)
	}
	answer, err := drain(frags, func(chunk string) {
		sink.Emit(AnswerChunk{Chunk: chunk})
	})
	if err != nil {
		return "", err
	}

	if _, err := a.chats.AppendMessage(ctx, &core.ChatMessage{
		MatchId: matchId,
		IsUser:  false,
		Text:    answer,
	}); err != nil {
		a.logger.Warn("failed to store answer", "match_id", matchId, "err", err)
	}

	sink.Emit(AnswerComplete{Answer: answer})
	return answer, nil
}

// buildConversationPrompt renders the chat history ahead of the current
// question so follow-ups stay consistent with earlier answers.
func buildConversationPrompt(question string, history []*core.ChatMessage, photoAnalysis string) string {
	if len(history) == 0 {
		return buildAnswerPrompt(question, photoAnalysis)
	}

	var sb strings.Builder
	sb.WriteString(answerHistoryPreamble)
	for _, msg := range history {
		if msg.IsUser {
			sb.WriteString("User: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(msg.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(buildAnswerPrompt(question, photoAnalysis))
	return sb.String()
}
