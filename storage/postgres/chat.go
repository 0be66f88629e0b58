package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// ChatRepository implements storage.ChatRepository on PostgreSQL. The
// chat_messages sequence column gives append order.
type ChatRepository struct {
	store *Store
}

var _ storage.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(store *Store) (*ChatRepository, error) {
	return &ChatRepository{store: store}, nil
}

// Close is a no-op; the store owns the connection pool.
func (r *ChatRepository) Close() error {
	return nil
}

// AppendMessage persists a chat message for a match and returns it with its
// assigned ID.
func (r *ChatRepository) AppendMessage(ctx context.Context, msg *core.ChatMessage) (*core.ChatMessage, error) {
	if msg.MatchId == "" {
		return nil, storage.ErrInvalidQuery
	}
	if msg.Id == "" {
		msg.Id = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := r.store.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, match_id, is_user, message_text, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.Id, msg.MatchId, msg.IsUser, msg.Text, msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessages returns the messages for a match in append order. A limit of
// zero or less returns all messages.
func (r *ChatRepository) GetMessages(ctx context.Context, matchId string, limit int) ([]*core.ChatMessage, error) {
	query := `
		SELECT id, match_id, is_user, message_text, created_at
		FROM chat_messages WHERE match_id = $1 ORDER BY seq`
	args := []any{matchId}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.store.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*core.ChatMessage
	for rows.Next() {
		msg := &core.ChatMessage{}
		err := rows.Scan(&msg.Id, &msg.MatchId, &msg.IsUser, &msg.Text, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
