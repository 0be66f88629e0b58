package badger

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// ChatRepository implements storage.ChatRepository for BadgerDB.
// Messages are keyed by a monotonic per-repository sequence so iteration
// returns them in append order.
type ChatRepository struct {
	backend *Backend

	mu  sync.Mutex
	seq *badger.Sequence
}

var _ storage.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(backend *Backend) (*ChatRepository, error) {
	seq, err := backend.GetSequence(chatSeqPrefix)
	if err != nil {
		return nil, err
	}
	return &ChatRepository{backend: backend, seq: seq}, nil
}

// Close releases the message sequence. The backend owns the database handle.
func (r *ChatRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seq == nil {
		return nil
	}
	err := r.seq.Release()
	r.seq = nil
	return err
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

	seq, err := r.nextSeq()
	if err != nil {
		return nil, err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := marshalJSON(msg)
		if err != nil {
			return err
		}
		if err := tx.Set(makeChatMessageKey(msg.MatchId, seq), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessages returns the messages for a match in append order. A limit of
// zero or less returns all messages.
func (r *ChatRepository) GetMessages(ctx context.Context, matchId string, limit int) ([]*core.ChatMessage, error) {
	var messages []*core.ChatMessage

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChatMessageScanPrefix(matchId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(messages) >= limit {
				break
			}
			var msg core.ChatMessage
			err := iter.Item().Value(func(val []byte) error {
				return unmarshalJSON(val, &msg)
			})
			if err != nil {
				return err
			}
			messages = append(messages, &msg)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *ChatRepository) nextSeq() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seq == nil {
		return 0, storage.ErrStorageClosed
	}
	return r.seq.Next()
}
