// Package chat keeps a bounded message history per mission in the cache
// and fans new messages out over pub/sub.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/cache"
	"go.uber.org/zap"
)

// Channel is the pub/sub channel new messages are published on.
const Channel = "board.chat"

// Message is one chat line.
type Message struct {
	ID         string    `json:"id"`
	MissionID  int64     `json:"mission_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store owns the chat histories. The zero value is not usable; use NewStore.
type Store struct {
	cache       cache.Cache
	pubsub      cache.PubSub
	historySize int
	maxLength   int
	logger      *zap.Logger
}

// NewStore creates a Store keeping historySize messages per mission.
// pubsub may be nil.
func NewStore(c cache.Cache, pubsub cache.PubSub, historySize, maxLength int, logger *zap.Logger) *Store {
	if historySize <= 0 {
		historySize = 100
	}
	if maxLength <= 0 {
		maxLength = 500
	}
	return &Store{cache: c, pubsub: pubsub, historySize: historySize, maxLength: maxLength, logger: logger}
}

func key(missionID int64) string {
	return fmt.Sprintf("chat:mission:%d", missionID)
}

// Send appends a message to the mission's history and publishes it.
func (s *Store) Send(ctx context.Context, missionID, senderID int64, senderName, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, board.Invalid("Message must not be empty.")
	}
	if utf8.RuneCountInString(content) > s.maxLength {
		return nil, board.Invalid("Message must be at most %d characters long.", s.maxLength)
	}
	msg := &Message{
		ID:         uuid.NewString(),
		MissionID:  missionID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("chat: encode: %w", err)
	}
	k := key(missionID)
	if err := s.cache.LPush(ctx, k, string(raw)); err != nil {
		return nil, fmt.Errorf("chat: push: %w", err)
	}
	if err := s.cache.LTrim(ctx, k, 0, int64(s.historySize-1)); err != nil {
		return nil, fmt.Errorf("chat: trim: %w", err)
	}
	if s.pubsub != nil {
		if err := s.pubsub.Publish(ctx, Channel, string(raw)); err != nil {
			s.logger.Warn("chat publish failed", zap.Int64("mission_id", missionID), zap.Error(err))
		}
	}
	return msg, nil
}

// History returns the retained messages of a mission, oldest first.
func (s *Store) History(ctx context.Context, missionID int64) ([]Message, error) {
	raws, err := s.cache.LRange(ctx, key(missionID), 0, -1)
	if err != nil {
		if cache.IsNotFound(err) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("chat: read: %w", err)
	}
	out := make([]Message, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var m Message
		if err := json.Unmarshal([]byte(raws[i]), &m); err != nil {
			s.logger.Warn("skip malformed chat entry", zap.Int64("mission_id", missionID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Clear drops the history of a mission.
func (s *Store) Clear(ctx context.Context, missionID int64) error {
	return s.cache.Del(ctx, key(missionID))
}
