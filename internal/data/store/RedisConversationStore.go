package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/codex/internal/data/redisStore"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/pkg/logger_i"
)

// RedisConversationStore keeps each session's turns in one list, oldest first.
type RedisConversationStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisConversationStore(s *redisStore.Store) *RedisConversationStore {
	return &RedisConversationStore{
		store:  s,
		logger: logger_i.NewLogger("conversation_store"),
	}
}

func (s *RedisConversationStore) AppendTurn(ctx context.Context, turn chatModel.Turn) error {
	log := s.logger.WithTrace(ctx).With("sessionId", turn.SessionId)
	data, err := marshallJson(turn)
	if err != nil {
		return err
	}
	if err = s.store.ListPush(ctx, turnsKey(turn.SessionId), data); err != nil {
		log.Error("error saving turn", "error", err)
		return err
	}
	log.Debug("Saved turn successfully", "turnId", turn.Id)
	return nil
}

func (s *RedisConversationStore) RecentTurns(ctx context.Context, sessionId string, limit int) ([]chatModel.Turn, error) {
	raw, err := s.store.ListTail(ctx, turnsKey(sessionId), int64(limit))
	if err != nil {
		s.logger.WithTrace(ctx).Error("Error getting history", "sessionId", sessionId, "error", err)
		return nil, err
	}
	turns, err := decodeTurns(raw)
	if err != nil {
		return nil, err
	}
	return reverseTurns(turns), nil
}

func (s *RedisConversationStore) AllTurns(ctx context.Context, sessionId string) ([]chatModel.Turn, error) {
	raw, err := s.store.ListGetAll(ctx, turnsKey(sessionId))
	if err != nil {
		return nil, err
	}
	return decodeTurns(raw)
}

func (s *RedisConversationStore) CountTurns(ctx context.Context, sessionId string) (int, error) {
	n, err := s.store.ListLen(ctx, turnsKey(sessionId))
	return int(n), err
}

func (s *RedisConversationStore) DeleteTurns(ctx context.Context, sessionId string) error {
	return s.store.Del(ctx, turnsKey(sessionId))
}

func decodeTurns(raw []string) ([]chatModel.Turn, error) {
	turns := make([]chatModel.Turn, 0, len(raw))
	for i, r := range raw {
		var t chatModel.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("decoding turn %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}
