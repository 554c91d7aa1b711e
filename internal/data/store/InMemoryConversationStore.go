package store

import (
	"context"
	"sync"

	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("in_memory_store")

type InMemoryConversationStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]chatModel.Turn
}

func InitConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]chatModel.Turn),
	}
}

func (store *InMemoryConversationStore) AppendTurn(ctx context.Context, turn chatModel.Turn) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[turn.SessionId] = append(store.chatMap[turn.SessionId], turn)
	inMemLogger.Debug("Saved turn to conversation store", "sessionId", turn.SessionId)
	return nil
}

func (store *InMemoryConversationStore) RecentTurns(ctx context.Context, sessionId string, limit int) ([]chatModel.Turn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	turns := store.chatMap[sessionId]
	if limit <= 0 {
		return []chatModel.Turn{}, nil
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := append([]chatModel.Turn(nil), turns...)
	return reverseTurns(out), nil
}

func (store *InMemoryConversationStore) AllTurns(ctx context.Context, sessionId string) ([]chatModel.Turn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	return append([]chatModel.Turn{}, store.chatMap[sessionId]...), nil
}

func (store *InMemoryConversationStore) CountTurns(ctx context.Context, sessionId string) (int, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	return len(store.chatMap[sessionId]), nil
}

func (store *InMemoryConversationStore) DeleteTurns(ctx context.Context, sessionId string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	delete(store.chatMap, sessionId)
	return nil
}
