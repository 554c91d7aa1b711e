package store

import (
	"context"
	"sync"

	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/commonModels"
	"github.com/akolanti/codex/internal/domain/ragErrors"
)

type InMemorySessionStore struct {
	lock      *sync.RWMutex
	sessions  map[string]chatModel.Session
	documents map[string]map[string]commonModels.Document
}

func InitInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		lock:      new(sync.RWMutex),
		sessions:  make(map[string]chatModel.Session),
		documents: make(map[string]map[string]commonModels.Document),
	}
}

func (store *InMemorySessionStore) CreateSession(ctx context.Context, session chatModel.Session) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	session.Documents = nil
	store.sessions[session.Id] = session
	inMemLogger.Debug("Saved session to store", "sessionId", session.Id)
	return nil
}

func (store *InMemorySessionStore) GetSession(ctx context.Context, sessionId string) (chatModel.Session, bool, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	session, found := store.sessions[sessionId]
	if !found {
		return chatModel.Session{}, false, nil
	}
	session.Documents = store.documentsLocked(sessionId)
	return session, true, nil
}

func (store *InMemorySessionStore) SessionExists(ctx context.Context, sessionId string, ownerId string) (bool, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	session, found := store.sessions[sessionId]
	return found && session.OwnerId == ownerId, nil
}

func (store *InMemorySessionStore) ListSessions(ctx context.Context, ownerId string) ([]chatModel.Session, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	sessions := make([]chatModel.Session, 0)
	for id, s := range store.sessions {
		if s.OwnerId != ownerId {
			continue
		}
		s.Documents = store.documentsLocked(id)
		sessions = append(sessions, s)
	}
	sortSessions(sessions)
	return sessions, nil
}

func (store *InMemorySessionStore) RenameSession(ctx context.Context, sessionId string, name string) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	session, found := store.sessions[sessionId]
	if !found {
		return ragErrors.ErrSessionNotFound
	}
	session.Name = name
	store.sessions[sessionId] = session
	return nil
}

func (store *InMemorySessionStore) DeleteSession(ctx context.Context, sessionId string) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	if _, found := store.sessions[sessionId]; !found {
		return ragErrors.ErrSessionNotFound
	}
	delete(store.sessions, sessionId)
	delete(store.documents, sessionId)
	return nil
}

func (store *InMemorySessionStore) RecordDocument(ctx context.Context, doc commonModels.Document) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	docs, ok := store.documents[doc.SessionId]
	if !ok {
		docs = make(map[string]commonModels.Document)
		store.documents[doc.SessionId] = docs
	}
	docs[doc.Id] = doc
	return nil
}

func (store *InMemorySessionStore) RemoveDocument(ctx context.Context, sessionId string, documentId string) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	delete(store.documents[sessionId], documentId)
	return nil
}

func (store *InMemorySessionStore) ListDocuments(ctx context.Context, sessionId string) ([]commonModels.Document, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	return store.documentsLocked(sessionId), nil
}

func (store *InMemorySessionStore) documentsLocked(sessionId string) []commonModels.Document {
	docs := make([]commonModels.Document, 0, len(store.documents[sessionId]))
	for _, d := range store.documents[sessionId] {
		docs = append(docs, d)
	}
	sortDocuments(docs)
	return docs
}
