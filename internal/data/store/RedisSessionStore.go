package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/codex/internal/data/redisStore"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/commonModels"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/pkg/logger_i"
)

/*
Layout:
  session:<id>              session json (documents not embedded)
  owner:<owner>:sessions    set of session ids
  session:<id>:documents    hash documentId -> document json
*/

type RedisSessionStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisSessionStore(s *redisStore.Store) *RedisSessionStore {
	return &RedisSessionStore{
		store:  s,
		logger: logger_i.NewLogger("session_store"),
	}
}

func (s *RedisSessionStore) CreateSession(ctx context.Context, session chatModel.Session) error {
	session.Documents = nil
	data, err := marshallJson(session)
	if err != nil {
		return err
	}
	if err = s.store.Set(ctx, sessionKey(session.Id), data, 0); err != nil {
		s.logger.WithTrace(ctx).Error("error creating session", "sessionId", session.Id, "error", err)
		return err
	}
	return s.store.SetAdd(ctx, ownerSessionsKey(session.OwnerId), session.Id)
}

func (s *RedisSessionStore) getSession(ctx context.Context, sessionId string) (chatModel.Session, bool, error) {
	raw, err := s.store.Get(ctx, sessionKey(sessionId))
	if s.store.IsNil(err) {
		return chatModel.Session{}, false, nil
	}
	if err != nil {
		return chatModel.Session{}, false, err
	}
	var session chatModel.Session
	if err = json.Unmarshal([]byte(raw), &session); err != nil {
		return chatModel.Session{}, false, fmt.Errorf("decoding session %s: %w", sessionId, err)
	}
	return session, true, nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, sessionId string) (chatModel.Session, bool, error) {
	session, found, err := s.getSession(ctx, sessionId)
	if err != nil || !found {
		return session, found, err
	}
	session.Documents, err = s.ListDocuments(ctx, sessionId)
	return session, true, err
}

func (s *RedisSessionStore) SessionExists(ctx context.Context, sessionId string, ownerId string) (bool, error) {
	session, found, err := s.getSession(ctx, sessionId)
	if err != nil {
		s.logger.WithTrace(ctx).Error("Failed to check if session exists", "sessionId", sessionId, "error", err)
		return false, err
	}
	return found && session.OwnerId == ownerId, nil
}

func (s *RedisSessionStore) ListSessions(ctx context.Context, ownerId string) ([]chatModel.Session, error) {
	ids, err := s.store.SetMembers(ctx, ownerSessionsKey(ownerId))
	if err != nil {
		return nil, err
	}
	sessions := make([]chatModel.Session, 0, len(ids))
	for _, id := range ids {
		session, found, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		//a session deleted between SMEMBERS and GET
		if !found {
			continue
		}
		sessions = append(sessions, session)
	}
	sortSessions(sessions)
	return sessions, nil
}

func (s *RedisSessionStore) RenameSession(ctx context.Context, sessionId string, name string) error {
	session, found, err := s.getSession(ctx, sessionId)
	if err != nil {
		return err
	}
	if !found {
		return ragErrors.ErrSessionNotFound
	}
	session.Name = name
	data, err := marshallJson(session)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, sessionKey(sessionId), data, 0)
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, sessionId string) error {
	session, found, err := s.getSession(ctx, sessionId)
	if err != nil {
		return err
	}
	if !found {
		return ragErrors.ErrSessionNotFound
	}
	return s.store.DeleteAll(ctx, ownerSessionsKey(session.OwnerId), sessionId, sessionKey(sessionId), documentsKey(sessionId))
}

func (s *RedisSessionStore) RecordDocument(ctx context.Context, doc commonModels.Document) error {
	data, err := marshallJson(doc)
	if err != nil {
		return err
	}
	return s.store.HashSet(ctx, documentsKey(doc.SessionId), doc.Id, data)
}

func (s *RedisSessionStore) RemoveDocument(ctx context.Context, sessionId string, documentId string) error {
	return s.store.HashDel(ctx, documentsKey(sessionId), documentId)
}

func (s *RedisSessionStore) ListDocuments(ctx context.Context, sessionId string) ([]commonModels.Document, error) {
	raw, err := s.store.HashGetAll(ctx, documentsKey(sessionId))
	if err != nil {
		return nil, err
	}
	docs := make([]commonModels.Document, 0, len(raw))
	for id, r := range raw {
		var d commonModels.Document
		if err = json.Unmarshal([]byte(r), &d); err != nil {
			return nil, fmt.Errorf("decoding document %s: %w", id, err)
		}
		docs = append(docs, d)
	}
	sortDocuments(docs)
	return docs, nil
}
