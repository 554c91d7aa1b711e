package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akolanti/codex/internal/adapter/utils"
	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/commonModels"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/rag"
	"github.com/akolanti/codex/internal/rag/ingest"
	"github.com/akolanti/codex/internal/rag/modes"
	"github.com/akolanti/codex/pkg/logger_i"
)

// Service sits between the transport and the engine. It owns session
// ownership checks and decides when a turn is recorded.
type Service interface {
	Upload(ctx context.Context, ownerId string, sessionId string, fileName string, data []byte) (UploadResult, error)
	Chat(ctx context.Context, ownerId string, in ChatInput) (ChatResult, error)
	Messages(ctx context.Context, ownerId string, sessionId string) (Transcript, error)

	CreateSession(ctx context.Context, ownerId string, name string) (chatModel.Session, error)
	ListSessions(ctx context.Context, ownerId string) ([]chatModel.Session, error)
	RenameSession(ctx context.Context, ownerId string, sessionId string, name string) (chatModel.Session, error)
	DeleteSession(ctx context.Context, ownerId string, sessionId string) error
	ListDocuments(ctx context.Context, ownerId string, sessionId string) ([]commonModels.Document, error)
}

type ServiceConfig struct {
	Sessions      chatModel.SessionStore
	Conversations chatModel.ConversationStore
	Engine        rag.Service
	Chat          config.ChatConfig
	HistoryWindow int
}

type ChatInput struct {
	SessionId string
	Message   string
	Mode      string
}

type ChatResult struct {
	Answer           string
	Sources          []string
	Mode             chatModel.Mode
	Session          chatModel.Session
	TurnCount        int
	WarningThreshold int
	AlertThreshold   int
}

type UploadResult struct {
	Session  chatModel.Session
	Document commonModels.Document
	Index    ingest.IndexHandle
}

// Transcript is every turn of a session in the order it happened.
type Transcript struct {
	SessionId string
	Turns     []chatModel.Turn
}

type service struct {
	sessions      chatModel.SessionStore
	conversations chatModel.ConversationStore
	engine        rag.Service
	thresholds    config.ChatConfig
	historyWindow int
	newId         func() string
	now           func() time.Time
	logger        *logger_i.Logger
}

func NewService(cfg ServiceConfig) Service {
	return &service{
		sessions:      cfg.Sessions,
		conversations: cfg.Conversations,
		engine:        cfg.Engine,
		thresholds:    cfg.Chat,
		historyWindow: cfg.HistoryWindow,
		newId:         utils.GetNewUUID,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger_i.NewLogger("chat_service"),
	}
}

func (s *service) Upload(ctx context.Context, ownerId string, sessionId string, fileName string, data []byte) (UploadResult, error) {
	log := s.logger.WithTrace(ctx).With("owner", ownerId, "file", fileName)

	if !strings.EqualFold(getExtension(fileName), ".pdf") {
		return UploadResult{}, ragErrors.Wrapf(ragErrors.ErrUnsupportedFormat, "only PDF files are accepted, got %q", fileName)
	}

	createdSession := false
	if sessionId == "" {
		session, err := s.CreateSession(ctx, ownerId, fileName)
		if err != nil {
			return UploadResult{}, err
		}
		sessionId = session.Id
		createdSession = true
		log.Debug("created session for upload", "sessionId", sessionId)
	} else {
		ok, err := s.sessions.SessionExists(ctx, sessionId, ownerId)
		if err != nil {
			return UploadResult{}, err
		}
		if !ok {
			return UploadResult{}, ragErrors.Wrapf(ragErrors.ErrInvalidRequest, "unknown session %s", sessionId)
		}
	}
	log = log.With("sessionId", sessionId)

	doc := commonModels.Document{
		Id:          s.newId(),
		SessionId:   sessionId,
		Name:        fileName,
		UploadedAt:  s.now(),
		ContentType: commonModels.PDF,
	}
	if err := s.sessions.RecordDocument(ctx, doc); err != nil {
		s.discardSession(ctx, log, sessionId, createdSession)
		return UploadResult{}, err
	}

	handle, err := s.engine.IngestDocument(ctx, sessionId, fileName, data)
	if err != nil {
		log.Warn("indexing failed, rolling back document", "error", err)
		//the request ctx may already be gone, the rollback must still land
		cleanup := context.WithoutCancel(ctx)
		if rmErr := s.sessions.RemoveDocument(cleanup, sessionId, doc.Id); rmErr != nil {
			log.Error("could not remove document after failed indexing", "documentId", doc.Id, "error", rmErr)
		}
		s.discardSession(cleanup, log, sessionId, createdSession)
		return UploadResult{}, err
	}

	session, _, err := s.sessions.GetSession(ctx, sessionId)
	if err != nil {
		return UploadResult{}, err
	}
	log.Info("document indexed", "chunks", handle.Chunks, "pages", handle.Pages)
	return UploadResult{Session: session, Document: doc, Index: handle}, nil
}

func (s *service) discardSession(ctx context.Context, log *logger_i.Logger, sessionId string, created bool) {
	if !created {
		return
	}
	if err := s.sessions.DeleteSession(ctx, sessionId); err != nil {
		log.Error("could not remove session created for failed upload", "error", err)
	}
}

func (s *service) Chat(ctx context.Context, ownerId string, in ChatInput) (ChatResult, error) {
	log := s.logger.WithTrace(ctx).With("owner", ownerId, "sessionId", in.SessionId)

	if in.SessionId == "" {
		return ChatResult{}, ragErrors.Wrapf(ragErrors.ErrInvalidRequest, "session_id is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return ChatResult{}, ragErrors.Wrapf(ragErrors.ErrInvalidRequest, "message is empty")
	}
	if err := s.checkOwner(ctx, ownerId, in.SessionId); err != nil {
		return ChatResult{}, err
	}

	mode, err := modes.ParseMode(in.Mode)
	if err != nil {
		return ChatResult{}, err
	}

	count, err := s.conversations.CountTurns(ctx, in.SessionId)
	if err != nil {
		return ChatResult{}, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	recent, err := s.conversations.RecentTurns(ctx, in.SessionId, s.historyWindow)
	if err != nil {
		return ChatResult{}, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}

	answer, err := s.engine.Answer(ctx, rag.AnswerRequest{
		SessionId: in.SessionId,
		Question:  in.Message,
		Mode:      mode,
		History:   chronological(recent),
	})
	if err != nil {
		log.Warn("no answer, turn not recorded", "error", err)
		return ChatResult{}, err
	}

	turn := chatModel.Turn{
		Id:        s.newId(),
		SessionId: in.SessionId,
		Question:  in.Message,
		Answer:    answer.Answer,
		Mode:      mode,
		CreatedAt: s.now(),
	}
	if err = s.conversations.AppendTurn(ctx, turn); err != nil {
		log.Error("answer produced but turn could not be stored", "error", err)
		return ChatResult{}, ragErrors.Wrap(ragErrors.ErrStorageWrite, err)
	}

	session, _, err := s.sessions.GetSession(ctx, in.SessionId)
	if err != nil {
		return ChatResult{}, err
	}

	return ChatResult{
		Answer:           answer.Answer,
		Sources:          answer.Sources,
		Mode:             mode,
		Session:          session,
		TurnCount:        count,
		WarningThreshold: s.thresholds.WarningThreshold,
		AlertThreshold:   s.thresholds.AlertThreshold,
	}, nil
}

func (s *service) Messages(ctx context.Context, ownerId string, sessionId string) (Transcript, error) {
	if err := s.checkOwner(ctx, ownerId, sessionId); err != nil {
		return Transcript{}, err
	}
	turns, err := s.conversations.AllTurns(ctx, sessionId)
	if err != nil {
		return Transcript{}, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	return Transcript{SessionId: sessionId, Turns: turns}, nil
}

func (s *service) CreateSession(ctx context.Context, ownerId string, name string) (chatModel.Session, error) {
	session := chatModel.Session{
		Id:        s.newId(),
		Name:      strings.TrimSpace(name),
		OwnerId:   ownerId,
		CreatedAt: s.now(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return chatModel.Session{}, ragErrors.Wrap(ragErrors.ErrStorageWrite, err)
	}
	return session, nil
}

func (s *service) ListSessions(ctx context.Context, ownerId string) ([]chatModel.Session, error) {
	return s.sessions.ListSessions(ctx, ownerId)
}

func (s *service) RenameSession(ctx context.Context, ownerId string, sessionId string, name string) (chatModel.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return chatModel.Session{}, ragErrors.Wrapf(ragErrors.ErrInvalidRequest, "name is empty")
	}
	if err := s.checkOwner(ctx, ownerId, sessionId); err != nil {
		return chatModel.Session{}, err
	}
	if err := s.sessions.RenameSession(ctx, sessionId, name); err != nil {
		return chatModel.Session{}, err
	}
	session, _, err := s.sessions.GetSession(ctx, sessionId)
	return session, err
}

// DeleteSession drops the index first. A missing or unreachable index does
// not block removing the documents, turns and the session itself.
func (s *service) DeleteSession(ctx context.Context, ownerId string, sessionId string) error {
	log := s.logger.WithTrace(ctx).With("owner", ownerId, "sessionId", sessionId)
	if err := s.checkOwner(ctx, ownerId, sessionId); err != nil {
		return err
	}

	if err := s.engine.DeleteIndex(ctx, sessionId); err != nil && !errors.Is(err, ragErrors.ErrIndexNotFound) {
		log.Warn("index delete failed, continuing", "error", err)
	}
	if err := s.conversations.DeleteTurns(ctx, sessionId); err != nil {
		return ragErrors.Wrap(ragErrors.ErrStorageWrite, err)
	}
	if err := s.sessions.DeleteSession(ctx, sessionId); err != nil {
		return err
	}
	log.Info("session deleted")
	return nil
}

func (s *service) ListDocuments(ctx context.Context, ownerId string, sessionId string) ([]commonModels.Document, error) {
	if err := s.checkOwner(ctx, ownerId, sessionId); err != nil {
		return nil, err
	}
	return s.sessions.ListDocuments(ctx, sessionId)
}

func (s *service) checkOwner(ctx context.Context, ownerId string, sessionId string) error {
	ok, err := s.sessions.SessionExists(ctx, sessionId, ownerId)
	if err != nil {
		return ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	if !ok {
		return ragErrors.ErrSessionNotFound
	}
	return nil
}
