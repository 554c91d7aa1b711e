package chat_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/data/store"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/rag"
	"github.com/akolanti/codex/internal/rag/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc           chat.Service
	engine        *MockEngine
	sessions      chatModel.SessionStore
	conversations chatModel.ConversationStore
}

func newFixture() *fixture {
	f := &fixture{
		engine:        &MockEngine{},
		sessions:      store.InitInMemorySessionStore(),
		conversations: store.InitConversationStore(),
	}
	f.svc = chat.NewService(chat.ServiceConfig{
		Sessions:      f.sessions,
		Conversations: f.conversations,
		Engine:        f.engine,
		Chat:          config.ChatConfig{WarningThreshold: 8, AlertThreshold: 15},
		HistoryWindow: 10,
	})
	return f
}

func ctx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-chat")
}

func TestUpload_CreatesSessionWhenMissing(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Upload(ctx(), "alice", "", "report.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.Id)
	assert.Equal(t, "report.pdf", res.Session.Name)
	assert.Equal(t, 3, res.Index.Chunks)
	require.Len(t, res.Session.Documents, 1)
	assert.Equal(t, "report.pdf", res.Session.Documents[0].Name)

	ok, err := f.sessions.SessionExists(ctx(), res.Session.Id, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpload_UnknownSession(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(ctx(), "alice", "missing", "report.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ragErrors.ErrInvalidRequest)
}

func TestUpload_SessionOfAnotherOwner(t *testing.T) {
	f := newFixture()
	session, err := f.svc.CreateSession(ctx(), "bob", "bob's")
	require.NoError(t, err)

	_, err = f.svc.Upload(ctx(), "alice", session.Id, "report.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ragErrors.ErrInvalidRequest)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(ctx(), "alice", "", "notes.docx", []byte("PK"))
	assert.ErrorIs(t, err, ragErrors.ErrUnsupportedFormat)

	sessions, _ := f.svc.ListSessions(ctx(), "alice")
	assert.Empty(t, sessions, "a rejected upload must not leave a session behind")
}

func TestUpload_IndexFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.engine.OnIngest = func(context.Context, string, string, []byte) (ingest.IndexHandle, error) {
		return ingest.IndexHandle{}, ragErrors.Wrapf(ragErrors.ErrEmbeddingService, "quota")
	}

	_, err := f.svc.Upload(ctx(), "alice", "", "report.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ragErrors.ErrEmbeddingService)

	sessions, _ := f.svc.ListSessions(ctx(), "alice")
	assert.Empty(t, sessions, "session created for the failed upload should be gone")
}

func TestUpload_IndexFailureKeepsExistingSession(t *testing.T) {
	f := newFixture()
	first, err := f.svc.Upload(ctx(), "alice", "", "first.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	f.engine.OnIngest = func(context.Context, string, string, []byte) (ingest.IndexHandle, error) {
		return ingest.IndexHandle{}, ragErrors.Wrapf(ragErrors.ErrUnsupportedFormat, "no text")
	}
	_, err = f.svc.Upload(ctx(), "alice", first.Session.Id, "second.pdf", []byte("%PDF-1.4"))
	require.ErrorIs(t, err, ragErrors.ErrUnsupportedFormat)

	docs, err := f.svc.ListDocuments(ctx(), "alice", first.Session.Id)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "first.pdf", docs[0].Name)
}

func TestChat_RecordsTurnAndReportsCount(t *testing.T) {
	f := newFixture()
	up, err := f.svc.Upload(ctx(), "alice", "", "report.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	res, err := f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: up.Session.Id, Message: "What is the revenue?"})
	require.NoError(t, err)
	assert.Equal(t, "answer to What is the revenue?", res.Answer)
	assert.Equal(t, chatModel.ModeBalanced, res.Mode)
	assert.Equal(t, 0, res.TurnCount)
	assert.Equal(t, 8, res.WarningThreshold)
	assert.Equal(t, 15, res.AlertThreshold)
	assert.Equal(t, up.Session.Id, res.Session.Id)

	res, err = f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: up.Session.Id, Message: "And costs?", Mode: "CONCISE"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TurnCount)
	assert.Equal(t, chatModel.ModeConcise, res.Mode)

	n, err := f.conversations.CountTurns(ctx(), up.Session.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChat_HistoryIsChronologicalAndWindowed(t *testing.T) {
	f := newFixture()
	session, err := f.svc.CreateSession(ctx(), "alice", "s")
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		_, err = f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: session.Id, Message: fmt.Sprintf("q%d", i)})
		require.NoError(t, err)
	}

	last := f.engine.Requests[len(f.engine.Requests)-1]
	require.Len(t, last.History, 10)
	assert.Equal(t, "q1", last.History[0].Question)
	assert.Equal(t, "q10", last.History[9].Question)
}

func TestChat_FailureRecordsNothing(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"index not found", ragErrors.ErrIndexNotFound},
		{"generation", ragErrors.Wrapf(ragErrors.ErrGenerationFailure, "timeout")},
		{"malformed", ragErrors.ErrMalformedModelResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			session, err := f.svc.CreateSession(ctx(), "alice", "s")
			require.NoError(t, err)
			f.engine.OnAnswer = func(context.Context, rag.AnswerRequest) (rag.AnswerResult, error) {
				return rag.AnswerResult{}, tt.err
			}

			_, err = f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: session.Id, Message: "hi"})
			assert.True(t, errors.Is(err, tt.err))

			n, _ := f.conversations.CountTurns(ctx(), session.Id)
			assert.Zero(t, n)
		})
	}
}

func TestChat_Validation(t *testing.T) {
	f := newFixture()
	session, err := f.svc.CreateSession(ctx(), "alice", "s")
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: session.Id, Message: "hi", Mode: "verbose"})
	assert.ErrorIs(t, err, ragErrors.ErrUnknownMode)

	_, err = f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: session.Id, Message: "  "})
	assert.ErrorIs(t, err, ragErrors.ErrInvalidRequest)

	_, err = f.svc.Chat(ctx(), "alice", chat.ChatInput{Message: "hi"})
	assert.ErrorIs(t, err, ragErrors.ErrInvalidRequest)

	_, err = f.svc.Chat(ctx(), "bob", chat.ChatInput{SessionId: session.Id, Message: "hi"})
	assert.ErrorIs(t, err, ragErrors.ErrSessionNotFound)

	assert.Empty(t, f.engine.Requests, "engine must not be called for rejected requests")
}

func TestMessages_Chronological(t *testing.T) {
	f := newFixture()
	session, _ := f.svc.CreateSession(ctx(), "alice", "s")
	for _, q := range []string{"first", "second", "third"} {
		_, err := f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: session.Id, Message: q})
		require.NoError(t, err)
	}

	transcript, err := f.svc.Messages(ctx(), "alice", session.Id)
	require.NoError(t, err)
	require.Len(t, transcript.Turns, 3)
	assert.Equal(t, "first", transcript.Turns[0].Question)
	assert.Equal(t, "third", transcript.Turns[2].Question)

	_, err = f.svc.Messages(ctx(), "bob", session.Id)
	assert.ErrorIs(t, err, ragErrors.ErrSessionNotFound)
}

func TestRenameSession(t *testing.T) {
	f := newFixture()
	session, _ := f.svc.CreateSession(ctx(), "alice", "old")

	renamed, err := f.svc.RenameSession(ctx(), "alice", session.Id, " new name ")
	require.NoError(t, err)
	assert.Equal(t, "new name", renamed.Name)

	_, err = f.svc.RenameSession(ctx(), "alice", session.Id, "")
	assert.ErrorIs(t, err, ragErrors.ErrInvalidRequest)

	_, err = f.svc.RenameSession(ctx(), "bob", session.Id, "mine now")
	assert.ErrorIs(t, err, ragErrors.ErrSessionNotFound)
}

func TestDeleteSession_Cascades(t *testing.T) {
	f := newFixture()
	up, err := f.svc.Upload(ctx(), "alice", "", "report.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	_, err = f.svc.Chat(ctx(), "alice", chat.ChatInput{SessionId: up.Session.Id, Message: "hi"})
	require.NoError(t, err)

	f.engine.OnDeleteIndex = func(context.Context, string) error {
		return ragErrors.Wrapf(ragErrors.ErrRetrievalFailure, "index store offline")
	}
	require.NoError(t, f.svc.DeleteSession(ctx(), "alice", up.Session.Id))

	assert.Equal(t, []string{up.Session.Id}, f.engine.Deleted)
	n, _ := f.conversations.CountTurns(ctx(), up.Session.Id)
	assert.Zero(t, n)
	docs, _ := f.sessions.ListDocuments(ctx(), up.Session.Id)
	assert.Empty(t, docs)
	_, found, _ := f.sessions.GetSession(ctx(), up.Session.Id)
	assert.False(t, found)
}

func TestDeleteSession_NotOwner(t *testing.T) {
	f := newFixture()
	session, _ := f.svc.CreateSession(ctx(), "alice", "s")

	err := f.svc.DeleteSession(ctx(), "bob", session.Id)
	assert.ErrorIs(t, err, ragErrors.ErrSessionNotFound)
	assert.Empty(t, f.engine.Deleted)
}
