package chat_test

import (
	"context"
	"sync"

	"github.com/akolanti/codex/internal/rag"
	"github.com/akolanti/codex/internal/rag/ingest"
)

// MockEngine implements rag.Service
type MockEngine struct {
	OnAnswer      func(ctx context.Context, req rag.AnswerRequest) (rag.AnswerResult, error)
	OnIngest      func(ctx context.Context, sessionId string, fileName string, data []byte) (ingest.IndexHandle, error)
	OnDeleteIndex func(ctx context.Context, sessionId string) error

	mu       sync.Mutex
	Requests []rag.AnswerRequest
	Deleted  []string
}

func (m *MockEngine) Answer(ctx context.Context, req rag.AnswerRequest) (rag.AnswerResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.OnAnswer != nil {
		return m.OnAnswer(ctx, req)
	}
	return rag.AnswerResult{
		Question: req.Question,
		Answer:   "answer to " + req.Question,
		Sources:  []string{"chunk one"},
		Mode:     req.Mode,
	}, nil
}

func (m *MockEngine) IngestDocument(ctx context.Context, sessionId string, fileName string, data []byte) (ingest.IndexHandle, error) {
	if m.OnIngest != nil {
		return m.OnIngest(ctx, sessionId, fileName, data)
	}
	return ingest.IndexHandle{SessionId: sessionId, DocumentName: fileName, Pages: 1, Chunks: 3}, nil
}

func (m *MockEngine) DeleteIndex(ctx context.Context, sessionId string) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, sessionId)
	m.mu.Unlock()
	if m.OnDeleteIndex != nil {
		return m.OnDeleteIndex(ctx, sessionId)
	}
	return nil
}
