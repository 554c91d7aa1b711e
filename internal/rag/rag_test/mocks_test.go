package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/rag/vectorDB"
)

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	OnPublish func(ctx context.Context, index *vectorDB.SessionIndex) error
	OnSearch  func(ctx context.Context, sessionId string, v []float32, k int) ([]vectorDB.Match, error)
	OnExists  func(ctx context.Context, sessionId string) (bool, error)
	OnDelete  func(ctx context.Context, sessionId string) error
}

func (m *MockVectorDB) Publish(ctx context.Context, index *vectorDB.SessionIndex) error {
	if m.OnPublish != nil {
		return m.OnPublish(ctx, index)
	}
	return nil
}

func (m *MockVectorDB) Search(ctx context.Context, sessionId string, v []float32, k int) ([]vectorDB.Match, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, sessionId, v, k)
	}
	return []vectorDB.Match{{Order: 0, Text: "default context"}}, nil
}

func (m *MockVectorDB) Exists(ctx context.Context, sessionId string) (bool, error) {
	if m.OnExists != nil {
		return m.OnExists(ctx, sessionId)
	}
	return true, nil
}

func (m *MockVectorDB) Delete(ctx context.Context, sessionId string) error {
	if m.OnDelete != nil {
		return m.OnDelete(ctx, sessionId)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	out := make([][]float32, len(chunks))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{1, 0}, nil
}

// GenerateCall records what the engine handed to the model.
type GenerateCall struct {
	Instruction string
	Matches     []string
	Question    string
	History     []chatModel.Turn
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, instruction string, matches []string, question string, history []chatModel.Turn) (string, error)

	mu    sync.Mutex
	Calls []GenerateCall
}

func (m *MockLLM) Generate(ctx context.Context, instruction string, matches []string, question string, history []chatModel.Turn) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, GenerateCall{instruction, matches, question, history})
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, instruction, matches, question, history)
	}
	return "mocked llm response", nil
}
