package rag_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/rag"
	"github.com/akolanti/codex/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineConfig() config.EngineConfig {
	return config.Default().Engine
}

func newService(t *testing.T, v *MockVectorDB, l *MockLLM, e *MockEmbedder) rag.Service {
	t.Helper()
	s, err := rag.NewService(v, l, e, engineConfig())
	require.NoError(t, err)
	return s
}

func TestAnswer_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		mode       chatModel.Mode
		question   string
		setupMocks func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		wantAnswer string
		wantErr    error
		llmCalled  bool
	}{
		{
			name:     "Success_Full_Flow",
			mode:     chatModel.ModeBalanced,
			question: "What is this about?",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, ins string, m []string, q string, h []chatModel.Turn) (string, error) {
					return "final answer", nil
				}
			},
			wantAnswer: "final answer",
			llmCalled:  true,
		},
		{
			name:     "Failure_Unknown_Mode",
			mode:     "verbose",
			question: "q",
			wantErr:  ragErrors.ErrUnknownMode,
		},
		{
			name:     "Failure_Empty_Question",
			mode:     chatModel.ModeConcise,
			question: "   ",
			wantErr:  ragErrors.ErrInvalidRequest,
		},
		{
			name:     "Failure_No_Index",
			mode:     chatModel.ModeBalanced,
			question: "q",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnExists = func(ctx context.Context, id string) (bool, error) { return false, nil }
			},
			wantErr: ragErrors.ErrIndexNotFound,
		},
		{
			name:     "Failure_Index_Lookup",
			mode:     chatModel.ModeBalanced,
			question: "q",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnExists = func(ctx context.Context, id string) (bool, error) { return false, errors.New("io") }
			},
			wantErr: ragErrors.ErrRetrievalFailure,
		},
		{
			name:     "Failure_Embedding",
			mode:     chatModel.ModeBalanced,
			question: "q",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			wantErr: ragErrors.ErrEmbeddingService,
		},
		{
			name:     "Failure_Vector_Search",
			mode:     chatModel.ModeBalanced,
			question: "q",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, id string, vec []float32, k int) ([]vectorDB.Match, error) {
					return nil, errors.New("db timeout")
				}
			},
			wantErr: ragErrors.ErrRetrievalFailure,
		},
		{
			name:     "Failure_LLM",
			mode:     chatModel.ModeDetailed,
			question: "q",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, ins string, m []string, q string, h []chatModel.Turn) (string, error) {
					return "", errors.New("model overloaded")
				}
			},
			wantErr:   ragErrors.ErrGenerationFailure,
			llmCalled: true,
		},
		{
			name:     "Failure_Empty_Answer",
			mode:     chatModel.ModeBalanced,
			question: "q",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, ins string, m []string, q string, h []chatModel.Turn) (string, error) {
					return " \n", nil
				}
			},
			wantErr:   ragErrors.ErrMalformedModelResponse,
			llmCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, v, l := &MockEmbedder{}, &MockVectorDB{}, &MockLLM{}
			if tt.setupMocks != nil {
				tt.setupMocks(e, v, l)
			}
			s := newService(t, v, l, e)

			res, err := s.Answer(context.Background(), rag.AnswerRequest{
				SessionId: "s1",
				Question:  tt.question,
				Mode:      tt.mode,
			})

			assert.Equal(t, tt.llmCalled, len(l.Calls) > 0, "llm call expectation")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnswer, res.Answer)
			assert.Equal(t, tt.question, res.Question)
			assert.Equal(t, tt.mode, res.Mode)
		})
	}
}

func TestAnswer_MalformedCountsAsGenerationFailure(t *testing.T) {
	l := &MockLLM{OnGenerate: func(ctx context.Context, ins string, m []string, q string, h []chatModel.Turn) (string, error) {
		return "", nil
	}}
	_, err := newService(t, &MockVectorDB{}, l, &MockEmbedder{}).Answer(context.Background(), rag.AnswerRequest{
		SessionId: "s1", Question: "q", Mode: chatModel.ModeBalanced,
	})
	assert.ErrorIs(t, err, ragErrors.ErrGenerationFailure)
}

func TestAnswer_PassesModeInstructionAndSources(t *testing.T) {
	cfg := engineConfig()
	v := &MockVectorDB{OnSearch: func(ctx context.Context, id string, vec []float32, k int) ([]vectorDB.Match, error) {
		assert.Equal(t, cfg.TopK, k)
		return []vectorDB.Match{{Order: 2, Text: "b"}, {Order: 0, Text: "a"}}, nil
	}}
	l := &MockLLM{}
	s := newService(t, v, l, &MockEmbedder{})

	res, err := s.Answer(context.Background(), rag.AnswerRequest{SessionId: "s1", Question: "q", Mode: chatModel.ModeConcise})
	require.NoError(t, err)

	require.Len(t, l.Calls, 1)
	assert.Equal(t, cfg.ModeInstructions["concise"], l.Calls[0].Instruction)
	assert.Equal(t, []string{"b", "a"}, l.Calls[0].Matches)
	assert.Equal(t, []string{"b", "a"}, res.Sources)
}

func TestAnswer_HistoryWindow(t *testing.T) {
	var history []chatModel.Turn
	for i := 0; i < 14; i++ {
		history = append(history, chatModel.Turn{Question: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)})
	}
	l := &MockLLM{}
	s := newService(t, &MockVectorDB{}, l, &MockEmbedder{})

	_, err := s.Answer(context.Background(), rag.AnswerRequest{SessionId: "s1", Question: "q", Mode: chatModel.ModeBalanced, History: history})
	require.NoError(t, err)

	got := l.Calls[0].History
	require.Len(t, got, 10)
	assert.Equal(t, "q4", got[0].Question)
	assert.Equal(t, "q13", got[9].Question)
}

func TestAnswer_GenerationTimeout(t *testing.T) {
	cfg := engineConfig()
	cfg.GenerationTimeout = 20 * time.Millisecond
	l := &MockLLM{OnGenerate: func(ctx context.Context, ins string, m []string, q string, h []chatModel.Turn) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s, err := rag.NewService(&MockVectorDB{}, l, &MockEmbedder{}, cfg)
	require.NoError(t, err)

	_, err = s.Answer(context.Background(), rag.AnswerRequest{SessionId: "s1", Question: "q", Mode: chatModel.ModeBalanced})
	assert.ErrorIs(t, err, ragErrors.ErrGenerationFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnswer_LateReplyAfterDeadlineIsDropped(t *testing.T) {
	cfg := engineConfig()
	cfg.GenerationTimeout = 10 * time.Millisecond
	l := &MockLLM{OnGenerate: func(ctx context.Context, ins string, m []string, q string, h []chatModel.Turn) (string, error) {
		<-ctx.Done()
		return "too late", nil
	}}
	s, err := rag.NewService(&MockVectorDB{}, l, &MockEmbedder{}, cfg)
	require.NoError(t, err)

	_, err = s.Answer(context.Background(), rag.AnswerRequest{SessionId: "s1", Question: "q", Mode: chatModel.ModeBalanced})
	assert.ErrorIs(t, err, ragErrors.ErrGenerationFailure)
}

func TestNewService_RejectsIncompleteModes(t *testing.T) {
	cfg := engineConfig()
	cfg.ModeInstructions = map[string]string{"balanced": "x"}
	_, err := rag.NewService(&MockVectorDB{}, &MockLLM{}, &MockEmbedder{}, cfg)
	assert.Error(t, err)
}

func TestDeleteIndex(t *testing.T) {
	var deleted string
	v := &MockVectorDB{OnDelete: func(ctx context.Context, id string) error { deleted = id; return nil }}
	require.NoError(t, newService(t, v, &MockLLM{}, &MockEmbedder{}).DeleteIndex(context.Background(), "s9"))
	assert.Equal(t, "s9", deleted)
}

func TestIngestDocument_RejectsNonPDF(t *testing.T) {
	published := false
	v := &MockVectorDB{OnPublish: func(ctx context.Context, idx *vectorDB.SessionIndex) error { published = true; return nil }}
	_, err := newService(t, v, &MockLLM{}, &MockEmbedder{}).IngestDocument(context.Background(), "s1", "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ragErrors.ErrUnsupportedFormat)
	assert.False(t, published)
}
