package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/metrics"
	"github.com/akolanti/codex/internal/rag/embedding"
	"github.com/akolanti/codex/internal/rag/ingest"
	"github.com/akolanti/codex/internal/rag/llm"
	"github.com/akolanti/codex/internal/rag/modes"
	"github.com/akolanti/codex/internal/rag/vectorDB"
	"github.com/akolanti/codex/pkg/logger_i"
)

/*
Service is the only thing the chat layer talks to. It never touches the
conversation store: Answer hands back everything needed to record the turn
and the caller decides whether to persist it.

service holds the index, the model clients and the engine settings. Keeping it
unexported means the chat layer cannot reach around the pipeline, and tests
swap the dependencies through NewService.
*/

type Service interface {
	Answer(ctx context.Context, req AnswerRequest) (AnswerResult, error)
	IngestDocument(ctx context.Context, sessionId string, fileName string, data []byte) (ingest.IndexHandle, error)
	DeleteIndex(ctx context.Context, sessionId string) error
}

type AnswerRequest struct {
	SessionId string
	Question  string
	Mode      chatModel.Mode
	// History is chronological. Only the last HistoryWindow turns reach the model.
	History []chatModel.Turn
}

type AnswerResult struct {
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Sources  []string         `json:"sources"`
	Matches  []vectorDB.Match `json:"matches"`
	Mode     chatModel.Mode   `json:"mode"`
}

type service struct {
	vectorDB    vectorDB.DataProcessor
	llmProvider llm.Provider
	embedder    embedding.Embedder
	indexer     *ingest.Indexer
	policy      *modes.Policy
	cfg         config.EngineConfig
	logger      *logger_i.Logger
}

func NewService(vector vectorDB.DataProcessor, llm llm.Provider, em embedding.Embedder, cfg config.EngineConfig) (Service, error) {
	policy, err := modes.NewPolicy(cfg.ModeInstructions)
	if err != nil {
		return nil, err
	}
	return &service{
		vectorDB:    vector,
		llmProvider: llm,
		embedder:    em,
		indexer:     ingest.NewIndexer(em, vector, cfg),
		policy:      policy,
		cfg:         cfg,
		logger:      logger_i.NewLogger("rag_service"),
	}, nil
}

func (s *service) Answer(ctx context.Context, req AnswerRequest) (result AnswerResult, err error) {
	log := s.logger.WithTrace(ctx).With("sessionId", req.SessionId, "mode", req.Mode)

	start := time.Now()
	defer func() { metrics.CaptureTurnMetrics(outcome(err), string(req.Mode), time.Since(start)) }()

	instruction, err := s.policy.InstructionFor(req.Mode)
	if err != nil {
		return AnswerResult{}, err
	}
	if strings.TrimSpace(req.Question) == "" {
		return AnswerResult{}, ragErrors.Wrapf(ragErrors.ErrInvalidRequest, "question is empty")
	}

	if err = s.executeIndexCheckStep(ctx, log, req.SessionId); err != nil {
		return AnswerResult{}, err
	}

	queryVector, err := s.executeEmbeddingStep(ctx, log, req.Question)
	if err != nil {
		return AnswerResult{}, err
	}

	matches, err := s.executeVectorSearchStep(ctx, log, req.SessionId, queryVector)
	if err != nil {
		return AnswerResult{}, err
	}

	sources := matchTexts(matches)
	history := lastTurns(req.History, s.cfg.HistoryWindow)

	answer, err := s.executeLLMStep(ctx, log, instruction, sources, req.Question, history)
	if err != nil {
		return AnswerResult{}, err
	}

	log.Info("answered", "sources", len(sources), "history", len(history))
	return AnswerResult{
		Question: req.Question,
		Answer:   answer,
		Sources:  sources,
		Matches:  matches,
		Mode:     req.Mode,
	}, nil
}

func (s *service) IngestDocument(ctx context.Context, sessionId string, fileName string, data []byte) (ingest.IndexHandle, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()
	return s.indexer.Index(ctx, sessionId, fileName, data)
}

func (s *service) DeleteIndex(ctx context.Context, sessionId string) error {
	if err := s.vectorDB.Delete(ctx, sessionId); err != nil {
		s.logger.WithTrace(ctx).Error("deleting index failed", "sessionId", sessionId, "error", err)
		return err
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ragErrors.ErrGenerationFailure):
		return "generation_failure"
	case errors.Is(err, ragErrors.ErrIndexNotFound):
		return "index_not_found"
	default:
		return "error"
	}
}
