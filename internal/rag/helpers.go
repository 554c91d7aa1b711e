package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/metrics"
	"github.com/akolanti/codex/internal/rag/vectorDB"
	"github.com/akolanti/codex/pkg/logger_i"
)

func matchTexts(matches []vectorDB.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Text
	}
	return out
}

// lastTurns keeps the newest n turns of a chronological slice, still chronological.
func lastTurns(history []chatModel.Turn, n int) []chatModel.Turn {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return history
}

func (s *service) executeIndexCheckStep(ctx context.Context, log *logger_i.Logger, sessionId string) error {
	log.Debug("Answer", "step", "index_check")
	ok, err := s.vectorDB.Exists(ctx, sessionId)
	if err != nil {
		log.Error("index lookup failed", "error", err)
		return ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	if !ok {
		return ragErrors.ErrIndexNotFound
	}
	return nil
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, question string) ([]float32, error) {
	log.Debug("Answer", "step", "embedding")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	vector, err := s.embedder.GetEmbedding(ctx, question)
	if err != nil {
		log.Error("question embedding failed", "error", err)
		return nil, ragErrors.Wrap(ragErrors.ErrEmbeddingService, err)
	}
	if len(vector) == 0 {
		return nil, ragErrors.Wrapf(ragErrors.ErrEmbeddingService, "empty query vector")
	}
	return vector, nil
}

func (s *service) executeVectorSearchStep(ctx context.Context, log *logger_i.Logger, sessionId string, vector []float32) ([]vectorDB.Match, error) {
	log.Debug("Answer", "step", "vector_search")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	matches, err := s.vectorDB.Search(ctx, sessionId, vector, s.cfg.TopK)
	if err != nil {
		log.Error("vector search failed", "error", err)
		if errors.Is(err, ragErrors.ErrIndexNotFound) {
			return nil, err
		}
		return nil, ragErrors.Wrap(ragErrors.ErrRetrievalFailure, err)
	}
	return matches, nil
}

// executeLLMStep bounds generation with its own timeout. A late reply after the deadline is dropped.
func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, instruction string, sources []string, question string, history []chatModel.Turn) (string, error) {
	log.Debug("Answer", "step", "llm_generation")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	answer, err := s.llmProvider.Generate(genCtx, instruction, sources, question, history)
	if err != nil {
		log.Error("generation failed", "error", err)
		return "", ragErrors.Wrap(ragErrors.ErrGenerationFailure, err)
	}
	if genCtx.Err() != nil {
		return "", ragErrors.Wrap(ragErrors.ErrGenerationFailure, genCtx.Err())
	}
	if strings.TrimSpace(answer) == "" {
		return "", ragErrors.Wrapf(ragErrors.ErrMalformedModelResponse, "model returned an empty answer")
	}
	return answer, nil
}
