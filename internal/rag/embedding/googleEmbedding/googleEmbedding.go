package googleEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/rag/embedding"
	"github.com/akolanti/codex/internal/rag/googleClient"
	"github.com/akolanti/codex/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskQuery    = "RETRIEVAL_QUERY"
	taskDocument = "RETRIEVAL_DOCUMENT"
)

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	logger    *logger_i.Logger
}

func NewGoogleEmbedder(ctx context.Context, cfg config.ProviderConfig) (embedding.Embedder, error) {
	c, err := googleClient.Get(ctx, cfg.GoogleAPIKey)
	if err != nil {
		return nil, err
	}
	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", cfg.GoogleEmbedding, "dimension", cfg.EmbeddingDimension)
	return &client{
		genAi:     c,
		model:     cfg.GoogleEmbedding,
		dimension: cfg.EmbeddingDimension,
		logger:    logger,
	}, nil
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, genai.NewContentFromText(chunk, genai.RoleUser))
	}
	return contentsToSend
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	res, err := c.doCall(ctx, getContent([]string{query}), taskQuery)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	return c.doCall(ctx, getContent(chunks), taskDocument)
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, task string) ([][]float32, error) {
	log := c.logger.WithTrace(ctx)
	conf := &genai.EmbedContentConfig{TaskType: task}
	if c.dimension > 0 {
		conf.OutputDimensionality = &c.dimension
	}

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, content, conf)
	if err != nil {
		if googleClient.IsRateLimited(err) {
			log.Warn("Rate limit hit", "error", err)
			return nil, fmt.Errorf("google embedding rate limited: %w", err)
		}
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, err
	}
	if result == nil || len(result.Embeddings) != len(content) {
		return nil, fmt.Errorf("google embedding returned %d vectors for %d inputs", embeddingCount(result), len(content))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("google embedding %d is empty", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

func embeddingCount(res *genai.EmbedContentResponse) int {
	if res == nil {
		return 0
	}
	return len(res.Embeddings)
}
