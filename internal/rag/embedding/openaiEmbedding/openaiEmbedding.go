package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/customHttpClient"
	"github.com/akolanti/codex/internal/rag/embedding"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api       openai.Client
	model     string
	dimension int32
	logger    *logger_i.Logger
}

func NewOpenAIEmbedder(cfg config.ProviderConfig) (embedding.Embedder, error) {
	if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	logger := logger_i.NewLogger("openai_embedding")
	logger.Info("OpenAI Embedding client created", "model", cfg.OpenAIEmbedding)
	return &client{
		api:       openai.NewClient(opts...),
		model:     cfg.OpenAIEmbedding,
		dimension: cfg.EmbeddingDimension,
		logger:    logger,
	}, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	res, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(int64(c.dimension))
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		c.logger.WithTrace(ctx).Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("openai returned %d vectors for %d inputs", len(resp.Data), len(chunks))
	}

	//data is not guaranteed to come back in input order
	out := make([][]float32, len(chunks))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openai returned out of range index %d", d.Index)
		}
		out[d.Index] = toFloat32(d.Embedding)
	}
	return out, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
