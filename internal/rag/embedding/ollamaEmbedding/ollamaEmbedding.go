package ollamaEmbedding

import (
	"context"
	"fmt"
	"net/url"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/customHttpClient"
	"github.com/akolanti/codex/internal/rag/embedding"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/ollama/ollama/api"
)

type client struct {
	api    *api.Client
	model  string
	logger *logger_i.Logger
}

func NewOllamaEmbedder(cfg config.ProviderConfig) (embedding.Embedder, error) {
	u, err := url.Parse(cfg.OllamaHost)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.OllamaHost, err)
	}
	logger := logger_i.NewLogger("ollama_embedding")
	logger.Info("Ollama Embedding client created", "host", cfg.OllamaHost, "model", cfg.OllamaEmbedding)
	return &client{
		api:    api.NewClient(u, customHttpClient.GetPooledClient()),
		model:  cfg.OllamaEmbedding,
		logger: logger,
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
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: chunks,
	})
	if err != nil {
		c.logger.WithTrace(ctx).Error("Error getting Embeddings from Ollama", "error", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("ollama returned %d vectors for %d inputs", len(resp.Embeddings), len(chunks))
	}
	return resp.Embeddings, nil
}
