package ollamaLLM

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/customHttpClient"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/rag/llm"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/ollama/ollama/api"
)

type llmClient struct {
	api         *api.Client
	model       string
	temperature float32
	logger      *logger_i.Logger
}

func NewOllamaClient(cfg config.ProviderConfig) (llm.Provider, error) {
	u, err := url.Parse(cfg.OllamaHost)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.OllamaHost, err)
	}
	logger := logger_i.NewLogger("llm_ollama")
	logger.Info("Ollama client created", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
	return &llmClient{
		api:         api.NewClient(u, customHttpClient.GetPooledClient()),
		model:       cfg.OllamaModel,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func (c *llmClient) Generate(ctx context.Context, systemInstruction string, matches []string, question string, history []chatModel.Turn) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: llm.RenderUserPrompt(matches, question, history)},
		},
		Stream:  &stream,
		Options: map[string]any{"temperature": c.temperature},
	}

	var b strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		c.logger.WithTrace(ctx).Error("ollama generation failed", "error", err)
		return "", err
	}
	return b.String(), nil
}
