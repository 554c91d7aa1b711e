package gemini

import (
	"context"
	"fmt"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/rag/googleClient"
	"github.com/akolanti/codex/internal/rag/llm"
	"github.com/akolanti/codex/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	logger      *logger_i.Logger
}

func NewGeminiClient(ctx context.Context, cfg config.ProviderConfig) (llm.Provider, error) {
	c, err := googleClient.Get(ctx, cfg.GoogleAPIKey)
	if err != nil {
		return nil, err
	}
	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created", "model", cfg.GeminiModel)
	return &llmClient{
		client:      c,
		modelName:   cfg.GeminiModel,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func (c *llmClient) Generate(ctx context.Context, systemInstruction string, matches []string, question string, history []chatModel.Turn) (string, error) {
	log := c.logger.WithTrace(ctx)

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(llm.RenderUserPrompt(matches, question, history)),
		contentConfig,
	)
	if err != nil {
		if googleClient.IsRateLimited(err) {
			log.Warn("Rate limit hit", "error", err)
		} else {
			log.Error("gemini generation failed", "error", err)
		}
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", ragErrors.Wrap(ragErrors.ErrMalformedModelResponse, fmt.Errorf("gemini returned no candidates"))
	}
	return result.Text(), nil
}
