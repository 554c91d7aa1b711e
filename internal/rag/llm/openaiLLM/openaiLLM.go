package openaiLLM

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/customHttpClient"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
	"github.com/akolanti/codex/internal/rag/llm"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	api         openai.Client
	model       string
	temperature float32
	logger      *logger_i.Logger
}

func NewOpenAIClient(cfg config.ProviderConfig) (llm.Provider, error) {
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
	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI client created", "model", cfg.OpenAIModel)
	return &llmClient{
		api:         openai.NewClient(opts...),
		model:       cfg.OpenAIModel,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func (c *llmClient) Generate(ctx context.Context, systemInstruction string, matches []string, question string, history []chatModel.Turn) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(llm.RenderUserPrompt(matches, question, history)),
		},
		Temperature: openai.Float(float64(c.temperature)),
	})
	if err != nil {
		c.logger.WithTrace(ctx).Error("openai generation failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ragErrors.Wrap(ragErrors.ErrMalformedModelResponse, fmt.Errorf("openai returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
