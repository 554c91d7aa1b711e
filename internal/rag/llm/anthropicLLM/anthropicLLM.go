package anthropicLLM

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/customHttpClient"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/rag/llm"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type llmClient struct {
	api         anthropic.Client
	model       string
	temperature float32
	logger      *logger_i.Logger
}

func NewAnthropicClient(cfg config.ProviderConfig, baseURL string) (llm.Provider, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	logger := logger_i.NewLogger("llm_anthropic")
	logger.Info("Anthropic client created", "model", cfg.AnthropicModel)
	return &llmClient{
		api:         anthropic.NewClient(opts...),
		model:       cfg.AnthropicModel,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func (c *llmClient) Generate(ctx context.Context, systemInstruction string, matches []string, question string, history []chatModel.Turn) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   config.AnthropicMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemInstruction}},
		Temperature: anthropic.Float(float64(c.temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(llm.RenderUserPrompt(matches, question, history))),
		},
	})
	if err != nil {
		c.logger.WithTrace(ctx).Error("anthropic generation failed", "error", err)
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
