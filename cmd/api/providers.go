package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/data/redisStore"
	"github.com/akolanti/codex/internal/data/store"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/rag/embedding"
	"github.com/akolanti/codex/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/codex/internal/rag/embedding/ollamaEmbedding"
	"github.com/akolanti/codex/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/codex/internal/rag/llm"
	"github.com/akolanti/codex/internal/rag/llm/anthropicLLM"
	"github.com/akolanti/codex/internal/rag/llm/gemini"
	"github.com/akolanti/codex/internal/rag/llm/ollamaLLM"
	"github.com/akolanti/codex/internal/rag/llm/openaiLLM"
	"github.com/akolanti/codex/internal/rag/vectorDB"
	"github.com/akolanti/codex/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/codex/pkg/logger_i"
)

var errRedisOffline = errors.New("redis is offline")

// buildStores prefers redis and falls back to in-memory stores when it is unreachable.
func buildStores(ctx context.Context, cfg *config.AppConfig, logger *logger_i.Logger) (chatModel.SessionStore, chatModel.ConversationStore) {
	if cfg.Storage.UseRedis {
		sessionDB := redisStore.GetRedisStore(ctx, cfg.Redis, config.RedisSessionStore)
		conversationDB := redisStore.GetRedisStore(ctx, cfg.Redis, config.RedisConversationStore)
		if sessionDB != nil && conversationDB != nil {
			return store.NewRedisSessionStore(sessionDB), store.NewRedisConversationStore(conversationDB)
		}
		logger.Error("Redis stores are offline, sessions and history will not survive a restart")
	}
	return store.InitInMemorySessionStore(), store.InitConversationStore()
}

func buildIndex(ctx context.Context, cfg *config.AppConfig) (vectorDB.DataProcessor, error) {
	switch cfg.Storage.IndexBackend {
	case config.IndexBackendFile:
		fs, err := vectorDB.NewFileStorage(cfg.Storage.IndexRootDir)
		if err != nil {
			return nil, err
		}
		return vectorDB.NewBlobIndex(fs, config.IndexBackendFile), nil
	case config.IndexBackendRedis:
		db := redisStore.GetRedisStore(ctx, cfg.Redis, config.RedisIndexStore)
		if db == nil {
			return nil, errRedisOffline
		}
		return vectorDB.NewBlobIndex(vectorDB.NewRedisStorage(db), config.IndexBackendRedis), nil
	case config.IndexBackendMemory:
		return vectorDB.NewBlobIndex(vectorDB.NewMemoryStorage(), config.IndexBackendMemory), nil
	case config.IndexBackendQdrant:
		client, err := qdrantDB.NewClient(ctx, cfg.Qdrant)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Storage.IndexBackend)
	}
}

func buildEmbedder(ctx context.Context, cfg config.ProviderConfig) (embedding.Embedder, error) {
	switch cfg.Embedding {
	case config.ProviderGemini:
		return googleEmbedding.NewGoogleEmbedder(ctx, cfg)
	case config.ProviderOpenAI:
		return openaiEmbedding.NewOpenAIEmbedder(cfg)
	case config.ProviderOllama:
		return ollamaEmbedding.NewOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("no embedding support for provider %q", cfg.Embedding)
	}
}

func buildLLM(ctx context.Context, cfg config.ProviderConfig) (llm.Provider, error) {
	switch cfg.LLM {
	case config.ProviderGemini:
		return gemini.NewGeminiClient(ctx, cfg)
	case config.ProviderOpenAI:
		return openaiLLM.NewOpenAIClient(cfg)
	case config.ProviderAnthropic:
		return anthropicLLM.NewAnthropicClient(cfg, "")
	case config.ProviderOllama:
		return ollamaLLM.NewOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM)
	}
}
