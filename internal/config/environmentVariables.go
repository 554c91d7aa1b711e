package config

import (
	"log/slog"
	"time"
)

type contextKey string

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo

	TRACE_ID_KEY contextKey = "traceId"
	OWNER_ID_KEY contextKey = "ownerId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	RateLimiterIdleTTL          = 10 * time.Minute

	//chunking - same numbers the upload pipeline always used
	ChunkSize          = 1000
	ChunkOverlap       = 200
	EmbeddingBatchSize = 100
	PageExtractTimeout = 10 * time.Second

	//retrieval + memory
	RetrievalTopK     = 4
	ChatHistoryWindow = 10

	//soft limits surfaced to the caller, never enforced
	ChatLengthWarning = 8
	ChatLengthAlert   = 15

	GenerationTimeout          = 30 * time.Second
	ModelTemperature   float32 = 0.7
	AnthropicMaxTokens         = 2048

	//embeddings
	EmbeddingOutputDimensionality int32 = 768
	GeminiModelName                     = "gemini-2.0-flash"
	GoogleEmbeddingModel                = "gemini-embedding-001"
	OpenAIModelName                     = "gpt-4o-mini"
	OpenAIEmbeddingModel                = "text-embedding-3-small"
	AnthropicModelName                  = "claude-3-5-haiku-latest"
	OllamaModelName                     = "llama3.1"
	OllamaEmbeddingModel                = "nomic-embed-text"
	OllamaHost                          = "http://127.0.0.1:11434"

	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	//serverTimeouts - generation is slow, keep write timeout above GenerationTimeout
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 90 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":5000"
	MaxUploadSize    = 32 << 20 //32mb

	//index storage backends
	IndexBackendFile   = "file"
	IndexBackendRedis  = "redis"
	IndexBackendQdrant = "qdrant"
	IndexBackendMemory = "memory"
	IndexRootDir       = "vectorstores"

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "127.0.0.1"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1 //2-5 is preferred for prod according to documentation
	QdrantUpsertBatchSize   = 100
	QdrantTieSlack          = 4 //extra hits fetched so equal scores at the k-th slot are not cut arbitrarily

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisSessionStore      = 0
	RedisConversationStore = 1
	RedisIndexStore        = 2

	RedisPingTimeout = 3 * time.Second
	RedisIOTimeout   = 30 * time.Second

	//auth
	NoAuthBypassOwner = "local"
)

var AllowedOrigins = []string{"http://localhost:5173"}

const conciseInstruction = `You are Codex, an AI assistant focused on document analysis. Provide brief, focused responses
based on the provided documents. Format responses in markdown with clear structure.`

const balancedInstruction = `You are Codex, an AI assistant focused on document analysis. Provide clear, well-explained answers
based on the provided documents. Use markdown formatting to structure responses with appropriate
headers, lists, and emphasis.`

const detailedInstruction = `You are Codex, an AI assistant focused on document analysis. Provide comprehensive, detailed
explanations based on the provided documents. Use markdown formatting with headers, lists, and
emphasis to structure detailed responses. Break down complex information into clear sections.`
