package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is built once in main and handed to every component that needs it.
// Nothing below reads the environment after Load returns.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Provider ProviderConfig `yaml:"provider"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Engine   EngineConfig   `yaml:"engine"`
	Chat     ChatConfig     `yaml:"chat"`
}

type ServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	IsProd         bool     `yaml:"is_prod"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
}

type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	NoAuthBypass bool   `yaml:"no_auth_bypass"`
}

type ProviderConfig struct {
	LLM       string `yaml:"llm"`
	Embedding string `yaml:"embedding"`

	GoogleAPIKey       string `yaml:"google_api_key"`
	GeminiModel        string `yaml:"gemini_model"`
	GoogleEmbedding    string `yaml:"google_embedding_model"`
	EmbeddingDimension int32  `yaml:"embedding_dimension"`

	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenAIEmbedding string `yaml:"openai_embedding_model"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	OllamaHost      string `yaml:"ollama_host"`
	OllamaModel     string `yaml:"ollama_model"`
	OllamaEmbedding string `yaml:"ollama_embedding_model"`

	Temperature float32 `yaml:"temperature"`
}

type StorageConfig struct {
	IndexBackend string `yaml:"index_backend"`
	IndexRootDir string `yaml:"index_root_dir"`
	UseRedis     bool   `yaml:"use_redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

type QdrantConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	APIKey   string `yaml:"api_key"`
	UseTLS   bool   `yaml:"use_tls"`
	PoolSize int    `yaml:"pool_size"`
}

// EngineConfig parameterizes indexing and answering.
type EngineConfig struct {
	ChunkSize          int               `yaml:"chunk_size"`
	ChunkOverlap       int               `yaml:"chunk_overlap"`
	EmbeddingBatchSize int               `yaml:"embedding_batch_size"`
	PageTimeout        time.Duration     `yaml:"page_timeout"`
	TopK               int               `yaml:"top_k"`
	HistoryWindow      int               `yaml:"history_window"`
	GenerationTimeout  time.Duration     `yaml:"generation_timeout"`
	ModeInstructions   map[string]string `yaml:"mode_instructions"`
}

type ChatConfig struct {
	WarningThreshold int `yaml:"warning_threshold"`
	AlertThreshold   int `yaml:"alert_threshold"`
}

func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			ListenAddr:     ServerListenAddr,
			IsProd:         IS_PROD,
			AllowedOrigins: append([]string(nil), AllowedOrigins...),
			RateLimit:      RATE_LIMIT_PER_SECOND,
			RateBurst:      BURST_RATE_LIMIT_PER_SECOND,
		},
		Provider: ProviderConfig{
			LLM:                ProviderGemini,
			Embedding:          ProviderGemini,
			GeminiModel:        GeminiModelName,
			GoogleEmbedding:    GoogleEmbeddingModel,
			EmbeddingDimension: EmbeddingOutputDimensionality,
			OpenAIModel:        OpenAIModelName,
			OpenAIEmbedding:    OpenAIEmbeddingModel,
			AnthropicModel:     AnthropicModelName,
			OllamaHost:         OllamaHost,
			OllamaModel:        OllamaModelName,
			OllamaEmbedding:    OllamaEmbeddingModel,
			Temperature:        ModelTemperature,
		},
		Storage: StorageConfig{
			IndexBackend: IndexBackendFile,
			IndexRootDir: IndexRootDir,
			UseRedis:     true,
		},
		Redis: RedisConfig{Addr: RedisAddr},
		Qdrant: QdrantConfig{
			Host:     QdrantHost,
			Port:     QdrantGrpcPort,
			UseTLS:   QdrantUseTLS,
			PoolSize: QdrantPoolSize,
		},
		Engine: EngineConfig{
			ChunkSize:          ChunkSize,
			ChunkOverlap:       ChunkOverlap,
			EmbeddingBatchSize: EmbeddingBatchSize,
			PageTimeout:        PageExtractTimeout,
			TopK:               RetrievalTopK,
			HistoryWindow:      ChatHistoryWindow,
			GenerationTimeout:  GenerationTimeout,
			ModeInstructions: map[string]string{
				"concise":  conciseInstruction,
				"balanced": balancedInstruction,
				"detailed": detailedInstruction,
			},
		},
		Chat: ChatConfig{
			WarningThreshold: ChatLengthWarning,
			AlertThreshold:   ChatLengthAlert,
		},
	}
}

// Load layers .env, an optional YAML file (CODEX_CONFIG) and the process environment over Default.
func Load() (*AppConfig, error) {
	//a missing .env is normal outside of local dev
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CODEX_CONFIG"); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges the YAML file at path into cfg. Keys absent from the file keep their value.
func LoadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	cfg.Server.ListenAddr = envString("LISTEN_ADDR", cfg.Server.ListenAddr)
	cfg.Server.IsProd = envBool("IS_PROD", cfg.Server.IsProd)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Auth.JWTSecret = envString("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.NoAuthBypass = envBool("NO_AUTH_BYPASS", cfg.Auth.NoAuthBypass)

	p := &cfg.Provider
	p.LLM = envString("LLM_PROVIDER", p.LLM)
	p.Embedding = envString("EMBEDDING_PROVIDER", p.Embedding)
	p.GoogleAPIKey = envString("GOOGLE_API_KEY", p.GoogleAPIKey)
	p.GeminiModel = envString("GEMINI_MODEL_NAME", p.GeminiModel)
	p.GoogleEmbedding = strings.TrimPrefix(envString("EMBEDDING_MODEL_NAME", p.GoogleEmbedding), "models/")
	p.EmbeddingDimension = int32(envInt("EMBEDDING_DIMENSION", int(p.EmbeddingDimension)))
	p.OpenAIAPIKey = envString("OPENAI_API_KEY", p.OpenAIAPIKey)
	p.OpenAIBaseURL = envString("OPENAI_BASE_URL", p.OpenAIBaseURL)
	p.OpenAIModel = envString("OPENAI_MODEL_NAME", p.OpenAIModel)
	p.OpenAIEmbedding = envString("OPENAI_EMBEDDING_MODEL", p.OpenAIEmbedding)
	p.AnthropicAPIKey = envString("ANTHROPIC_API_KEY", p.AnthropicAPIKey)
	p.AnthropicModel = envString("ANTHROPIC_MODEL_NAME", p.AnthropicModel)
	p.OllamaHost = envString("OLLAMA_HOST", p.OllamaHost)
	p.OllamaModel = envString("OLLAMA_MODEL_NAME", p.OllamaModel)
	p.OllamaEmbedding = envString("OLLAMA_EMBEDDING_MODEL", p.OllamaEmbedding)

	cfg.Storage.IndexBackend = envString("INDEX_BACKEND", cfg.Storage.IndexBackend)
	cfg.Storage.IndexRootDir = envString("INDEX_ROOT_DIR", cfg.Storage.IndexRootDir)
	cfg.Storage.UseRedis = envBool("USE_REDIS", cfg.Storage.UseRedis)

	cfg.Redis.Addr = envString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envString("REDIS_PASSWORD", cfg.Redis.Password)

	cfg.Qdrant.Host = envString("QDRANT_HOST", cfg.Qdrant.Host)
	cfg.Qdrant.Port = envInt("QDRANT_PORT", cfg.Qdrant.Port)
	cfg.Qdrant.APIKey = envString("QDRANT_API_KEY", cfg.Qdrant.APIKey)

	cfg.Engine.HistoryWindow = envInt("CHAT_HISTORY_WINDOW", cfg.Engine.HistoryWindow)
	cfg.Engine.TopK = envInt("RETRIEVAL_TOP_K", cfg.Engine.TopK)
	cfg.Engine.GenerationTimeout = envDuration("GENERATION_TIMEOUT", cfg.Engine.GenerationTimeout)

	cfg.Chat.WarningThreshold = envInt("CHAT_LENGTH_WARNING", cfg.Chat.WarningThreshold)
	cfg.Chat.AlertThreshold = envInt("CHAT_LENGTH_ALERT", cfg.Chat.AlertThreshold)
}

func (c *AppConfig) Validate() error {
	var errs []error
	e := c.Engine
	if e.ChunkSize <= 0 {
		errs = append(errs, errors.New("engine.chunk_size must be positive"))
	}
	if e.ChunkOverlap < 0 || e.ChunkOverlap >= e.ChunkSize {
		errs = append(errs, fmt.Errorf("engine.chunk_overlap must be in [0, %d)", e.ChunkSize))
	}
	if e.EmbeddingBatchSize <= 0 {
		errs = append(errs, errors.New("engine.embedding_batch_size must be positive"))
	}
	if e.TopK <= 0 {
		errs = append(errs, errors.New("engine.top_k must be positive"))
	}
	if e.HistoryWindow < 0 {
		errs = append(errs, errors.New("engine.history_window must not be negative"))
	}
	if e.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("engine.generation_timeout must be positive"))
	}
	if e.GenerationTimeout >= WriteTimeout {
		errs = append(errs, fmt.Errorf("engine.generation_timeout must stay below the server write timeout of %s", WriteTimeout))
	}
	for _, mode := range []string{"concise", "balanced", "detailed"} {
		if strings.TrimSpace(e.ModeInstructions[mode]) == "" {
			errs = append(errs, fmt.Errorf("engine.mode_instructions.%s is empty", mode))
		}
	}
	if c.Chat.WarningThreshold > c.Chat.AlertThreshold {
		errs = append(errs, errors.New("chat.warning_threshold must not exceed chat.alert_threshold"))
	}

	switch c.Provider.LLM {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.Provider.LLM))
	}
	switch c.Provider.Embedding {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Provider.Embedding))
	}
	switch c.Storage.IndexBackend {
	case IndexBackendFile, IndexBackendRedis, IndexBackendQdrant, IndexBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown index backend %q", c.Storage.IndexBackend))
	}
	if !c.Auth.NoAuthBypass && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required unless no_auth_bypass is set"))
	}
	return errors.Join(errs...)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
