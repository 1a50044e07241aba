package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendSQLite   = "sqlite"
	BackendQdrant   = "qdrant"
	BackendChroma   = "chroma"
	BackendPgvector = "pgvector"
	BackendMemory   = "memory"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	SourceDir    string `envconfig:"SOURCE_DIR" default:"./knowledge/original_src"`
	StoreDir     string `envconfig:"STORE_DIR" default:"./knowledge/vector_database/public_knowledge"`
	Backend      string `envconfig:"STORE_BACKEND" default:"sqlite"`
	Collection   string `envconfig:"COLLECTION" default:"knowledge"`
	ChunkSize    int    `envconfig:"CHUNK_SIZE" default:"500"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" default:"200"`

	EmbeddingProvider  string  `envconfig:"EMBEDDING_PROVIDER" default:"openai"`
	EmbeddingModel     string  `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimension int     `envconfig:"EMBEDDING_DIMENSION" default:"1536"`
	LLMProvider        string  `envconfig:"LLM_PROVIDER" default:"openai"`
	LLMModel           string  `envconfig:"LLM_MODEL"`
	Temperature        float32 `envconfig:"TEMPERATURE" default:"0"`
	QueryCount         int     `envconfig:"QUERY_COUNT" default:"3"`
	TopK               int     `envconfig:"TOP_K" default:"4"`

	// Unprefixed names are also honoured, e.g. OPENAI_API_KEY.
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`

	QdrantHost   string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort   int    `envconfig:"QDRANT_PORT" default:"6334"`
	QdrantAPIKey string `envconfig:"QDRANT_API_KEY"`
	QdrantUseTLS bool   `envconfig:"QDRANT_USE_TLS" default:"false"`
	ChromaURL    string `envconfig:"CHROMA_URL" default:"http://localhost:8000"`
	PostgresURL  string `envconfig:"POSTGRES_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":3000"`
	AuthToken    string `envconfig:"AUTH_TOKEN"`
	NoAuthBypass bool   `envconfig:"NO_AUTH" default:"false"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON     bool   `envconfig:"LOG_JSON" default:"false"`
}

// Load reads an optional .env file and then the DOCSYNC_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.applyProviderDefaults()

	return &cfg, nil
}

func (c *Config) applyProviderDefaults() {
	c.Backend = strings.ToLower(c.Backend)
	c.EmbeddingProvider = strings.ToLower(c.EmbeddingProvider)
	c.LLMProvider = strings.ToLower(c.LLMProvider)

	if c.EmbeddingModel == "" {
		if c.EmbeddingProvider == ProviderGemini {
			c.EmbeddingModel = GoogleEmbeddingModel
		} else {
			c.EmbeddingModel = OpenAIEmbeddingModel
		}
	}
	if c.LLMModel == "" {
		if c.LLMProvider == ProviderGemini {
			c.LLMModel = GeminiModelName
		} else {
			c.LLMModel = OpenAIChatModel
		}
	}
}

// Validate checks values that envconfig cannot express as tags.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection name is required")
	}
	switch c.Backend {
	case BackendSQLite, BackendQdrant, BackendChroma, BackendPgvector, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
	if c.Backend == BackendPgvector && c.PostgresURL == "" {
		return fmt.Errorf("pgvector backend requires %s_POSTGRES_URL", EnvPrefix)
	}
	for _, p := range []string{c.EmbeddingProvider, c.LLMProvider} {
		if p != ProviderOpenAI && p != ProviderGemini {
			return fmt.Errorf("unknown provider %q", p)
		}
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDimension)
	}
	return nil
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
