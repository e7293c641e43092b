package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/snobbots/chatbot-backend/internal/entity"
	pkgRetry "github.com/snobbots/chatbot-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingCfg   EmbeddingConnectorConfig   `envPrefix:"EMBEDDING_"`
	VectorIndexCfg VectorIndexConnectorConfig `envPrefix:"VECTOR_INDEX_"`
	ChatCfg        ChatConnectorConfig        `envPrefix:"CHAT_"`

	// Chunking configuration
	ChunkCfg ChunkConfig `envPrefix:"CHUNK_"`

	// Crawler configuration
	CrawlerCfg CrawlerConfig `envPrefix:"CRAWLER_"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`

	// API key lookup cache
	APIKeyCacheTTL time.Duration `env:"API_KEY_CACHE_TTL" envDefault:"5m"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Environment (set from flag, not from env var)
	Environment string
}

// EmbeddingConnectorConfig configures the hosted embedding service client.
type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	EmbeddingsEndpoint string `env:"EMBEDDINGS_ENDPOINT" envDefault:"/v1/embeddings"`
	Model              string `env:"MODEL" envDefault:"text-embedding-3-large"`
	Dimension          int    `env:"DIMENSION" envDefault:"3072"`
}

// VectorIndexConnectorConfig configures the vector index service client.
// One index per tenant, named IndexPrefix + "-" + tenant id.
type VectorIndexConnectorConfig struct {
	HTTPClientConfig
	IndexPrefix string `env:"INDEX_PREFIX" envDefault:"snobbots"`
	Dimension   int    `env:"DIMENSION" envDefault:"3072"`
	Cloud       string `env:"CLOUD" envDefault:"aws"`
	Region      string `env:"REGION" envDefault:"us-east-1"`
}

// ChatConnectorConfig configures the hosted chat completion client.
type ChatConnectorConfig struct {
	HTTPClientConfig
	CompletionsEndpoint string `env:"COMPLETIONS_ENDPOINT" envDefault:"/v1/chat/completions"`
	Model               string `env:"MODEL" envDefault:"gpt-4o-mini"`
}

// ChunkConfig controls the text chunker window parameters.
type ChunkConfig struct {
	Size    int `env:"SIZE" envDefault:"1000"`
	Overlap int `env:"OVERLAP" envDefault:"200"`
}

// CrawlerConfig controls website crawling used to feed the ingestion pipeline.
type CrawlerConfig struct {
	FetchTimeout time.Duration        `env:"FETCH_TIMEOUT" envDefault:"10s"`
	MaxPages     int                  `env:"MAX_PAGES" envDefault:"10"`
	Retry        pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	// An embedding/index dimension mismatch is a deployment defect: vectors
	// would be rejected or silently truncated by the index service.
	if cfg.EmbeddingCfg.Dimension != cfg.VectorIndexCfg.Dimension {
		return fmt.Errorf("%w: embedding dimension %d, index dimension %d",
			entity.ErrDimensionMismatch, cfg.EmbeddingCfg.Dimension, cfg.VectorIndexCfg.Dimension)
	}

	if cfg.EmbeddingCfg.Dimension < 1 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingCfg.Dimension)
	}

	if cfg.ChunkCfg.Size < 1 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkCfg.Size)
	}

	if cfg.ChunkCfg.Overlap < 0 || cfg.ChunkCfg.Overlap >= cfg.ChunkCfg.Size {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", cfg.ChunkCfg.Overlap)
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns)
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns)
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
