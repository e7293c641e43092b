package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/snobbots/chatbot-backend/internal/api"
	botsapi "github.com/snobbots/chatbot-backend/internal/api/bots"
	ragapi "github.com/snobbots/chatbot-backend/internal/api/rag"
	usageapi "github.com/snobbots/chatbot-backend/internal/api/usage"
	"github.com/snobbots/chatbot-backend/internal/config"
	"github.com/snobbots/chatbot-backend/internal/integration/chat"
	"github.com/snobbots/chatbot-backend/internal/integration/embedding"
	"github.com/snobbots/chatbot-backend/internal/integration/vectorindex"
	"github.com/snobbots/chatbot-backend/internal/pkg/chunker"
	"github.com/snobbots/chatbot-backend/internal/pkg/crawler"
	"github.com/snobbots/chatbot-backend/internal/pkg/report"
	"github.com/snobbots/chatbot-backend/internal/repository"
	"github.com/snobbots/chatbot-backend/internal/usecase/ask"
	"github.com/snobbots/chatbot-backend/internal/usecase/bots"
	"github.com/snobbots/chatbot-backend/internal/usecase/ingest"
	"github.com/snobbots/chatbot-backend/internal/usecase/usage"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	botRepo := repository.NewBotPostgres(db)
	usageRepo := repository.NewTokenUsagePostgres(db)
	apiKeyRepo := repository.NewAPIKeyPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var embeddingConnector ingest.EmbeddingConnector
	var indexConnector indexConnector
	var chatConnector ask.ChatConnector

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embeddingConnector = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimension, logger)
		indexConnector = vectorindex.NewMockConnector(logger)
		chatConnector = chat.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embeddingConnector = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		indexConnector = vectorindex.NewConnector(cfg.VectorIndexCfg, logger)
		chatConnector = chat.NewConnector(cfg.ChatCfg, logger)
	}

	pageCrawler := crawler.New(cfg.CrawlerCfg)
	splitter := chunker.New(cfg.ChunkCfg.Size, cfg.ChunkCfg.Overlap)

	// Initialize use cases
	ingestUC := ingest.NewUsecase(
		botRepo,
		usageRepo,
		apiKeyRepo,
		embeddingConnector,
		indexConnector,
		pageCrawler,
		splitter,
		cfg.CrawlerCfg.MaxPages,
		logger,
	)

	askUC := ask.NewUsecase(
		usageRepo,
		embeddingConnector,
		indexConnector,
		chatConnector,
		logger,
	)

	botsUC := bots.NewUsecase(botRepo, apiKeyRepo, cfg.APIKeyCacheTTL, logger)
	usageUC := usage.NewUsecase(usageRepo, report.NewPDFFormatter(), logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	ragHandler := ragapi.NewHandler(ingestUC, askUC, botsUC, cfg.MaxUploadSize)
	botsHandler := botsapi.NewHandler(botsUC)
	usageHandler := usageapi.NewHandler(usageUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(ragHandler, botsHandler, usageHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// indexConnector is the union of the index operations the ingest and ask use
// cases need, so one connector value can serve both.
type indexConnector interface {
	ingest.VectorIndexConnector
	ask.VectorIndexConnector
}
