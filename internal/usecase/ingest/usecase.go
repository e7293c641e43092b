// Package ingest orchestrates the knowledge base pipeline: heterogeneous
// inputs are normalized into chunks, embedded in one batch, and written into
// the bot's namespace, with the embedding spend recorded in the token ledger.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/chunker"
	"github.com/snobbots/chatbot-backend/internal/pkg/extractor"
	"github.com/snobbots/chatbot-backend/internal/pkg/validator"
	"github.com/snobbots/chatbot-backend/internal/repository"
	"go.uber.org/zap"
)

type IngestUsecase struct {
	botRepo   repository.BotRepository
	usageRepo repository.TokenUsageRepository
	apiKeys   repository.APIKeyRepository
	embedder  EmbeddingConnector
	index     VectorIndexConnector
	crawler   PageCrawler
	splitter  *chunker.Splitter
	maxPages  int
	logger    *zap.Logger
}

func NewUsecase(
	botRepo repository.BotRepository,
	usageRepo repository.TokenUsageRepository,
	apiKeys repository.APIKeyRepository,
	embedder EmbeddingConnector,
	index VectorIndexConnector,
	pageCrawler PageCrawler,
	splitter *chunker.Splitter,
	maxPages int,
	logger *zap.Logger,
) *IngestUsecase {
	if maxPages < 1 {
		maxPages = 1
	}
	return &IngestUsecase{
		botRepo:   botRepo,
		usageRepo: usageRepo,
		apiKeys:   apiKeys,
		embedder:  embedder,
		index:     index,
		crawler:   pageCrawler,
		splitter:  splitter,
		maxPages:  maxPages,
		logger:    logger,
	}
}

// Ingest runs the full pipeline for one input. The bot row is created on first
// use, which is where the per-tenant bot limit is enforced. On an upsert
// failure after embeddings were purchased the spend is still written to the
// ledger and the error matches entity.ErrPartialIngestion.
func (uc *IngestUsecase) Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.IngestResult, error) {
	if err := validator.ValidateTenantID(req.TenantID); err != nil {
		return nil, err
	}
	if err := validator.ValidateChatbotTitle(req.ChatbotTitle); err != nil {
		return nil, err
	}
	if err := req.Input.Validate(); err != nil {
		return nil, err
	}

	chunks, source, err := uc.prepareChunks(&req.Input)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: input contains no text", entity.ErrNoInput)
	}

	bot, created, err := uc.botRepo.GetOrCreate(ctx, req.TenantID, req.ChatbotTitle)
	if err != nil {
		return nil, err
	}
	if created {
		ctxzap.Info(ctx, "chatbot registered on first ingestion",
			zap.String("tenant_id", req.TenantID),
			zap.String("title", bot.Title),
		)
	}

	namespace := bot.Namespace()

	ctxzap.Info(ctx, "ingestion started",
		zap.String("tenant_id", req.TenantID),
		zap.String("namespace", namespace),
		zap.String("source", source),
		zap.Int("chunk_count", len(chunks)),
	)

	embedded, err := uc.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := uc.index.EnsureIndex(ctx, req.TenantID); err != nil {
		return nil, uc.partialFailure(ctx, req, embedded.Tokens, fmt.Errorf("ensure index: %w", err))
	}

	records := buildRecords(req.TenantID, source, chunks, embedded.Vectors)
	if err := uc.index.Upsert(ctx, req.TenantID, namespace, records); err != nil {
		return nil, uc.partialFailure(ctx, req, embedded.Tokens, fmt.Errorf("upsert vectors: %w", err))
	}

	category := req.Input.Kind.Category()
	if _, err := uc.usageRepo.Record(ctx, req.TenantID, req.ChatbotTitle, category, embedded.Tokens); err != nil {
		// Vectors are indexed and usable; a ledger write failure must not
		// make the whole ingestion look failed.
		ctxzap.Error(ctx, "token usage not recorded after successful ingestion", zap.Error(err))
	}

	ctxzap.Info(ctx, "ingestion finished",
		zap.String("namespace", namespace),
		zap.Int("chunks_indexed", len(records)),
		zap.Int64("tokens_used", embedded.Tokens),
	)

	return &entity.IngestResult{
		ChunksIndexed: len(records),
		TokensUsed:    embedded.Tokens,
		Namespace:     namespace,
	}, nil
}

// IngestFromURL crawls the site starting at crawlURL and ingests the extracted
// heading/body blocks as web_crawl content. Crawling is bounded by the page
// limit; pages that fail to fetch are skipped rather than failing the batch.
func (uc *IngestUsecase) IngestFromURL(ctx context.Context, tenantID, chatbotTitle, crawlURL string) (*entity.IngestResult, error) {
	base, err := url.Parse(crawlURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: crawl_url must be an absolute URL", entity.ErrInvalidParameter)
	}

	blocks, err := uc.crawler.Blocks(ctx, crawlURL)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", crawlURL, err)
	}

	links, err := uc.crawler.Links(ctx, crawlURL)
	if err != nil {
		return nil, fmt.Errorf("discover links on %s: %w", crawlURL, err)
	}

	visited := 1
	for _, path := range links {
		if visited >= uc.maxPages {
			break
		}
		if path == "" || path == base.Path {
			continue
		}
		pageURL := base.ResolveReference(&url.URL{Path: path}).String()
		pageBlocks, err := uc.crawler.Blocks(ctx, pageURL)
		if err != nil {
			ctxzap.Warn(ctx, "crawled page skipped", zap.String("page_url", pageURL), zap.Error(err))
			continue
		}
		blocks = append(blocks, pageBlocks...)
		visited++
	}

	crawlBlocks := make([]entity.CrawlBlock, 0, len(blocks))
	for _, b := range blocks {
		crawlBlocks = append(crawlBlocks, entity.CrawlBlock{Heading: b.Heading, Body: b.Body})
	}
	if len(crawlBlocks) == 0 {
		return nil, fmt.Errorf("%w: no text content found at %s", entity.ErrNoInput, crawlURL)
	}

	return uc.Ingest(ctx, &entity.IngestRequest{
		TenantID:     tenantID,
		ChatbotTitle: chatbotTitle,
		Input:        entity.NewCrawlBlocksInput(crawlBlocks),
	})
}

// Flush deletes the bot's knowledge base: its vectors, its ledger row, its
// API key, and the bot registration itself. A tenant that never created an
// index gets ErrIndexNotFound.
func (uc *IngestUsecase) Flush(ctx context.Context, tenantID, chatbotTitle string) error {
	if err := validator.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if err := validator.ValidateChatbotTitle(chatbotTitle); err != nil {
		return err
	}

	namespace := entity.DeriveNamespace(chatbotTitle)

	if err := uc.index.DeleteNamespace(ctx, tenantID, namespace); err != nil {
		return err
	}

	if err := uc.usageRepo.DeleteBotUsage(ctx, tenantID, chatbotTitle); err != nil {
		return fmt.Errorf("delete usage row: %w", err)
	}

	if err := uc.apiKeys.DeleteForBot(ctx, tenantID, chatbotTitle); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	if err := uc.botRepo.Delete(ctx, tenantID, chatbotTitle); err != nil && !errors.Is(err, entity.ErrBotNotFound) {
		return fmt.Errorf("delete chatbot: %w", err)
	}

	ctxzap.Info(ctx, "knowledge base flushed",
		zap.String("tenant_id", tenantID),
		zap.String("namespace", namespace),
	)

	return nil
}

// prepareChunks normalizes the input into embedding-ready texts and the source
// label stored in vector metadata. QA pairs and crawl blocks arrive
// pre-chunked and bypass the splitter.
func (uc *IngestUsecase) prepareChunks(input *entity.IngestInput) ([]string, string, error) {
	switch input.Kind {
	case entity.InputFile:
		text, err := extractor.Extract(input.File.Filename, input.File.Content)
		if err != nil {
			return nil, "", err
		}
		return uc.splitter.Split(text), validator.SanitizeFilename(input.File.Filename), nil

	case entity.InputRawText:
		return uc.splitter.Split(input.RawText), entity.SourceRawText, nil

	case entity.InputQAPairs:
		chunks := make([]string, 0, len(input.QAPairs))
		for _, pair := range input.QAPairs {
			chunks = append(chunks, fmt.Sprintf("Q: %s\nA: %s", pair.Question, pair.Answer))
		}
		return chunks, entity.SourceQAJSON, nil

	case entity.InputCrawlBlocks:
		chunks := make([]string, 0, len(input.CrawlBlocks))
		for _, block := range input.CrawlBlocks {
			text := strings.TrimSpace(block.Heading + "\n" + block.Body)
			if text == "" {
				continue
			}
			chunks = append(chunks, text)
		}
		return chunks, entity.SourceWebCrawling, nil

	default:
		return nil, "", entity.ErrNoInput
	}
}

// buildRecords pairs chunks with their vectors and mints stable-format ids:
// {tenant}_{source}_{ordinal}_{8-hex}.
func buildRecords(tenantID, source string, chunks []string, vectors [][]float32) []entity.VectorRecord {
	idSource := strings.Join(strings.Fields(strings.ToLower(source)), "_")

	records := make([]entity.VectorRecord, len(chunks))
	for i := range chunks {
		records[i] = entity.VectorRecord{
			ID:     fmt.Sprintf("%s_%s_%d_%s", tenantID, idSource, i, uuid.NewString()[:8]),
			Values: vectors[i],
			Metadata: entity.VectorMetadata{
				ChunkText: chunks[i],
				Source:    source,
				TenantID:  tenantID,
			},
		}
	}
	return records
}

// partialFailure records the embedding spend that already happened and wraps
// the cause so callers can distinguish a paid-but-unindexed failure.
func (uc *IngestUsecase) partialFailure(ctx context.Context, req *entity.IngestRequest, tokens int64, cause error) error {
	category := req.Input.Kind.Category()
	if _, err := uc.usageRepo.Record(ctx, req.TenantID, req.ChatbotTitle, category, tokens); err != nil {
		ctxzap.Error(ctx, "token usage not recorded for partial ingestion", zap.Error(err))
	}

	ctxzap.Error(ctx, "ingestion failed after embedding spend",
		zap.Int64("tokens_spent", tokens),
		zap.Error(cause),
	)

	return &entity.PartialIngestionError{TokensSpent: tokens, Err: cause}
}
