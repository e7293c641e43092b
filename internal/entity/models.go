package entity

import (
	"strings"
	"time"
)

// MaxBotsPerTenant limits how many chatbots a single tenant may own.
const MaxBotsPerTenant = 5

// Bot is a tenant-scoped chatbot. The title is stored case-normalized and
// maps to exactly one namespace inside the tenant's vector index.
type Bot struct {
	ID        string
	TenantID  string
	Title     string
	CreatedAt time.Time
}

// Namespace returns the vector index namespace owned by this bot.
func (b *Bot) Namespace() string {
	return DeriveNamespace(b.Title)
}

// DeriveNamespace maps a chatbot title to its vector index namespace.
// Different-cased titles for the same tenant intentionally collapse to the
// same namespace.
func DeriveNamespace(title string) string {
	ns := strings.ToLower(strings.TrimSpace(title))
	return strings.Join(strings.Fields(ns), "_")
}

// NormalizeTitle is the canonical storage form of a chatbot title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// UsageCategory is one of the per-bot token accounting buckets.
type UsageCategory string

const (
	CategoryFileUpload UsageCategory = "file_upload"
	CategoryRawText    UsageCategory = "raw_text"
	CategoryQAPairs    UsageCategory = "qa_pairs"
	CategoryWebCrawl   UsageCategory = "web_crawl"
	CategoryAskQuery   UsageCategory = "ask_query"
)

// AllUsageCategories lists every accounting bucket in reporting order.
var AllUsageCategories = []UsageCategory{
	CategoryFileUpload,
	CategoryRawText,
	CategoryQAPairs,
	CategoryWebCrawl,
	CategoryAskQuery,
}

func (c UsageCategory) Validate() error {
	switch c {
	case CategoryFileUpload, CategoryRawText, CategoryQAPairs, CategoryWebCrawl, CategoryAskQuery:
		return nil
	default:
		return ErrInvalidCategory
	}
}

// BotUsage is one ledger row: running token counters per category for a
// (tenant, bot) pair. Counters are monotonically increasing until the bot is
// flushed.
type BotUsage struct {
	TenantID         string
	ChatbotTitle     string
	FileUploadTokens int64
	RawTextTokens    int64
	QAPairsTokens    int64
	WebCrawlTokens   int64
	AskQueryTokens   int64
}

// ByCategory returns the counter for a single category.
func (u *BotUsage) ByCategory(c UsageCategory) int64 {
	switch c {
	case CategoryFileUpload:
		return u.FileUploadTokens
	case CategoryRawText:
		return u.RawTextTokens
	case CategoryQAPairs:
		return u.QAPairsTokens
	case CategoryWebCrawl:
		return u.WebCrawlTokens
	case CategoryAskQuery:
		return u.AskQueryTokens
	default:
		return 0
	}
}

// Total sums all category counters.
func (u *BotUsage) Total() int64 {
	return u.FileUploadTokens + u.RawTextTokens + u.QAPairsTokens + u.WebCrawlTokens + u.AskQueryTokens
}

// APIKey binds an opaque bearer credential 1:1 to a (tenant, bot) pair so
// embeddable widgets can query without a session.
type APIKey struct {
	Key          string
	TenantID     string
	ChatbotTitle string
	CreatedAt    time.Time
}
