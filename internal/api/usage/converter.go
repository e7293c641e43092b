package usage

import (
	"github.com/snobbots/chatbot-backend/internal/entity"
)

type botUsageResponse struct {
	ChatbotTitle     string `json:"chatbot_title"`
	FileUploadTokens int64  `json:"file_upload"`
	RawTextTokens    int64  `json:"raw_text"`
	QAPairsTokens    int64  `json:"qa_pairs"`
	WebCrawlTokens   int64  `json:"web_crawl"`
	AskQueryTokens   int64  `json:"ask_query"`
	Total            int64  `json:"total"`
}

type tenantUsageResponse struct {
	Bots  []botUsageResponse `json:"bots"`
	Total int64              `json:"total"`
}

func toBotUsageResponse(row *entity.BotUsage) botUsageResponse {
	return botUsageResponse{
		ChatbotTitle:     row.ChatbotTitle,
		FileUploadTokens: row.FileUploadTokens,
		RawTextTokens:    row.RawTextTokens,
		QAPairsTokens:    row.QAPairsTokens,
		WebCrawlTokens:   row.WebCrawlTokens,
		AskQueryTokens:   row.AskQueryTokens,
		Total:            row.Total(),
	}
}
