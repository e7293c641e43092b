package entity

// NoKnowledgeBaseAnswer is returned when a bot has no indexed content yet.
// It is a valid zero-cost answer, not an error, and must not trigger retries.
const NoKnowledgeBaseAnswer = "No knowledge base found. Please upload documents first."

// Usage is the token triple reported by the chat completion service.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AskRequest is one stateless question against a bot's knowledge base.
type AskRequest struct {
	TenantID     string
	ChatbotTitle string
	Query        string
}

// AskResult carries the grounded answer and its token usage.
type AskResult struct {
	Answer string `json:"answer"`
	Usage  Usage  `json:"tokens_used"`
}
