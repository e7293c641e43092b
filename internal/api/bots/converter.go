package bots

import (
	"time"

	"github.com/snobbots/chatbot-backend/internal/entity"
)

type botResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Namespace string    `json:"namespace"`
	CreatedAt time.Time `json:"created_at"`
}

type listBotsResponse struct {
	Bots []botResponse `json:"bots"`
}

type apiKeyResponse struct {
	APIKey       string    `json:"api_key"`
	ChatbotTitle string    `json:"chatbot_title"`
	CreatedAt    time.Time `json:"created_at"`
}

func toBotResponse(bot *entity.Bot) botResponse {
	return botResponse{
		ID:        bot.ID,
		Title:     bot.Title,
		Namespace: bot.Namespace(),
		CreatedAt: bot.CreatedAt,
	}
}

func toAPIKeyResponse(key *entity.APIKey) apiKeyResponse {
	return apiKeyResponse{
		APIKey:       key.Key,
		ChatbotTitle: key.ChatbotTitle,
		CreatedAt:    key.CreatedAt,
	}
}
