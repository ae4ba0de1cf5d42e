package dto

import (
	"time"

	"github.com/pomboexe/support-desk/internal/domain"
)

// AddMessageRequest payload.
type AddMessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse is the wire shape of a conversation message.
type MessageResponse struct {
	ID             string             `json:"id"`
	ConversationID string             `json:"conversationId"`
	Role           domain.MessageRole `json:"role"`
	Content        string             `json:"content"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// ConversationResponse bundles a conversation with its ordered messages.
type ConversationResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"createdAt"`
	Messages  []MessageResponse `json:"messages"`
}
