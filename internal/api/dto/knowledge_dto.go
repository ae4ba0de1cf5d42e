package dto

import "time"

// CreateKnowledgeDocRequest payload.
type CreateKnowledgeDocRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// KnowledgeDocResponse is the wire shape of a knowledge base document.
type KnowledgeDocResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}
