package dto

import (
	"time"

	"github.com/pomboexe/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	CustomerName string                `json:"customerName"`
	Priority     domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload for admin partial updates.
type UpdateTicketRequest struct {
	Title        *string                 `json:"title"`
	Description  *string                 `json:"description"`
	CustomerName *string                 `json:"customerName"`
	Status       *domain.TicketStatus    `json:"status"`
	Priority     *domain.TicketPriority  `json:"priority"`
	Sentiment    *domain.TicketSentiment `json:"sentiment"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID                string                  `json:"id"`
	ExternalID        *int64                  `json:"externalId,omitempty"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description,omitempty"`
	CustomerName      string                  `json:"customerName,omitempty"`
	Status            domain.TicketStatus     `json:"status"`
	Priority          domain.TicketPriority   `json:"priority"`
	Sentiment         domain.TicketSentiment  `json:"sentiment"`
	AssignedTo        *string                 `json:"assignedTo"`
	TransferRequestTo *string                 `json:"transferRequestTo"`
	ConversationID    string                  `json:"conversationId"`
	UserID            string                  `json:"userId"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

// EnrichedTicketResponse adds the resolved assignment users.
type EnrichedTicketResponse struct {
	TicketResponse
	AssignedToUser        *UserResponse `json:"assignedToUser"`
	TransferRequestToUser *UserResponse `json:"transferRequestToUser"`
}

// Pagination reports list paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TicketListResponse is the admin listing envelope.
type TicketListResponse struct {
	Tickets    []TicketResponse `json:"tickets"`
	Pagination Pagination       `json:"pagination"`
}
