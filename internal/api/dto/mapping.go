package dto

import (
	"github.com/pomboexe/support-desk/internal/domain"
	"github.com/pomboexe/support-desk/internal/service"
)

// FromTicket converts a domain ticket to its wire shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		ExternalID:        t.ExternalID,
		Title:             t.Title,
		Description:       t.Description,
		CustomerName:      t.CustomerName,
		Status:            t.Status,
		Priority:          t.Priority,
		Sentiment:         t.Sentiment,
		AssignedTo:        t.AssignedTo,
		TransferRequestTo: t.TransferRequestTo,
		ConversationID:    t.ConversationID,
		UserID:            t.UserID,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// FromTickets converts a slice of domain tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}

// FromEnrichedTicket converts a ticket together with its resolved assignment users.
func FromEnrichedTicket(t *service.EnrichedTicket) EnrichedTicketResponse {
	resp := EnrichedTicketResponse{TicketResponse: FromTicket(t.Ticket)}
	if t.AssignedToUser != nil {
		u := FromUser(t.AssignedToUser)
		resp.AssignedToUser = &u
	}
	if t.TransferRequestToUser != nil {
		u := FromUser(t.TransferRequestToUser)
		resp.TransferRequestToUser = &u
	}
	return resp
}

// FromUser converts a domain user to its wire shape. The password hash is
// never serialized.
func FromUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// FromMessage converts a conversation message.
func FromMessage(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// FromConversation converts a conversation thread with its messages.
func FromConversation(t *service.ConversationThread) ConversationResponse {
	resp := ConversationResponse{
		ID:        t.Conversation.ID,
		Title:     t.Conversation.Title,
		CreatedAt: t.Conversation.CreatedAt,
		Messages:  make([]MessageResponse, 0, len(t.Messages)),
	}
	for i := range t.Messages {
		resp.Messages = append(resp.Messages, FromMessage(&t.Messages[i]))
	}
	return resp
}

// FromKnowledgeDoc converts a knowledge base document.
func FromKnowledgeDoc(d *domain.KnowledgeDoc) KnowledgeDocResponse {
	return KnowledgeDocResponse{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Category:  d.Category,
		CreatedAt: d.CreatedAt,
	}
}
