package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pomboexe/support-desk/internal/domain"
	"github.com/pomboexe/support-desk/internal/events"
	"github.com/pomboexe/support-desk/internal/repository"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

// EnrichedTicket pairs a ticket with the resolved users behind its
// ownership fields, password hashes stripped.
type EnrichedTicket struct {
	Ticket                *domain.Ticket
	AssignedToUser        *domain.User
	TransferRequestToUser *domain.User
}

// ConversationThread is a conversation with its ordered messages.
type ConversationThread struct {
	Conversation *domain.Conversation
	Messages     []domain.Message
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	CustomerName string
	Priority     domain.TicketPriority
}

// TicketUpdateInput describes the admin partial update payload.
type TicketUpdateInput struct {
	Title        *string
	Description  *string
	CustomerName *string
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	Sentiment    *domain.TicketSentiment
}

// TicketPage is one page of the admin listing plus the total row count.
type TicketPage struct {
	Tickets []domain.Ticket
	Page    int
	Limit   int
	Total   int
}

// TicketService coordinates ticket workflows: creation paired with a fresh
// conversation, listing, access-checked reads, content updates, the chat
// thread, and the assignment operations delegated to the engine.
type TicketService struct {
	tickets       repository.TicketRepository
	conversations repository.ConversationRepository
	users         repository.UserRepository
	assignments   *AssignmentService
	dispatcher    events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	ConversationRepo repository.ConversationRepository
	UserRepo         repository.UserRepository
	Assignments      *AssignmentService
	Dispatcher       events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:       deps.TicketRepo,
		conversations: deps.ConversationRepo,
		users:         deps.UserRepo,
		assignments:   deps.Assignments,
		dispatcher:    deps.Dispatcher,
	}
}

// CreateTicket creates a ticket together with its conversation. The
// conversation link is set exactly once here and never changes. When a
// description is present it becomes the opening customer message.
func (s *TicketService) CreateTicket(ctx context.Context, caller *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	conversation, err := s.conversations.CreateConversation(ctx, title)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.tickets.Create(ctx, repository.TicketCreateFields{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		CustomerName: strings.TrimSpace(input.CustomerName),
		Priority:     input.Priority,
	}, conversation.ID, caller.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.Description != "" {
		if _, err := s.conversations.AppendMessage(ctx, conversation.ID, domain.MessageRoleUser, ticket.Description); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketCreatedPayload{
			Title:          ticket.Title,
			Priority:       ticket.Priority,
			ConversationID: ticket.ConversationID,
			ExternalID:     ticket.ExternalID,
		},
	})
	return ticket, nil
}

// ListTickets returns one admin page of all tickets with the total count.
func (s *TicketService) ListTickets(ctx context.Context, caller *domain.User, page, limit int) (*TicketPage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	tickets, total, err := s.tickets.List(ctx, page, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketPage{Tickets: tickets, Page: page, Limit: limit, Total: total}, nil
}

// ListMyTickets returns the caller's own tickets.
func (s *TicketService) ListMyTickets(ctx context.Context, caller *domain.User) ([]domain.Ticket, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := s.tickets.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches a ticket enriched with its assignment users. Customers
// only see their own tickets; admins see all.
func (s *TicketService) GetTicket(ctx context.Context, caller *domain.User, ticketID string) (*EnrichedTicket, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && ticket.UserID != caller.ID {
		return nil, apperrors.NewForbidden("you can only view your own tickets")
	}
	return s.enrich(ctx, ticket)
}

// UpdateTicket applies an admin partial update to content and
// classification fields.
func (s *TicketService) UpdateTicket(ctx context.Context, caller *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, apperrors.NewValidationError("title cannot be empty", nil)
	}
	if _, err := s.fetch(ctx, ticketID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{
		Title:        input.Title,
		Description:  input.Description,
		CustomerName: input.CustomerName,
		Status:       input.Status,
		Priority:     input.Priority,
		Sentiment:    input.Sentiment,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketUpdatedPayload{
			Status:   input.Status,
			Priority: input.Priority,
		},
	})
	return ticket, nil
}

// AddMessage appends a message to the ticket's conversation. Customers may
// only post to their own tickets as "user"; admins post as "agent".
func (s *TicketService) AddMessage(ctx context.Context, caller *domain.User, ticketID, content string) (*domain.Message, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}

	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	role := domain.MessageRoleAgent
	if !caller.IsAdmin() {
		if ticket.UserID != caller.ID {
			return nil, apperrors.NewForbidden("you can only post to your own tickets")
		}
		role = domain.MessageRoleUser
	}

	msg, err := s.conversations.AppendMessage(ctx, ticket.ConversationID, role, strings.TrimSpace(content))
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketMessageAddedPayload{
			MessageID: msg.ID,
			Role:      msg.Role,
			Preview:   preview(msg.Content, 120),
		},
	})
	return msg, nil
}

// GetConversation returns the thread for a conversation the caller can
// access through ticket ownership.
func (s *TicketService) GetConversation(ctx context.Context, caller *domain.User, conversationID string) (*ConversationThread, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	conversation, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("conversation", map[string]any{"conversation_id": conversationID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.tickets.GetByConversationID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("you don't have access to this conversation")
		}
		return nil, apperrors.MapError(err)
	}
	if !caller.IsAdmin() && ticket.UserID != caller.ID {
		return nil, apperrors.NewForbidden("you don't have access to this conversation")
	}

	messages, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ConversationThread{Conversation: conversation, Messages: messages}, nil
}

// Assign claims the ticket for the caller and returns it enriched.
func (s *TicketService) Assign(ctx context.Context, caller *domain.User, ticketID string) (*EnrichedTicket, error) {
	ticket, err := s.assignments.Assign(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, ticket)
}

// RequestTransfer records the caller as the pending transfer target.
func (s *TicketService) RequestTransfer(ctx context.Context, caller *domain.User, ticketID string) (*EnrichedTicket, error) {
	ticket, err := s.assignments.RequestTransfer(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, ticket)
}

// AcceptTransfer completes a pending handoff.
func (s *TicketService) AcceptTransfer(ctx context.Context, caller *domain.User, ticketID string) (*EnrichedTicket, error) {
	ticket, err := s.assignments.AcceptTransfer(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, ticket)
}

// RejectTransfer declines a pending handoff.
func (s *TicketService) RejectTransfer(ctx context.Context, caller *domain.User, ticketID string) (*EnrichedTicket, error) {
	ticket, err := s.assignments.RejectTransfer(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, ticket)
}

// Unassign releases the caller's ownership.
func (s *TicketService) Unassign(ctx context.Context, caller *domain.User, ticketID string) (*EnrichedTicket, error) {
	ticket, err := s.assignments.Unassign(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, ticket)
}

func (s *TicketService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// enrich resolves the users behind the ownership fields. A dangling user id
// leaves the corresponding field nil rather than failing the request.
func (s *TicketService) enrich(ctx context.Context, ticket *domain.Ticket) (*EnrichedTicket, error) {
	enriched := &EnrichedTicket{Ticket: ticket}
	if ticket.AssignedTo != nil {
		user, err := s.lookupUser(ctx, *ticket.AssignedTo)
		if err != nil {
			return nil, err
		}
		enriched.AssignedToUser = user.Sanitized()
	}
	if ticket.TransferRequestTo != nil {
		user, err := s.lookupUser(ctx, *ticket.TransferRequestTo)
		if err != nil {
			return nil, err
		}
		enriched.TransferRequestToUser = user.Sanitized()
	}
	return enriched, nil
}

func (s *TicketService) lookupUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
