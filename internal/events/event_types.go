package events

import (
	"time"

	"github.com/pomboexe/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketAssigned     EventType = "ticket_assigned"
	EventTicketUnassigned   EventType = "ticket_unassigned"
	EventTransferRequested  EventType = "transfer_requested"
	EventTransferAccepted   EventType = "transfer_accepted"
	EventTransferRejected   EventType = "transfer_rejected"
	EventTicketMessageAdded EventType = "ticket_message_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title          string                `json:"title"`
	Priority       domain.TicketPriority `json:"priority"`
	ConversationID string                `json:"conversation_id"`
	ExternalID     *int64                `json:"external_id,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Status   *domain.TicketStatus   `json:"status,omitempty"`
	Priority *domain.TicketPriority `json:"priority,omitempty"`
}

// AssignmentChangedPayload covers assign/unassign and all transfer events.
type AssignmentChangedPayload struct {
	AssignedTo        *string `json:"assigned_to,omitempty"`
	TransferRequestTo *string `json:"transfer_request_to,omitempty"`
	PreviousOwner     *string `json:"previous_owner,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID string             `json:"message_id"`
	Role      domain.MessageRole `json:"role"`
	Preview   string             `json:"preview"`
}
