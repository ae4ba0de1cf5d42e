package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen      TicketStatus = "open"
	TicketStatusResolved  TicketStatus = "resolved"
	TicketStatusEscalated TicketStatus = "escalated"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// TicketSentiment captures the tone of the customer thread.
type TicketSentiment string

const (
	SentimentPositive TicketSentiment = "positive"
	SentimentNeutral  TicketSentiment = "neutral"
	SentimentNegative TicketSentiment = "negative"
)

// Ticket is the aggregate for support requests. AssignedTo and
// TransferRequestTo together form the ownership state: nil AssignedTo means
// unassigned, and TransferRequestTo is only meaningful while AssignedTo is
// set. ExternalID carries the GLPI ticket id when content is mirrored into
// the external system of record; once set it never changes.
type Ticket struct {
	ID                string
	ExternalID        *int64
	Title             string
	Description       string
	CustomerName      string
	Status            TicketStatus
	Priority          TicketPriority
	Sentiment         TicketSentiment
	AssignedTo        *string
	TransferRequestTo *string
	ConversationID    string
	UserID            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Unassigned reports whether the ticket has no current owner.
func (t *Ticket) Unassigned() bool {
	return t.AssignedTo == nil
}

// OwnedBy reports whether userID is the current owner.
func (t *Ticket) OwnedBy(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
