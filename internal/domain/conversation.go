package domain

import "time"

// MessageRole indicates who authored a message in a conversation thread.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAgent     MessageRole = "agent"
	MessageRoleAssistant MessageRole = "assistant"
)

// Conversation is the message thread attached 1:1 to a ticket. Created once
// at ticket creation and never reassigned.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// Message is a single append-only entry in a conversation, ordered by
// creation time.
type Message struct {
	ID             string
	ConversationID string
	Role           MessageRole
	Content        string
	CreatedAt      time.Time
}
