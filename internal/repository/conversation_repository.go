package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pomboexe/support-desk/internal/domain"
)

// ConversationRepository persists conversations and their append-only
// message log. Messages are never updated or deleted.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, title string) (*domain.Conversation, error)
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, role domain.MessageRole, content string) (*domain.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository returns a Postgres-backed implementation.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) CreateConversation(ctx context.Context, title string) (*domain.Conversation, error) {
	const query = `
        INSERT INTO conversations (title)
        VALUES ($1)
        RETURNING id, title, created_at`

	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, strings.TrimSpace(title)).Scan(
		&conv.ID,
		&conv.Title,
		&conv.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	const query = `SELECT id, title, created_at FROM conversations WHERE id=$1`

	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.Title,
		&conv.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, conversationID string, role domain.MessageRole, content string) (*domain.Message, error) {
	const query = `
        INSERT INTO messages (conversation_id, role, content)
        VALUES ($1, $2, $3)
        RETURNING id, conversation_id, role, content, created_at`

	var msg domain.Message
	if err := r.pool.QueryRow(ctx, query, conversationID, role, content).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Role,
		&msg.Content,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
        SELECT id, conversation_id, role, content, created_at
        FROM messages WHERE conversation_id=$1
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
