package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pomboexe/support-desk/internal/domain"
)

// ErrAssignmentConflict reports a conditional assignment write whose
// ownership guard no longer matched: another admin won the race between the
// caller's read and write.
var ErrAssignmentConflict = errors.New("assignment conflict")

// TicketCreateFields carries the caller-supplied content of a new ticket.
type TicketCreateFields struct {
	Title        string
	Description  string
	CustomerName string
	Priority     domain.TicketPriority
	Sentiment    domain.TicketSentiment
}

// TicketPatch describes a partial content/classification update. Nil fields
// are left untouched. Assignment fields are deliberately absent; those only
// change through UpdateAssignment.
type TicketPatch struct {
	Title        *string
	Description  *string
	CustomerName *string
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	Sentiment    *domain.TicketSentiment
	ExternalID   *int64
}

// AssignmentPatch writes both ownership columns to their target values in a
// single statement, guarded by the owner the caller observed when it read
// the ticket. A stale guard means the race was lost.
type AssignmentPatch struct {
	AssignedTo        *string
	TransferRequestTo *string
	ExpectedOwner     *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, fields TicketCreateFields, conversationID, userID string) (*domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByConversationID(ctx context.Context, conversationID string) (*domain.Ticket, error)
	Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error)
	UpdateAssignment(ctx context.Context, id string, patch AssignmentPatch) (*domain.Ticket, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Ticket, int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
}

const ticketColumns = `id, external_id, title, description, customer_name, status, priority, sentiment,
               assigned_to, transfer_request_to, conversation_id, user_id, created_at, updated_at`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, fields TicketCreateFields, conversationID, userID string) (*domain.Ticket, error) {
	priority := fields.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	sentiment := fields.Sentiment
	if sentiment == "" {
		sentiment = domain.SentimentNeutral
	}

	query := fmt.Sprintf(`
        INSERT INTO tickets (title, description, customer_name, status, priority, sentiment, conversation_id, user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING %s`, ticketColumns)

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(fields.Title),
		strings.TrimSpace(fields.Description),
		strings.TrimSpace(fields.CustomerName),
		domain.TicketStatusOpen,
		priority,
		sentiment,
		conversationID,
		userID,
	)
	return scanTicket(row)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByConversationID(ctx context.Context, conversationID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE conversation_id=$1`, ticketColumns)
	return scanTicket(r.pool.QueryRow(ctx, query, conversationID))
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Title != nil {
		appendSet("title", strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.CustomerName != nil {
		appendSet("customer_name", *patch.CustomerName)
	}
	if patch.Status != nil {
		appendSet("status", *patch.Status)
	}
	if patch.Priority != nil {
		appendSet("priority", *patch.Priority)
	}
	if patch.Sentiment != nil {
		appendSet("sentiment", *patch.Sentiment)
	}
	if patch.ExternalID != nil {
		// external_id is immutable once set; COALESCE keeps the first value.
		args = append(args, *patch.ExternalID)
		sets = append(sets, fmt.Sprintf("external_id=COALESCE(external_id, $%d)", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), ticketColumns)
	return scanTicket(r.pool.QueryRow(ctx, query, args...))
}

func (r *ticketRepository) UpdateAssignment(ctx context.Context, id string, patch AssignmentPatch) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET assigned_to=$1, transfer_request_to=$2, updated_at=NOW()
        WHERE id=$3 AND assigned_to IS NOT DISTINCT FROM $4
        RETURNING %s`, ticketColumns)

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		patch.AssignedTo,
		patch.TransferRequestTo,
		id,
		patch.ExpectedOwner,
	))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row updated: either the ticket is gone or the guard failed.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrAssignmentConflict
}

func (r *ticketRepository) List(ctx context.Context, page, pageSize int) ([]domain.Ticket, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets ORDER BY created_at DESC LIMIT $1 OFFSET $2`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE user_id=$1 ORDER BY created_at DESC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalID,
		&ticket.Title,
		&ticket.Description,
		&ticket.CustomerName,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Sentiment,
		&ticket.AssignedTo,
		&ticket.TransferRequestTo,
		&ticket.ConversationID,
		&ticket.UserID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
