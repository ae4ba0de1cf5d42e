package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pomboexe/support-desk/internal/domain"
	"github.com/pomboexe/support-desk/internal/glpi"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

// glpiTicketRepository decorates the local repository with GLPI mirroring.
// Ticket content (title, description, status, priority) is pushed to and
// refreshed from the external system of record; the ownership columns and
// the conversation link always stay local, so the assignment workflow never
// depends on the remote system. Remote connectivity failures surface as
// SERVICE_UNAVAILABLE, distinct from NOT_FOUND.
type glpiTicketRepository struct {
	local  TicketRepository
	client *glpi.Client
	logger *zap.Logger
}

// NewGLPITicketRepository wraps local with GLPI mirroring. Callers should
// only install the decorator when the client is configured.
func NewGLPITicketRepository(local TicketRepository, client *glpi.Client, logger *zap.Logger) TicketRepository {
	return &glpiTicketRepository{local: local, client: client, logger: logger}
}

func (r *glpiTicketRepository) Create(ctx context.Context, fields TicketCreateFields, conversationID, userID string) (*domain.Ticket, error) {
	// Remote first: a push failure must not leave an unmirrored local row.
	status := glpi.StatusToGLPI(domain.TicketStatusOpen)
	priority := glpi.PriorityToGLPI(fields.Priority)
	externalID, err := r.client.CreateTicket(ctx, glpi.TicketInput{
		Name:     &fields.Title,
		Content:  &fields.Description,
		Status:   &status,
		Priority: &priority,
	})
	if err != nil {
		return nil, remoteUnavailable("create ticket", err)
	}

	ticket, err := r.local.Create(ctx, fields, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return r.local.Update(ctx, ticket.ID, TicketPatch{ExternalID: &externalID})
}

func (r *glpiTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := r.local.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.ExternalID == nil {
		return ticket, nil
	}

	remote, err := r.client.GetTicket(ctx, *ticket.ExternalID)
	if err != nil {
		if errors.Is(err, glpi.ErrTicketNotFound) {
			// Remote row vanished; keep serving local content.
			r.logger.Warn("mirrored ticket missing in glpi",
				zap.String("ticket_id", ticket.ID),
				zap.Int64("external_id", *ticket.ExternalID))
			return ticket, nil
		}
		return nil, remoteUnavailable("get ticket", err)
	}

	// Best-effort translation of remote lifecycle back onto the local row.
	ticket.Status = glpi.StatusFromGLPI(remote.Status)
	ticket.Priority = glpi.PriorityFromGLPI(remote.Priority)
	return ticket, nil
}

// GetByConversationID serves the access-control lookup from local state;
// no content refresh is needed for it.
func (r *glpiTicketRepository) GetByConversationID(ctx context.Context, conversationID string) (*domain.Ticket, error) {
	return r.local.GetByConversationID(ctx, conversationID)
}

func (r *glpiTicketRepository) Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := r.local.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if ticket.ExternalID == nil {
		return ticket, nil
	}

	input := glpi.TicketInput{
		Name:    patch.Title,
		Content: patch.Description,
	}
	if patch.Status != nil {
		status := glpi.StatusToGLPI(*patch.Status)
		input.Status = &status
	}
	if patch.Priority != nil {
		priority := glpi.PriorityToGLPI(*patch.Priority)
		input.Priority = &priority
	}
	if input == (glpi.TicketInput{}) {
		return ticket, nil
	}
	if err := r.client.UpdateTicket(ctx, *ticket.ExternalID, input); err != nil {
		return nil, remoteUnavailable("update ticket", err)
	}
	return ticket, nil
}

// UpdateAssignment delegates untouched: ownership state is local-only.
func (r *glpiTicketRepository) UpdateAssignment(ctx context.Context, id string, patch AssignmentPatch) (*domain.Ticket, error) {
	return r.local.UpdateAssignment(ctx, id, patch)
}

func (r *glpiTicketRepository) List(ctx context.Context, page, pageSize int) ([]domain.Ticket, int, error) {
	return r.local.List(ctx, page, pageSize)
}

func (r *glpiTicketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return r.local.ListByUser(ctx, userID)
}

func remoteUnavailable(op string, err error) error {
	if errors.Is(err, glpi.ErrNotConfigured) {
		return apperrors.NewServiceUnavailable("ticketing backend not configured", err)
	}
	return apperrors.NewServiceUnavailable("ticketing backend unavailable: "+op, err)
}
