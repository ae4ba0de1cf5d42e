package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pomboexe/support-desk/internal/domain"
	"github.com/pomboexe/support-desk/internal/events"
	"github.com/pomboexe/support-desk/internal/repository"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

// AssignmentService enforces the ticket ownership state machine: a ticket is
// unassigned, assigned to exactly one admin, or assigned with a pending
// transfer request. Ownership moves between admins only through the
// two-phase request/accept handoff; the current owner keeps control until
// explicitly relinquishing it.
//
// Every operation re-fetches the ticket, evaluates its precondition against
// the persisted state, and applies the change through a single conditional
// write guarded by the observed owner, so concurrent writers resolve to one
// winner and a CONFLICT loser.
type AssignmentService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Assign claims an unassigned ticket for the caller. Assigning a ticket the
// caller already owns is a no-op; a ticket owned by another admin yields
// CONFLICT.
func (s *AssignmentService) Assign(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.OwnedBy(caller.ID) {
		return ticket, nil
	}
	if !ticket.Unassigned() {
		return nil, apperrors.NewConflict("ticket is already being handled by another admin", map[string]any{
			"assigned_to": *ticket.AssignedTo,
		})
	}

	updated, err := s.apply(ctx, ticket, repository.AssignmentPatch{
		AssignedTo:    &caller.ID,
		ExpectedOwner: nil,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketAssigned, caller.ID, updated, nil)
	return updated, nil
}

// RequestTransfer records the caller as the pending transfer target on a
// ticket owned by another admin. A later request overwrites an earlier one:
// last request wins, there is no queue of competing requesters.
func (s *AssignmentService) RequestTransfer(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Unassigned() {
		return nil, apperrors.NewInvalidState("ticket is not assigned; use assign instead", nil)
	}
	if ticket.OwnedBy(caller.ID) {
		return nil, apperrors.NewInvalidState("you are already handling this ticket", nil)
	}
	if ticket.Status == domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidState("cannot request transfer on a resolved ticket", nil)
	}

	updated, err := s.apply(ctx, ticket, repository.AssignmentPatch{
		AssignedTo:        ticket.AssignedTo,
		TransferRequestTo: &caller.ID,
		ExpectedOwner:     ticket.AssignedTo,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTransferRequested, caller.ID, updated, ticket.AssignedTo)
	return updated, nil
}

// AcceptTransfer hands the ticket to the pending requester. Only the current
// owner may accept, and only while a request is pending.
func (s *AssignmentService) AcceptTransfer(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.OwnedBy(caller.ID) {
		return nil, apperrors.NewForbidden("you are not currently assigned to this ticket")
	}
	if ticket.TransferRequestTo == nil {
		return nil, apperrors.NewInvalidState("no transfer request pending", nil)
	}
	if ticket.Status == domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidState("cannot accept transfer on a resolved ticket", nil)
	}

	updated, err := s.apply(ctx, ticket, repository.AssignmentPatch{
		AssignedTo:    ticket.TransferRequestTo,
		ExpectedOwner: ticket.AssignedTo,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTransferAccepted, caller.ID, updated, ticket.AssignedTo)
	return updated, nil
}

// RejectTransfer clears the pending request without changing ownership.
// Allowed on resolved tickets so a stale request can still be cleaned up.
func (s *AssignmentService) RejectTransfer(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.OwnedBy(caller.ID) {
		return nil, apperrors.NewForbidden("you are not currently assigned to this ticket")
	}
	if ticket.TransferRequestTo == nil {
		return nil, apperrors.NewInvalidState("no transfer request pending", nil)
	}

	updated, err := s.apply(ctx, ticket, repository.AssignmentPatch{
		AssignedTo:    ticket.AssignedTo,
		ExpectedOwner: ticket.AssignedTo,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTransferRejected, caller.ID, updated, ticket.AssignedTo)
	return updated, nil
}

// Unassign releases the caller's ownership and clears any pending request.
// Unassigning an already-unassigned ticket is a no-op so retries stay safe.
func (s *AssignmentService) Unassign(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Unassigned() {
		return ticket, nil
	}
	if !ticket.OwnedBy(caller.ID) {
		return nil, apperrors.NewForbidden("you are not currently assigned to this ticket")
	}
	if ticket.Status == domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidState("cannot unassign a resolved ticket", nil)
	}

	updated, err := s.apply(ctx, ticket, repository.AssignmentPatch{
		ExpectedOwner: ticket.AssignedTo,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketUnassigned, caller.ID, updated, ticket.AssignedTo)
	return updated, nil
}

func (s *AssignmentService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		// SERVICE_UNAVAILABLE from a remote-backed repository passes
		// through unchanged.
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *AssignmentService) apply(ctx context.Context, ticket *domain.Ticket, patch repository.AssignmentPatch) (*domain.Ticket, error) {
	updated, err := s.tickets.UpdateAssignment(ctx, ticket.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAssignmentConflict):
			return nil, apperrors.NewConflict("ticket ownership changed concurrently", map[string]any{
				"ticket_id": ticket.ID,
			})
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		default:
			return nil, apperrors.MapError(err)
		}
	}
	return updated, nil
}

func (s *AssignmentService) publish(ctx context.Context, eventType events.EventType, actorID string, ticket *domain.Ticket, previousOwner *string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload: events.AssignmentChangedPayload{
			AssignedTo:        ticket.AssignedTo,
			TransferRequestTo: ticket.TransferRequestTo,
			PreviousOwner:     previousOwner,
		},
	})
}

func requireAdmin(caller *domain.User) error {
	if caller == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !caller.IsAdmin() {
		return apperrors.NewForbidden("admin access required")
	}
	return nil
}
