package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pomboexe/support-desk/internal/config"
	"github.com/pomboexe/support-desk/internal/domain"
	"github.com/pomboexe/support-desk/internal/glpi"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

// fakeLocalRepo is a minimal in-memory TicketRepository for decorator tests.
type fakeLocalRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeLocalRepo() *fakeLocalRepo {
	return &fakeLocalRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeLocalRepo) seed(t *domain.Ticket) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	r.tickets[t.ID] = &cp
	return t
}

func (r *fakeLocalRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

func (r *fakeLocalRepo) Create(_ context.Context, fields TicketCreateFields, conversationID, userID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket := &domain.Ticket{
		ID:             uuid.NewString(),
		Title:          fields.Title,
		Description:    fields.Description,
		CustomerName:   fields.CustomerName,
		Status:         domain.TicketStatusOpen,
		Priority:       fields.Priority,
		Sentiment:      fields.Sentiment,
		ConversationID: conversationID,
		UserID:         userID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	r.tickets[ticket.ID] = ticket
	cp := *ticket
	return &cp, nil
}

func (r *fakeLocalRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *ticket
	return &cp, nil
}

func (r *fakeLocalRepo) GetByConversationID(_ context.Context, conversationID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.ConversationID == conversationID {
			cp := *ticket
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeLocalRepo) Update(_ context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Title != nil {
		ticket.Title = *patch.Title
	}
	if patch.Description != nil {
		ticket.Description = *patch.Description
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.Sentiment != nil {
		ticket.Sentiment = *patch.Sentiment
	}
	if patch.ExternalID != nil && ticket.ExternalID == nil {
		v := *patch.ExternalID
		ticket.ExternalID = &v
	}
	cp := *ticket
	return &cp, nil
}

func (r *fakeLocalRepo) UpdateAssignment(_ context.Context, id string, patch AssignmentPatch) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.AssignedTo = patch.AssignedTo
	ticket.TransferRequestTo = patch.TransferRequestTo
	cp := *ticket
	return &cp, nil
}

func (r *fakeLocalRepo) List(_ context.Context, page, pageSize int) ([]domain.Ticket, int, error) {
	return nil, 0, nil
}

func (r *fakeLocalRepo) ListByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	return nil, nil
}

func glpiTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *glpi.Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/initSession" {
			_ = json.NewEncoder(w).Encode(map[string]string{"session_token": "sess-1"})
			return
		}
		handler(w, r)
	}))
	client := glpi.NewClient(config.GLPIConfig{
		APIURL:                server.URL,
		AppToken:              "app",
		UserToken:             "tok",
		RequestTimeoutSeconds: 5,
	}, zap.NewNop())
	return server, client
}

func TestMirroredCreateStoresExternalID(t *testing.T) {
	server, client := glpiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Ticket", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int64{"id": 77})
	})
	defer server.Close()

	local := newFakeLocalRepo()
	repo := NewGLPITicketRepository(local, client, zap.NewNop())

	ticket, err := repo.Create(context.Background(), TicketCreateFields{
		Title:    "mirrored",
		Priority: domain.TicketPriorityHigh,
	}, uuid.NewString(), uuid.NewString())
	require.NoError(t, err)
	require.NotNil(t, ticket.ExternalID)
	assert.Equal(t, int64(77), *ticket.ExternalID)
}

func TestMirroredCreateRemoteFailureLeavesNoLocalRow(t *testing.T) {
	server, client := glpiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	local := newFakeLocalRepo()
	repo := NewGLPITicketRepository(local, client, zap.NewNop())

	_, err := repo.Create(context.Background(), TicketCreateFields{Title: "doomed"}, uuid.NewString(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "SERVICE_UNAVAILABLE"))
	assert.Zero(t, local.count(), "remote-first create must not leave an unmirrored row")
}

func TestMirroredGetRefreshesFromRemote(t *testing.T) {
	server, client := glpiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(glpi.Ticket{ID: 77, Status: 4, Priority: 5})
	})
	defer server.Close()

	local := newFakeLocalRepo()
	externalID := int64(77)
	ticket := local.seed(&domain.Ticket{
		Title:      "mirrored",
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityLow,
		ExternalID: &externalID,
	})
	repo := NewGLPITicketRepository(local, client, zap.NewNop())

	got, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status, "remote solved maps to resolved")
	assert.Equal(t, domain.TicketPriorityHigh, got.Priority)
}

func TestMirroredGetRemoteGoneKeepsLocal(t *testing.T) {
	server, client := glpiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	local := newFakeLocalRepo()
	externalID := int64(77)
	ticket := local.seed(&domain.Ticket{
		Title:      "orphaned",
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityMedium,
		ExternalID: &externalID,
	})
	repo := NewGLPITicketRepository(local, client, zap.NewNop())

	got, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
}

func TestMirroredGetRemoteDownIsUnavailable(t *testing.T) {
	server, client := glpiTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close() // unreachable from the start

	local := newFakeLocalRepo()
	externalID := int64(77)
	ticket := local.seed(&domain.Ticket{Title: "mirrored", ExternalID: &externalID})
	repo := NewGLPITicketRepository(local, client, zap.NewNop())

	_, err := repo.GetByID(context.Background(), ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "SERVICE_UNAVAILABLE"))
}

func TestMirroredGetWithoutExternalIDSkipsRemote(t *testing.T) {
	var remoteCalls int
	server, client := glpiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		remoteCalls++
	})
	defer server.Close()

	local := newFakeLocalRepo()
	ticket := local.seed(&domain.Ticket{Title: "local only", Status: domain.TicketStatusOpen})
	repo := NewGLPITicketRepository(local, client, zap.NewNop())

	got, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "local only", got.Title)
	assert.Zero(t, remoteCalls)
}

func TestAssignmentStaysLocal(t *testing.T) {
	var remoteCalls int
	server, client := glpiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		remoteCalls++
	})
	defer server.Close()

	local := newFakeLocalRepo()
	externalID := int64(77)
	ticket := local.seed(&domain.Ticket{Title: "mirrored", ExternalID: &externalID})
	repo := NewGLPITicketRepository(local, client, zap.NewNop())

	owner := "alice"
	updated, err := repo.UpdateAssignment(context.Background(), ticket.ID, AssignmentPatch{AssignedTo: &owner})
	require.NoError(t, err)
	assert.Equal(t, "alice", *updated.AssignedTo)
	assert.Zero(t, remoteCalls, "ownership changes never touch the remote system")
}
