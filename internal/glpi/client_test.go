package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pomboexe/support-desk/internal/config"
)

func testClient(serverURL string) *Client {
	return NewClient(config.GLPIConfig{
		APIURL:                serverURL,
		AppToken:              "app-token",
		UserToken:             "user-secret",
		RequestTimeoutSeconds: 5,
	}, zap.NewNop())
}

func TestInitSessionSendsCredentials(t *testing.T) {
	var sawHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/initSession", r.URL.Path)
		sawHeaders = r.Header.Clone()
		_ = json.NewEncoder(w).Encode(map[string]string{"session_token": "sess-1"})
	}))
	defer server.Close()

	client := testClient(server.URL)
	require.NoError(t, client.InitSession(context.Background()))
	assert.Equal(t, "app-token", sawHeaders.Get("App-Token"))
	assert.Equal(t, "user_token user-secret", sawHeaders.Get("Authorization"))
}

func TestSessionTokenIsCachedAcrossRequests(t *testing.T) {
	var initCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/initSession":
			atomic.AddInt32(&initCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]string{"session_token": "sess-1"})
		case "/Ticket/7":
			assert.Equal(t, "sess-1", r.Header.Get("Session-Token"))
			_ = json.NewEncoder(w).Encode(Ticket{ID: 7, Name: "remote"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ticket, err := client.GetTicket(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), ticket.ID)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&initCalls), "session opens once")
}

func TestExpiredSessionReauthenticatesOnce(t *testing.T) {
	var initCalls, ticketCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/initSession":
			n := atomic.AddInt32(&initCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]string{"session_token": fmt.Sprintf("sess-%d", n)})
		case "/Ticket/7":
			if atomic.AddInt32(&ticketCalls, 1) == 1 {
				// First attempt carries the stale token.
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "sess-2", r.Header.Get("Session-Token"))
			_ = json.NewEncoder(w).Encode(Ticket{ID: 7, Name: "remote", Status: 2, Priority: 3})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	ticket, err := client.GetTicket(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ticket.ID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&initCalls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&ticketCalls))
}

func TestGetTicketNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/initSession" {
			_ = json.NewEncoder(w).Encode(map[string]string{"session_token": "sess-1"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetTicket(context.Background(), 999)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(config.GLPIConfig{}, zap.NewNop())
	assert.False(t, client.Configured())

	_, err := client.GetTicket(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = client.InitSession(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateTicketDefaultsAndID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/initSession":
			_ = json.NewEncoder(w).Encode(map[string]string{"session_token": "sess-1"})
		case "/Ticket":
			require.Equal(t, http.MethodPost, r.Method)
			var payload struct {
				Input TicketInput `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.NotNil(t, payload.Input.Status)
			assert.Equal(t, 1, *payload.Input.Status, "new tickets default to status new")
			require.NotNil(t, payload.Input.Type)
			assert.Equal(t, 1, *payload.Input.Type, "tickets are created as incidents")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]int64{"id": 42})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	name := "printer on fire"
	id, err := client.CreateTicket(context.Background(), TicketInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestLastTicketIDUsesDescendingRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/initSession":
			_ = json.NewEncoder(w).Encode(map[string]string{"session_token": "sess-1"})
		case "/Ticket/":
			assert.Equal(t, "0-0", r.URL.Query().Get("range"))
			assert.Equal(t, "DESC", r.URL.Query().Get("order"))
			_ = json.NewEncoder(w).Encode([]Ticket{{ID: 314}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	id, err := client.LastTicketID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(314), id)
}

func TestLastTicketIDEmptyInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/initSession" {
			_ = json.NewEncoder(w).Encode(map[string]string{"session_token": "sess-1"})
			return
		}
		_ = json.NewEncoder(w).Encode([]Ticket{})
	}))
	defer server.Close()

	client := testClient(server.URL)
	id, err := client.LastTicketID(context.Background())
	require.NoError(t, err)
	assert.Zero(t, id)
}
