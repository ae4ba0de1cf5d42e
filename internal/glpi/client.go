package glpi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/pomboexe/support-desk/internal/config"
)

// ErrNotConfigured is returned when the GLPI environment variables are
// missing or incomplete.
var ErrNotConfigured = errors.New("glpi not configured")

// ErrTicketNotFound reports a ticket id unknown to the remote system.
var ErrTicketNotFound = errors.New("glpi ticket not found")

// Client talks to the GLPI REST API. A session token is initialized lazily
// and refreshed once when the remote reports 401.
type Client struct {
	cfg    config.GLPIConfig
	http   *http.Client
	logger *zap.Logger

	mu           sync.Mutex
	sessionToken string
}

// Ticket mirrors the subset of GLPI ticket fields the service consumes.
type Ticket struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Content      string `json:"content"`
	Status       int    `json:"status"`
	Priority     int    `json:"priority"`
	DateCreation string `json:"date_creation"`
	DateMod      string `json:"date_mod"`
}

// TicketInput is the payload for create/update calls. Pointer fields are
// omitted when nil so updates stay partial.
type TicketInput struct {
	Name     *string `json:"name,omitempty"`
	Content  *string `json:"content,omitempty"`
	Status   *int    `json:"status,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Type     *int    `json:"type,omitempty"`
}

// NewClient builds a client; it performs no network calls until used.
func NewClient(cfg config.GLPIConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout()},
		logger: logger,
	}
}

// Configured reports whether all required credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.Enabled()
}

// InitSession opens a GLPI session and caches its token.
func (c *Client) InitSession(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/initSession", nil)
	if err != nil {
		return err
	}
	req.Header.Set("App-Token", c.cfg.AppToken)
	req.Header.Set("Authorization", "user_token "+c.cfg.UserToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("glpi init session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("glpi init session: status %d: %s", resp.StatusCode, string(body))
	}

	var session struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("glpi init session: decode: %w", err)
	}
	if session.SessionToken == "" {
		return errors.New("glpi init session: empty session_token")
	}

	c.mu.Lock()
	c.sessionToken = session.SessionToken
	c.mu.Unlock()
	return nil
}

// KillSession closes the remote session; errors only clear the cached token.
func (c *Client) KillSession(ctx context.Context) {
	c.mu.Lock()
	token := c.sessionToken
	c.sessionToken = ""
	c.mu.Unlock()
	if token == "" || !c.Configured() {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/killSession", nil)
	if err != nil {
		return
	}
	req.Header.Set("App-Token", c.cfg.AppToken)
	req.Header.Set("Session-Token", token)
	if resp, err := c.http.Do(req); err != nil {
		c.logger.Warn("glpi kill session", zap.Error(err))
	} else {
		resp.Body.Close()
	}
}

// CreateTicket creates a remote ticket and returns its id.
func (c *Client) CreateTicket(ctx context.Context, input TicketInput) (int64, error) {
	if input.Status == nil {
		input.Status = intPtr(statusGLPINew)
	}
	if input.Type == nil {
		input.Type = intPtr(typeIncident)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.request(ctx, http.MethodPost, "/Ticket", map[string]any{"input": input}, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, errors.New("glpi create ticket: no id in response")
	}
	return created.ID, nil
}

// GetTicket fetches a single remote ticket.
func (c *Client) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	var ticket Ticket
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/Ticket/%d", id), nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateTicket pushes partial field updates to a remote ticket.
func (c *Client) UpdateTicket(ctx context.Context, id int64, input TicketInput) error {
	return c.request(ctx, http.MethodPut, fmt.Sprintf("/Ticket/%d", id), map[string]any{"input": input}, nil)
}

// ListTickets fetches a page of remote tickets using GLPI range pagination.
func (c *Client) ListTickets(ctx context.Context, start, end int, descending bool) ([]Ticket, error) {
	order := "ASC"
	if descending {
		order = "DESC"
	}
	endpoint := fmt.Sprintf("/Ticket/?range=%d-%d&order=%s", start, end, order)
	var tickets []Ticket
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// LastTicketID returns the highest remote ticket id, or zero when the
// instance has no tickets. GLPI has no count endpoint; range=0-0 with
// descending order yields just the newest ticket.
func (c *Client) LastTicketID(ctx context.Context) (int64, error) {
	tickets, err := c.ListTickets(ctx, 0, 0, true)
	if err != nil {
		return 0, err
	}
	if len(tickets) == 0 {
		return 0, nil
	}
	return tickets[0].ID, nil
}

func (c *Client) request(ctx context.Context, method, endpoint string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	status, err := c.doOnce(ctx, method, endpoint, body, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		// Session likely expired; re-authenticate and retry once.
		c.mu.Lock()
		c.sessionToken = ""
		c.mu.Unlock()
		if err := c.ensureSession(ctx); err != nil {
			return err
		}
		status, err = c.doOnce(ctx, method, endpoint, body, out)
		if err != nil {
			return err
		}
	}

	switch {
	case status == http.StatusNotFound:
		return ErrTicketNotFound
	case status >= 400:
		return fmt.Errorf("glpi %s %s: status %d", method, endpoint, status)
	}
	return nil
}

// doOnce performs a single authenticated request. Non-2xx statuses are
// returned for the caller to interpret; transport failures are errors.
func (c *Client) doOnce(ctx context.Context, method, endpoint string, body, out any) (int, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL+endpoint, payload)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	req.Header.Set("Session-Token", c.sessionToken)
	c.mu.Unlock()
	req.Header.Set("App-Token", c.cfg.AppToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("glpi %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("glpi %s %s: decode: %w", method, endpoint, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	haveToken := c.sessionToken != ""
	c.mu.Unlock()
	if haveToken {
		return nil
	}
	return c.InitSession(ctx)
}

func intPtr(v int) *int {
	return &v
}
