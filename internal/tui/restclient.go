package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/moodcanvas/server/internal/errors"
)

// creates a new REST client for endpoint (scheme and host, no path)
func NewAPIClient(endpoint string) *APIClient {
	return &APIClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// creates a session and returns its summary
func (c *APIClient) CreateSession(ctx context.Context, name string) (*sessionSummary, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp struct {
		Session sessionSummary `json:"session"`
	}

	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", body, http.StatusCreated, &resp); err != nil {
		return nil, err
	}

	return &resp.Session, nil
}

// returns the first page of live sessions
func (c *APIClient) ListSessions(ctx context.Context) ([]sessionSummary, error) {
	var resp struct {
		Sessions []sessionSummary `json:"sessions"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}

	return resp.Sessions, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, payload []byte, want int, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errResp errors.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// returns a tea.Cmd that creates a session and then joins it
func (c *APIClient) CreateSessionCmd(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		session, err := c.CreateSession(ctx, name)
		if err != nil {
			return ErrorMsg{err: err}
		}

		return JoinSessionMsg{sessionID: session.ID}
	}
}

// returns a tea.Cmd that lists live sessions
func (c *APIClient) ListSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		list, err := c.ListSessions(ctx)
		if err != nil {
			return ErrorMsg{err: err}
		}

		return SessionsListedMsg{sessions: list}
	}
}
