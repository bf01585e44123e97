// Package client provides a Go client library for the minicc status API.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TokenRollAI/minicc/internal/history"
	"github.com/TokenRollAI/minicc/internal/task"
	"github.com/TokenRollAI/minicc/internal/tool"
)

// Client communicates with a running minicc session's status API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a status API client pointing at the given base URL
// (e.g. "http://localhost:7271").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// doRequest builds and executes an HTTP request. The status API is
// read-only, so no request bodies are ever sent.
func (c *Client) doRequest(method, path string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// doJSON executes a request, checks for a 2xx status, and JSON-decodes
// the response body into target (when target is non-nil).
func (c *Client) doJSON(method, path string, target interface{}) error {
	resp, err := c.doRequest(method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Healthz checks whether the status API is healthy.
func (c *Client) Healthz() error {
	resp, err := c.doRequest(http.MethodGet, "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("healthz failed (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// ListTasks returns every sub-agent task the session has spawned.
func (c *Client) ListTasks() ([]*task.AgentTask, error) {
	var out []*task.AgentTask
	if err := c.doJSON(http.MethodGet, "/api/v1/tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTask retrieves a single task by ID.
func (c *Client) GetTask(id string) (*task.AgentTask, error) {
	var out task.AgentTask
	if err := c.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/tasks/%s", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// Tools
// ---------------------------------------------------------------------------

// ListTools returns the tool definitions the session exposes to the model.
func (c *Client) ListTools() ([]tool.Definition, error) {
	var out []tool.Definition
	if err := c.doJSON(http.MethodGet, "/api/v1/tools", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// History returns the most recent tool execution records in
// chronological order. A limit of 0 uses the server default.
func (c *Client) History(limit int) ([]*history.Record, error) {
	path := "/api/v1/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out []*history.Record
	if err := c.doJSON(http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
