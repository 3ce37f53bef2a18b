package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"confide/pkg/platform/sentinel"
)

// RunStatus is the lifecycle state of an assistant run as reported by the
// external service.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusExpired    RunStatus = "expired"
)

// Pending reports whether the run is still waiting for a terminal state.
func (s RunStatus) Pending() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// Client talks to the OpenAI Assistants API (v2). It is stateless; every
// method is one network round-trip. Transport and non-2xx failures wrap
// sentinel.ErrUnavailable so callers can treat them uniformly.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type threadResponse struct {
	ID string `json:"id"`
}

type runResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type messageContent struct {
	Type string `json:"type"`
	Text struct {
		Value string `json:"value"`
	} `json:"text"`
}

type message struct {
	Role    string           `json:"role"`
	Content []messageContent `json:"content"`
}

type messageListResponse struct {
	Data []message `json:"data"`
}

// CreateThread opens a new conversation and returns its ID.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var resp threadResponse
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// AddMessage posts a user message to the thread.
func (c *Client) AddMessage(ctx context.Context, threadID, content string) error {
	body := map[string]any{
		"role":    "user",
		"content": content,
	}
	return c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil)
}

// StartRun kicks off the assistant on the thread and returns the run ID.
func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	body := map[string]any{
		"assistant_id": assistantID,
	}
	var resp runResponse
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// GetRunStatus fetches a single status snapshot for the run. Non-blocking;
// the caller owns the polling policy.
func (c *Client) GetRunStatus(ctx context.Context, threadID, runID string) (RunStatus, error) {
	var resp runResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &resp); err != nil {
		return "", err
	}
	return RunStatus(resp.Status), nil
}

// LatestAssistantReply returns the trimmed text of the most recent
// assistant-role message among the last 10 exchanged, or ("", false) if that
// message is absent or carries no text. Only the newest assistant message
// counts; a blank reply never falls back to an older one.
func (c *Client) LatestAssistantReply(ctx context.Context, threadID string) (string, bool, error) {
	var resp messageListResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages?limit=10", nil, &resp); err != nil {
		return "", false, err
	}

	// The API returns messages newest-first.
	for _, msg := range resp.Data {
		if msg.Role != "assistant" || len(msg.Content) == 0 {
			continue
		}
		text := strings.TrimSpace(msg.Content[0].Text.Value)
		return text, text != "", nil
	}
	return "", false, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: assistant request failed: %v", sentinel.ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: assistant returned status %d: %s", sentinel.ErrUnavailable, resp.StatusCode, string(payload))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode assistant response: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}
