// Package assistant implements the run.Service contract against the hosted
// assistant HTTP API.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"docbot/internal/domain/run"
	"docbot/internal/domain/tool"
)

// TokenSource supplies a bearer token for managed-identity deployments.
type TokenSource func(ctx context.Context) (string, error)

// Config selects the authentication strategy and API surface. One client
// type covers both key-based and managed-identity access.
type Config struct {
	BaseURL            string
	APIKey             string
	APIVersion         string
	UseManagedIdentity bool
	TokenSource        TokenSource
	VectorStoreID      string
}

// Client is a Resty-backed client for the assistant threads/runs API.
type Client struct {
	httpClient *resty.Client
	cfg        Config
}

// NewClient creates the assistant API client.
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)
	if cfg.APIVersion != "" {
		httpClient.SetQueryParam("api-version", cfg.APIVersion)
	}
	return &Client{httpClient: httpClient, cfg: cfg}
}

var _ run.Service = (*Client)(nil)

// CreateThread creates a fresh remote conversation thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread struct {
		ID string `json:"id"`
	}
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.
		SetBody(map[string]any{}).
		SetResult(&thread).
		Post("/threads")
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	if resp.IsError() {
		return "", apiError("create thread", resp)
	}
	return thread.ID, nil
}

// CreateMessage appends a message to the thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, text string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetBody(map[string]any{"role": role, "content": text}).
		Post(fmt.Sprintf("/threads/%s/messages", threadID))
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	if resp.IsError() {
		return apiError("create message", resp)
	}
	return nil
}

// CreateRun starts a new run on the thread, advertising the given tools.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string, tools []tool.Spec) (*run.Run, error) {
	body := map[string]any{
		"assistant_id": assistantID,
		"tools":        tools,
	}
	if c.cfg.VectorStoreID != "" {
		body["tool_resources"] = map[string]any{
			"file_search": map[string]any{
				"vector_store_ids": []string{c.cfg.VectorStoreID},
			},
		}
	}

	var r run.Run
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.
		SetBody(body).
		SetResult(&r).
		Post(fmt.Sprintf("/threads/%s/runs", threadID))
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("create run", resp)
	}
	return &r, nil
}

// GetRun fetches the current run state.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*run.Run, error) {
	var r run.Run
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.
		SetResult(&r).
		Get(fmt.Sprintf("/threads/%s/runs/%s", threadID, runID))
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("get run", resp)
	}
	return &r, nil
}

// SubmitToolOutputs posts the complete output batch for a requires_action
// run.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []run.ToolOutput) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetBody(map[string]any{"tool_outputs": outputs}).
		Post(fmt.Sprintf("/threads/%s/runs/%s/submit_tool_outputs", threadID, runID))
	if err != nil {
		return fmt.Errorf("submit tool outputs: %w", err)
	}
	if resp.IsError() {
		return apiError("submit tool outputs", resp)
	}
	return nil
}

// LatestAssistantMessage returns the text of the most recent assistant
// message on the thread.
func (c *Client) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var list messageList
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.
		SetQueryParams(map[string]string{"order": "desc", "limit": "1", "role": "assistant"}).
		SetResult(&list).
		Get(fmt.Sprintf("/threads/%s/messages", threadID))
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	if resp.IsError() {
		return "", apiError("list messages", resp)
	}

	text := list.firstText()
	if text == "" {
		return "", fmt.Errorf("thread %s has no assistant message text", threadID)
	}
	return text, nil
}

// request builds a request carrying the configured authentication.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	req := c.httpClient.R().SetContext(ctx)
	if c.cfg.UseManagedIdentity {
		if c.cfg.TokenSource == nil {
			return nil, fmt.Errorf("managed identity enabled but no token source configured")
		}
		token, err := c.cfg.TokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire token: %w", err)
		}
		req.SetHeader("Authorization", "Bearer "+token)
		return req, nil
	}
	req.SetHeader("api-key", c.cfg.APIKey)
	return req, nil
}

func apiError(op string, resp *resty.Response) error {
	return fmt.Errorf("%s: assistant api error (status %d): %s", op, resp.StatusCode(), resp.String())
}

// messageList mirrors the wire shape of the thread message listing.
type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text *struct {
				Value string `json:"value"`
			} `json:"text,omitempty"`
		} `json:"content"`
	} `json:"data"`
}

// firstText extracts the first text block of the first message.
func (l messageList) firstText() string {
	for _, msg := range l.Data {
		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" && block.Text != nil && block.Text.Value != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(block.Text.Value)
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
