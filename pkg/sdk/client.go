package structai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 2 * time.Minute

// Client is the structai SDK entry point.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for a server base URL.
func New(baseURL string, opts ...Option) *Client {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.apiKey,
		httpClient: hc,
	}
}

// CreateConversation starts an empty conversation and returns its ID.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/conversations", nil, &resp); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return resp.ID, nil
}

// Send asks a question inside a conversation and returns the answer with
// its source documents.
func (c *Client) Send(ctx context.Context, conversationID, question string) (Answer, error) {
	req := map[string]string{"question": question}
	var answer Answer
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &answer); err != nil {
		return Answer{}, fmt.Errorf("send message: %w", err)
	}
	return answer, nil
}

// Reset clears a conversation's history.
func (c *Client) Reset(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID) + "/reset"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}
	return nil
}

// History returns the conversation's messages in order.
func (c *Client) History(ctx context.Context, conversationID string) ([]Message, error) {
	var resp struct {
		Messages []Message `json:"messages"`
	}
	path := "/conversations/" + url.PathEscape(conversationID) + "/history"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return resp.Messages, nil
}

// Export returns the conversation as a plain-text transcript.
func (c *Client) Export(ctx context.Context, conversationID string) (string, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/export"
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", fmt.Errorf("export conversation: %w", err)
	}
	return string(body), nil
}

// Health reports the server's component health. A degraded server still
// returns a report, with err wrapping the HTTP failure.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return health, fmt.Errorf("health check: %w", err)
	}
	return health, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	raw, err := c.do(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(raw, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var body io.Reader = http.NoBody
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{StatusCode: status}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Code != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		return apiErr
	}
	apiErr.Code = "http_error"
	apiErr.Message = fmt.Sprintf("status %d: %s", status, strings.TrimSpace(string(raw)))
	return apiErr
}
