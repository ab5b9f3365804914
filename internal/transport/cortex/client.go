// Package cortex is the HTTP client for the external semantic-search service.
// The service owns the document index; this client only issues similarity
// searches and resolves time-limited document links.
package cortex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	"github.com/capstruct/structai/internal/domain/retrieval"
	"github.com/capstruct/structai/internal/metrics"
)

// searchColumns are the fields requested from the search service.
var searchColumns = []string{"chunk", "relative_path", "category"}

// Client talks to the semantic search service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds the search service connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a search service client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}
}

// searchRequest is the wire form of one similarity search.
type searchRequest struct {
	Query   string         `json:"query"`
	Columns []string       `json:"columns"`
	Filter  map[string]any `json:"filter,omitempty"`
	Limit   int            `json:"limit"`
}

// Search issues a similarity search, requesting exactly limit results. When
// category is not the wildcard, an equality filter on the category field is
// passed through to the service. Rank order of the response is preserved.
func (c *Client) Search(
	ctx context.Context, query string, category retrieval.Category, limit int,
) (retrieval.Result, error) {
	reqBody := searchRequest{
		Query:   query,
		Columns: searchColumns,
		Limit:   limit,
	}
	if !category.IsAll() {
		reqBody.Filter = map[string]any{"@eq": map[string]string{"category": string(category)}}
	}

	raw, err := c.post(ctx, "/search", reqBody)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(string(category), "error").Inc()
		return retrieval.Result{}, fmt.Errorf("search call: %w: %w", domain.ErrRetrievalUnavailable, err)
	}

	payload := retrieval.ParsePayload(string(raw))
	if payload.Status() == retrieval.PayloadMalformed {
		metrics.RetrievalRequestsTotal.WithLabelValues(string(category), "error").Inc()
		return retrieval.Result{}, fmt.Errorf("malformed search response: %w", domain.ErrRetrievalUnavailable)
	}

	chunks := payload.Chunks()
	metrics.RetrievalRequestsTotal.WithLabelValues(string(category), "success").Inc()
	metrics.RetrievalChunksReturned.WithLabelValues(string(category)).Observe(float64(len(chunks)))

	c.logger.Debug("Search completed",
		zap.String("category", string(category)),
		zap.Int("limit", limit),
		zap.Int("chunks", len(chunks)),
	)

	return retrieval.NewResult(chunks, string(raw)), nil
}

// ResolveDocumentLink returns a time-limited access URL for a source path.
// Consumed only by the attribution display path.
func (c *Client) ResolveDocumentLink(
	ctx context.Context, relativePath string, ttl time.Duration,
) (string, error) {
	q := url.Values{}
	q.Set("path", relativePath)
	q.Set("ttl_sec", strconv.Itoa(int(ttl.Seconds())))

	body, err := c.get(ctx, "/documents/link?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("resolve document link: %w", err)
	}

	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse link response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("link response carried no url for %q", relativePath)
	}
	return parsed.URL, nil
}

// Ping checks service availability.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.get(ctx, "/health"); err != nil {
		return fmt.Errorf("search service ping: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	return c.do(req)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
