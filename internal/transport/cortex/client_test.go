package cortex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	"github.com/capstruct/structai/internal/domain/retrieval"
	"github.com/capstruct/structai/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

const sustainabilityPayload = `{"results":[
	{"chunk":"R-22 insulation","relative_path":"sus/insulation.pdf","category":"Sustainability","relevance_score":0.91},
	{"chunk":"thermal envelope","relative_path":"sus/envelope.pdf","category":"Sustainability","relevance_score":0.77}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Logger:  zap.NewNop(),
	})
}

func TestSearch_CategoryFilterAndLimit(t *testing.T) {
	var captured searchRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sustainabilityPayload))
	})

	result, err := c.Search(context.Background(), "insulation requirements", retrieval.CategorySustainability, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if captured.Limit != 5 {
		t.Errorf("limit = %d, want 5", captured.Limit)
	}
	eq, ok := captured.Filter["@eq"].(map[string]any)
	if !ok {
		t.Fatalf("expected @eq filter, got %v", captured.Filter)
	}
	if eq["category"] != "Sustainability" {
		t.Errorf("filter category = %v, want Sustainability", eq["category"])
	}

	chunks := result.Chunks()
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	// Rank order preserved
	if chunks[0].SourcePath() != "sus/insulation.pdf" || chunks[1].SourcePath() != "sus/envelope.pdf" {
		t.Errorf("rank order not preserved: %v, %v", chunks[0].SourcePath(), chunks[1].SourcePath())
	}
	if result.Raw() != sustainabilityPayload {
		t.Errorf("raw payload not preserved")
	}
}

func TestSearch_WildcardOmitsFilter(t *testing.T) {
	var captured searchRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	result, err := c.Search(context.Background(), "anything", retrieval.CategoryAll, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if captured.Filter != nil {
		t.Errorf("wildcard search must not carry a filter, got %v", captured.Filter)
	}
	if !result.IsEmpty() {
		t.Errorf("expected empty result")
	}
}

func TestSearch_UnreachableService(t *testing.T) {
	c := NewClient(&Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
		Logger:  zap.NewNop(),
	})

	_, err := c.Search(context.Background(), "q", retrieval.CategoryAll, 5)
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestSearch_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), "q", retrieval.CategoryAll, 5)
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestSearch_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	})

	_, err := c.Search(context.Background(), "q", retrieval.CategoryAll, 5)
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestResolveDocumentLink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/link" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("path"); got != "codes/beams.pdf" {
			t.Errorf("path param = %q", got)
		}
		if got := r.URL.Query().Get("ttl_sec"); got != "360" {
			t.Errorf("ttl_sec param = %q", got)
		}
		_, _ = w.Write([]byte(`{"url":"https://signed.example.com/beams"}`))
	})

	link, err := c.ResolveDocumentLink(context.Background(), "codes/beams.pdf", 360*time.Second)
	if err != nil {
		t.Fatalf("ResolveDocumentLink failed: %v", err)
	}
	if link != "https://signed.example.com/beams" {
		t.Errorf("link = %q", link)
	}
}

func TestResolveDocumentLink_EmptyURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := c.ResolveDocumentLink(context.Background(), "x.pdf", time.Minute); err == nil {
		t.Fatal("expected error for empty url")
	}
}
