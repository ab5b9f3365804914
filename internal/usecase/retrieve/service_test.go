package retrieve

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	"github.com/capstruct/structai/internal/domain/retrieval"
	"github.com/capstruct/structai/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockClassifier struct {
	category retrieval.Category
}

func (m *mockClassifier) Classify(_ context.Context, _ string) retrieval.Category {
	return m.category
}

type mockSearcher struct {
	result       retrieval.Result
	err          error
	lastQuery    string
	lastCategory retrieval.Category
	lastLimit    int
}

func (m *mockSearcher) Search(
	_ context.Context, query string, category retrieval.Category, limit int,
) (retrieval.Result, error) {
	m.lastQuery = query
	m.lastCategory = category
	m.lastLimit = limit
	return m.result, m.err
}

func chunksResult(scores ...float64) retrieval.Result {
	chunks := make([]retrieval.Chunk, len(scores))
	for i, s := range scores {
		chunks[i] = retrieval.NewChunk("chunk", "doc.pdf", retrieval.CategoryAll, s)
	}
	return retrieval.NewResult(chunks, `{"results":[]}`)
}

// --- Tests ---

func TestRetrieveContext_PassesCategoryAndLimit(t *testing.T) {
	searcher := &mockSearcher{result: chunksResult(0.9)}
	svc := New(&mockClassifier{category: retrieval.CategorySustainability}, searcher, 5, zap.NewNop())

	result, err := svc.RetrieveContext(context.Background(), "insulation requirements")
	if err != nil {
		t.Fatalf("RetrieveContext failed: %v", err)
	}
	if searcher.lastCategory != retrieval.CategorySustainability {
		t.Errorf("category = %q, want Sustainability", searcher.lastCategory)
	}
	if searcher.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", searcher.lastLimit)
	}
	if searcher.lastQuery != "insulation requirements" {
		t.Errorf("query = %q", searcher.lastQuery)
	}
	if len(result.Chunks()) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(result.Chunks()))
	}
}

func TestRetrieveContext_SearchErrorPropagates(t *testing.T) {
	searcher := &mockSearcher{err: domain.ErrRetrievalUnavailable}
	svc := New(&mockClassifier{category: retrieval.CategoryAll}, searcher, 5, zap.NewNop())

	_, err := svc.RetrieveContext(context.Background(), "q")
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestFilter_DelegatesToScoreThreshold(t *testing.T) {
	got := Filter(chunksResult(0.9, 0.3, 0.7), 0.6)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
}

func TestWithGuardrail_DropsLowScoringChunks(t *testing.T) {
	searcher := &mockSearcher{result: chunksResult(0.9, 0.9, 0.9)}
	inner := New(&mockClassifier{category: retrieval.CategoryAll}, searcher, 5, zap.NewNop())

	scores := []float64{0.8, 0.2, 0.7}
	var call int
	guarded := WithGuardrail(inner, ScorerFunc(func(_ context.Context, _, _ string) (float64, error) {
		s := scores[call]
		call++
		return s, nil
	}), 0.6, zap.NewNop())

	result, err := guarded.RetrieveContext(context.Background(), "q")
	if err != nil {
		t.Fatalf("RetrieveContext failed: %v", err)
	}
	if len(result.Chunks()) != 2 {
		t.Errorf("expected 2 surviving chunks, got %d", len(result.Chunks()))
	}
}

func TestWithGuardrail_ScorerFailureKeepsChunk(t *testing.T) {
	searcher := &mockSearcher{result: chunksResult(0.9)}
	inner := New(&mockClassifier{category: retrieval.CategoryAll}, searcher, 5, zap.NewNop())

	guarded := WithGuardrail(inner, ScorerFunc(func(_ context.Context, _, _ string) (float64, error) {
		return 0, errors.New("judge down")
	}), 0.6, zap.NewNop())

	result, err := guarded.RetrieveContext(context.Background(), "q")
	if err != nil {
		t.Fatalf("RetrieveContext failed: %v", err)
	}
	if len(result.Chunks()) != 1 {
		t.Errorf("scorer failure must keep the chunk, got %d chunks", len(result.Chunks()))
	}
}

func TestWithGuardrail_InnerErrorPropagates(t *testing.T) {
	searcher := &mockSearcher{err: domain.ErrRetrievalUnavailable}
	inner := New(&mockClassifier{category: retrieval.CategoryAll}, searcher, 5, zap.NewNop())

	guarded := WithGuardrail(inner, ScorerFunc(func(_ context.Context, _, _ string) (float64, error) {
		return 1, nil
	}), 0.6, zap.NewNop())

	if _, err := guarded.RetrieveContext(context.Background(), "q"); !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
}
