package retrieve

import (
	"context"

	"github.com/capstruct/structai/internal/domain/retrieval"
)

// Searcher is the backing search-service contract.
type Searcher interface {
	Search(ctx context.Context, query string, category retrieval.Category, limit int) (retrieval.Result, error)
}

// Classifier resolves a query to a category filter.
type Classifier interface {
	Classify(ctx context.Context, question string) retrieval.Category
}

// Retriever is the instrumentable retrieval operation: classification plus
// filtered search behind one call. The guardrail decorator and the evaluation
// harness both wrap this signature.
type Retriever interface {
	RetrieveContext(ctx context.Context, query string) (retrieval.Result, error)
}

// Scorer rates one chunk's relevance to a query in [0, 1].
type Scorer interface {
	Score(ctx context.Context, query, chunk string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, query, chunk string) (float64, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, query, chunk string) (float64, error) {
	return f(ctx, query, chunk)
}
