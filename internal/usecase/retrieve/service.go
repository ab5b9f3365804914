// Package retrieve composes classification and category-filtered search into
// one retrieval operation, with an optional relevance guardrail around it.
package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain/retrieval"
	"github.com/capstruct/structai/internal/metrics"
)

// Service is the plain retrieval pipeline: classify, then search.
type Service struct {
	classifier Classifier
	searcher   Searcher
	limit      int
	logger     *zap.Logger
}

// New creates a retrieval service requesting limit chunks per search.
func New(classifier Classifier, searcher Searcher, limit int, logger *zap.Logger) *Service {
	return &Service{classifier: classifier, searcher: searcher, limit: limit, logger: logger}
}

// RetrieveContext classifies the query and runs a category-filtered search.
// A search failure propagates; classification cannot fail (it falls open to
// the unfiltered wildcard).
func (s *Service) RetrieveContext(ctx context.Context, query string) (retrieval.Result, error) {
	category := s.classifier.Classify(ctx, query)

	result, err := s.searcher.Search(ctx, query, category, s.limit)
	if err != nil {
		return retrieval.Result{}, fmt.Errorf("search %q: %w", category, err)
	}

	s.logger.Debug("Context retrieved",
		zap.String("category", string(category)),
		zap.Int("chunks", len(result.Chunks())),
	)
	return result, nil
}

// Filter applies the relevance guardrail to a retrieval result, dropping
// chunks below minScore while preserving rank order.
func Filter(result retrieval.Result, minScore float64) retrieval.FilteredContext {
	kept := retrieval.Filter(result, minScore)
	if dropped := len(result.Chunks()) - len(kept); dropped > 0 {
		metrics.GuardrailChunksDropped.Add(float64(dropped))
	}
	return kept
}
