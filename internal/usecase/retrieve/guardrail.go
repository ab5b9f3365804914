package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain/retrieval"
	"github.com/capstruct/structai/internal/metrics"
)

// guardedRetriever filters low-relevance chunks inside the retrieval call,
// so callers only ever see the post-filter candidate set.
type guardedRetriever struct {
	inner    Retriever
	scorer   Scorer
	minScore float64
	logger   *zap.Logger
}

// WithGuardrail wraps a Retriever so that every chunk is scored against the
// query and dropped when its score falls below minScore, before the result is
// returned. The wrapped operation keeps the Retriever signature; compose via
// explicit construction.
func WithGuardrail(inner Retriever, scorer Scorer, minScore float64, logger *zap.Logger) Retriever {
	return &guardedRetriever{inner: inner, scorer: scorer, minScore: minScore, logger: logger}
}

// RetrieveContext delegates to the inner retriever and filters its output.
// A scorer failure keeps the chunk: the guardrail degrades to a pass-through
// rather than silently discarding context.
func (g *guardedRetriever) RetrieveContext(ctx context.Context, query string) (retrieval.Result, error) {
	result, err := g.inner.RetrieveContext(ctx, query)
	if err != nil {
		return retrieval.Result{}, fmt.Errorf("guarded retrieve: %w", err)
	}

	var kept []retrieval.Chunk
	for _, chunk := range result.Chunks() {
		score, err := g.scorer.Score(ctx, query, chunk.Text())
		if err != nil {
			g.logger.Warn("Chunk scoring failed, keeping chunk", zap.Error(err))
			kept = append(kept, chunk)
			continue
		}
		if score >= g.minScore {
			kept = append(kept, chunk)
			continue
		}
		g.logger.Debug("Guardrail dropped chunk",
			zap.Float64("score", score),
			zap.String("source", chunk.SourcePath()),
		)
	}

	if dropped := len(result.Chunks()) - len(kept); dropped > 0 {
		metrics.GuardrailChunksDropped.Add(float64(dropped))
	}
	return retrieval.NewResult(kept, result.Raw()), nil
}
