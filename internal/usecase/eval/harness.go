package eval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain/feedback"
)

// Scorer is what the harness needs from a judge.
type Scorer interface {
	ContextRelevance(ctx context.Context, question, chunk string) (Judgment, error)
	Groundedness(ctx context.Context, contextText, answer string) (Judgment, error)
	AnswerRelevance(ctx context.Context, question, answer string) (Judgment, error)
}

// Harness runs a variant through a fixed prompt set and records one
// measurement per dimension per prompt on a shared board.
type Harness struct {
	scorer Scorer
	board  *feedback.Board
	logger *zap.Logger
}

func NewHarness(scorer Scorer, board *feedback.Board, logger *zap.Logger) *Harness {
	return &Harness{scorer: scorer, board: board, logger: logger}
}

// Run evaluates the pipeline on every prompt, in order. Judge failures
// on a single dimension are logged and skipped; a pipeline failure
// aborts the run.
func (h *Harness) Run(
	ctx context.Context,
	variant feedback.Variant,
	pipeline *Pipeline,
	prompts []string,
) error {
	for i, prompt := range prompts {
		turn, err := pipeline.Query(ctx, prompt)
		if err != nil {
			return fmt.Errorf("prompt %d: %w", i+1, err)
		}
		h.score(ctx, variant, turn)
		h.logger.Info("evaluated prompt",
			zap.String("variant", variant.String()),
			zap.Int("prompt", i+1),
			zap.Int("context_chunks", len(turn.Context)))
	}
	return nil
}

func (h *Harness) score(ctx context.Context, variant feedback.Variant, turn Turn) {
	// Context relevance is the mean over the chunks the generator saw.
	if len(turn.Context) > 0 {
		var sum float64
		var n int
		for _, chunk := range turn.Context {
			judgment, err := h.scorer.ContextRelevance(ctx, turn.Question, chunk)
			if err != nil {
				h.logger.Warn("context relevance judgment failed", zap.Error(err))
				continue
			}
			sum += judgment.Score
			n++
		}
		if n > 0 {
			h.add(variant, feedback.ContextRelevance, sum/float64(n))
		}
	}

	contextText := strings.Join(turn.Context, "\n\n")
	if judgment, err := h.scorer.Groundedness(ctx, contextText, turn.Answer); err != nil {
		h.logger.Warn("groundedness judgment failed", zap.Error(err))
	} else {
		h.add(variant, feedback.Groundedness, judgment.Score)
	}

	if judgment, err := h.scorer.AnswerRelevance(ctx, turn.Question, turn.Answer); err != nil {
		h.logger.Warn("answer relevance judgment failed", zap.Error(err))
	} else {
		h.add(variant, feedback.AnswerRelevance, judgment.Score)
	}
}

func (h *Harness) add(variant feedback.Variant, dim feedback.Dimension, score float64) {
	record, err := feedback.NewRecord(dim, score, variant)
	if err != nil {
		h.logger.Warn("dropping out-of-range score",
			zap.String("dimension", string(dim)), zap.Float64("score", score))
		return
	}
	h.board.Add(record)
}
