package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/usecase/chat"
)

// Judgment is one scored dimension with the judge's short rationale.
type Judgment struct {
	Score  float64
	Reason string
}

// JudgeScorer scores pipeline output with a second, smaller model. All
// scores are normalized to [0, 1].
type JudgeScorer struct {
	completer chat.Completer
	model     string
	logger    *zap.Logger
}

func NewJudgeScorer(completer chat.Completer, model string, logger *zap.Logger) *JudgeScorer {
	return &JudgeScorer{completer: completer, model: model, logger: logger}
}

const judgeInstructions = "You are an impartial evaluation judge. " +
	"Respond with a single JSON object of the form " +
	`{"score": <integer 0 to 10>, "reason": "<one sentence>"}` +
	" and nothing else.\n"

// ContextRelevance scores how relevant one retrieved chunk is to the
// question that retrieved it.
func (j *JudgeScorer) ContextRelevance(ctx context.Context, question, chunk string) (Judgment, error) {
	prompt := judgeInstructions +
		"Score how relevant the document excerpt is to the question. " +
		"0 means unrelated, 10 means it directly addresses the question.\n" +
		"Question:\n" + question + "\n" +
		"Excerpt:\n" + chunk + "\n"
	return j.judge(ctx, "context_relevance", prompt)
}

// Groundedness scores how well the answer is supported by the context
// the generator was shown.
func (j *JudgeScorer) Groundedness(ctx context.Context, contextText, answer string) (Judgment, error) {
	prompt := judgeInstructions +
		"Score how well every claim in the answer is supported by the source material. " +
		"0 means fabricated, 10 means fully supported.\n" +
		"Source material:\n" + contextText + "\n" +
		"Answer:\n" + answer + "\n"
	return j.judge(ctx, "groundedness", prompt)
}

// AnswerRelevance scores how well the answer addresses the question.
func (j *JudgeScorer) AnswerRelevance(ctx context.Context, question, answer string) (Judgment, error) {
	prompt := judgeInstructions +
		"Score how well the answer addresses the question. " +
		"0 means off-topic, 10 means a complete and direct answer.\n" +
		"Question:\n" + question + "\n" +
		"Answer:\n" + answer + "\n"
	return j.judge(ctx, "answer_relevance", prompt)
}

func (j *JudgeScorer) judge(ctx context.Context, dimension, prompt string) (Judgment, error) {
	completion, err := j.completer.Complete(ctx, j.model, prompt)
	if err != nil {
		return Judgment{}, fmt.Errorf("judge %s: %w", dimension, err)
	}
	judgment, err := parseJudgment(completion.Text)
	if err != nil {
		j.logger.Warn("unparsable judge output",
			zap.String("dimension", dimension),
			zap.String("output", completion.Text))
		return Judgment{}, fmt.Errorf("judge %s: %w", dimension, err)
	}
	return judgment, nil
}

// parseJudgment extracts the first JSON object from the judge's output
// and normalizes its 0-10 score to [0, 1]. Models wrap JSON in prose
// often enough that a plain Unmarshal is not enough.
func parseJudgment(output string) (Judgment, error) {
	start := strings.IndexByte(output, '{')
	end := strings.LastIndexByte(output, '}')
	if start < 0 || end <= start {
		return Judgment{}, fmt.Errorf("no JSON object in judge output")
	}

	var parsed struct {
		Score  float64 `json:"score"`
		Reason string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(output[start:end+1]), &parsed); err != nil {
		return Judgment{}, fmt.Errorf("decode judge output: %w", err)
	}

	score := parsed.Score / 10
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return Judgment{Score: score, Reason: parsed.Reason}, nil
}
