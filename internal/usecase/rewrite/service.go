// Package rewrite turns a raw user question into a disambiguated,
// history-aware retrieval query.
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	domchat "github.com/capstruct/structai/internal/domain/chat"
)

// Completer issues completion-model calls for query rewriting.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (domain.CompletionResult, error)
}

// Service rewrites questions via one completion-model call.
type Service struct {
	completer Completer
	model     string
	logger    *zap.Logger
}

// New creates a rewriting service.
func New(completer Completer, model string, logger *zap.Logger) *Service {
	return &Service{completer: completer, model: model, logger: logger}
}

// Rewrite produces a single natural-language query: abbreviations expanded,
// ambiguity narrowed, history folded in only when the question explicitly
// references the prior exchange. Feedback on a prior answer is converted into
// an acknowledge instruction for the generator instead of a retrieval query.
// The model decides; this method only constrains the output shape.
func (s *Service) Rewrite(
	ctx context.Context, history []domchat.Message, question string,
) (string, error) {
	result, err := s.completer.Complete(ctx, s.model, rewritePrompt(history, question))
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	rewritten := strings.TrimSpace(domain.StripQuotes(result.Text))
	if rewritten == "" {
		// Nothing usable came back; retrieval proceeds on the raw question.
		s.logger.Warn("Rewriter returned empty output, using raw question")
		return question, nil
	}

	s.logger.Debug("Query rewritten", zap.Int("history_len", len(history)))
	return rewritten, nil
}

// FormatHistory renders messages as "role: content" lines for prompt embedding.
func FormatHistory(history []domchat.Message) string {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func rewritePrompt(history []domchat.Message, question string) string {
	return fmt.Sprintf(`Based on the QUESTION between the <question> and </question> tags,
generate a query that is easier for you to understand, whether it is by writing out commonly used abbreviations, or narrowing ambiguities.
If the user attempts to rate your response in the QUESTION, generate a prompt commanding you to thank the user for their feedback if it is positive, or
apologize and promise to do better if it is negative.
If the query is explicitly referencing previous information given by either you or the user, extend the QUESTION with the CHAT HISTORY
provided between the <chat_history> and </chat_history> tags.
The query should be in natural language.
Answer with only the query. Do not add any explanation.

<question>
%s
</question>
<chat_history>
%s
</chat_history>
`, question, FormatHistory(history))
}
