// Package classify maps a free-text question to a document category.
package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain/retrieval"
)

// Service classifies questions into the fixed category set via one
// completion-model call.
type Service struct {
	completer Completer
	model     string
	logger    *zap.Logger
}

// New creates a classification service.
func New(completer Completer, model string, logger *zap.Logger) *Service {
	return &Service{completer: completer, model: model, logger: logger}
}

// Classify resolves a question to a category, or the wildcard when no
// category is explicitly requested. Classification never fails the turn:
// a provider error or unexpected output fails open to unfiltered search.
func (s *Service) Classify(ctx context.Context, question string) retrieval.Category {
	result, err := s.completer.Complete(ctx, s.model, classifierPrompt(question))
	if err != nil {
		s.logger.Warn("Classification failed, searching unfiltered", zap.Error(err))
		return retrieval.CategoryAll
	}

	category := retrieval.ParseCategory(result.Text)
	s.logger.Debug("Question classified",
		zap.String("category", string(category)),
	)
	return category
}

// classifierPrompt instructs the model to pick a category only when the user
// explicitly asks for documents of that category, not merely mentions the word.
func classifierPrompt(question string) string {
	var list strings.Builder
	for i, c := range retrieval.Categories() {
		fmt.Fprintf(&list, "        %d. %s\n", i+1, c)
	}

	return fmt.Sprintf(`Based on the QUESTION in between the <question> and </question> tags, if the user explicitly asks to search for a specific
category of documents that matches one of the categories below, then answer in one word from the options below. Simply having the
word in the question is not sufficient, the user must ask for an answer using the category of documents:
%s
In all other cases, answer "ALL"

<question>
%s
</question>
`, list.String(), question)
}
