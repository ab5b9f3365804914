package classify

import (
	"context"

	"github.com/capstruct/structai/internal/domain"
)

// Completer issues completion-model calls for classification.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (domain.CompletionResult, error)
}
