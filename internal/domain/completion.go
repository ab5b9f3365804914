package domain

import "context"

// Completer is the contract for text-completion providers. The same prompt may
// yield different text across calls; callers must not rely on exact output.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (CompletionResult, error)
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
