package chat

import (
	"context"

	"github.com/capstruct/structai/internal/domain"
	domchat "github.com/capstruct/structai/internal/domain/chat"
	"github.com/capstruct/structai/internal/domain/retrieval"
)

// Retriever fetches document chunks relevant to a query.
type Retriever interface {
	RetrieveContext(ctx context.Context, query string) (retrieval.Result, error)
}

// Rewriter condenses a conversation and a follow-up question into a
// standalone search query.
type Rewriter interface {
	Rewrite(ctx context.Context, history []domchat.Message, question string) (string, error)
}

// Completer produces a model completion for a fully assembled prompt.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (domain.CompletionResult, error)
}

// LinkResolver turns a stored document path into a short-lived URL.
type LinkResolver interface {
	ResolveDocumentLink(ctx context.Context, path string) (string, error)
}
