// Package eval scores pipeline variants against a fixed prompt set and
// ranks them on groundedness, context relevance and answer relevance.
package eval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	domchat "github.com/capstruct/structai/internal/domain/chat"
	"github.com/capstruct/structai/internal/domain/retrieval"
	"github.com/capstruct/structai/internal/usecase/chat"
	"github.com/capstruct/structai/internal/usecase/retrieve"
)

// Turn is one evaluated question with everything the judge needs to
// score it.
type Turn struct {
	Question string
	Answer   string
	Context  []string
}

// Pipeline is a self-contained answering pipeline with its own
// conversation, built once per variant under evaluation. It applies no
// relevance filtering of its own: the generator sees exactly what the
// retriever returns, so the only difference between compared variants
// is the retriever they are built with.
type Pipeline struct {
	retriever retrieve.Retriever
	rewriter  chat.Rewriter
	completer chat.Completer
	model     string

	slideWindow int

	conv   *domchat.Conversation
	logger *zap.Logger
}

// PipelineConfig carries a variant's collaborators and tuning knobs.
type PipelineConfig struct {
	Retriever   retrieve.Retriever
	Rewriter    chat.Rewriter
	Completer   chat.Completer
	Model       string
	SlideWindow int
	Logger      *zap.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	window := cfg.SlideWindow
	if window <= 0 {
		window = domchat.DefaultSlideWindow
	}
	return &Pipeline{
		retriever:   cfg.Retriever,
		rewriter:    cfg.Rewriter,
		completer:   cfg.Completer,
		model:       cfg.Model,
		slideWindow: window,
		conv:        domchat.NewConversation(),
		logger:      cfg.Logger,
	}
}

// Query answers one question, appends the exchange to the pipeline's
// conversation, and returns the turn with the context the answer was
// generated from.
func (p *Pipeline) Query(ctx context.Context, question string) (Turn, error) {
	window := p.conv.Window(p.slideWindow)

	query, err := p.rewriter.Rewrite(ctx, window, question)
	if err != nil {
		return Turn{}, err
	}

	result, err := p.retriever.RetrieveContext(ctx, query)
	if err != nil {
		return Turn{}, fmt.Errorf("retrieve context: %w", err)
	}

	retrieved := retrieval.FilteredContext(result.Chunks())
	reason := chat.ContextPresent
	if result.IsEmpty() {
		reason = chat.NoDocuments
	}

	prompt := chat.BuildPrompt(window, retrieved, query, reason)
	completion, err := p.completer.Complete(ctx, p.model, prompt)
	if err != nil {
		return Turn{}, fmt.Errorf("complete answer: %w: %w", domain.ErrGenerationFailure, err)
	}
	answer := strings.TrimSpace(completion.Text)

	p.conv.Append(domchat.Message{Role: domchat.RoleUser, Content: question})
	p.conv.Append(domchat.Message{Role: domchat.RoleAssistant, Content: answer})

	return Turn{Question: question, Answer: answer, Context: retrieved.Texts()}, nil
}
