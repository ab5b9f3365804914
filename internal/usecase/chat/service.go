package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	domchat "github.com/capstruct/structai/internal/domain/chat"
	"github.com/capstruct/structai/internal/domain/retrieval"
	"github.com/capstruct/structai/internal/usecase/retrieve"
)

// Document is a reference the answer was grounded on.
type Document struct {
	Path string
	URL  string
}

// Answer is the outcome of a single conversational turn.
type Answer struct {
	Text      string
	Documents []Document
}

// Service runs the conversational answering pipeline and owns the
// in-memory conversation store.
type Service struct {
	retriever Retriever
	rewriter  Rewriter
	completer Completer
	links     LinkResolver
	model     string

	slideWindow int
	minScore    float64

	mu            sync.RWMutex
	conversations map[string]*domchat.Conversation

	logger *zap.Logger
}

// Config carries the collaborators and tuning knobs for the chat service.
type Config struct {
	Retriever   Retriever
	Rewriter    Rewriter
	Completer   Completer
	Links       LinkResolver
	Model       string
	SlideWindow int
	MinScore    float64
	Logger      *zap.Logger
}

func New(cfg Config) *Service {
	window := cfg.SlideWindow
	if window <= 0 {
		window = domchat.DefaultSlideWindow
	}
	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = retrieval.DefaultMinScore
	}
	return &Service{
		retriever:     cfg.Retriever,
		rewriter:      cfg.Rewriter,
		completer:     cfg.Completer,
		links:         cfg.Links,
		model:         cfg.Model,
		slideWindow:   window,
		minScore:      minScore,
		conversations: make(map[string]*domchat.Conversation),
		logger:        cfg.Logger,
	}
}

// NewConversation registers an empty conversation and returns its ID.
func (s *Service) NewConversation() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.conversations[id] = domchat.NewConversation()
	s.mu.Unlock()
	return id
}

func (s *Service) conversation(id string) (*domchat.Conversation, error) {
	s.mu.RLock()
	conv, ok := s.conversations[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("conversation %q: %w", id, domain.ErrConversationNotFound)
	}
	return conv, nil
}

// History returns a snapshot of the conversation's messages.
func (s *Service) History(id string) ([]domchat.Message, error) {
	conv, err := s.conversation(id)
	if err != nil {
		return nil, err
	}
	return conv.Messages(), nil
}

// Reset clears the conversation's messages but keeps its ID valid.
func (s *Service) Reset(id string) error {
	conv, err := s.conversation(id)
	if err != nil {
		return err
	}
	conv.Reset()
	return nil
}

// Export renders the conversation as a plain-text transcript.
func (s *Service) Export(id string) (string, error) {
	conv, err := s.conversation(id)
	if err != nil {
		return "", err
	}
	return conv.Export(), nil
}

// Ask answers a question inside an existing conversation. The question
// and the answer are appended to the history only when the whole
// pipeline succeeds.
func (s *Service) Ask(ctx context.Context, id, question string) (Answer, error) {
	conv, err := s.conversation(id)
	if err != nil {
		return Answer{}, err
	}

	window := conv.Window(s.slideWindow)

	// Every turn goes through the rewriter, even the first: it expands
	// abbreviations and narrows ambiguity regardless of history.
	query, err := s.rewriter.Rewrite(ctx, window, question)
	if err != nil {
		return Answer{}, err
	}

	result, err := s.retriever.RetrieveContext(ctx, query)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	filtered := retrieve.Filter(result, s.minScore)
	reason := ContextPresent
	switch {
	case result.IsEmpty():
		reason = NoDocuments
	case len(filtered) == 0:
		reason = BelowThreshold
	}

	prompt := BuildPrompt(window, filtered, query, reason)

	completion, err := s.completer.Complete(ctx, s.model, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("complete answer: %w: %w", domain.ErrGenerationFailure, err)
	}
	text := strings.TrimSpace(domain.StripQuotes(completion.Text))
	if text == "" {
		return Answer{}, fmt.Errorf("complete answer: empty response: %w", domain.ErrGenerationFailure)
	}

	docs := s.resolveDocuments(ctx, s.attribute(ctx, result, text))

	conv.Append(domchat.Message{Role: domchat.RoleUser, Content: question})
	conv.Append(domchat.Message{Role: domchat.RoleAssistant, Content: text})

	return Answer{Text: text, Documents: docs}, nil
}

// attribute extracts the source paths behind an answer. The search
// payload is authoritative when it parses cleanly; otherwise the
// generated answer itself is used as a recovery query. An empty set is
// an acceptable final outcome.
func (s *Service) attribute(ctx context.Context, result retrieval.Result, answer string) []string {
	payload := retrieval.ParsePayload(result.Raw())
	if payload.Status() == retrieval.PayloadOK {
		return payload.SourcePaths()
	}
	s.logger.Warn("attribution payload unusable, re-querying with answer",
		zap.Int("status", int(payload.Status())))

	recovered, err := s.retriever.RetrieveContext(ctx, answer)
	if err != nil {
		s.logger.Warn("attribution recovery query failed", zap.Error(err))
		return nil
	}
	return retrieval.FilteredContext(recovered.Chunks()).SourcePaths()
}

func (s *Service) resolveDocuments(ctx context.Context, paths []string) []Document {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc := Document{Path: path}
		if s.links != nil {
			url, err := s.links.ResolveDocumentLink(ctx, path)
			if err != nil {
				s.logger.Warn("resolve document link",
					zap.String("path", path), zap.Error(err))
			} else {
				doc.URL = url
			}
		}
		docs = append(docs, doc)
	}
	return docs
}
