package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	domchat "github.com/capstruct/structai/internal/domain/chat"
)

type mockCompleter struct {
	text       string
	err        error
	lastPrompt string
}

func (m *mockCompleter) Complete(_ context.Context, _, prompt string) (domain.CompletionResult, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Text: m.text}, nil
}

func history() []domchat.Message {
	return []domchat.Message{
		{Role: domchat.RoleUser, Content: "What is the BCBC?"},
		{Role: domchat.RoleAssistant, Content: "The British Columbia Building Code."},
	}
}

func TestRewrite_EmbedsQuestionAndHistory(t *testing.T) {
	completer := &mockCompleter{text: "What does the British Columbia Building Code say about insulation?"}
	svc := New(completer, "test-model", zap.NewNop())

	got, err := svc.Rewrite(context.Background(), history(), "What does it say about insulation?")
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	if got != "What does the British Columbia Building Code say about insulation?" {
		t.Errorf("unexpected rewritten query: %q", got)
	}
	if !strings.Contains(completer.lastPrompt, "What does it say about insulation?") {
		t.Error("prompt must embed the raw question")
	}
	if !strings.Contains(completer.lastPrompt, "assistant: The British Columbia Building Code.") {
		t.Error("prompt must embed the formatted history")
	}
}

func TestRewrite_StripsQuotes(t *testing.T) {
	completer := &mockCompleter{text: `"What are the seismic requirements?"`}
	svc := New(completer, "test-model", zap.NewNop())

	got, err := svc.Rewrite(context.Background(), nil, "seismic?")
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	if strings.ContainsAny(got, `"'`) {
		t.Errorf("quotes not stripped: %q", got)
	}
}

func TestRewrite_EmptyOutputFallsBackToRawQuestion(t *testing.T) {
	completer := &mockCompleter{text: "  \n"}
	svc := New(completer, "test-model", zap.NewNop())

	got, err := svc.Rewrite(context.Background(), nil, "original question")
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	if got != "original question" {
		t.Errorf("expected raw question fallback, got %q", got)
	}
}

func TestRewrite_ProviderErrorPropagates(t *testing.T) {
	completer := &mockCompleter{err: errors.New("provider down")}
	svc := New(completer, "test-model", zap.NewNop())

	if _, err := svc.Rewrite(context.Background(), nil, "q"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFormatHistory(t *testing.T) {
	got := FormatHistory(history())
	want := "user: What is the BCBC?\nassistant: The British Columbia Building Code.\n"
	if got != want {
		t.Errorf("FormatHistory:\ngot  %q\nwant %q", got, want)
	}
	if FormatHistory(nil) != "" {
		t.Error("empty history must format to empty string")
	}
}
