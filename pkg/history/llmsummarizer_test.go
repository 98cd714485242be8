package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/latticevoice/agent/pkg/llm"
)

type fakeGenerator struct {
	lastMessages []llm.Message
	text         string
	err          error
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []llm.Message) (llm.Result, error) {
	f.lastMessages = messages
	if f.err != nil {
		return llm.Result{}, f.err
	}
	return llm.Result{Text: f.text}, nil
}
func (f *fakeGenerator) Name() string { return "fake" }

func TestLlmSummarizerBuildsPromptAndTrims(t *testing.T) {
	gen := &fakeGenerator{text: "  the user asked about the weather  "}
	s := NewLlmSummarizer(gen)

	window := []Turn{
		NewTurn(RoleUser, "what's the weather like", 0),
		NewTurn(RoleAssistant, "sunny and warm", 0),
	}
	summary, err := s.Summarize(context.Background(), window, "prior context", 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "the user asked about the weather" {
		t.Errorf("summary = %q", summary)
	}
	if len(gen.lastMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(gen.lastMessages))
	}
	prompt := gen.lastMessages[0].Content
	if !strings.Contains(prompt, "prior context") {
		t.Errorf("prompt missing prior summary: %q", prompt)
	}
	if !strings.Contains(prompt, "User: what's the weather like") {
		t.Errorf("prompt missing user turn: %q", prompt)
	}
}

func TestLlmSummarizerPropagatesError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	s := NewLlmSummarizer(gen)
	if _, err := s.Summarize(context.Background(), nil, "", 100); err == nil {
		t.Fatal("expected error to propagate")
	}
}
