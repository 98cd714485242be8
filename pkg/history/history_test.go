package history

import (
	"context"
	"errors"
	"strings"
	"testing"
)

var errFake = errors.New("fake summarizer error")

type stubSummarizer struct {
	calls int
	fn    func(window []Turn, prior string) (string, error)
}

func (s *stubSummarizer) Summarize(ctx context.Context, window []Turn, prior string, target int) (string, error) {
	s.calls++
	return s.fn(window, prior)
}

func TestAppendRejectsBlankText(t *testing.T) {
	store := NewMemoryStore(10)
	h := New(store, "c1")
	h.Append(context.Background(), NewTurn(RoleUser, "   ", 0))
	if store.Count("c1") != 0 {
		t.Errorf("blank turn should not be appended, count=%d", store.Count("c1"))
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	store := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		store.Append("c1", NewTurn(RoleUser, "x", 0))
	}
	if store.Count("c1") != 3 {
		t.Fatalf("count = %d, want 3", store.Count("c1"))
	}
}

func TestBuildContextTrimsToTokenBudget(t *testing.T) {
	store := NewMemoryStore(50)
	h := New(store, "c1")
	text := strings.Repeat("a", 40) // cost = 40/4 = 10
	for i := 0; i < 20; i++ {
		h.Append(context.Background(), NewTurn(RoleUser, text, 0))
	}

	ctx := h.BuildContext(50)
	if len(ctx.Window) != 5 {
		t.Errorf("window len = %d, want 5", len(ctx.Window))
	}
	if ctx.TokenCount != 50 {
		t.Errorf("token_count = %d, want 50", ctx.TokenCount)
	}
}

func TestContextToPromptFormat(t *testing.T) {
	c := Context{
		Summary: "we discussed the weather",
		Window: []Turn{
			{Role: RoleUser, Text: "hello"},
			{Role: RoleAssistant, Text: "hi there"},
		},
	}
	got := c.ToPrompt(true)
	want := "Previous summary: we discussed the weather\nUser: hello\nAssistant: hi there\nAssistant:"
	if got != want {
		t.Errorf("ToPrompt = %q, want %q", got, want)
	}
}

func TestContextToPromptEmpty(t *testing.T) {
	c := Context{}
	if got := c.ToPrompt(true); got != "" {
		t.Errorf("ToPrompt of empty context = %q, want empty string", got)
	}
}

func TestSummarizerCadence(t *testing.T) {
	store := NewMemoryStore(50)
	stub := &stubSummarizer{fn: func(window []Turn, prior string) (string, error) {
		var tails []string
		for _, w := range window {
			tails = append(tails, w.Text)
		}
		return strings.Join(tails, "|"), nil
	}}
	h := New(store, "c1", WithSummarizer(stub, 3, 120))

	for i := 0; i < 7; i++ {
		h.Append(context.Background(), NewTurn(RoleUser, "turn", 0))
	}

	if stub.calls != 2 {
		t.Errorf("summarizer called %d times, want 2", stub.calls)
	}
	if h.sinceLastSummary != 1 {
		t.Errorf("sinceLastSummary = %d, want 1", h.sinceLastSummary)
	}
}

func TestSummarizerFailureStillResetsCounter(t *testing.T) {
	store := NewMemoryStore(50)
	stub := &stubSummarizer{fn: func(window []Turn, prior string) (string, error) {
		return "", errFake
	}}
	h := New(store, "c1", WithSummarizer(stub, 2, 120))

	h.Append(context.Background(), NewTurn(RoleUser, "a", 0))
	h.Append(context.Background(), NewTurn(RoleUser, "b", 0))

	if h.sinceLastSummary != 0 {
		t.Errorf("sinceLastSummary = %d, want 0 after failed summarize", h.sinceLastSummary)
	}
	if h.Summary() != "" {
		t.Errorf("summary should remain unchanged on failure, got %q", h.Summary())
	}
}
