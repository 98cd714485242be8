package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req["system"] != "be terse" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]string{{"text": "hello from claude"}},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 5, "output_tokens": 7},
		})
	}))
	defer server.Close()

	l := &Anthropic{apiKey: "test-key", url: server.URL, model: "claude-3-5-sonnet-20240620"}

	result, err := l.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello from claude" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.UsageTokens != 12 {
		t.Errorf("UsageTokens = %d", result.UsageTokens)
	}
	if l.Name() != "anthropic-llm" {
		t.Errorf("Name() = %q", l.Name())
	}
}
