package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Groq generates replies via Groq's OpenAI-compatible chat-completions
// endpoint.
type Groq struct {
	apiKey string
	url    string
	model  string
}

func NewGroq(apiKey, model string) *Groq {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &Groq{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/chat/completions",
		model:  model,
	}
}

func (l *Groq) Name() string { return "groq-llm" }

func (l *Groq) Generate(ctx context.Context, messages []Message) (Result, error) {
	payload := map[string]interface{}{
		"model":    l.model,
		"messages": messages,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return Result{}, &Failed{Provider: l.Name(), Err: fmt.Errorf("status %d: %v", resp.StatusCode, errResp)}
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}
	if len(out.Choices) == 0 {
		return Result{}, &Failed{Provider: l.Name(), Err: fmt.Errorf("no choices returned")}
	}

	return Result{
		Text:         out.Choices[0].Message.Content,
		UsageTokens:  out.Usage.TotalTokens,
		FinishReason: out.Choices[0].FinishReason,
	}, nil
}
