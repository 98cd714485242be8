package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAI generates replies via the chat-completions endpoint.
type OpenAI struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAI{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  model,
	}
}

func (l *OpenAI) Name() string { return "openai-llm" }

func (l *OpenAI) Generate(ctx context.Context, messages []Message) (Result, error) {
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
