package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Anthropic generates replies via the Messages API.
type Anthropic struct {
	apiKey string
	url    string
	model  string
}

func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &Anthropic{
		apiKey: apiKey,
		url:    "https://api.anthropic.com/v1/messages",
		model:  model,
	}
}

func (l *Anthropic) Name() string { return "anthropic-llm" }

func (l *Anthropic) Generate(ctx context.Context, messages []Message) (Result, error) {
	var system string
	var anthropicMessages []map[string]string

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = msg.Content
			continue
		}
		anthropicMessages = append(anthropicMessages, map[string]string{
			"role":    string(msg.Role),
			"content": msg.Content,
		})
	}

	payload := map[string]interface{}{
		"model":      l.model,
		"messages":   anthropicMessages,
		"max_tokens": 1024,
	}
	if system != "" {
		payload["system"] = system
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
	req.Header.Set("x-api-key", l.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

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
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}
	if len(out.Content) == 0 {
		return Result{}, &Failed{Provider: l.Name(), Err: fmt.Errorf("no content returned")}
	}

	return Result{
		Text:         out.Content[0].Text,
		UsageTokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
		FinishReason: out.StopReason,
	}, nil
}
