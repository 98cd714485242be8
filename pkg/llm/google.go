package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Google generates replies via the Gemini generateContent endpoint.
type Google struct {
	apiKey string
	url    string
	model  string
}

func NewGoogle(apiKey, model string) *Google {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Google{
		apiKey: apiKey,
		url:    "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent",
		model:  model,
	}
}

func (l *Google) Name() string { return "google-llm" }

type googlePart struct {
	Text string `json:"text"`
}

type googleMessage struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

func (l *Google) Generate(ctx context.Context, messages []Message) (Result, error) {
	var googleMessages []googleMessage
	for _, m := range messages {
		role := string(m.Role)
		switch m.Role {
		case RoleSystem:
			role = "user"
		case RoleAssistant:
			role = "model"
		}
		googleMessages = append(googleMessages, googleMessage{
			Role:  role,
			Parts: []googlePart{{Text: m.Content}},
		})
	}

	payload := map[string]interface{}{"contents": googleMessages}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.url+"?key="+l.apiKey, bytes.NewReader(body))
	if err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

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
		Candidates []struct {
			Content struct {
				Parts []googlePart `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			TotalTokenCount int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, &Failed{Provider: l.Name(), Err: err}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Result{}, &Failed{Provider: l.Name(), Err: fmt.Errorf("no response returned")}
	}

	return Result{
		Text:         out.Candidates[0].Content.Parts[0].Text,
		UsageTokens:  out.UsageMetadata.TotalTokenCount,
		FinishReason: out.Candidates[0].FinishReason,
	}, nil
}
