package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/latticevoice/agent/pkg/segment"
)

// AssemblyAI transcribes a Segment via AssemblyAI's upload → submit →
// poll-for-completion flow.
type AssemblyAI struct {
	apiKey  string
	baseURL string
}

func NewAssemblyAI(apiKey string) *AssemblyAI {
	return &AssemblyAI{apiKey: apiKey, baseURL: "https://api.assemblyai.com"}
}

func (s *AssemblyAI) Name() string { return "assemblyai-asr" }

func (s *AssemblyAI) Transcribe(ctx context.Context, seg segment.Segment, lang Language) (Result, error) {
	uploadURL, err := s.upload(ctx, seg.PCM)
	if err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	transcriptID, err := s.submit(ctx, uploadURL, lang)
	if err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, &Failed{Provider: s.Name(), Err: ctx.Err()}
		case <-time.After(500 * time.Millisecond):
			text, status, err := s.getTranscript(ctx, transcriptID)
			if err != nil {
				return Result{}, &Failed{Provider: s.Name(), Err: err}
			}
			if status == "completed" {
				return Result{Text: text, Language: lang}, nil
			}
			if status == "error" {
				return Result{}, &Failed{Provider: s.Name(), Err: fmt.Errorf("assemblyai transcription failed")}
			}
		}
	}
}

func (s *AssemblyAI) upload(ctx context.Context, pcm []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v2/upload", bytes.NewReader(pcm))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.UploadURL, nil
}

func (s *AssemblyAI) submit(ctx context.Context, uploadURL string, lang Language) (string, error) {
	payload := map[string]interface{}{"audio_url": uploadURL}
	if lang != "" {
		payload["language_code"] = string(lang)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *AssemblyAI) getTranscript(ctx context.Context, id string) (text, status string, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var out struct {
		Status string `json:"status"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", err
	}
	return out.Text, out.Status, nil
}
