package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/latticevoice/agent/pkg/audio"
	"github.com/latticevoice/agent/pkg/segment"
)

// Groq transcribes a Segment via Groq's OpenAI-compatible Whisper
// endpoint.
type Groq struct {
	apiKey string
	url    string
	model  string
}

func NewGroq(apiKey, model string) *Groq {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &Groq{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/audio/transcriptions",
		model:  model,
	}
}

func (s *Groq) Name() string { return "groq-asr" }

func (s *Groq) Transcribe(ctx context.Context, seg segment.Segment, lang Language) (Result, error) {
	wavData := audio.NewWavBuffer(seg.PCM, seg.SampleRate)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", s.model); err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	if lang != "" {
		if err := writer.WriteField("language", string(lang)); err != nil {
			return Result{}, &Failed{Provider: s.Name(), Err: err}
		}
	}
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	if _, err := io.Copy(part, bytes.NewReader(wavData)); err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	if err := writer.Close(); err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, body)
	if err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return Result{}, &Failed{Provider: s.Name(), Err: fmt.Errorf("status %d: %v", resp.StatusCode, errResp)}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	return Result{Text: out.Text, Language: lang}, nil
}
