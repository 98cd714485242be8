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

// OpenAI transcribes a Segment via OpenAI's Whisper endpoint, wrapping the
// segment's PCM16 in a WAV container as the API requires.
type OpenAI struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAI{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/audio/transcriptions",
		model:  model,
	}
}

func (s *OpenAI) Name() string { return "openai-asr" }

func (s *OpenAI) Transcribe(ctx context.Context, seg segment.Segment, lang Language) (Result, error) {
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
	if _, err := part.Write(wavData); err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	writer.Close()

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
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, &Failed{Provider: s.Name(), Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	return Result{Text: out.Text, Language: lang}, nil
}
