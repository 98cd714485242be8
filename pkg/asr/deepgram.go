package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/latticevoice/agent/pkg/segment"
)

// Deepgram transcribes a Segment by streaming raw PCM16 to Deepgram's
// prerecorded listen endpoint (no WAV container needed; the content-type
// header carries rate/channels).
type Deepgram struct {
	apiKey string
	url    string
}

func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{apiKey: apiKey, url: "https://api.deepgram.com/v1/listen"}
}

func (s *Deepgram) Name() string { return "deepgram-asr" }

func (s *Deepgram) Transcribe(ctx context.Context, seg segment.Segment, lang Language) (Result, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}

	params := u.Query()
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	if lang != "" {
		params.Set("language", string(lang))
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(seg.PCM))
	if err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d; channels=%d", seg.SampleRate, seg.Channels))

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
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, &Failed{Provider: s.Name(), Err: err}
	}
	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return Result{Language: lang}, nil
	}
	return Result{Text: out.Results.Channels[0].Alternatives[0].Transcript, Language: lang}, nil
}
