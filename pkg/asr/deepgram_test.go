package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/latticevoice/agent/pkg/segment"
)

func TestDeepgramTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp := map[string]any{
			"results": map[string]any{
				"channels": []map[string]any{
					{"alternatives": []map[string]any{{"transcript": "deepgram result"}}},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	d := &Deepgram{apiKey: "k", url: server.URL}
	pcm := make([]byte, 320)
	seg, _ := segment.New(pcm, 16000, 10, 0, 10, segment.StoppedSilence)

	result, err := d.Transcribe(context.Background(), seg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "deepgram result" {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestDeepgramTranscribeEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": map[string]any{"channels": []any{}}})
	}))
	defer server.Close()

	d := &Deepgram{apiKey: "k", url: server.URL}
	pcm := make([]byte, 320)
	seg, _ := segment.New(pcm, 16000, 10, 0, 10, segment.StoppedSilence)

	result, err := d.Transcribe(context.Background(), seg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
}
