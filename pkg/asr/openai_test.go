package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/latticevoice/agent/pkg/segment"
)

func TestOpenAITranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer server.Close()

	a := &OpenAI{apiKey: "test-key", url: server.URL, model: "whisper-1"}
	pcm := make([]byte, 320)
	seg, err := segment.New(pcm, 16000, 10, 0, 10, segment.StoppedSilence)
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.Transcribe(context.Background(), seg, LanguageEn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("Text = %q, want %q", result.Text, "hello world")
	}
	if a.Name() != "openai-asr" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestOpenAITranscribeErrorWraps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	a := &OpenAI{apiKey: "k", url: server.URL, model: "whisper-1"}
	pcm := make([]byte, 320)
	seg, _ := segment.New(pcm, 16000, 10, 0, 10, segment.StoppedSilence)

	_, err := a.Transcribe(context.Background(), seg, "")
	if err == nil {
		t.Fatal("expected error")
	}
	var failed *Failed
	if !asFailed(err, &failed) {
		t.Fatalf("expected *Failed, got %T", err)
	}
}

func asFailed(err error, target **Failed) bool {
	f, ok := err.(*Failed)
	if ok {
		*target = f
	}
	return ok
}
