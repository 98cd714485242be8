package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAssemblyAIUploadSubmitPoll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn/upload/1"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "t1"})
	})
	mux.HandleFunc("/v2/transcript/t1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "completed", "text": "done talking"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	a := &AssemblyAI{apiKey: "k", baseURL: server.URL}

	uploadURL, err := a.upload(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uploadURL != "https://cdn/upload/1" {
		t.Errorf("uploadURL = %q", uploadURL)
	}

	id, err := a.submit(context.Background(), uploadURL, LanguageEn)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "t1" {
		t.Errorf("id = %q", id)
	}

	text, status, err := a.getTranscript(context.Background(), id)
	if err != nil {
		t.Fatalf("getTranscript: %v", err)
	}
	if status != "completed" || text != "done talking" {
		t.Errorf("got (%q,%q)", text, status)
	}
}

func TestAssemblyAIName(t *testing.T) {
	a := NewAssemblyAI("k")
	if a.Name() != "assemblyai-asr" {
		t.Errorf("Name() = %q", a.Name())
	}
}
