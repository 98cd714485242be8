// Package asr defines the ASR port and its concrete HTTP-backed adapters.
package asr

import (
	"context"
	"fmt"

	"github.com/latticevoice/agent/pkg/segment"
)

// Language is a BCP-47-ish language tag understood by the configured
// engine; the empty string means "auto-detect" where the engine supports
// it.
type Language string

const (
	LanguageEn Language = "en"
	LanguageEs Language = "es"
	LanguageFr Language = "fr"
	LanguageDe Language = "de"
	LanguageIt Language = "it"
	LanguagePt Language = "pt"
	LanguageJa Language = "ja"
	LanguageZh Language = "zh"
)

// Result is what a Transcriber returns for one segment.
type Result struct {
	Text     string
	Language Language
}

// Transcriber is the ASR port: RecordingSegment in, text plus a language
// tag out. The adapters in this package do not detect the language: the
// Result's Language is the lang argument they were called with.
type Transcriber interface {
	Transcribe(ctx context.Context, seg segment.Segment, lang Language) (Result, error)
	Name() string
}

// Failed wraps any transcription error as the spec's per-turn-recoverable
// AsrFailed taxonomy entry.
type Failed struct {
	Provider string
	Err      error
}

func (e *Failed) Error() string {
	return fmt.Sprintf("asr: %s transcription failed: %v", e.Provider, e.Err)
}

func (e *Failed) Unwrap() error { return e.Err }
