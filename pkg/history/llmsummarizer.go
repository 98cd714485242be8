package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/latticevoice/agent/pkg/llm"
)

// LlmSummarizer implements Summarizer by asking an llm.Generator to
// condense a window of turns plus the prior summary into a new one. It
// reuses whichever Generator the Turn Manager was built with, rather than
// requiring a dedicated summarization provider.
type LlmSummarizer struct {
	generator llm.Generator
}

// NewLlmSummarizer wraps generator as a Summarizer.
func NewLlmSummarizer(generator llm.Generator) *LlmSummarizer {
	return &LlmSummarizer{generator: generator}
}

func (s *LlmSummarizer) Summarize(ctx context.Context, window []Turn, priorSummary string, targetTokens int) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Summarize the following conversation in roughly %d tokens, preserving names, decisions, and open questions. Respond with only the summary text.\n\n", targetTokens))
	if priorSummary != "" {
		b.WriteString("Previous summary: ")
		b.WriteString(priorSummary)
		b.WriteString("\n\n")
	}
	for _, t := range window {
		b.WriteString(t.Role.displayName())
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: b.String()}}
	result, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}
