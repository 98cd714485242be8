package history

import "context"

// Summarizer condenses a window of recent turns plus the prior rolling
// summary into a new summary string bounded to roughly targetTokens.
// Implementations are expected to call an LLM; errors are treated as
// SummarizerFailed by History and never surfaced to the caller.
type Summarizer interface {
	Summarize(ctx context.Context, window []Turn, priorSummary string, targetTokens int) (string, error)
}
