package history

import (
	"context"

	"github.com/latticevoice/agent/pkg/logging"
)

// History mediates between a Store and a Summarizer: it rejects blank
// appends, drives the rolling-summary cadence, and builds token-budgeted
// prompt Context. It is a view over the Store, never an alias of its
// storage.
type History struct {
	store      Store
	convID     string
	summarizer Summarizer
	logger     logging.Logger

	summaryEveryN      int
	summaryTargetToken int

	summary           string
	sinceLastSummary  int
}

// Option configures a History at construction.
type Option func(*History)

// WithSummarizer enables rolling summarization every summaryEveryN
// accepted appends, targeting summaryTargetTokens per summary.
func WithSummarizer(s Summarizer, summaryEveryN, summaryTargetTokens int) Option {
	return func(h *History) {
		h.summarizer = s
		h.summaryEveryN = summaryEveryN
		h.summaryTargetToken = summaryTargetTokens
	}
}

// WithLogger injects the logger used for non-fatal SummarizerFailed
// reporting. Defaults to a no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(h *History) { h.logger = l }
}

// New builds a History over store for a single conversation ID.
func New(store Store, convID string, opts ...Option) *History {
	h := &History{
		store:              store,
		convID:             convID,
		logger:             logging.NoOpLogger{},
		summaryTargetToken: 200,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append rejects turns whose trimmed text is empty; otherwise appends to
// the Store and, when a Summarizer is configured, advances the
// summarization cadence.
func (h *History) Append(ctx context.Context, t Turn) {
	if t.TrimmedEmpty() {
		return
	}
	h.store.Append(h.convID, t)

	if h.summaryEveryN <= 0 || h.summarizer == nil {
		return
	}
	h.sinceLastSummary++
	if h.sinceLastSummary < h.summaryEveryN {
		return
	}

	k := h.summaryEveryN * 2
	if k < 8 {
		k = 8
	}
	window := h.store.LastN(h.convID, k)

	summary, err := h.summarizer.Summarize(ctx, window, h.summary, h.summaryTargetToken)
	if err != nil {
		h.logger.Warn("summarizer failed, keeping prior summary", "conv_id", h.convID, "error", err)
	} else {
		h.summary = summary
	}
	h.sinceLastSummary = 0
}

// BuildContext selects the longest suffix of recent turns whose
// cumulative token cost fits within maxTokens, looking back over at most
// the 64 most recent turns. Token cost per turn is Turn.Tokens when
// positive, else max(1, len(text)/4).
func (h *History) BuildContext(maxTokens int) Context {
	const lookback = 64
	recent := h.store.LastN(h.convID, lookback)

	var selected []Turn
	acc := 0
	for i := len(recent) - 1; i >= 0; i-- {
		t := recent[i]
		cost := t.Tokens
		if cost <= 0 {
			cost = len(t.Text) / 4
			if cost < 1 {
				cost = 1
			}
		}
		if acc+cost > maxTokens {
			break
		}
		selected = append(selected, t)
		acc += cost
	}
	// selected was built newest-first; reverse to chronological order.
	for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
		selected[i], selected[j] = selected[j], selected[i]
	}

	return Context{Summary: h.summary, Window: selected, TokenCount: acc}
}

// Clear resets the summary and cadence counter and clears the underlying
// Store for this conversation.
func (h *History) Clear() {
	h.store.Clear(h.convID)
	h.summary = ""
	h.sinceLastSummary = 0
}

// Turns returns the full retained turn log for this conversation.
func (h *History) Turns() []Turn {
	return h.store.All(h.convID)
}

// Summary returns the current rolling summary.
func (h *History) Summary() string { return h.summary }
