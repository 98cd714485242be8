package turnmanager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/latticevoice/agent/pkg/asr"
	"github.com/latticevoice/agent/pkg/audio"
	"github.com/latticevoice/agent/pkg/history"
	"github.com/latticevoice/agent/pkg/llm"
	"github.com/latticevoice/agent/pkg/logging"
	"github.com/latticevoice/agent/pkg/segment"
	"github.com/latticevoice/agent/pkg/vad"
)

// State is the per-turn phase of the state machine.
type State int

const (
	StateIdle State = iota
	StateListening
	StateTranscribing
	StateProcessing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateProcessing:
		return "PROCESSING"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TurnResult is the outcome of a single RunOnce call. Zero value means
// no speech was captured and no downstream components were invoked.
type TurnResult struct {
	AsrText   string
	LlmText   string
	SegmentMs int
	RawAsr    any
	RawLlm    any
}

// FrameSource is the capture-side collaborator: anything that can be
// opened against a device and yields raw PCM chunks.
type FrameSource interface {
	Open(ctx context.Context) error
	Close() error
	Frames() <-chan []byte
	SampleRate() int
	Channels() int
}

// Config bundles the per-turn knobs the Turn Manager needs beyond its
// collaborators: conversation identity, language, system prompt, and the
// timeouts the ambient stack wraps around the ASR/LLM calls.
type Config struct {
	ConvID          string
	Language        asr.Language
	SystemPrompt    string
	AsrTimeout      time.Duration
	LlmTimeout      time.Duration
	ContextMaxToken int

	// AudioDir, when non-empty, is a directory each captured Segment is
	// additionally persisted to as a <conv_id>-<turn_id>.wav file, purely
	// informational (nothing downstream reads it back). Empty disables
	// the sink entirely.
	AudioDir string
}

// TurnManager wires Audio Source -> VAD Segmenter -> ASR -> History -> LLM
// into the IDLE/LISTENING/TRANSCRIBING/PROCESSING/ERROR turn cycle.
type TurnManager struct {
	source      FrameSource
	segmenter   *vad.Segmenter
	transcriber asr.Transcriber
	generator   llm.Generator
	conv        *history.History
	cfg         Config
	logger      logging.Logger

	mu    sync.Mutex
	state State
	stop  bool
}

func New(source FrameSource, segmenter *vad.Segmenter, transcriber asr.Transcriber, generator llm.Generator, conv *history.History, cfg Config, logger logging.Logger) *TurnManager {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &TurnManager{
		source:      source,
		segmenter:   segmenter,
		transcriber: transcriber,
		generator:   generator,
		conv:        conv,
		cfg:         cfg,
		logger:      logger,
		state:       StateIdle,
	}
}

// Open brings up collaborators in the declared order: Audio Source, then
// VAD Segmenter. ASR and LLM adapters are stateless HTTP clients and need
// no explicit lifecycle step.
func (tm *TurnManager) Open(ctx context.Context) error {
	if err := tm.source.Open(ctx); err != nil {
		return err
	}
	if err := tm.segmenter.Open(tm.source.SampleRate(), tm.source.Channels()); err != nil {
		tm.source.Close()
		return err
	}
	return nil
}

// Close tears down collaborators in reverse order. Every close is
// best-effort: errors are logged, never propagated.
func (tm *TurnManager) Close() {
	if err := tm.segmenter.Close(); err != nil {
		tm.logger.Warn("segmenter close failed", "error", err)
	}
	if err := tm.source.Close(); err != nil {
		tm.logger.Warn("audio source close failed", "error", err)
	}
}

func (tm *TurnManager) setState(s State) {
	tm.mu.Lock()
	tm.state = s
	tm.mu.Unlock()
}

// State returns the current turn phase.
func (tm *TurnManager) State() State {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.state
}

// RunOnce drives exactly one turn to completion against the shared frame
// channel, returning to IDLE regardless of outcome.
func (tm *TurnManager) RunOnce(ctx context.Context) (TurnResult, error) {
	defer tm.setState(StateIdle)

	tm.setState(StateListening)
	seg, err := tm.segmenter.CaptureUntilSilence(ctx, tm.source.Frames())
	if err != nil {
		tm.setState(StateError)
		return TurnResult{}, err
	}
	if len(seg.PCM) == 0 {
		return TurnResult{}, nil
	}

	turnID := newTurnID()
	tm.persistSegment(seg, turnID)

	tm.setState(StateTranscribing)
	asrCtx := ctx
	var cancel context.CancelFunc
	if tm.cfg.AsrTimeout > 0 {
		asrCtx, cancel = context.WithTimeout(ctx, tm.cfg.AsrTimeout)
	}
	asrResult, err := tm.transcriber.Transcribe(asrCtx, seg, tm.cfg.Language)
	if cancel != nil {
		cancel()
	}
	if err != nil {
		tm.setState(StateError)
		tm.logger.Error("asr failed", "provider", tm.transcriber.Name(), "error", err)
		return TurnResult{SegmentMs: seg.DurationMs()}, err
	}

	result := TurnResult{AsrText: asrResult.Text, SegmentMs: seg.DurationMs(), RawAsr: asrResult}

	tm.setState(StateProcessing)
	if asrResult.Text != "" {
		tm.conv.Append(ctx, history.NewTurn(history.RoleUser, asrResult.Text, 0))
	}

	promptCtx := tm.conv.BuildContext(tm.cfg.ContextMaxToken)
	messages := buildMessages(tm.cfg.SystemPrompt, promptCtx)

	llmCtx := ctx
	cancel = nil
	if tm.cfg.LlmTimeout > 0 {
		llmCtx, cancel = context.WithTimeout(ctx, tm.cfg.LlmTimeout)
	}
	llmResult, err := tm.generator.Generate(llmCtx, messages)
	if cancel != nil {
		cancel()
	}
	if err != nil {
		tm.setState(StateError)
		tm.logger.Error("llm failed", "provider", tm.generator.Name(), "error", err)
		result.LlmText = llm.FallbackText
		tm.conv.Append(ctx, history.NewTurn(history.RoleAssistant, result.LlmText, 0))
		return result, err
	}

	result.LlmText = llmResult.Text
	result.RawLlm = llmResult
	tm.conv.Append(ctx, history.NewTurn(history.RoleAssistant, llmResult.Text, llmResult.UsageTokens))

	return result, nil
}

// persistSegment writes seg to AudioDir as <conv_id>-<turn_id>.wav when a
// sink directory is configured. Best-effort: failures are logged, never
// propagated, since this is a purely informational side channel.
func (tm *TurnManager) persistSegment(seg segment.Segment, turnID string) {
	if tm.cfg.AudioDir == "" {
		return
	}
	if err := os.MkdirAll(tm.cfg.AudioDir, 0o755); err != nil {
		tm.logger.Warn("audio sink mkdir failed", "dir", tm.cfg.AudioDir, "error", err)
		return
	}
	name := fmt.Sprintf("%s-%s.wav", tm.cfg.ConvID, turnID)
	path := filepath.Join(tm.cfg.AudioDir, name)
	wav := audio.NewWavBuffer(seg.PCM, seg.SampleRate)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		tm.logger.Warn("audio sink write failed", "path", path, "error", err)
	}
}

func newTurnID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func buildMessages(systemPrompt string, ctx history.Context) []llm.Message {
	var messages []llm.Message
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: ctx.ToPrompt(true)})
	return messages
}

// RunForever calls RunOnce in a loop until the stop flag is set or ctx is
// cancelled, reporting each turn via onResult/onError. When
// installSignalHandlers is true, SIGINT/SIGTERM set the stop flag for the
// duration of the call and the previous signal disposition is restored on
// return.
func (tm *TurnManager) RunForever(ctx context.Context, onResult func(TurnResult), onError func(error), installSignalHandlers bool) {
	tm.mu.Lock()
	tm.stop = false
	tm.mu.Unlock()

	if installSignalHandlers {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			if _, ok := <-sigCh; ok {
				tm.RequestStop()
			}
		}()
	}

	for {
		if ctx.Err() != nil {
			return
		}
		tm.mu.Lock()
		stopped := tm.stop
		tm.mu.Unlock()
		if stopped {
			return
		}

		result, err := tm.safeRunOnce(ctx)
		if err != nil {
			tm.safeCallback(func() { onError(err) })
			continue
		}
		tm.safeCallback(func() { onResult(result) })
	}
}

func (tm *TurnManager) safeRunOnce(ctx context.Context) (result TurnResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn panicked: %v", r)
		}
	}()
	return tm.RunOnce(ctx)
}

func (tm *TurnManager) safeCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			tm.logger.Error("turn callback panicked", "recovered", r)
		}
	}()
	fn()
}

// RequestStop sets the cooperative stop flag, honored at the next turn
// boundary.
func (tm *TurnManager) RequestStop() {
	tm.mu.Lock()
	tm.stop = true
	tm.mu.Unlock()
}
