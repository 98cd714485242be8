package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/latticevoice/agent/pkg/asr"
	"github.com/latticevoice/agent/pkg/audio"
	"github.com/latticevoice/agent/pkg/config"
	"github.com/latticevoice/agent/pkg/history"
	"github.com/latticevoice/agent/pkg/llm"
	"github.com/latticevoice/agent/pkg/logging"
	"github.com/latticevoice/agent/pkg/turnmanager"
	"github.com/latticevoice/agent/pkg/vad"
)

// defaultRMSThreshold matches the teacher's own RMSVAD default; the
// config schema has no per-deployment threshold knob, so it stays a
// build-time constant here rather than an unused config field.
const defaultRMSThreshold = 0.02

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "note: no .env file found, using system environment variables")
	}

	flags, err := config.ParseFlags(pflag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "flag error:", err)
		os.Exit(1)
	}

	profilePath := flags.ResolveProfilePath()
	cfg, err := config.Load(flags.ConfigPath, profilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger, err := logging.NewCharm(logging.Level(cfg.Logging.Level), cfg.ResolvePath(cfg.Logging.File))
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}

	if flags.DryRun {
		logger.Info("config valid", "config", flags.ConfigPath, "profile", profilePath)
		os.Exit(0)
	}

	transcriber, err := buildTranscriber(cfg.Asr)
	if err != nil {
		logger.Error("failed to build asr provider", "error", err)
		os.Exit(1)
	}

	generator, err := buildGenerator(cfg.Llm)
	if err != nil {
		logger.Error("failed to build llm provider", "error", err)
		os.Exit(1)
	}

	source := audio.New(cfg.Audio.InputDevice, cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Vad.FrameMs)

	classifier := vad.NewRMSClassifier(defaultRMSThreshold, cfg.Vad.Aggressiveness)
	segmenter, err := vad.New(vad.Config{
		Aggressiveness: cfg.Vad.Aggressiveness,
		FrameMs:        cfg.Vad.FrameMs,
		SilenceMs:      cfg.Vad.SilenceMs,
		PreSpeechMs:    cfg.Vad.PreSpeechMs,
		SampleRate:     cfg.Audio.SampleRate,
		MaxRecordMs:    cfg.Vad.MaxRecordMs,
	}, classifier)
	if err != nil {
		logger.Error("failed to build vad segmenter", "error", err)
		os.Exit(1)
	}

	store := history.NewMemoryStore(cfg.History.MaxTurns)
	var historyOpts []history.Option
	historyOpts = append(historyOpts, history.WithLogger(logger))
	if cfg.History.SummaryEveryNTurns > 0 {
		summarizer := history.NewLlmSummarizer(generator)
		historyOpts = append(historyOpts, history.WithSummarizer(summarizer, cfg.History.SummaryEveryNTurns, cfg.History.SummaryTargetTokens))
	}
	conv := history.New(store, "default", historyOpts...)

	tmCfg := turnmanager.Config{
		ConvID:          "default",
		Language:        asr.Language(cfg.Asr.Language),
		SystemPrompt:    cfg.Llm.SystemPrompt,
		AsrTimeout:      time.Duration(cfg.Asr.TimeoutMs) * time.Millisecond,
		LlmTimeout:      time.Duration(cfg.Llm.TimeoutMs) * time.Millisecond,
		ContextMaxToken: cfg.Llm.MaxTokens * 4,
		AudioDir:        cfg.ResolvePath(cfg.Paths.AudioDir),
	}

	tm := turnmanager.New(source, segmenter, transcriber, generator, conv, tmCfg, logger)

	ctx := context.Background()
	if err := tm.Open(ctx); err != nil {
		logger.Error("failed to open pipeline", "error", err)
		os.Exit(1)
	}
	defer tm.Close()

	logger.Info("agent started",
		"asr_provider", cfg.Asr.Provider,
		"llm_provider", cfg.Llm.Provider,
		"sample_rate", cfg.Audio.SampleRate,
		"device", cfg.Audio.InputDevice,
	)
	fmt.Println("Voice agent started. Listening to microphone. Press Ctrl+C to exit.")

	onResult := func(result turnmanager.TurnResult) {
		if result.AsrText == "" {
			return
		}
		fmt.Printf("[you] %s\n[agent] %s\n", result.AsrText, result.LlmText)
	}
	onError := func(err error) {
		logger.Error("turn failed", "error", err)
	}

	tm.RunForever(ctx, onResult, onError, true)
	logger.Info("agent stopped")
}

func buildTranscriber(cfg config.AsrConfig) (asr.Transcriber, error) {
	switch cfg.Provider {
	case "openai":
		key, err := requireEnv(cfg.APIKeyEnv, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return asr.NewOpenAI(key, cfg.ModelID), nil
	case "deepgram":
		key, err := requireEnv(cfg.APIKeyEnv, "DEEPGRAM_API_KEY")
		if err != nil {
			return nil, err
		}
		return asr.NewDeepgram(key), nil
	case "assemblyai":
		key, err := requireEnv(cfg.APIKeyEnv, "ASSEMBLYAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return asr.NewAssemblyAI(key), nil
	case "groq":
		key, err := requireEnv(cfg.APIKeyEnv, "GROQ_API_KEY")
		if err != nil {
			return nil, err
		}
		return asr.NewGroq(key, cfg.ModelID), nil
	default:
		return nil, fmt.Errorf("%w: unknown asr.provider %q", config.ErrConfigInvalid, cfg.Provider)
	}
}

func buildGenerator(cfg config.LlmConfig) (llm.Generator, error) {
	switch cfg.Provider {
	case "openai":
		key, err := requireEnv(cfg.APIKeyEnv, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return llm.NewOpenAI(key, cfg.Model), nil
	case "anthropic":
		key, err := requireEnv(cfg.APIKeyEnv, "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return llm.NewAnthropic(key, cfg.Model), nil
	case "google":
		key, err := requireEnv(cfg.APIKeyEnv, "GOOGLE_API_KEY")
		if err != nil {
			return nil, err
		}
		return llm.NewGoogle(key, cfg.Model), nil
	case "groq":
		key, err := requireEnv(cfg.APIKeyEnv, "GROQ_API_KEY")
		if err != nil {
			return nil, err
		}
		return llm.NewGroq(key, cfg.Model), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm.provider %q", config.ErrConfigInvalid, cfg.Provider)
	}
}

// requireEnv reads the API key from envVar when the config explicitly
// names one, otherwise from defaultVar. Either way, a blank key is a
// startup-fatal ConfigInvalid, not a per-turn failure.
func requireEnv(envVar, defaultVar string) (string, error) {
	name := envVar
	if name == "" {
		name = defaultVar
	}
	val := os.Getenv(name)
	if val == "" {
		return "", fmt.Errorf("%w: environment variable %s must be set", config.ErrConfigInvalid, name)
	}
	return val, nil
}
