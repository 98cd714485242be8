package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfigInvalid is the ConfigInvalid taxonomy member: rejected at
// startup, fatal.
var ErrConfigInvalid = errors.New("config: invalid configuration")

type AppConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
}

type PathsConfig struct {
	BaseDir  string `yaml:"base_dir"`
	LogsDir  string `yaml:"logs_dir"`
	AudioDir string `yaml:"audio_dir"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	RotationMB int    `yaml:"rotation_mb"`
}

type AudioConfig struct {
	InputDevice string `yaml:"input_device"`
	SampleRate  int    `yaml:"sample_rate"`
	Channels    int    `yaml:"channels"`
	ChunkSize   int    `yaml:"chunk_size"`
}

type AsrConfig struct {
	Provider      string `yaml:"provider"`
	ModelID       string `yaml:"model_id"`
	Device        string `yaml:"device"`
	Language      string `yaml:"language"`
	Task          string `yaml:"task"`
	ChunkSeconds  int    `yaml:"chunk_seconds"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	APIKeyEnv     string `yaml:"api_key_env"`
}

type VadConfig struct {
	Enabled        bool `yaml:"enabled"`
	Aggressiveness int  `yaml:"aggressiveness"`
	FrameMs        int  `yaml:"frame_ms"`
	SilenceMs      int  `yaml:"silence_ms"`
	PreSpeechMs    int  `yaml:"pre_speech_ms"`
	MaxRecordMs    int  `yaml:"max_record_ms"`
}

type LlmConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	TimeoutMs    int     `yaml:"timeout_ms"`
}

type HistoryConfig struct {
	MaxTurns             int `yaml:"max_turns"`
	SummaryEveryNTurns   int `yaml:"summary_every_n_turns"`
	SummaryTargetTokens  int `yaml:"summary_target_tokens"`
}

// Config is the fully merged, validated runtime configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Paths   PathsConfig   `yaml:"paths"`
	Logging LoggingConfig `yaml:"logging"`
	Audio   AudioConfig   `yaml:"audio"`
	Asr     AsrConfig     `yaml:"asr"`
	Vad     VadConfig     `yaml:"vad"`
	Llm     LlmConfig     `yaml:"llm"`
	History HistoryConfig `yaml:"history"`
}

// Default returns the documented defaults for every field.
func Default() Config {
	return Config{
		App:   AppConfig{Name: "agent", Env: "dev"},
		Paths: PathsConfig{BaseDir: ".", LogsDir: "logs", AudioDir: "audio"},
		Logging: LoggingConfig{
			Level:      "INFO",
			File:       "agent.log",
			RotationMB: 10,
		},
		Audio: AudioConfig{
			InputDevice: "default",
			SampleRate:  16000,
			Channels:    1,
			ChunkSize:   1024,
		},
		Asr: AsrConfig{
			Provider:     "groq",
			ModelID:      "whisper-large-v3-turbo",
			Device:       "auto",
			Language:     "",
			Task:         "transcribe",
			ChunkSeconds: 30,
			TimeoutMs:    15000,
		},
		Vad: VadConfig{
			Enabled:        true,
			Aggressiveness: 2,
			FrameMs:        30,
			SilenceMs:      800,
			PreSpeechMs:    300,
			MaxRecordMs:    15000,
		},
		Llm: LlmConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.6,
			MaxTokens:   350,
			TimeoutMs:   20000,
		},
		History: HistoryConfig{
			MaxTurns:            50,
			SummaryEveryNTurns:  6,
			SummaryTargetTokens: 120,
		},
	}
}

var validAsrProviders = map[string]bool{"openai": true, "groq": true, "deepgram": true, "assemblyai": true}
var validLlmProviders = map[string]bool{"openai": true, "anthropic": true, "google": true, "groq": true}
var validRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}
var validFrameMs = map[int]bool{10: true, 20: true, 30: true}

// Validate enforces the cross-field invariants and enum constraints from
// the config schema. A non-nil error always wraps ErrConfigInvalid.
func (c *Config) Validate() error {
	if !validAsrProviders[c.Asr.Provider] {
		return fmt.Errorf("%w: unknown asr.provider %q", ErrConfigInvalid, c.Asr.Provider)
	}
	if !validLlmProviders[c.Llm.Provider] {
		return fmt.Errorf("%w: unknown llm.provider %q", ErrConfigInvalid, c.Llm.Provider)
	}
	if c.Vad.Enabled {
		if c.Audio.Channels != 1 {
			return fmt.Errorf("%w: vad.enabled requires audio.channels == 1, got %d", ErrConfigInvalid, c.Audio.Channels)
		}
		if !validRates[c.Audio.SampleRate] {
			return fmt.Errorf("%w: vad.enabled requires audio.sample_rate in {8000,16000,32000,48000}, got %d", ErrConfigInvalid, c.Audio.SampleRate)
		}
		if !validFrameMs[c.Vad.FrameMs] {
			return fmt.Errorf("%w: vad.frame_ms must be one of {10,20,30}, got %d", ErrConfigInvalid, c.Vad.FrameMs)
		}
		if c.Vad.Aggressiveness < 0 || c.Vad.Aggressiveness > 3 {
			return fmt.Errorf("%w: vad.aggressiveness must be in [0,3], got %d", ErrConfigInvalid, c.Vad.Aggressiveness)
		}
		if c.Vad.SilenceMs <= 0 || c.Vad.PreSpeechMs <= 0 || c.Vad.MaxRecordMs <= 0 {
			return fmt.Errorf("%w: vad timing fields must be positive", ErrConfigInvalid)
		}
	}
	if c.Llm.Temperature < 0.0 || c.Llm.Temperature > 2.0 {
		return fmt.Errorf("%w: llm.temperature must be in [0.0,2.0], got %v", ErrConfigInvalid, c.Llm.Temperature)
	}
	if c.Llm.MaxTokens <= 0 {
		return fmt.Errorf("%w: llm.max_tokens must be > 0", ErrConfigInvalid)
	}
	if c.History.MaxTurns <= 0 {
		return fmt.Errorf("%w: history.max_turns must be > 0", ErrConfigInvalid)
	}
	if c.History.SummaryEveryNTurns < 0 {
		return fmt.Errorf("%w: history.summary_every_n_turns must be >= 0", ErrConfigInvalid)
	}
	if c.History.SummaryTargetTokens <= 0 {
		return fmt.Errorf("%w: history.summary_target_tokens must be > 0", ErrConfigInvalid)
	}
	if c.Asr.ChunkSeconds <= 0 || c.Asr.TimeoutMs <= 0 || c.Llm.TimeoutMs <= 0 {
		return fmt.Errorf("%w: timeout/duration fields must be positive", ErrConfigInvalid)
	}
	return nil
}

// ResolvePath resolves a path field against Paths.BaseDir when it is not
// already absolute.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.BaseDir, p)
}

// EnsureDirs creates the logs and audio directories if they do not exist.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ResolvePath(c.Paths.LogsDir), c.ResolvePath(c.Paths.AudioDir)} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrConfigInvalid, dir, err)
		}
	}
	return nil
}
