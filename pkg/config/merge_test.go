package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesBaseLayer(t *testing.T) {
	dir := t.TempDir()
	base := writeTempYAML(t, dir, "base.yaml", "app:\n  name: myagent\nllm:\n  provider: anthropic\n")

	cfg, err := Load(base, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "myagent" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Llm.Provider != "anthropic" {
		t.Errorf("Llm.Provider = %q", cfg.Llm.Provider)
	}
	// Fields not set in the YAML must retain their defaults.
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("Audio.SampleRate = %d, want default 16000", cfg.Audio.SampleRate)
	}
}

func TestLoadDeviceProfileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	base := writeTempYAML(t, dir, "base.yaml", "audio:\n  sample_rate: 16000\n  channels: 1\n")
	profile := writeTempYAML(t, dir, "profile.yaml", "audio:\n  sample_rate: 48000\n")

	cfg, err := Load(base, profile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Audio.SampleRate = %d, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("Audio.Channels = %d, want 1 (preserved from base)", cfg.Audio.Channels)
	}
}

func TestLoadMissingFilesFallBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/base.yaml", "/nonexistent/profile.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("Load() with missing files = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadEnvOverrideWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	base := writeTempYAML(t, dir, "base.yaml", "audio:\n  sample_rate: 16000\n")

	t.Setenv("AGENT__AUDIO__SAMPLE_RATE", "48000")
	cfg, err := Load(base, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Audio.SampleRate = %d, want 48000 from env", cfg.Audio.SampleRate)
	}
}

func TestLoadRejectsInvalidMerged(t *testing.T) {
	dir := t.TempDir()
	base := writeTempYAML(t, dir, "base.yaml", "asr:\n  provider: bogus\n")

	_, err := Load(base, "")
	if err == nil {
		t.Fatal("expected validation error")
	}
}
