package segment

import "testing"

func TestNewValidates(t *testing.T) {
	pcm := make([]byte, 960) // 16000 * 30/1000 * 2
	s, err := New(pcm, 16000, 30, 0, 30, StoppedSilence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Channels != 1 {
		t.Errorf("Channels = %d, want 1", s.Channels)
	}
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	pcm := make([]byte, 10)
	if _, err := New(pcm, 16000, 30, 0, 30, StoppedSilence); err == nil {
		t.Error("expected error for mismatched pcm length")
	}
}

func TestNewRejectsEndBeforeStart(t *testing.T) {
	if _, err := New(nil, 16000, 30, 100, 50, StoppedSilence); err == nil {
		t.Error("expected error for end_ms < start_ms")
	}
}

func TestEmpty(t *testing.T) {
	s, _ := New(nil, 16000, 30, 0, 0, StoppedSilence)
	if !s.Empty() {
		t.Error("expected Empty() true for zero-length pcm")
	}
}

func TestStoppedByString(t *testing.T) {
	if StoppedTimeout.String() != "TIMEOUT" {
		t.Errorf("String() = %s, want TIMEOUT", StoppedTimeout.String())
	}
}
