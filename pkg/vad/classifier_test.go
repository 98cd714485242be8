package vad

import (
	"math"
	"testing"
)

func toneFrame(amplitude float64, n int) []byte {
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(amplitude * 32767 * math.Sin(float64(i)))
		b[i*2] = byte(v)
		b[i*2+1] = byte(v >> 8)
	}
	return b
}

func TestRMSClassifierRequiresConsecutiveFrames(t *testing.T) {
	c := NewRMSClassifier(0.1, 0)
	c.SetMinConfirmed(3)
	loud := toneFrame(0.5, 160)

	if c.IsSpeech(loud) {
		t.Fatal("first loud frame should not yet confirm speech")
	}
	if c.IsSpeech(loud) {
		t.Fatal("second loud frame should not yet confirm speech")
	}
	if !c.IsSpeech(loud) {
		t.Fatal("third consecutive loud frame should confirm speech")
	}
}

func TestRMSClassifierSilenceResetsCount(t *testing.T) {
	c := NewRMSClassifier(0.1, 0)
	c.SetMinConfirmed(2)
	loud := toneFrame(0.5, 160)
	silent := make([]byte, 320)

	c.IsSpeech(loud)
	c.IsSpeech(silent)
	if c.IsSpeech(loud) {
		t.Fatal("confirmation count should have reset after a silent frame")
	}
}

func TestRMSClassifierAggressivenessRaisesThreshold(t *testing.T) {
	lenient := NewRMSClassifier(0.1, 0)
	lenient.SetMinConfirmed(1)
	strict := NewRMSClassifier(0.1, 3)
	strict.SetMinConfirmed(1)

	// Amplitude 0.2 gives an RMS of about 0.141: above the lenient
	// threshold (0.1) and below the strict one (0.1 * 1.75 = 0.175).
	moderate := toneFrame(0.2, 160)
	if !lenient.IsSpeech(moderate) {
		t.Error("lenient classifier should accept a moderately loud frame")
	}
	if strict.IsSpeech(moderate) {
		t.Error("strict (aggressiveness=3) classifier should reject the same frame")
	}
}
