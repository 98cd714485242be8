package vad

import "math"

// Classifier reports whether a single frame of mono PCM16 at the
// Segmenter's target sample rate contains voice activity. Implementations
// are swapped by composition; the Segmenter never inspects which concrete
// type it was given.
//
// RMSClassifier below is the only implementation wired into this module.
// github.com/streamer45/silero-vad-go is a plausible second Classifier
// (a real ONNX-backed model used by longregen-alicia in the corpus) but
// is not wired here: it pulls in a native ONNX runtime this module has no
// other use for, so it stays a documented future option rather than an
// unreachable import.
type Classifier interface {
	// IsSpeech classifies exactly one frame. Frames of unexpected length
	// are the Segmenter's concern, not the classifier's: a Classifier may
	// assume it is only ever called with correctly sized frames.
	IsSpeech(frame []byte) bool
	// Reset clears any hysteresis state, e.g. at the start of a new
	// CaptureUntilSilence call.
	Reset()
	Name() string
}

// RMSClassifier is an energy-based Classifier requiring MinConfirmed
// consecutive above-threshold frames before reporting speech, which
// filters spikes and transient pops rather than firing on the first loud
// sample.
type RMSClassifier struct {
	threshold    float64
	minConfirmed int
	consecutive  int
	aggressive   int
}

// NewRMSClassifier builds a classifier at the given aggressiveness
// (0-3, higher rejects more borderline frames by raising the effective
// threshold) and base RMS threshold in [0,1].
func NewRMSClassifier(threshold float64, aggressiveness int) *RMSClassifier {
	if aggressiveness < 0 {
		aggressiveness = 0
	}
	if aggressiveness > 3 {
		aggressiveness = 3
	}
	return &RMSClassifier{
		threshold:    threshold,
		minConfirmed: 2,
		aggressive:   aggressiveness,
	}
}

// SetMinConfirmed overrides the number of consecutive frames required to
// confirm speech start. Default is 2.
func (c *RMSClassifier) SetMinConfirmed(n int) {
	if n < 1 {
		n = 1
	}
	c.minConfirmed = n
}

func (c *RMSClassifier) Name() string { return "rms_classifier" }

func (c *RMSClassifier) Reset() {
	c.consecutive = 0
}

func (c *RMSClassifier) IsSpeech(frame []byte) bool {
	rms := calculateRMS(frame)
	// Aggressiveness scales the effective threshold up: level 3 is the
	// most conservative about calling a frame speech.
	effective := c.threshold * (1.0 + float64(c.aggressive)*0.25)

	if rms <= effective {
		c.consecutive = 0
		return false
	}
	c.consecutive++
	return c.consecutive >= c.minConfirmed
}

func calculateRMS(chunk []byte) float64 {
	if len(chunk) < 2 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(chunk); i += 2 {
		sample := int16(chunk[i]) | int16(chunk[i+1])<<8
		f := float64(sample) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(chunk)/2))
}
