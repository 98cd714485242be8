// Package vad implements the streaming voice-activity segmenter: it
// normalizes raw device audio into mono target-rate frames and emits one
// RecordingSegment per sustained-silence boundary.
package vad

import (
	"context"
	"errors"
	"fmt"

	"github.com/latticevoice/agent/pkg/pcmutil"
	"github.com/latticevoice/agent/pkg/segment"
)

var validSampleRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}
var validFrameMs = map[int]bool{10: true, 20: true, 30: true}

// ErrCancelled is returned when the capturing context is cancelled
// mid-capture.
var ErrCancelled = errors.New("vad: capture cancelled")

// Config holds the Segmenter's tunables, all validated at construction.
type Config struct {
	Aggressiveness int
	FrameMs        int
	SilenceMs      int
	PreSpeechMs    int
	SampleRate     int
	MaxRecordMs    int
}

func (c Config) validate() error {
	if c.Aggressiveness < 0 || c.Aggressiveness > 3 {
		return fmt.Errorf("vad: aggressiveness %d out of range [0,3]", c.Aggressiveness)
	}
	if !validFrameMs[c.FrameMs] {
		return fmt.Errorf("vad: frame_ms %d not in {10,20,30}", c.FrameMs)
	}
	if c.SilenceMs <= 0 {
		return fmt.Errorf("vad: silence_ms must be > 0")
	}
	if c.PreSpeechMs <= 0 {
		return fmt.Errorf("vad: pre_speech_ms must be > 0")
	}
	if !validSampleRates[c.SampleRate] {
		return fmt.Errorf("vad: sample_rate %d not in {8000,16000,32000,48000}", c.SampleRate)
	}
	if c.MaxRecordMs <= 0 {
		return fmt.Errorf("vad: max_record_ms must be > 0")
	}
	return nil
}

// Segmenter normalizes device-native PCM16 chunks and segments them into
// speech utterances bounded by trailing silence.
type Segmenter struct {
	cfg        Config
	classifier Classifier

	deviceRate     int
	deviceChannels int
	carry          []byte // owned by the stream, survives across calls
	frameBytes     int
}

// New constructs a Segmenter. classifier must not be nil.
func New(cfg Config, classifier Classifier) (*Segmenter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, errors.New("vad: classifier must not be nil")
	}
	return &Segmenter{cfg: cfg, classifier: classifier}, nil
}

// SampleRate returns the Segmenter's target sample rate.
func (s *Segmenter) SampleRate() int { return s.cfg.SampleRate }

// FrameMs returns the Segmenter's frame duration.
func (s *Segmenter) FrameMs() int { return s.cfg.FrameMs }

// Open configures the normalization pipeline for a device delivering
// chunks at deviceRate/deviceChannels, and resets the carry-over buffer.
func (s *Segmenter) Open(deviceRate, deviceChannels int) error {
	if deviceRate <= 0 || deviceChannels <= 0 {
		return fmt.Errorf("vad: invalid device format rate=%d channels=%d", deviceRate, deviceChannels)
	}
	s.deviceRate = deviceRate
	s.deviceChannels = deviceChannels
	s.frameBytes = pcmutil.FrameBytes(s.cfg.SampleRate, s.cfg.FrameMs)
	s.carry = nil
	return nil
}

// Close is idempotent and releases the carry-over buffer.
func (s *Segmenter) Close() error {
	s.carry = nil
	return nil
}

// normalize downmixes, resamples, and reframes one device chunk, updating
// the stream-owned carry-over buffer. No sample is ever dropped across
// chunk boundaries.
func (s *Segmenter) normalize(chunk []byte) [][]byte {
	mono := pcmutil.Downmix(chunk, s.deviceChannels)
	resampled := pcmutil.Resample(mono, s.deviceRate, s.cfg.SampleRate)

	combined := make([]byte, len(s.carry)+len(resampled))
	copy(combined, s.carry)
	copy(combined[len(s.carry):], resampled)

	nFull := len(combined) / s.frameBytes
	frames := make([][]byte, nFull)
	for i := 0; i < nFull; i++ {
		frames[i] = combined[i*s.frameBytes : (i+1)*s.frameBytes]
	}
	s.carry = combined[nFull*s.frameBytes:]
	return frames
}

type segState int

const (
	stateIdlePre segState = iota
	stateSpeaking
)

// CaptureUntilSilence consumes frameSource until a sustained-silence
// boundary, the hard timeout, or source exhaustion, and returns exactly
// one Segment. The classifier's hysteresis state is reset at the start
// of every call; the normalization carry-over is not (it belongs to the
// stream, per Open/Close).
func (s *Segmenter) CaptureUntilSilence(ctx context.Context, frameSource <-chan []byte) (segment.Segment, error) {
	s.classifier.Reset()

	preRollCap := ceilDiv(s.cfg.PreSpeechMs, s.cfg.FrameMs)
	silenceThreshold := ceilDiv(s.cfg.SilenceMs, s.cfg.FrameMs)

	var preRoll [][]byte
	var captured [][]byte
	state := stateIdlePre
	silenceCount := 0
	framesSeen := 0

	finish := func(stoppedBy segment.StoppedBy) (segment.Segment, error) {
		pcm := make([]byte, 0, len(captured)*s.frameBytes)
		for _, f := range captured {
			pcm = append(pcm, f...)
		}
		endMs := len(captured) * s.cfg.FrameMs
		return segment.New(pcm, s.cfg.SampleRate, s.cfg.FrameMs, 0, endMs, stoppedBy)
	}

	for {
		select {
		case <-ctx.Done():
			return segment.Segment{}, ErrCancelled
		case chunk, ok := <-frameSource:
			if !ok {
				return finish(segment.StoppedSourceEnded)
			}

			for _, frame := range s.normalize(chunk) {
				framesSeen++
				speech := s.classifier.IsSpeech(frame)

				switch state {
				case stateIdlePre:
					if speech {
						state = stateSpeaking
						captured = append(captured, preRoll...)
						preRoll = nil
						captured = append(captured, frame)
						silenceCount = 0
					} else {
						preRoll = append(preRoll, frame)
						if preRollCap > 0 && len(preRoll) > preRollCap {
							preRoll = preRoll[len(preRoll)-preRollCap:]
						}
					}
				case stateSpeaking:
					captured = append(captured, frame)
					if speech {
						silenceCount = 0
					} else {
						silenceCount++
						if silenceCount >= silenceThreshold {
							return finish(segment.StoppedSilence)
						}
					}
				}

				if framesSeen*s.cfg.FrameMs >= s.cfg.MaxRecordMs {
					return finish(segment.StoppedTimeout)
				}
			}
		}
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
