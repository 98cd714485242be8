// Package segment defines the immutable RecordingSegment value type
// produced by the VAD segmenter and consumed by the ASR port.
package segment

import "fmt"

// StoppedBy records why a capture ended.
type StoppedBy int

const (
	// StoppedSilence means sustained trailing silence ended the capture.
	StoppedSilence StoppedBy = iota
	// StoppedTimeout means max_record_ms elapsed.
	StoppedTimeout
	// StoppedSourceEnded means the frame source was exhausted.
	StoppedSourceEnded
)

func (s StoppedBy) String() string {
	switch s {
	case StoppedSilence:
		return "SILENCE"
	case StoppedTimeout:
		return "TIMEOUT"
	case StoppedSourceEnded:
		return "SOURCE_ENDED"
	default:
		return "UNKNOWN"
	}
}

// Segment carries a single captured utterance and its framing metadata.
// It is immutable once constructed.
type Segment struct {
	PCM        []byte
	SampleRate int
	Channels   int
	FrameMs    int
	StartMs    int
	EndMs      int
	StoppedBy  StoppedBy
}

// New validates and constructs a Segment. Channels must be 1; EndMs must
// be >= StartMs; pcm length must match the frame/time accounting exactly.
func New(pcm []byte, sampleRate, frameMs, startMs, endMs int, stoppedBy StoppedBy) (Segment, error) {
	if sampleRate <= 0 || frameMs <= 0 {
		return Segment{}, fmt.Errorf("segment: invalid sample_rate=%d frame_ms=%d", sampleRate, frameMs)
	}
	if endMs < startMs {
		return Segment{}, fmt.Errorf("segment: end_ms %d < start_ms %d", endMs, startMs)
	}
	wantLen := (endMs - startMs) / frameMs * frameMs * sampleRate / 1000 * 2
	if len(pcm) != wantLen {
		return Segment{}, fmt.Errorf("segment: pcm length %d does not match expected %d", len(pcm), wantLen)
	}
	return Segment{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		FrameMs:    frameMs,
		StartMs:    startMs,
		EndMs:      endMs,
		StoppedBy:  stoppedBy,
	}, nil
}

// Empty reports whether the segment carries no captured audio.
func (s Segment) Empty() bool {
	return len(s.PCM) == 0
}

// DurationMs returns EndMs - StartMs.
func (s Segment) DurationMs() int {
	return s.EndMs - s.StartMs
}
