package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// ErrDeviceUnavailable is returned when no candidate device/format
// combination is accepted by the driver.
type ErrDeviceUnavailable struct {
	Identifier string
	Reason     string
}

func (e *ErrDeviceUnavailable) Error() string {
	return fmt.Sprintf("audio: device %q unavailable: %s", e.Identifier, e.Reason)
}

// hostAPIPreference ranks host backends malgo may expose on the running
// platform; entries earlier in the list are preferred when two candidate
// devices otherwise tie. malgo's device enumeration carries no portable
// per-device host-API tag (unlike PyAudio's hostApi field), so the rank
// is read off whichever of these names appears in the device's own
// driver-reported name, the closest portable proxy available.
var hostAPIPreference = []string{"wasapi", "coreaudio", "alsa", "pulseaudio", "jack"}

var fallbackProbes = [][2]int{{48000, 1}, {48000, 2}, {44100, 1}, {44100, 2}}

// Source is the capture-only Audio Source: it resolves a capture device,
// probes a supported (rate, channels) pair, and yields device-native PCM16
// chunks on Frames(). It never writes audio back out.
type Source struct {
	deviceIdentifier string
	desiredRate      int
	desiredChannels  int
	frameMs          int

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	sampleRate int
	channels   int
	frames     chan []byte
	closed     chan struct{}
}

// New constructs a Source. deviceIdentifier may be an integer index as a
// string, a case-insensitive substring of a device name, "default", or
// empty (equivalent to "default").
func New(deviceIdentifier string, desiredRate, desiredChannels, frameMs int) *Source {
	return &Source{
		deviceIdentifier: deviceIdentifier,
		desiredRate:      desiredRate,
		desiredChannels:  desiredChannels,
		frameMs:          frameMs,
	}
}

// SampleRate is the device-native rate the stream was opened at.
func (s *Source) SampleRate() int { return s.sampleRate }

// Channels is the device-native channel count the stream was opened at.
func (s *Source) Channels() int { return s.channels }

// FrameMs is the configured frame duration.
func (s *Source) FrameMs() int { return s.frameMs }

// Open resolves the device, probes a supported format, and starts
// capturing into an internal channel consumed via Frames().
func (s *Source) Open(ctx context.Context) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return &ErrDeviceUnavailable{Identifier: s.deviceIdentifier, Reason: err.Error()}
	}
	s.malgoCtx = mctx

	deviceID, err := s.resolveDevice(mctx)
	if err != nil {
		mctx.Uninit()
		return err
	}

	rate, channels, err := s.probeFormat(mctx, deviceID)
	if err != nil {
		mctx.Uninit()
		return err
	}

	frameBytes := rate * s.frameMs / 1000
	s.frames = make(chan []byte, 8)
	s.closed = make(chan struct{})

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(rate)
	deviceConfig.PeriodSizeInFrames = uint32(frameBytes)
	if deviceID != nil {
		deviceConfig.Capture.DeviceID = deviceID
	}

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		if pInput == nil {
			return
		}
		chunk := make([]byte, len(pInput))
		copy(chunk, pInput)
		select {
		case s.frames <- chunk:
		case <-s.closed:
		default:
			// Overflow is non-fatal per spec: an occasional dropped chunk
			// is acceptable, never a fatal error.
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		mctx.Uninit()
		return &ErrDeviceUnavailable{Identifier: s.deviceIdentifier, Reason: err.Error()}
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return &ErrDeviceUnavailable{Identifier: s.deviceIdentifier, Reason: err.Error()}
	}

	s.device = device
	s.sampleRate = rate
	s.channels = channels
	return nil
}

// Frames returns the single-consumer channel of device-native PCM16
// chunks. It stays open until Close.
func (s *Source) Frames() <-chan []byte {
	return s.frames
}

// Close is idempotent and stops capture.
func (s *Source) Close() error {
	if s.closed != nil {
		select {
		case <-s.closed:
			return nil
		default:
			close(s.closed)
		}
	}
	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	if s.malgoCtx != nil {
		s.malgoCtx.Uninit()
		s.malgoCtx = nil
	}
	return nil
}

// resolveDevice ranks enumerated capture devices by identifier match,
// falling back to the system default when the identifier is empty or the
// literal "default". Once an identifier narrows the field to a substring
// match, every remaining candidate is scored by scoreCandidate and the
// highest scorer wins, rather than taking the first name that matches.
func (s *Source) resolveDevice(mctx *malgo.AllocatedContext) (malgo.DeviceID, error) {
	infos, err := mctx.Devices(malgo.Capture)
	if err != nil || len(infos) == 0 {
		// No enumeration available; let malgo pick its own default device.
		return malgo.DeviceID{}, nil
	}

	ident := strings.TrimSpace(s.deviceIdentifier)
	if ident == "" || strings.EqualFold(ident, "default") {
		for _, info := range infos {
			if info.IsDefault != 0 {
				return info.ID, nil
			}
		}
		return infos[0].ID, nil
	}

	// Integer index match.
	if idx, ok := parseIndex(ident); ok {
		if idx < 0 || idx >= len(infos) {
			return malgo.DeviceID{}, &ErrDeviceUnavailable{Identifier: ident, Reason: "index out of range"}
		}
		return infos[idx].ID, nil
	}

	// Case-insensitive substring match; among the survivors, rank by
	// (host-API preference, rate match, channel match, probed format
	// support, has an input channel) and take the best scorer.
	needle := strings.ToLower(ident)
	var matches []malgo.DeviceInfo
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), needle) {
			matches = append(matches, info)
		}
	}
	if len(matches) == 0 {
		return malgo.DeviceID{}, &ErrDeviceUnavailable{Identifier: ident, Reason: "no device name contains identifier"}
	}

	best := matches[0]
	bestScore := s.scoreDeviceInfo(mctx, best)
	for _, info := range matches[1:] {
		if score := s.scoreDeviceInfo(mctx, info); score > bestScore {
			best, bestScore = info, score
		}
	}
	return best.ID, nil
}

// deviceCandidate is the scoring input for a single device, stripped of
// any malgo type so scoreCandidate can be exercised without real hardware.
type deviceCandidate struct {
	name              string
	isDefault         bool
	rateSupported     bool
	channelsSupported bool
	formatSupported   bool
	hasInputChannel   bool
}

// scoreCandidate ports octavius/utils/devices.py's _score_device: host-API
// rank first, then rate match, channel match, full probed-format support,
// and a flat bonus for having at least one input channel at all.
func scoreCandidate(c deviceCandidate) int {
	score := hostAPIRank(c.name)
	if c.rateSupported {
		score += 2
	}
	if c.channelsSupported {
		score += 2
	}
	if c.formatSupported {
		score += 3
	}
	if c.hasInputChannel {
		score += 1
	}
	if c.isDefault {
		score += 1
	}
	return score
}

// hostAPIRank returns the preference weight of the first hostAPIPreference
// entry found in name, or 0 when none match.
func hostAPIRank(name string) int {
	lower := strings.ToLower(name)
	weight := len(hostAPIPreference)
	for _, pref := range hostAPIPreference {
		if strings.Contains(lower, pref) {
			return weight
		}
		weight--
	}
	return 0
}

// scoreDeviceInfo probes info against the Source's desired format to build
// a deviceCandidate and scores it. Every probe opens and immediately tears
// down a trial device, the same technique probeFormat uses.
func (s *Source) scoreDeviceInfo(mctx *malgo.AllocatedContext, info malgo.DeviceInfo) int {
	cand := deviceCandidate{
		name:              info.Name(),
		isDefault:         info.IsDefault != 0,
		rateSupported:     s.probeOpens(mctx, info.ID, s.desiredRate, 1),
		channelsSupported: s.probeOpens(mctx, info.ID, 48000, s.desiredChannels),
		formatSupported:   s.probeOpens(mctx, info.ID, s.desiredRate, s.desiredChannels),
		hasInputChannel:   true, // info came from mctx.Devices(malgo.Capture)
	}
	return scoreCandidate(cand)
}

// probeOpens reports whether deviceID accepts a capture stream at
// (rate, channels), tearing the trial device down immediately either way.
func (s *Source) probeOpens(mctx *malgo.AllocatedContext, deviceID malgo.DeviceID, rate, channels int) bool {
	if rate <= 0 || channels <= 0 {
		return false
	}
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(channels)
	cfg.SampleRate = uint32(rate)
	cfg.Capture.DeviceID = deviceID

	trial, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{})
	if err != nil {
		return false
	}
	trial.Uninit()
	return true
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// probeFormat tries (desiredRate, desiredChannels) then the documented
// fallback sequence, in order, opening and immediately tearing down a
// trial device for each candidate until one succeeds.
func (s *Source) probeFormat(mctx *malgo.AllocatedContext, deviceID malgo.DeviceID) (rate, channels int, err error) {
	candidates := append([][2]int{{s.desiredRate, s.desiredChannels}}, fallbackProbes...)

	var lastErr error
	for _, c := range candidates {
		if c[0] <= 0 || c[1] <= 0 {
			continue
		}
		cfg := malgo.DefaultDeviceConfig(malgo.Capture)
		cfg.Capture.Format = malgo.FormatS16
		cfg.Capture.Channels = uint32(c[1])
		cfg.SampleRate = uint32(c[0])
		cfg.Capture.DeviceID = deviceID

		trial, trialErr := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{})
		if trialErr == nil {
			trial.Uninit()
			return c[0], c[1], nil
		}
		lastErr = trialErr
	}

	reason := "no supported (rate, channels) format"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	return 0, 0, &ErrDeviceUnavailable{Identifier: s.deviceIdentifier, Reason: reason}
}
