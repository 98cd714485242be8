// Package pcmutil provides deterministic PCM16 format conversions: downmix,
// resample, and int16/float32 interchange. Every function operates on
// byte-aligned little-endian PCM16 and returns a newly allocated buffer,
// never aliasing its input.
package pcmutil

import "math"

// BytesPerSample is the width of one PCM16 sample.
const BytesPerSample = 2

// FrameBytes returns the byte length of a mono frame of frameMs at
// sampleRate, per the frame-size law: sampleRate * frameMs / 1000 * 2.
func FrameBytes(sampleRate, frameMs int) int {
	return sampleRate * frameMs / 1000 * BytesPerSample
}

// Downmix averages interleaved channel samples down to mono, rounding to
// the nearest int16 and saturating on overflow. Downmixing a mono stream
// (channels == 1) is the identity function.
func Downmix(pcm []byte, channels int) []byte {
	if channels <= 1 {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out
	}

	frameBytes := channels * BytesPerSample
	groups := len(pcm) / frameBytes
	out := make([]byte, groups*BytesPerSample)

	for g := 0; g < groups; g++ {
		var sum int32
		base := g * frameBytes
		for c := 0; c < channels; c++ {
			s := decodeInt16(pcm[base+c*BytesPerSample:])
			sum += int32(s)
		}
		avg := float64(sum) / float64(channels)
		encodeInt16(out[g*BytesPerSample:], saturateInt16(math.Round(avg)))
	}
	return out
}

// Int16ToFloat32 converts interleaved PCM16 samples to float32 in [-1, 1].
func Int16ToFloat32(pcm []byte) []float32 {
	n := len(pcm) / BytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := decodeInt16(pcm[i*BytesPerSample:])
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Float32ToInt16 converts float32 samples in [-1, 1] to interleaved PCM16,
// saturating on clip.
func Float32ToInt16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		v := float64(s) * 32768.0
		encodeInt16(out[i*BytesPerSample:], saturateInt16(v))
	}
	return out
}

// Resample converts mono PCM16 from srcRate to dstRate. When the rates are
// equal it returns the input unchanged (resample identity). When dst/src
// reduces to integer up/down factors of at most 64 (true for every pair
// in {8000,16000,32000,48000}, not for 44100 against any of them), it
// interpolates linearly between neighbouring source samples at the
// rational positions i*down/up; no anti-aliasing filter is applied, so an
// integer downsampling ratio simply keeps every down-th sample. Otherwise
// it falls back to linear interpolation in float32, then clips back to
// int16.
func Resample(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate == dstRate {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out
	}
	up, down, ok := rationalFactors(srcRate, dstRate)
	if ok {
		return resamplePolyphase(pcm, up, down)
	}
	return resampleLinear(pcm, srcRate, dstRate)
}

// rationalFactors reduces dst/src to lowest terms via their GCD. Returns
// ok=false when either factor exceeds 64 (callers fall back to linear
// interpolation).
func rationalFactors(srcRate, dstRate int) (up, down int, ok bool) {
	g := gcd(srcRate, dstRate)
	up = dstRate / g
	down = srcRate / g
	if up > 64 || down > 64 {
		return 0, 0, false
	}
	return up, down, true
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// resamplePolyphase resamples by integer up/down factors, computing each
// output sample by linear interpolation at the source position
// i*down/up. It is not a filtered polyphase resampler: no low-pass or
// anti-aliasing filter is applied. The result is deterministic.
func resamplePolyphase(pcm []byte, up, down int) []byte {
	n := len(pcm) / BytesPerSample
	if n == 0 {
		return []byte{}
	}
	src := make([]float64, n)
	for i := 0; i < n; i++ {
		src[i] = float64(decodeInt16(pcm[i*BytesPerSample:]))
	}

	outLen := (n * up) / down
	out := make([]byte, outLen*BytesPerSample)
	for i := 0; i < outLen; i++ {
		// Position in the source timeline for output sample i, expressed
		// as a rational index i*down/up, interpolated linearly between
		// its two neighboring source samples.
		pos := float64(i) * float64(down) / float64(up)
		lo := int(math.Floor(pos))
		frac := pos - float64(lo)
		var v float64
		switch {
		case lo < 0:
			v = src[0]
		case lo >= n-1:
			v = src[n-1]
		default:
			v = src[lo]*(1-frac) + src[lo+1]*frac
		}
		encodeInt16(out[i*BytesPerSample:], saturateInt16(v))
	}
	return out
}

func resampleLinear(pcm []byte, srcRate, dstRate int) []byte {
	floats := Int16ToFloat32(pcm)
	n := len(floats)
	if n == 0 {
		return []byte{}
	}
	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(n) / ratio)
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		lo := int(math.Floor(pos))
		frac := float32(pos - float64(lo))
		var v float32
		switch {
		case lo < 0:
			v = floats[0]
		case lo >= n-1:
			v = floats[n-1]
		default:
			v = floats[lo]*(1-frac) + floats[lo+1]*frac
		}
		out[i] = v
	}
	return Float32ToInt16(out)
}

func decodeInt16(b []byte) int16 {
	return int16(uint16(b[0]) | uint16(b[1])<<8)
}

func encodeInt16(b []byte, v int16) {
	u := uint16(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
}

func saturateInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(math.Round(v))
}
