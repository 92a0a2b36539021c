package audio

import (
	"encoding/binary"
	"math"
)

// Downmix averages interleaved frames of the given channel count into buf,
// growing it when needed, and returns the mono samples. Mono input is
// returned unchanged. Trailing samples that do not fill a frame are dropped.
func Downmix(in []float32, channels int, buf []float32) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	if cap(buf) < frames {
		buf = make([]float32, frames)
	}
	out := buf[:frames]
	for i := range out {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += in[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// DecodeFloat32LE decodes up to n little-endian float32 samples from raw
// into buf, growing it when needed.
func DecodeFloat32LE(raw []byte, n int, buf []float32) []float32 {
	if avail := len(raw) / 4; n > avail {
		n = avail
	}
	if cap(buf) < n {
		buf = make([]float32, n)
	}
	out := buf[:n]
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
