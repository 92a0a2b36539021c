package audio

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"

	"github.com/leandrodaf/vjsense/sdk/contracts"
	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// DefaultTransformSize is the number of samples per FFT.
const DefaultTransformSize = 1024

// Window names accepted by NewTransformer.
const (
	WindowNone     = "none"
	WindowHann     = "hann"
	WindowHamming  = "hamming"
	WindowBlackman = "blackman"
	WindowBartlett = "bartlett"
	WindowFlatTop  = "flattop"
)

// Errors returned by NewTransformer.
var (
	ErrInvalidSize   = errors.New("transform size must be a positive power of two")
	ErrUnknownWindow = errors.New("unknown analysis window")
)

var windows = map[string]func(int) []float64{
	WindowHann:     window.Hann,
	WindowHamming:  window.Hamming,
	WindowBlackman: window.Blackman,
	WindowBartlett: window.Bartlett,
	WindowFlatTop:  window.FlatTop,
}

// Transformer turns blocks of samples into magnitude spectra. The input
// buffer, window coefficients and FFT twiddle factors are allocated once.
// A Transformer is not safe for concurrent use; the capture driver calls it
// from a single thread.
type Transformer struct {
	size   int
	buf    []complex128
	coeffs []float64
}

// NewTransformer prepares a transform of size points (a power of two) with
// the named analysis window ("" or "none" for raw samples).
func NewTransformer(size int, windowName string) (*Transformer, error) {
	if size <= 0 || !dsputils.IsPowerOf2(size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	t := &Transformer{size: size, buf: make([]complex128, size)}

	name := strings.ToLower(windowName)
	if name != "" && name != WindowNone {
		fn, ok := windows[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWindow, windowName)
		}
		t.coeffs = fn(size)
	}

	fft.EnsureRadix2Factors(size)
	return t, nil
}

// Size returns the number of bins in every frame.
func (t *Transformer) Size() int {
	return t.size
}

// Process copies up to Size samples into the buffer, zeroes whatever a short
// block did not fill, and returns the magnitude of every bin. Extra samples
// beyond Size are ignored.
func (t *Transformer) Process(samples []float32) contracts.SpectrumFrame {
	n := len(samples)
	if n > t.size {
		n = t.size
	}
	for i := 0; i < n; i++ {
		v := float64(samples[i])
		if t.coeffs != nil {
			v *= t.coeffs[i]
		}
		t.buf[i] = complex(v, 0)
	}
	for i := n; i < t.size; i++ {
		t.buf[i] = 0
	}

	bins := fft.FFT(t.buf)

	frame := make(contracts.SpectrumFrame, t.size)
	for i, c := range bins {
		frame[i] = float32(cmplx.Abs(c))
	}
	return frame
}
