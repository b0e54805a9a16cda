package windowing

import (
	"fmt"
	"math"
)

// Window is a precomputed tapering function applied to analysis frames
type Window interface {
	Apply(frame []float64) []float64
	ApplyInPlace(frame []float64) error
	Size() int
}

// Hann represents a Hann window function.
// The periodic form (denominator N) is used for spectral analysis; the
// symmetric form (denominator N-1) for filter design.
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

// NewPeriodicHann creates the window used by the STFT and the pitch tracker
func NewPeriodicHann(size int) *Hann {
	return NewHann(size, false)
}

func (h *Hann) generate() {
	if h.size <= 0 {
		h.coefficients = []float64{}
		return
	}
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1.0
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// Apply returns a windowed copy of frame. A frame shorter than the window is
// treated as zero padded; samples past the window length are dropped.
func (h *Hann) Apply(frame []float64) []float64 {
	windowed := make([]float64, h.size)
	n := min(len(frame), h.size)
	for i := 0; i < n; i++ {
		windowed[i] = frame[i] * h.coefficients[i]
	}
	return windowed
}

// ApplyInPlace applies the window to a frame in-place
func (h *Hann) ApplyInPlace(frame []float64) error {
	if len(frame) != h.size {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), h.size)
	}

	for i := range frame {
		frame[i] *= h.coefficients[i]
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (h *Hann) Coefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// Size returns the window size
func (h *Hann) Size() int {
	return h.size
}
