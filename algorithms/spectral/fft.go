package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform of a real signal using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeInverseReal computes inverse FFT and returns real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))
	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// Magnitude returns |X[k]| for the non-negative frequency bins (N/2+1 values)
func (f *FFT) Magnitude(x []float64) []float64 {
	spectrum := f.Compute(x)
	if len(spectrum) == 0 {
		return []float64{}
	}

	bins := len(spectrum)/2 + 1
	magnitude := make([]float64, bins)
	for i := 0; i < bins; i++ {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}
	return magnitude
}

// BinFrequency converts an FFT bin index to Hz
func BinFrequency(bin float64, fftSize, sampleRate int) float64 {
	if fftSize <= 0 {
		return 0
	}
	return bin * float64(sampleRate) / float64(fftSize)
}
