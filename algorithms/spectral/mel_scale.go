package spectral

import (
	"math"
)

// HzToMel converts frequency in Hz to the HTK mel scale
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts HTK mel back to Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// MelFilterBank is a bank of triangular filters over the non-negative FFT bins
type MelFilterBank struct {
	filters [][]float64
}

// NewMelFilterBank builds numFilters triangular filters spanning [lowFreq, highFreq].
// A highFreq of 0 means the Nyquist frequency.
func NewMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) *MelFilterBank {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return &MelFilterBank{filters: [][]float64{}}
	}
	if highFreq <= 0 || highFreq > float64(sampleRate)/2 {
		highFreq = float64(sampleRate) / 2
	}

	numBins := fftSize/2 + 1
	lowMel := HzToMel(lowFreq)
	highMel := HzToMel(highFreq)

	// Edge frequencies of the filters, in fractional bins
	edges := make([]float64, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range edges {
		hz := MelToHz(lowMel + float64(i)*melStep)
		edges[i] = hz * float64(fftSize) / float64(sampleRate)
	}

	filters := make([][]float64, numFilters)
	for m := 0; m < numFilters; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		filter := make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			bin := float64(k)
			switch {
			case bin > left && bin < center:
				filter[k] = (bin - left) / (center - left)
			case bin >= center && bin < right:
				filter[k] = (right - bin) / (right - center)
			}
		}
		filters[m] = filter
	}

	return &MelFilterBank{filters: filters}
}

// NumFilters returns the number of mel bands
func (mb *MelFilterBank) NumFilters() int {
	return len(mb.filters)
}

// Apply projects a power spectrum onto the mel bands
func (mb *MelFilterBank) Apply(powerSpectrum []float64) []float64 {
	melSpectrum := make([]float64, len(mb.filters))
	for i, filter := range mb.filters {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}
	return melSpectrum
}

// ApplyFrames projects every frame of a power spectrogram
func (mb *MelFilterBank) ApplyFrames(powerSpectrogram [][]float64) [][]float64 {
	mel := make([][]float64, len(powerSpectrogram))
	for t, frame := range powerSpectrogram {
		mel[t] = mb.Apply(frame)
	}
	return mel
}
