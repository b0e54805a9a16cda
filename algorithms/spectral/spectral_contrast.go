package spectral

import (
	"math"
	"slices"
)

// SpectralContrast measures the peak-to-valley level difference per octave band.
// Bands are [0, fmin), [fmin, 2fmin), ... with the last band reaching Nyquist,
// giving numBands+1 values per frame.
type SpectralContrast struct {
	sampleRate int
	numBands   int
	minFreq    float64
	quantile   float64
}

// NewSpectralContrast creates a contrast calculator with octave bands from 200 Hz
func NewSpectralContrast(sampleRate int, numBands int) *SpectralContrast {
	return &SpectralContrast{
		sampleRate: sampleRate,
		numBands:   numBands,
		minFreq:    200.0,
		quantile:   0.02,
	}
}

// Compute calculates spectral contrast in dB for a single magnitude spectrum
func (sc *SpectralContrast) Compute(magnitudeSpectrum []float64) []float64 {
	contrast := make([]float64, sc.numBands+1)
	if len(magnitudeSpectrum) < 2 {
		return contrast
	}

	edges := sc.bandEdges(len(magnitudeSpectrum))
	for band := 0; band < sc.numBands+1; band++ {
		start, end := edges[band], edges[band+1]
		if start >= end {
			continue
		}
		contrast[band] = sc.bandContrast(magnitudeSpectrum[start:end])
	}

	return contrast
}

// ComputeFrames processes multiple frames
func (sc *SpectralContrast) ComputeFrames(spectrogram [][]float64) [][]float64 {
	contrasts := make([][]float64, len(spectrogram))
	for t, magnitudeSpectrum := range spectrogram {
		contrasts[t] = sc.Compute(magnitudeSpectrum)
	}
	return contrasts
}

func (sc *SpectralContrast) bandContrast(band []float64) float64 {
	sorted := slices.Clone(band)
	slices.Sort(sorted)

	count := max(1, int(math.Round(sc.quantile*float64(len(sorted)))))

	valley := 0.0
	for _, v := range sorted[:count] {
		valley += v
	}
	valley /= float64(count)

	peak := 0.0
	for _, v := range sorted[len(sorted)-count:] {
		peak += v
	}
	peak /= float64(count)

	const amin = 1e-10
	return 10.0*math.Log10(math.Max(peak, amin)) - 10.0*math.Log10(math.Max(valley, amin))
}

// bandEdges returns numBands+2 bin boundaries
func (sc *SpectralContrast) bandEdges(numBins int) []int {
	fftSize := (numBins - 1) * 2
	edges := make([]int, sc.numBands+2)
	for i := 1; i <= sc.numBands; i++ {
		freq := sc.minFreq * math.Pow(2, float64(i-1))
		bin := int(math.Round(freq * float64(fftSize) / float64(sc.sampleRate)))
		edges[i] = min(bin, numBins)
	}
	edges[sc.numBands+1] = numBins
	for i := 1; i < len(edges); i++ {
		edges[i] = max(edges[i], edges[i-1])
	}
	return edges
}

// MeanContrast averages every band of every frame
func MeanContrast(contrasts [][]float64) float64 {
	sum, n := 0.0, 0
	for _, frame := range contrasts {
		for _, v := range frame {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
