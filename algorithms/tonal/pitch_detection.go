package tonal

import (
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/algorithms/spectral"
	"github.com/RyanBlaney/sonido-coach/algorithms/windowing"
)

// PitchMethod selects the per-frame F0 estimator
type PitchMethod string

const (
	// PitchMethodSpectral takes the dominant magnitude peak inside the pitch range
	PitchMethodSpectral PitchMethod = "spectral"
	// PitchMethodYin uses the YIN cumulative mean normalized difference
	PitchMethodYin PitchMethod = "yin"
)

// ParsePitchMethod validates a configured method name
func ParsePitchMethod(s string) (PitchMethod, error) {
	switch PitchMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PitchMethodSpectral, "":
		return PitchMethodSpectral, nil
	case PitchMethodYin:
		return PitchMethodYin, nil
	default:
		return "", fmt.Errorf("unknown pitch method %q", s)
	}
}

// PitchTrackerParams contains parameters for pitch tracking
type PitchTrackerParams struct {
	Method     PitchMethod `json:"method"`
	SampleRate int         `json:"sample_rate"`

	FrameDuration float64 `json:"frame_duration"` // seconds; hop is half of it

	MinFreq float64 `json:"min_freq"` // Hz
	MaxFreq float64 `json:"max_freq"` // Hz

	YinThreshold  float64 `json:"yin_threshold"`  // CMNDF dip threshold
	PeakThreshold float64 `json:"peak_threshold"` // fraction of the frame's spectral maximum
	SilenceRMS    float64 `json:"silence_rms"`    // frames below this RMS are unvoiced
}

// DefaultPitchTrackerParams returns speech-oriented defaults: 25 ms frames,
// 75-500 Hz, frames quieter than -60 dBFS left unvoiced.
func DefaultPitchTrackerParams(sampleRate int) PitchTrackerParams {
	return PitchTrackerParams{
		Method:        PitchMethodSpectral,
		SampleRate:    sampleRate,
		FrameDuration: 0.025,
		MinFreq:       75.0,
		MaxFreq:       500.0,
		YinThreshold:  0.15,
		PeakThreshold: 0.1,
		SilenceRMS:    1e-3,
	}
}

// PitchTracker estimates one F0 value per centred frame; 0 marks an unvoiced frame
type PitchTracker struct {
	params    PitchTrackerParams
	frameSize int
	hopSize   int
	fftSize   int

	fft    *spectral.FFT
	window *windowing.Hann
}

// NewPitchTracker validates params and precomputes the analysis window
func NewPitchTracker(params PitchTrackerParams) (*PitchTracker, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", params.SampleRate)
	}
	if params.MinFreq <= 0 || params.MaxFreq <= params.MinFreq {
		return nil, fmt.Errorf("invalid pitch range %.1f-%.1f Hz", params.MinFreq, params.MaxFreq)
	}
	if _, err := ParsePitchMethod(string(params.Method)); err != nil {
		return nil, err
	}

	frameSize := int(float64(params.SampleRate) * params.FrameDuration)
	if frameSize < 4 {
		return nil, fmt.Errorf("frame duration %.4fs too short at %d Hz", params.FrameDuration, params.SampleRate)
	}

	return &PitchTracker{
		params:    params,
		frameSize: frameSize,
		hopSize:   max(1, frameSize/2),
		fftSize:   common.NextPowerOfTwo(frameSize) * 2,
		fft:       spectral.NewFFT(),
		window:    windowing.NewPeriodicHann(frameSize),
	}, nil
}

// FrameSize returns the analysis frame length in samples
func (pt *PitchTracker) FrameSize() int { return pt.frameSize }

// HopSize returns the frame hop in samples
func (pt *PitchTracker) HopSize() int { return pt.hopSize }

// Track returns the pitch of every frame of signal
func (pt *PitchTracker) Track(signal []float64) []float64 {
	frames := common.Frame(signal, pt.frameSize, pt.hopSize, true)

	pitches := make([]float64, len(frames))
	for i, frame := range frames {
		pitches[i] = pt.DetectFrame(frame)
	}
	return pitches
}

// DetectFrame estimates the pitch of a single frame
func (pt *PitchTracker) DetectFrame(frame []float64) float64 {
	if len(frame) == 0 || common.RMS(frame) < pt.params.SilenceRMS {
		return 0
	}

	var pitch float64
	switch pt.params.Method {
	case PitchMethodYin:
		pitch = pt.detectPitchYin(frame)
	default:
		pitch = pt.detectPitchSpectral(frame)
	}

	if pitch < pt.params.MinFreq || pitch > pt.params.MaxFreq || math.IsNaN(pitch) {
		return 0
	}
	return pitch
}

// detectPitchSpectral picks the strongest local maximum inside the pitch range
// that reaches PeakThreshold of the frame's overall spectral maximum
func (pt *PitchTracker) detectPitchSpectral(frame []float64) float64 {
	padded := make([]float64, pt.fftSize)
	copy(padded, pt.window.Apply(frame))

	magnitude := pt.fft.Magnitude(padded)
	if len(magnitude) < 3 {
		return 0
	}

	frameMax := 0.0
	for _, m := range magnitude {
		frameMax = math.Max(frameMax, m)
	}
	if frameMax == 0 {
		return 0
	}

	binHz := float64(pt.params.SampleRate) / float64(pt.fftSize)
	lo := max(1, int(math.Floor(pt.params.MinFreq/binHz)))
	hi := min(len(magnitude)-2, int(math.Ceil(pt.params.MaxFreq/binHz)))

	best := -1
	for k := lo; k <= hi; k++ {
		m := magnitude[k]
		if m < pt.params.PeakThreshold*frameMax {
			continue
		}
		if m <= magnitude[k-1] || m < magnitude[k+1] {
			continue
		}
		if best < 0 || m > magnitude[best] {
			best = k
		}
	}
	if best < 0 {
		return 0
	}

	return parabolicInterpolation(magnitude, best) * binHz
}

// detectPitchYin implements the YIN pitch detection algorithm
// Reference: de Cheveigné, A., Kawahara, H. (2002)
func (pt *PitchTracker) detectPitchYin(frame []float64) float64 {
	halfN := len(frame) / 2
	rate := float64(pt.params.SampleRate)

	minTau := max(2, int(math.Floor(rate/pt.params.MaxFreq)))
	maxTau := min(halfN-1, int(math.Ceil(rate/pt.params.MinFreq)))
	if minTau >= maxTau {
		return 0
	}

	// Difference function
	diff := make([]float64, maxTau+1)
	for tau := 1; tau <= maxTau; tau++ {
		sum := 0.0
		for j := 0; j < halfN; j++ {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	// Cumulative mean normalized difference function
	cmndf := make([]float64, maxTau+1)
	cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau <= maxTau; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff[tau] * float64(tau) / runningSum
	}

	// First dip under the threshold, followed down to its local minimum
	for tau := minTau; tau < maxTau; tau++ {
		if cmndf[tau] >= pt.params.YinThreshold {
			continue
		}
		for tau+1 <= maxTau && cmndf[tau+1] < cmndf[tau] {
			tau++
		}
		period := parabolicInterpolation(cmndf, tau)
		if period <= 0 {
			return 0
		}
		return rate / period
	}

	return 0
}

// parabolicInterpolation refines an extremum index using its two neighbours
func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) - b/(2*a)
}

// VoicedPitches drops unvoiced (zero) frames from a pitch track
func VoicedPitches(track []float64) []float64 {
	voiced := make([]float64, 0, len(track))
	for _, p := range track {
		if p > 0 {
			voiced = append(voiced, p)
		}
	}
	return voiced
}
