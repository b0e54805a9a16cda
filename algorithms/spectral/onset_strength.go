package spectral

import (
	"fmt"
	"math"
)

// OnsetStrengthConfig configures the spectral-flux onset envelope
type OnsetStrengthConfig struct {
	STFT    STFTConfig
	NumMels int
	TopDB   float64 // dynamic range kept below the loudest mel cell
}

// DefaultOnsetStrengthConfig uses 2048/512 centred frames and 128 mel bands
func DefaultOnsetStrengthConfig() OnsetStrengthConfig {
	return OnsetStrengthConfig{
		STFT:    DefaultSTFTConfig(),
		NumMels: 128,
		TopDB:   80.0,
	}
}

// OnsetStrength computes an onset envelope as positive log-power spectral flux
type OnsetStrength struct {
	config OnsetStrengthConfig
	stft   *STFT
}

// NewOnsetStrength creates a new onset strength calculator
func NewOnsetStrength(config OnsetStrengthConfig) *OnsetStrength {
	return &OnsetStrength{
		config: config,
		stft:   NewSTFT(config.STFT),
	}
}

// HopSize returns the hop between envelope frames in samples
func (o *OnsetStrength) HopSize() int {
	return o.config.STFT.HopSize
}

// Compute returns one onset strength value per STFT frame.
// Frame 0 has no predecessor and is always 0.
func (o *OnsetStrength) Compute(signal []float64, sampleRate int) ([]float64, error) {
	stft, err := o.stft.Compute(signal, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute STFT: %w", err)
	}

	bank := NewMelFilterBank(o.config.NumMels, o.config.STFT.WindowSize, sampleRate, 0, 0)
	mel := bank.ApplyFrames(stft.Power())
	logMel := PowerToDB(mel, o.config.TopDB)

	return positiveFlux(logMel), nil
}

// positiveFlux is the mean over bands of the half-wave rectified first difference
func positiveFlux(spectrogram [][]float64) []float64 {
	envelope := make([]float64, len(spectrogram))
	for t := 1; t < len(spectrogram); t++ {
		if len(spectrogram[t]) == 0 {
			continue
		}
		sum := 0.0
		for f := range spectrogram[t] {
			diff := spectrogram[t][f] - spectrogram[t-1][f]
			if diff > 0 { // Only energy increases
				sum += diff
			}
		}
		envelope[t] = sum / float64(len(spectrogram[t]))
	}
	return envelope
}

// PowerToDB converts a power spectrogram to decibels, clipping everything more
// than topDB below the maximum. A non-positive topDB disables clipping.
func PowerToDB(power [][]float64, topDB float64) [][]float64 {
	const amin = 1e-10

	out := make([][]float64, len(power))
	peak := math.Inf(-1)
	for t, frame := range power {
		out[t] = make([]float64, len(frame))
		for f, p := range frame {
			db := 10.0 * math.Log10(math.Max(p, amin))
			out[t][f] = db
			peak = math.Max(peak, db)
		}
	}

	if topDB > 0 && !math.IsInf(peak, -1) {
		floor := peak - topDB
		for _, frame := range out {
			for f := range frame {
				frame[f] = math.Max(frame[f], floor)
			}
		}
	}
	return out
}

// Normalize rescales an envelope to [0, 1]; a flat envelope becomes all zeros
func Normalize(envelope []float64) []float64 {
	out := make([]float64, len(envelope))
	if len(envelope) == 0 {
		return out
	}

	lo, hi := envelope[0], envelope[0]
	for _, v := range envelope {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span <= 0 {
		return out
	}
	for i, v := range envelope {
		out[i] = (v - lo) / span
	}
	return out
}
