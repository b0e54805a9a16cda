package analysis

import (
	"errors"

	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
)

// EnergyResult is the loudness measurement
type EnergyResult struct {
	Value  float64 // mean frame RMS
	Label  Label
	Stats  FeatureStat
	Volume Label // variation of the frame RMS
}

// ClassifyEnergy labels mean RMS on a [-1, 1] amplitude scale
func ClassifyEnergy(mean float64) Label {
	switch {
	case mean > 0.1:
		return LabelHigh
	case mean > 0.05:
		return LabelMedium
	default:
		return LabelLow
	}
}

// ClassifyVolumeVariation labels the standard deviation of frame RMS
func ClassifyVolumeVariation(std float64) Label {
	switch {
	case std > 0.05:
		return LabelHigh
	case std > 0.02:
		return LabelMedium
	default:
		return LabelLow
	}
}

// ExtractEnergy computes frame RMS over 2048-sample centred frames
func ExtractEnergy(samples []float64) Outcome[EnergyResult] {
	rms := temporal.NewDefaultEnvelope().ComputeRMS(samples)
	if len(rms) == 0 {
		return Fail[EnergyResult](errors.New("no frames to measure energy"))
	}

	stats := NewFeatureStat(rms)
	return Ok(EnergyResult{
		Value:  stats.Mean,
		Label:  ClassifyEnergy(stats.Mean),
		Stats:  stats,
		Volume: ClassifyVolumeVariation(stats.Std),
	})
}
