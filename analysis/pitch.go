package analysis

import (
	"errors"

	"github.com/RyanBlaney/sonido-coach/algorithms/tonal"
)

// PitchResult is the pitch variation measurement
type PitchResult struct {
	Label  Label
	Stats  FeatureStat
	Voiced []float64 // per-frame F0 of voiced frames
}

// ClassifyPitch labels the standard deviation of F0 in Hz
func ClassifyPitch(std float64) Label {
	switch {
	case std > 25:
		return LabelHigh
	case std > 10:
		return LabelMedium
	default:
		return LabelLow
	}
}

// ExtractPitch tracks F0 and summarizes the voiced frames. A waveform without
// voiced frames is Unknown with zero statistics.
func ExtractPitch(samples []float64, tracker *tonal.PitchTracker) Outcome[PitchResult] {
	if tracker == nil {
		return Fail[PitchResult](errors.New("pitch tracker not configured"))
	}

	voiced := tonal.VoicedPitches(tracker.Track(samples))
	if len(voiced) == 0 {
		return Ok(PitchResult{Label: LabelUnknown})
	}

	stats := NewFeatureStat(voiced)
	return Ok(PitchResult{
		Label:  ClassifyPitch(stats.Std),
		Stats:  stats,
		Voiced: voiced,
	})
}
