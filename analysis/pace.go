package analysis

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
)

// Pace consistency labels
const (
	PaceVeryConsistent       = "Very Consistent"
	PaceConsistent           = "Consistent"
	PaceSomewhatInconsistent = "Somewhat Inconsistent"
	PaceInconsistent         = "Inconsistent"
)

// ClassifyPace buckets the coefficient of variation of inter-onset intervals
func ClassifyPace(cv float64) string {
	switch {
	case cv < 0.3:
		return PaceVeryConsistent
	case cv < 0.5:
		return PaceConsistent
	case cv < 0.7:
		return PaceSomewhatInconsistent
	default:
		return PaceInconsistent
	}
}

// PaceConsistency rates how evenly onsets are spaced. Fewer than two onsets
// give "N/A".
func PaceConsistency(samples []float64, sampleRate int, detector *temporal.OnsetDetection) Outcome[string] {
	if detector == nil {
		return Fail[string](errors.New("onset detector not configured"))
	}

	onsets, err := detector.DetectOnsets(samples, sampleRate)
	if err != nil {
		return Fail[string](fmt.Errorf("pace consistency: %w", err))
	}
	if len(onsets) < 2 {
		return Ok(NotAvailable)
	}

	intervals := make([]float64, len(onsets)-1)
	for i := 1; i < len(onsets); i++ {
		intervals[i-1] = float64(onsets[i] - onsets[i-1])
	}

	return Ok(ClassifyPace(common.CoefficientOfVariation(intervals)))
}
