package analysis

import (
	"math"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
)

func labelScore(l Label) float64 {
	switch l {
	case LabelHigh:
		return 5
	case LabelMedium:
		return 3
	case LabelLow:
		return 1
	default:
		return 0
	}
}

// ExpressivenessScore combines pitch, energy and pausing into 0..100.
// Silence scores best at a ratio of 0.25. Halves round to even.
func ExpressivenessScore(pitch, energy Label, silenceRatio float64) int {
	silenceScore := common.Clamp(5-math.Abs(silenceRatio-0.25)*10, 0, 5)
	total := labelScore(pitch)*0.4 + labelScore(energy)*0.4 + silenceScore*0.2
	return int(math.RoundToEven(total * 20))
}
