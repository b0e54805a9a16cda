package analysis

import (
	"errors"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-coach/algorithms/tonal"
)

const (
	segmentCount      = 10
	minSegmentSamples = 512
)

// BuildSegmentSeries splits the waveform into ten equal segments and reports
// mean pitch / 10 and mean RMS * 1000 for each segment of at least 512 samples.
// Shorter segments are omitted, so the series may hold fewer than ten points.
func BuildSegmentSeries(samples []float64, tracker *tonal.PitchTracker) Outcome[SegmentSeries] {
	if tracker == nil {
		return Fail[SegmentSeries](errors.New("pitch tracker not configured"))
	}

	envelope := temporal.NewDefaultEnvelope()
	segmentLength := len(samples) / segmentCount

	series := SegmentSeries{}
	for i := 0; i < segmentCount; i++ {
		start := i * segmentLength
		segment := samples[start : start+segmentLength]
		if len(segment) < minSegmentSamples {
			continue
		}

		pitch := 0.0
		if voiced := tonal.VoicedPitches(tracker.Track(segment)); len(voiced) > 0 {
			pitch = common.Mean(voiced) / 10
		}

		series = append(series, SegmentPoint{
			Index:  i + 1,
			Pitch:  pitch,
			Energy: common.Mean(envelope.ComputeRMS(segment)) * 1000,
		})
	}

	return Ok(series)
}
