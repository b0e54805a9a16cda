package temporal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-coach/algorithms/spectral"
)

// PeakPickParams are the peak picking windows, in frames.
// A frame n is an onset when it is the maximum of [n-PreMax, n+PostMax),
// exceeds the mean of [n-PreAvg, n+PostAvg) by Delta, and lies more than
// Wait frames after the previous onset.
type PeakPickParams struct {
	PreMax  int
	PostMax int
	PreAvg  int
	PostAvg int
	Delta   float64
	Wait    int
}

// DefaultPeakPickParams converts the 30 ms / 100 ms windows to frames at the
// given rate and hop.
func DefaultPeakPickParams(sampleRate, hopSize int) PeakPickParams {
	toFrames := func(seconds float64) int {
		if hopSize <= 0 {
			return 0
		}
		return int(seconds*float64(sampleRate)) / hopSize
	}

	return PeakPickParams{
		PreMax:  toFrames(0.03),
		PostMax: toFrames(0.0) + 1,
		PreAvg:  toFrames(0.10),
		PostAvg: toFrames(0.10) + 1,
		Delta:   0.07,
		Wait:    toFrames(0.03),
	}
}

// PickOnsets returns the frame indices of envelope peaks, in increasing order
func PickOnsets(envelope []float64, p PeakPickParams) []int {
	onsets := []int{}
	last := -p.Wait - 1

	for n, x := range envelope {
		if x <= 0 {
			continue
		}

		maxStart := max(0, n-p.PreMax)
		maxEnd := min(len(envelope), n+max(p.PostMax, 1))
		isMax := true
		for _, v := range envelope[maxStart:maxEnd] {
			if v > x {
				isMax = false
				break
			}
		}
		if !isMax {
			continue
		}

		avgStart := max(0, n-p.PreAvg)
		avgEnd := min(len(envelope), n+max(p.PostAvg, 1))
		sum := 0.0
		for _, v := range envelope[avgStart:avgEnd] {
			sum += v
		}
		if x < sum/float64(avgEnd-avgStart)+p.Delta {
			continue
		}

		if n-last > p.Wait {
			onsets = append(onsets, n)
			last = n
		}
	}

	return onsets
}

// OnsetDetection detects speech onsets from the spectral-flux envelope
type OnsetDetection struct {
	strength *spectral.OnsetStrength
}

// NewOnsetDetection creates a new onset detector
func NewOnsetDetection() *OnsetDetection {
	return &OnsetDetection{
		strength: spectral.NewOnsetStrength(spectral.DefaultOnsetStrengthConfig()),
	}
}

// DetectOnsets returns onset frame indices; frames are HopSize() samples apart
func (od *OnsetDetection) DetectOnsets(signal []float64, sampleRate int) ([]int, error) {
	if len(signal) == 0 {
		return []int{}, nil
	}

	envelope, err := od.strength.Compute(signal, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute onset strength: %w", err)
	}

	params := DefaultPeakPickParams(sampleRate, od.strength.HopSize())
	return PickOnsets(spectral.Normalize(envelope), params), nil
}

// HopSize returns the number of samples between onset frames
func (od *OnsetDetection) HopSize() int {
	return od.strength.HopSize()
}
