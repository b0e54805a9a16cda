package temporal

import (
	"github.com/RyanBlaney/sonido-coach/algorithms/common"
)

// Envelope provides amplitude envelope extraction
type Envelope struct {
	frameSize int
	hopSize   int
	center    bool
}

// NewEnvelope creates an envelope extractor. With center set, frames are
// centred on multiples of hopSize and the signal is zero padded at both ends.
func NewEnvelope(frameSize, hopSize int, center bool) *Envelope {
	return &Envelope{
		frameSize: frameSize,
		hopSize:   hopSize,
		center:    center,
	}
}

// NewDefaultEnvelope uses 2048-sample frames with a 512-sample hop, centred
func NewDefaultEnvelope() *Envelope {
	return NewEnvelope(2048, 512, true)
}

// ComputeRMS computes the RMS of every frame
func (e *Envelope) ComputeRMS(signal []float64) []float64 {
	frames := common.Frame(signal, e.frameSize, e.hopSize, e.center)

	envelope := make([]float64, len(frames))
	for i, frame := range frames {
		envelope[i] = common.RMS(frame)
	}

	return envelope
}

// ComputePeak computes peak envelope (maximum absolute value per frame)
func (e *Envelope) ComputePeak(signal []float64) []float64 {
	frames := common.Frame(signal, e.frameSize, e.hopSize, e.center)

	envelope := make([]float64, len(frames))
	for i, frame := range frames {
		peak := 0.0
		for _, v := range frame {
			peak = max(peak, v, -v)
		}
		envelope[i] = peak
	}

	return envelope
}
