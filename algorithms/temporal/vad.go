package temporal

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAggressiveness is returned for a mode outside 0..3
var ErrInvalidAggressiveness = errors.New("vad aggressiveness must be between 0 and 3")

// Per-mode thresholds. Higher modes demand more energy and a more voiced
// (lower zero-crossing) frame before calling it speech.
var (
	vadEnergyThresholds = [4]float64{0.003, 0.006, 0.01, 0.015}
	vadMaxZCR           = [4]float64{1.0, 0.7, 0.6, 0.5}
)

// VoiceActivityDetector classifies short 16-bit PCM frames as speech or not
// using frame energy and zero-crossing rate.
type VoiceActivityDetector struct {
	mode int
}

// NewVoiceActivityDetector creates a detector at aggressiveness 0 (least) to 3 (most)
func NewVoiceActivityDetector(mode int) (*VoiceActivityDetector, error) {
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAggressiveness, mode)
	}
	return &VoiceActivityDetector{mode: mode}, nil
}

// Mode returns the aggressiveness
func (v *VoiceActivityDetector) Mode() int {
	return v.mode
}

// IsSpeech classifies one mono frame of 10, 20 or 30 ms
func (v *VoiceActivityDetector) IsSpeech(frame []int16, sampleRate int) (bool, error) {
	if v == nil {
		return false, errors.New("voice activity detector not initialized")
	}
	if sampleRate <= 0 {
		return false, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if !validFrameLength(len(frame), sampleRate) {
		return false, fmt.Errorf("frame of %d samples is not 10, 20 or 30 ms at %d Hz", len(frame), sampleRate)
	}

	sumSquares := 0.0
	crossings := 0
	for i, s := range frame {
		x := float64(s) / 32768.0
		sumSquares += x * x
		if i > 0 && (frame[i-1] >= 0) != (s >= 0) {
			crossings++
		}
	}

	rms := math.Sqrt(sumSquares / float64(len(frame)))
	zcr := float64(crossings) / float64(len(frame)-1)

	return rms >= vadEnergyThresholds[v.mode] && zcr <= vadMaxZCR[v.mode], nil
}

func validFrameLength(n, sampleRate int) bool {
	if n < 2 {
		return false
	}
	for _, ms := range []int{10, 20, 30} {
		if n == sampleRate*ms/1000 {
			return true
		}
	}
	return false
}
