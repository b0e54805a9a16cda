package tonal

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateSine(freq float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return signal
}

func TestParsePitchMethod(t *testing.T) {
	m, err := ParsePitchMethod("YIN")
	require.NoError(t, err)
	assert.Equal(t, PitchMethodYin, m)

	m, err = ParsePitchMethod("")
	require.NoError(t, err)
	assert.Equal(t, PitchMethodSpectral, m)

	_, err = ParsePitchMethod("crepe")
	assert.Error(t, err)
}

func TestNewPitchTrackerValidation(t *testing.T) {
	_, err := NewPitchTracker(DefaultPitchTrackerParams(0))
	assert.Error(t, err)

	params := DefaultPitchTrackerParams(16000)
	params.MaxFreq = 50
	_, err = NewPitchTracker(params)
	assert.Error(t, err)

	params = DefaultPitchTrackerParams(16000)
	params.Method = "autocorrelation"
	_, err = NewPitchTracker(params)
	assert.Error(t, err)

	pt, err := NewPitchTracker(DefaultPitchTrackerParams(16000))
	require.NoError(t, err)
	assert.Equal(t, 400, pt.FrameSize())
	assert.Equal(t, 200, pt.HopSize())
}

func TestPitchTrackerOnTones(t *testing.T) {
	const sampleRate = 16000

	methods := []struct {
		method    PitchMethod
		tolerance float64
	}{
		{PitchMethodSpectral, 8.0},
		{PitchMethodYin, 3.0},
	}

	for _, m := range methods {
		t.Run(string(m.method), func(t *testing.T) {
			params := DefaultPitchTrackerParams(sampleRate)
			params.Method = m.method
			pt, err := NewPitchTracker(params)
			require.NoError(t, err)

			track := pt.Track(generateSine(200, sampleRate, 1.0))
			voiced := VoicedPitches(track)
			require.NotEmpty(t, voiced)
			assert.InDelta(t, 200.0, common.Mean(voiced), m.tolerance)

			silence := pt.Track(make([]float64, sampleRate))
			assert.Empty(t, VoicedPitches(silence))
		})
	}
}

func TestSpectralPitchIgnoresToneAboveRange(t *testing.T) {
	pt, err := NewPitchTracker(DefaultPitchTrackerParams(16000))
	require.NoError(t, err)

	track := pt.Track(generateSine(1500, 16000, 0.5))
	assert.Empty(t, VoicedPitches(track))
}

func TestParabolicInterpolation(t *testing.T) {
	assert.InDelta(t, 2.0, parabolicInterpolation([]float64{0, 1, 2, 1, 0}, 2), 1e-12)
	assert.InDelta(t, 2.3, parabolicInterpolation([]float64{0, 0, 4, 3, 0}, 2), 1e-12)
	assert.Equal(t, 0.0, parabolicInterpolation([]float64{1, 0}, 0))
}

func TestVoicedPitches(t *testing.T) {
	assert.Equal(t, []float64{100, 120}, VoicedPitches([]float64{0, 100, 0, 120}))
	assert.Empty(t, VoicedPitches(nil))
}
