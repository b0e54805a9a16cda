package spectral

import (
	"math"
	"testing"

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

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func TestFFTMagnitude(t *testing.T) {
	f := NewFFT()

	// 8 cycles over 64 samples lands exactly on bin 8
	signal := make([]float64, 64)
	for i := range signal {
		signal[i] = math.Cos(2 * math.Pi * 8 * float64(i) / 64)
	}

	mag := f.Magnitude(signal)
	require.Len(t, mag, 33)
	assert.Equal(t, 8, argmax(mag))
	assert.InDelta(t, 32.0, mag[8], 1e-9)

	assert.Empty(t, f.Magnitude(nil))
	assert.InDelta(t, 1000.0, BinFrequency(128, 2048, 16000), 1e-9)
}

func TestSTFT(t *testing.T) {
	const sampleRate = 16000
	signal := generateSine(1000, sampleRate, 1.0)

	stft := NewSTFT(DefaultSTFTConfig())
	result, err := stft.Compute(signal, sampleRate)
	require.NoError(t, err)

	// centred framing yields 1 + len/hop frames
	assert.Equal(t, 1+len(signal)/512, result.TimeFrames)
	assert.Equal(t, 1025, result.FreqBins)
	assert.InDelta(t, 7.8125, result.FreqResolution, 1e-9)

	mid := result.Magnitude[result.TimeFrames/2]
	assert.Equal(t, 128, argmax(mid))

	t.Run("errors", func(t *testing.T) {
		_, err := stft.Compute(nil, sampleRate)
		assert.Error(t, err)

		_, err = NewSTFT(STFTConfig{WindowSize: 2048, HopSize: 512}).Compute(signal[:100], sampleRate)
		assert.Error(t, err)

		_, err = NewSTFT(STFTConfig{WindowSize: 0, HopSize: 512}).Compute(signal, sampleRate)
		assert.Error(t, err)
	})
}

func TestSpectralCentroid(t *testing.T) {
	const sampleRate = 16000
	result, err := NewSTFT(DefaultSTFTConfig()).Compute(generateSine(1000, sampleRate, 1.0), sampleRate)
	require.NoError(t, err)

	sc := NewSpectralCentroid(sampleRate)
	centroids := sc.ComputeFrames(result.Magnitude)
	require.Len(t, centroids, result.TimeFrames)
	assert.InDelta(t, 1000.0, centroids[len(centroids)/2], 20.0)

	assert.Zero(t, sc.Compute(make([]float64, 1025)))
}

func TestSpectralContrast(t *testing.T) {
	const sampleRate = 16000
	result, err := NewSTFT(DefaultSTFTConfig()).Compute(generateSine(1000, sampleRate, 1.0), sampleRate)
	require.NoError(t, err)

	sc := NewSpectralContrast(sampleRate, 6)
	contrasts := sc.ComputeFrames(result.Magnitude)
	require.Len(t, contrasts, result.TimeFrames)
	assert.Len(t, contrasts[0], 7)

	// the band holding the tone has a strong peak over its valley
	assert.Greater(t, contrasts[len(contrasts)/2][3], 20.0)
	assert.Greater(t, MeanContrast(contrasts), 0.0)
	assert.Zero(t, MeanContrast(nil))
}

func TestMelFilterBank(t *testing.T) {
	bank := NewMelFilterBank(40, 2048, 16000, 0, 0)
	assert.Equal(t, 40, bank.NumFilters())

	flat := make([]float64, 1025)
	for i := range flat {
		flat[i] = 1
	}
	for _, v := range bank.Apply(flat) {
		assert.Greater(t, v, 0.0)
	}

	assert.InDelta(t, 1000.0, MelToHz(HzToMel(1000)), 1e-9)
}

func TestOnsetStrength(t *testing.T) {
	const sampleRate = 22050
	onset := NewOnsetStrength(DefaultOnsetStrengthConfig())
	assert.Equal(t, 512, onset.HopSize())

	t.Run("silence_has_no_flux", func(t *testing.T) {
		env, err := onset.Compute(make([]float64, sampleRate), sampleRate)
		require.NoError(t, err)
		for _, v := range env {
			assert.Zero(t, v)
		}
	})

	t.Run("tone_burst_peaks_at_its_start", func(t *testing.T) {
		signal := make([]float64, sampleRate*2)
		copy(signal[sampleRate:], generateSine(440, sampleRate, 0.5))

		env, err := onset.Compute(signal, sampleRate)
		require.NoError(t, err)

		onsetFrame := sampleRate / 512
		assert.InDelta(t, onsetFrame, argmax(env), 3)
		assert.Zero(t, env[0])
	})
}

func TestPowerToDBAndNormalize(t *testing.T) {
	db := PowerToDB([][]float64{{1, 1e-12}, {0.01, 0}}, 80)
	assert.InDelta(t, 0.0, db[0][0], 1e-9)
	assert.InDelta(t, -80.0, db[0][1], 1e-9)
	assert.InDelta(t, -20.0, db[1][0], 1e-9)

	assert.Equal(t, []float64{0, 0.5, 1}, Normalize([]float64{2, 3, 4}))
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{5, 5}))
	assert.Empty(t, Normalize(nil))
}
