package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-coach/algorithms/tonal"
)

func sine(freq, amplitude float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func newTracker(t *testing.T, sampleRate int) *tonal.PitchTracker {
	t.Helper()
	tracker, err := tonal.NewPitchTracker(tonal.DefaultPitchTrackerParams(sampleRate))
	require.NoError(t, err)
	return tracker
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level AnalysisLevel
		ok    bool
	}{
		{"basic", LevelBasic, true},
		{"Advanced", LevelAdvanced, true},
		{" detailed ", LevelDetailed, true},
		{"", LevelDetailed, true},
		{"extreme", LevelDetailed, false},
	}
	for _, tt := range tests {
		level, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.level, level, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestExtractPitch(t *testing.T) {
	const rate = 16000
	tracker := newTracker(t, rate)

	t.Run("silence_is_unknown", func(t *testing.T) {
		out := ExtractPitch(make([]float64, rate), tracker)
		require.NoError(t, out.Err)
		assert.Equal(t, LabelUnknown, out.Value.Label)
		assert.Equal(t, FeatureStat{}, out.Value.Stats)
	})

	t.Run("steady_tone_is_low", func(t *testing.T) {
		out := ExtractPitch(sine(220, 0.5, rate, 1), tracker)
		require.NoError(t, out.Err)
		assert.Equal(t, LabelLow, out.Value.Label)
		assert.InDelta(t, 220, out.Value.Stats.Mean, 5)
	})

	t.Run("no_tracker", func(t *testing.T) {
		out := ExtractPitch(sine(220, 0.5, rate, 1), nil)
		assert.Error(t, out.Err)
		assert.Equal(t, LabelNA, out.Or(PitchResult{Label: LabelNA}).Label)
	})
}

func TestClassifyPitch(t *testing.T) {
	assert.Equal(t, LabelHigh, ClassifyPitch(25.1))
	assert.Equal(t, LabelMedium, ClassifyPitch(25))
	assert.Equal(t, LabelMedium, ClassifyPitch(10.5))
	assert.Equal(t, LabelLow, ClassifyPitch(10))
}

func TestExtractEnergy(t *testing.T) {
	assert.Equal(t, LabelMedium, ClassifyEnergy(0.1))
	assert.Equal(t, LabelHigh, ClassifyEnergy(0.1001))
	assert.Equal(t, LabelLow, ClassifyEnergy(0.05))

	assert.Equal(t, LabelHigh, ClassifyVolumeVariation(0.06))
	assert.Equal(t, LabelMedium, ClassifyVolumeVariation(0.03))
	assert.Equal(t, LabelLow, ClassifyVolumeVariation(0.02))

	out := ExtractEnergy(sine(220, 0.5, 16000, 1))
	require.NoError(t, out.Err)
	assert.Equal(t, LabelHigh, out.Value.Label)
	assert.InDelta(t, 0.5/math.Sqrt2, out.Value.Stats.Mean, 0.03)
	assert.Equal(t, out.Value.Stats.Mean, out.Value.Value)

	assert.Error(t, ExtractEnergy(nil).Err)
}

type scriptedVAD struct {
	speech []bool
	errAt  int
	calls  int
}

func (s *scriptedVAD) IsSpeech(frame []int16, sampleRate int) (bool, error) {
	i := s.calls
	s.calls++
	if i == s.errAt {
		return false, errors.New("bad frame")
	}
	return s.speech[i%len(s.speech)], nil
}

func TestSilenceRatio(t *testing.T) {
	const rate = 16000
	chunk := rate * 3 / 100

	t.Run("nil_detector", func(t *testing.T) {
		assert.Zero(t, SilenceRatio(make([]int16, rate), 1, rate, nil))
	})

	t.Run("shorter_than_a_chunk", func(t *testing.T) {
		assert.Zero(t, SilenceRatio(make([]int16, chunk-1), 1, rate, &scriptedVAD{speech: []bool{false}, errAt: -1}))
	})

	t.Run("alternating_with_partial_tail", func(t *testing.T) {
		vad := &scriptedVAD{speech: []bool{true, false}, errAt: -1}
		ratio := SilenceRatio(make([]int16, 4*chunk+10), 1, rate, vad)
		assert.Equal(t, 4, vad.calls)
		assert.InDelta(t, 0.5, ratio, 1e-12)
	})

	t.Run("errors_count_as_speech", func(t *testing.T) {
		vad := &scriptedVAD{speech: []bool{false}, errAt: 0}
		ratio := SilenceRatio(make([]int16, 2*chunk), 1, rate, vad)
		assert.InDelta(t, 0.5, ratio, 1e-12)
	})

	t.Run("stereo_in_range", func(t *testing.T) {
		vad := &scriptedVAD{speech: []bool{false, false, true}, errAt: -1}
		ratio := SilenceRatio(make([]int16, 2*5*chunk), 2, rate, vad)
		assert.Equal(t, 5, vad.calls)
		assert.GreaterOrEqual(t, ratio, 0.0)
		assert.LessOrEqual(t, ratio, 1.0)
	})

	t.Run("real_detector_on_silence", func(t *testing.T) {
		vad, err := temporal.NewVoiceActivityDetector(3)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, SilenceRatio(make([]int16, rate), 1, rate, vad), 1e-12)
	})
}

func TestDownmixFloorsTowardNegativeInfinity(t *testing.T) {
	dst := make([]int16, 2)
	downmix([]int16{-3, 0, 3, 0}, 2, dst)
	assert.Equal(t, []int16{-2, 1}, dst)
}

func TestPace(t *testing.T) {
	assert.Equal(t, PaceVeryConsistent, ClassifyPace(0.29))
	assert.Equal(t, PaceConsistent, ClassifyPace(0.3))
	assert.Equal(t, PaceSomewhatInconsistent, ClassifyPace(0.5))
	assert.Equal(t, PaceInconsistent, ClassifyPace(0.7))

	out := PaceConsistency(make([]float64, 22050), 22050, temporal.NewOnsetDetection())
	require.NoError(t, out.Err)
	assert.Equal(t, NotAvailable, out.Value)

	assert.Error(t, PaceConsistency(nil, 22050, nil).Err)
}

func TestPaceConsistencyRegularClicks(t *testing.T) {
	const rate = 22050
	signal := make([]float64, rate*3)
	for start := rate / 4; start < len(signal); start += rate / 2 {
		for i := 0; i < 200 && start+i < len(signal); i++ {
			signal[start+i] = 0.8 * math.Sin(2*math.Pi*1000*float64(i)/rate)
		}
	}

	out := PaceConsistency(signal, rate, temporal.NewOnsetDetection())
	require.NoError(t, out.Err)
	assert.Equal(t, PaceVeryConsistent, out.Value)
}

func TestSpeakingRate(t *testing.T) {
	assert.Zero(t, SpeakingRate("", 30))
	assert.Zero(t, SpeakingRate("hello there", 0))
	assert.InDelta(t, 120, SpeakingRate("one two", 1), 1e-9)

	prev := 0.0
	transcript := ""
	for i := 0; i < 10; i++ {
		transcript += " word"
		rate := SpeakingRate(transcript, 10)
		assert.Greater(t, rate, prev)
		prev = rate
	}
}

func TestBuildSegmentSeries(t *testing.T) {
	const rate = 16000
	tracker := newTracker(t, rate)

	t.Run("full_series", func(t *testing.T) {
		out := BuildSegmentSeries(sine(200, 0.5, rate, 2), tracker)
		require.NoError(t, out.Err)
		require.Len(t, out.Value, 10)
		for i, p := range out.Value {
			assert.Equal(t, i+1, p.Index)
			assert.InDelta(t, 20, p.Pitch, 1)
			assert.Greater(t, p.Energy, 0.0)
		}
	})

	t.Run("short_segments_skipped", func(t *testing.T) {
		out := BuildSegmentSeries(sine(200, 0.5, rate, 0.3), tracker)
		require.NoError(t, out.Err)
		assert.Empty(t, out.Value)
	})

	t.Run("silence_has_zero_pitch", func(t *testing.T) {
		out := BuildSegmentSeries(make([]float64, rate), tracker)
		require.NoError(t, out.Err)
		require.Len(t, out.Value, 10)
		for _, p := range out.Value {
			assert.Zero(t, p.Pitch)
			assert.Zero(t, p.Energy)
		}
	})

	t.Run("failure_uses_default", func(t *testing.T) {
		series := BuildSegmentSeries(nil, nil).Or(DefaultSegmentSeries())
		require.Len(t, series, 10)
		assert.Equal(t, 10, series[9].Index)
	})
}

func TestSegmentSeriesJSON(t *testing.T) {
	series := SegmentSeries{{Index: 2, Pitch: 21.5, Energy: 300}, {Index: 5, Pitch: 0, Energy: 12}}

	data, err := json.Marshal(series)
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[2,5],"pitchData":[21.5,0],"energyData":[300,12]}`, string(data))

	var decoded SegmentSeries
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, series, decoded)

	empty, err := json.Marshal(SegmentSeries{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[],"pitchData":[],"energyData":[]}`, string(empty))
}

func TestClassifyEmotion(t *testing.T) {
	tests := []struct {
		name     string
		features EmotionFeatures
		expected string
	}{
		{"excited", EmotionFeatures{RMSMean: 0.12, PitchStd: 25, PitchMean: 50}, "Excited"},
		{"subdued", EmotionFeatures{RMSMean: 0.01, PitchMean: 90}, "Subdued"},
		{"assertive", EmotionFeatures{RMSMean: 0.2, PitchStd: 5, PitchMean: 180}, "Assertive"},
		{"nervous", EmotionFeatures{RMSMean: 0.07, PitchStd: 15, PitchMean: 200}, "Nervous"},
		{"neutral_loud_mid_std", EmotionFeatures{RMSMean: 0.2, PitchStd: 15, PitchMean: 120}, EmotionNeutral},
		{"neutral_quiet_high_pitch", EmotionFeatures{RMSMean: 0.01, PitchMean: 200}, EmotionNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyEmotion(tt.features))
		})
	}
}

func TestRuleBasedEmotionOnSteadyTone(t *testing.T) {
	const rate = 16000
	strategy := NewRuleBasedEmotion(tonal.DefaultPitchTrackerParams(0))

	audio := newAudio(sine(220, 0.5, rate, 1), rate)
	features, err := strategy.Features(audio)
	require.NoError(t, err)
	assert.InDelta(t, 220, features.PitchMean, 5)
	assert.Greater(t, features.CentroidMean, 0.0)

	label, err := strategy.Classify(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "Assertive", label)

	_, err = strategy.Classify(context.Background(), nil)
	assert.Error(t, err)
}

func TestExpressivenessScore(t *testing.T) {
	assert.Equal(t, 100, ExpressivenessScore(LabelHigh, LabelHigh, 0.25))
	assert.Equal(t, 58, ExpressivenessScore(LabelLow, LabelHigh, 0))
	assert.Equal(t, 0, ExpressivenessScore(LabelNA, LabelUnknown, 1))
	// (3*0.4 + 3*0.4 + 4.5*0.2) * 20 = 66
	assert.Equal(t, 66, ExpressivenessScore(LabelMedium, LabelMedium, 0.3))
}
