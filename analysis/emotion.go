package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/algorithms/spectral"
	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-coach/algorithms/tonal"
	"github.com/RyanBlaney/sonido-coach/transcode"
)

// EmotionNeutral is reported when no other rule matches or classification fails
const EmotionNeutral = "Neutral"

// EmotionClassifier assigns a single emotion label to a recording
type EmotionClassifier interface {
	Classify(ctx context.Context, audio *transcode.AudioData) (string, error)
}

// EmotionFeatures are the scalar inputs of the rule list
type EmotionFeatures struct {
	CentroidMean float64
	ContrastMean float64
	RMSMean      float64
	PitchMean    float64
	PitchStd     float64
}

type emotionRule struct {
	matches func(f EmotionFeatures) bool
	label   string
}

// emotionRules are evaluated in order; the first match wins
var emotionRules = []emotionRule{
	{func(f EmotionFeatures) bool { return f.RMSMean > 0.1 && f.PitchStd > 20 }, "Excited"},
	{func(f EmotionFeatures) bool { return f.RMSMean < 0.05 && f.PitchMean < 100 }, "Subdued"},
	{func(f EmotionFeatures) bool { return f.RMSMean > 0.1 && f.PitchStd < 10 }, "Assertive"},
	{func(f EmotionFeatures) bool { return f.PitchMean > 150 && f.RMSMean > 0.05 && f.RMSMean < 0.1 }, "Nervous"},
}

// ClassifyEmotion applies the rule list
func ClassifyEmotion(f EmotionFeatures) string {
	for _, rule := range emotionRules {
		if rule.matches(f) {
			return rule.label
		}
	}
	return EmotionNeutral
}

// IsNeutral reports whether a label needs no emotion feedback
func IsNeutral(label string) bool {
	return label == "" || label == NotAvailable || strings.EqualFold(label, EmotionNeutral)
}

// RuleBasedEmotion classifies from acoustic heuristics
type RuleBasedEmotion struct {
	pitchParams tonal.PitchTrackerParams
}

// NewRuleBasedEmotion uses params for the pitch features; the sample rate is
// taken from each recording
func NewRuleBasedEmotion(pitchParams tonal.PitchTrackerParams) *RuleBasedEmotion {
	return &RuleBasedEmotion{pitchParams: pitchParams}
}

// Features computes the rule inputs for a recording
func (r *RuleBasedEmotion) Features(audio *transcode.AudioData) (EmotionFeatures, error) {
	if audio == nil || len(audio.Samples) == 0 {
		return EmotionFeatures{}, transcode.ErrNoSamples
	}

	stft, err := spectral.NewSTFT(spectral.DefaultSTFTConfig()).Compute(audio.Samples, audio.SampleRate)
	if err != nil {
		return EmotionFeatures{}, fmt.Errorf("emotion features: %w", err)
	}

	params := r.pitchParams
	params.SampleRate = audio.SampleRate
	tracker, err := tonal.NewPitchTracker(params)
	if err != nil {
		return EmotionFeatures{}, fmt.Errorf("emotion features: %w", err)
	}
	pitch := NewFeatureStat(tonal.VoicedPitches(tracker.Track(audio.Samples)))

	return EmotionFeatures{
		CentroidMean: common.Mean(spectral.NewSpectralCentroid(audio.SampleRate).ComputeFrames(stft.Magnitude)),
		ContrastMean: spectral.MeanContrast(spectral.NewSpectralContrast(audio.SampleRate, 6).ComputeFrames(stft.Magnitude)),
		RMSMean:      common.Mean(temporal.NewDefaultEnvelope().ComputeRMS(audio.Samples)),
		PitchMean:    pitch.Mean,
		PitchStd:     pitch.Std,
	}, nil
}

// Classify implements EmotionClassifier
func (r *RuleBasedEmotion) Classify(ctx context.Context, audio *transcode.AudioData) (string, error) {
	features, err := r.Features(audio)
	if err != nil {
		return "", err
	}
	return ClassifyEmotion(features), nil
}
