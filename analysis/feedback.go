package analysis

import (
	"fmt"
	"strings"
)

// Fixed coaching sentences
const (
	FeedbackBasic        = "Basic analysis completed. For personalized feedback, use detailed or advanced analysis."
	FeedbackDecodeFailed = "Could not analyze the audio file. Please try again with a different recording."

	feedbackRateSlow    = "Your speaking rate is quite slow. Try to increase your pace a bit to keep the audience engaged."
	feedbackRateFast    = "You're speaking quite rapidly. Consider slowing down slightly to improve clarity."
	feedbackRateGood    = "Your speaking pace is good and should be easy for listeners to follow."
	feedbackPitchLow    = "Your speech has limited pitch variation, which might sound monotonous. Try to vary your tone more to emphasize key points."
	feedbackPitchHigh   = "You have excellent vocal expressiveness with good pitch variation that helps convey emotion and emphasis."
	feedbackEnergyLow   = "Your vocal energy is quite low. Try projecting your voice more confidently."
	feedbackEnergyHigh  = "Your energy level is high, showing enthusiasm and confidence."
	feedbackPausesMany  = "You have frequent pauses in your speech. While some pauses are effective, too many can disrupt your flow."
	feedbackPausesFew   = "Consider incorporating strategic pauses to give emphasis to important points and allow your audience time to absorb information."
	feedbackTooLong     = "Your speech was quite long. For maximum retention, consider condensing your main points."
	feedbackEmotionTmpl = "Your speech conveys a %s tone, which aligns well with your message."
	feedbackAdvanced    = "For more precise improvement, focus on maintaining consistent pacing while varying your pitch at key moments to emphasize important points."
)

// FeedbackInput is everything the feedback rules look at
type FeedbackInput struct {
	Duration     float64 // seconds
	SpeakingRate float64 // words per minute
	Pitch        Label
	Energy       Label
	SilenceRatio float64
	Emotion      string
	Level        AnalysisLevel
}

// feedbackRule yields at most one sentence
type feedbackRule func(in FeedbackInput) (string, bool)

var feedbackRules = []feedbackRule{
	func(in FeedbackInput) (string, bool) {
		switch {
		case in.SpeakingRate < 120:
			return feedbackRateSlow, true
		case in.SpeakingRate > 180:
			return feedbackRateFast, true
		default:
			return feedbackRateGood, true
		}
	},
	func(in FeedbackInput) (string, bool) {
		switch in.Pitch {
		case LabelLow:
			return feedbackPitchLow, true
		case LabelHigh:
			return feedbackPitchHigh, true
		}
		return "", false
	},
	func(in FeedbackInput) (string, bool) {
		switch in.Energy {
		case LabelLow:
			return feedbackEnergyLow, true
		case LabelHigh:
			return feedbackEnergyHigh, true
		}
		return "", false
	},
	func(in FeedbackInput) (string, bool) {
		switch {
		case in.SilenceRatio > 0.3:
			return feedbackPausesMany, true
		case in.SilenceRatio < 0.1:
			return feedbackPausesFew, true
		}
		return "", false
	},
	func(in FeedbackInput) (string, bool) {
		// whole minutes only: 5m59s is not too long
		return feedbackTooLong, int(in.Duration/60) > 5
	},
	func(in FeedbackInput) (string, bool) {
		if IsNeutral(in.Emotion) {
			return "", false
		}
		return fmt.Sprintf(feedbackEmotionTmpl, strings.ToLower(in.Emotion)), true
	},
	func(in FeedbackInput) (string, bool) {
		return feedbackAdvanced, in.Level == LevelAdvanced
	},
}

// GenerateFeedback joins the sentences of every matching rule with single spaces.
// The basic level always gets the fixed placeholder.
func GenerateFeedback(in FeedbackInput) string {
	if in.Level == LevelBasic {
		return FeedbackBasic
	}

	sentences := make([]string, 0, len(feedbackRules))
	for _, rule := range feedbackRules {
		if sentence, ok := rule(in); ok {
			sentences = append(sentences, sentence)
		}
	}
	return strings.Join(sentences, " ")
}
