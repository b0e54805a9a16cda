package analysis

import "strings"

// SpeakingRate returns words per minute
func SpeakingRate(transcript string, duration float64) float64 {
	if transcript == "" || duration <= 0 {
		return 0
	}
	words := len(strings.Fields(transcript))
	return float64(words) / (duration / 60)
}
