package analysis

// VoiceDetector classifies one mono 16-bit frame as speech or not
type VoiceDetector interface {
	IsSpeech(frame []int16, sampleRate int) (bool, error)
}

const chunkDuration = 0.03

// SilenceRatio is the fraction of 30 ms chunks the detector calls non-speech.
// pcm is interleaved over channels. Trailing partial chunks are dropped and
// chunks the detector fails on count as speech. A nil detector or an input
// shorter than one chunk gives 0.
func SilenceRatio(pcm []int16, channels, sampleRate int, vad VoiceDetector) float64 {
	if vad == nil || channels <= 0 || sampleRate <= 0 {
		return 0
	}

	chunkFrames := int(float64(sampleRate) * chunkDuration)
	chunkSamples := chunkFrames * channels
	if chunkFrames <= 0 {
		return 0
	}

	total, silent := 0, 0
	mono := make([]int16, chunkFrames)
	for start := 0; start+chunkSamples <= len(pcm); start += chunkSamples {
		downmix(pcm[start:start+chunkSamples], channels, mono)
		total++

		speech, err := vad.IsSpeech(mono, sampleRate)
		if err == nil && !speech {
			silent++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(silent) / float64(total)
}

// downmix averages each frame's channels with floor division into dst
func downmix(chunk []int16, channels int, dst []int16) {
	if channels == 1 {
		copy(dst, chunk)
		return
	}
	for i := range dst {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(chunk[i*channels+c])
		}
		dst[i] = int16(floorDiv(sum, channels))
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
