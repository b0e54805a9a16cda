package common

// Frame slices signal into frames of frameSize samples spaced hopSize apart.
//
// With center set, the signal is padded with frameSize/2 zeros on both sides
// so frame t is centred on sample t*hopSize; a signal shorter than one frame
// still yields frames. Without it, only frames fully inside the signal are
// returned.
//
// Frames are copies and may be modified by the caller.
func Frame(signal []float64, frameSize, hopSize int, center bool) [][]float64 {
	if len(signal) == 0 || frameSize <= 0 || hopSize <= 0 {
		return [][]float64{}
	}

	padded := signal
	if center {
		pad := frameSize / 2
		padded = make([]float64, len(signal)+2*pad)
		copy(padded[pad:], signal)
	}

	if len(padded) < frameSize {
		return [][]float64{}
	}

	numFrames := (len(padded)-frameSize)/hopSize + 1
	frames := make([][]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		frame := make([]float64, frameSize)
		copy(frame, padded[start:start+frameSize])
		frames[i] = frame
	}

	return frames
}

// FrameCount returns the number of frames Frame would produce without
// allocating them.
func FrameCount(length, frameSize, hopSize int, center bool) int {
	if length == 0 || frameSize <= 0 || hopSize <= 0 {
		return 0
	}
	if center {
		length += 2 * (frameSize / 2)
	}
	if length < frameSize {
		return 0
	}
	return (length-frameSize)/hopSize + 1
}
