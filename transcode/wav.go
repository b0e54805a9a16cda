package transcode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// WriteWAV encodes interleaved 16-bit PCM as a WAV stream
func WriteWAV(w io.WriteSeeker, pcm []int16, sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid audio format: %d Hz, %d channels", sampleRate, channels)
	}

	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	encoder := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return nil
}

// WriteTempWAV writes PCM to a uniquely named WAV file in dir (os.TempDir when
// empty) and returns its path. The caller removes the file.
func WriteTempWAV(dir string, pcm []int16, sampleRate, channels int) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, "sonido-"+uuid.NewString()+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create temp WAV: %w", err)
	}

	if err := WriteWAV(f, pcm, sampleRate, channels); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close temp WAV: %w", err)
	}

	return path, nil
}

// FloatToPCM converts a [-1, 1] waveform to 16-bit samples, clipping overs
func FloatToPCM(samples []float64) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		pcm[i] = int16(v)
	}
	return pcm
}

// MonoPCM returns the 16-bit mono downmix of the decoded audio
func (a *AudioData) MonoPCM() []int16 {
	if a.Channels == 1 {
		out := make([]int16, len(a.PCM))
		copy(out, a.PCM)
		return out
	}
	return FloatToPCM(a.Samples)
}
