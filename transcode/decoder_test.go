package transcode

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sinePCM(freq float64, sampleRate, channels int, seconds float64) []int16 {
	frames := int(float64(sampleRate) * seconds)
	pcm := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		v := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			pcm[i*channels+c] = v
		}
	}
	return pcm
}

func wavBytes(t *testing.T, pcm []int16, sampleRate, channels int) []byte {
	t.Helper()
	path, err := WriteTempWAV(t.TempDir(), pcm, sampleRate, channels)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestDecodeWAV(t *testing.T) {
	decoder := NewDecoder(nil)

	t.Run("mono", func(t *testing.T) {
		pcm := sinePCM(220, 16000, 1, 1.0)
		audio, err := decoder.DecodeBytes(context.Background(), wavBytes(t, pcm, 16000, 1))
		require.NoError(t, err)

		assert.Equal(t, 16000, audio.SampleRate)
		assert.Equal(t, 1, audio.Channels)
		assert.Len(t, audio.Samples, 16000)
		assert.InDelta(t, 1.0, audio.Seconds(), 1e-9)
		assert.Equal(t, pcm, audio.PCM)
		assert.InDelta(t, float64(pcm[100])/32768.0, audio.Samples[100], 1e-9)
		assert.Equal(t, "wav", audio.Metadata.Format)
		assert.Equal(t, 16, audio.Metadata.BitDepth)
	})

	t.Run("stereo_is_averaged", func(t *testing.T) {
		pcm := sinePCM(220, 8000, 2, 0.5)
		// silence the right channel
		for i := 1; i < len(pcm); i += 2 {
			pcm[i] = 0
		}

		audio, err := decoder.DecodeBytes(context.Background(), wavBytes(t, pcm, 8000, 2))
		require.NoError(t, err)

		assert.Equal(t, 2, audio.Channels)
		assert.Len(t, audio.Samples, 4000)
		assert.Len(t, audio.PCM, 8000)
		assert.InDelta(t, float64(pcm[20])/2/32768.0, audio.Samples[10], 1e-9)
		assert.Len(t, audio.MonoPCM(), 4000)
	})
}

func TestDecodeErrors(t *testing.T) {
	decoder := NewDecoder(nil)
	ctx := context.Background()

	_, err := decoder.DecodeBytes(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = decoder.DecodeBytes(ctx, []byte("definitely not audio"))
	assert.Error(t, err)

	_, err = decoder.DecodeBytes(ctx, wavBytes(t, nil, 16000, 1))
	assert.Error(t, err)

	_, err = decoder.DecodeFile(ctx, filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestDecodeWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	dir := t.TempDir()
	src, err := WriteTempWAV(dir, sinePCM(220, 16000, 1, 1.0), 16000, 1)
	require.NoError(t, err)

	flac := filepath.Join(dir, "tone.flac")
	require.NoError(t, exec.Command("ffmpeg", "-v", "error", "-i", src, flac).Run())

	data, err := os.ReadFile(flac)
	require.NoError(t, err)

	audio, err := NewDecoder(nil).DecodeBytes(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 16000, audio.SampleRate)
	assert.InDelta(t, 1.0, audio.Seconds(), 0.05)
}

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"opus","sample_rate":"48000","channels":1,"duration":"2.5"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 48000, meta.SampleRate)
	assert.Equal(t, "opus", meta.Codec)
	assert.InDelta(t, 2.5, meta.Duration, 1e-9)

	_, err = parseFFprobeOutput([]byte(`{"streams":[]}`))
	assert.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video","sample_rate":"48000","channels":1}]}`))
	assert.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`not json`))
	assert.Error(t, err)
}

func TestFloatToPCM(t *testing.T) {
	assert.Equal(t, []int16{0, 32767, -32768, 16383}, FloatToPCM([]float64{0, 2, -2, 0.5}))
}

func TestWriteWAVRejectsBadFormat(t *testing.T) {
	_, err := WriteTempWAV(t.TempDir(), []int16{1, 2}, 0, 1)
	assert.Error(t, err)
}
