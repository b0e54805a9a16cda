package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/h2non/filetype"

	"github.com/RyanBlaney/sonido-coach/logging"
)

var (
	// ErrEmptyAudio is returned for a zero-length upload
	ErrEmptyAudio = errors.New("empty audio data")
	// ErrNoSamples is returned when decoding succeeds but yields no samples
	ErrNoSamples = errors.New("no audio samples decoded")
)

// AudioData represents decoded audio data
type AudioData struct {
	Samples    []float64      `json:"-"` // Mono waveform in [-1, 1]
	PCM        []int16        `json:"-"` // Interleaved 16-bit PCM at the source channel count
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"`
	Duration   time.Duration  `json:"duration"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// Seconds returns the waveform length in seconds
func (a *AudioData) Seconds() float64 {
	if a == nil || a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// AudioMetadata holds detected audio properties
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
	MIME       string  `json:"mime,omitempty"`
	BitDepth   int     `json:"bit_depth,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout"`      // Timeout for ffmpeg operations
	MaxDuration time.Duration `json:"max_duration"` // 0 means no limit
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:  "ffmpeg",  // Assume in PATH
		FFprobePath: "ffprobe", // Assume in PATH
		Timeout:     30 * time.Second,
		MaxDuration: 0,
	}
}

// Decoder turns uploaded bytes into a waveform. RIFF/WAVE input is decoded
// natively; every other container goes through ffprobe/ffmpeg.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile reads and decodes an audio file
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return d.DecodeBytes(ctx, data)
}

// DecodeBytes decodes audio from byte slice
func (d *Decoder) DecodeBytes(ctx context.Context, data []byte) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeBytes",
		"data_size": len(data),
	})

	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	kind, _ := filetype.Match(data)
	logger.Debug("Starting audio bytes decode", logging.Fields{
		"mime":      kind.MIME.Value,
		"extension": kind.Extension,
	})

	if kind.Extension == "wav" {
		audioData, err := d.decodeWAV(data)
		if err == nil {
			audioData.Metadata.MIME = kind.MIME.Value
			return audioData, nil
		}
		if errors.Is(err, ErrNoSamples) {
			return nil, err
		}
		// Non-PCM WAV (float, ADPCM, ...) is left to ffmpeg
		logger.Debug("Native WAV decode failed, falling back to ffmpeg", logging.Fields{
			"error": err.Error(),
		})
	}

	metadata, err := d.probeAudioMetadata(ctx, data)
	if err != nil {
		logger.Error(err, "Failed to probe audio metadata")
		return nil, err
	}
	metadata.MIME = kind.MIME.Value

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
		"input_format":      metadata.Format,
	})

	return d.decodeWithFFmpeg(ctx, data, metadata)
}

// decodeWAV decodes integer PCM WAV with go-audio
func (d *Decoder) decodeWAV(data []byte) (*AudioData, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("unsupported WAV audio format %d", dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid WAV format")
	}

	bitDepth := int(buf.SourceBitDepth)
	pcm := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = toInt16(v, bitDepth)
	}

	audioData, err := newAudioData(pcm, buf.Format.SampleRate, buf.Format.NumChannels, d.config.MaxDuration)
	if err != nil {
		return nil, err
	}
	audioData.Metadata = &AudioMetadata{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Codec:      "pcm",
		Duration:   audioData.Seconds(),
		Format:     "wav",
		BitDepth:   bitDepth,
	}
	return audioData, nil
}

// toInt16 rescales a go-audio integer sample to 16 bits. 8-bit WAV is unsigned.
func toInt16(v, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		return int16((v - 128) << 8)
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	default:
		return int16(v)
	}
}

// newAudioData builds the mono waveform from interleaved PCM
func newAudioData(pcm []int16, sampleRate, channels int, maxDuration time.Duration) (*AudioData, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid audio format: %d Hz, %d channels", sampleRate, channels)
	}

	// Drop a trailing partial frame
	pcm = pcm[:len(pcm)-len(pcm)%channels]
	if maxDuration > 0 {
		limit := int(maxDuration.Seconds()*float64(sampleRate)) * channels
		if limit < len(pcm) {
			pcm = pcm[:limit]
		}
	}

	frames := len(pcm) / channels
	if frames == 0 {
		return nil, ErrNoSamples
	}

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(pcm[i*channels+c])
		}
		samples[i] = sum / float64(channels) / 32768.0
	}

	return &AudioData{
		Samples:    samples,
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   time.Duration(frames) * time.Second / time.Duration(sampleRate),
		Timestamp:  time.Now(),
	}, nil
}

// probeAudioMetadata uses ffprobe to get input audio information from bytes
func (d *Decoder) probeAudioMetadata(ctx context.Context, data []byte) (*AudioMetadata, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		"pipe:0", // Input from stdin
	}

	cmd := exec.CommandContext(ctx, d.config.FFprobePath, args...)
	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// decodeWithFFmpeg decodes to interleaved s16le at the source rate and channel count
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, data []byte, metadata *AudioMetadata) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "decodeWithFFmpeg",
	})

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := append([]string{"-i", "pipe:0"}, d.buildFFmpegArgs(metadata)...)
	args = append(args, "pipe:1")

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	cmd.Stdin = bytes.NewReader(data)

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	audioData, err := newAudioData(bytesToInt16(output), metadata.SampleRate, metadata.Channels, d.config.MaxDuration)
	if err != nil {
		return nil, err
	}
	audioData.Metadata = metadata

	logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"input_codec":     metadata.Codec,
		"output_samples":  len(audioData.Samples),
		"sample_rate":     audioData.SampleRate,
		"channels":        audioData.Channels,
		"output_duration": audioData.Seconds(),
	})

	return audioData, nil
}

// buildFFmpegArgs keeps the source rate and layout so the analysis sees the
// recording as captured
func (d *Decoder) buildFFmpegArgs(metadata *AudioMetadata) []string {
	args := []string{
		"-vn",         // No video
		"-f", "s16le", // Raw signed 16-bit little-endian
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(metadata.Channels),
		"-ar", strconv.Itoa(metadata.SampleRate),
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	// Suppress ffmpeg output
	return append(args, "-v", "error")
}

// bytesToInt16 converts raw s16le bytes to samples
func bytesToInt16(data []byte) []int16 {
	data = data[:len(data)-len(data)%2]

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return samples
}

// CheckFFmpeg verifies that ffmpeg and ffprobe can be executed
func (d *Decoder) CheckFFmpeg(ctx context.Context) error {
	if err := exec.CommandContext(ctx, d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}

	if err := exec.CommandContext(ctx, d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}

	return nil
}
