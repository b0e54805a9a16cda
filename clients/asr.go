package clients

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/RyanBlaney/sonido-coach/logging"
	"github.com/RyanBlaney/sonido-coach/transcode"
)

// Transcriber turns mono 16-bit PCM into best-effort text
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error)
}

type asrResp struct {
	Text string `json:"text"`
}

// HTTPTranscriber posts a WAV to <url>/transcribe
type HTTPTranscriber struct {
	http    *HTTP
	url     string
	tempDir string
}

// NewHTTPTranscriber creates a speech-to-text client for the service at url
func NewHTTPTranscriber(h *HTTP, url, tempDir string) *HTTPTranscriber {
	return &HTTPTranscriber{
		http:    h,
		url:     strings.TrimRight(url, "/"),
		tempDir: tempDir,
	}
}

// Transcribe writes pcm to a temporary WAV, uploads it and returns the text.
// The temporary file is removed on every path.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "asr_client",
		"function":  "Transcribe",
		"samples":   len(pcm),
	})

	if len(pcm) == 0 {
		return "", nil
	}

	path, err := transcode.WriteTempWAV(t.tempDir, pcm, sampleRate, 1)
	if err != nil {
		return "", fmt.Errorf("asr: %w", err)
	}
	defer os.Remove(path)

	var out asrResp
	if err := t.http.postFile(ctx, t.url+"/transcribe", path, &out); err != nil {
		return "", fmt.Errorf("asr %w", err)
	}

	logger.Debug("Transcription received", logging.Fields{
		"characters": len(out.Text),
	})
	return strings.TrimSpace(out.Text), nil
}

// NoopTranscriber is used when no speech-to-text service is configured
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error) {
	return "", nil
}
