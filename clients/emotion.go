package clients

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/transcode"
)

// ModelSampleRate is the input rate the emotion model expects
const ModelSampleRate = 16000

// ErrUnsupportedLabel is returned when the model answers outside its vocabulary
var ErrUnsupportedLabel = errors.New("unsupported emotion label")

// EmotionLabels is the classifier's fixed output vocabulary
var EmotionLabels = []string{"neutral", "calm", "happy", "sad", "angry", "fearful", "disgust", "surprised"}

type emotionResp struct {
	Label string `json:"label"`
}

// EmotionModelClient classifies speech with a pretrained model behind <url>/classify
type EmotionModelClient struct {
	http    *HTTP
	url     string
	tempDir string
	interp  *common.Interpolator
}

// NewEmotionModelClient creates a client for the model service at url
func NewEmotionModelClient(h *HTTP, url, tempDir string) *EmotionModelClient {
	return &EmotionModelClient{
		http:    h,
		url:     strings.TrimRight(url, "/"),
		tempDir: tempDir,
		interp:  common.NewInterpolator(common.Linear),
	}
}

// Classify resamples the waveform to 16 kHz, uploads it and returns the label
func (c *EmotionModelClient) Classify(ctx context.Context, audio *transcode.AudioData) (string, error) {
	if audio == nil || len(audio.Samples) == 0 {
		return "", transcode.ErrNoSamples
	}

	resampled := c.interp.ResampleSignal(audio.Samples, audio.SampleRate, ModelSampleRate)

	path, err := transcode.WriteTempWAV(c.tempDir, transcode.FloatToPCM(resampled), ModelSampleRate, 1)
	if err != nil {
		return "", fmt.Errorf("emotion: %w", err)
	}
	defer os.Remove(path)

	var out emotionResp
	if err := c.http.postFile(ctx, c.url+"/classify", path, &out); err != nil {
		return "", fmt.Errorf("emotion %w", err)
	}

	label := strings.TrimSpace(out.Label)
	if !slices.Contains(EmotionLabels, strings.ToLower(label)) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLabel, label)
	}
	return label, nil
}
