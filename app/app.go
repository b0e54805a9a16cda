package app

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-coach/algorithms/tonal"
	"github.com/RyanBlaney/sonido-coach/analysis"
	"github.com/RyanBlaney/sonido-coach/clients"
	"github.com/RyanBlaney/sonido-coach/config"
	"github.com/RyanBlaney/sonido-coach/logging"
	"github.com/RyanBlaney/sonido-coach/transcode"
)

// ConfigureLogging installs the global logger described by cfg
func ConfigureLogging(cfg config.LoggingConfig) logging.Logger {
	var logger *logging.DefaultLogger
	if cfg.JSON {
		logger = logging.NewJSONLogger(os.Stderr)
	} else {
		logger = logging.NewDefaultLogger()
	}
	logger.SetLevel(logging.ParseLevel(cfg.Level))
	logging.SetGlobalLogger(logger)
	return logger
}

// PitchParams converts the analysis section into tracker parameters; the
// sample rate is filled in per recording
func PitchParams(cfg config.AnalysisConfig) (tonal.PitchTrackerParams, error) {
	method, err := tonal.ParsePitchMethod(cfg.PitchMethod)
	if err != nil {
		return tonal.PitchTrackerParams{}, err
	}

	params := tonal.DefaultPitchTrackerParams(0)
	params.Method = method
	params.MinFreq = cfg.MinPitch
	params.MaxFreq = cfg.MaxPitch
	params.FrameDuration = cfg.FrameDuration
	return params, nil
}

// NewAnalyzer builds the process-wide analyzer and its collaborators
func NewAnalyzer(cfg *config.Config) (*analysis.Analyzer, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "app",
		"function":  "NewAnalyzer",
	})

	params, err := PitchParams(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("pitch tracker: %w", err)
	}

	decoder := transcode.NewDecoder(&transcode.DecoderConfig{
		FFmpegPath:  cfg.Decoder.FFmpegPath,
		FFprobePath: cfg.Decoder.FFprobePath,
		Timeout:     cfg.Decoder.Timeout,
		MaxDuration: cfg.Decoder.MaxDuration,
	})

	var transcriber analysis.Transcriber = clients.NoopTranscriber{}
	if cfg.Transcription.URL != "" {
		transcriber = clients.NewHTTPTranscriber(clients.NewHTTP(cfg.Transcription.Timeout), cfg.Transcription.URL, cfg.Server.TempDir)
	} else {
		logger.Info("No transcription service configured, speaking rate will be 0")
	}

	var emotion analysis.EmotionClassifier
	switch cfg.Emotion.Strategy {
	case config.EmotionStrategyModel:
		emotion = clients.NewEmotionModelClient(clients.NewHTTP(cfg.Emotion.Timeout), cfg.Emotion.URL, cfg.Server.TempDir)
	default:
		emotion = analysis.NewRuleBasedEmotion(params)
	}

	opts := analysis.Options{
		Decoder:     decoder,
		Transcriber: transcriber,
		Emotion:     emotion,
		PitchParams: params,
		Parallel:    cfg.Analysis.Parallel,
	}

	vad, err := temporal.NewVoiceActivityDetector(cfg.Analysis.VADAggressiveness)
	if err != nil {
		logger.Warn("Voice activity detector failed to initialize", logging.Fields{"error": err.Error()})
	} else {
		opts.VAD = vad
	}

	logger.Info("Analyzer configured", logging.Fields{
		"pitch_method":     string(params.Method),
		"emotion_strategy": cfg.Emotion.Strategy,
		"vad_mode":         cfg.Analysis.VADAggressiveness,
		"parallel":         cfg.Analysis.Parallel,
	})

	return analysis.NewAnalyzer(opts), nil
}
