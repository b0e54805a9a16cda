package analysis

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-coach/algorithms/tonal"
	"github.com/RyanBlaney/sonido-coach/logging"
	"github.com/RyanBlaney/sonido-coach/transcode"
)

// Transcriber turns mono 16-bit PCM into text. Implementations return "" when
// nothing was recognized.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []int16, sampleRate int) (string, error)
}

// Options holds the collaborators of an Analyzer. Nil collaborators degrade
// their fields to defaults.
type Options struct {
	Decoder     *transcode.Decoder
	Transcriber Transcriber
	Emotion     EmotionClassifier
	VAD         VoiceDetector
	PitchParams tonal.PitchTrackerParams
	Parallel    bool
}

// Analyzer is built once and shared by every request
type Analyzer struct {
	decoder     *transcode.Decoder
	transcriber Transcriber
	emotion     EmotionClassifier
	vad         VoiceDetector
	pitchParams tonal.PitchTrackerParams
	onsets      *temporal.OnsetDetection
	parallel    bool
	logger      logging.Logger
}

// NewAnalyzer creates an analyzer. A zero PitchParams uses the speech defaults.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.Decoder == nil {
		opts.Decoder = transcode.NewDecoder(nil)
	}
	if opts.PitchParams.FrameDuration == 0 {
		opts.PitchParams = tonal.DefaultPitchTrackerParams(0)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "analyzer",
	})
	if opts.VAD == nil {
		logger.Warn("voice activity detector unavailable, silence ratio will be 0")
	}

	return &Analyzer{
		decoder:     opts.Decoder,
		transcriber: opts.Transcriber,
		emotion:     opts.Emotion,
		vad:         opts.VAD,
		pitchParams: opts.PitchParams,
		onsets:      temporal.NewOnsetDetection(),
		parallel:    opts.Parallel,
		logger:      logger,
	}
}

// DecodeFailureResult is returned when the upload could not be decoded
func DecodeFailureResult(level AnalysisLevel) *AnalysisResult {
	result := NewResult(level, 0)
	result.Feedback = FeedbackDecodeFailed
	return result
}

// AnalyzeBytes decodes raw upload bytes and analyzes them. Decode errors are
// not returned; they produce DecodeFailureResult.
func (a *Analyzer) AnalyzeBytes(ctx context.Context, data []byte, level AnalysisLevel) *AnalysisResult {
	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "AnalyzeBytes",
		"level":    string(level),
	})

	audio, err := a.decoder.DecodeBytes(ctx, data)
	if err != nil {
		logger.Error(err, "Failed to decode audio")
		return DecodeFailureResult(level)
	}

	return a.Analyze(ctx, audio, level)
}

// outcomes collects what each extractor produced; every goroutine writes only
// its own field
type outcomes struct {
	transcript Outcome[string]
	pitch      Outcome[PitchResult]
	energy     Outcome[EnergyResult]
	silence    float64
	emotion    Outcome[string]
	segments   Outcome[SegmentSeries]
	pace       Outcome[string]
}

// Analyze runs the extractors the level asks for and assembles the result.
// Extractor failures fall back to field defaults; the result is never nil.
func (a *Analyzer) Analyze(ctx context.Context, audio *transcode.AudioData, level AnalysisLevel) *AnalysisResult {
	if audio == nil || len(audio.Samples) == 0 || audio.SampleRate <= 0 {
		return DecodeFailureResult(level)
	}

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":    "Analyze",
		"level":       string(level),
		"sample_rate": audio.SampleRate,
		"channels":    audio.Channels,
	})

	result := NewResult(level, audio.Seconds())
	if level == LevelBasic {
		result.Feedback = FeedbackBasic
		logger.Debug("Basic analysis completed", logging.Fields{"duration": result.Duration})
		return result
	}

	out := a.extract(ctx, audio, level, logger)

	result.Transcript = out.transcript.Or("")
	result.SpeakingRate = SpeakingRate(result.Transcript, result.Duration)

	pitch := out.pitch.Or(PitchResult{Label: LabelNA})
	result.PitchVariation = pitch.Label

	energy, energyErr := out.energy.Value, out.energy.Err
	if energyErr == nil {
		result.EnergyLevel = energy.Label
	}

	result.SilenceRatio = out.silence
	result.Emotion = out.emotion.Or(EmotionNeutral)
	result.PatternData = out.segments.Or(DefaultSegmentSeries())

	if level == LevelAdvanced {
		result.PitchStats = pitch.Stats
		if energyErr == nil {
			result.EnergyValue = energy.Value
			result.VolumeVariation = energy.Volume
			result.EnergyStats = energy.Stats
		}
		result.AdvancedMetrics = AdvancedMetrics{
			PaceConsistency:     out.pace.Or(NotAvailable),
			ExpressivenessScore: ExpressivenessScore(result.PitchVariation, result.EnergyLevel, result.SilenceRatio),
		}
	}

	result.Feedback = GenerateFeedback(FeedbackInput{
		Duration:     result.Duration,
		SpeakingRate: result.SpeakingRate,
		Pitch:        result.PitchVariation,
		Energy:       result.EnergyLevel,
		SilenceRatio: result.SilenceRatio,
		Emotion:      result.Emotion,
		Level:        level,
	})

	logger.Info("Analysis completed", logging.Fields{
		"duration":        result.Duration,
		"speaking_rate":   result.SpeakingRate,
		"pitch_variation": string(result.PitchVariation),
		"energy_level":    string(result.EnergyLevel),
		"silence_ratio":   result.SilenceRatio,
		"emotion":         result.Emotion,
	})

	return result
}

func (a *Analyzer) extract(ctx context.Context, audio *transcode.AudioData, level AnalysisLevel, logger logging.Logger) outcomes {
	var out outcomes

	params := a.pitchParams
	params.SampleRate = audio.SampleRate
	tracker, trackerErr := tonal.NewPitchTracker(params)
	if trackerErr != nil {
		logger.Warn("Pitch tracker unavailable", logging.Fields{"error": trackerErr.Error()})
	}

	g, gctx := errgroup.WithContext(ctx)
	if !a.parallel {
		g.SetLimit(1)
	}

	g.Go(func() error {
		out.transcript = a.transcribe(gctx, audio)
		return nil
	})
	g.Go(func() error {
		out.pitch = ExtractPitch(audio.Samples, tracker)
		return nil
	})
	g.Go(func() error {
		out.energy = ExtractEnergy(audio.Samples)
		return nil
	})
	g.Go(func() error {
		out.silence = SilenceRatio(audio.PCM, audio.Channels, audio.SampleRate, a.vad)
		return nil
	})
	g.Go(func() error {
		out.emotion = a.classifyEmotion(gctx, audio)
		return nil
	})
	g.Go(func() error {
		out.segments = BuildSegmentSeries(audio.Samples, tracker)
		return nil
	})
	if level == LevelAdvanced {
		g.Go(func() error {
			out.pace = PaceConsistency(audio.Samples, audio.SampleRate, a.onsets)
			return nil
		})
	} else {
		out.pace = Ok(NotAvailable)
	}

	// extractors never return errors, failures live in their outcomes
	_ = g.Wait()

	warnOnFailure(logger, "transcription", out.transcript.Err)
	warnOnFailure(logger, "pitch", out.pitch.Err)
	warnOnFailure(logger, "energy", out.energy.Err)
	warnOnFailure(logger, "emotion", out.emotion.Err)
	warnOnFailure(logger, "segments", out.segments.Err)
	warnOnFailure(logger, "pace", out.pace.Err)

	return out
}

func (a *Analyzer) transcribe(ctx context.Context, audio *transcode.AudioData) Outcome[string] {
	if a.transcriber == nil {
		return Ok("")
	}
	text, err := a.transcriber.Transcribe(ctx, audio.MonoPCM(), audio.SampleRate)
	if err != nil {
		return Fail[string](fmt.Errorf("transcribe: %w", err))
	}
	return Ok(text)
}

func (a *Analyzer) classifyEmotion(ctx context.Context, audio *transcode.AudioData) Outcome[string] {
	if a.emotion == nil {
		return Fail[string](errors.New("emotion classifier not configured"))
	}
	label, err := a.emotion.Classify(ctx, audio)
	if err != nil {
		return Fail[string](fmt.Errorf("classify emotion: %w", err))
	}
	return Ok(label)
}

func warnOnFailure(logger logging.Logger, extractor string, err error) {
	if err == nil {
		return
	}
	logger.Warn("Extractor failed, using default", logging.Fields{
		"extractor": extractor,
		"error":     err.Error(),
	})
}
