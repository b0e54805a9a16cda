package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// SONIDO_COACH_SERVER_ADDR
const EnvPrefix = "SONIDO_COACH"

// Emotion strategies
const (
	EmotionStrategyRules = "rules"
	EmotionStrategyModel = "model"
)

// Config is the complete service configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server" json:"server"`
	Decoder       DecoderConfig       `mapstructure:"decoder" yaml:"decoder" json:"decoder"`
	Analysis      AnalysisConfig      `mapstructure:"analysis" yaml:"analysis" json:"analysis"`
	Transcription TranscriptionConfig `mapstructure:"transcription" yaml:"transcription" json:"transcription"`
	Emotion       EmotionConfig       `mapstructure:"emotion" yaml:"emotion" json:"emotion"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging" json:"logging"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	CORSOrigins    []string      `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" json:"max_upload_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout"`
	TempDir        string        `mapstructure:"temp_dir" yaml:"temp_dir" json:"temp_dir"` // "" uses the OS default
}

type DecoderConfig struct {
	FFmpegPath  string        `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath string        `mapstructure:"ffprobe_path" yaml:"ffprobe_path" json:"ffprobe_path"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	MaxDuration time.Duration `mapstructure:"max_duration" yaml:"max_duration" json:"max_duration"` // 0 disables the limit
}

type AnalysisConfig struct {
	PitchMethod       string  `mapstructure:"pitch_method" yaml:"pitch_method" json:"pitch_method"` // "spectral" or "yin"
	MinPitch          float64 `mapstructure:"min_pitch" yaml:"min_pitch" json:"min_pitch"`          // Hz
	MaxPitch          float64 `mapstructure:"max_pitch" yaml:"max_pitch" json:"max_pitch"`          // Hz
	FrameDuration     float64 `mapstructure:"frame_duration" yaml:"frame_duration" json:"frame_duration"`
	VADAggressiveness int     `mapstructure:"vad_aggressiveness" yaml:"vad_aggressiveness" json:"vad_aggressiveness"`
	Parallel          bool    `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
	DefaultLevel      string  `mapstructure:"default_level" yaml:"default_level" json:"default_level"`
}

type TranscriptionConfig struct {
	URL     string        `mapstructure:"url" yaml:"url" json:"url"` // "" disables transcription
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

type EmotionConfig struct {
	Strategy string        `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	URL      string        `mapstructure:"url" yaml:"url" json:"url"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json" json:"json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origins", []string{"http://127.0.0.1:8000"})
	v.SetDefault("server.max_upload_bytes", 50<<20)
	v.SetDefault("server.request_timeout", 2*time.Minute)
	v.SetDefault("server.temp_dir", "")

	v.SetDefault("decoder.ffmpeg_path", "ffmpeg")
	v.SetDefault("decoder.ffprobe_path", "ffprobe")
	v.SetDefault("decoder.timeout", 60*time.Second)
	v.SetDefault("decoder.max_duration", 10*time.Minute)

	v.SetDefault("analysis.pitch_method", "spectral")
	v.SetDefault("analysis.min_pitch", 75.0)
	v.SetDefault("analysis.max_pitch", 500.0)
	v.SetDefault("analysis.frame_duration", 0.025)
	v.SetDefault("analysis.vad_aggressiveness", 3)
	v.SetDefault("analysis.parallel", true)
	v.SetDefault("analysis.default_level", "detailed")

	v.SetDefault("transcription.url", "")
	v.SetDefault("transcription.timeout", 60*time.Second)

	v.SetDefault("emotion.strategy", EmotionStrategyRules)
	v.SetDefault("emotion.url", "")
	v.SetDefault("emotion.timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}

// Default returns the configuration with no file and no environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads defaults, then the optional YAML file at path, then SONIDO_COACH_*
// environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}

	switch c.Analysis.PitchMethod {
	case "spectral", "yin":
	default:
		errs = append(errs, fmt.Errorf("analysis.pitch_method %q must be spectral or yin", c.Analysis.PitchMethod))
	}
	if c.Analysis.MinPitch <= 0 || c.Analysis.MaxPitch <= c.Analysis.MinPitch {
		errs = append(errs, fmt.Errorf("analysis pitch range %.1f-%.1f Hz is invalid", c.Analysis.MinPitch, c.Analysis.MaxPitch))
	}
	if c.Analysis.FrameDuration <= 0 {
		errs = append(errs, errors.New("analysis.frame_duration must be positive"))
	}
	if c.Analysis.VADAggressiveness < 0 || c.Analysis.VADAggressiveness > 3 {
		errs = append(errs, fmt.Errorf("analysis.vad_aggressiveness %d must be between 0 and 3", c.Analysis.VADAggressiveness))
	}
	switch c.Analysis.DefaultLevel {
	case "basic", "detailed", "advanced":
	default:
		errs = append(errs, fmt.Errorf("analysis.default_level %q is not a level", c.Analysis.DefaultLevel))
	}

	switch c.Emotion.Strategy {
	case EmotionStrategyRules:
	case EmotionStrategyModel:
		if c.Emotion.URL == "" {
			errs = append(errs, errors.New("emotion.url is required for the model strategy"))
		}
	default:
		errs = append(errs, fmt.Errorf("emotion.strategy %q must be %s or %s", c.Emotion.Strategy, EmotionStrategyRules, EmotionStrategyModel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Dump renders the configuration as YAML
func Dump(c *Config) ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return out, nil
}
