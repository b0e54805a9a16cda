package analysis

import (
	"encoding/json"
	"strings"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
)

// Label is a coarse classification of a feature statistic
type Label string

const (
	LabelLow     Label = "Low"
	LabelMedium  Label = "Medium"
	LabelHigh    Label = "High"
	LabelUnknown Label = "Unknown"
	LabelNA      Label = "N/A"
)

// NotAvailable marks string fields that were not computed
const NotAvailable = "N/A"

// FeatureStat summarizes a per-frame measurement
type FeatureStat struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"` // population standard deviation
	Range float64 `json:"range"`
}

// NewFeatureStat computes mean, std and range; empty input gives zeros
func NewFeatureStat(values []float64) FeatureStat {
	if len(values) == 0 {
		return FeatureStat{}
	}
	return FeatureStat{
		Mean:  common.Mean(values),
		Std:   common.PopulationStdDev(values),
		Range: common.Range(values),
	}
}

// AnalysisLevel selects which extractors run
type AnalysisLevel string

const (
	LevelBasic    AnalysisLevel = "basic"
	LevelDetailed AnalysisLevel = "detailed"
	LevelAdvanced AnalysisLevel = "advanced"
)

// ParseLevel maps a request value to a level. Empty or unknown values fall
// back to detailed; ok reports whether the value was recognized.
func ParseLevel(s string) (level AnalysisLevel, ok bool) {
	switch AnalysisLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LevelBasic:
		return LevelBasic, true
	case LevelDetailed:
		return LevelDetailed, true
	case LevelAdvanced:
		return LevelAdvanced, true
	case "":
		return LevelDetailed, true
	default:
		return LevelDetailed, false
	}
}

// SegmentPoint is one bar of the visualization series
type SegmentPoint struct {
	Index  int     // 1-based segment number
	Pitch  float64 // mean voiced F0 / 10
	Energy float64 // mean RMS * 1000
}

// SegmentSeries serializes as the column-oriented document the frontend charts
type SegmentSeries []SegmentPoint

type segmentSeriesJSON struct {
	Labels     []int     `json:"labels"`
	PitchData  []float64 `json:"pitchData"`
	EnergyData []float64 `json:"energyData"`
}

func (s SegmentSeries) MarshalJSON() ([]byte, error) {
	doc := segmentSeriesJSON{
		Labels:     make([]int, 0, len(s)),
		PitchData:  make([]float64, 0, len(s)),
		EnergyData: make([]float64, 0, len(s)),
	}
	for _, p := range s {
		doc.Labels = append(doc.Labels, p.Index)
		doc.PitchData = append(doc.PitchData, p.Pitch)
		doc.EnergyData = append(doc.EnergyData, p.Energy)
	}
	return json.Marshal(doc)
}

func (s *SegmentSeries) UnmarshalJSON(data []byte) error {
	var doc segmentSeriesJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	series := make(SegmentSeries, len(doc.Labels))
	for i, idx := range doc.Labels {
		series[i].Index = idx
		if i < len(doc.PitchData) {
			series[i].Pitch = doc.PitchData[i]
		}
		if i < len(doc.EnergyData) {
			series[i].Energy = doc.EnergyData[i]
		}
	}
	*s = series
	return nil
}

// DefaultSegmentSeries is the ten zero points reported when the series
// cannot be computed
func DefaultSegmentSeries() SegmentSeries {
	series := make(SegmentSeries, segmentCount)
	for i := range series {
		series[i].Index = i + 1
	}
	return series
}

// AdvancedMetrics are only computed at the advanced level
type AdvancedMetrics struct {
	PaceConsistency     string `json:"pace_consistency"`
	ExpressivenessScore int    `json:"expressiveness_score"`
}

// AnalysisResult is the flat result document. Every field is always present.
type AnalysisResult struct {
	Duration        float64         `json:"duration"`
	Transcript      string          `json:"transcript"`
	SpeakingRate    float64         `json:"speaking_rate"`
	PitchVariation  Label           `json:"pitch_variation"`
	EnergyLevel     Label           `json:"energy_level"`
	SilenceRatio    float64         `json:"silence_ratio"`
	Emotion         string          `json:"emotion"`
	Feedback        string          `json:"feedback"`
	PatternData     SegmentSeries   `json:"pattern_data"`
	PitchStats      FeatureStat     `json:"pitch_stats"`
	EnergyValue     float64         `json:"energy_value"`
	VolumeVariation Label           `json:"volume_variation"`
	EnergyStats     FeatureStat     `json:"energy_stats"`
	AdvancedMetrics AdvancedMetrics `json:"advanced_metrics"`
	Level           AnalysisLevel   `json:"level"`
}

// NewResult returns a result holding every field's default
func NewResult(level AnalysisLevel, duration float64) *AnalysisResult {
	return &AnalysisResult{
		Duration:        duration,
		PitchVariation:  LabelNA,
		EnergyLevel:     LabelNA,
		Emotion:         NotAvailable,
		PatternData:     SegmentSeries{},
		VolumeVariation: LabelNA,
		AdvancedMetrics: AdvancedMetrics{
			PaceConsistency: NotAvailable,
		},
		Level: level,
	}
}

// Outcome carries an extractor's value or the error that replaced it
type Outcome[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Fail wraps an error
func Fail[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}

// Or returns the value, or def when the extractor failed
func (o Outcome[T]) Or(def T) T {
	if o.Err != nil {
		return def
	}
	return o.Value
}
