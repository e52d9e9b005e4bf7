package model

import "github.com/pkg/errors"

// Level is the three-tier risk classification of a probability.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"

	// LevelUnknown is the sentinel for subjects with no behavioral data.
	LevelUnknown Level = "UNKNOWN"
)

// Thresholds are the ascending cut points that partition [0,1] into
// LOW/MEDIUM/HIGH. An immutable value: updates replace the whole struct.
type Thresholds struct {
	Low    float64 `json:"low" yaml:"low"`
	Medium float64 `json:"medium" yaml:"medium"`
	High   float64 `json:"high" yaml:"high"`
}

// DefaultThresholds mirror the deployed model defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.3, Medium: 0.7, High: 0.9}
}

// Validate enforces strict ascending order. Callers updating thresholds
// must check this; Classify itself does not correct bad configuration.
func (t Thresholds) Validate() error {
	if !(t.Low < t.Medium && t.Medium < t.High) {
		return errors.Errorf("thresholds must be ascending: low=%v medium=%v high=%v",
			t.Low, t.Medium, t.High)
	}
	return nil
}

// Classify maps a probability to a tier: below Low is LOW, below Medium
// is MEDIUM, everything else HIGH.
func (t Thresholds) Classify(probability float64) Level {
	switch {
	case probability < t.Low:
		return LevelLow
	case probability < t.Medium:
		return LevelMedium
	default:
		return LevelHigh
	}
}
