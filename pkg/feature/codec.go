package feature

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Count is the fixed number of dimensions produced by Extract.
const Count = 8

const (
	// Upstream rows deliver watch time in either hours or minutes.
	// Anything above this is assumed to be minutes.
	minutesCutoff = 24.0

	// Watch time normalizes linearly over 0-10 hours.
	watchHoursMax = 10.0

	// Homework scores are on a 0-100 scale.
	scoreMax = 100.0

	// Login frequency normalizes linearly over 0-50 logins per week.
	loginMax = 50.0

	standardizeEpsilon = 1e-10
)

var errNilSignals = errors.New("signals required")

// Signals is one row of raw behavioral quantities for a (student, course)
// window. Units are not guaranteed consistent: rate-like fields may arrive
// as fractions or percentages, and watch time as hours or minutes.
type Signals struct {
	WatchTime      float64 `json:"watch_time" yaml:"watchTime"`
	CompletionRate float64 `json:"completion_rate" yaml:"completionRate"`
	SubmitRate     float64 `json:"submit_rate" yaml:"submitRate"`
	AvgScore       float64 `json:"avg_score" yaml:"avgScore"`
	LoginCount     float64 `json:"login_count" yaml:"loginCount"`
	Focus          float64 `json:"focus" yaml:"focus"`
	Consistency    float64 `json:"consistency" yaml:"consistency"`
	Interaction    float64 `json:"interaction" yaml:"interaction"`
}

// Extract maps raw signals into the fixed 8-dim vector, every dimension
// in [0,1]. The dimension order is part of the contract: watch time,
// completion rate, submit rate, avg score, login count, focus,
// consistency, interaction.
func Extract(s *Signals) ([]float64, error) {
	if s == nil {
		return nil, errNilSignals
	}

	v := make([]float64, Count)
	v[0] = normalizeRange(toHours(s.WatchTime), 0, watchHoursMax)
	v[1] = norm01(s.CompletionRate)
	v[2] = norm01(s.SubmitRate)
	v[3] = normalizeRange(s.AvgScore, 0, scoreMax)
	v[4] = normalizeRange(s.LoginCount, 0, loginMax)
	v[5] = norm01(s.Focus)
	v[6] = norm01(s.Consistency)
	v[7] = norm01(s.Interaction)

	return v, nil
}

// ExtractBatch applies Extract to each element independently, preserving
// order. A nil list yields an empty result.
func ExtractBatch(list []*Signals) ([][]float64, error) {
	vectors := make([][]float64, 0, len(list))
	for i, s := range list {
		v, err := Extract(s)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract features for item %d", i)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// Trend returns, per dimension, latest feature value minus the mean over
// the whole window. The input must be time-ordered. Fewer than 2 samples
// yields an all-zero vector.
func Trend(window []*Signals) ([]float64, error) {
	trend := make([]float64, Count)
	if len(window) < 2 {
		return trend, nil
	}

	means := make([]float64, Count)
	for _, s := range window {
		v, err := Extract(s)
		if err != nil {
			return nil, err
		}
		for i := range means {
			means[i] += v[i]
		}
	}
	n := float64(len(window))
	for i := range means {
		means[i] /= n
	}

	latest, err := Extract(window[len(window)-1])
	if err != nil {
		return nil, err
	}
	for i := range trend {
		trend[i] = latest[i] - means[i]
	}
	return trend, nil
}

// Standardize z-scores a vector against parallel mean/std vectors.
func Standardize(features, mean, std []float64) ([]float64, error) {
	if len(features) != len(mean) || len(features) != len(std) {
		return nil, errors.Errorf("dimension mismatch: features=%d mean=%d std=%d",
			len(features), len(mean), len(std))
	}
	out := make([]float64, len(features))
	for i := range features {
		out[i] = (features[i] - mean[i]) / (std[i] + standardizeEpsilon)
	}
	return out, nil
}

// Denormalize maps a [0,1] value back onto [min,max].
func Denormalize(normalized, min, max float64) float64 {
	return normalized*(max-min) + min
}

// Importance is the static per-dimension weight table used for factor
// ranking in reports.
func Importance() []float64 {
	return []float64{0.15, 0.20, 0.25, 0.20, 0.10, 0.05, 0.03, 0.02}
}

var dimensionNames = []string{
	"watch time",
	"completion rate",
	"submit rate",
	"avg score",
	"login count",
	"focus",
	"consistency",
	"interaction",
}

// Describe renders a vector as one name=value line per dimension.
func Describe(features []float64) string {
	if len(features) != Count {
		return "invalid feature vector"
	}
	var b strings.Builder
	for i, f := range features {
		fmt.Fprintf(&b, "%s=%.4f\n", dimensionNames[i], f)
	}
	return b.String()
}

// norm01 folds a value that may be a fraction (0-1) or a percentage
// (0-100) into [0,1]: anything above 1 is treated as a percentage.
func norm01(v float64) float64 {
	if v > 1.0 {
		v = v / 100.0
	}
	return clamp01(v)
}

// toHours folds a watch time that may be hours or minutes into hours.
func toHours(v float64) float64 {
	if v > minutesCutoff {
		return v / 60.0
	}
	return v
}

func normalizeRange(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return clamp01((v - min) / (max - min))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
