package model

import "github.com/pkg/errors"

// Metrics is the 2x2 confusion matrix plus the derived rates for a
// classifier evaluated at a fixed decision threshold.
type Metrics struct {
	TruePositive  int `json:"true_positive" yaml:"truePositive"`
	FalsePositive int `json:"false_positive" yaml:"falsePositive"`
	TrueNegative  int `json:"true_negative" yaml:"trueNegative"`
	FalseNegative int `json:"false_negative" yaml:"falseNegative"`

	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1Score   float64 `json:"f1_score" yaml:"f1Score"`
}

// Evaluate thresholds the predicted probability of every sample at the
// given cutoff and computes accuracy, precision, recall and F1. Empty
// denominators degrade to 0 rather than NaN.
func (c *Classifier) Evaluate(features [][]float64, labels []int, threshold float64) (*Metrics, error) {
	if len(features) == 0 || len(features) != len(labels) {
		return nil, errors.Errorf("feature and label counts do not match: %d != %d",
			len(features), len(labels))
	}

	m := &Metrics{}
	for i, x := range features {
		p, err := c.Predict(x)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		predictedPositive := p >= threshold
		actualPositive := labels[i] == 1

		switch {
		case predictedPositive && actualPositive:
			m.TruePositive++
		case predictedPositive && !actualPositive:
			m.FalsePositive++
		case !predictedPositive && !actualPositive:
			m.TrueNegative++
		default:
			m.FalseNegative++
		}
	}

	total := len(features)
	m.Accuracy = float64(m.TruePositive+m.TrueNegative) / float64(total)

	if d := m.TruePositive + m.FalsePositive; d > 0 {
		m.Precision = float64(m.TruePositive) / float64(d)
	}
	if d := m.TruePositive + m.FalseNegative; d > 0 {
		m.Recall = float64(m.TruePositive) / float64(d)
	}
	if d := m.Precision + m.Recall; d > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / d
	}

	return m, nil
}
