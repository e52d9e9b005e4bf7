package model

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

const (
	// FeatureCountDefault matches the behavioral signal set.
	FeatureCountDefault = 8

	learningRateDefault  = 0.01
	maxIterationsDefault = 1000

	// lossEpsilon keeps log() calls away from zero.
	lossEpsilon = 1e-10

	lossLogInterval = 100
)

// Classifier is a binary logistic regression model over normalized
// feature vectors: p = sigmoid(bias + w·x).
//
// Training and loading mutate the weight state; callers must not train
// and predict concurrently against the same instance.
type Classifier struct {
	weights       []float64
	bias          float64
	featureCount  int
	learningRate  float64
	maxIterations int
}

// Parameters is an opaque, copyable snapshot of a classifier's state.
type Parameters struct {
	Weights      []float64 `json:"weights" yaml:"weights"`
	Bias         float64   `json:"bias" yaml:"bias"`
	FeatureCount int       `json:"feature_count" yaml:"featureCount"`
}

// New creates a classifier for the given feature count. Weights and bias
// start as small random values near zero so gradient descent has broken
// symmetry from the first iteration.
func New(featureCount int) *Classifier {
	c := &Classifier{
		weights:       make([]float64, featureCount),
		featureCount:  featureCount,
		learningRate:  learningRateDefault,
		maxIterations: maxIterationsDefault,
	}
	for i := range c.weights {
		c.weights[i] = rand.Float64()*0.01 - 0.005
	}
	c.bias = rand.Float64()*0.01 - 0.005
	return c
}

func (c *Classifier) FeatureCount() int {
	return c.featureCount
}

func (c *Classifier) LearningRate() float64 {
	return c.learningRate
}

// SetLearningRate overrides the default learning rate. Non-positive
// values are ignored.
func (c *Classifier) SetLearningRate(rate float64) {
	if rate > 0 {
		c.learningRate = rate
	}
}

func (c *Classifier) MaxIterations() int {
	return c.maxIterations
}

// SetMaxIterations overrides the default iteration count. Non-positive
// values are ignored.
func (c *Classifier) SetMaxIterations(n int) {
	if n > 0 {
		c.maxIterations = n
	}
}

// Train runs batch gradient descent over the whole sample set for the
// configured number of iterations. Labels are 0 (negative) or 1
// (positive/at-risk).
func (c *Classifier) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(features) != len(labels) {
		return errors.Errorf("feature and label counts do not match: %d != %d",
			len(features), len(labels))
	}

	m := float64(len(features))

	for iter := 0; iter < c.maxIterations; iter++ {
		gradients := make([]float64, c.featureCount)
		biasGradient := 0.0

		for i, x := range features {
			p, err := c.Predict(x)
			if err != nil {
				return errors.Wrapf(err, "sample %d", i)
			}
			err2 := p - float64(labels[i])
			for j := range gradients {
				gradients[j] += err2 * x[j]
			}
			biasGradient += err2
		}

		for j := range c.weights {
			c.weights[j] -= c.learningRate * gradients[j] / m
		}
		c.bias -= c.learningRate * biasGradient / m

		if iter%lossLogInterval == 0 {
			slog.Debug("training progress", "iteration", iter, "loss", c.loss(features, labels))
		}
	}

	slog.Debug("training complete", "iterations", c.maxIterations, "bias", c.bias)
	return nil
}

// Predict returns the positive-class probability for one feature vector.
func (c *Classifier) Predict(features []float64) (float64, error) {
	if len(features) != c.featureCount {
		return 0, errors.Errorf("feature dimension mismatch: expected %d, got %d",
			c.featureCount, len(features))
	}
	z := c.bias
	for i, f := range features {
		z += c.weights[i] * f
	}
	return sigmoid(z), nil
}

// PredictBatch applies Predict to each vector, preserving order.
func (c *Classifier) PredictBatch(list [][]float64) ([]float64, error) {
	out := make([]float64, len(list))
	for i, features := range list {
		p, err := c.Predict(features)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		out[i] = p
	}
	return out, nil
}

// RiskLevel predicts a probability for the vector and classifies it
// against the given thresholds. Standalone model-only utility; the
// orchestrator applies its own tiering on top of the fallback path.
func (c *Classifier) RiskLevel(features []float64, t Thresholds) (Level, error) {
	p, err := c.Predict(features)
	if err != nil {
		return LevelUnknown, err
	}
	return t.Classify(p), nil
}

// Parameters snapshots the live state. The returned weights are a copy.
func (c *Classifier) Parameters() *Parameters {
	w := make([]float64, len(c.weights))
	copy(w, c.weights)
	return &Parameters{
		Weights:      w,
		Bias:         c.bias,
		FeatureCount: c.featureCount,
	}
}

// Load replaces the live state with a stored snapshot.
func (c *Classifier) Load(p *Parameters) error {
	if p == nil {
		return errors.New("parameters required")
	}
	if p.FeatureCount != c.featureCount || len(p.Weights) != c.featureCount {
		return errors.Errorf("feature dimension mismatch: expected %d, got %d (weights=%d)",
			c.featureCount, p.FeatureCount, len(p.Weights))
	}
	w := make([]float64, len(p.Weights))
	copy(w, p.Weights)
	c.weights = w
	c.bias = p.Bias
	return nil
}

// loss is the mean cross-entropy over the sample set.
func (c *Classifier) loss(features [][]float64, labels []int) float64 {
	var loss float64
	for i, x := range features {
		p, err := c.Predict(x)
		if err != nil {
			return math.NaN()
		}
		y := float64(labels[i])
		loss += y*math.Log(p+lossEpsilon) + (1-y)*math.Log(1-p+lossEpsilon)
	}
	return -loss / float64(len(features))
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
