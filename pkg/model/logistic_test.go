package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns a dataset where dim 0 alone separates the classes.
func separable() ([][]float64, []int) {
	features := [][]float64{
		{0.9, 0.8}, {0.8, 0.9}, {0.95, 0.7}, {0.85, 0.85},
		{0.1, 0.2}, {0.2, 0.1}, {0.05, 0.3}, {0.15, 0.15},
	}
	labels := []int{1, 1, 1, 1, 0, 0, 0, 0}
	return features, labels
}

func TestNew_SmallRandomInit(t *testing.T) {
	c := New(FeatureCountDefault)
	p := c.Parameters()
	require.Len(t, p.Weights, FeatureCountDefault)
	for _, w := range p.Weights {
		assert.Less(t, w, 0.005)
		assert.GreaterOrEqual(t, w, -0.005)
	}
	assert.Less(t, p.Bias, 0.005)
	assert.GreaterOrEqual(t, p.Bias, -0.005)
}

func TestPredict_Deterministic(t *testing.T) {
	c := New(3)
	x := []float64{0.2, 0.5, 0.9}
	first, err := c.Predict(x)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		p, err := c.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, first, p)
	}
}

func TestPredict_DimensionMismatch(t *testing.T) {
	c := New(8)
	_, err := c.Predict([]float64{0.1, 0.2})
	assert.Error(t, err)
}

func TestPredictBatch_PreservesOrder(t *testing.T) {
	c := New(2)
	require.NoError(t, c.Load(&Parameters{Weights: []float64{5, 0}, Bias: 0, FeatureCount: 2}))

	out, err := c.PredictBatch([][]float64{{0, 0}, {1, 0}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.5, out[0], 1e-9)
	assert.Greater(t, out[1], 0.9)
}

func TestTrain_SizeMismatch(t *testing.T) {
	c := New(2)
	err := c.Train([][]float64{{0.1, 0.2}}, []int{1, 0})
	assert.Error(t, err)
}

func TestTrain_SeparableConverges(t *testing.T) {
	features, labels := separable()

	c := New(2)
	c.SetLearningRate(0.5)
	c.SetMaxIterations(5000)
	require.NoError(t, c.Train(features, labels))

	m, err := c.Evaluate(features, labels, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Accuracy, 1e-9)
}

func TestEvaluate_AllOneLabelZeroDenominators(t *testing.T) {
	c := New(2)
	require.NoError(t, c.Load(&Parameters{Weights: []float64{-10, -10}, Bias: -5, FeatureCount: 2}))

	// All samples labeled positive, model predicts everything negative:
	// precision, recall and F1 denominators degrade to defined zeros.
	features := [][]float64{{0.9, 0.9}, {0.8, 0.8}}
	labels := []int{1, 1}

	m, err := c.Evaluate(features, labels, 0.5)
	require.NoError(t, err)
	assert.Zero(t, m.Accuracy)
	assert.Zero(t, m.Precision)
	assert.Zero(t, m.Recall)
	assert.Zero(t, m.F1Score)
	assert.Equal(t, 2, m.FalseNegative)
}

func TestEvaluate_SizeMismatch(t *testing.T) {
	c := New(2)
	_, err := c.Evaluate([][]float64{{0.1, 0.2}}, []int{}, 0.5)
	assert.Error(t, err)
}

func TestParameters_ReturnsCopy(t *testing.T) {
	c := New(2)
	p := c.Parameters()
	p.Weights[0] = 999

	again := c.Parameters()
	assert.NotEqual(t, 999.0, again.Weights[0])
}

func TestLoad_RoundTrip(t *testing.T) {
	c := New(2)
	in := &Parameters{Weights: []float64{0.25, -0.75}, Bias: 0.5, FeatureCount: 2}
	require.NoError(t, c.Load(in))

	out := c.Parameters()
	assert.Equal(t, in.Weights, out.Weights)
	assert.Equal(t, in.Bias, out.Bias)

	// loaded state must not alias the input slice
	in.Weights[0] = 42
	assert.Equal(t, 0.25, c.Parameters().Weights[0])
}

func TestLoad_DimensionMismatch(t *testing.T) {
	c := New(8)
	err := c.Load(&Parameters{Weights: []float64{1, 2}, Bias: 0, FeatureCount: 2})
	assert.Error(t, err)
	assert.Error(t, c.Load(nil))
}

func TestRiskLevel(t *testing.T) {
	c := New(1)
	require.NoError(t, c.Load(&Parameters{Weights: []float64{-8}, Bias: 0, FeatureCount: 1}))

	lvl, err := c.RiskLevel([]float64{1}, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, LevelLow, lvl)

	_, err = c.RiskLevel([]float64{1, 2}, DefaultThresholds())
	assert.Error(t, err)
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, LevelLow, th.Classify(0.1))
	assert.Equal(t, LevelMedium, th.Classify(0.3))
	assert.Equal(t, LevelMedium, th.Classify(0.69))
	assert.Equal(t, LevelHigh, th.Classify(0.7))
	assert.Equal(t, LevelHigh, th.Classify(0.99))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Low: 0.7, Medium: 0.3, High: 0.9}.Validate())
	assert.Error(t, Thresholds{Low: 0.3, Medium: 0.3, High: 0.9}.Validate())
}
