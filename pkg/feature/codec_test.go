package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_NilSignals(t *testing.T) {
	_, err := Extract(nil)
	assert.Error(t, err)
}

func TestExtract_FixedOrderAndRange(t *testing.T) {
	s := &Signals{
		WatchTime:      5,  // hours
		CompletionRate: 0.8,
		SubmitRate:     0.9,
		AvgScore:       80,
		LoginCount:     25,
		Focus:          0.7,
		Consistency:    0.6,
		Interaction:    0.5,
	}

	v, err := Extract(s)
	require.NoError(t, err)
	require.Len(t, v, Count)

	assert.InDelta(t, 0.5, v[0], 1e-9)  // 5h / 10h
	assert.InDelta(t, 0.8, v[1], 1e-9)
	assert.InDelta(t, 0.9, v[2], 1e-9)
	assert.InDelta(t, 0.8, v[3], 1e-9)  // 80 / 100
	assert.InDelta(t, 0.5, v[4], 1e-9)  // 25 / 50
	assert.InDelta(t, 0.7, v[5], 1e-9)
	assert.InDelta(t, 0.6, v[6], 1e-9)
	assert.InDelta(t, 0.5, v[7], 1e-9)
}

func TestExtract_FractionPercentEquivalence(t *testing.T) {
	// The rate-like fields must yield the same dimension whether they
	// arrive as a fraction or as the equivalent percentage.
	for _, x := range []float64{0.02, 0.42, 0.75, 1.0} {
		frac, err := Extract(&Signals{CompletionRate: x, SubmitRate: x, Focus: x, Consistency: x, Interaction: x})
		require.NoError(t, err)
		pct, err := Extract(&Signals{CompletionRate: x * 100, SubmitRate: x * 100, Focus: x * 100, Consistency: x * 100, Interaction: x * 100})
		require.NoError(t, err)

		for _, i := range []int{1, 2, 5, 6, 7} {
			assert.InDelta(t, frac[i], pct[i], 1e-9, "dim %d for %v", i, x)
		}
	}
}

func TestExtract_WatchTimeMinutesVsHours(t *testing.T) {
	minutes, err := Extract(&Signals{WatchTime: 90})
	require.NoError(t, err)
	hours, err := Extract(&Signals{WatchTime: 1.5})
	require.NoError(t, err)
	assert.InDelta(t, hours[0], minutes[0], 1e-9, "90 minutes == 1.5 hours")

	// At or below the cutoff the value is taken as hours already.
	atCutoff, err := Extract(&Signals{WatchTime: 24})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, atCutoff[0], 1e-9) // 24h clamps at the 10h ceiling

	justAbove, err := Extract(&Signals{WatchTime: 24.6})
	require.NoError(t, err)
	assert.InDelta(t, 0.041, justAbove[0], 1e-4) // 24.6 minutes = 0.41h

	five, err := Extract(&Signals{WatchTime: 5})
	require.NoError(t, err)
	fiveAsMinutes, err := Extract(&Signals{WatchTime: 5 * 60})
	require.NoError(t, err)
	assert.InDelta(t, five[0], fiveAsMinutes[0], 1e-9)
	assert.NotEqual(t, five[0], 5.0/60/10, "5 is hours, not minutes")
}

func TestExtract_ClampsArbitraryInput(t *testing.T) {
	cases := []*Signals{
		{WatchTime: -100, CompletionRate: -5, SubmitRate: -0.1, AvgScore: -20, LoginCount: -3, Focus: -1, Consistency: -1, Interaction: -1},
		{WatchTime: 1e9, CompletionRate: 1e6, SubmitRate: 99999, AvgScore: 1e4, LoginCount: 1e5, Focus: 500, Consistency: 10000, Interaction: 1e8},
	}
	for _, s := range cases {
		v, err := Extract(s)
		require.NoError(t, err)
		for i, f := range v {
			assert.GreaterOrEqual(t, f, 0.0, "dim %d", i)
			assert.LessOrEqual(t, f, 1.0, "dim %d", i)
		}
	}
}

func TestExtractBatch_PreservesOrder(t *testing.T) {
	list := []*Signals{
		{AvgScore: 10},
		{AvgScore: 50},
		{AvgScore: 90},
	}
	vectors, err := ExtractBatch(list)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.InDelta(t, 0.1, vectors[0][3], 1e-9)
	assert.InDelta(t, 0.5, vectors[1][3], 1e-9)
	assert.InDelta(t, 0.9, vectors[2][3], 1e-9)
}

func TestExtractBatch_NilEntry(t *testing.T) {
	_, err := ExtractBatch([]*Signals{{}, nil})
	assert.Error(t, err)
}

func TestTrend_TooFewSamples(t *testing.T) {
	for _, window := range [][]*Signals{nil, {}, {{AvgScore: 50}}} {
		trend, err := Trend(window)
		require.NoError(t, err)
		require.Len(t, trend, Count)
		for _, v := range trend {
			assert.Zero(t, v)
		}
	}
}

func TestTrend_LatestMinusMean(t *testing.T) {
	window := []*Signals{
		{AvgScore: 40},
		{AvgScore: 60},
		{AvgScore: 80},
	}
	trend, err := Trend(window)
	require.NoError(t, err)
	// mean of dim 3 is 0.6, latest 0.8
	assert.InDelta(t, 0.2, trend[3], 1e-9)
	assert.InDelta(t, 0.0, trend[1], 1e-9)
}

func TestStandardize(t *testing.T) {
	out, err := Standardize([]float64{1, 2}, []float64{0.5, 1}, []float64{0.5, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[0], 1e-6)
	// zero std guarded by epsilon, no NaN/Inf
	assert.False(t, out[1] != out[1])
}

func TestStandardize_DimensionMismatch(t *testing.T) {
	_, err := Standardize([]float64{1, 2}, []float64{0}, []float64{1, 1})
	assert.Error(t, err)
}

func TestDenormalize(t *testing.T) {
	assert.InDelta(t, 50.0, Denormalize(0.5, 0, 100), 1e-9)
	assert.InDelta(t, 7.5, Denormalize(0.75, 0, 10), 1e-9)
}

func TestImportance_SumsToOne(t *testing.T) {
	var sum float64
	imp := Importance()
	require.Len(t, imp, Count)
	for _, w := range imp {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestDescribe(t *testing.T) {
	v := make([]float64, Count)
	assert.Contains(t, Describe(v), "completion rate=0.0000")
	assert.Equal(t, "invalid feature vector", Describe([]float64{1}))
}
