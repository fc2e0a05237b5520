package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample25 = []float64{
	99, 43, 51, 62, 55, 70, 48, 66, 81, 74, 59, 90, 85,
	77, 93, 68, 72, 64, 58, 88, 98, 79, 83, 98, 61,
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 2.5, Average([]float64{1, 4, 3, 2}))
	assert.True(t, math.IsNaN(Average(nil)))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 13.0, Median([]float64{24, 1, 4, 5, 20, 6, 7, 12, 14, 18, 19, 22}))
	assert.Equal(t, 3.0, Median([]float64{5, 3, 1}))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 98.0, Percentile(sample25, 0.9))
	assert.Equal(t, 99.0, Percentile(sample25, 1.0), "clamped to 0.99")

	// 0.5 * 4 lands on index 2: mean of the 2nd and 3rd values
	assert.Equal(t, 2.5, Percentile([]float64{4, 1, 3, 2}, 0.5))

	assert.True(t, math.IsNaN(Percentile([]float64{1}, 0.5)))
	assert.True(t, math.IsNaN(Percentile([]float64{1, 2, 3, 4}, 0)))
}

func TestStdDev(t *testing.T) {
	assert.InDelta(t, 1.2910, StdDev([]float64{1, 2, 3, 4}), 0.0001)
	assert.True(t, math.IsNaN(StdDev([]float64{1})))
}

func TestAggregator(t *testing.T) {
	a := NewAggregator()
	a.Record("second", 20*time.Millisecond)
	a.Record("first", 10*time.Millisecond)
	a.Record("second", 40*time.Millisecond)

	assert.Equal(t, []string{"second", "first"}, a.Names())
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 40 * time.Millisecond}, a.Durations("second"))
	assert.Empty(t, a.Durations("missing"))

	summary := a.Summary()
	assert.Equal(t, int64(3), summary.Total)
	require.Len(t, summary.Requests, 2)

	second := summary.Requests[0]
	assert.Equal(t, "second", second.Name)
	assert.Equal(t, 2, second.Count)
	assert.InDelta(t, 30.0, second.Average, 0.001)
	assert.InDelta(t, 30.0, second.Median, 0.001)

	first := summary.Requests[1]
	assert.Equal(t, 1, first.Count)
	assert.True(t, math.IsNaN(first.StdDev))
	assert.True(t, math.IsNaN(first.P90))

	// HdrHistogram quantiles are approximate
	assert.InDelta(t, float64(40*time.Millisecond), float64(summary.Max), float64(time.Millisecond))
	assert.Greater(t, summary.P50, time.Duration(0))
}
