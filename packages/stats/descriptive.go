package stats

import (
	"math"
	"sort"
)

// Average is the arithmetic mean, NaN for an empty sample.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median is the middle value, or the mean of the two middle values for
// an even count. NaN for an empty sample.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	s := sorted(values)
	if n%2 == 0 {
		return (s[n/2-1] + s[n/2]) / 2
	}
	return s[n/2]
}

// Percentile needs at least two values. p is clamped to 0.99, so
// Percentile(v, 1) is the largest value of most samples rather than an
// extrapolation. When p*n lands exactly on an index i in [1, n-1] the
// result is the mean of the values either side of it; an exact landing
// outside that range is NaN.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	if p > 0.99 {
		p = 0.99
	}
	s := sorted(values)
	pos := p * float64(n)
	idx := math.Floor(pos)
	if pos == idx {
		i := int(idx)
		if i >= 1 && i <= n-1 {
			return (s[i-1] + s[i]) / 2
		}
		return math.NaN()
	}
	i := int(idx)
	if i < 0 {
		return math.NaN()
	}
	return s[i]
}

// StdDev is the sample standard deviation (n-1 denominator). It is NaN
// for fewer than two values.
func StdDev(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return math.NaN()
	}
	mean := Average(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

func sorted(values []float64) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	return s
}
