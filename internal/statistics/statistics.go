// Package statistics provides the pure aggregation arithmetic used by the
// multi-judge arbitrator and the leaderboard: mean, median, spread, and
// bootstrap confidence intervals. Everything here is deterministic for
// equal inputs unless a random seed is explicitly involved.
package statistics

import "sort"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the statistical median, or 0 for an empty slice. The
// input is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0.0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Spread returns max - min, or 0 for fewer than two values.
func Spread(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}
