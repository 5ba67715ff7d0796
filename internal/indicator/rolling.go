// Package indicator provides whole-series technical indicators over daily
// close prices. Every function returns a slice of the same length as its
// input, with NaN during the warmup window, so results align positionally
// with the source panel.
package indicator

import "math"

// SMA computes a simple moving average over the trailing window. The first
// window-1 values are NaN.
func SMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64

	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}

	return out
}

// RollingStd computes the population standard deviation over the trailing
// window. The first window-1 values are NaN.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}

		mean := sum / float64(window)

		var ss float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}

		out[i] = math.Sqrt(ss / float64(window))
	}

	return out
}

// Diff returns values[i] - values[i-lag]. The first lag values are NaN.
func Diff(values []float64, lag int) []float64 {
	out := nanSlice(len(values))
	if lag <= 0 {
		return out
	}

	for i := lag; i < len(values); i++ {
		out[i] = values[i] - values[i-lag]
	}

	return out
}

// Momentum returns the k-bar simple return values[i]/values[i-k] - 1. The
// first k values are NaN, as is any value whose base price is zero.
func Momentum(values []float64, k int) []float64 {
	out := nanSlice(len(values))
	if k <= 0 {
		return out
	}

	for i := k; i < len(values); i++ {
		base := values[i-k]
		if base == 0 {
			continue
		}

		out[i] = values[i]/base - 1.0
	}

	return out
}

// ZScore returns (value - rolling_mean) / rolling_std over the trailing
// window, with NaN during warmup and where the rolling std is zero.
func ZScore(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	ma := SMA(values, window)
	sd := RollingStd(values, window)

	for i := range values {
		if math.IsNaN(ma[i]) || math.IsNaN(sd[i]) || sd[i] == 0 {
			continue
		}

		out[i] = (values[i] - ma[i]) / sd[i]
	}

	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
