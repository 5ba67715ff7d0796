package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	got := SMA(values, 3)
	require.Len(t, got, 5)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 3.0, got[3], 1e-12)
	assert.InDelta(t, 4.0, got[4], 1e-12)
}

func TestSMAWindowLargerThanSeries(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRollingStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	got := RollingStd(values, 8)
	require.Len(t, got, 8)

	for i := 0; i < 7; i++ {
		assert.True(t, math.IsNaN(got[i]))
	}

	// Population std of the classic example series is exactly 2.
	assert.InDelta(t, 2.0, got[7], 1e-12)
}

func TestDiff(t *testing.T) {
	values := []float64{10, 11, 13, 16, 20}

	got := Diff(values, 2)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 3.0, got[2], 1e-12)
	assert.InDelta(t, 5.0, got[3], 1e-12)
	assert.InDelta(t, 7.0, got[4], 1e-12)
}

func TestMomentum(t *testing.T) {
	values := []float64{100, 110, 121, 0, 50}

	got := Momentum(values, 1)
	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 0.10, got[1], 1e-12)
	assert.InDelta(t, 0.10, got[2], 1e-12)
	// Zero base price yields NaN, not infinity.
	assert.True(t, math.IsNaN(got[4]))
}

func TestZScore(t *testing.T) {
	values := []float64{1, 1, 1, 1, 5}

	got := ZScore(values, 4)
	assert.True(t, math.IsNaN(got[2]))
	// Constant window: std is zero, z-score undefined.
	assert.True(t, math.IsNaN(got[3]))
	// Window {1,1,1,5}: mean 2, population std sqrt(3), z = (5-2)/sqrt(3).
	assert.InDelta(t, 3.0/math.Sqrt(3.0), got[4], 1e-12)
}

func TestRSIBounds(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		// Oscillating series keeps RSI strictly inside (0, 100).
		closes[i] = 100 + 5*math.Sin(float64(i)/3.0)
	}

	got := RSI(closes, 14)

	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(got[i]))
	}

	for i := 14; i < len(got); i++ {
		require.False(t, math.IsNaN(got[i]))
		assert.Greater(t, got[i], 0.0)
		assert.Less(t, got[i], 100.0)
	}
}

func TestRSIMonotonicRally(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	got := RSI(closes, 14)

	// All gains: average loss is zero, RSI pegs at 100.
	assert.InDelta(t, 100.0, got[29], 1e-12)
}

func TestRSIShortSeries(t *testing.T) {
	got := RSI([]float64{1, 2, 3}, 14)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}
