package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	in := []float64{0.01, math.NaN(), -0.02, math.Inf(1), math.Inf(-1), 0.0}
	assert.Equal(t, []float64{0.01, -0.02, 0.0}, Clean(in))
}

func TestCleanEmpty(t *testing.T) {
	assert.Empty(t, Clean(nil))
	assert.Empty(t, Clean([]float64{math.NaN()}))
}

func TestAnnualizeConstantReturn(t *testing.T) {
	// 252 days of +1%: growth = 1.01^252, years = 1, so CAGR = growth - 1.
	r := make([]float64, 252)
	for i := range r {
		r[i] = 0.01
	}

	got := Annualize(r, 252)

	expected := math.Pow(1.01, 252) - 1.0
	assert.InDelta(t, expected, got.AnnReturn, 1e-9)
	// Constant series has zero volatility, so Sharpe is undefined.
	assert.InDelta(t, 0.0, got.AnnVol, 1e-12)
	assert.True(t, math.IsNaN(got.Sharpe))
}

func TestAnnualizeSharpe(t *testing.T) {
	r := []float64{0.01, -0.01, 0.02, -0.005, 0.015}

	got := Annualize(r, 252)

	assert.False(t, math.IsNaN(got.AnnReturn))
	assert.Greater(t, got.AnnVol, 0.0)
	assert.InDelta(t, got.AnnReturn/got.AnnVol, got.Sharpe, 1e-12)
}

func TestAnnualizeEmpty(t *testing.T) {
	got := Annualize([]float64{math.NaN(), math.Inf(1)}, 252)

	assert.True(t, math.IsNaN(got.AnnReturn))
	assert.True(t, math.IsNaN(got.AnnVol))
	assert.True(t, math.IsNaN(got.Sharpe))
}

func TestAnnMeanArith(t *testing.T) {
	r := []float64{0.01, 0.03, math.NaN()}
	assert.InDelta(t, 0.02*252, AnnMeanArith(r, 252), 1e-12)
	assert.True(t, math.IsNaN(AnnMeanArith(nil, 252)))
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{
			name:   "monotonic curve has zero drawdown",
			equity: []float64{100, 101, 102, 110},
			want:   0.0,
		},
		{
			name:   "single dip",
			equity: []float64{100, 120, 90, 130},
			want:   90.0/120.0 - 1.0,
		},
		{
			name:   "flat curve",
			equity: []float64{100, 100, 100},
			want:   0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.equity)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.LessOrEqual(t, got, 0.0)
		})
	}
}

func TestMaxDrawdownEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(MaxDrawdown(nil)))
}

func TestMaskedMaxDrawdown(t *testing.T) {
	returns := []float64{-0.5, 0.01, -0.02, 0.01}
	// Masking out the -50% day removes it from this period's curve.
	mask := []bool{false, true, true, true}

	got := MaskedMaxDrawdown(returns, mask)
	assert.InDelta(t, -0.02, got, 1e-12)

	// Unmasked, the first day dominates the drawdown.
	all := []bool{true, true, true, true}
	assert.Less(t, MaskedMaxDrawdown(returns, all), -0.4)
}

func TestBetaAlphaPerfectFit(t *testing.T) {
	// y = 0.0001 + 1.5*x exactly.
	n := 60
	x := make([]float64, n)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		x[i] = 0.001 * float64(i%7-3)
		y[i] = 0.0001 + 1.5*x[i]
	}

	beta, alphaAnn := BetaAlpha(y, x, 252)

	assert.InDelta(t, 1.5, beta, 1e-9)
	assert.InDelta(t, 0.0001*252, alphaAnn, 1e-9)
}

func TestBetaAlphaInsufficientSample(t *testing.T) {
	x := []float64{0.01, 0.02, -0.01}
	y := []float64{0.02, 0.03, -0.02}

	beta, alphaAnn := BetaAlpha(y, x, 252)

	assert.True(t, math.IsNaN(beta))
	assert.True(t, math.IsNaN(alphaAnn))
}

func TestBetaAlphaZeroVariance(t *testing.T) {
	n := 40
	x := make([]float64, n)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		x[i] = 0.01 // constant benchmark
		y[i] = 0.001 * float64(i)
	}

	beta, alphaAnn := BetaAlpha(y, x, 252)

	assert.True(t, math.IsNaN(beta))
	assert.True(t, math.IsNaN(alphaAnn))
}

func TestCorrelation(t *testing.T) {
	n := 50
	x := make([]float64, n)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		x[i] = math.Sin(float64(i))
		y[i] = 2 * x[i]
	}

	assert.InDelta(t, 1.0, Correlation(y, x), 1e-9)

	for i := range y {
		y[i] = -y[i]
	}

	assert.InDelta(t, -1.0, Correlation(y, x), 1e-9)
}

func TestCorrelationInsufficientSample(t *testing.T) {
	assert.True(t, math.IsNaN(Correlation([]float64{1, 2}, []float64{1, 2})))
}

func TestHitRate(t *testing.T) {
	r := []float64{0.01, -0.01, 0.02, 0.0, math.NaN()}
	// NaN dropped, zero is not a hit: 2 of 4.
	assert.InDelta(t, 0.5, HitRate(r), 1e-12)
}

func TestHitRateEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(HitRate(nil)))
	assert.True(t, math.IsNaN(HitRate([]float64{math.NaN()})))
}

func TestNanMean(t *testing.T) {
	assert.InDelta(t, 2.0, NanMean([]float64{1, math.NaN(), 3}), 1e-12)
	assert.True(t, math.IsNaN(NanMean([]float64{math.NaN()})))
}
