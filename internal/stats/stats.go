// Package stats provides the return-series arithmetic shared by the backtest
// engine, the benchmark comparator and the regime analyzer.
//
// All functions are pure and deterministic. Degenerate inputs (empty series,
// zero variance, insufficient sample) yield NaN sentinels rather than errors;
// callers that need to detect degeneracy check for non-finite values.
package stats

import "math"

// minJointObservations is the smallest joint sample for which beta, alpha
// and correlation are considered meaningful.
const minJointObservations = 30

// Clean returns a copy of r with all non-finite values dropped.
func Clean(r []float64) []float64 {
	out := make([]float64, 0, len(r))

	for _, v := range r {
		if isFinite(v) {
			out = append(out, v)
		}
	}

	return out
}

// cleanPairwise keeps only the positions where both series are finite.
func cleanPairwise(y, x []float64) (yc, xc []float64) {
	n := min(len(y), len(x))
	yc = make([]float64, 0, n)
	xc = make([]float64, 0, n)

	for i := 0; i < n; i++ {
		if isFinite(y[i]) && isFinite(x[i]) {
			yc = append(yc, y[i])
			xc = append(xc, x[i])
		}
	}

	return yc, xc
}

// AnnStats bundles the three annualized metrics computed from one daily
// return series.
type AnnStats struct {
	// AnnReturn is the CAGR-style annualized return: growth^(tradingDays/n) - 1.
	AnnReturn float64
	// AnnVol is the population standard deviation scaled by sqrt(tradingDays).
	AnnVol float64
	// Sharpe is AnnReturn / AnnVol, NaN when AnnVol is zero.
	Sharpe float64
}

// Annualize computes CAGR-style annualized return, annualized volatility and
// Sharpe ratio from a daily return series. Non-finite observations are
// dropped first; an empty series yields NaN for all three metrics.
func Annualize(r []float64, tradingDays int) AnnStats {
	clean := Clean(r)
	if len(clean) == 0 {
		return AnnStats{AnnReturn: math.NaN(), AnnVol: math.NaN(), Sharpe: math.NaN()}
	}

	growth := 1.0
	for _, v := range clean {
		growth *= 1.0 + v
	}

	years := float64(len(clean)) / float64(tradingDays)
	annRet := math.Pow(growth, 1.0/years) - 1.0
	annVol := populationStd(clean) * math.Sqrt(float64(tradingDays))

	sharpe := math.NaN()
	if annVol > 0 {
		sharpe = annRet / annVol
	}

	return AnnStats{AnnReturn: annRet, AnnVol: annVol, Sharpe: sharpe}
}

// AnnMeanArith is the arithmetic annualized mean return: mean(daily) * tradingDays.
// Shown alongside the CAGR-style figure since the two diverge for skewed
// return distributions.
func AnnMeanArith(r []float64, tradingDays int) float64 {
	clean := Clean(r)
	if len(clean) == 0 {
		return math.NaN()
	}

	return mean(clean) * float64(tradingDays)
}

// MaxDrawdown returns the minimum of equity/runningMax(equity) - 1 over the
// curve: a non-positive number, 0 for a curve that never dips below a prior
// peak, NaN for an empty curve.
func MaxDrawdown(equity []float64) float64 {
	clean := Clean(equity)
	if len(clean) == 0 {
		return math.NaN()
	}

	runningMax := clean[0]
	maxDD := 0.0

	for _, v := range clean {
		if v > runningMax {
			runningMax = v
		}

		dd := v/runningMax - 1.0
		if dd < maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// MaskedMaxDrawdown computes a drawdown on a return series zeroed outside the
// masked days, so losses from other periods do not leak into this period's
// equity curve. Non-finite returns are treated as zero.
func MaskedMaxDrawdown(returns []float64, mask []bool) float64 {
	equity := make([]float64, len(returns))
	cum := 1.0

	for i, v := range returns {
		r := 0.0
		if i < len(mask) && mask[i] && isFinite(v) {
			r = v
		}

		cum *= 1.0 + r
		equity[i] = cum
	}

	return MaxDrawdown(equity)
}

// BetaAlpha fits y = alpha + beta*x + eps by closed-form OLS and returns the
// slope and the annualized intercept (alpha_daily * tradingDays). Both are
// NaN when fewer than 30 joint observations remain after cleaning, or when x
// has zero variance.
func BetaAlpha(y, x []float64, tradingDays int) (beta, alphaAnn float64) {
	yc, xc := cleanPairwise(y, x)
	if len(yc) < minJointObservations {
		return math.NaN(), math.NaN()
	}

	xMean := mean(xc)
	yMean := mean(yc)

	varX := 0.0
	covXY := 0.0

	for i := range xc {
		dx := xc[i] - xMean
		varX += dx * dx
		covXY += dx * (yc[i] - yMean)
	}

	varX /= float64(len(xc))
	covXY /= float64(len(xc))

	if varX <= 0 {
		return math.NaN(), math.NaN()
	}

	beta = covXY / varX
	alphaAnn = (yMean - beta*xMean) * float64(tradingDays)

	return beta, alphaAnn
}

// Correlation returns the Pearson correlation of the two series, NaN below
// 30 joint observations or when either series has zero variance.
func Correlation(y, x []float64) float64 {
	yc, xc := cleanPairwise(y, x)
	if len(yc) < minJointObservations {
		return math.NaN()
	}

	xMean := mean(xc)
	yMean := mean(yc)

	var covXY, varX, varY float64

	for i := range xc {
		dx := xc[i] - xMean
		dy := yc[i] - yMean
		covXY += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX <= 0 || varY <= 0 {
		return math.NaN()
	}

	return covXY / math.Sqrt(varX*varY)
}

// HitRate is the fraction of strictly positive observations, NaN for an
// empty (post-cleaning) series.
func HitRate(r []float64) float64 {
	clean := Clean(r)
	if len(clean) == 0 {
		return math.NaN()
	}

	hits := 0
	for _, v := range clean {
		if v > 0 {
			hits++
		}
	}

	return float64(hits) / float64(len(clean))
}

// NanMean is the mean of the finite observations, NaN when none remain.
func NanMean(r []float64) float64 {
	clean := Clean(r)
	if len(clean) == 0 {
		return math.NaN()
	}

	return mean(clean)
}

func mean(r []float64) float64 {
	sum := 0.0
	for _, v := range r {
		sum += v
	}

	return sum / float64(len(r))
}

// populationStd is the ddof=0 standard deviation.
func populationStd(r []float64) float64 {
	m := mean(r)

	sum := 0.0
	for _, v := range r {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(r)))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
