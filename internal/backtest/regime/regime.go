// Package regime decomposes a finished backtest's daily performance into
// benchmark-defined market regimes. A day is labeled BULL when the benchmark
// trades above its long moving average and that average is rising, BEAR when
// below with a falling average, NORMAL otherwise. Per regime the analyzer
// reports annualized performance, hit rates, cost decomposition and beta and
// alpha against the benchmark for three return series: the strategy's net
// returns, benchmark buy-and-hold, and the active difference.
package regime

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/indicator"
	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/stats"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Regime is a market state label derived from the benchmark trend.
type Regime string

const (
	RegimeBull   Regime = "BULL"
	RegimeBear   Regime = "BEAR"
	RegimeNormal Regime = "NORMAL"
)

// regimeOrder is the block evaluation order.
var regimeOrder = []Regime{RegimeBear, RegimeNormal, RegimeBull}

// Series names for the three analyzed return streams.
const (
	SeriesStrategyNet = "strategy_net"
	SeriesBenchmarkBH = "benchmark_bh"
	SeriesActive      = "active"
)

// seriesOrder is alphabetical, matching the long table sort.
var seriesOrder = []string{SeriesActive, SeriesBenchmarkBH, SeriesStrategyNet}

// MetricsRow is one (regime, series) row of the long output table.
type MetricsRow struct {
	Regime Regime `csv:"regime"`
	NDays  int    `csv:"n_days"`
	Series string `csv:"series"`

	AnnReturn         float64 `csv:"ann_return"`
	AnnMeanArith      float64 `csv:"ann_mean_arith"`
	AnnVol            float64 `csv:"ann_vol"`
	SharpeOrIR        float64 `csv:"sharpe_or_ir"`
	MaxDrawdownMasked float64 `csv:"max_drawdown_masked"`
	HitRate           float64 `csv:"hit_rate"`

	FracInvested         float64 `csv:"frac_invested"`
	HitRateInvested      float64 `csv:"hit_rate_invested"`
	AnnReturnInvested    float64 `csv:"ann_return_invested"`
	AnnMeanArithInvested float64 `csv:"ann_mean_arith_invested"`
	AnnVolInvested       float64 `csv:"ann_vol_invested"`
	SharpeInvested       float64 `csv:"sharpe_invested"`

	AvgGrossLeverage float64 `csv:"avg_gross_leverage"`
	AvgTurnover      float64 `csv:"avg_turnover"`
	AvgNLong         float64 `csv:"avg_n_long"`
	AvgNShort        float64 `csv:"avg_n_short"`

	Beta              float64 `csv:"beta"`
	AlphaAnn          float64 `csv:"alpha_ann"`
	CorrWithBenchmark float64 `csv:"corr_with_benchmark"`
	AnnReturnGross    float64 `csv:"ann_return_gross"`
	AnnReturnCost     float64 `csv:"ann_return_cost"`
}

// WideRow is one regime row of the wide pivot. Metric values are keyed by
// "metric__series".
type WideRow struct {
	Regime           Regime
	NDays            int
	AvgGrossLeverage float64
	AvgTurnover      float64
	AvgNLong         float64
	AvgNShort        float64
	FracInvested     float64
	Metrics          map[string]float64
}

// wideMetricOrder lists the pivoted metrics in output column order.
var wideMetricOrder = []string{
	"ann_return",
	"ann_mean_arith",
	"ann_vol",
	"sharpe_or_ir",
	"max_drawdown_masked",
	"hit_rate",
	"hit_rate_invested",
	"ann_return_invested",
	"ann_mean_arith_invested",
	"ann_vol_invested",
	"sharpe_invested",
	"beta",
	"alpha_ann",
	"corr_with_benchmark",
	"ann_return_gross",
	"ann_return_cost",
}

// WideColumns returns the ordered "metric__series" keys of the wide pivot.
func WideColumns() []string {
	cols := make([]string, 0, len(wideMetricOrder)*len(seriesOrder))
	for _, metric := range wideMetricOrder {
		for _, series := range seriesOrder {
			cols = append(cols, metric+"__"+series)
		}
	}

	return cols
}

// Analysis is the full output of one regime analysis run.
type Analysis struct {
	Long []MetricsRow
	Wide []WideRow
}

// Analyzer computes regime-conditioned performance breakdowns.
type Analyzer struct {
	cfg Config
	log *logger.Logger
}

// NewAnalyzer creates an analyzer with a validated config. A nil logger
// disables logging.
func NewAnalyzer(cfg Config, log *logger.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Analyzer{cfg: cfg, log: log}, nil
}

// mergedRow is one day of the inner join between the strategy daily table and
// the labeled benchmark.
type mergedRow struct {
	date     time.Time
	net      float64
	gross    float64
	cost     float64
	bmUsed   float64
	active   float64
	grossLev float64
	turnover float64
	nLong    float64
	nShort   float64
	regime   Regime
}

// Run labels each overlapping day with a regime and computes the per-regime
// metric blocks. The daily table must carry at least date and net_ret;
// bm_ret/active_ret are used when present and recomputed from the benchmark
// closes otherwise.
func (a *Analyzer) Run(daily []types.DailyRow, benchmark []types.PricePoint) (*Analysis, error) {
	if len(daily) == 0 {
		return nil, errors.New(errors.ErrCodeRegimeNoDaily, "daily series is empty")
	}

	if len(benchmark) == 0 {
		return nil, errors.New(errors.ErrCodeRegimeNoBenchmark, "benchmark series is empty")
	}

	merged, err := a.merge(daily, benchmark)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{}

	for _, reg := range regimeOrder {
		rows := a.regimeBlock(merged, reg)
		analysis.Long = append(analysis.Long, rows...)
	}

	sort.SliceStable(analysis.Long, func(i, j int) bool {
		if analysis.Long[i].Regime != analysis.Long[j].Regime {
			return analysis.Long[i].Regime < analysis.Long[j].Regime
		}

		return analysis.Long[i].Series < analysis.Long[j].Series
	})

	analysis.Wide = pivotWide(analysis.Long)

	a.log.Debug("regime analysis complete",
		zap.Int("merged_days", len(merged)),
		zap.Int("long_rows", len(analysis.Long)),
	)

	return analysis, nil
}

// merge inner-joins the daily table with the regime-labeled benchmark.
func (a *Analyzer) merge(daily []types.DailyRow, benchmark []types.PricePoint) ([]mergedRow, error) {
	bm := make([]types.PricePoint, len(benchmark))
	copy(bm, benchmark)

	for i := range bm {
		bm[i].Date = types.NormalizeDate(bm[i].Date)
	}

	sort.SliceStable(bm, func(i, j int) bool { return bm[i].Date.Before(bm[j].Date) })

	closes := make([]float64, len(bm))
	for i, p := range bm {
		closes[i] = p.Close
	}

	ma := indicator.SMA(closes, a.cfg.MAWindow)
	slope := indicator.Diff(ma, a.cfg.SlopeWindow)

	bmRet := make([]float64, len(bm))
	bmIdx := make(map[time.Time]int, len(bm))

	for i, p := range bm {
		if _, ok := bmIdx[p.Date]; ok {
			return nil, errors.Newf(errors.ErrCodeDuplicateDate,
				"duplicate benchmark date %s", p.Date.Format("2006-01-02"))
		}

		bmIdx[p.Date] = i

		if i == 0 {
			bmRet[i] = 0.0
		} else if bm[i-1].Close != 0 {
			bmRet[i] = p.Close/bm[i-1].Close - 1.0
		} else {
			bmRet[i] = math.NaN()
		}
	}

	sorted := make([]types.DailyRow, len(daily))
	copy(sorted, daily)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var merged []mergedRow

	for _, row := range sorted {
		i, ok := bmIdx[types.NormalizeDate(row.Date)]
		if !ok {
			continue
		}

		bmUsed := row.BmRet
		if math.IsNaN(bmUsed) {
			bmUsed = bmRet[i]
		}

		active := row.ActiveRet
		if math.IsNaN(active) {
			active = row.NetRet - bmUsed
		}

		reg := RegimeNormal
		if closes[i] > ma[i] && slope[i] > 0 {
			reg = RegimeBull
		} else if closes[i] < ma[i] && slope[i] < 0 {
			reg = RegimeBear
		}

		merged = append(merged, mergedRow{
			date:     row.Date,
			net:      row.NetRet,
			gross:    row.GrossRet,
			cost:     row.CostRet,
			bmUsed:   bmUsed,
			active:   active,
			grossLev: row.GrossLeverage,
			turnover: row.PortfolioTurnover,
			nLong:    row.NLong,
			nShort:   row.NShort,
			regime:   reg,
		})
	}

	if len(merged) == 0 {
		return nil, errors.New(errors.ErrCodeNoOverlappingDates,
			"no overlapping dates between daily and benchmark")
	}

	return merged, nil
}

// regimeBlock computes the three series rows for one regime. Returns nil when
// the regime has no days.
func (a *Analyzer) regimeBlock(merged []mergedRow, reg Regime) []MetricsRow {
	mask := make([]bool, len(merged))

	var sub []mergedRow

	for i, row := range merged {
		if row.regime == reg {
			mask[i] = true

			sub = append(sub, row)
		}
	}

	if len(sub) == 0 {
		return nil
	}

	n := len(sub)
	invested := make([]bool, n)
	investedCount := 0

	netSub := make([]float64, n)
	bmSub := make([]float64, n)
	activeSub := make([]float64, n)
	grossSub := make([]float64, n)
	negCostSub := make([]float64, n)
	levSub := make([]float64, n)
	turnSub := make([]float64, n)
	nLongSub := make([]float64, n)
	nShortSub := make([]float64, n)

	for i, row := range sub {
		netSub[i] = row.net
		bmSub[i] = row.bmUsed
		activeSub[i] = row.active
		grossSub[i] = row.gross
		negCostSub[i] = -row.cost
		levSub[i] = row.grossLev
		turnSub[i] = row.turnover
		nLongSub[i] = row.nLong
		nShortSub[i] = row.nShort

		if row.grossLev > a.cfg.InvestedThreshold {
			invested[i] = true
			investedCount++
		}
	}

	fracInvested := float64(investedCount) / float64(n)
	avgLev := stats.NanMean(levSub)
	avgTurn := stats.NanMean(turnSub)
	avgNLong := stats.NanMean(nLongSub)
	avgNShort := stats.NanMean(nShortSub)

	grossAnn := stats.Annualize(grossSub, a.cfg.TradingDays).AnnReturn
	costAnn := stats.Annualize(negCostSub, a.cfg.TradingDays).AnnReturn

	beta, alphaAnn := stats.BetaAlpha(netSub, bmSub, a.cfg.TradingDays)
	corr := stats.Correlation(netSub, bmSub)

	fullSeries := map[string][]float64{
		SeriesStrategyNet: make([]float64, len(merged)),
		SeriesBenchmarkBH: make([]float64, len(merged)),
		SeriesActive:      make([]float64, len(merged)),
	}

	for i, row := range merged {
		fullSeries[SeriesStrategyNet][i] = row.net
		fullSeries[SeriesBenchmarkBH][i] = row.bmUsed
		fullSeries[SeriesActive][i] = row.active
	}

	subSeries := map[string][]float64{
		SeriesStrategyNet: netSub,
		SeriesBenchmarkBH: bmSub,
		SeriesActive:      activeSub,
	}

	rows := make([]MetricsRow, 0, 3)

	for _, series := range []string{SeriesStrategyNet, SeriesBenchmarkBH, SeriesActive} {
		r := subSeries[series]

		row := MetricsRow{
			Regime:            reg,
			NDays:             n,
			Series:            series,
			MaxDrawdownMasked: stats.MaskedMaxDrawdown(fullSeries[series], mask),
			FracInvested:      fracInvested,
			AvgGrossLeverage:  avgLev,
			AvgTurnover:       avgTurn,
			AvgNLong:          avgNLong,
			AvgNShort:         avgNShort,
		}

		ann := stats.Annualize(r, a.cfg.TradingDays)
		row.AnnReturn = ann.AnnReturn
		row.AnnVol = ann.AnnVol
		row.SharpeOrIR = ann.Sharpe
		row.AnnMeanArith = stats.AnnMeanArith(r, a.cfg.TradingDays)
		row.HitRate = stats.HitRate(r)

		inv := make([]float64, 0, investedCount)
		for i, v := range r {
			if invested[i] {
				inv = append(inv, v)
			}
		}

		row.HitRateInvested = stats.HitRate(inv)
		annInv := stats.Annualize(inv, a.cfg.TradingDays)
		row.AnnReturnInvested = annInv.AnnReturn
		row.AnnVolInvested = annInv.AnnVol
		row.SharpeInvested = annInv.Sharpe
		row.AnnMeanArithInvested = stats.AnnMeanArith(inv, a.cfg.TradingDays)

		switch series {
		case SeriesStrategyNet:
			row.Beta = beta
			row.AlphaAnn = alphaAnn
			row.CorrWithBenchmark = corr
			row.AnnReturnGross = grossAnn
			row.AnnReturnCost = costAnn
		case SeriesBenchmarkBH:
			// The benchmark regressed on itself.
			row.Beta = 1.0
			row.AlphaAnn = 0.0
			row.CorrWithBenchmark = 1.0
			row.AnnReturnGross = math.NaN()
			row.AnnReturnCost = math.NaN()
		default:
			row.Beta = math.NaN()
			row.AlphaAnn = math.NaN()
			row.CorrWithBenchmark = math.NaN()
			row.AnnReturnGross = math.NaN()
			row.AnnReturnCost = math.NaN()
		}

		rows = append(rows, row)
	}

	return rows
}

// pivotWide reshapes the long table into one row per regime with
// "metric__series" keyed values.
func pivotWide(long []MetricsRow) []WideRow {
	byRegime := make(map[Regime]*WideRow)

	var order []Regime

	for _, row := range long {
		wide, ok := byRegime[row.Regime]
		if !ok {
			wide = &WideRow{
				Regime:           row.Regime,
				NDays:            row.NDays,
				AvgGrossLeverage: row.AvgGrossLeverage,
				AvgTurnover:      row.AvgTurnover,
				AvgNLong:         row.AvgNLong,
				AvgNShort:        row.AvgNShort,
				FracInvested:     row.FracInvested,
				Metrics:          make(map[string]float64),
			}
			byRegime[row.Regime] = wide

			order = append(order, row.Regime)
		}

		suffix := "__" + row.Series
		wide.Metrics["ann_return"+suffix] = row.AnnReturn
		wide.Metrics["ann_mean_arith"+suffix] = row.AnnMeanArith
		wide.Metrics["ann_vol"+suffix] = row.AnnVol
		wide.Metrics["sharpe_or_ir"+suffix] = row.SharpeOrIR
		wide.Metrics["max_drawdown_masked"+suffix] = row.MaxDrawdownMasked
		wide.Metrics["hit_rate"+suffix] = row.HitRate
		wide.Metrics["hit_rate_invested"+suffix] = row.HitRateInvested
		wide.Metrics["ann_return_invested"+suffix] = row.AnnReturnInvested
		wide.Metrics["ann_mean_arith_invested"+suffix] = row.AnnMeanArithInvested
		wide.Metrics["ann_vol_invested"+suffix] = row.AnnVolInvested
		wide.Metrics["sharpe_invested"+suffix] = row.SharpeInvested
		wide.Metrics["beta"+suffix] = row.Beta
		wide.Metrics["alpha_ann"+suffix] = row.AlphaAnn
		wide.Metrics["corr_with_benchmark"+suffix] = row.CorrWithBenchmark
		wide.Metrics["ann_return_gross"+suffix] = row.AnnReturnGross
		wide.Metrics["ann_return_cost"+suffix] = row.AnnReturnCost
	}

	wide := make([]WideRow, 0, len(order))
	for _, reg := range order {
		wide = append(wide, *byRegime[reg])
	}

	return wide
}
