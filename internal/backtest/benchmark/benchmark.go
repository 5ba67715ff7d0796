// Package benchmark enriches a finished backtest with benchmark-relative
// performance. It joins the strategy's daily net returns with an external
// benchmark price series and attaches benchmark and active-return statistics
// to the result.
package benchmark

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/stats"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Comparator computes benchmark-relative statistics for a backtest result.
type Comparator struct {
	tradingDays int
	log         *logger.Logger
}

// NewComparator creates a comparator using the given annualization base.
func NewComparator(tradingDaysPerYear int, log *logger.Logger) (*Comparator, error) {
	if tradingDaysPerYear <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"trading_days_per_year must be positive, got %d", tradingDaysPerYear)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Comparator{tradingDays: tradingDaysPerYear, log: log}, nil
}

// returnsByDate converts a benchmark price series into daily simple returns
// keyed by normalized date. The first observation's return is zero.
func returnsByDate(series []types.PricePoint) (map[time.Time]float64, error) {
	if len(series) == 0 {
		return nil, errors.New(errors.ErrCodeBenchmarkEmpty, "benchmark series is empty")
	}

	sorted := make([]types.PricePoint, len(series))
	copy(sorted, series)

	for i := range sorted {
		sorted[i].Date = types.NormalizeDate(sorted[i].Date)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	rets := make(map[time.Time]float64, len(sorted))

	for i, p := range sorted {
		if _, ok := rets[p.Date]; ok {
			return nil, errors.Newf(errors.ErrCodeDuplicateDate,
				"duplicate benchmark date %s", p.Date.Format("2006-01-02"))
		}

		if i == 0 {
			rets[p.Date] = 0.0
			continue
		}

		prev := sorted[i-1].Close
		if prev == 0 {
			rets[p.Date] = math.NaN()
			continue
		}

		rets[p.Date] = p.Close/prev - 1.0
	}

	return rets, nil
}

// Compare joins the result's daily net returns with the benchmark price
// series and attaches bm_ret/active_ret columns plus benchmark summary
// statistics. The result is modified in place.
//
// Joining is an inner join on date for the statistics and a left join for the
// daily columns, so days without benchmark data carry NaN rather than zero.
func (c *Comparator) Compare(result *types.Result, series []types.PricePoint) error {
	if result == nil || len(result.Daily) == 0 {
		return errors.New(errors.ErrCodeEmptyReturns, "backtest result has no daily rows")
	}

	bmRets, err := returnsByDate(series)
	if err != nil {
		return err
	}

	var (
		overlapNet []float64
		overlapBm  []float64
	)

	for i := range result.Daily {
		row := &result.Daily[i]

		bm, ok := bmRets[types.NormalizeDate(row.Date)]
		if !ok {
			row.BmRet = math.NaN()
			row.ActiveRet = math.NaN()
			continue
		}

		row.BmRet = bm
		row.ActiveRet = row.NetRet - bm

		overlapNet = append(overlapNet, row.NetRet)
		overlapBm = append(overlapBm, bm)
	}

	if len(overlapNet) == 0 {
		return errors.New(errors.ErrCodeNoOverlappingDates,
			"no overlapping dates between strategy and benchmark")
	}

	active := make([]float64, len(overlapNet))
	for i := range overlapNet {
		active[i] = overlapNet[i] - overlapBm[i]
	}

	benchStats := stats.Annualize(overlapBm, c.tradingDays)
	activeStats := stats.Annualize(active, c.tradingDays)

	result.Summary.Benchmark = &types.BenchmarkStats{
		BenchAnnReturn:  benchStats.AnnReturn,
		BenchAnnVol:     benchStats.AnnVol,
		BenchSharpe:     benchStats.Sharpe,
		ActiveAnnReturn: activeStats.AnnReturn,
		ActiveAnnVol:    activeStats.AnnVol,
		ActiveSharpe:    activeStats.Sharpe,
	}

	c.log.Debug("benchmark comparison complete",
		zap.Int("overlap_days", len(overlapNet)),
		zap.Float64("bench_ann_return", benchStats.AnnReturn),
		zap.Float64("active_ann_return", activeStats.AnnReturn),
	)

	return nil
}
