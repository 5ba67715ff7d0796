// Package engine converts a per-(symbol, date) signal panel into realized,
// cost-adjusted performance: an equity curve, a daily return decomposition
// and a summary of scalar metrics.
//
// The engine is a pure function of its inputs: no I/O, no shared state
// between runs, identical output for identical input panels. The signal
// decided on day T is applied as exposure starting day T+1, which is what
// prevents look-ahead bias.
package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/stats"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Engine runs vectorized daily backtests for a single symbol or a
// cross-sectional long/short basket.
type Engine struct {
	cfg Config
	log *logger.Logger
}

// NewEngine creates an engine with a validated config. A nil logger is
// replaced with a no-op logger so the engine stays usable as a pure library.
func NewEngine(cfg Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{cfg: cfg, log: log}, nil
}

// Config returns the engine's run parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// panelRow is a prepared signal row with its derived target weights.
type panelRow struct {
	types.SignalRow

	weight     float64
	weightLag1 float64
}

// prepare validates, normalizes and sorts a signal panel, then derives the
// clamped target weight and its one-day lag per symbol. The first
// observation of each symbol gets a lagged weight of zero.
func (e *Engine) prepare(panel []types.SignalRow) ([]panelRow, error) {
	if len(panel) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyPanel, "empty signal panel")
	}

	if err := validateColumns(panel); err != nil {
		return nil, err
	}

	rows := make([]panelRow, len(panel))
	for i, r := range panel {
		r.Symbol = strings.ToLower(r.Symbol)
		r.Date = types.NormalizeDate(r.Date)
		rows[i] = panelRow{SignalRow: r, weight: clampWeight(r.Signal)}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}

		return rows[i].Date.Before(rows[j].Date)
	})

	prevSymbol := ""
	prevWeight := 0.0

	for i := range rows {
		if rows[i].Symbol != prevSymbol {
			prevSymbol = rows[i].Symbol
			prevWeight = 0.0
		}

		rows[i].weightLag1 = prevWeight
		prevWeight = rows[i].weight
	}

	return rows, nil
}

// validateColumns reports which required panel columns are absent. A column
// counts as missing when no row carries a usable value for it.
func validateColumns(panel []types.SignalRow) error {
	hasSymbol := false
	hasDate := false

	for _, r := range panel {
		if r.Symbol != "" {
			hasSymbol = true
		}

		if !r.Date.IsZero() {
			hasDate = true
		}

		if hasSymbol && hasDate {
			return nil
		}
	}

	var missing []string
	if !hasDate {
		missing = append(missing, "date")
	}

	if !hasSymbol {
		missing = append(missing, "symbol")
	}

	return errors.Wrap(errors.ErrCodeMissingColumn, "invalid signal panel",
		errors.NewMissingColumnsError(missing))
}

// clampWeight clips a signal into [-1, 1]. NaN passes through and is
// handled downstream as zero exposure.
func clampWeight(signal float64) float64 {
	if signal > 1 {
		return 1
	}

	if signal < -1 {
		return -1
	}

	return signal
}

// RunSingleSymbol backtests the requested symbol's signal series. The symbol
// is matched case-insensitively; an empty filter result is a fatal error.
func (e *Engine) RunSingleSymbol(panel []types.SignalRow, symbol string) (*types.Result, error) {
	sym := strings.ToLower(symbol)

	filtered := make([]types.SignalRow, 0, len(panel))

	for _, r := range panel {
		if strings.ToLower(r.Symbol) == sym {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataForSymbol, "no data for symbol '%s'", sym)
	}

	rows, err := e.prepare(filtered)
	if err != nil {
		return nil, err
	}

	cost := e.cfg.costPerTurnover()
	nan := math.NaN()

	daily := make([]types.DailyRow, len(rows))
	curve := make([]types.EquityPoint, len(rows))
	netRets := make([]float64, len(rows))

	cum := 1.0

	for i, r := range rows {
		grossRet := r.Ret1D * r.weightLag1
		turnover := math.Abs(r.weight - r.weightLag1)
		costRet := turnover * cost
		netRet := grossRet - costRet

		// Non-finite returns leave a gap in the curve without poisoning
		// the running product, mirroring a skipna cumulative product.
		equity := math.NaN()
		cumRet := math.NaN()

		if isFinite(netRet) {
			cum *= 1.0 + netRet
			equity = e.cfg.InitialCapital * cum
			cumRet = cum - 1.0
		}

		daily[i] = types.DailyRow{
			Date:              r.Date,
			Symbol:            r.Symbol,
			Ret1D:             r.Ret1D,
			GrossRet:          grossRet,
			CostRet:           costRet,
			NetRet:            netRet,
			Weight:            r.weight,
			WeightLag1:        r.weightLag1,
			Turnover:          turnover,
			GrossLeverage:     math.Abs(r.weightLag1),
			PortfolioTurnover: turnover,
			NLong:             boolToFloat(r.weightLag1 > 0),
			NShort:            boolToFloat(r.weightLag1 < 0),
			BmRet:             nan,
			ActiveRet:         nan,
		}
		curve[i] = types.EquityPoint{Date: r.Date, Equity: equity, CumReturn: cumRet}
		netRets[i] = netRet
	}

	summary, err := e.summarize(netRets, curve)
	if err != nil {
		return nil, err
	}

	summary.Mode = types.ModeSingleSymbol
	summary.Symbol = sym

	e.log.Debug("single-symbol backtest finished",
		zap.String("symbol", sym),
		zap.Int("n_days", summary.NDays),
		zap.Float64("total_return", summary.TotalReturn),
	)

	return &types.Result{EquityCurve: curve, Daily: daily, Summary: summary}, nil
}

// dateAggregate accumulates per-date portfolio quantities across symbols.
type dateAggregate struct {
	grossRet      float64
	costRet       float64
	grossLeverage float64
	turnover      float64
	nLong         float64
	nShort        float64
}

// RunPortfolio backtests all symbols in the panel as one cross-sectional
// long/short basket. Per date, instruments with positive target weight split
// a long capital budget equally and instruments with negative weight split a
// short budget equally; when both sides are populated each side gets half of
// the gross leverage cap. Non-finite target weights are treated as flat.
func (e *Engine) RunPortfolio(panel []types.SignalRow) (*types.Result, error) {
	rows, err := e.prepare(panel)
	if err != nil {
		return nil, err
	}

	// Per-date long/short candidate counts from the target weights.
	type sideCount struct {
		long  int
		short int
	}

	counts := make(map[time.Time]sideCount)

	for _, r := range rows {
		c := counts[r.Date]

		if isFinite(r.weight) && r.weight > 0 {
			c.long++
		} else if isFinite(r.weight) && r.weight < 0 {
			c.short++
		}

		counts[r.Date] = c
	}

	// Renormalize the clamped weights into portfolio weights.
	portWeights := make([]float64, len(rows))

	for i, r := range rows {
		c := counts[r.Date]

		switch {
		case !isFinite(r.weight) || r.weight == 0:
			portWeights[i] = 0
		case r.weight > 0:
			budget := e.cfg.MaxGrossLeverage
			if c.short > 0 {
				budget /= 2
			}

			portWeights[i] = budget / float64(c.long)
		default:
			budget := e.cfg.MaxGrossLeverage
			if c.long > 0 {
				budget /= 2
			}

			portWeights[i] = -budget / float64(c.short)
		}
	}

	// Lag the portfolio weight by one observation per symbol.
	portWeightsLag := make([]float64, len(rows))
	prevSymbol := ""
	prevWeight := 0.0

	for i, r := range rows {
		if r.Symbol != prevSymbol {
			prevSymbol = r.Symbol
			prevWeight = 0.0
		}

		portWeightsLag[i] = prevWeight
		prevWeight = portWeights[i]
	}

	cost := e.cfg.costPerTurnover()
	aggregates := make(map[time.Time]*dateAggregate)

	for i, r := range rows {
		agg := aggregates[r.Date]
		if agg == nil {
			agg = &dateAggregate{}
			aggregates[r.Date] = agg
		}

		pw := portWeights[i]
		pwLag := portWeightsLag[i]

		grossRet := r.Ret1D * pwLag
		turnover := math.Abs(pw - pwLag)

		// Non-finite contributions are skipped so one instrument's bad
		// return does not wipe out the whole date.
		if isFinite(grossRet) {
			agg.grossRet += grossRet
		}

		if isFinite(turnover) {
			agg.costRet += turnover * cost
			agg.turnover += turnover
		}

		agg.grossLeverage += math.Abs(pwLag)

		if pwLag > 0 {
			agg.nLong++
		} else if pwLag < 0 {
			agg.nShort++
		}
	}

	dates := make([]time.Time, 0, len(aggregates))
	for d := range aggregates {
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	nan := math.NaN()
	daily := make([]types.DailyRow, len(dates))
	curve := make([]types.EquityPoint, len(dates))
	netRets := make([]float64, len(dates))
	turnovers := make([]float64, len(dates))
	leverages := make([]float64, len(dates))
	nLongs := make([]float64, len(dates))
	nShorts := make([]float64, len(dates))

	cum := 1.0

	for i, d := range dates {
		agg := aggregates[d]
		netRet := agg.grossRet - agg.costRet

		equity := math.NaN()
		cumRet := math.NaN()

		if isFinite(netRet) {
			cum *= 1.0 + netRet
			equity = e.cfg.InitialCapital * cum
			cumRet = cum - 1.0
		}

		daily[i] = types.DailyRow{
			Date:              d,
			Ret1D:             nan,
			GrossRet:          agg.grossRet,
			CostRet:           agg.costRet,
			NetRet:            netRet,
			Weight:            nan,
			WeightLag1:        nan,
			Turnover:          nan,
			GrossLeverage:     agg.grossLeverage,
			PortfolioTurnover: agg.turnover,
			NLong:             agg.nLong,
			NShort:            agg.nShort,
			BmRet:             nan,
			ActiveRet:         nan,
		}
		curve[i] = types.EquityPoint{Date: d, Equity: equity, CumReturn: cumRet}
		netRets[i] = netRet
		turnovers[i] = agg.turnover
		leverages[i] = agg.grossLeverage
		nLongs[i] = agg.nLong
		nShorts[i] = agg.nShort
	}

	summary, err := e.summarize(netRets, curve)
	if err != nil {
		return nil, err
	}

	summary.Mode = types.ModePortfolio
	summary.AvgTurnover = stats.NanMean(turnovers)
	summary.AvgGrossLeverage = stats.NanMean(leverages)
	summary.AvgNLong = stats.NanMean(nLongs)
	summary.AvgNShort = stats.NanMean(nShorts)

	e.log.Debug("portfolio backtest finished",
		zap.Int("n_days", summary.NDays),
		zap.Float64("total_return", summary.TotalReturn),
		zap.Float64("avg_gross_leverage", summary.AvgGrossLeverage),
	)

	return &types.Result{EquityCurve: curve, Daily: daily, Summary: summary}, nil
}

// summarize computes the scalar metrics from the net-return series and the
// equity curve. A series with no finite returns is a fatal error.
func (e *Engine) summarize(netRets []float64, curve []types.EquityPoint) (types.Summary, error) {
	clean := stats.Clean(netRets)
	if len(clean) == 0 {
		return types.Summary{}, errors.New(errors.ErrCodeEmptyReturns, "no valid returns to compute metrics")
	}

	ann := stats.Annualize(netRets, e.cfg.TradingDaysPerYear)

	equities := make([]float64, len(curve))
	for i, p := range curve {
		equities[i] = p.Equity
	}

	last := curve[len(curve)-1]

	return types.Summary{
		RunID:          uuid.New().String(),
		NDays:          len(clean),
		InitialCapital: e.cfg.InitialCapital,
		FinalEquity:    last.Equity,
		TotalReturn:    last.CumReturn,
		AnnReturn:      ann.AnnReturn,
		AnnVol:         ann.AnnVol,
		Sharpe:         ann.Sharpe,
		MaxDrawdown:    stats.MaxDrawdown(equities),
	}, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
