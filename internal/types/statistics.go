package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects how the backtest engine aggregates a signal panel.
type Mode string

const (
	// ModeSingleSymbol backtests one instrument's signal series.
	ModeSingleSymbol Mode = "single"
	// ModePortfolio combines all instruments into one cross-sectional
	// long/short basket.
	ModePortfolio Mode = "portfolio"
)

// EquityPoint is one day of the equity curve.
type EquityPoint struct {
	Date time.Time `csv:"date"`
	// Equity is the compounded account value in currency units.
	Equity float64 `csv:"equity"`
	// CumReturn is equity / initial_capital - 1.
	CumReturn float64 `csv:"cum_ret"`
}

// DailyRow is one day of the backtest's return decomposition. It is the
// union of the single-symbol and portfolio column sets; fields that do not
// apply to the run's mode hold NaN. BmRet and ActiveRet stay NaN until the
// benchmark comparator fills them in.
type DailyRow struct {
	Date time.Time `csv:"date"`
	// Symbol is set in single-symbol mode, empty for portfolio rows.
	Symbol string `csv:"symbol"`
	// Ret1D is the instrument's close-to-close return (single-symbol mode).
	Ret1D float64 `csv:"ret_1d"`
	// GrossRet is the return attributable to market exposure before costs.
	GrossRet float64 `csv:"gross_ret"`
	// CostRet is the transaction-cost drag charged that day.
	CostRet float64 `csv:"cost_ret"`
	// NetRet is GrossRet - CostRet.
	NetRet float64 `csv:"net_ret"`
	// Weight is the target exposure decided on this day (single-symbol mode).
	Weight float64 `csv:"weight"`
	// WeightLag1 is the previous day's target, i.e. the exposure realized today.
	WeightLag1 float64 `csv:"weight_lag1"`
	// Turnover is |Weight - WeightLag1| (single-symbol mode).
	Turnover float64 `csv:"turnover"`
	// GrossLeverage is the sum of |lagged weight| across instruments.
	GrossLeverage float64 `csv:"gross_leverage"`
	// PortfolioTurnover is the summed turnover across instruments.
	PortfolioTurnover float64 `csv:"portfolio_turnover"`
	// NLong / NShort count instruments with positive / negative lagged weight.
	NLong  float64 `csv:"n_long"`
	NShort float64 `csv:"n_short"`
	// BmRet is the benchmark's daily return on this date.
	BmRet float64 `csv:"bm_ret"`
	// ActiveRet is NetRet - BmRet.
	ActiveRet float64 `csv:"active_ret"`
}

// BenchmarkStats holds benchmark-relative performance attached to a summary
// by the benchmark comparator.
type BenchmarkStats struct {
	BenchAnnReturn  float64 `yaml:"bench_ann_return"`
	BenchAnnVol     float64 `yaml:"bench_ann_vol"`
	BenchSharpe     float64 `yaml:"bench_sharpe"`
	ActiveAnnReturn float64 `yaml:"active_ann_return"`
	ActiveAnnVol    float64 `yaml:"active_ann_vol"`
	ActiveSharpe    float64 `yaml:"active_sharpe"`
}

// Summary holds the scalar performance metrics of one backtest run.
type Summary struct {
	// RunID is the unique identifier of this backtest run.
	RunID string `yaml:"run_id"`
	// Mode is the aggregation mode the run was executed in.
	Mode Mode `yaml:"mode"`
	// Symbol of the backtested instrument (single-symbol mode only).
	Symbol string `yaml:"symbol,omitempty"`
	// NDays is the count of valid return observations.
	NDays int `yaml:"n_days"`
	// InitialCapital the run started with, in currency units.
	InitialCapital float64 `yaml:"initial_capital"`
	// FinalEquity is the last value of the equity curve.
	FinalEquity float64 `yaml:"final_equity"`
	// TotalReturn is final_equity / initial_capital - 1.
	TotalReturn float64 `yaml:"total_return"`
	// AnnReturn is the compounded annualized return.
	AnnReturn float64 `yaml:"ann_return"`
	// AnnVol is the annualized population volatility of net returns.
	AnnVol float64 `yaml:"ann_vol"`
	// Sharpe is AnnReturn / AnnVol, NaN when AnnVol is zero.
	Sharpe float64 `yaml:"sharpe"`
	// MaxDrawdown is the worst equity decline from a running peak (<= 0).
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// Portfolio-mode exposure averages over the daily series.
	AvgTurnover      float64 `yaml:"avg_turnover,omitempty"`
	AvgGrossLeverage float64 `yaml:"avg_gross_leverage,omitempty"`
	AvgNLong         float64 `yaml:"avg_n_long,omitempty"`
	AvgNShort        float64 `yaml:"avg_n_short,omitempty"`
	// Benchmark is filled in by the benchmark comparator.
	Benchmark *BenchmarkStats `yaml:"benchmark,omitempty"`
}

// Result is the immutable output of one backtest engine invocation. The
// benchmark comparator and regime analyzer may extend Daily and Summary as a
// deliberate extension step; nothing else mutates a Result.
type Result struct {
	EquityCurve []EquityPoint
	Daily       []DailyRow
	Summary     Summary
}

// WriteSummary writes a run summary to a YAML file.
func WriteSummary(path string, summary Summary) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary to file: %w", err)
	}

	return nil
}
