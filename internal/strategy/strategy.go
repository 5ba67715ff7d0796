// Package strategy turns daily OHLCV bars into directional signal panels the
// backtest engine consumes. Strategies are vectorized over a whole panel:
// bars are grouped per symbol, sorted by date, and mapped to one signal row
// per bar.
package strategy

import (
	"math"
	"sort"
	"strings"

	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Strategy generates a signal panel from a bar panel.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string
	// GenerateSignals maps a bar panel to a signal panel. The output has one
	// row per input bar with signal in {-1, 0, 1}.
	GenerateSignals(bars []types.Bar) ([]types.SignalRow, error)
}

// symbolSeries is one symbol's bars in date order.
type symbolSeries struct {
	symbol string
	bars   []types.Bar
}

// groupBySymbol splits a panel per lowercase symbol, each group sorted by
// date, groups ordered by symbol.
func groupBySymbol(bars []types.Bar) ([]symbolSeries, error) {
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyPanel, "bar panel is empty")
	}

	grouped := make(map[string][]types.Bar)

	for _, b := range bars {
		sym := strings.ToLower(b.Symbol)
		if sym == "" {
			return nil, errors.New(errors.ErrCodeMissingColumn, "bar with empty symbol")
		}

		b.Symbol = sym
		b.Date = types.NormalizeDate(b.Date)
		grouped[sym] = append(grouped[sym], b)
	}

	symbols := make([]string, 0, len(grouped))
	for sym := range grouped {
		symbols = append(symbols, sym)
	}

	sort.Strings(symbols)

	series := make([]symbolSeries, 0, len(symbols))

	for _, sym := range symbols {
		g := grouped[sym]
		sort.SliceStable(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })
		series = append(series, symbolSeries{symbol: sym, bars: g})
	}

	return series, nil
}

// closes extracts the close series of one symbol group.
func closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}

	return out
}

// signalRows builds the signal panel rows for one symbol from its bars and
// per-bar signals. ret_1d is the close-to-close simple return, NaN on the
// first bar and where the previous close is zero.
func signalRows(s symbolSeries, signals []float64) []types.SignalRow {
	rows := make([]types.SignalRow, len(s.bars))

	for i, b := range s.bars {
		ret := math.NaN()
		if i > 0 && s.bars[i-1].Close != 0 {
			ret = b.Close/s.bars[i-1].Close - 1.0
		}

		rows[i] = types.SignalRow{
			Symbol: s.symbol,
			Date:   b.Date,
			Close:  b.Close,
			Ret1D:  ret,
			Signal: signals[i],
		}
	}

	return rows
}

// generate runs a per-symbol signal function over the whole panel.
func generate(bars []types.Bar, perSymbol func(closes []float64) []float64) ([]types.SignalRow, error) {
	series, err := groupBySymbol(bars)
	if err != nil {
		return nil, err
	}

	var panel []types.SignalRow

	for _, s := range series {
		signals := perSymbol(closes(s.bars))
		panel = append(panel, signalRows(s, signals)...)
	}

	return panel, nil
}
