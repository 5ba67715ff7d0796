package types

import "time"

// Directional signal values. Anything outside this range is clamped to
// [-1, 1] by the backtest engine.
const (
	SignalShort float64 = -1
	SignalFlat  float64 = 0
	SignalLong  float64 = 1
)

// SignalRow is one row of a signal panel: a per-(symbol, date) directional
// call together with the market data it was derived from. One row per
// (symbol, date); duplicate dates per symbol are not permitted.
type SignalRow struct {
	// Symbol is the instrument identifier, matched case-insensitively.
	Symbol string `csv:"symbol" parquet:"symbol"`
	// Date is the calendar date of the daily bar.
	Date time.Time `csv:"date" parquet:"date"`
	// Close is the last price of the bar.
	Close float64 `csv:"close" parquet:"close"`
	// Ret1D is the close-to-close simple return: close_t/close_{t-1} - 1.
	Ret1D float64 `csv:"ret_1d" parquet:"ret_1d"`
	// Signal is the directional target: -1 short, 0 flat, 1 long.
	Signal float64 `csv:"signal" parquet:"signal"`
}
