package types

import "time"

// Bar is a single daily OHLCV bar for one instrument.
type Bar struct {
	Symbol string    `csv:"symbol" parquet:"symbol"`
	Date   time.Time `csv:"date" parquet:"date"`
	Open   float64   `csv:"open" parquet:"open"`
	High   float64   `csv:"high" parquet:"high"`
	Low    float64   `csv:"low" parquet:"low"`
	Close  float64   `csv:"close" parquet:"close"`
	Volume float64   `csv:"volume" parquet:"volume"`
}

// PricePoint is a single (date, close) observation of a price series,
// e.g. a benchmark index.
type PricePoint struct {
	Date  time.Time `csv:"date"`
	Close float64   `csv:"close"`
}

// dateLayouts are the accepted textual date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a textual date and normalizes it to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	var lastErr error

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NormalizeDate(t), nil
		}

		lastErr = err
	}

	return time.Time{}, lastErr
}

// NormalizeDate truncates a timestamp to its calendar date at midnight UTC,
// so dates parsed from different sources compare equal.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
