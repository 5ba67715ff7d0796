package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// WriteBarsCSV writes an OHLCV bar panel to a standalone CSV file, creating
// parent directories as needed.
func WriteBarsCSV(path string, bars []types.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create directory for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	header := []string{"date", "symbol", "open", "high", "low", "close", "volume"}
	if err := cw.Write(header); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write header to %s", path)
	}

	for _, b := range bars {
		row := []string{
			formatDate(b.Date),
			b.Symbol,
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}

		if err := cw.Write(row); err != nil {
			return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write row to %s", path)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to flush %s", path)
	}

	return nil
}
