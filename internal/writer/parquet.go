package writer

import (
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// DailyRecord is the Parquet schema for the daily return decomposition.
// Parquet has no NaN-safe nullability for plain doubles in every reader, so
// NaN values are stored as-is; readers treat non-finite as missing.
type DailyRecord struct {
	Date              int64   `parquet:"date,timestamp(millisecond)"` // Unix ms
	Symbol            string  `parquet:"symbol"`
	Ret1D             float64 `parquet:"ret_1d"`
	GrossRet          float64 `parquet:"gross_ret"`
	CostRet           float64 `parquet:"cost_ret"`
	NetRet            float64 `parquet:"net_ret"`
	Weight            float64 `parquet:"weight"`
	WeightLag1        float64 `parquet:"weight_lag1"`
	Turnover          float64 `parquet:"turnover"`
	GrossLeverage     float64 `parquet:"gross_leverage"`
	PortfolioTurnover float64 `parquet:"portfolio_turnover"`
	NLong             float64 `parquet:"n_long"`
	NShort            float64 `parquet:"n_short"`
	BmRet             float64 `parquet:"bm_ret"`
	ActiveRet         float64 `parquet:"active_ret"`
}

// WriteDailyParquet writes daily.parquet with the full daily column set.
func (w *Writer) WriteDailyParquet(daily []types.DailyRow) error {
	records := make([]DailyRecord, len(daily))

	for i, d := range daily {
		records[i] = DailyRecord{
			Date:              d.Date.UnixMilli(),
			Symbol:            d.Symbol,
			Ret1D:             d.Ret1D,
			GrossRet:          d.GrossRet,
			CostRet:           d.CostRet,
			NetRet:            d.NetRet,
			Weight:            d.Weight,
			WeightLag1:        d.WeightLag1,
			Turnover:          d.Turnover,
			GrossLeverage:     d.GrossLeverage,
			PortfolioTurnover: d.PortfolioTurnover,
			NLong:             d.NLong,
			NShort:            d.NShort,
			BmRet:             d.BmRet,
			ActiveRet:         d.ActiveRet,
		}
	}

	path := filepath.Join(w.outDir, w.fileName("daily.parquet"))

	if err := parquet.WriteFile(path, records); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write %s", path)
	}

	w.log.Debug("wrote parquet", zap.String("path", path), zap.Int("rows", len(records)))

	return nil
}

// ReadDailyParquet reads a daily.parquet file back into daily rows.
func ReadDailyParquet(path string) ([]types.DailyRow, error) {
	records, err := parquet.ReadFile[DailyRecord](path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to read %s", path)
	}

	daily := make([]types.DailyRow, len(records))

	for i, r := range records {
		daily[i] = types.DailyRow{
			Date:              types.NormalizeDate(msToTime(r.Date)),
			Symbol:            r.Symbol,
			Ret1D:             r.Ret1D,
			GrossRet:          r.GrossRet,
			CostRet:           r.CostRet,
			NetRet:            r.NetRet,
			Weight:            r.Weight,
			WeightLag1:        r.WeightLag1,
			Turnover:          r.Turnover,
			GrossLeverage:     r.GrossLeverage,
			PortfolioTurnover: r.PortfolioTurnover,
			NLong:             r.NLong,
			NShort:            r.NShort,
			BmRet:             r.BmRet,
			ActiveRet:         r.ActiveRet,
		}
	}

	return daily, nil
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
