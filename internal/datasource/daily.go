package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// dailyRequiredColumns must exist in a daily table file.
var dailyRequiredColumns = []string{"date", "net_ret"}

// dailyOptionalColumns are filled with NaN when the file lacks them, so a
// single-symbol daily file and a portfolio daily file both load.
var dailyOptionalColumns = []string{
	"gross_ret", "cost_ret", "gross_leverage", "portfolio_turnover",
	"n_long", "n_short", "bm_ret", "active_ret",
}

// LoadDaily reads a backtest daily table from CSV or Parquet. Only date and
// net_ret are required; missing optional columns come back as NaN.
func (d *DataSource) LoadDaily(path string) ([]types.DailyRow, error) {
	if err := d.registerView("daily", path); err != nil {
		return nil, err
	}

	if err := d.requireColumns("daily", dailyRequiredColumns); err != nil {
		return nil, err
	}

	cols, err := d.viewColumns("daily")
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}

	selects := []string{"CAST(date AS TIMESTAMP)", "CAST(net_ret AS DOUBLE)"}

	for _, c := range dailyOptionalColumns {
		if have[c] {
			selects = append(selects, fmt.Sprintf("CAST(%s AS DOUBLE)", c))
		} else {
			selects = append(selects, "CAST(NULL AS DOUBLE)")
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM daily ORDER BY date;`, strings.Join(selects, ", "))

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query daily table", err)
	}
	defer rows.Close()

	var daily []types.DailyRow

	for rows.Next() {
		var (
			row  types.DailyRow
			vals [9]sql.NullFloat64
		)

		if err := rows.Scan(&row.Date, &vals[0], &vals[1], &vals[2], &vals[3],
			&vals[4], &vals[5], &vals[6], &vals[7], &vals[8]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan daily row", err)
		}

		row.Date = types.NormalizeDate(row.Date)
		row.Ret1D = math.NaN()
		row.Weight = math.NaN()
		row.WeightLag1 = math.NaN()
		row.Turnover = math.NaN()
		row.NetRet = nullToNaN(vals[0])
		row.GrossRet = nullToNaN(vals[1])
		row.CostRet = nullToNaN(vals[2])
		row.GrossLeverage = nullToNaN(vals[3])
		row.PortfolioTurnover = nullToNaN(vals[4])
		row.NLong = nullToNaN(vals[5])
		row.NShort = nullToNaN(vals[6])
		row.BmRet = nullToNaN(vals[7])
		row.ActiveRet = nullToNaN(vals[8])

		daily = append(daily, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate daily table", err)
	}

	if len(daily) == 0 {
		return nil, errors.Newf(errors.ErrCodeRegimeNoDaily, "daily file %s has no rows", path)
	}

	d.log.Debug("loaded daily table", zap.String("path", path), zap.Int("rows", len(daily)))

	return daily, nil
}
