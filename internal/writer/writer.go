// Package writer persists backtest and regime analysis outputs as flat
// files: CSV for the tabular outputs, YAML for the summary and Parquet for
// the daily table. NaN cells are written as empty strings so the files round
// trip through pandas-style readers.
package writer

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/backtest/regime"
	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Writer persists run outputs under a single output directory.
type Writer struct {
	outDir string
	tag    string
	log    *logger.Logger
}

// NewWriter creates the output directory and a writer rooted at it.
func NewWriter(outDir string, log *logger.Logger) (*Writer, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create output directory", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Writer{outDir: outDir, log: log}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.outDir
}

// WithTag returns a writer that prefixes every output file with "<tag>.".
func (w *Writer) WithTag(tag string) *Writer {
	return &Writer{outDir: w.outDir, tag: tag, log: w.log}
}

// fileName prefixes the base name with the run tag when one is set.
func (w *Writer) fileName(base string) string {
	if w.tag == "" {
		return base
	}

	return w.tag + "." + base
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// writeCSV writes a header plus rows to a file under the output directory.
func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.outDir, name)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if err := cw.Write(header); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write header to %s", path)
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write row to %s", path)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to flush %s", path)
	}

	w.log.Debug("wrote csv", zap.String("path", path), zap.Int("rows", len(rows)))

	return nil
}

// WriteEquityCurve writes equity.csv.
func (w *Writer) WriteEquityCurve(curve []types.EquityPoint) error {
	rows := make([][]string, len(curve))
	for i, p := range curve {
		rows[i] = []string{formatDate(p.Date), formatFloat(p.Equity), formatFloat(p.CumReturn)}
	}

	return w.writeCSV(w.fileName("equity.csv"), []string{"date", "equity", "cum_return"}, rows)
}

// WriteDaily writes daily.csv with the column set of the given mode.
func (w *Writer) WriteDaily(daily []types.DailyRow, mode types.Mode) error {
	if mode == types.ModePortfolio {
		header := []string{
			"date", "gross_ret", "cost_ret", "net_ret", "gross_leverage",
			"portfolio_turnover", "n_long", "n_short", "bm_ret", "active_ret",
		}

		rows := make([][]string, len(daily))
		for i, d := range daily {
			rows[i] = []string{
				formatDate(d.Date),
				formatFloat(d.GrossRet),
				formatFloat(d.CostRet),
				formatFloat(d.NetRet),
				formatFloat(d.GrossLeverage),
				formatFloat(d.PortfolioTurnover),
				formatFloat(d.NLong),
				formatFloat(d.NShort),
				formatFloat(d.BmRet),
				formatFloat(d.ActiveRet),
			}
		}

		return w.writeCSV(w.fileName("daily.csv"), header, rows)
	}

	header := []string{
		"date", "symbol", "ret_1d", "weight", "weight_lag1", "turnover",
		"gross_ret", "cost_ret", "net_ret", "gross_leverage", "bm_ret", "active_ret",
	}

	rows := make([][]string, len(daily))
	for i, d := range daily {
		rows[i] = []string{
			formatDate(d.Date),
			d.Symbol,
			formatFloat(d.Ret1D),
			formatFloat(d.Weight),
			formatFloat(d.WeightLag1),
			formatFloat(d.Turnover),
			formatFloat(d.GrossRet),
			formatFloat(d.CostRet),
			formatFloat(d.NetRet),
			formatFloat(d.GrossLeverage),
			formatFloat(d.BmRet),
			formatFloat(d.ActiveRet),
		}
	}

	return w.writeCSV(w.fileName("daily.csv"), header, rows)
}

// WriteSummary writes summary.yaml.
func (w *Writer) WriteSummary(summary types.Summary) error {
	path := filepath.Join(w.outDir, w.fileName("summary.yaml"))
	if err := types.WriteSummary(path, summary); err != nil {
		return err
	}

	w.log.Debug("wrote summary", zap.String("path", path))

	return nil
}

// WriteRegimeLong writes regime_metrics_long.csv.
func (w *Writer) WriteRegimeLong(long []regime.MetricsRow) error {
	header := []string{
		"regime", "n_days", "series",
		"ann_return", "ann_mean_arith", "ann_vol", "sharpe_or_ir",
		"max_drawdown_masked", "hit_rate", "frac_invested",
		"hit_rate_invested", "ann_return_invested", "ann_mean_arith_invested",
		"ann_vol_invested", "sharpe_invested",
		"avg_gross_leverage", "avg_turnover", "avg_n_long", "avg_n_short",
		"beta", "alpha_ann", "corr_with_benchmark",
		"ann_return_gross", "ann_return_cost",
	}

	rows := make([][]string, len(long))
	for i, r := range long {
		rows[i] = []string{
			string(r.Regime),
			strconv.Itoa(r.NDays),
			r.Series,
			formatFloat(r.AnnReturn),
			formatFloat(r.AnnMeanArith),
			formatFloat(r.AnnVol),
			formatFloat(r.SharpeOrIR),
			formatFloat(r.MaxDrawdownMasked),
			formatFloat(r.HitRate),
			formatFloat(r.FracInvested),
			formatFloat(r.HitRateInvested),
			formatFloat(r.AnnReturnInvested),
			formatFloat(r.AnnMeanArithInvested),
			formatFloat(r.AnnVolInvested),
			formatFloat(r.SharpeInvested),
			formatFloat(r.AvgGrossLeverage),
			formatFloat(r.AvgTurnover),
			formatFloat(r.AvgNLong),
			formatFloat(r.AvgNShort),
			formatFloat(r.Beta),
			formatFloat(r.AlphaAnn),
			formatFloat(r.CorrWithBenchmark),
			formatFloat(r.AnnReturnGross),
			formatFloat(r.AnnReturnCost),
		}
	}

	return w.writeCSV(w.fileName("regime_metrics_long.csv"), header, rows)
}

// WriteRegimeWide writes regime_metrics_wide.csv with metric__series columns.
func (w *Writer) WriteRegimeWide(wide []regime.WideRow) error {
	metricCols := regime.WideColumns()

	header := append([]string{
		"regime", "n_days", "avg_gross_leverage", "avg_turnover",
		"avg_n_long", "avg_n_short", "frac_invested",
	}, metricCols...)

	rows := make([][]string, len(wide))

	for i, r := range wide {
		row := []string{
			string(r.Regime),
			strconv.Itoa(r.NDays),
			formatFloat(r.AvgGrossLeverage),
			formatFloat(r.AvgTurnover),
			formatFloat(r.AvgNLong),
			formatFloat(r.AvgNShort),
			formatFloat(r.FracInvested),
		}

		for _, col := range metricCols {
			v, ok := r.Metrics[col]
			if !ok {
				v = math.NaN()
			}

			row = append(row, formatFloat(v))
		}

		rows[i] = row
	}

	return w.writeCSV(w.fileName("regime_metrics_wide.csv"), header, rows)
}
