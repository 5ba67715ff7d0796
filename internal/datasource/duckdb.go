// Package datasource loads signal panels, bar panels and benchmark price
// series from flat files through DuckDB. Files are registered as views over
// read_parquet/read_csv_auto, so CSV and Parquet inputs share one code path.
package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// signalPanelColumns are the columns a signal panel file must provide.
var signalPanelColumns = []string{"date", "symbol", "close", "ret_1d", "signal"}

// barColumns are the columns a bar panel file must provide.
var barColumns = []string{"date", "symbol", "open", "high", "low", "close", "volume"}

// DataSource reads tabular market data files through an embedded DuckDB.
type DataSource struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewDataSource opens a DuckDB instance. An empty path opens an in-memory
// database, which is all the loaders need.
func NewDataSource(path string, log *logger.Logger) (*DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DataSource{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Close releases the underlying database.
func (d *DataSource) Close() error {
	return d.db.Close()
}

// registerView exposes a data file as a named view. Parquet files go through
// read_parquet, everything else through read_csv_auto.
func (d *DataSource) registerView(name, path string) error {
	if _, err := d.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s;`, name)); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	reader := "read_csv_auto"
	if strings.HasSuffix(strings.ToLower(path), ".parquet") {
		reader = "read_parquet"
	}

	escaped := strings.ReplaceAll(path, "'", "''")

	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s('%s');`, name, reader, escaped)
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read data file %s", path)
	}

	d.log.Debug("registered data file", zap.String("view", name), zap.String("path", path))

	return nil
}

// viewColumns returns the column names of a registered view.
func (d *DataSource) viewColumns(name string) ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf(`SELECT * FROM %s LIMIT 0;`, name))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to inspect view", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read column names", err)
	}

	return cols, nil
}

// requireColumns checks that all required columns exist in the view.
func (d *DataSource) requireColumns(name string, required []string) error {
	cols, err := d.viewColumns(name)
	if err != nil {
		return err
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}

	var missing []string

	for _, c := range required {
		if !have[c] {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		return errors.Wrap(errors.ErrCodeMissingColumn, "input file schema",
			&errors.MissingColumnsError{Columns: missing})
	}

	return nil
}

// dateBounds appends optional inclusive date bounds to a select builder.
func dateBounds(builder squirrel.SelectBuilder, start, end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": end.Unwrap()})
	}

	return builder
}

// nullToNaN maps SQL NULL to NaN.
func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}

	return v.Float64
}

// LoadSignalPanel reads a signal panel file, optionally restricted to an
// inclusive date range. Rows come back sorted by (symbol, date) with symbols
// lowercased; NULL numeric cells become NaN.
func (d *DataSource) LoadSignalPanel(path string, start, end optional.Option[time.Time]) ([]types.SignalRow, error) {
	if err := d.registerView("signal_panel", path); err != nil {
		return nil, err
	}

	if err := d.requireColumns("signal_panel", signalPanelColumns); err != nil {
		return nil, err
	}

	builder := d.sq.Select(
		"CAST(date AS TIMESTAMP)",
		"lower(symbol)",
		"CAST(close AS DOUBLE)",
		"CAST(ret_1d AS DOUBLE)",
		"CAST(signal AS DOUBLE)",
	).From("signal_panel").OrderBy("lower(symbol)", "date")

	builder = dateBounds(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query signal panel", err)
	}
	defer rows.Close()

	var panel []types.SignalRow

	for rows.Next() {
		var (
			row               types.SignalRow
			closePx, ret, sig sql.NullFloat64
		)

		if err := rows.Scan(&row.Date, &row.Symbol, &closePx, &ret, &sig); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan signal row", err)
		}

		row.Date = types.NormalizeDate(row.Date)
		row.Close = nullToNaN(closePx)
		row.Ret1D = nullToNaN(ret)
		row.Signal = nullToNaN(sig)

		panel = append(panel, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate signal panel", err)
	}

	d.log.Debug("loaded signal panel", zap.String("path", path), zap.Int("rows", len(panel)))

	return panel, nil
}

// LoadBars reads an OHLCV bar panel file, optionally restricted to an
// inclusive date range. Rows come back sorted by (symbol, date).
func (d *DataSource) LoadBars(path string, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	if err := d.registerView("bars", path); err != nil {
		return nil, err
	}

	if err := d.requireColumns("bars", barColumns); err != nil {
		return nil, err
	}

	builder := d.sq.Select(
		"CAST(date AS TIMESTAMP)",
		"lower(symbol)",
		"CAST(open AS DOUBLE)",
		"CAST(high AS DOUBLE)",
		"CAST(low AS DOUBLE)",
		"CAST(close AS DOUBLE)",
		"CAST(volume AS DOUBLE)",
	).From("bars").OrderBy("lower(symbol)", "date")

	builder = dateBounds(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var (
			bar                           types.Bar
			open, high, low, closePx, vol sql.NullFloat64
		)

		if err := rows.Scan(&bar.Date, &bar.Symbol, &open, &high, &low, &closePx, &vol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bar.Date = types.NormalizeDate(bar.Date)
		bar.Open = nullToNaN(open)
		bar.High = nullToNaN(high)
		bar.Low = nullToNaN(low)
		bar.Close = nullToNaN(closePx)
		bar.Volume = nullToNaN(vol)

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err)
	}

	d.log.Debug("loaded bars", zap.String("path", path), zap.Int("rows", len(bars)))

	return bars, nil
}

// LoadBenchmark reads a benchmark price series. Both the canonical
// (date, close) schema and the stooq-style Polish (Data, Zamkniecie) headers
// are accepted; rows with unparseable dates or prices are dropped.
func (d *DataSource) LoadBenchmark(path string) ([]types.PricePoint, error) {
	if err := d.registerView("benchmark", path); err != nil {
		return nil, err
	}

	cols, err := d.viewColumns("benchmark")
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}

	dateCol, closeCol := "date", "close"

	switch {
	case have["date"] && have["close"]:
	case have["Data"] && have["Zamkniecie"]:
		dateCol, closeCol = `"Data"`, `"Zamkniecie"`
	default:
		return nil, errors.Newf(errors.ErrCodeBenchmarkSchema,
			"benchmark must contain (date, close) or (Data, Zamkniecie) columns, got [%s]",
			strings.Join(cols, ", "))
	}

	query := fmt.Sprintf(
		`SELECT CAST(%s AS TIMESTAMP), CAST(%s AS DOUBLE) FROM benchmark
		 WHERE %s IS NOT NULL AND %s IS NOT NULL ORDER BY 1;`,
		dateCol, closeCol, dateCol, closeCol)

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query benchmark", err)
	}
	defer rows.Close()

	var series []types.PricePoint

	for rows.Next() {
		var p types.PricePoint

		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan benchmark row", err)
		}

		p.Date = types.NormalizeDate(p.Date)
		series = append(series, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate benchmark", err)
	}

	if len(series) == 0 {
		return nil, errors.Newf(errors.ErrCodeBenchmarkEmpty, "benchmark file %s has no usable rows", path)
	}

	d.log.Debug("loaded benchmark", zap.String("path", path), zap.Int("rows", len(series)))

	return series, nil
}
