package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/vpow10/GPW-Quant-System/internal/backtest/regime"
	"github.com/vpow10/GPW-Quant-System/internal/datasource"
	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/internal/version"
	"github.com/vpow10/GPW-Quant-System/internal/writer"
)

// loadDaily reads the daily backtest decomposition, using the parquet reader
// for .parquet files and DuckDB for everything else.
func loadDaily(ds *datasource.DataSource, path string) ([]types.DailyRow, error) {
	if strings.HasSuffix(strings.ToLower(path), ".parquet") {
		return writer.ReadDailyParquet(path)
	}

	return ds.LoadDaily(path)
}

func regimeAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	cfg := regime.Config{
		MAWindow:          int(cmd.Int("ma-window")),
		SlopeWindow:       int(cmd.Int("slope-window")),
		TradingDays:       int(cmd.Int("trading-days")),
		InvestedThreshold: cmd.Float("invested-threshold"),
	}

	analyzer, err := regime.NewAnalyzer(cfg, appLogger)
	if err != nil {
		return err
	}

	ds, err := datasource.NewDataSource("", appLogger)
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	daily, err := loadDaily(ds, cmd.String("daily"))
	if err != nil {
		return err
	}

	bm, err := ds.LoadBenchmark(cmd.String("benchmark"))
	if err != nil {
		return err
	}

	analysis, err := analyzer.Run(daily, bm)
	if err != nil {
		return err
	}

	out, err := writer.NewWriter(cmd.String("outdir"), appLogger)
	if err != nil {
		return err
	}

	if tag := cmd.String("tag"); tag != "" {
		out = out.WithTag(tag)
	}

	if err := out.WriteRegimeLong(analysis.Long); err != nil {
		return err
	}

	if err := out.WriteRegimeWide(analysis.Wide); err != nil {
		return err
	}

	fmt.Printf("regime analysis finished: %d long rows, %d regimes\n", len(analysis.Long), len(analysis.Wide))
	fmt.Printf("outputs written to %s\n", out.Dir())

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "regime",
		Usage:   "Split a backtest's daily returns into market regimes and report per-regime performance",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "daily",
				Aliases:  []string{"d"},
				Usage:    "Path to the daily decomposition written by the backtest (CSV or Parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "benchmark",
				Aliases:  []string{"b"},
				Usage:    "Path to the benchmark price file used for regime labeling",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "outdir",
				Aliases: []string{"o"},
				Value:   "backtests",
				Usage:   "Output directory",
			},
			&cli.StringFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Run tag prefixed onto every output file name",
			},
			&cli.IntFlag{
				Name:  "ma-window",
				Value: 200,
				Usage: "Moving average window in bars for regime labeling",
			},
			&cli.IntFlag{
				Name:  "slope-window",
				Value: 20,
				Usage: "Lag in bars of the moving average difference",
			},
			&cli.IntFlag{
				Name:  "trading-days",
				Value: 252,
				Usage: "Trading days per year used for annualization",
			},
			&cli.FloatFlag{
				Name:  "invested-threshold",
				Value: 0.05,
				Usage: "Gross leverage above which a day counts as invested",
			},
		},
		Action: regimeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
