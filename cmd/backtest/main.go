package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/vpow10/GPW-Quant-System/internal/backtest/benchmark"
	"github.com/vpow10/GPW-Quant-System/internal/backtest/engine"
	"github.com/vpow10/GPW-Quant-System/internal/datasource"
	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/strategy"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/internal/version"
	"github.com/vpow10/GPW-Quant-System/internal/writer"
)

// loadConfig reads the engine config, applying the yaml file on top of the
// defaults when one is given.
func loadConfig(path string) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// loadPanel either loads a ready signal panel or generates one by running a
// registered strategy over a bar panel.
func loadPanel(ds *datasource.DataSource, cmd *cli.Command, start, end optional.Option[time.Time]) ([]types.SignalRow, error) {
	if panelPath := cmd.String("panel"); panelPath != "" {
		return ds.LoadSignalPanel(panelPath, start, end)
	}

	barsPath := cmd.String("bars")
	strategyName := cmd.String("strategy")

	if barsPath == "" || strategyName == "" {
		return nil, fmt.Errorf("either --panel or both --bars and --strategy are required")
	}

	bars, err := ds.LoadBars(barsPath, start, end)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.NewDefaultRegistry().Get(strategyName)
	if err != nil {
		return nil, err
	}

	return strat.GenerateSignals(bars)
}

func optionalTimestamp(cmd *cli.Command, name string) optional.Option[time.Time] {
	t := cmd.Timestamp(name)
	if t.IsZero() {
		return optional.None[time.Time]()
	}

	return optional.Some(t)
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		cfg := engine.DefaultConfig()

		schema, err := cfg.GenerateSchemaJSON()
		if err != nil {
			return err
		}

		fmt.Println(schema)

		return nil
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.IsSet("capital") {
		cfg.InitialCapital = cmd.Float("capital")
	}

	if cmd.IsSet("commission-bps") {
		cfg.CommissionBps = cmd.Float("commission-bps")
	}

	if cmd.IsSet("slippage-bps") {
		cfg.SlippageBps = cmd.Float("slippage-bps")
	}

	if cmd.IsSet("max-gross") {
		cfg.MaxGrossLeverage = cmd.Float("max-gross")
	}

	eng, err := engine.NewEngine(cfg, appLogger)
	if err != nil {
		return err
	}

	ds, err := datasource.NewDataSource("", appLogger)
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	start := optionalTimestamp(cmd, "start")
	end := optionalTimestamp(cmd, "end")

	panel, err := loadPanel(ds, cmd, start, end)
	if err != nil {
		return err
	}

	var result *types.Result

	if symbol := cmd.String("symbol"); symbol != "" {
		result, err = eng.RunSingleSymbol(panel, symbol)
	} else {
		result, err = eng.RunPortfolio(panel)
	}

	if err != nil {
		return err
	}

	if bmPath := cmd.String("benchmark"); bmPath != "" {
		series, err := ds.LoadBenchmark(bmPath)
		if err != nil {
			return err
		}

		cmp, err := benchmark.NewComparator(cfg.TradingDaysPerYear, appLogger)
		if err != nil {
			return err
		}

		if err := cmp.Compare(result, series); err != nil {
			return err
		}
	}

	out, err := writer.NewWriter(cmd.String("out"), appLogger)
	if err != nil {
		return err
	}

	if tag := cmd.String("tag"); tag != "" {
		out = out.WithTag(tag)
	}

	if err := out.WriteEquityCurve(result.EquityCurve); err != nil {
		return err
	}

	if err := out.WriteDaily(result.Daily, result.Summary.Mode); err != nil {
		return err
	}

	if err := out.WriteDailyParquet(result.Daily); err != nil {
		return err
	}

	if err := out.WriteSummary(result.Summary); err != nil {
		return err
	}

	fmt.Printf("run %s finished: total_return=%.4f ann_return=%.4f sharpe=%.2f max_dd=%.4f\n",
		result.Summary.RunID, result.Summary.TotalReturn, result.Summary.AnnReturn,
		result.Summary.Sharpe, result.Summary.MaxDrawdown)
	fmt.Printf("outputs written to %s\n", out.Dir())

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run a signal panel backtest and write the equity curve, daily decomposition and summary",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "panel",
				Aliases: []string{"p"},
				Usage:   "Path to a signal panel file (CSV or Parquet)",
			},
			&cli.StringFlag{
				Name:  "bars",
				Usage: "Path to an OHLCV bar panel; requires --strategy",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Strategy used to generate signals from --bars (momentum, mean_reversion, rsi)",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"S"},
				Usage:   "Run a single-symbol backtest for this symbol; omit for portfolio mode",
			},
			&cli.StringFlag{
				Name:    "benchmark",
				Aliases: []string{"b"},
				Usage:   "Optional benchmark price file for relative performance",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Optional YAML engine config overriding the defaults",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "backtests",
				Usage:   "Output directory",
			},
			&cli.StringFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Run tag prefixed onto every output file name",
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital, overrides the config value",
			},
			&cli.FloatFlag{
				Name:  "commission-bps",
				Usage: "Commission in basis points of traded notional, overrides the config value",
			},
			&cli.FloatFlag{
				Name:  "slippage-bps",
				Usage: "Slippage in basis points of traded notional, overrides the config value",
			},
			&cli.FloatFlag{
				Name:  "max-gross",
				Usage: "Gross leverage cap in portfolio mode, overrides the config value",
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Inclusive start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "Inclusive end date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the engine config JSON schema and exit",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
