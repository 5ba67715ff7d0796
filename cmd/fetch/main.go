package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/vpow10/GPW-Quant-System/internal/gather/stooq"
	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/internal/version"
	"github.com/vpow10/GPW-Quant-System/internal/writer"
)

func optionalTimestamp(cmd *cli.Command, name string) optional.Option[time.Time] {
	t := cmd.Timestamp(name)
	if t.IsZero() {
		return optional.None[time.Time]()
	}

	return optional.Some(t)
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	var symbols []string

	for _, s := range strings.Split(cmd.String("symbols"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	if len(symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	client := stooq.NewClient("", appLogger)

	bars, err := client.FetchUniverse(ctx, symbols, optionalTimestamp(cmd, "start"), optionalTimestamp(cmd, "end"))
	if err != nil {
		return err
	}

	outDir := cmd.String("outdir")

	// One file per symbol, plus the combined bar panel the backtest reads.
	bySymbol := make(map[string][]types.Bar)
	for _, bar := range bars {
		bySymbol[bar.Symbol] = append(bySymbol[bar.Symbol], bar)
	}

	for symbol, symbolBars := range bySymbol {
		if err := writer.WriteBarsCSV(filepath.Join(outDir, symbol+".csv"), symbolBars); err != nil {
			return err
		}
	}

	if err := writer.WriteBarsCSV(filepath.Join(outDir, "bars.csv"), bars); err != nil {
		return err
	}

	fmt.Printf("fetched %d bars for %d symbols into %s\n", len(bars), len(bySymbol), outDir)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "fetch",
		Usage:   "Download daily OHLCV bars from stooq and write them as a bar panel",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbols",
				Aliases:  []string{"s"},
				Usage:    "Comma-separated list of stooq symbols, e.g. pko,pkn,kgh",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "outdir",
				Aliases: []string{"o"},
				Value:   "data",
				Usage:   "Output directory for per-symbol and combined bar CSVs",
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
		},
		Action: fetchAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
