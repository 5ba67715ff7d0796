// Package stooq downloads daily OHLCV bars for GPW instruments from the
// stooq.com CSV export endpoint.
package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/vpow10/GPW-Quant-System/internal/logger"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

const defaultBaseURL = "https://stooq.com"

// Client fetches daily bars from stooq.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a stooq client. An empty baseURL selects the public
// stooq endpoint; tests point it at a local server.
func NewClient(baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// FetchDailyBars downloads the daily history of one symbol, optionally
// bounded by an inclusive date range.
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	sym := strings.ToLower(strings.TrimSpace(symbol))
	if sym == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "symbol must not be empty")
	}

	params := url.Values{}
	params.Set("s", sym)
	params.Set("i", "d")

	if start.IsSome() {
		params.Set("d1", start.Unwrap().Format("20060102"))
	}

	if end.IsSome() {
		params.Set("d2", end.Unwrap().Format("20060102"))
	}

	endpoint := fmt.Sprintf("%s/q/d/l/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s", sym)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed,
			"stooq returned status %d for symbol %s", resp.StatusCode, sym)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to read response for %s", sym)
	}

	bars, err := parseDailyCSV(sym, body)
	if err != nil {
		return nil, err
	}

	c.log.Debug("fetched daily bars", zap.String("symbol", sym), zap.Int("bars", len(bars)))

	return bars, nil
}

// FetchUniverse downloads daily bars for a list of symbols sequentially with
// a progress bar. Symbols that fail are logged and skipped; the error is
// returned only when every symbol fails.
func (c *Client) FetchUniverse(ctx context.Context, symbols []string, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "symbol list must not be empty")
	}

	bar := progressbar.Default(int64(len(symbols)), "fetching")

	var (
		all     []types.Bar
		lastErr error
		failed  int
	)

	for _, sym := range symbols {
		bars, err := c.FetchDailyBars(ctx, sym, start, end)
		if err != nil {
			c.log.Warn("skipping symbol", zap.String("symbol", sym), zap.Error(err))

			lastErr = err
			failed++

			_ = bar.Add(1)

			continue
		}

		all = append(all, bars...)

		_ = bar.Add(1)
	}

	if failed == len(symbols) {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "all symbols failed", lastErr)
	}

	return all, nil
}

// parseDailyCSV parses the stooq daily CSV payload
// (Date,Open,High,Low,Close,Volume) into bars.
func parseDailyCSV(symbol string, body []byte) ([]types.Bar, error) {
	text := strings.TrimSpace(string(body))
	if text == "" || strings.EqualFold(text, "no data") {
		return nil, errors.Newf(errors.ErrCodeNoDataForSymbol, "no data for symbol '%s'", symbol)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse csv for %s", symbol)
	}

	if len(records) < 2 {
		return nil, errors.Newf(errors.ErrCodeNoDataForSymbol, "no data for symbol '%s'", symbol)
	}

	header := records[0]
	if len(header) < 5 || !strings.EqualFold(header[0], "Date") {
		return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed,
			"unexpected csv header for %s: %s", symbol, strings.Join(header, ","))
	}

	bars := make([]types.Bar, 0, len(records)-1)

	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}

		date, err := types.ParseDate(rec[0])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "bad date in row for %s", symbol)
		}

		open, err1 := strconv.ParseFloat(rec[1], 64)
		high, err2 := strconv.ParseFloat(rec[2], 64)
		low, err3 := strconv.ParseFloat(rec[3], 64)
		closePx, err4 := strconv.ParseFloat(rec[4], 64)

		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed,
				"bad price in row %s for %s", rec[0], symbol)
		}

		volume := 0.0
		if len(rec) > 5 && rec[5] != "" && rec[5] != "-" {
			volume, err = strconv.ParseFloat(rec[5], 64)
			if err != nil {
				return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed,
					"bad volume in row %s for %s", rec[0], symbol)
			}
		}

		bars = append(bars, types.Bar{
			Symbol: symbol,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: volume,
		})
	}

	return bars, nil
}
