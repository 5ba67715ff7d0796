package benchmark

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
}

func strategyResult(dates []time.Time, netRets []float64) *types.Result {
	daily := make([]types.DailyRow, len(dates))
	for i := range dates {
		daily[i] = types.DailyRow{
			Date:   dates[i],
			NetRet: netRets[i],
		}
	}

	return &types.Result{
		Daily:   daily,
		Summary: types.Summary{Mode: types.ModePortfolio, NDays: len(dates)},
	}
}

func TestReturnsByDate(t *testing.T) {
	series := []types.PricePoint{
		{Date: day(3), Close: 102.0},
		{Date: day(1), Close: 100.0},
		{Date: day(2), Close: 101.0},
	}

	rets, err := returnsByDate(series)
	require.NoError(t, err)

	// First observation in date order gets a zero return.
	assert.InDelta(t, 0.0, rets[day(1)], 1e-12)
	assert.InDelta(t, 0.01, rets[day(2)], 1e-12)
	assert.InDelta(t, 102.0/101.0-1.0, rets[day(3)], 1e-12)
}

func TestReturnsByDateErrors(t *testing.T) {
	_, err := returnsByDate(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBenchmarkEmpty))

	_, err = returnsByDate([]types.PricePoint{
		{Date: day(1), Close: 100},
		{Date: day(1), Close: 101},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateDate))
}

func TestCompareAttachesColumnsAndStats(t *testing.T) {
	dates := []time.Time{day(1), day(2), day(3), day(4)}
	res := strategyResult(dates, []float64{0.01, -0.005, 0.002, 0.003})

	series := []types.PricePoint{
		{Date: day(1), Close: 100.0},
		{Date: day(2), Close: 101.0},
		{Date: day(3), Close: 100.0},
		{Date: day(4), Close: 102.0},
	}

	cmp, err := NewComparator(252, nil)
	require.NoError(t, err)
	require.NoError(t, cmp.Compare(res, series))

	assert.InDelta(t, 0.0, res.Daily[0].BmRet, 1e-12)
	assert.InDelta(t, 0.01, res.Daily[1].BmRet, 1e-12)
	assert.InDelta(t, -0.005-0.01, res.Daily[1].ActiveRet, 1e-12)

	require.NotNil(t, res.Summary.Benchmark)
	b := res.Summary.Benchmark
	assert.False(t, math.IsNaN(b.BenchAnnReturn))
	assert.False(t, math.IsNaN(b.ActiveAnnReturn))
	assert.Greater(t, b.BenchAnnVol, 0.0)
	assert.Greater(t, b.ActiveAnnVol, 0.0)
}

func TestCompareLeftJoinLeavesGapsAsNaN(t *testing.T) {
	dates := []time.Time{day(1), day(2), day(3)}
	res := strategyResult(dates, []float64{0.01, 0.02, 0.03})

	// Benchmark covers only the first two strategy days.
	series := []types.PricePoint{
		{Date: day(1), Close: 100.0},
		{Date: day(2), Close: 101.0},
	}

	cmp, err := NewComparator(252, nil)
	require.NoError(t, err)
	require.NoError(t, cmp.Compare(res, series))

	assert.False(t, math.IsNaN(res.Daily[0].BmRet))
	assert.False(t, math.IsNaN(res.Daily[1].BmRet))
	assert.True(t, math.IsNaN(res.Daily[2].BmRet))
	assert.True(t, math.IsNaN(res.Daily[2].ActiveRet))
}

func TestCompareNoOverlappingDates(t *testing.T) {
	res := strategyResult([]time.Time{day(1), day(2)}, []float64{0.01, 0.02})

	series := []types.PricePoint{
		{Date: day(10), Close: 100.0},
		{Date: day(11), Close: 101.0},
	}

	cmp, err := NewComparator(252, nil)
	require.NoError(t, err)

	err = cmp.Compare(res, series)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoOverlappingDates))
	assert.Contains(t, err.Error(), "no overlapping dates")
}

func TestCompareEmptyResult(t *testing.T) {
	cmp, err := NewComparator(252, nil)
	require.NoError(t, err)

	err = cmp.Compare(&types.Result{}, []types.PricePoint{{Date: day(1), Close: 100}})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyReturns))
}

func TestNewComparatorRejectsBadAnnualization(t *testing.T) {
	_, err := NewComparator(0, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func TestCompareZeroBenchmarkVol(t *testing.T) {
	dates := []time.Time{day(1), day(2), day(3)}
	res := strategyResult(dates, []float64{0.01, 0.01, 0.01})

	// Flat benchmark price: all returns zero, vol zero, Sharpe NaN.
	series := []types.PricePoint{
		{Date: day(1), Close: 100.0},
		{Date: day(2), Close: 100.0},
		{Date: day(3), Close: 100.0},
	}

	cmp, err := NewComparator(252, nil)
	require.NoError(t, err)
	require.NoError(t, cmp.Compare(res, series))

	b := res.Summary.Benchmark
	require.NotNil(t, b)
	assert.InDelta(t, 0.0, b.BenchAnnReturn, 1e-12)
	assert.InDelta(t, 0.0, b.BenchAnnVol, 1e-12)
	assert.True(t, math.IsNaN(b.BenchSharpe))
}
