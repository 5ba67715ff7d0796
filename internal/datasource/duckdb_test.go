package datasource

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

type DataSourceTestSuite struct {
	suite.Suite
	ds  *DataSource
	dir string
}

func TestDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DataSourceTestSuite))
}

func (suite *DataSourceTestSuite) SetupTest() {
	ds, err := NewDataSource("", nil)
	suite.Require().NoError(err)

	suite.ds = ds
	suite.dir = suite.T().TempDir()
}

func (suite *DataSourceTestSuite) TearDownTest() {
	suite.Require().NoError(suite.ds.Close())
}

func (suite *DataSourceTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *DataSourceTestSuite) TestLoadSignalPanel() {
	path := suite.writeFile("panel.csv", `date,symbol,close,ret_1d,signal
2023-01-02,PKO,35.0,,0
2023-01-03,PKO,35.7,0.02,1
2023-01-02,kgh,120.0,,-1
`)

	panel, err := suite.ds.LoadSignalPanel(path, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(panel, 3)

	// Sorted by (symbol, date) with lowercased symbols.
	suite.Equal("kgh", panel[0].Symbol)
	suite.Equal("pko", panel[1].Symbol)
	suite.Equal("pko", panel[2].Symbol)

	suite.True(math.IsNaN(panel[1].Ret1D))
	suite.InDelta(0.02, panel[2].Ret1D, 1e-12)
	suite.InDelta(1.0, panel[2].Signal, 1e-12)
	suite.Equal(2023, panel[0].Date.Year())
}

func (suite *DataSourceTestSuite) TestLoadSignalPanelDateBounds() {
	path := suite.writeFile("panel.csv", `date,symbol,close,ret_1d,signal
2023-01-02,pko,35.0,0.0,0
2023-01-03,pko,35.7,0.02,1
2023-01-04,pko,36.0,0.008,1
`)

	start := optional.Some(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC))
	end := optional.Some(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC))

	panel, err := suite.ds.LoadSignalPanel(path, start, end)
	suite.Require().NoError(err)
	suite.Require().Len(panel, 1)
	suite.Equal(3, panel[0].Date.Day())
}

func (suite *DataSourceTestSuite) TestLoadSignalPanelMissingColumns() {
	path := suite.writeFile("bad.csv", `date,symbol,close
2023-01-02,pko,35.0
`)

	_, err := suite.ds.LoadSignalPanel(path, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingColumn))
	suite.Contains(err.Error(), "ret_1d")
	suite.Contains(err.Error(), "signal")
}

func (suite *DataSourceTestSuite) TestLoadBars() {
	path := suite.writeFile("bars.csv", `date,symbol,open,high,low,close,volume
2023-01-02,PKO,34.5,35.2,34.1,35.0,100000
2023-01-03,PKO,35.0,36.0,34.9,35.7,120000
`)

	bars, err := suite.ds.LoadBars(path, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)

	suite.Equal("pko", bars[0].Symbol)
	suite.InDelta(35.0, bars[0].Close, 1e-12)
	suite.InDelta(120000.0, bars[1].Volume, 1e-12)
}

func (suite *DataSourceTestSuite) TestLoadBenchmarkCanonicalSchema() {
	path := suite.writeFile("bm.csv", `date,close
2023-01-02,1900.5
2023-01-03,1912.0
`)

	series, err := suite.ds.LoadBenchmark(path)
	suite.Require().NoError(err)
	suite.Require().Len(series, 2)
	suite.InDelta(1900.5, series[0].Close, 1e-12)
}

func (suite *DataSourceTestSuite) TestLoadBenchmarkPolishSchema() {
	path := suite.writeFile("wig20.csv", `Data,Otwarcie,Najwyzszy,Najnizszy,Zamkniecie,Wolumen
2023-01-02,1890.0,1905.0,1885.0,1900.5,1000
2023-01-03,1900.0,1915.0,1899.0,1912.0,1100
`)

	series, err := suite.ds.LoadBenchmark(path)
	suite.Require().NoError(err)
	suite.Require().Len(series, 2)
	suite.InDelta(1912.0, series[1].Close, 1e-12)
}

func (suite *DataSourceTestSuite) TestLoadBenchmarkBadSchema() {
	path := suite.writeFile("bad.csv", `timestamp,price
2023-01-02,1900.5
`)

	_, err := suite.ds.LoadBenchmark(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBenchmarkSchema))
	suite.Contains(err.Error(), "timestamp")
}

func (suite *DataSourceTestSuite) TestLoadDaily() {
	path := suite.writeFile("daily.csv", `date,net_ret,gross_leverage
2023-01-03,0.02,1.0
2023-01-02,0.01,0.5
`)

	daily, err := suite.ds.LoadDaily(path)
	suite.Require().NoError(err)
	suite.Require().Len(daily, 2)

	// Sorted by date; missing optional columns come back as NaN.
	suite.Equal(2, daily[0].Date.Day())
	suite.InDelta(0.01, daily[0].NetRet, 1e-12)
	suite.InDelta(0.5, daily[0].GrossLeverage, 1e-12)
	suite.True(math.IsNaN(daily[0].BmRet))
	suite.True(math.IsNaN(daily[0].PortfolioTurnover))
}

func (suite *DataSourceTestSuite) TestLoadDailyMissingNetRet() {
	path := suite.writeFile("daily.csv", `date,ret
2023-01-02,0.01
`)

	_, err := suite.ds.LoadDaily(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingColumn))
	suite.Contains(err.Error(), "net_ret")
}

func (suite *DataSourceTestSuite) TestLoadMissingFile() {
	_, err := suite.ds.LoadBenchmark(filepath.Join(suite.dir, "nope.csv"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))
}

func TestNullToNaN(t *testing.T) {
	assert.True(t, math.IsNaN(nullToNaN(sql.NullFloat64{})))
	require.InDelta(t, 1.5, nullToNaN(sql.NullFloat64{Valid: true, Float64: 1.5}), 1e-12)
}
