package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/venuesim/config"
	"github.com/thrasher-corp/venuesim/database/repository/candle"
	"github.com/thrasher-corp/venuesim/simulator"
)

var start = time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)

// writeCandles writes a falling then rising close series
func writeCandles(t *testing.T, dir string) {
	t.Helper()
	var sb strings.Builder
	prices := []int64{100, 98, 96, 94, 92, 90, 95, 100, 105, 110, 115, 120}
	for i, p := range prices {
		fmt.Fprintf(&sb, "%d,1,%d,%d,%d,%d\n", start.Add(time.Duration(i)*time.Minute).Unix(), p, p, p, p)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binance_BTCUSDT.csv"), []byte(sb.String()), 0o600))
}

func testConfig(t *testing.T) (*config.Config, simulator.CandleSource) {
	t.Helper()
	dir := t.TempDir()
	writeCandles(t, dir)
	cfg, err := config.LoadConfig(strings.NewReader(fmt.Sprintf(`{
		"start": "2022-03-01T00:00:00Z",
		"end": "2022-03-01T01:00:00Z",
		"interval": "1m",
		"dataSource": {"type": "csv", "csvDirectory": %q},
		"venues": [{
			"name": "binance",
			"symbols": {"BTCUSDT": {"asset": "BTC", "quote": "USDT"}},
			"feeds": [{"symbol": "BTCUSDT"}],
			"balances": {"USDT": "1000"}
		}],
		"bot": {"enabled": true, "rsiPeriod": 3, "orderSize": "1"}
	}`, dir)), "json")
	require.NoError(t, err)
	src, closer, err := cfg.CandleSource(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, closer()) })
	assert.IsType(t, &candle.CSVSource{}, src)
	return cfg, src
}

func TestExecute(t *testing.T) {
	t.Parallel()
	cfg, src := testConfig(t)
	var ready bool
	r, err := execute(context.Background(), cfg, src, func(sim *simulator.Simulator) error {
		ready = true
		assert.Zero(t, sim.Ticks())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, "USDT", r.Asset)
	assert.Equal(t, int64(12), r.Simulation.Ticks)
	require.NotNil(t, r.Bot)
	assert.Positive(t, r.Bot.Buys)
	assert.Positive(t, r.Bot.Sells)
	assert.Equal(t, int(r.Bot.Buys+r.Bot.Sells), r.Trades)
	assert.True(t, r.Equity.IsPositive())
}

func TestReportAsset(t *testing.T) {
	t.Parallel()
	cfg, _ := testConfig(t)
	a, err := reportAsset(cfg)
	require.NoError(t, err)
	assert.Equal(t, "USDT", a.String())
	cfg.Bot.Quote = "btc"
	a, err = reportAsset(cfg)
	require.NoError(t, err)
	assert.Equal(t, "BTC", a.String())
	_, err = reportAsset(&config.Config{})
	assert.ErrorIs(t, err, errNoReportAsset)
}

func TestExecuteSweep(t *testing.T) {
	t.Parallel()
	cfg, src := testConfig(t)
	space, err := sweepSpace(cfg, []int{2, 3}, []float64{20, 30}, []float64{70, 10})
	require.NoError(t, err)
	require.Equal(t, 8, space.Count())

	parallel, err := executeSweep(context.Background(), cfg, src, space, 4)
	require.NoError(t, err)
	sequential, err := executeSweep(context.Background(), cfg, src, space, 1)
	require.NoError(t, err)
	require.Len(t, parallel, 8)
	for i := range parallel {
		assert.Equal(t, i, parallel[i].Index)
		assert.Equal(t, sequential[i].Settings, parallel[i].Settings)
		assert.Equal(t, sequential[i].Error, parallel[i].Error)
		if parallel[i].Report == nil {
			continue
		}
		assert.True(t, sequential[i].Report.Equity.Equal(parallel[i].Report.Equity), "permutation %d is deterministic", i)
		assert.Equal(t, sequential[i].Report.Trades, parallel[i].Report.Trades)
	}
	// high threshold 10 is below every low threshold
	for i := 4; i < 8; i++ {
		assert.NotEmpty(t, parallel[i].Error, "permutation %d", i)
	}
	for i := 0; i < 4; i++ {
		assert.Empty(t, parallel[i].Error, "permutation %d", i)
	}
	assert.Equal(t, float64(config.DefaultRSIHigh), cfg.Bot.RSIHigh, "base config is untouched")
	assert.True(t, parallel[0].Report.Equity.GreaterThan(decimal.Zero))
}
