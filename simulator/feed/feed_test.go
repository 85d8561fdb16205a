package feed

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/kline"
)

var (
	start   = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	btcusdt = currency.NewPairFromStrings("BTC", "USDT")
)

func candleAt(open time.Time, tf time.Duration, closePrice, volume int64) *kline.Candle {
	return &kline.Candle{
		OpenTime:  open,
		CloseTime: open.Add(tf),
		Open:      decimal.NewFromInt(closePrice),
		High:      decimal.NewFromInt(closePrice + 10),
		Low:       decimal.NewFromInt(closePrice - 10),
		Close:     decimal.NewFromInt(closePrice),
		Volume:    decimal.NewFromInt(volume),
	}
}

func TestIngestPrices(t *testing.T) {
	t.Parallel()
	f := New("sim", "BTCUSDT", btcusdt)
	_, _, err := f.Prices()
	assert.ErrorIs(t, err, ErrFeedNotReady)
	_, err = f.LastCandle()
	assert.ErrorIs(t, err, ErrFeedNotReady)

	require.NoError(t, f.SetSpread(decimal.NewFromInt(5)))
	assert.ErrorIs(t, f.SetSpread(decimal.NewFromInt(-1)), errNegativeSpread)
	require.NoError(t, f.Ingest(candleAt(start, time.Minute, 100, 1)))

	bid, ask, err := f.Prices()
	require.NoError(t, err)
	assert.True(t, bid.Equal(decimal.NewFromInt(100)))
	assert.True(t, ask.Equal(decimal.NewFromInt(105)))
	assert.Equal(t, kline.OneMin, f.BaseTimeframe())
	assert.Equal(t, start.Add(time.Minute), f.Time())

	require.NoError(t, f.SetSpread(decimal.NewFromInt(1)))
	assert.True(t, f.Ask().Equal(decimal.NewFromInt(101)))
	assert.True(t, f.Spread().Equal(decimal.NewFromInt(1)))

	err = f.Ingest(candleAt(start.Add(-time.Hour), time.Minute, 1, 1))
	assert.ErrorIs(t, err, kline.ErrOutOfOrder)
	assert.True(t, f.Bid().Equal(decimal.NewFromInt(100)), "rejected candle must not reprice")

	s := f.Snapshot()
	assert.Equal(t, "sim", s.Venue)
	assert.Equal(t, btcusdt.Base, s.Base)
	assert.True(t, s.Ask.Equal(decimal.NewFromInt(101)))
	assert.Equal(t, "sim", f.Venue())
	assert.Equal(t, "BTCUSDT", f.Symbol())
	assert.Equal(t, btcusdt, f.Pair())
}

func TestVolume24h(t *testing.T) {
	t.Parallel()
	f := New("sim", "BTCUSDT", btcusdt)
	for i := 0; i < 24; i++ {
		require.NoError(t, f.Ingest(candleAt(start.Add(time.Duration(i)*time.Hour), time.Hour, 100, 2)))
	}
	assert.True(t, f.Volume24h().Equal(decimal.NewFromInt(48)))

	require.NoError(t, f.Ingest(candleAt(start.Add(24*time.Hour), time.Hour, 100, 5)))
	assert.True(t, f.Volume24h().Equal(decimal.NewFromInt(51)), "first candle leaves the window")

	// a gap pushes every earlier candle outside of the window
	require.NoError(t, f.Ingest(candleAt(start.Add(72*time.Hour), time.Hour, 100, 7)))
	assert.True(t, f.Volume24h().Equal(decimal.NewFromInt(7)))
}

func TestSubscribeCandles(t *testing.T) {
	t.Parallel()
	f := New("sim", "BTCUSDT", btcusdt)
	_, err := f.SubscribeCandles(0, nil)
	assert.ErrorIs(t, err, errNilCallback)

	var base, fives []Event
	h, err := f.SubscribeCandles(0, func(e Event) { base = append(base, e) })
	require.NoError(t, err)
	_, err = f.SubscribeCandles(kline.FiveMin, func(e Event) { fives = append(fives, e) })
	require.NoError(t, err)
	assert.Equal(t, []kline.Interval{kline.FiveMin}, f.Timeframes())

	for i := 0; i < 5; i++ {
		require.NoError(t, f.Ingest(candleAt(start.Add(time.Duration(i)*time.Minute), time.Minute, int64(100+i), 1)))
	}
	assert.Empty(t, base, "notifications are deferred until raised")
	assert.Equal(t, 6, f.PendingEvents())
	assert.Equal(t, 6, f.RaisePendingEvents())
	assert.Zero(t, f.RaisePendingEvents())

	require.Len(t, base, 5)
	assert.Equal(t, kline.OneMin, base[0].Interval)
	assert.Same(t, f, base[0].Feed)
	require.Len(t, fives, 1)
	assert.True(t, fives[0].Candle.Close.Equal(decimal.NewFromInt(104)))
	assert.True(t, fives[0].Candle.Volume.Equal(decimal.NewFromInt(5)))

	fiveMin, err := f.Candles(kline.FiveMin)
	require.NoError(t, err)
	assert.Len(t, fiveMin, 1)
	oneMin, err := f.Candles(kline.OneMin)
	require.NoError(t, err)
	assert.Len(t, oneMin, 5)
	_, err = f.Candles(kline.OneHour)
	assert.ErrorIs(t, err, errUnknownTimeframe)

	h.Unsubscribe()
	require.NoError(t, f.Ingest(candleAt(start.Add(5*time.Minute), time.Minute, 1, 1)))
	f.RaisePendingEvents()
	assert.Len(t, base, 5, "dropped listener is skipped")
}

func TestAddTimeframeBackfill(t *testing.T) {
	t.Parallel()
	f := New("sim", "BTCUSDT", btcusdt)
	for i := 0; i < 31; i++ {
		require.NoError(t, f.Ingest(candleAt(start.Add(time.Duration(i)*time.Minute), time.Minute, 100, 1)))
	}
	f.RaisePendingEvents()
	require.NoError(t, f.AddTimeframe(kline.FifteenMin))
	require.NoError(t, f.AddTimeframe(kline.FifteenMin))
	candles, err := f.Candles(kline.FifteenMin)
	require.NoError(t, err)
	assert.Len(t, candles, 2)
	assert.Zero(t, f.PendingEvents(), "backfill raises no events")

	assert.ErrorIs(t, f.AddTimeframe(kline.Interval(90*time.Second)), kline.ErrWholeNumberScaling)
	assert.ErrorIs(t, f.AddTimeframe(kline.OneMin), kline.ErrCanOnlyUpscaleCandles)
}

func TestNavigator(t *testing.T) {
	t.Parallel()
	f := New("sim", "BTCUSDT", btcusdt)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.Ingest(candleAt(start.Add(time.Duration(i)*time.Minute), time.Minute, int64(i+1), 1)))
	}
	n := f.Navigator()
	require.NoError(t, n.SeekLast())
	c, err := n.Current()
	require.NoError(t, err)
	assert.True(t, c.Close.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 3, f.Series().Len())
}

func TestTimeframesCheckedOnFirstCandle(t *testing.T) {
	t.Parallel()
	f := New("sim", "BTCUSDT", btcusdt)
	var fines, same, fives []Event
	_, err := f.SubscribeCandles(kline.Interval(30*time.Second), func(e Event) { fines = append(fines, e) })
	require.NoError(t, err, "intervals cannot be checked before the base timeframe is known")
	_, err = f.SubscribeCandles(kline.OneMin, func(e Event) { same = append(same, e) })
	require.NoError(t, err)
	_, err = f.SubscribeCandles(kline.FiveMin, func(e Event) { fives = append(fives, e) })
	require.NoError(t, err)
	assert.Len(t, f.Timeframes(), 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, f.Ingest(candleAt(start.Add(time.Duration(i)*time.Minute), time.Minute, 100, 1)))
	}
	assert.Equal(t, []kline.Interval{kline.FiveMin}, f.Timeframes(), "finer and base intervals stop being tracked")
	assert.Equal(t, 6, f.RaisePendingEvents())
	assert.Empty(t, fines)
	assert.Len(t, same, 5, "base interval listeners receive base candles")
	assert.Len(t, fives, 1)

	_, err = f.Candles(kline.Interval(30 * time.Second))
	assert.ErrorIs(t, err, errUnknownTimeframe)
}
