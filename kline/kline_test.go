package kline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func minuteCandle(i int, o, h, l, c, v float64) Candle {
	open := start.Add(time.Duration(i) * time.Minute)
	return Candle{
		OpenTime:  open,
		CloseTime: open.Add(time.Minute),
		Open:      decimal.NewFromFloat(o),
		High:      decimal.NewFromFloat(h),
		Low:       decimal.NewFromFloat(l),
		Close:     decimal.NewFromFloat(c),
		Volume:    decimal.NewFromFloat(v),
	}
}

func TestIntervalShort(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		interval Interval
		expected string
	}{
		{OneMin, "1m"},
		{FifteenMin, "15m"},
		{OneHour, "1h"},
		{OneDay, "24h"},
		{Interval(90 * time.Second), "1m30s"},
	} {
		assert.Equal(t, tt.expected, tt.interval.Short())
	}
}

func TestCandleValidate(t *testing.T) {
	t.Parallel()
	c := minuteCandle(0, 10, 12, 9, 11, 1)
	require.NoError(t, c.Validate())
	assert.Equal(t, time.Minute, c.Timeframe())
	assert.Equal(t, start.Add(30*time.Second), c.MidTime())

	bad := c
	bad.High = decimal.NewFromInt(8)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCandle)

	bad = c
	bad.CloseTime = bad.OpenTime
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCandle)

	bad = c
	bad.Volume = decimal.NewFromInt(-1)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCandle)

	bad = c
	bad.Close = decimal.NewFromInt(20)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCandle)

	assert.ErrorIs(t, (&Candle{}).Validate(), ErrInvalidCandle)
}

func TestValidateScaling(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateScaling(OneMin, FiveMin))
	assert.ErrorIs(t, ValidateScaling(0, FiveMin), ErrInvalidInterval)
	assert.ErrorIs(t, ValidateScaling(OneMin, 0), ErrInvalidInterval)
	assert.ErrorIs(t, ValidateScaling(FiveMin, OneMin), ErrCanOnlyUpscaleCandles)
	assert.ErrorIs(t, ValidateScaling(FiveMin, FiveMin), ErrCanOnlyUpscaleCandles)
	assert.ErrorIs(t, ValidateScaling(Interval(2*time.Minute), FiveMin), ErrWholeNumberScaling)
}

func TestSeries(t *testing.T) {
	t.Parallel()
	s, err := NewSeries(minuteCandle(0, 1, 2, 1, 2, 1), minuteCandle(1, 2, 3, 2, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	last, err := s.Last()
	require.NoError(t, err)
	assert.True(t, last.Close.Equal(decimal.NewFromInt(3)))

	_, err = s.At(2)
	assert.ErrorIs(t, err, errOutOfRange)

	older := minuteCandle(-1, 1, 1, 1, 1, 1)
	assert.ErrorIs(t, s.Append(&older), ErrOutOfOrder)
	assert.Equal(t, 2, s.Len(), "rejected candle must not be stored")

	_, err = (&Series{}).Last()
	assert.ErrorIs(t, err, errNoCandles)

	var nilSeries *Series
	assert.ErrorIs(t, nilSeries.Append(&older), errNilSeries)
}

func TestSeriesNearestBefore(t *testing.T) {
	t.Parallel()
	s, err := NewSeries(minuteCandle(0, 1, 1, 1, 1, 1), minuteCandle(1, 1, 1, 1, 1, 1), minuteCandle(2, 1, 1, 1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, -1, s.NearestBefore(start))
	assert.Equal(t, 0, s.NearestBefore(start.Add(time.Minute)))
	assert.Equal(t, 0, s.NearestBefore(start.Add(90*time.Second)))
	assert.Equal(t, 2, s.NearestBefore(start.Add(time.Hour)))

	r := s.Range(start.Add(time.Minute), start.Add(3*time.Minute))
	require.Len(t, r, 2)
	assert.Equal(t, start.Add(2*time.Minute), r[0].CloseTime)
	assert.Nil(t, s.Range(start.Add(time.Hour), start.Add(2*time.Hour)))
}

func TestNavigator(t *testing.T) {
	t.Parallel()
	s, err := NewSeries(minuteCandle(0, 1, 1, 1, 1, 1), minuteCandle(1, 2, 2, 2, 2, 1), minuteCandle(2, 3, 3, 3, 3, 1))
	require.NoError(t, err)
	n := s.Navigator()
	assert.Equal(t, -1, n.Position())
	_, err = n.Current()
	assert.ErrorIs(t, err, errOutOfRange)

	for i := 0; n.HasNext(); i++ {
		c, err := n.Next()
		require.NoError(t, err)
		assert.True(t, c.Close.Equal(decimal.NewFromInt(int64(i+1))))
	}
	_, err = n.Next()
	assert.ErrorIs(t, err, errOutOfRange)
	assert.Equal(t, 2, n.Position(), "failed next must not move the cursor")

	n.PositionPush()
	require.NoError(t, n.SeekFirst())
	tick, err := n.Tick()
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), tick)
	_, err = n.Previous()
	assert.ErrorIs(t, err, errOutOfRange)
	require.NoError(t, n.PositionPop())
	assert.Equal(t, 2, n.Position())
	assert.ErrorIs(t, n.PositionPop(), errPositionEmpty)

	c, err := n.Previous()
	require.NoError(t, err)
	assert.True(t, c.Close.Equal(decimal.NewFromInt(2)))

	assert.True(t, n.SeekNearestBefore(start.Add(150*time.Second)))
	assert.Equal(t, 1, n.Position())
	assert.False(t, n.SeekNearestBefore(start))
	assert.Equal(t, -1, n.Position())
	assert.ErrorIs(t, n.Seek(3), errOutOfRange)
	require.NoError(t, n.SeekLast())
	assert.Equal(t, 2, n.Position())
}

func TestAggregator(t *testing.T) {
	t.Parallel()
	_, err := NewAggregator(0)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	a, err := NewAggregator(FiveMin)
	require.NoError(t, err)
	assert.Equal(t, FiveMin, a.Interval())

	var completed []Candle
	for i := 0; i < 5; i++ {
		c := minuteCandle(i, float64(10+i), float64(20+i), float64(5-i), float64(11+i), 2)
		resp, err := a.Update(&c)
		require.NoError(t, err)
		completed = append(completed, resp...)
	}
	require.Len(t, completed, 1)
	got := completed[0]
	assert.Equal(t, start, got.OpenTime)
	assert.Equal(t, start.Add(5*time.Minute), got.CloseTime)
	assert.True(t, got.Open.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.High.Equal(decimal.NewFromInt(24)))
	assert.True(t, got.Low.Equal(decimal.NewFromInt(1)))
	assert.True(t, got.Close.Equal(decimal.NewFromInt(15)))
	assert.True(t, got.Volume.Equal(decimal.NewFromInt(10)))
	_, forming := a.Forming()
	assert.False(t, forming)

	c := minuteCandle(5, 1, 1, 1, 1, 1)
	resp, err := a.Update(&c)
	require.NoError(t, err)
	assert.Empty(t, resp)
	f, ok := a.Forming()
	require.True(t, ok)
	assert.Equal(t, start.Add(5*time.Minute), f.OpenTime)

	// a gap lands in the next bucket and completes the partial candle
	c = minuteCandle(12, 1, 1, 1, 1, 1)
	resp, err = a.Update(&c)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, start.Add(5*time.Minute), resp[0].OpenTime)

	c = minuteCandle(3, 1, 1, 1, 1, 1)
	_, err = a.Update(&c)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	hour := Candle{OpenTime: start, CloseTime: start.Add(time.Hour)}
	_, err = a.Update(&hour)
	assert.ErrorIs(t, err, errIntervalTooLong)

	a.Reset()
	_, ok = a.Forming()
	assert.False(t, ok)
}

func TestAggregatorEpochAlignment(t *testing.T) {
	t.Parallel()
	a, err := NewAggregator(OneHour)
	require.NoError(t, err)
	off := Candle{
		OpenTime:  start.Add(37 * time.Minute),
		CloseTime: start.Add(38 * time.Minute),
		Open:      decimal.NewFromInt(1),
		High:      decimal.NewFromInt(1),
		Low:       decimal.NewFromInt(1),
		Close:     decimal.NewFromInt(1),
	}
	_, err = a.Update(&off)
	require.NoError(t, err)
	f, ok := a.Forming()
	require.True(t, ok)
	assert.Equal(t, start, f.OpenTime)
	assert.Equal(t, start.Add(time.Hour), f.CloseTime)
}

func TestResample(t *testing.T) {
	t.Parallel()
	candles := make([]Candle, 0, 11)
	for i := 0; i < 11; i++ {
		candles = append(candles, minuteCandle(i, 1, 2, 1, 1, 1))
	}
	resp, err := Resample(candles, FiveMin)
	require.NoError(t, err)
	require.Len(t, resp, 2, "trailing partial bucket is dropped")
	assert.Equal(t, start.Add(10*time.Minute), resp[1].CloseTime)

	_, err = Resample(candles, 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
