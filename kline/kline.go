package kline

import (
	"fmt"
	"strings"
	"time"
)

// String returns numeric string
func (i Interval) String() string {
	return i.Duration().String()
}

// Duration returns interval casted as time.Duration for compatibility
func (i Interval) Duration() time.Duration {
	return time.Duration(i)
}

// Short returns short string version of interval
func (i Interval) Short() string {
	s := i.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// Timeframe returns the duration the candle covers
func (c *Candle) Timeframe() time.Duration {
	return c.CloseTime.Sub(c.OpenTime)
}

// MidTime returns the halfway point of the candle, used as the execution
// time of fills derived from the candle's extremes
func (c *Candle) MidTime() time.Time {
	return c.OpenTime.Add(c.Timeframe() / 2)
}

// Validate ensures the candle's values are internally consistent
func (c *Candle) Validate() error {
	if c.OpenTime.IsZero() || c.CloseTime.IsZero() {
		return fmt.Errorf("%w: unset time", ErrInvalidCandle)
	}
	if !c.CloseTime.After(c.OpenTime) {
		return fmt.Errorf("%w: close time %v is not after open time %v", ErrInvalidCandle, c.CloseTime, c.OpenTime)
	}
	if c.High.LessThan(c.Low) {
		return fmt.Errorf("%w: high %v below low %v", ErrInvalidCandle, c.High, c.Low)
	}
	if c.Open.GreaterThan(c.High) || c.Open.LessThan(c.Low) ||
		c.Close.GreaterThan(c.High) || c.Close.LessThan(c.Low) {
		return fmt.Errorf("%w: open %v close %v outside of high %v low %v", ErrInvalidCandle, c.Open, c.Close, c.High, c.Low)
	}
	if c.Volume.IsNegative() {
		return fmt.Errorf("%w: negative volume %v", ErrInvalidCandle, c.Volume)
	}
	return nil
}

// ValidateScaling checks that candles of the base interval can be combined
// into candles of the target interval
func ValidateScaling(base, target Interval) error {
	if base <= 0 {
		return fmt.Errorf("%w for old candle", ErrInvalidInterval)
	}
	if target <= 0 {
		return fmt.Errorf("%w for new candle", ErrInvalidInterval)
	}
	if target <= base {
		return fmt.Errorf("%w %s is less than or equal to %s",
			ErrCanOnlyUpscaleCandles,
			target,
			base)
	}
	if target%base != 0 {
		return fmt.Errorf("%s %w %s",
			base,
			ErrWholeNumberScaling,
			target)
	}
	return nil
}

// Resample converts a slice of candles into candles of a larger interval.
// Only completed candles are returned, a trailing partial bucket is dropped
func Resample(candles []Candle, interval Interval) ([]Candle, error) {
	agg, err := NewAggregator(interval)
	if err != nil {
		return nil, err
	}
	var resp []Candle
	for i := range candles {
		completed, err := agg.Update(&candles[i])
		if err != nil {
			return nil, err
		}
		resp = append(resp, completed...)
	}
	return resp, nil
}
