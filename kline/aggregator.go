package kline

import (
	"fmt"
	"time"
)

// NewAggregator returns an aggregator building candles of the supplied
// interval. Buckets are aligned to the Unix epoch
func NewAggregator(interval Interval) (*Aggregator, error) {
	if interval < Interval(time.Second) {
		return nil, fmt.Errorf("%w %s", ErrInvalidInterval, interval)
	}
	return &Aggregator{interval: interval}, nil
}

// Interval returns the interval being built
func (a *Aggregator) Interval() Interval {
	return a.interval
}

// Forming returns the incomplete candle being built, if any
func (a *Aggregator) Forming() (Candle, bool) {
	if a.forming == nil {
		return Candle{}, false
	}
	return *a.forming, true
}

// Update folds a finer candle into the forming bucket and returns any candles
// completed by it. A candle landing in a later bucket completes the forming
// candle early, so data gaps never merge unrelated periods
func (a *Aggregator) Update(c *Candle) ([]Candle, error) {
	if c.Timeframe() > a.interval.Duration() {
		return nil, fmt.Errorf("%w: %s exceeds %s", errIntervalTooLong, c.Timeframe(), a.interval)
	}
	bucket := a.bucketStart(c.OpenTime)
	var completed []Candle
	if a.forming != nil {
		switch {
		case bucket.Before(a.bucket):
			return nil, fmt.Errorf("%w: candle opening %v precedes forming bucket %v", ErrOutOfOrder, c.OpenTime, a.bucket)
		case bucket.After(a.bucket):
			completed = append(completed, *a.forming)
			a.forming = nil
		}
	}

	if a.forming == nil {
		a.bucket = bucket
		a.forming = &Candle{
			OpenTime:  bucket,
			CloseTime: bucket.Add(a.interval.Duration()),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
	} else {
		if c.High.GreaterThan(a.forming.High) {
			a.forming.High = c.High
		}
		if c.Low.LessThan(a.forming.Low) {
			a.forming.Low = c.Low
		}
		a.forming.Close = c.Close
		a.forming.Volume = a.forming.Volume.Add(c.Volume)
	}

	if !c.CloseTime.Before(a.forming.CloseTime) {
		completed = append(completed, *a.forming)
		a.forming = nil
	}
	return completed, nil
}

// Reset discards the forming candle
func (a *Aggregator) Reset() {
	a.forming = nil
	a.bucket = time.Time{}
}

func (a *Aggregator) bucketStart(t time.Time) time.Time {
	seconds := int64(a.interval.Duration() / time.Second)
	unix := t.Unix()
	start := unix - unix%seconds
	if unix%seconds < 0 {
		start -= seconds
	}
	return time.Unix(start, 0).UTC()
}
