// Package feed replays candles for a symbol and exposes its current prices
package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator/subscription"
)

// New returns an empty feed for a venue symbol
func New(venue, symbol string, pair currency.Pair) *Feed {
	return &Feed{
		venue:     venue,
		symbol:    symbol,
		pair:      pair,
		series:    &kline.Series{},
		derived:   make(map[kline.Interval]*timeframe),
		listeners: make(map[kline.Interval]*subscription.Registry[Event]),
	}
}

// Venue returns the name of the venue the feed belongs to
func (f *Feed) Venue() string {
	return f.venue
}

// Symbol returns the venue symbol
func (f *Feed) Symbol() string {
	return f.symbol
}

// Pair returns the base and quote assets
func (f *Feed) Pair() currency.Pair {
	return f.pair
}

// Bid returns the price a market sell executes at
func (f *Feed) Bid() decimal.Decimal {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.bid
}

// Ask returns the price a market buy executes at
func (f *Feed) Ask() decimal.Decimal {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.ask
}

// Prices returns bid and ask, failing when no candle has been ingested
func (f *Feed) Prices() (bid, ask decimal.Decimal, err error) {
	f.m.RLock()
	defer f.m.RUnlock()
	if f.lastTick.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%s %s %w", f.venue, f.symbol, ErrFeedNotReady)
	}
	return f.bid, f.ask, nil
}

// Spread returns the amount added to bid to form ask
func (f *Feed) Spread() decimal.Decimal {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.spread
}

// SetSpread changes the spread and reprices ask
func (f *Feed) SetSpread(spread decimal.Decimal) error {
	if spread.IsNegative() {
		return fmt.Errorf("%w: %s", errNegativeSpread, spread)
	}
	f.m.Lock()
	defer f.m.Unlock()
	f.spread = spread
	if !f.lastTick.IsZero() {
		f.ask = f.bid.Add(spread)
	}
	return nil
}

// Volume24h returns the summed volume of candles closing within the last
// VolumeWindow
func (f *Feed) Volume24h() decimal.Decimal {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.volume24h
}

// BaseTimeframe returns the timeframe of the latest ingested candle
func (f *Feed) BaseTimeframe() kline.Interval {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.baseTimeframe
}

// Time returns the close time of the latest ingested candle
func (f *Feed) Time() time.Time {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.lastTick
}

// Snapshot returns a copy of the feed state
func (f *Feed) Snapshot() Snapshot {
	f.m.RLock()
	defer f.m.RUnlock()
	return Snapshot{
		Venue:         f.venue,
		Symbol:        f.symbol,
		Base:          f.pair.Base,
		Quote:         f.pair.Quote,
		Bid:           f.bid,
		Ask:           f.ask,
		Spread:        f.spread,
		Volume24h:     f.volume24h,
		BaseTimeframe: f.baseTimeframe,
		Time:          f.lastTick,
	}
}

// Series returns the base candle series
func (f *Feed) Series() *kline.Series {
	return f.series
}

// Navigator returns a new cursor over the base candles
func (f *Feed) Navigator() *kline.Navigator {
	return f.series.Navigator()
}

// LastCandle returns the latest base candle
func (f *Feed) LastCandle() (kline.Candle, error) {
	c, err := f.series.Last()
	if err != nil {
		return kline.Candle{}, fmt.Errorf("%s %s %w", f.venue, f.symbol, ErrFeedNotReady)
	}
	return c, nil
}

// Ingest appends the next candle, reprices the feed, updates tracked
// timeframes and queues notifications for RaisePendingEvents
func (f *Feed) Ingest(c *kline.Candle) error {
	f.m.Lock()
	defer f.m.Unlock()
	if err := f.series.Append(c); err != nil {
		return fmt.Errorf("%s %s: %w", f.venue, f.symbol, err)
	}
	first := f.baseTimeframe == 0
	f.baseTimeframe = kline.Interval(c.Timeframe())
	if first {
		f.dropUnscalable()
	}
	f.lastTick = c.CloseTime
	f.rollVolume(c)
	f.bid = c.Close
	f.ask = f.bid.Add(f.spread)
	f.pending.Push(queued{event: Event{Feed: f, Interval: f.baseTimeframe, Candle: *c}})

	for _, interval := range f.intervals {
		tf := f.derived[interval]
		completed, err := tf.aggregator.Update(c)
		if err != nil {
			log.Warnf(log.Feed, "%s %s cannot build %s candles: %v", f.venue, f.symbol, interval.Short(), err)
			continue
		}
		for i := range completed {
			if err := tf.series.Append(&completed[i]); err != nil {
				log.Warnf(log.Feed, "%s %s dropping %s candle: %v", f.venue, f.symbol, interval.Short(), err)
				continue
			}
			f.pending.Push(queued{key: interval, event: Event{Feed: f, Interval: interval, Candle: completed[i]}})
		}
	}
	return nil
}

// rollVolume adds the new candle to the rolling volume and drops every candle
// that closed at or before the start of the window
func (f *Feed) rollVolume(c *kline.Candle) {
	f.volume24h = f.volume24h.Add(c.Volume)
	nav := f.series.Navigator()
	if !nav.SeekNearestBefore(c.CloseTime.Add(-VolumeWindow)) {
		return
	}
	for i := f.volumeFrom; i <= nav.Position(); i++ {
		old, err := f.series.At(i)
		if err != nil {
			break
		}
		f.volume24h = f.volume24h.Sub(old.Volume)
	}
	if nav.Position()+1 > f.volumeFrom {
		f.volumeFrom = nav.Position() + 1
	}
}

// dropUnscalable stops tracking intervals requested before the base
// timeframe was known that cannot be built from it. Listeners of an interval
// equal to the base timeframe receive base candles instead
func (f *Feed) dropUnscalable() {
	kept := f.intervals[:0]
	for _, interval := range f.intervals {
		if interval == f.baseTimeframe {
			delete(f.derived, interval)
			continue
		}
		if err := kline.ValidateScaling(f.baseTimeframe, interval); err != nil {
			log.Warnf(log.Feed, "%s %s no longer tracking %s candles: %v", f.venue, f.symbol, interval.Short(), err)
			delete(f.derived, interval)
			continue
		}
		kept = append(kept, interval)
	}
	clear(f.intervals[len(kept):])
	f.intervals = kept
}

// AddTimeframe starts building candles of a coarser interval. Candles already
// ingested are folded in without raising events
func (f *Feed) AddTimeframe(interval kline.Interval) error {
	f.m.Lock()
	defer f.m.Unlock()
	return f.addTimeframe(interval)
}

func (f *Feed) addTimeframe(interval kline.Interval) error {
	if _, ok := f.derived[interval]; ok {
		return nil
	}
	if f.baseTimeframe > 0 {
		if err := kline.ValidateScaling(f.baseTimeframe, interval); err != nil {
			return fmt.Errorf("%s %s: %w", f.venue, f.symbol, err)
		}
	}
	agg, err := kline.NewAggregator(interval)
	if err != nil {
		return err
	}
	tf := &timeframe{aggregator: agg, series: &kline.Series{}}
	history := f.series.Candles()
	for i := range history {
		completed, err := agg.Update(&history[i])
		if err != nil {
			return fmt.Errorf("%s %s: %w", f.venue, f.symbol, err)
		}
		for j := range completed {
			if err := tf.series.Append(&completed[j]); err != nil {
				return fmt.Errorf("%s %s: %w", f.venue, f.symbol, err)
			}
		}
	}
	f.derived[interval] = tf
	f.intervals = append(f.intervals, interval)
	sort.Slice(f.intervals, func(i, j int) bool { return f.intervals[i] < f.intervals[j] })
	return nil
}

// Timeframes returns the tracked coarser intervals in ascending order
func (f *Feed) Timeframes() []kline.Interval {
	f.m.RLock()
	defer f.m.RUnlock()
	resp := make([]kline.Interval, len(f.intervals))
	copy(resp, f.intervals)
	return resp
}

// Candles returns completed candles of an interval. A zero interval or the
// base timeframe returns the base candles
func (f *Feed) Candles(interval kline.Interval) ([]kline.Candle, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	key := f.key(interval)
	if key == 0 {
		return f.series.Candles(), nil
	}
	tf, ok := f.derived[key]
	if !ok {
		return nil, fmt.Errorf("%s %s %w: %s", f.venue, f.symbol, errUnknownTimeframe, interval)
	}
	return tf.series.Candles(), nil
}

// SubscribeCandles registers fn for completed candles of an interval. A zero
// interval or the base timeframe subscribes to base candles, any other
// interval starts being tracked
func (f *Feed) SubscribeCandles(interval kline.Interval, fn func(Event)) (*subscription.Handle, error) {
	if fn == nil {
		return nil, errNilCallback
	}
	f.m.Lock()
	defer f.m.Unlock()
	key := f.key(interval)
	if key != 0 {
		if err := f.addTimeframe(key); err != nil {
			return nil, err
		}
	}
	reg, ok := f.listeners[key]
	if !ok {
		reg = new(subscription.Registry[Event])
		f.listeners[key] = reg
	}
	return reg.Subscribe(fn), nil
}

func (f *Feed) key(interval kline.Interval) kline.Interval {
	if interval == f.baseTimeframe {
		return 0
	}
	return interval
}

// PendingEvents returns the amount of undelivered notifications
func (f *Feed) PendingEvents() int {
	return f.pending.Len()
}

// RaisePendingEvents delivers queued notifications in the order they were
// raised. It must be called without holding any venue lock
func (f *Feed) RaisePendingEvents() int {
	return f.pending.Flush(func(q queued) {
		f.m.RLock()
		reg := f.listeners[q.key]
		var alias *subscription.Registry[Event]
		if q.key == 0 && f.baseTimeframe != 0 {
			alias = f.listeners[f.baseTimeframe]
		}
		f.m.RUnlock()
		if reg != nil {
			reg.Publish(q.event)
		}
		if alias != nil {
			alias.Publish(q.event)
		}
	})
}
