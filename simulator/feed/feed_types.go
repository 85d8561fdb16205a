package feed

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/simulator/eventqueue"
	"github.com/thrasher-corp/venuesim/simulator/subscription"
)

// VolumeWindow is the period summed by the rolling volume
const VolumeWindow = 24 * time.Hour

var (
	// ErrFeedNotReady is returned when prices are requested before the first
	// candle is ingested
	ErrFeedNotReady = errors.New("feed has no prices yet")

	errUnknownTimeframe = errors.New("timeframe not tracked by feed")
	errNegativeSpread   = errors.New("spread cannot be negative")
	errNilCallback      = errors.New("callback cannot be nil")
)

// Event is raised for every completed candle of a tracked timeframe
type Event struct {
	Feed     *Feed
	Interval kline.Interval
	Candle   kline.Candle
}

// Feed holds the replayed market state of one symbol on one venue
type Feed struct {
	m             sync.RWMutex
	venue         string
	symbol        string
	pair          currency.Pair
	spread        decimal.Decimal
	bid           decimal.Decimal
	ask           decimal.Decimal
	volume24h     decimal.Decimal
	volumeFrom    int
	baseTimeframe kline.Interval
	lastTick      time.Time
	series        *kline.Series
	intervals     []kline.Interval
	derived       map[kline.Interval]*timeframe
	listeners     map[kline.Interval]*subscription.Registry[Event]
	pending       eventqueue.Queue[queued]
}

// queued routes an event to the listeners registered under key, the zero
// key holds base timeframe listeners
type queued struct {
	key   kline.Interval
	event Event
}

type timeframe struct {
	aggregator *kline.Aggregator
	series     *kline.Series
}

// Snapshot is a point in time copy of feed prices
type Snapshot struct {
	Venue         string          `json:"venue"`
	Symbol        string          `json:"symbol"`
	Base          currency.Code   `json:"base"`
	Quote         currency.Code   `json:"quote"`
	Bid           decimal.Decimal `json:"bid"`
	Ask           decimal.Decimal `json:"ask"`
	Spread        decimal.Decimal `json:"spread"`
	Volume24h     decimal.Decimal `json:"volume24h"`
	BaseTimeframe kline.Interval  `json:"baseTimeframe"`
	Time          time.Time       `json:"time"`
}
