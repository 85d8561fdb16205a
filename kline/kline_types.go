package kline

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Consts here define basic time intervals
const (
	OneMin     = Interval(time.Minute)
	FiveMin    = 5 * OneMin
	FifteenMin = 15 * OneMin
	ThirtyMin  = 30 * OneMin
	OneHour    = Interval(time.Hour)
	FourHour   = 4 * OneHour
	TwelveHour = 12 * OneHour
	OneDay     = 24 * OneHour
	OneWeek    = 7 * OneDay
)

var (
	// ErrInvalidInterval defines when an interval is invalid e.g. zero or negative
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrWholeNumberScaling returns when old interval data cannot neatly fit
	// into the new interval size
	ErrWholeNumberScaling = errors.New("old interval must scale properly into new candle")
	// ErrCanOnlyUpscaleCandles returns when attempting to upscale candles
	// into a smaller interval
	ErrCanOnlyUpscaleCandles = errors.New("interval must be a longer duration to scale")
	// ErrOutOfOrder is returned when a candle closes before the latest candle
	// held in a series
	ErrOutOfOrder = errors.New("candle is out of order")
	// ErrInvalidCandle is returned when a candle's values are inconsistent
	ErrInvalidCandle = errors.New("invalid candle")

	errNoCandles       = errors.New("series has no candles")
	errOutOfRange      = errors.New("position out of range")
	errPositionEmpty   = errors.New("no saved position to restore")
	errNilSeries       = errors.New("series is nil")
	errIntervalTooLong = errors.New("candle timeframe exceeds aggregation interval")
)

// Interval type for kline Interval usage
type Interval time.Duration

// Candle holds historic rate information for one symbol over one timeframe
type Candle struct {
	OpenTime  time.Time       `json:"openTime"`
	CloseTime time.Time       `json:"closeTime"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Series is an ordered, append only sequence of candles that can be read
// concurrently while it grows
type Series struct {
	m       sync.RWMutex
	candles []Candle
}

// Navigator is a cursor over a Series which can seek to any candle. A
// navigator is not safe for concurrent use, each reader should hold its own
type Navigator struct {
	series   *Series
	position int
	saved    []int
}

// Aggregator builds candles of a coarser interval incrementally from candles
// of a finer one
type Aggregator struct {
	interval Interval
	forming  *Candle
	bucket   time.Time
}
