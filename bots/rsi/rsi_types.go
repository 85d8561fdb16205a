package rsi

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/simulator/feed"
	"github.com/thrasher-corp/venuesim/simulator/subscription"
	"github.com/thrasher-corp/venuesim/simulator/venue"
)

// Name is the bot name
const Name = "rsi"

// historyLimit bounds the closes fed to the indicator
const historyLimit = 1024

var (
	errInvalidPeriod    = errors.New("rsi period must be greater than one")
	errInvalidThreshold = errors.New("rsi low threshold must be below the high threshold")
	errInvalidSize      = errors.New("order size must be positive")
	errAlreadyStarted   = errors.New("bot already started")
)

// Settings configures the bot
type Settings struct {
	Period    int
	Low       float64
	High      float64
	OrderSize decimal.Decimal
}

// Bot buys OrderSize at market when RSI over candle closes is at or below Low
// and sells its whole free base balance when RSI is at or above High
type Bot struct {
	m        sync.Mutex
	venue    *venue.Venue
	feed     *feed.Feed
	settings Settings
	closes   []float64
	handle   *subscription.Handle
	stats    Stats
}

// Stats counts what the bot has done
type Stats struct {
	Candles  int64           `json:"candles"`
	Buys     int64           `json:"buys"`
	Sells    int64           `json:"sells"`
	Rejected int64           `json:"rejected"`
	Failed   int64           `json:"failed"`
	LastRSI  decimal.Decimal `json:"lastRSI"`
}
