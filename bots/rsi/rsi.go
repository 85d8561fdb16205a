// Package rsi is an example bot trading a venue feed on the relative strength
// index of candle closes
package rsi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-ta/indicators"
	"github.com/thrasher-corp/venuesim/common"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator/feed"
	"github.com/thrasher-corp/venuesim/simulator/order"
	"github.com/thrasher-corp/venuesim/simulator/venue"
)

// New returns a bot trading symbol on v, call Start to subscribe it
func New(v *venue.Venue, symbol string, s Settings) (*Bot, error) {
	if v == nil {
		return nil, fmt.Errorf("%w venue", common.ErrNilPointer)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f, err := v.GetFeed(symbol)
	if err != nil {
		return nil, err
	}
	return &Bot{venue: v, feed: f, settings: s}, nil
}

// Validate checks the settings
func (s *Settings) Validate() error {
	if s.Period < 2 {
		return fmt.Errorf("%w: %d", errInvalidPeriod, s.Period)
	}
	if s.Low >= s.High {
		return fmt.Errorf("%w: %v %v", errInvalidThreshold, s.Low, s.High)
	}
	if !s.OrderSize.IsPositive() {
		return fmt.Errorf("%w: %s", errInvalidSize, s.OrderSize)
	}
	return nil
}

// Name returns the bot name
func (b *Bot) Name() string {
	return Name
}

// Start subscribes the bot to the feed's base candles
func (b *Bot) Start() error {
	b.m.Lock()
	defer b.m.Unlock()
	if b.handle != nil {
		return errAlreadyStarted
	}
	h, err := b.feed.SubscribeCandles(0, b.OnCandle)
	if err != nil {
		return err
	}
	b.handle = h
	log.Debugf(log.Bot, "%s bot started on %s %s", Name, b.venue.Name(), b.feed.Symbol())
	return nil
}

// Stop unsubscribes the bot, it can be started again
func (b *Bot) Stop() {
	b.m.Lock()
	defer b.m.Unlock()
	b.handle.Unsubscribe()
	b.handle = nil
}

// Stats returns a copy of the bot counters
func (b *Bot) Stats() Stats {
	b.m.Lock()
	defer b.m.Unlock()
	return b.stats
}

// OnCandle records the close and trades when the RSI crosses a threshold
func (b *Bot) OnCandle(e feed.Event) {
	b.m.Lock()
	defer b.m.Unlock()
	b.stats.Candles++
	b.closes = append(b.closes, e.Candle.Close.InexactFloat64())
	if len(b.closes) > historyLimit {
		b.closes = b.closes[len(b.closes)-historyLimit:]
	}
	if len(b.closes) <= b.settings.Period {
		return
	}
	rsi := indicators.RSI(b.closes, b.settings.Period)
	latest := rsi[len(rsi)-1]
	b.stats.LastRSI = decimal.NewFromFloat(latest)
	switch {
	case latest <= b.settings.Low:
		b.buy()
	case latest >= b.settings.High:
		b.sell()
	}
}

func (b *Bot) buy() {
	o, err := b.venue.MarketOrder(b.feed.Symbol(), order.Buy, b.settings.OrderSize)
	if err != nil {
		b.reject(order.Buy, err)
		return
	}
	b.stats.Buys++
	log.Debugf(log.Bot, "%s bot bought %s %s @ %s RSI %s", Name, o.Amount, o.Symbol, o.Price, b.stats.LastRSI)
}

func (b *Bot) sell() {
	amount := b.venue.FreeBalance(b.feed.Pair().Base)
	minimum, _, err := b.venue.MinTradable(b.feed.Symbol())
	if err != nil || amount.LessThan(minimum) {
		return
	}
	o, err := b.venue.MarketOrder(b.feed.Symbol(), order.Sell, amount)
	if err != nil {
		b.reject(order.Sell, err)
		return
	}
	b.stats.Sells++
	log.Debugf(log.Bot, "%s bot sold %s %s @ %s RSI %s", Name, o.Amount, o.Symbol, o.Price, b.stats.LastRSI)
}

func (b *Bot) reject(side order.Side, err error) {
	if errors.Is(err, venue.ErrInsufficientBalance) {
		b.stats.Rejected++
		return
	}
	b.stats.Failed++
	log.Warnf(log.Bot, "%s bot %s order failed: %v", Name, side.Lower(), err)
}
