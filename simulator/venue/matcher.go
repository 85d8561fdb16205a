package venue

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/common"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator/ledger"
	"github.com/thrasher-corp/venuesim/simulator/order"
)

// LimitFills reports whether a candle reaches a limit order. Buys fill when
// low plus spread is at or below the price, sells when high is at or above it
func LimitFills(o *order.Order, c *kline.Candle, spread decimal.Decimal) bool {
	if o.Type != order.Limit {
		return false
	}
	switch o.Side {
	case order.Buy:
		return c.Low.Add(spread).LessThanOrEqual(o.Price)
	case order.Sell:
		return c.High.GreaterThanOrEqual(o.Price)
	}
	return false
}

// ResolveOrders matches pending limit orders of every symbol ingested since
// the previous call against its latest candle. Orders are checked in
// submission order and fill in full at their own price with the maker fee.
// An order whose settlement fails stays pending and its error is returned
// once every other order has been checked
func (v *Venue) ResolveOrders() error {
	v.m.Lock()
	defer v.m.Unlock()
	var errs error
	for _, symbol := range v.feedOrder {
		if _, ok := v.advanced[symbol]; !ok {
			continue
		}
		f := v.feeds[symbol]
		c, err := f.LastCandle()
		if err != nil {
			continue
		}
		spread := f.Spread()
		for _, o := range v.book.PendingFor(symbol) {
			if !LimitFills(o, &c, spread) {
				continue
			}
			if err := v.fillLimit(o, &c); err != nil {
				errs = common.AppendError(errs, err)
			}
		}
	}
	clear(v.advanced)
	return errs
}

func (v *Venue) fillLimit(o *order.Order, c *kline.Candle) error {
	fee := v.makerFee.Mul(o.Price).Mul(o.Amount)
	err := v.ledger.Apply(func(tx *ledger.Tx) error {
		return settle(tx, o, o.Price, fee)
	})
	if err != nil {
		return fmt.Errorf("%s order %s %w", v.name, o.ID, err)
	}
	if err := v.book.Close(o.ID, order.Filled); err != nil {
		return err
	}
	o.Filled = o.Amount
	t := v.recordTrade(o, o.Price, fee, c.MidTime())
	log.Debugf(log.Trade, "%s limit %s %s %s @ %s fee %s filled by candle %v trade %s",
		v.name, o.Side.Lower(), o.Amount, o.Symbol, o.Price, fee, c.CloseTime, t.ID)
	return nil
}
