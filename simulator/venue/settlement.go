package venue

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/simulator/ledger"
	"github.com/thrasher-corp/venuesim/simulator/order"
)

// settle stages the balance changes of a full fill. Buys receive the base
// amount and consume the quote reservation, sells receive the quote proceeds
// and consume the base reservation. The fee is always paid from quote funds
func settle(tx *ledger.Tx, o *order.Order, price, fee decimal.Decimal) error {
	notional := o.Amount.Mul(price)
	switch o.Side {
	case order.Buy:
		if err := tx.Credit(o.Pair.Base, o.Amount); err != nil {
			return err
		}
		if err := tx.Spend(o.Pair.Quote, notional); err != nil {
			return err
		}
	case order.Sell:
		if err := tx.Credit(o.Pair.Quote, notional); err != nil {
			return err
		}
		if err := tx.Spend(o.Pair.Base, o.Amount); err != nil {
			return err
		}
	default:
		return order.ErrSideIsInvalid
	}
	return tx.DebitFree(o.Pair.Quote, fee)
}

// recordTrade appends the fill to the trade log and queues its notification
func (v *Venue) recordTrade(o *order.Order, price, fee decimal.Decimal, at time.Time) order.Trade {
	t := order.Trade{
		ID:      v.tradeIDs.Next(),
		Venue:   v.name,
		Symbol:  o.Symbol,
		Side:    o.Side,
		Price:   price,
		Amount:  o.Amount,
		Fee:     fee,
		Time:    at,
		OrderID: o.ID,
	}
	v.trades = append(v.trades, t)
	v.pendingTrades.Push(TradeEvent{Venue: v, Trade: t})
	return t
}
