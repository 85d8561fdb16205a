// Package venue simulates an exchange account against replayed candles
package venue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/common"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator/feed"
	"github.com/thrasher-corp/venuesim/simulator/ledger"
	"github.com/thrasher-corp/venuesim/simulator/order"
	"github.com/thrasher-corp/venuesim/simulator/subscription"
)

// WithFees sets the maker and taker fee rates
func WithFees(maker, taker decimal.Decimal) Option {
	return func(v *Venue) error {
		if maker.IsNegative() || taker.IsNegative() ||
			maker.GreaterThanOrEqual(decimal.NewFromInt(1)) || taker.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: maker %s taker %s", errInvalidFee, maker, taker)
		}
		v.makerFee = maker
		v.takerFee = taker
		return nil
	}
}

// WithIDSources replaces the process wide order and trade id sources, runs
// executed side by side use this to stay reproducible
func WithIDSources(orders, trades *order.IDSource) Option {
	return func(v *Venue) error {
		if orders == nil || trades == nil {
			return errNilIDSource
		}
		v.orderIDs = orders
		v.tradeIDs = trades
		return nil
	}
}

// New returns a venue trading the symbols of the supplied table
func New(name string, symbols currency.SymbolTable, opts ...Option) (*Venue, error) {
	if name == "" {
		return nil, errNameRequired
	}
	if symbols == nil {
		return nil, fmt.Errorf("%s %w", name, errNilSymbolTable)
	}
	v := &Venue{
		name:     name,
		makerFee: DefaultMakerFee,
		takerFee: DefaultTakerFee,
		symbols:  symbols,
		feeds:    make(map[string]*feed.Feed),
		advanced: make(map[string]struct{}),
		ledger:   ledger.New(),
		book:     order.NewBook(),
		orderIDs: order.ProcessOrderIDs(),
		tradeIDs: order.ProcessTradeIDs(),
	}
	for i := range opts {
		if err := opts[i](v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Name returns the venue name
func (v *Venue) Name() string {
	return v.name
}

// MakerFee returns the fee rate charged on limit fills
func (v *Venue) MakerFee() decimal.Decimal {
	return v.makerFee
}

// TakerFee returns the fee rate charged on market fills
func (v *Venue) TakerFee() decimal.Decimal {
	return v.takerFee
}

// Symbols returns the tradable symbols
func (v *Venue) Symbols() []string {
	return v.symbols.Symbols()
}

// Time returns the close time of the latest ingested candle
func (v *Venue) Time() time.Time {
	v.m.Lock()
	defer v.m.Unlock()
	return v.clock
}

// GetFeed returns the feed of a symbol, creating it along with zero balances
// for its assets on first access
func (v *Venue) GetFeed(symbol string) (*feed.Feed, error) {
	v.m.Lock()
	defer v.m.Unlock()
	return v.getFeed(symbol)
}

func (v *Venue) getFeed(symbol string) (*feed.Feed, error) {
	pair, err := v.symbols.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("%s %w", v.name, err)
	}
	symbol = pair.Symbol()
	if f, ok := v.feeds[symbol]; ok {
		return f, nil
	}
	f := feed.New(v.name, symbol, pair)
	v.feeds[symbol] = f
	v.feedOrder = append(v.feedOrder, symbol)
	v.ledger.Touch(pair.Base)
	v.ledger.Touch(pair.Quote)
	return f, nil
}

// Feeds returns every created feed in creation order
func (v *Venue) Feeds() []*feed.Feed {
	v.m.Lock()
	defer v.m.Unlock()
	resp := make([]*feed.Feed, len(v.feedOrder))
	for i := range v.feedOrder {
		resp[i] = v.feeds[v.feedOrder[i]]
	}
	return resp
}

// AddBalance deposits funds into the free balance of an asset
func (v *Venue) AddBalance(asset currency.Code, amount decimal.Decimal) error {
	v.m.Lock()
	defer v.m.Unlock()
	if err := v.ledger.Credit(asset, amount); err != nil {
		return fmt.Errorf("%s %w", v.name, err)
	}
	log.Debugf(log.Ledger, "%s deposited %s %s", v.name, amount, asset)
	return nil
}

// FreeBalance returns the free funds of an asset
func (v *Venue) FreeBalance(asset currency.Code) decimal.Decimal {
	v.m.Lock()
	defer v.m.Unlock()
	return v.ledger.Balance(asset).Free
}

// Balance returns the free and locked funds of an asset
func (v *Venue) Balance(asset currency.Code) ledger.Balance {
	v.m.Lock()
	defer v.m.Unlock()
	return v.ledger.Balance(asset)
}

// Balances returns every known balance sorted by asset
func (v *Venue) Balances() []ledger.AssetBalance {
	v.m.Lock()
	defer v.m.Unlock()
	return v.ledger.Balances()
}

// MarketOrder fills immediately at ask for buys or bid for sells, charging
// the taker fee
func (v *Venue) MarketOrder(symbol string, side order.Side, amount decimal.Decimal) (order.Order, error) {
	v.m.Lock()
	defer v.m.Unlock()
	f, err := v.getFeed(symbol)
	if err != nil {
		return order.Order{}, err
	}
	bid, ask, err := f.Prices()
	if err != nil {
		return order.Order{}, err
	}
	price := bid
	if side == order.Buy {
		price = ask
	}
	o := &order.Order{
		Venue:  v.name,
		Symbol: f.Symbol(),
		Pair:   f.Pair(),
		Side:   side,
		Type:   order.Market,
		Amount: amount,
		Price:  price,
		Time:   v.now(f),
	}
	if err := o.Validate(); err != nil {
		return order.Order{}, fmt.Errorf("%s %s %w", v.name, o.Symbol, err)
	}
	fee := v.takerFee.Mul(price).Mul(amount)
	asset, locked := o.Reservation()
	if err := v.checkSpendable(o, asset, locked, fee); err != nil {
		return order.Order{}, err
	}
	err = v.ledger.Apply(func(tx *ledger.Tx) error {
		if err := tx.Reserve(asset, locked); err != nil {
			return err
		}
		return settle(tx, o, price, fee)
	})
	if err != nil {
		return order.Order{}, fmt.Errorf("%s %s %w", v.name, o.Symbol, err)
	}
	o.ID = v.orderIDs.Next()
	o.Status = order.Filled
	o.Filled = amount
	trade := v.recordTrade(o, price, fee, o.Time)
	if err := v.book.Record(o); err != nil {
		return order.Order{}, err
	}
	log.Debugf(log.Trade, "%s market %s %s %s @ %s fee %s trade %s",
		v.name, side.Lower(), amount, o.Symbol, price, fee, trade.ID)
	return *o, nil
}

// LimitOrder reserves the funds backing the order and leaves it pending
// until a candle reaches its price
func (v *Venue) LimitOrder(symbol string, side order.Side, amount, price decimal.Decimal) (order.Order, error) {
	v.m.Lock()
	defer v.m.Unlock()
	f, err := v.getFeed(symbol)
	if err != nil {
		return order.Order{}, err
	}
	o := &order.Order{
		Venue:  v.name,
		Symbol: f.Symbol(),
		Pair:   f.Pair(),
		Side:   side,
		Type:   order.Limit,
		Amount: amount,
		Price:  price,
		Time:   v.now(f),
	}
	if err := o.Validate(); err != nil {
		return order.Order{}, fmt.Errorf("%s %s %w", v.name, o.Symbol, err)
	}
	asset, locked := o.Reservation()
	if err := v.checkSpendable(o, asset, locked, v.makerFee.Mul(o.Notional())); err != nil {
		return order.Order{}, err
	}
	if err := v.ledger.Reserve(asset, locked); err != nil {
		return order.Order{}, fmt.Errorf("%s %s %w", v.name, o.Symbol, err)
	}
	o.ID = v.orderIDs.Next()
	if err := v.book.Add(o); err != nil {
		if releaseErr := v.ledger.Release(asset, locked); releaseErr != nil {
			err = common.AppendError(err, releaseErr)
		}
		return order.Order{}, err
	}
	log.Debugf(log.OrderMgr, "%s limit %s %s %s @ %s accepted as %s",
		v.name, side.Lower(), amount, o.Symbol, price, o.ID)
	return *o, nil
}

// CancelOrder releases the reservation of a pending order and closes it.
// Unknown or already closed orders are ignored
func (v *Venue) CancelOrder(id string) error {
	v.m.Lock()
	defer v.m.Unlock()
	o, ok := v.book.Get(id)
	if !ok || !o.IsOpen() {
		log.Debugf(log.OrderMgr, "%s cancel of %s ignored, order not pending", v.name, id)
		return nil
	}
	asset, locked := o.Reservation()
	if err := v.ledger.Release(asset, locked); err != nil {
		return fmt.Errorf("%s order %s %w", v.name, id, err)
	}
	if err := v.book.Close(id, order.Cancelled); err != nil {
		return err
	}
	log.Debugf(log.OrderMgr, "%s order %s cancelled", v.name, id)
	return nil
}

// QueryOrder returns the order held under id. An empty symbol matches any
func (v *Venue) QueryOrder(symbol, id string) (order.Order, bool) {
	v.m.Lock()
	defer v.m.Unlock()
	o, ok := v.book.Get(id)
	if !ok {
		return order.Order{}, false
	}
	if symbol != "" {
		pair, err := v.symbols.Lookup(symbol)
		if err != nil || pair.Symbol() != o.Symbol {
			return order.Order{}, false
		}
	}
	return *o, true
}

// OpenOrders returns pending orders in submission order
func (v *Venue) OpenOrders() []order.Order {
	v.m.Lock()
	defer v.m.Unlock()
	return v.book.Open()
}

// ClosedOrders returns filled and cancelled orders in the order they closed
func (v *Venue) ClosedOrders() []order.Order {
	v.m.Lock()
	defer v.m.Unlock()
	return v.book.Closed()
}

// Trades returns every fill in execution order
func (v *Venue) Trades() []order.Trade {
	v.m.Lock()
	defer v.m.Unlock()
	resp := make([]order.Trade, len(v.trades))
	copy(resp, v.trades)
	return resp
}

// GetLastTrades returns the newest count trades of a symbol with an id after
// fromID, oldest first. A count of zero or less returns every match and an
// empty fromID matches from the first trade
func (v *Venue) GetLastTrades(symbol string, count int, fromID string) ([]order.Trade, error) {
	v.m.Lock()
	defer v.m.Unlock()
	pair, err := v.symbols.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("%s %w", v.name, err)
	}
	symbol = pair.Symbol()
	var resp []order.Trade
	for i := range v.trades {
		if v.trades[i].Symbol != symbol {
			continue
		}
		if fromID != "" && order.Compare(v.trades[i].ID, fromID) <= 0 {
			continue
		}
		resp = append(resp, v.trades[i])
	}
	if count > 0 && len(resp) > count {
		resp = resp[len(resp)-count:]
	}
	return resp, nil
}

// MinTradable returns the smallest tradable amount and its step
func (v *Venue) MinTradable(symbol string) (minimum, step decimal.Decimal, err error) {
	if _, err := v.symbols.Lookup(symbol); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%s %w", v.name, err)
	}
	return minTradable, minTradable, nil
}

// SymbolPrecision returns the price precision of a symbol
func (v *Venue) SymbolPrecision(symbol string) (decimal.Decimal, error) {
	if _, err := v.symbols.Lookup(symbol); err != nil {
		return decimal.Zero, fmt.Errorf("%s %w", v.name, err)
	}
	return symbolPrecision, nil
}

// MinNotional returns the smallest order value accepted in an asset, the
// simulator places no floor
func (v *Venue) MinNotional(currency.Code) decimal.Decimal {
	return decimal.Zero
}

// SubscribeTrades registers fn for fills raised by RaisePendingEvents
func (v *Venue) SubscribeTrades(fn func(TradeEvent)) *subscription.Handle {
	return v.tradeListeners.Subscribe(fn)
}

// IngestCandle advances the feed of a symbol and the venue clock
func (v *Venue) IngestCandle(symbol string, c *kline.Candle) error {
	if c == nil {
		return errNilCandle
	}
	v.m.Lock()
	defer v.m.Unlock()
	f, err := v.getFeed(symbol)
	if err != nil {
		return err
	}
	if err := f.Ingest(c); err != nil {
		return err
	}
	if c.CloseTime.After(v.clock) {
		v.clock = c.CloseTime
	}
	v.advanced[f.Symbol()] = struct{}{}
	return nil
}

// RaisePendingEvents delivers queued trades then each feed's queued candles.
// Listeners may call back into the venue
func (v *Venue) RaisePendingEvents() int {
	delivered := v.pendingTrades.Flush(v.tradeListeners.Publish)
	feeds := v.Feeds()
	for i := range feeds {
		delivered += feeds[i].RaisePendingEvents()
	}
	return delivered
}

// feesOwed sums the maker fees pending limit buys quoted in asset will take
// from its free balance when they fill
func (v *Venue) feesOwed(asset currency.Code) decimal.Decimal {
	owed := decimal.Zero
	v.book.EachPending(func(o *order.Order) {
		if o.Side == order.Buy && o.Pair.Quote.Equal(asset) {
			owed = owed.Add(v.makerFee.Mul(o.Notional()))
		}
	})
	return owed
}

// checkSpendable ensures free funds, less the fees already owed by pending
// limit buys, cover the reservation and for buys the fee paid at fill. Sell
// fees come out of the proceeds
func (v *Venue) checkSpendable(o *order.Order, asset currency.Code, locked, fee decimal.Decimal) error {
	need := locked
	if o.Side == order.Buy {
		need = need.Add(fee)
	}
	free := v.ledger.Balance(asset).Free
	owed := v.feesOwed(asset)
	if free.Sub(owed).LessThan(need) {
		return fmt.Errorf("%s %w: %s free %s less owed fees %s cannot cover %s",
			v.name, ErrInsufficientBalance, asset, free, owed, need)
	}
	return nil
}

func (v *Venue) now(f *feed.Feed) time.Time {
	if !v.clock.IsZero() {
		return v.clock
	}
	return f.Time()
}
