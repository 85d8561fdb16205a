// Package order holds the order lifecycle types shared by the venue
package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
)

var (
	processOrderIDs = new(IDSource)
	processTradeIDs = new(IDSource)
)

// String implements the stringer interface
func (s Side) String() string {
	return string(s)
}

// Lower returns the side lower case
func (s Side) Lower() string {
	return strings.ToLower(string(s))
}

// String implements the stringer interface
func (t Type) String() string {
	return string(t)
}

// String implements the stringer interface
func (s Status) String() string {
	return string(s)
}

// StringToOrderSide for converting case insensitive order side
func StringToOrderSide(side string) (Side, error) {
	switch {
	case strings.EqualFold(side, Buy.String()):
		return Buy, nil
	case strings.EqualFold(side, Sell.String()):
		return Sell, nil
	default:
		return "", fmt.Errorf("'%s' %w", side, ErrSideIsInvalid)
	}
}

// ProcessOrderIDs returns the order identifier source shared by every venue
// in the process that was not given one of its own
func ProcessOrderIDs() *IDSource {
	return processOrderIDs
}

// ProcessTradeIDs returns the process wide trade identifier source
func ProcessTradeIDs() *IDSource {
	return processTradeIDs
}

// Next returns the next identifier
func (s *IDSource) Next() string {
	return strconv.FormatUint(s.last.Add(1), 10)
}

// Compare orders two identifiers handed out by an IDSource. Identifiers that
// are not numeric compare lexically after numeric ones
func Compare(a, b string) int {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// Validate checks the order fields fixed at submission, the id is assigned
// once the order is accepted
func (o *Order) Validate() error {
	if o.Pair.IsEmpty() {
		return fmt.Errorf("%w: %s", errPairRequired, o.Symbol)
	}
	if o.Side != Buy && o.Side != Sell {
		return fmt.Errorf("%v %w", o.Side, ErrSideIsInvalid)
	}
	if o.Type != Market && o.Type != Limit {
		return fmt.Errorf("%v %w", o.Type, ErrTypeIsInvalid)
	}
	if !o.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrAmountIsInvalid, o.Amount)
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("%w: %s", ErrPriceIsInvalid, o.Price)
	}
	return nil
}

// Reservation returns the asset and amount locked to back the order. Sells
// lock the base amount, buys lock amount multiplied by price in the quote
func (o *Order) Reservation() (currency.Code, decimal.Decimal) {
	if o.Side == Sell {
		return o.Pair.Base, o.Amount
	}
	return o.Pair.Quote, o.Amount.Mul(o.Price)
}

// Notional returns amount multiplied by price
func (o *Order) Notional() decimal.Decimal {
	return o.Amount.Mul(o.Price)
}

// IsOpen returns whether the order is still pending
func (o *Order) IsOpen() bool {
	return o.Status == Pending
}

// NewBook returns an empty order book
func NewBook() *Book {
	return &Book{byID: make(map[string]*Order)}
}

// Add inserts a pending order at the back of the submission queue
func (b *Book) Add(o *Order) error {
	if o == nil {
		return fmt.Errorf("%w: order", errIDRequired)
	}
	if o.ID == "" {
		return errIDRequired
	}
	if _, ok := b.byID[o.ID]; ok {
		return fmt.Errorf("%w: %s", errDuplicateOrder, o.ID)
	}
	o.Status = Pending
	b.pending = append(b.pending, o)
	b.byID[o.ID] = o
	return nil
}

// Record stores an order that completed at submission straight into the
// closed set
func (b *Book) Record(o *Order) error {
	if o == nil || o.ID == "" {
		return errIDRequired
	}
	if _, ok := b.byID[o.ID]; ok {
		return fmt.Errorf("%w: %s", errDuplicateOrder, o.ID)
	}
	b.closed = append(b.closed, o)
	b.byID[o.ID] = o
	return nil
}

// Get returns the order held under id whether closed or pending
func (b *Book) Get(id string) (*Order, bool) {
	o, ok := b.byID[id]
	return o, ok
}

// PendingFor returns the pending orders for a symbol in submission order.
// The returned slice is a snapshot, closing orders does not alter it
func (b *Book) PendingFor(symbol string) []*Order {
	var resp []*Order
	for i := range b.pending {
		if b.pending[i].Symbol == symbol {
			resp = append(resp, b.pending[i])
		}
	}
	return resp
}

// EachPending calls fn for every pending order in submission order
func (b *Book) EachPending(fn func(*Order)) {
	for i := range b.pending {
		fn(b.pending[i])
	}
}

// Close moves a pending order into the closed set with the supplied status
func (b *Book) Close(id string, status Status) error {
	if status == Pending {
		return fmt.Errorf("%w: cannot close as %s", errNotPending, status)
	}
	for i := range b.pending {
		if b.pending[i].ID != id {
			continue
		}
		o := b.pending[i]
		b.pending = append(b.pending[:i:i], b.pending[i+1:]...)
		o.Status = status
		b.closed = append(b.closed, o)
		return nil
	}
	if _, ok := b.byID[id]; ok {
		return fmt.Errorf("%w: %s", errNotPending, id)
	}
	return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// Open returns copies of pending orders in submission order
func (b *Book) Open() []Order {
	return copyOrders(b.pending)
}

// Closed returns copies of closed orders in the order they closed
func (b *Book) Closed() []Order {
	return copyOrders(b.closed)
}

func copyOrders(orders []*Order) []Order {
	resp := make([]Order, len(orders))
	for i := range orders {
		resp[i] = *orders[i]
	}
	return resp
}
