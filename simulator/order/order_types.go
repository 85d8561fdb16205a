package order

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
)

// Side enforces a standard for order sides across the code base
type Side string

// Order side types
const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Type enforces a standard for order types across the code base
type Type string

// Defined package order types
const (
	Market Type = "MARKET"
	Limit  Type = "LIMIT"
)

// Status defines order status types
type Status string

// All order status types. Pending moves to exactly one of Filled or
// Cancelled and never returns
const (
	Pending   Status = "PENDING"
	Filled    Status = "FILLED"
	Cancelled Status = "CANCELLED"
)

var (
	// ErrSideIsInvalid is returned when an order side is not buy or sell
	ErrSideIsInvalid = errors.New("order side is invalid")
	// ErrTypeIsInvalid is returned when an order type is not market or limit
	ErrTypeIsInvalid = errors.New("order type is invalid")
	// ErrAmountIsInvalid is returned when an order amount is not positive
	ErrAmountIsInvalid = errors.New("order amount must be greater than zero")
	// ErrPriceIsInvalid is returned when an order price is not positive
	ErrPriceIsInvalid = errors.New("order price must be greater than zero")
	// ErrOrderNotFound is returned when an order id is not held
	ErrOrderNotFound = errors.New("order not found")

	errIDRequired     = errors.New("order id required")
	errDuplicateOrder = errors.New("order id already exists")
	errNotPending     = errors.New("order is not pending")
	errPairRequired   = errors.New("order requires base and quote assets")
)

// Order holds an order submitted to a venue. Everything but Status and
// Filled is fixed at submission
type Order struct {
	ID     string          `json:"id"`
	Venue  string          `json:"venue"`
	Symbol string          `json:"symbol"`
	Pair   currency.Pair   `json:"pair"`
	Side   Side            `json:"side"`
	Type   Type            `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
	Status Status          `json:"status"`
	Filled decimal.Decimal `json:"filled"`
}

// Trade is an executed fill. Trades are never altered once recorded
type Trade struct {
	ID      string          `json:"id"`
	Venue   string          `json:"venue"`
	Symbol  string          `json:"symbol"`
	Side    Side            `json:"side"`
	Price   decimal.Decimal `json:"price"`
	Amount  decimal.Decimal `json:"amount"`
	Fee     decimal.Decimal `json:"fee"`
	Time    time.Time       `json:"time"`
	OrderID string          `json:"orderId"`
}

// IDSource hands out monotonically increasing identifiers rendered as
// strings
type IDSource struct {
	last atomic.Uint64
}

// Book holds pending orders in submission order along with closed orders
type Book struct {
	pending []*Order
	closed  []*Order
	byID    map[string]*Order
}
