package venue

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/simulator/eventqueue"
	"github.com/thrasher-corp/venuesim/simulator/feed"
	"github.com/thrasher-corp/venuesim/simulator/ledger"
	"github.com/thrasher-corp/venuesim/simulator/order"
	"github.com/thrasher-corp/venuesim/simulator/subscription"
)

var (
	// DefaultMakerFee is charged on limit order fills
	DefaultMakerFee = decimal.NewFromFloat(0.0015)
	// DefaultTakerFee is charged on market order fills
	DefaultTakerFee = decimal.NewFromFloat(0.0025)

	// ErrInsufficientBalance is returned when free funds cannot back an order
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	// ErrInvariantViolation is returned when settlement would break the
	// balance invariants
	ErrInvariantViolation = ledger.ErrInvariantViolation
	// ErrUnknownSymbol is returned for symbols missing from the symbol table
	ErrUnknownSymbol = currency.ErrUnknownSymbol

	errNameRequired   = errors.New("venue name required")
	errInvalidFee     = errors.New("fee rate must be at least zero and below one")
	errNilSymbolTable = errors.New("symbol table is nil")
	errNilCandle      = errors.New("candle is nil")
	errNilIDSource    = errors.New("id source is nil")
)

var (
	minTradable     = decimal.New(1, -8)
	symbolPrecision = decimal.New(1, -10)
)

// TradeEvent is raised for every fill once pending events are flushed
type TradeEvent struct {
	Venue *Venue
	Trade order.Trade
}

// Option configures a venue at construction
type Option func(*Venue) error

// Venue is a simulated exchange account. Every mutation and compound read is
// serialised by a single lock which is never held while events are delivered
type Venue struct {
	m        sync.Mutex
	name     string
	makerFee decimal.Decimal
	takerFee decimal.Decimal
	symbols  currency.SymbolTable
	clock    time.Time

	feeds     map[string]*feed.Feed
	feedOrder []string
	advanced  map[string]struct{}

	ledger *ledger.Ledger
	book   *order.Book
	trades []order.Trade

	orderIDs *order.IDSource
	tradeIDs *order.IDSource

	tradeListeners subscription.Registry[TradeEvent]
	pendingTrades  eventqueue.Queue[TradeEvent]
}
