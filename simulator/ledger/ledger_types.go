package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
)

var (
	// ErrInsufficientBalance is returned when free funds cannot cover a
	// reservation. It is an expected trading outcome
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvariantViolation is returned when an operation would leave a free
	// or locked balance below -Epsilon. It signals an accounting defect
	ErrInvariantViolation = errors.New("balance invariant violation")

	errNegativeAmount = errors.New("amount cannot be negative")
	errEmptyAsset     = errors.New("asset cannot be empty")
	errTxClosed       = errors.New("transaction already committed")
)

// Epsilon is the rounding slack tolerated below zero
var Epsilon = decimal.New(1, -10)

// Balance holds the free and locked funds of one asset
type Balance struct {
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// AssetBalance pairs a balance with its asset for listings
type AssetBalance struct {
	Asset currency.Code `json:"asset"`
	Balance
}

// Ledger tracks per asset balances. It is not safe for concurrent use, the
// owning venue serialises access
type Ledger struct {
	balances map[currency.Code]*Balance
}

// Tx stages balance changes against a ledger so several operations either
// all apply or none do
type Tx struct {
	ledger    *Ledger
	staged    map[currency.Code]Balance
	committed bool
}
