// Package ledger implements per asset free and locked balance accounting
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
)

// Total returns free plus locked funds
func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

// IsZero returns whether the balance holds no funds
func (b Balance) IsZero() bool {
	return b.Free.IsZero() && b.Locked.IsZero()
}

// New returns an empty ledger
func New() *Ledger {
	return &Ledger{balances: make(map[currency.Code]*Balance)}
}

// Touch creates a zero balance for the asset if none exists
func (l *Ledger) Touch(asset currency.Code) {
	if asset.IsEmpty() {
		return
	}
	if _, ok := l.balances[asset]; !ok {
		l.balances[asset] = &Balance{}
	}
}

// Balance returns the balance of an asset. Unknown assets report zero
func (l *Ledger) Balance(asset currency.Code) Balance {
	if b, ok := l.balances[asset]; ok {
		return *b
	}
	return Balance{}
}

// Balances returns every known asset balance sorted by asset
func (l *Ledger) Balances() []AssetBalance {
	resp := make([]AssetBalance, 0, len(l.balances))
	for k, v := range l.balances {
		resp = append(resp, AssetBalance{Asset: k, Balance: *v})
	}
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Asset < resp[j].Asset
	})
	return resp
}

// Reserve moves funds from free to locked
func (l *Ledger) Reserve(asset currency.Code, amount decimal.Decimal) error {
	return l.Apply(func(tx *Tx) error { return tx.Reserve(asset, amount) })
}

// Release moves funds from locked back to free
func (l *Ledger) Release(asset currency.Code, amount decimal.Decimal) error {
	return l.Apply(func(tx *Tx) error { return tx.Release(asset, amount) })
}

// Spend removes locked funds, consuming a reservation on settlement
func (l *Ledger) Spend(asset currency.Code, amount decimal.Decimal) error {
	return l.Apply(func(tx *Tx) error { return tx.Spend(asset, amount) })
}

// Credit adds to free funds
func (l *Ledger) Credit(asset currency.Code, amount decimal.Decimal) error {
	return l.Apply(func(tx *Tx) error { return tx.Credit(asset, amount) })
}

// DebitFree subtracts from free funds
func (l *Ledger) DebitFree(asset currency.Code, amount decimal.Decimal) error {
	return l.Apply(func(tx *Tx) error { return tx.DebitFree(asset, amount) })
}

// Begin starts a transaction. Nothing is written to the ledger until Commit
func (l *Ledger) Begin() *Tx {
	return &Tx{ledger: l, staged: make(map[currency.Code]Balance)}
}

// Apply runs fn in a transaction and commits it only when fn succeeds
func (l *Ledger) Apply(fn func(*Tx) error) error {
	tx := l.Begin()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Balance returns the staged balance of an asset
func (tx *Tx) Balance(asset currency.Code) Balance {
	if b, ok := tx.staged[asset]; ok {
		return b
	}
	return tx.ledger.Balance(asset)
}

// Reserve stages moving funds from free to locked. It fails with
// ErrInsufficientBalance when free funds are below the amount
func (tx *Tx) Reserve(asset currency.Code, amount decimal.Decimal) error {
	b, err := tx.prepare(asset, amount)
	if err != nil {
		return err
	}
	if b.Free.LessThan(amount) {
		return fmt.Errorf("%w: %s free %s cannot cover %s", ErrInsufficientBalance, asset, b.Free, amount)
	}
	b.Free = b.Free.Sub(amount)
	b.Locked = b.Locked.Add(amount)
	tx.staged[asset] = b
	return nil
}

// Release stages moving funds from locked back to free
func (tx *Tx) Release(asset currency.Code, amount decimal.Decimal) error {
	b, err := tx.prepare(asset, amount)
	if err != nil {
		return err
	}
	b.Locked = b.Locked.Sub(amount)
	b.Free = b.Free.Add(amount)
	if err := checkLocked(asset, b); err != nil {
		return err
	}
	tx.staged[asset] = b
	return nil
}

// Spend stages removing locked funds
func (tx *Tx) Spend(asset currency.Code, amount decimal.Decimal) error {
	b, err := tx.prepare(asset, amount)
	if err != nil {
		return err
	}
	b.Locked = b.Locked.Sub(amount)
	if err := checkLocked(asset, b); err != nil {
		return err
	}
	tx.staged[asset] = b
	return nil
}

// Credit stages adding to free funds
func (tx *Tx) Credit(asset currency.Code, amount decimal.Decimal) error {
	b, err := tx.prepare(asset, amount)
	if err != nil {
		return err
	}
	b.Free = b.Free.Add(amount)
	tx.staged[asset] = b
	return nil
}

// DebitFree stages subtracting from free funds
func (tx *Tx) DebitFree(asset currency.Code, amount decimal.Decimal) error {
	b, err := tx.prepare(asset, amount)
	if err != nil {
		return err
	}
	b.Free = b.Free.Sub(amount)
	if b.Free.LessThan(Epsilon.Neg()) {
		return fmt.Errorf("%w: %s free would be %s", ErrInvariantViolation, asset, b.Free)
	}
	tx.staged[asset] = b
	return nil
}

// Commit writes every staged balance to the ledger
func (tx *Tx) Commit() error {
	if tx.committed {
		return errTxClosed
	}
	tx.committed = true
	for k, v := range tx.staged {
		b := v
		tx.ledger.balances[k] = &b
	}
	return nil
}

func (tx *Tx) prepare(asset currency.Code, amount decimal.Decimal) (Balance, error) {
	if tx.committed {
		return Balance{}, errTxClosed
	}
	if asset.IsEmpty() {
		return Balance{}, errEmptyAsset
	}
	if amount.IsNegative() {
		return Balance{}, fmt.Errorf("%w: %s %s", errNegativeAmount, asset, amount)
	}
	return tx.Balance(asset), nil
}

func checkLocked(asset currency.Code, b Balance) error {
	if b.Locked.LessThan(Epsilon.Neg()) {
		return fmt.Errorf("%w: %s locked would be %s", ErrInvariantViolation, asset, b.Locked)
	}
	return nil
}
