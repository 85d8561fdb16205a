package venue

import (
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/currency"
)

// Equity values the account in the target asset. The target counts its free
// balance only. Other assets are valued by total balance through a direct
// asset+target feed at ask, or else an inverse target+asset feed at bid.
// Assets with neither feed priced are left out
func (v *Venue) Equity(target currency.Code) decimal.Decimal {
	v.m.Lock()
	defer v.m.Unlock()
	equity := decimal.Zero
	for _, b := range v.ledger.Balances() {
		if b.Total().IsZero() {
			continue
		}
		if b.Asset.Equal(target) {
			equity = equity.Add(b.Free)
			continue
		}
		if f, ok := v.feeds[currency.NewPair(b.Asset, target).Symbol()]; ok {
			if _, ask, err := f.Prices(); err == nil {
				equity = equity.Add(b.Total().Mul(ask))
				continue
			}
		}
		if f, ok := v.feeds[currency.NewPair(target, b.Asset).Symbol()]; ok {
			if bid, _, err := f.Prices(); err == nil && !bid.IsZero() {
				equity = equity.Add(b.Total().Div(bid))
			}
		}
	}
	return equity
}
