package order

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/venuesim/currency"
)

var btcusdt = currency.NewPairFromStrings("BTC", "USDT")

func newOrder(id string, side Side) *Order {
	return &Order{
		ID:     id,
		Venue:  "sim",
		Symbol: btcusdt.Symbol(),
		Pair:   btcusdt,
		Side:   side,
		Type:   Limit,
		Amount: decimal.NewFromInt(2),
		Price:  decimal.NewFromInt(100),
	}
}

func TestStringToOrderSide(t *testing.T) {
	t.Parallel()
	s, err := StringToOrderSide("buy")
	require.NoError(t, err)
	assert.Equal(t, Buy, s)
	s, err = StringToOrderSide("SeLL")
	require.NoError(t, err)
	assert.Equal(t, Sell, s)
	_, err = StringToOrderSide("long")
	assert.ErrorIs(t, err, ErrSideIsInvalid)
	assert.Equal(t, "sell", Sell.Lower())
}

func TestIDSource(t *testing.T) {
	t.Parallel()
	var s IDSource
	assert.Equal(t, "1", s.Next())
	assert.Equal(t, "2", s.Next())

	var wg sync.WaitGroup
	seen := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- s.Next()
		}()
	}
	wg.Wait()
	close(seen)
	unique := make(map[string]struct{})
	for id := range seen {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, 100)
	assert.NotSame(t, ProcessOrderIDs(), ProcessTradeIDs())
}

func TestCompare(t *testing.T) {
	t.Parallel()
	assert.Equal(t, -1, Compare("2", "10"))
	assert.Equal(t, 1, Compare("10", "2"))
	assert.Zero(t, Compare("7", "7"))
	assert.Equal(t, -1, Compare("7", "abc"))
	assert.Equal(t, 1, Compare("abc", "7"))
	assert.Equal(t, -1, Compare("abc", "abd"))
}

func TestValidate(t *testing.T) {
	t.Parallel()
	o := newOrder("1", Buy)
	require.NoError(t, o.Validate())

	for _, tt := range []struct {
		mutate func(*Order)
		err    error
	}{
		{func(o *Order) { o.Pair = currency.Pair{} }, errPairRequired},
		{func(o *Order) { o.Side = "LONG" }, ErrSideIsInvalid},
		{func(o *Order) { o.Type = "STOP" }, ErrTypeIsInvalid},
		{func(o *Order) { o.Amount = decimal.Zero }, ErrAmountIsInvalid},
		{func(o *Order) { o.Price = decimal.NewFromInt(-1) }, ErrPriceIsInvalid},
	} {
		cpy := *o
		tt.mutate(&cpy)
		assert.ErrorIs(t, cpy.Validate(), tt.err)
	}
}

func TestReservation(t *testing.T) {
	t.Parallel()
	asset, amount := newOrder("1", Buy).Reservation()
	assert.Equal(t, btcusdt.Quote, asset)
	assert.True(t, amount.Equal(decimal.NewFromInt(200)))

	asset, amount = newOrder("1", Sell).Reservation()
	assert.Equal(t, btcusdt.Base, asset)
	assert.True(t, amount.Equal(decimal.NewFromInt(2)))
}

func TestBook(t *testing.T) {
	t.Parallel()
	b := NewBook()
	require.NoError(t, b.Add(newOrder("1", Buy)))
	require.NoError(t, b.Add(newOrder("2", Sell)))
	other := newOrder("3", Buy)
	other.Symbol = "ETHUSDT"
	require.NoError(t, b.Add(other))
	assert.ErrorIs(t, b.Add(newOrder("1", Buy)), errDuplicateOrder)
	assert.ErrorIs(t, b.Add(&Order{}), errIDRequired)

	pending := b.PendingFor(btcusdt.Symbol())
	require.Len(t, pending, 2)
	assert.Equal(t, "1", pending[0].ID)
	assert.Equal(t, Pending, pending[0].Status)

	require.NoError(t, b.Close("1", Filled))
	assert.Len(t, pending, 2, "snapshot is unaffected by closing")
	assert.ErrorIs(t, b.Close("1", Cancelled), errNotPending)
	assert.ErrorIs(t, b.Close("9", Cancelled), ErrOrderNotFound)
	assert.ErrorIs(t, b.Close("2", Pending), errNotPending)

	o, ok := b.Get("1")
	require.True(t, ok)
	assert.Equal(t, Filled, o.Status)
	_, ok = b.Get("9")
	assert.False(t, ok)

	market := newOrder("4", Sell)
	market.Type = Market
	market.Status = Filled
	require.NoError(t, b.Record(market))
	assert.ErrorIs(t, b.Record(market), errDuplicateOrder)

	open := b.Open()
	require.Len(t, open, 2)
	assert.Equal(t, "2", open[0].ID)
	assert.Equal(t, "3", open[1].ID)
	closed := b.Closed()
	require.Len(t, closed, 2)
	assert.Equal(t, "4", closed[1].ID)
	assert.True(t, open[0].IsOpen())
	assert.False(t, closed[0].IsOpen())
}
