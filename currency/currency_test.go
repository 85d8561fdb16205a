package currency

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	btc     = NewCode("btc")
	usdt    = NewCode(" USDT ")
	btcusdt = NewPair(btc, usdt)
)

func TestCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "BTC", btc.String())
	assert.Equal(t, "USDT", usdt.String())
	assert.True(t, NewCode("").IsEmpty())
	assert.True(t, btc.Equal(NewCode("BTC")))
}

func TestPair(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "BTCUSDT", btcusdt.Symbol())
	assert.Equal(t, "BTC-USDT", btcusdt.String())
	assert.True(t, btcusdt.Equal(NewPairFromStrings("btc", "usdt")))
	assert.Equal(t, NewPair(usdt, btc), btcusdt.Swap())
	assert.True(t, btcusdt.ContainsCurrency(usdt))
	assert.False(t, btcusdt.ContainsCurrency(NewCode("ETH")))
	assert.True(t, Pair{Base: btc}.IsEmpty())
}

func TestSymbolTable(t *testing.T) {
	t.Parallel()
	st, err := NewSymbolTable(btcusdt, NewPairFromStrings("ETH", "BTC"))
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHBTC"}, st.Symbols())

	p, err := st.Lookup("btcusdt")
	require.NoError(t, err)
	assert.Equal(t, btcusdt, p)

	_, err = st.Lookup("DOGEUSDT")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	assert.NoError(t, st.Add("BTCUSDT", btcusdt), "re-adding identical assets should be allowed")
	assert.ErrorIs(t, st.Add("BTCUSDT", NewPairFromStrings("ETH", "USDT")), ErrSymbolAlreadyExists)
	assert.ErrorIs(t, st.Add("", btcusdt), errEmptySymbol)
	assert.ErrorIs(t, st.Add("BTC", Pair{Base: btc}), errInvalidPair)
	assert.NoError(t, st.Validate())

	require.NoError(t, st.Add("XBTUSD", NewPairFromStrings("BTC", "USD")))
	assert.ErrorIs(t, st.Validate(), errSymbolPairDiffer)
}

func TestLoadSymbolTable(t *testing.T) {
	t.Parallel()
	st, err := LoadSymbolTable([]byte(`{
		"BTCUSDT": {"asset": "BTC", "quote": "USDT"},
		"ETHBTC": {"Item1": "ETH", "Item2": "BTC"}
	}`))
	require.NoError(t, err)
	require.Len(t, st, 2)
	assert.Equal(t, NewPairFromStrings("ETH", "BTC"), st["ETHBTC"])
	assert.Equal(t, btcusdt, st["BTCUSDT"])

	_, err = LoadSymbolTable([]byte(`{"BTCUSDT": "BTC"}`))
	assert.ErrorIs(t, err, errMalformedEntry)

	_, err = LoadSymbolTable([]byte(`{"BTCUSDT": {"asset": "BTC"}}`))
	assert.ErrorIs(t, err, errMalformedEntry)

	_, err = LoadSymbolTable([]byte(`[`))
	assert.Error(t, err)
}

func TestLoadSymbolTableFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "symbols.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"BTCUSDT":{"asset":"BTC","quote":"USDT"}}`), 0o600))
	st, err := LoadSymbolTableFromFile(path)
	require.NoError(t, err)
	assert.Contains(t, st, "BTCUSDT")

	_, err = LoadSymbolTableFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
