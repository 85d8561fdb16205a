package currency

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
)

var (
	// ErrUnknownSymbol is returned when a symbol is not present in a symbol table
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrSymbolAlreadyExists is returned when a symbol is registered twice with
	// different assets
	ErrSymbolAlreadyExists = errors.New("symbol already exists")

	errEmptySymbol      = errors.New("symbol cannot be empty")
	errInvalidPair      = errors.New("symbol requires both a base and quote asset")
	errMalformedEntry   = errors.New("malformed symbol table entry")
	errSymbolPairDiffer = errors.New("symbol does not match its assets")
)

// SymbolTable maps a tradable venue symbol to its base and quote assets.
// It is loaded once before a run starts and treated as read only afterwards
type SymbolTable map[string]Pair

// NewSymbolTable returns a symbol table holding the supplied pairs keyed by
// their concatenated symbol
func NewSymbolTable(pairs ...Pair) (SymbolTable, error) {
	st := make(SymbolTable, len(pairs))
	for i := range pairs {
		if err := st.Add(pairs[i].Symbol(), pairs[i]); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Add registers a symbol, re-registering the same assets is allowed
func (s SymbolTable) Add(symbol string, p Pair) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return errEmptySymbol
	}
	if p.IsEmpty() {
		return fmt.Errorf("%w: %s", errInvalidPair, symbol)
	}
	if existing, ok := s[symbol]; ok && !existing.Equal(p) {
		return fmt.Errorf("%w: %s is %s not %s", ErrSymbolAlreadyExists, symbol, existing, p)
	}
	s[symbol] = p
	return nil
}

// Lookup returns the assets of a symbol
func (s SymbolTable) Lookup(symbol string) (Pair, error) {
	p, ok := s[strings.ToUpper(symbol)]
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return p, nil
}

// Symbols returns all registered symbols sorted alphabetically
func (s SymbolTable) Symbols() []string {
	resp := make([]string, 0, len(s))
	for k := range s {
		resp = append(resp, k)
	}
	sort.Strings(resp)
	return resp
}

// LoadSymbolTable parses a JSON object keyed by symbol. Each value holds the
// assets either as {"asset":"BTC","quote":"USDT"} or as the tuple form
// {"Item1":"BTC","Item2":"USDT"}
func LoadSymbolTable(data []byte) (SymbolTable, error) {
	st := make(SymbolTable)
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.Object {
			return fmt.Errorf("%w: %s", errMalformedEntry, key)
		}
		base, err := firstString(value, "asset", "base", "Item1")
		if err != nil {
			return fmt.Errorf("%w: %s base asset %v", errMalformedEntry, key, err)
		}
		quote, err := firstString(value, "quote", "Item2")
		if err != nil {
			return fmt.Errorf("%w: %s quote asset %v", errMalformedEntry, key, err)
		}
		return st.Add(string(key), NewPairFromStrings(base, quote))
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// LoadSymbolTableFromFile reads and parses a symbol table file
func LoadSymbolTableFromFile(path string) (SymbolTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadSymbolTable(data)
}

// Validate ensures every symbol is its base and quote concatenated, this is
// what equity valuation relies on to find direct and inverse feeds
func (s SymbolTable) Validate() error {
	for k, v := range s {
		if k != v.Symbol() {
			return fmt.Errorf("%w: %s %s", errSymbolPairDiffer, k, v)
		}
	}
	return nil
}

func firstString(data []byte, keys ...string) (string, error) {
	var err error
	for i := range keys {
		var v string
		v, err = jsonparser.GetString(data, keys[i])
		if err == nil && v != "" {
			return v, nil
		}
	}
	if err == nil {
		err = errEmptySymbol
	}
	return "", err
}
