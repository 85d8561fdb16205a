package currency

// Pair holds the base asset traded and the quote asset used to price it
type Pair struct {
	Base  Code `json:"base"`
	Quote Code `json:"quote"`
}

// NewPair returns a currency pair from currency codes
func NewPair(baseCurrency, quoteCurrency Code) Pair {
	return Pair{
		Base:  baseCurrency,
		Quote: quoteCurrency,
	}
}

// NewPairFromStrings returns a CurrencyPair without a delimiter
func NewPairFromStrings(baseCurrency, quoteCurrency string) Pair {
	return NewPair(NewCode(baseCurrency), NewCode(quoteCurrency))
}

// Symbol returns the venue symbol of the pair, base and quote concatenated
// without delimiter e.g. BTCUSDT
func (p Pair) Symbol() string {
	return p.Base.String() + p.Quote.String()
}

// String returns the pair as a string with a dash delimiter
func (p Pair) String() string {
	return p.Base.String() + "-" + p.Quote.String()
}

// IsEmpty returns whether or not the pair is empty or is missing a currency
// code
func (p Pair) IsEmpty() bool {
	return p.Base.IsEmpty() || p.Quote.IsEmpty()
}

// Equal compares two currency pairs and returns whether or not they are equal
func (p Pair) Equal(cPair Pair) bool {
	return p.Base.Equal(cPair.Base) && p.Quote.Equal(cPair.Quote)
}

// Swap turns the currency pair into its reciprocal
func (p Pair) Swap() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// ContainsCurrency checks to see if a pair contains a specific currency
func (p Pair) ContainsCurrency(c Code) bool {
	return p.Base.Equal(c) || p.Quote.Equal(c)
}
