package currency

import "strings"

// Code defines an asset symbol such as BTC or USDT. Codes are always stored
// upper case so they can be used directly as map keys
type Code string

// NewCode returns a new normalised currency code
func NewCode(c string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(c)))
}

// String converts the code to string
func (c Code) String() string {
	return string(c)
}

// IsEmpty returns true if the code is empty
func (c Code) IsEmpty() bool {
	return c == ""
}

// Equal returns if the code supplied is the same as the corresponding code
func (c Code) Equal(check Code) bool {
	return c == check
}
