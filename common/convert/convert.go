// Package convert parses the loosely typed values found in candle files
package convert

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DecimalFromString parses a decimal keeping its full precision
func DecimalFromString(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse %q as decimal: %w", raw, err)
	}
	return d, nil
}

// Int64FromString parses a base 10 integer
func Int64FromString(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as int64: %w", raw, err)
	}
	return n, nil
}

// UnixTimestampToTime returns the UTC time of a unix seconds timestamp
func UnixTimestampToTime(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

// UnixTimestampStrToTime parses a unix seconds timestamp string
func UnixTimestampStrToTime(raw string) (time.Time, error) {
	i, err := Int64FromString(raw)
	if err != nil {
		return time.Time{}, err
	}
	return UnixTimestampToTime(i), nil
}

// BoolPtr returns a pointer to a copy of b
func BoolPtr(b bool) *bool {
	return &b
}
