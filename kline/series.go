package kline

import (
	"fmt"
	"sort"
	"time"
)

// NewSeries returns a series holding the supplied candles, which must be
// ordered by close time
func NewSeries(candles ...Candle) (*Series, error) {
	s := &Series{}
	for i := range candles {
		if err := s.Append(&candles[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append adds a candle to the end of the series. Candles that do not close
// after the latest held candle are rejected
func (s *Series) Append(c *Candle) error {
	if s == nil {
		return errNilSeries
	}
	if err := c.Validate(); err != nil {
		return err
	}
	s.m.Lock()
	defer s.m.Unlock()
	if len(s.candles) > 0 {
		last := s.candles[len(s.candles)-1].CloseTime
		if !c.CloseTime.After(last) {
			return fmt.Errorf("%w: close time %v is not after %v", ErrOutOfOrder, c.CloseTime, last)
		}
	}
	s.candles = append(s.candles, *c)
	return nil
}

// Len returns the amount of candles held
func (s *Series) Len() int {
	s.m.RLock()
	defer s.m.RUnlock()
	return len(s.candles)
}

// At returns the candle at the supplied index
func (s *Series) At(i int) (Candle, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	if i < 0 || i >= len(s.candles) {
		return Candle{}, fmt.Errorf("%w: %d of %d", errOutOfRange, i, len(s.candles))
	}
	return s.candles[i], nil
}

// Last returns the most recent candle
func (s *Series) Last() (Candle, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	if len(s.candles) == 0 {
		return Candle{}, errNoCandles
	}
	return s.candles[len(s.candles)-1], nil
}

// Candles returns a copy of every candle held
func (s *Series) Candles() []Candle {
	s.m.RLock()
	defer s.m.RUnlock()
	resp := make([]Candle, len(s.candles))
	copy(resp, s.candles)
	return resp
}

// NearestBefore returns the index of the last candle with a close time at or
// before t, or -1 when every candle closes after t
func (s *Series) NearestBefore(t time.Time) int {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.nearestBefore(t)
}

func (s *Series) nearestBefore(t time.Time) int {
	i := sort.Search(len(s.candles), func(i int) bool {
		return s.candles[i].CloseTime.After(t)
	})
	return i - 1
}

// Range returns a copy of candles closing within (start, end]
func (s *Series) Range(start, end time.Time) []Candle {
	s.m.RLock()
	defer s.m.RUnlock()
	from := s.nearestBefore(start) + 1
	to := s.nearestBefore(end) + 1
	if to <= from {
		return nil
	}
	resp := make([]Candle, to-from)
	copy(resp, s.candles[from:to])
	return resp
}

// Navigator returns a new cursor positioned before the first candle
func (s *Series) Navigator() *Navigator {
	return &Navigator{series: s, position: -1}
}
