package kline

import (
	"fmt"
	"time"
)

// Position returns the current index, -1 means before the first candle
func (n *Navigator) Position() int {
	return n.position
}

// Current returns the candle at the cursor
func (n *Navigator) Current() (Candle, error) {
	return n.series.At(n.position)
}

// HasNext returns whether another candle can be read
func (n *Navigator) HasNext() bool {
	return n.position+1 < n.series.Len()
}

// Next advances the cursor and returns the candle it lands on
func (n *Navigator) Next() (Candle, error) {
	c, err := n.series.At(n.position + 1)
	if err != nil {
		return Candle{}, err
	}
	n.position++
	return c, nil
}

// Previous moves the cursor back one candle
func (n *Navigator) Previous() (Candle, error) {
	c, err := n.series.At(n.position - 1)
	if err != nil {
		return Candle{}, err
	}
	n.position--
	return c, nil
}

// SeekFirst moves the cursor to the first candle
func (n *Navigator) SeekFirst() error {
	return n.Seek(0)
}

// SeekLast moves the cursor to the most recent candle
func (n *Navigator) SeekLast() error {
	return n.Seek(n.series.Len() - 1)
}

// Seek moves the cursor to the supplied index
func (n *Navigator) Seek(i int) error {
	l := n.series.Len()
	if i < 0 || i >= l {
		return fmt.Errorf("%w: %d of %d", errOutOfRange, i, l)
	}
	n.position = i
	return nil
}

// SeekNearestBefore moves the cursor to the last candle closing at or before
// t. When every candle closes after t the cursor is placed before the first
// candle and false is returned
func (n *Navigator) SeekNearestBefore(t time.Time) bool {
	n.position = n.series.NearestBefore(t)
	return n.position >= 0
}

// Tick returns the close time of the candle under the cursor
func (n *Navigator) Tick() (time.Time, error) {
	c, err := n.Current()
	if err != nil {
		return time.Time{}, err
	}
	return c.CloseTime, nil
}

// PositionPush saves the cursor so it can be restored with PositionPop
func (n *Navigator) PositionPush() {
	n.saved = append(n.saved, n.position)
}

// PositionPop restores the most recently saved cursor
func (n *Navigator) PositionPop() error {
	if len(n.saved) == 0 {
		return errPositionEmpty
	}
	n.position = n.saved[len(n.saved)-1]
	n.saved = n.saved[:len(n.saved)-1]
	return nil
}
