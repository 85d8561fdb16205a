package simulator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/simulator/venue"
)

var (
	errVenueAlreadyAdded = errors.New("venue already added")
	errVenueNotFound     = errors.New("venue not found")
	errRunIsRunning      = errors.New("simulation is already running")
	errAlreadyRan        = errors.New("simulation already ran")
	errNoFeeds           = errors.New("no feeds tracked")
	errNilSource         = errors.New("candle source is nil")
	errInvalidRange      = errors.New("end must be after start")
)

// CandleSource supplies the historic candles of one venue symbol ordered by
// close time
type CandleSource interface {
	Candles(ctx context.Context, venue, symbol string, interval kline.Interval, start, end time.Time) ([]kline.Candle, error)
}

// Simulator drives one or more venues from historic candles on a shared clock
type Simulator struct {
	m        sync.RWMutex
	id       uuid.UUID
	nickname string
	venues   []*venue.Venue
	byName   map[string]*venue.Venue
	tracked  []Track
	loaded   time.Time
	started  time.Time
	finished time.Time
	clock    time.Time
	ticks    int64
	running  bool
	runErr   error
}

// Track identifies a venue symbol replayed by Run
type Track struct {
	Venue  string `json:"venue"`
	Symbol string `json:"symbol"`
}

// Status summarises a simulation for reporting
type Status struct {
	ID       string    `json:"id"`
	Nickname string    `json:"nickname"`
	Venues   []string  `json:"venues"`
	Tracked  []Track   `json:"tracked"`
	Loaded   time.Time `json:"loaded"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Clock    time.Time `json:"clock"`
	Ticks    int64     `json:"ticks"`
	Running  bool      `json:"running"`
	Error    string    `json:"error,omitempty"`
}

// step is one candle placed on the merged timeline
type step struct {
	track  int
	candle kline.Candle
}
