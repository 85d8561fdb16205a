// Package simulator runs venues tick by tick over a merged candle timeline
package simulator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/common"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator/order"
	"github.com/thrasher-corp/venuesim/simulator/venue"
)

// New returns an empty simulation identified by a fresh run id
func New(nickname string) (*Simulator, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Simulator{
		id:       id,
		nickname: nickname,
		byName:   make(map[string]*venue.Venue),
		loaded:   time.Now(),
	}, nil
}

// ID returns the run id
func (s *Simulator) ID() uuid.UUID {
	return s.id
}

// Nickname returns the configured run name
func (s *Simulator) Nickname() string {
	return s.nickname
}

// AddVenue registers a venue, names must be unique
func (s *Simulator) AddVenue(v *venue.Venue) error {
	if v == nil {
		return fmt.Errorf("%w venue", common.ErrNilPointer)
	}
	s.m.Lock()
	defer s.m.Unlock()
	if _, ok := s.byName[v.Name()]; ok {
		return fmt.Errorf("%s %w", v.Name(), errVenueAlreadyAdded)
	}
	s.byName[v.Name()] = v
	s.venues = append(s.venues, v)
	return nil
}

// Venue returns a registered venue by name
func (s *Simulator) Venue(name string) (*venue.Venue, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	v, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%s %w", name, errVenueNotFound)
	}
	return v, nil
}

// Venues returns every venue in registration order
func (s *Simulator) Venues() []*venue.Venue {
	s.m.RLock()
	defer s.m.RUnlock()
	resp := make([]*venue.Venue, len(s.venues))
	copy(resp, s.venues)
	return resp
}

// TrackFeed adds a venue symbol to the candles replayed by Run. The order of
// registration breaks ties between candles closing at the same time
func (s *Simulator) TrackFeed(venueName, symbol string) error {
	v, err := s.Venue(venueName)
	if err != nil {
		return err
	}
	f, err := v.GetFeed(symbol)
	if err != nil {
		return err
	}
	s.m.Lock()
	defer s.m.Unlock()
	for i := range s.tracked {
		if s.tracked[i].Venue == venueName && s.tracked[i].Symbol == f.Symbol() {
			return nil
		}
	}
	s.tracked = append(s.tracked, Track{Venue: venueName, Symbol: f.Symbol()})
	return nil
}

// Tracked returns the replayed venue symbols in registration order
func (s *Simulator) Tracked() []Track {
	s.m.RLock()
	defer s.m.RUnlock()
	resp := make([]Track, len(s.tracked))
	copy(resp, s.tracked)
	return resp
}

// Tick ingests a candle into a venue, resolves its pending orders and then
// delivers its queued events
func (s *Simulator) Tick(venueName, symbol string, c *kline.Candle) error {
	v, err := s.Venue(venueName)
	if err != nil {
		return err
	}
	if err := v.IngestCandle(symbol, c); err != nil {
		return err
	}
	s.m.Lock()
	if c.CloseTime.After(s.clock) {
		s.clock = c.CloseTime
	}
	s.ticks++
	s.m.Unlock()
	resolveErr := v.ResolveOrders()
	v.RaisePendingEvents()
	return resolveErr
}

// Run loads candles for every tracked feed between start and end, merges them
// by close time and ticks through them. The context is checked between ticks
func (s *Simulator) Run(ctx context.Context, src CandleSource, interval kline.Interval, start, end time.Time) error {
	if src == nil {
		return errNilSource
	}
	if !end.After(start) {
		return fmt.Errorf("%w: %v %v", errInvalidRange, start, end)
	}
	s.m.Lock()
	switch {
	case s.running:
		s.m.Unlock()
		return errRunIsRunning
	case !s.finished.IsZero():
		s.m.Unlock()
		return errAlreadyRan
	case len(s.tracked) == 0:
		s.m.Unlock()
		return errNoFeeds
	}
	s.running = true
	s.started = time.Now()
	tracked := make([]Track, len(s.tracked))
	copy(tracked, s.tracked)
	s.m.Unlock()

	err := s.run(ctx, src, tracked, interval, start, end)

	s.m.Lock()
	s.running = false
	s.finished = time.Now()
	s.runErr = err
	s.m.Unlock()
	if err != nil {
		log.Errorf(log.Simulator, "run %s %s stopped: %v", s.id, s.nickname, err)
		return err
	}
	log.Infof(log.Simulator, "run %s %s completed %d ticks in %s", s.id, s.nickname, s.Ticks(), s.finished.Sub(s.started))
	return nil
}

func (s *Simulator) run(ctx context.Context, src CandleSource, tracked []Track, interval kline.Interval, start, end time.Time) error {
	timeline, err := s.load(ctx, src, tracked, interval, start, end)
	if err != nil {
		return err
	}
	log.Infof(log.Simulator, "run %s %s replaying %d candles across %d feeds", s.id, s.nickname, len(timeline), len(tracked))
	for i := range timeline {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := tracked[timeline[i].track]
		if err := s.Tick(t.Venue, t.Symbol, &timeline[i].candle); err != nil {
			return err
		}
	}
	return nil
}

// load fetches every tracked feed and orders the candles by close time, ties
// keep registration order
func (s *Simulator) load(ctx context.Context, src CandleSource, tracked []Track, interval kline.Interval, start, end time.Time) ([]step, error) {
	var timeline []step
	for i := range tracked {
		candles, err := src.Candles(ctx, tracked[i].Venue, tracked[i].Symbol, interval, start, end)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", tracked[i].Venue, tracked[i].Symbol, err)
		}
		if len(candles) == 0 {
			log.Warnf(log.Simulator, "%s %s has no candles between %v and %v", tracked[i].Venue, tracked[i].Symbol, start, end)
		}
		for j := range candles {
			timeline = append(timeline, step{track: i, candle: candles[j]})
		}
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].candle.CloseTime.Equal(timeline[j].candle.CloseTime) {
			return timeline[i].track < timeline[j].track
		}
		return timeline[i].candle.CloseTime.Before(timeline[j].candle.CloseTime)
	})
	return timeline, nil
}

// Time returns the close time of the latest ticked candle
func (s *Simulator) Time() time.Time {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.clock
}

// Ticks returns the amount of candles ticked
func (s *Simulator) Ticks() int64 {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.ticks
}

// Equity sums the equity of every venue in the target asset
func (s *Simulator) Equity(target currency.Code) decimal.Decimal {
	venues := s.Venues()
	resp := decimal.Zero
	for i := range venues {
		resp = resp.Add(venues[i].Equity(target))
	}
	return resp
}

// Trades returns the trades of every venue ordered by execution time, venue
// registration order breaks ties
func (s *Simulator) Trades() []order.Trade {
	venues := s.Venues()
	var resp []order.Trade
	for i := range venues {
		resp = append(resp, venues[i].Trades()...)
	}
	sort.SliceStable(resp, func(i, j int) bool {
		return resp[i].Time.Before(resp[j].Time)
	})
	return resp
}

// Status returns a summary of the simulation
func (s *Simulator) Status() Status {
	s.m.RLock()
	defer s.m.RUnlock()
	st := Status{
		ID:       s.id.String(),
		Nickname: s.nickname,
		Venues:   make([]string, len(s.venues)),
		Tracked:  make([]Track, len(s.tracked)),
		Loaded:   s.loaded,
		Started:  s.started,
		Finished: s.finished,
		Clock:    s.clock,
		Ticks:    s.ticks,
		Running:  s.running,
	}
	for i := range s.venues {
		st.Venues[i] = s.venues[i].Name()
	}
	copy(st.Tracked, s.tracked)
	if s.runErr != nil {
		st.Error = s.runErr.Error()
	}
	return st
}
