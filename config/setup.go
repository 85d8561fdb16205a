package config

import (
	"context"
	"fmt"

	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/database"
	"github.com/thrasher-corp/venuesim/database/repository/candle"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator"
	"github.com/thrasher-corp/venuesim/simulator/venue"
)

// SetupSimulator builds the configured venues with their balances and feeds.
// Options are applied to every venue after the configured fees
func (c *Config) SetupSimulator(opts ...venue.Option) (*simulator.Simulator, error) {
	if c == nil {
		return nil, errNilConfig
	}
	s, err := simulator.New(c.Nickname)
	if err != nil {
		return nil, err
	}
	for i := range c.Venues {
		v, err := c.Venues[i].setup(opts...)
		if err != nil {
			return nil, err
		}
		if err := s.AddVenue(v); err != nil {
			return nil, err
		}
		for j := range c.Venues[i].Feeds {
			if err := s.TrackFeed(v.Name(), c.Venues[i].Feeds[j].Symbol); err != nil {
				return nil, err
			}
		}
	}
	log.Debugf(log.ConfigMgr, "simulation %s %s set up with %d venues", s.ID(), s.Nickname(), len(c.Venues))
	return s, nil
}

func (v *VenueConfig) setup(opts ...venue.Option) (*venue.Venue, error) {
	st, err := v.SymbolTable()
	if err != nil {
		return nil, fmt.Errorf("%s %w", v.Name, err)
	}
	options := make([]venue.Option, 0, len(opts)+1)
	if v.MakerFee != nil && v.TakerFee != nil {
		options = append(options, venue.WithFees(*v.MakerFee, *v.TakerFee))
	}
	options = append(options, opts...)
	ven, err := venue.New(v.Name, st, options...)
	if err != nil {
		return nil, err
	}
	for asset, amount := range v.Balances {
		if err := ven.AddBalance(currency.NewCode(asset), amount); err != nil {
			return nil, fmt.Errorf("%s %s %w", v.Name, asset, err)
		}
	}
	for i := range v.Feeds {
		f, err := ven.GetFeed(v.Feeds[i].Symbol)
		if err != nil {
			return nil, err
		}
		if err := f.SetSpread(v.Feeds[i].Spread); err != nil {
			return nil, err
		}
	}
	return ven, nil
}

// CandleSource opens the configured data source, the returned func releases
// it
func (c *Config) CandleSource(ctx context.Context) (simulator.CandleSource, func() error, error) {
	switch c.DataSource.Type {
	case DataSourceCSV:
		return &candle.CSVSource{Directory: c.DataSource.CSVDirectory}, func() error { return nil }, nil
	case DataSourceDatabase:
		repo, closer, err := c.Repository(ctx)
		if err != nil {
			return nil, nil, err
		}
		return repo, closer, nil
	default:
		return nil, nil, fmt.Errorf("%w %q", errUnknownDataSource, c.DataSource.Type)
	}
}

// Repository connects to the configured database and ensures the candle
// schema exists
func (c *Config) Repository(ctx context.Context) (*candle.Repository, func() error, error) {
	db, err := database.Connect(&c.DataSource.Database, c.DataPath)
	if err != nil {
		return nil, nil, err
	}
	repo, err := candle.New(db)
	if err == nil {
		err = repo.CreateSchema(ctx)
	}
	if err != nil {
		if errC := db.CloseConnection(); errC != nil {
			log.Errorln(log.DatabaseMgr, errC)
		}
		return nil, nil, err
	}
	return repo, db.CloseConnection, nil
}
