package main

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/bots/rsi"
	"github.com/thrasher-corp/venuesim/config"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator"
	"github.com/thrasher-corp/venuesim/simulator/order"
	"github.com/thrasher-corp/venuesim/simulator/venue"
	"github.com/thrasher-corp/venuesim/sweep"
)

var errNoReportAsset = errors.New("cannot determine the equity asset, set bot.quote")

// report summarises a finished run
type report struct {
	Simulation simulator.Status `json:"simulation"`
	Asset      string           `json:"asset"`
	Equity     decimal.Decimal  `json:"equity"`
	Trades     int              `json:"trades"`
	Bot        *rsi.Stats       `json:"bot,omitempty"`
}

// sweepRow is one permutation outcome
type sweepRow struct {
	Index    int             `json:"index"`
	Settings []sweep.Setting `json:"settings"`
	Report   *report         `json:"report,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// execute builds the configured simulation, attaches the bot when enabled and
// replays src. onReady runs once the simulation is built and before replay
func execute(ctx context.Context, cfg *config.Config, src simulator.CandleSource, onReady func(*simulator.Simulator) error, opts ...venue.Option) (*report, error) {
	asset, err := reportAsset(cfg)
	if err != nil {
		return nil, err
	}
	sim, err := cfg.SetupSimulator(opts...)
	if err != nil {
		return nil, err
	}
	var bot *rsi.Bot
	if cfg.Bot.Enabled {
		v, err := sim.Venue(cfg.Bot.Venue)
		if err != nil {
			return nil, err
		}
		bot, err = rsi.New(v, cfg.Bot.Symbol, rsi.Settings{
			Period:    cfg.Bot.RSIPeriod,
			Low:       cfg.Bot.RSILow,
			High:      cfg.Bot.RSIHigh,
			OrderSize: cfg.Bot.OrderSize,
		})
		if err != nil {
			return nil, err
		}
		if err := bot.Start(); err != nil {
			return nil, err
		}
		defer bot.Stop()
	}
	if onReady != nil {
		if err := onReady(sim); err != nil {
			return nil, err
		}
	}
	if err := sim.Run(ctx, src, cfg.Interval, cfg.Start, cfg.End); err != nil {
		return nil, err
	}
	r := &report{
		Simulation: sim.Status(),
		Asset:      asset.String(),
		Equity:     sim.Equity(asset),
		Trades:     len(sim.Trades()),
	}
	if bot != nil {
		stats := bot.Stats()
		r.Bot = &stats
	}
	return r, nil
}

// reportAsset is bot.quote or the quote asset of the first configured feed
func reportAsset(cfg *config.Config) (currency.Code, error) {
	if cfg.Bot.Quote != "" {
		return currency.NewCode(cfg.Bot.Quote), nil
	}
	for i := range cfg.Venues {
		if len(cfg.Venues[i].Feeds) == 0 {
			continue
		}
		st, err := cfg.Venues[i].SymbolTable()
		if err != nil {
			return "", err
		}
		p, err := st.Lookup(cfg.Venues[i].Feeds[0].Symbol)
		if err != nil {
			return "", err
		}
		return p.Quote, nil
	}
	return "", errNoReportAsset
}

// sweepSpace builds the rsi dimensions, empty value lists keep the configured
// setting
func sweepSpace(cfg *config.Config, periods []int, lows, highs []float64) (*sweep.Space[config.Config], error) {
	if len(periods) == 0 {
		periods = []int{cfg.Bot.RSIPeriod}
	}
	if len(lows) == 0 {
		lows = []float64{cfg.Bot.RSILow}
	}
	if len(highs) == 0 {
		highs = []float64{cfg.Bot.RSIHigh}
	}
	period, err := sweep.NewDimension("rsiPeriod", periods, func(c *config.Config, v int) { c.Bot.RSIPeriod = v })
	if err != nil {
		return nil, err
	}
	low, err := sweep.NewDimension("rsiLow", lows, func(c *config.Config, v float64) { c.Bot.RSILow = v })
	if err != nil {
		return nil, err
	}
	high, err := sweep.NewDimension("rsiHigh", highs, func(c *config.Config, v float64) { c.Bot.RSIHigh = v })
	if err != nil {
		return nil, err
	}
	return sweep.NewSpace(period, low, high)
}

// executeSweep runs every permutation on its own simulation. Each run owns
// its id sources so results do not depend on scheduling
func executeSweep(ctx context.Context, cfg *config.Config, src simulator.CandleSource, space *sweep.Space[config.Config], workers int) ([]sweepRow, error) {
	base := *cfg
	base.Bot.Enabled = true
	log.Infof(log.Sweep, "sweeping %d permutations of %v with %d workers", space.Count(), space.Dimensions(), workers)
	results, err := sweep.Run(ctx, space, base, workers, func(ctx context.Context, p sweep.Permutation[config.Config]) (*report, error) {
		if err := p.Config.Validate(); err != nil {
			return nil, err
		}
		return execute(ctx, &p.Config, src, nil, venue.WithIDSources(new(order.IDSource), new(order.IDSource)))
	})
	if err != nil {
		return nil, err
	}
	rows := make([]sweepRow, len(results))
	for i := range results {
		rows[i] = sweepRow{
			Index:    results[i].Permutation.Index,
			Settings: results[i].Permutation.Settings,
			Report:   results[i].Value,
		}
		if results[i].Err != nil {
			rows[i].Error = results[i].Err.Error()
		}
	}
	return rows, nil
}
