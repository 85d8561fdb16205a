// Package config loads and validates simulation run configuration
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/thrasher-corp/venuesim/common"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/database"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator/venue"
)

// ReadConfigFromFile reads a JSON, YAML or TOML config, chosen by file
// extension, applies VENUESIM_ environment overrides and checks its values
func ReadConfigFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	c, err := unmarshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.DataPath == "" {
		c.DataPath = filepath.Dir(path)
	}
	c.resolvePaths()
	if err := c.CheckValues(); err != nil {
		return nil, err
	}
	log.Debugf(log.ConfigMgr, "loaded config %s with %d venues", path, len(c.Venues))
	return c, nil
}

// LoadConfig reads a config of the supplied type (json, yaml, toml) from r
func LoadConfig(r io.Reader, configType string) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(r); err != nil {
		return nil, err
	}
	c, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := c.CheckValues(); err != nil {
		return nil, err
	}
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	c := &Config{}
	err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		decimalHook,
		intervalHook,
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, err
	}
	return c, nil
}

var (
	decimalType  = reflect.TypeOf(decimal.Decimal{})
	intervalType = reflect.TypeOf(kline.Interval(0))
)

// decimalHook decodes strings and numbers into decimals, strings keep their
// exact precision
func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch d := data.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(d))
	case float64:
		return decimal.NewFromFloat(d), nil
	case float32:
		return decimal.NewFromFloat32(d), nil
	case int:
		return decimal.NewFromInt(int64(d)), nil
	case int64:
		return decimal.NewFromInt(d), nil
	case decimal.Decimal:
		return d, nil
	default:
		return nil, fmt.Errorf("cannot decode %s %v into decimal", from, data)
	}
}

// intervalHook decodes duration strings such as "1m" and numbers of seconds
// into intervals
func intervalHook(from, to reflect.Type, data any) (any, error) {
	if to != intervalType {
		return data, nil
	}
	switch d := data.(type) {
	case string:
		dur, err := time.ParseDuration(strings.TrimSpace(d))
		if err != nil {
			return nil, err
		}
		return kline.Interval(dur), nil
	case float64:
		return kline.Interval(time.Duration(d * float64(time.Second))), nil
	case int:
		return kline.Interval(time.Duration(d) * time.Second), nil
	case int64:
		return kline.Interval(time.Duration(d) * time.Second), nil
	default:
		return nil, fmt.Errorf("cannot decode %s %v into interval", from, data)
	}
}

// resolvePaths makes relative file locations relative to the data path
func (c *Config) resolvePaths() {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.DataPath, p)
	}
	c.DataSource.CSVDirectory = resolve(c.DataSource.CSVDirectory)
	for i := range c.Venues {
		c.Venues[i].SymbolsTable = resolve(c.Venues[i].SymbolsTable)
	}
}

// CheckValues applies defaults and then validates the config
func (c *Config) CheckValues() error {
	if c == nil {
		return errNilConfig
	}
	c.setDefaults()
	return c.Validate()
}

func (c *Config) setDefaults() {
	if c.Nickname == "" {
		c.Nickname = DefaultNickname
	}
	if c.Logging.Enabled == nil || c.Logging.Output == "" {
		c.Logging = log.GenDefaultSettings()
	}
	if c.DataSource.Type == "" {
		c.DataSource.Type = DataSourceCSV
	}
	c.DataSource.Type = strings.ToLower(c.DataSource.Type)
	if c.DataSource.Database.Driver == "" {
		c.DataSource.Database.Driver = database.DBSQLite3
	}
	if c.APIServer.ListenAddress == "" {
		c.APIServer.ListenAddress = DefaultAPIListenAddress
	}
	for i := range c.Venues {
		if c.Venues[i].MakerFee == nil {
			fee := venue.DefaultMakerFee
			c.Venues[i].MakerFee = &fee
		}
		if c.Venues[i].TakerFee == nil {
			fee := venue.DefaultTakerFee
			c.Venues[i].TakerFee = &fee
		}
	}
	if c.Bot.RSIPeriod == 0 {
		c.Bot.RSIPeriod = DefaultRSIPeriod
	}
	if c.Bot.RSILow == 0 && c.Bot.RSIHigh == 0 {
		c.Bot.RSILow = DefaultRSILow
		c.Bot.RSIHigh = DefaultRSIHigh
	}
	if c.Bot.Enabled && c.Bot.Venue == "" && len(c.Venues) > 0 {
		c.Bot.Venue = c.Venues[0].Name
	}
	if c.Bot.Enabled && c.Bot.Symbol == "" && len(c.Venues) > 0 && len(c.Venues[0].Feeds) > 0 {
		c.Bot.Symbol = c.Venues[0].Feeds[0].Symbol
	}
}

// Validate returns every problem found in the config
func (c *Config) Validate() error {
	if c == nil {
		return errNilConfig
	}
	var errs error
	switch {
	case c.Start.IsZero() || c.End.IsZero():
		errs = common.AppendError(errs, errTimeRequired)
	case !c.End.After(c.Start):
		errs = common.AppendError(errs, fmt.Errorf("%w: %v %v", errEndBeforeStart, c.Start, c.End))
	}
	if c.Interval <= 0 {
		errs = common.AppendError(errs, fmt.Errorf("%w: %v", errInvalidInterval, time.Duration(c.Interval)))
	}
	switch c.DataSource.Type {
	case DataSourceCSV:
		if c.DataSource.CSVDirectory == "" {
			errs = common.AppendError(errs, errCSVDirectory)
		}
	case DataSourceDatabase:
		if !c.DataSource.Database.Enabled {
			errs = common.AppendError(errs, errDatabaseDisabled)
		}
	default:
		errs = common.AppendError(errs, fmt.Errorf("%w %q", errUnknownDataSource, c.DataSource.Type))
	}
	if len(c.Venues) == 0 {
		errs = common.AppendError(errs, errNoVenues)
	}
	names := make(map[string]struct{}, len(c.Venues))
	for i := range c.Venues {
		if _, ok := names[c.Venues[i].Name]; ok {
			errs = common.AppendError(errs, fmt.Errorf("%w %q", errDuplicateVenue, c.Venues[i].Name))
		}
		names[c.Venues[i].Name] = struct{}{}
		errs = common.AppendError(errs, c.Venues[i].Validate())
	}
	if c.Bot.Enabled {
		errs = common.AppendError(errs, c.validateBot())
	}
	return errs
}

func (c *Config) validateBot() error {
	var errs error
	if c.Bot.RSIPeriod < 2 {
		errs = common.AppendError(errs, fmt.Errorf("%w: %d", errInvalidRSIPeriod, c.Bot.RSIPeriod))
	}
	if c.Bot.RSILow >= c.Bot.RSIHigh {
		errs = common.AppendError(errs, fmt.Errorf("%w: %v %v", errInvalidRSIThreshold, c.Bot.RSILow, c.Bot.RSIHigh))
	}
	if !c.Bot.OrderSize.IsPositive() {
		errs = common.AppendError(errs, fmt.Errorf("%w: %s", errInvalidOrderSize, c.Bot.OrderSize))
	}
	for i := range c.Venues {
		if c.Venues[i].Name != c.Bot.Venue {
			continue
		}
		for j := range c.Venues[i].Feeds {
			if strings.EqualFold(c.Venues[i].Feeds[j].Symbol, c.Bot.Symbol) {
				return errs
			}
		}
	}
	return common.AppendError(errs, fmt.Errorf("%w: %s %s", errBotFeedNotFound, c.Bot.Venue, c.Bot.Symbol))
}

// Validate checks a single venue, the symbol table is loaded to verify feeds
func (v *VenueConfig) Validate() error {
	var errs error
	if v.Name == "" {
		errs = common.AppendError(errs, errVenueNameRequired)
	}
	if (v.MakerFee != nil && v.MakerFee.IsNegative()) || (v.TakerFee != nil && v.TakerFee.IsNegative()) {
		errs = common.AppendError(errs, fmt.Errorf("%s %w", v.Name, errNegativeFee))
	}
	for asset, amount := range v.Balances {
		if amount.IsNegative() {
			errs = common.AppendError(errs, fmt.Errorf("%s %s %w", v.Name, asset, errNegativeBalance))
		}
	}
	if len(v.Feeds) == 0 {
		errs = common.AppendError(errs, fmt.Errorf("%s %w", v.Name, errNoFeeds))
	}
	st, err := v.SymbolTable()
	if err != nil {
		return common.AppendError(errs, fmt.Errorf("%s %w", v.Name, err))
	}
	for i := range v.Feeds {
		if _, err := st.Lookup(v.Feeds[i].Symbol); err != nil {
			errs = common.AppendError(errs, fmt.Errorf("%s %s %w", v.Name, v.Feeds[i].Symbol, errUnknownFeedSymbol))
		}
		if v.Feeds[i].Spread.IsNegative() {
			errs = common.AppendError(errs, fmt.Errorf("%s %s %w", v.Name, v.Feeds[i].Symbol, errNegativeSpread))
		}
	}
	return errs
}

// SymbolTable loads the configured symbol table file and adds the inline
// symbols
func (v *VenueConfig) SymbolTable() (currency.SymbolTable, error) {
	st := make(currency.SymbolTable)
	if v.SymbolsTable != "" {
		loaded, err := currency.LoadSymbolTableFromFile(v.SymbolsTable)
		if err != nil {
			return nil, err
		}
		st = loaded
	}
	for symbol, s := range v.Symbols {
		if err := st.Add(symbol, currency.NewPairFromStrings(s.Asset, s.Quote)); err != nil {
			return nil, err
		}
	}
	return st, nil
}
