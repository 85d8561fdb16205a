package config

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/database"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
)

// Data source types
const (
	DataSourceCSV      = "csv"
	DataSourceDatabase = "database"
)

// Defaults applied by CheckValues
const (
	DefaultNickname         = "venuesim"
	DefaultAPIListenAddress = "localhost:9053"
	DefaultRSIPeriod        = 14
	DefaultRSILow           = 30
	DefaultRSIHigh          = 70
	envPrefix               = "VENUESIM"
)

var (
	errNoVenues            = errors.New("no venues configured")
	errVenueNameRequired   = errors.New("venue name required")
	errDuplicateVenue      = errors.New("duplicate venue name")
	errNegativeFee         = errors.New("fees cannot be negative")
	errNegativeBalance     = errors.New("balances cannot be negative")
	errNegativeSpread      = errors.New("spread cannot be negative")
	errEndBeforeStart      = errors.New("end must be after start")
	errTimeRequired        = errors.New("start and end required")
	errInvalidInterval     = errors.New("interval must be positive")
	errUnknownDataSource   = errors.New("unknown data source type")
	errCSVDirectory        = errors.New("csv data source requires a csvDirectory")
	errDatabaseDisabled    = errors.New("database data source requires an enabled database")
	errUnknownFeedSymbol   = errors.New("feed symbol not present in the symbol table")
	errNoFeeds             = errors.New("no feeds configured")
	errInvalidRSIPeriod    = errors.New("rsi period must be greater than one")
	errInvalidRSIThreshold = errors.New("rsi low threshold must be below the high threshold")
	errInvalidOrderSize    = errors.New("bot order size must be positive")
	errBotFeedNotFound     = errors.New("bot venue symbol is not a configured feed")
	errNilConfig           = errors.New("config is nil")
)

// Config holds a complete simulation run
type Config struct {
	Nickname   string           `json:"nickname" mapstructure:"nickname"`
	Start      time.Time        `json:"start" mapstructure:"start"`
	End        time.Time        `json:"end" mapstructure:"end"`
	Interval   kline.Interval   `json:"interval" mapstructure:"interval"`
	DataPath   string           `json:"dataPath" mapstructure:"dataPath"`
	Venues     []VenueConfig    `json:"venues" mapstructure:"venues"`
	DataSource DataSourceConfig `json:"dataSource" mapstructure:"dataSource"`
	Logging    log.Config       `json:"logging" mapstructure:"logging"`
	APIServer  APIServerConfig  `json:"apiServer" mapstructure:"apiServer"`
	Bot        BotConfig        `json:"bot" mapstructure:"bot"`
}

// VenueConfig holds one simulated venue. Symbols are read from SymbolsTable
// when set and then extended by the inline Symbols
type VenueConfig struct {
	Name         string                     `json:"name" mapstructure:"name"`
	MakerFee     *decimal.Decimal           `json:"makerFee" mapstructure:"makerFee"`
	TakerFee     *decimal.Decimal           `json:"takerFee" mapstructure:"takerFee"`
	SymbolsTable string                     `json:"symbolsTable" mapstructure:"symbolsTable"`
	Symbols      map[string]SymbolConfig    `json:"symbols" mapstructure:"symbols"`
	Feeds        []FeedConfig               `json:"feeds" mapstructure:"feeds"`
	Balances     map[string]decimal.Decimal `json:"balances" mapstructure:"balances"`
}

// SymbolConfig names the assets of an inline symbol
type SymbolConfig struct {
	Asset string `json:"asset" mapstructure:"asset"`
	Quote string `json:"quote" mapstructure:"quote"`
}

// FeedConfig holds one replayed venue symbol
type FeedConfig struct {
	Symbol string          `json:"symbol" mapstructure:"symbol"`
	Spread decimal.Decimal `json:"spread" mapstructure:"spread"`
}

// DataSourceConfig selects where historic candles are read from
type DataSourceConfig struct {
	Type         string          `json:"type" mapstructure:"type"`
	CSVDirectory string          `json:"csvDirectory" mapstructure:"csvDirectory"`
	Database     database.Config `json:"database" mapstructure:"database"`
}

// APIServerConfig holds the inspection server settings
type APIServerConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	ListenAddress string `json:"listenAddress" mapstructure:"listenAddress"`
}

// BotConfig holds the RSI example bot settings
type BotConfig struct {
	Enabled   bool            `json:"enabled" mapstructure:"enabled"`
	Venue     string          `json:"venue" mapstructure:"venue"`
	Symbol    string          `json:"symbol" mapstructure:"symbol"`
	RSIPeriod int             `json:"rsiPeriod" mapstructure:"rsiPeriod"`
	RSILow    float64         `json:"rsiLow" mapstructure:"rsiLow"`
	RSIHigh   float64         `json:"rsiHigh" mapstructure:"rsiHigh"`
	OrderSize decimal.Decimal `json:"orderSize" mapstructure:"orderSize"`
	Quote     string          `json:"quote" mapstructure:"quote"`
}
