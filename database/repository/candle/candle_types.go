package candle

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/common/cache"
	"github.com/thrasher-corp/venuesim/kline"
)

var (
	errInvalidInput = errors.New("venue, symbol, interval, start & end cannot be empty")
	errNoCandleData = errors.New("no candle data provided")
	errInvalidRow   = errors.New("invalid candle row")
	// ErrNoCandleDataFound returns when no candle data is found
	ErrNoCandleDataFound = errors.New("no candle data found")
)

// Item holds candles of one venue symbol at one interval
type Item struct {
	Venue    string
	Symbol   string
	Interval kline.Interval
	Candles  []Candle
}

// Candle is one stored row, Timestamp is the open time
type Candle struct {
	Timestamp   time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
	SourceJobID string
}

// Repository reads and writes candles through a database connection
type Repository struct {
	db      *sql.DB
	driver  string
	verbose bool
}

// csvCacheSize is the amount of parsed files a CSVSource keeps
const csvCacheSize = 64

// CSVSource reads candles from <Directory>/<venue>_<symbol>.csv files. Parsed
// files are kept so repeated runs over the same data read the disk once
type CSVSource struct {
	Directory string

	once  sync.Once
	files *cache.LRU[string, []Candle]
}
