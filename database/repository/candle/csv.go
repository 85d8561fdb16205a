package candle

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/common/cache"
	"github.com/thrasher-corp/venuesim/common/convert"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
)

// LoadCSV parses timestamp,volume,open,high,low,close rows where timestamp
// is the open time in unix seconds
func LoadCSV(r io.Reader) ([]Candle, error) {
	csvData := csv.NewReader(r)
	csvData.FieldsPerRecord = 6
	csvData.TrimLeadingSpace = true
	var resp []Candle
	for line := 1; ; line++ {
		row, err := csvData.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		c, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		resp = append(resp, c)
	}
	return resp, nil
}

func parseRow(row []string) (Candle, error) {
	var c Candle
	ts, err := convert.UnixTimestampStrToTime(row[0])
	if err != nil {
		return c, fmt.Errorf("%w timestamp: %v", errInvalidRow, err)
	}
	if ts.Unix() <= 0 {
		return c, fmt.Errorf("%w timestamp %q", errInvalidRow, row[0])
	}
	c.Timestamp = ts
	fields := []*decimal.Decimal{&c.Volume, &c.Open, &c.High, &c.Low, &c.Close}
	for i := range fields {
		*fields[i], err = convert.DecimalFromString(row[i+1])
		if err != nil {
			return c, fmt.Errorf("%w value: %v", errInvalidRow, err)
		}
	}
	return c, nil
}

// InsertFromCSV loads a CSV list of candle data and inserts it into the database
func (r *Repository) InsertFromCSV(ctx context.Context, venue, symbol string, interval kline.Interval, file, sourceJobID string) (uint64, error) {
	candles, err := readCSVFile(file)
	if err != nil {
		return 0, err
	}
	for i := range candles {
		candles[i].SourceJobID = sourceJobID
	}
	return r.Insert(ctx, &Item{
		Venue:    venue,
		Symbol:   symbol,
		Interval: interval,
		Candles:  candles,
	})
}

func readCSVFile(file string) ([]Candle, error) {
	csvFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		if errC := csvFile.Close(); errC != nil {
			log.Errorln(log.Global, errC)
		}
	}()
	return LoadCSV(csvFile)
}

// Path returns the file read for a venue symbol
func (s *CSVSource) Path(venue, symbol string) string {
	return filepath.Join(s.Directory, venue+"_"+strings.ToUpper(symbol)+".csv")
}

// Candles reads the venue symbol file and returns the candles opening within
// [start, end) ordered by open time
func (s *CSVSource) Candles(_ context.Context, venue, symbol string, interval kline.Interval, start, end time.Time) ([]kline.Candle, error) {
	if venue == "" || symbol == "" || interval <= 0 {
		return nil, errInvalidInput
	}
	rows, err := s.rows(s.Path(venue, symbol))
	if err != nil {
		return nil, err
	}
	item := Item{Venue: venue, Symbol: symbol, Interval: interval}
	for i := range rows {
		if rows[i].Timestamp.Before(start) || !rows[i].Timestamp.Before(end) {
			continue
		}
		item.Candles = append(item.Candles, rows[i])
	}
	if len(item.Candles) < 1 {
		return nil, fmt.Errorf("%w: %s", ErrNoCandleDataFound, s.Path(venue, symbol))
	}
	sortCandles(item.Candles)
	return item.KlineCandles(), nil
}

// rows returns the parsed file, reading it on first use. Callers must not
// modify the returned slice
func (s *CSVSource) rows(path string) ([]Candle, error) {
	s.once.Do(func() {
		s.files = cache.NewLRU[string, []Candle](csvCacheSize)
	})
	if rows, ok := s.files.Get(path); ok {
		return rows, nil
	}
	rows, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}
	s.files.Add(path, rows)
	return rows, nil
}

func sortCandles(c []Candle) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Timestamp.Before(c[j].Timestamp)
	})
}
