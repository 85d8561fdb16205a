// Package candle stores historic candles and serves them to simulation runs
package candle

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/venuesim/database"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/volatiletech/null"
)

var schema = map[string]string{
	database.DBSQLite3: `CREATE TABLE IF NOT EXISTS candle (
		id text NOT NULL PRIMARY KEY,
		venue text NOT NULL,
		symbol text NOT NULL,
		interval integer NOT NULL,
		timestamp text NOT NULL,
		open text NOT NULL,
		high text NOT NULL,
		low text NOT NULL,
		close text NOT NULL,
		volume text NOT NULL,
		source_job_id text,
		UNIQUE(timestamp, venue, symbol, interval)
	);`,
	database.DBPostgreSQL: `CREATE TABLE IF NOT EXISTS candle (
		id uuid NOT NULL PRIMARY KEY,
		venue varchar(128) NOT NULL,
		symbol varchar(64) NOT NULL,
		interval bigint NOT NULL,
		timestamp timestamptz NOT NULL,
		open numeric NOT NULL,
		high numeric NOT NULL,
		low numeric NOT NULL,
		close numeric NOT NULL,
		volume numeric NOT NULL,
		source_job_id text,
		UNIQUE(timestamp, venue, symbol, interval)
	);`,
}

const upsertQuery = `INSERT INTO candle
	(id, venue, symbol, interval, timestamp, open, high, low, close, volume, source_job_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (timestamp, venue, symbol, interval) DO UPDATE SET
	open = excluded.open, high = excluded.high, low = excluded.low,
	close = excluded.close, volume = excluded.volume, source_job_id = excluded.source_job_id`

const seriesQuery = `SELECT timestamp, open, high, low, close, volume, source_job_id FROM candle
	WHERE venue = $1 AND symbol = $2 AND interval = $3 AND timestamp >= $4 AND timestamp < $5
	ORDER BY timestamp`

const deleteQuery = `DELETE FROM candle
	WHERE venue = $1 AND symbol = $2 AND interval = $3 AND timestamp >= $4 AND timestamp <= $5`

// New returns a repository over a connected database instance
func New(i *database.Instance) (*Repository, error) {
	con := i.GetSQL()
	if con == nil {
		return nil, database.ErrDatabaseSupportDisabled
	}
	driver := i.Driver()
	if _, ok := schema[driver]; !ok {
		return nil, fmt.Errorf("%w %q", database.ErrUnsupportedDriver, driver)
	}
	return &Repository{db: con, driver: driver, verbose: i.GetConfig().Verbose}, nil
}

// CreateSchema creates the candle table when it does not exist
func (r *Repository) CreateSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema[r.driver])
	return err
}

// Insert upserts a series of candles in one transaction
func (r *Repository) Insert(ctx context.Context, in *Item) (uint64, error) {
	if r == nil || r.db == nil {
		return 0, database.ErrDatabaseSupportDisabled
	}
	if err := in.validate(); err != nil {
		return 0, err
	}
	if len(in.Candles) < 1 {
		return 0, errNoCandleData
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	totalInserted, err := r.insert(ctx, tx, in)
	if err != nil {
		if errRB := tx.Rollback(); errRB != nil {
			log.Errorln(log.DatabaseMgr, errRB)
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Debugf(log.DatabaseMgr, "inserted %d %s %s %s candles", totalInserted, in.Venue, in.Symbol, in.Interval)
	return totalInserted, nil
}

func (r *Repository) insert(ctx context.Context, tx *sql.Tx, in *Item) (uint64, error) {
	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, err
	}
	defer func() {
		if errC := stmt.Close(); errC != nil {
			log.Errorln(log.DatabaseMgr, errC)
		}
	}()

	symbol := strings.ToUpper(in.Symbol)
	interval := int64(in.Interval.Duration().Seconds())
	var totalInserted uint64
	for x := range in.Candles {
		id, err := uuid.NewV4()
		if err != nil {
			return 0, err
		}
		c := &in.Candles[x]
		_, err = stmt.ExecContext(ctx,
			id.String(),
			in.Venue,
			symbol,
			interval,
			r.timestampValue(c.Timestamp),
			c.Open,
			c.High,
			c.Low,
			c.Close,
			c.Volume,
			null.NewString(c.SourceJobID, c.SourceJobID != ""),
		)
		if err != nil {
			return 0, fmt.Errorf("%s %s %v: %w", in.Venue, symbol, c.Timestamp, err)
		}
		if totalInserted < math.MaxUint64 {
			totalInserted++
		}
	}
	return totalInserted, nil
}

// Series returns the candles opening within [start, end) ordered by timestamp
func (r *Repository) Series(ctx context.Context, venue, symbol string, interval kline.Interval, start, end time.Time) (Item, error) {
	out := Item{Venue: venue, Symbol: strings.ToUpper(symbol), Interval: interval}
	if r == nil || r.db == nil {
		return out, database.ErrDatabaseSupportDisabled
	}
	if err := out.validate(); err != nil {
		return out, err
	}
	if start.IsZero() || end.IsZero() {
		return out, errInvalidInput
	}
	if r.verbose {
		log.Debugf(log.DatabaseMgr, "SQL: %s [%s %s %s %v %v]", seriesQuery, venue, out.Symbol, interval, start, end)
	}

	rows, err := r.db.QueryContext(ctx, seriesQuery,
		venue, out.Symbol, int64(interval.Duration().Seconds()),
		r.timestampValue(start), r.timestampValue(end))
	if err != nil {
		return out, err
	}
	defer func() {
		if errC := rows.Close(); errC != nil {
			log.Errorln(log.DatabaseMgr, errC)
		}
	}()

	for rows.Next() {
		var (
			c     Candle
			ts    any
			jobID null.String
		)
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &jobID); err != nil {
			return out, err
		}
		if c.Timestamp, err = parseTimestamp(ts); err != nil {
			return out, err
		}
		c.SourceJobID = jobID.String
		out.Candles = append(out.Candles, c)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	if len(out.Candles) < 1 {
		return out, fmt.Errorf("%w: %s %s %s", ErrNoCandleDataFound, venue, out.Symbol, interval)
	}
	return out, nil
}

// DeleteCandles removes stored candles between the first and last candle of in
func (r *Repository) DeleteCandles(ctx context.Context, in *Item) (int64, error) {
	if r == nil || r.db == nil {
		return 0, database.ErrDatabaseSupportDisabled
	}
	if err := in.validate(); err != nil {
		return 0, err
	}
	if len(in.Candles) < 1 {
		return 0, errNoCandleData
	}
	res, err := r.db.ExecContext(ctx, deleteQuery,
		in.Venue,
		strings.ToUpper(in.Symbol),
		int64(in.Interval.Duration().Seconds()),
		r.timestampValue(in.Candles[0].Timestamp),
		r.timestampValue(in.Candles[len(in.Candles)-1].Timestamp))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Candles returns the stored candles of a venue symbol as simulation candles
func (r *Repository) Candles(ctx context.Context, venue, symbol string, interval kline.Interval, start, end time.Time) ([]kline.Candle, error) {
	item, err := r.Series(ctx, venue, symbol, interval, start, end)
	if err != nil {
		return nil, err
	}
	return item.KlineCandles(), nil
}

// KlineCandles converts the stored rows, close time is open time plus the interval
func (i *Item) KlineCandles() []kline.Candle {
	resp := make([]kline.Candle, len(i.Candles))
	for x := range i.Candles {
		resp[x] = i.Candles[x].kline(i.Interval)
	}
	return resp
}

func (c *Candle) kline(interval kline.Interval) kline.Candle {
	return kline.Candle{
		OpenTime:  c.Timestamp,
		CloseTime: c.Timestamp.Add(interval.Duration()),
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}

func (i *Item) validate() error {
	if i == nil || i.Venue == "" || i.Symbol == "" || i.Interval <= 0 {
		return errInvalidInput
	}
	return nil
}

// timestampValue stores sqlite3 times as RFC3339 text so range queries
// compare lexically
func (r *Repository) timestampValue(t time.Time) any {
	if r.driver == database.DBSQLite3 {
		return t.UTC().Format(time.RFC3339)
	}
	return t.UTC()
}

func parseTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC(), nil
	case string:
		return time.Parse(time.RFC3339, ts)
	case []byte:
		return time.Parse(time.RFC3339, string(ts))
	default:
		return time.Time{}, fmt.Errorf("%w: unexpected timestamp type %T", errInvalidRow, v)
	}
}
