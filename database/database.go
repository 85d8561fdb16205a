// Package database opens the sqlite3 or postgres connection used by the
// candle repository
package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	// registers the postgres driver
	_ "github.com/lib/pq"
	// registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/thrasher-corp/venuesim/log"
)

// Connect opens the configured database. Relative sqlite3 paths are resolved
// against dataPath
func Connect(cfg *Config, dataPath string) (*Instance, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if !cfg.Enabled {
		return nil, ErrDatabaseSupportDisabled
	}
	i := &Instance{DataPath: dataPath}
	if err := i.SetConfig(cfg); err != nil {
		return nil, err
	}
	var err error
	switch cfg.Driver {
	case DBSQLite3:
		err = i.connectSQLite()
	case DBPostgreSQL:
		err = i.connectPostgres()
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	i.SetConnected(true)
	log.Debugf(log.DatabaseMgr, "connected to %s database %s", cfg.Driver, cfg.Database)
	return i, nil
}

func (i *Instance) connectSQLite() error {
	if i.config.Database == "" {
		return ErrNoDatabaseProvided
	}
	location := i.config.Database
	if !filepath.IsAbs(location) && i.DataPath != "" {
		location = filepath.Join(i.DataPath, location)
	}
	con, err := sql.Open(DBSQLite3, location)
	if err != nil {
		return err
	}
	i.SetSQLiteConnection(con)
	return nil
}

func (i *Instance) connectPostgres() error {
	if i.config.Database == "" {
		return ErrNoDatabaseProvided
	}
	if i.config.Host == "" {
		return errNoHost
	}
	sslMode := i.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		i.config.Host,
		i.config.Port,
		i.config.Username,
		i.config.Password,
		i.config.Database,
		sslMode)
	con, err := sql.Open(DBPostgreSQL, dsn)
	if err != nil {
		return err
	}
	if err := i.SetPostgresConnection(con); err != nil {
		if closeErr := con.Close(); closeErr != nil {
			log.Errorln(log.DatabaseMgr, closeErr)
		}
		return err
	}
	return nil
}

// SetConfig safely sets the instance config
func (i *Instance) SetConfig(cfg *Config) error {
	if i == nil {
		return errNilInstance
	}
	if cfg == nil {
		return errNilConfig
	}
	i.m.Lock()
	i.config = cfg
	i.m.Unlock()
	return nil
}

// SetSQLiteConnection sets the connection, sqlite3 only permits a single writer
func (i *Instance) SetSQLiteConnection(con *sql.DB) {
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(1)
}

// SetPostgresConnection pings and then sets the connection
func (i *Instance) SetPostgresConnection(con *sql.DB) error {
	if err := con.Ping(); err != nil {
		return err
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(2)
	i.SQL.SetMaxIdleConns(1)
	i.SQL.SetConnMaxLifetime(time.Hour)
	return nil
}

// SetConnected safely sets the connected status
func (i *Instance) SetConnected(v bool) {
	i.m.Lock()
	i.connected = v
	i.m.Unlock()
}

// CloseConnection closes the connection
func (i *Instance) CloseConnection() error {
	if i == nil {
		return errNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	if i.SQL == nil {
		return errNilSQL
	}
	i.connected = false
	return i.SQL.Close()
}

// IsConnected safely checks the SQL connection status
func (i *Instance) IsConnected() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// GetConfig safely returns a copy of the config
func (i *Instance) GetConfig() Config {
	i.m.RLock()
	defer i.m.RUnlock()
	if i.config == nil {
		return Config{}
	}
	return *i.config
}

// Driver returns the configured driver name
func (i *Instance) Driver() string {
	return i.GetConfig().Driver
}

// Ping pings the database
func (i *Instance) Ping() error {
	if i == nil {
		return errNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return errNilSQL
	}
	return i.SQL.Ping()
}

// GetSQL returns the connection or nil when not connected
func (i *Instance) GetSQL() *sql.DB {
	if !i.IsConnected() {
		return nil
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.SQL
}
