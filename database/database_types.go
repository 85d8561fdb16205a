package database

import (
	"database/sql"
	"errors"
	"sync"
)

// Supported drivers
const (
	DBSQLite3    = "sqlite3"
	DBPostgreSQL = "postgres"
)

var (
	// ErrDatabaseSupportDisabled is returned when a repository is used without
	// a connection
	ErrDatabaseSupportDisabled = errors.New("database support is disabled")
	// ErrNoDatabaseProvided is returned when no database name is configured
	ErrNoDatabaseProvided = errors.New("no database provided")
	// ErrUnsupportedDriver is returned for drivers other than sqlite3 and postgres
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	errNilInstance = errors.New("database instance is nil")
	errNilConfig   = errors.New("database config is nil")
	errNilSQL      = errors.New("database SQL connection is nil")
	errNoHost      = errors.New("postgres host required")
)

// Config holds the database connection configuration
type Config struct {
	Enabled           bool   `json:"enabled" mapstructure:"enabled"`
	Verbose           bool   `json:"verbose" mapstructure:"verbose"`
	Driver            string `json:"driver" mapstructure:"driver"`
	ConnectionDetails `mapstructure:",squash"`
}

// ConnectionDetails holds the DSN information
type ConnectionDetails struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     uint16 `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
}

// Instance holds an open connection and the config used to open it
type Instance struct {
	SQL       *sql.DB
	DataPath  string
	config    *Config
	connected bool
	m         sync.RWMutex
}
