package apiserver

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/venuesim/simulator"
)

var (
	errServerAlreadyRunning = errors.New("api server already running")
	errServerNotRunning     = errors.New("api server not running")
	errAddressRequired      = errors.New("listen address required")
	errInvalidStatus        = errors.New("status must be open or closed")
	errInvalidCount         = errors.New("count must be an integer")
)

// Route is a sub type that holds the request routes
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Server serves read only JSON views of a simulation
type Server struct {
	m             sync.Mutex
	sim           *simulator.Simulator
	listenAddress string
	handler       http.Handler
	server        *http.Server
}

// VenueSummary describes one venue
type VenueSummary struct {
	Name     string          `json:"name"`
	MakerFee decimal.Decimal `json:"makerFee"`
	TakerFee decimal.Decimal `json:"takerFee"`
	Time     time.Time       `json:"time"`
	Symbols  []string        `json:"symbols"`
	Open     int             `json:"openOrders"`
	Closed   int             `json:"closedOrders"`
}

// EquityResponse holds an equity valuation
type EquityResponse struct {
	Venue  string          `json:"venue,omitempty"`
	Asset  string          `json:"asset"`
	Equity decimal.Decimal `json:"equity"`
}

// ErrorResponse is returned with every non 200 status
type ErrorResponse struct {
	Error string `json:"error"`
}
