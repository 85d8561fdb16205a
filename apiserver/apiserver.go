// Package apiserver exposes a running simulation over a read only REST
// interface
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/thrasher-corp/venuesim/common"
	"github.com/thrasher-corp/venuesim/currency"
	"github.com/thrasher-corp/venuesim/encoding/json"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/simulator"
	"github.com/thrasher-corp/venuesim/simulator/order"
	"github.com/thrasher-corp/venuesim/simulator/venue"
)

// New returns a server over sim
func New(sim *simulator.Simulator, listenAddress string) (*Server, error) {
	if sim == nil {
		return nil, fmt.Errorf("%w simulator", common.ErrNilPointer)
	}
	if listenAddress == "" {
		return nil, errAddressRequired
	}
	s := &Server{sim: sim, listenAddress: listenAddress}
	s.handler = s.newRouter()
	return s, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens in the background until Stop is called. The bound address is
// returned so ":0" can be used
func (s *Server) Start() (string, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.server != nil {
		return "", errServerAlreadyRunning
	}
	ln, err := net.Listen("tcp", s.listenAddress)
	if err != nil {
		return "", err
	}
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(log.APIServer, "REST server stopped: %v", err)
		}
	}()
	log.Infof(log.APIServer, "REST server listening on http://%s", ln.Addr())
	return ln.Addr().String(), nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.server == nil {
		return errServerNotRunning
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

// restLogger logs the requests internally
func restLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Debugf(log.APIServer, "%s\t%s\t%s\t%s", r.Method, r.RequestURI, name, time.Since(start))
	})
}

func (s *Server) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := []Route{
		{"Simulation", http.MethodGet, "/simulation", s.getSimulation},
		{"Venues", http.MethodGet, "/venues", s.getVenues},
		{"Balances", http.MethodGet, "/venues/{venue}/balances", s.getBalances},
		{"Orders", http.MethodGet, "/venues/{venue}/orders", s.getOrders},
		{"Order", http.MethodGet, "/venues/{venue}/orders/{symbol}/{id}", s.getOrder},
		{"Trades", http.MethodGet, "/venues/{venue}/trades/{symbol}", s.getTrades},
		{"VenueEquity", http.MethodGet, "/venues/{venue}/equity/{asset}", s.getVenueEquity},
		{"Equity", http.MethodGet, "/equity/{asset}", s.getEquity},
	}
	for i := range routes {
		router.
			Methods(routes[i].Method).
			Path(routes[i].Pattern).
			Name(routes[i].Name).
			Handler(restLogger(routes[i].HandlerFunc, routes[i].Name))
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		restfulError(w, r, http.StatusNotFound, fmt.Errorf("%s not found", r.URL.Path))
	})
	return router
}

// restfulJSONResponse outputs a JSON response of the response interface
func restfulJSONResponse(w http.ResponseWriter, r *http.Request, status int, response any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf(log.APIServer, "RESTful %s %s: server failed to send JSON response. Error %s", r.Method, r.URL.Path, err)
	}
}

func restfulError(w http.ResponseWriter, r *http.Request, status int, err error) {
	restfulJSONResponse(w, r, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) venue(w http.ResponseWriter, r *http.Request) (*venue.Venue, bool) {
	v, err := s.sim.Venue(mux.Vars(r)["venue"])
	if err != nil {
		restfulError(w, r, http.StatusNotFound, err)
		return nil, false
	}
	return v, true
}

func (s *Server) getSimulation(w http.ResponseWriter, r *http.Request) {
	restfulJSONResponse(w, r, http.StatusOK, s.sim.Status())
}

func (s *Server) getVenues(w http.ResponseWriter, r *http.Request) {
	venues := s.sim.Venues()
	resp := make([]VenueSummary, len(venues))
	for i := range venues {
		resp[i] = VenueSummary{
			Name:     venues[i].Name(),
			MakerFee: venues[i].MakerFee(),
			TakerFee: venues[i].TakerFee(),
			Time:     venues[i].Time(),
			Symbols:  venues[i].Symbols(),
			Open:     len(venues[i].OpenOrders()),
			Closed:   len(venues[i].ClosedOrders()),
		}
	}
	restfulJSONResponse(w, r, http.StatusOK, resp)
}

func (s *Server) getBalances(w http.ResponseWriter, r *http.Request) {
	v, ok := s.venue(w, r)
	if !ok {
		return
	}
	restfulJSONResponse(w, r, http.StatusOK, v.Balances())
}

func (s *Server) getOrders(w http.ResponseWriter, r *http.Request) {
	v, ok := s.venue(w, r)
	if !ok {
		return
	}
	var resp []order.Order
	switch r.URL.Query().Get("status") {
	case "", "open":
		resp = v.OpenOrders()
	case "closed":
		resp = v.ClosedOrders()
	default:
		restfulError(w, r, http.StatusBadRequest, errInvalidStatus)
		return
	}
	if resp == nil {
		resp = []order.Order{}
	}
	restfulJSONResponse(w, r, http.StatusOK, resp)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	v, ok := s.venue(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	o, ok := v.QueryOrder(vars["symbol"], vars["id"])
	if !ok {
		restfulError(w, r, http.StatusNotFound, fmt.Errorf("%s %s %s %w", v.Name(), vars["symbol"], vars["id"], order.ErrOrderNotFound))
		return
	}
	restfulJSONResponse(w, r, http.StatusOK, o)
}

func (s *Server) getTrades(w http.ResponseWriter, r *http.Request) {
	v, ok := s.venue(w, r)
	if !ok {
		return
	}
	count := 0
	if c := r.URL.Query().Get("count"); c != "" {
		var err error
		if count, err = strconv.Atoi(c); err != nil {
			restfulError(w, r, http.StatusBadRequest, fmt.Errorf("%w: %q", errInvalidCount, c))
			return
		}
	}
	trades, err := v.GetLastTrades(mux.Vars(r)["symbol"], count, r.URL.Query().Get("from"))
	if err != nil {
		restfulError(w, r, http.StatusNotFound, err)
		return
	}
	if trades == nil {
		trades = []order.Trade{}
	}
	restfulJSONResponse(w, r, http.StatusOK, trades)
}

func (s *Server) getVenueEquity(w http.ResponseWriter, r *http.Request) {
	v, ok := s.venue(w, r)
	if !ok {
		return
	}
	asset := currency.NewCode(mux.Vars(r)["asset"])
	restfulJSONResponse(w, r, http.StatusOK, EquityResponse{Venue: v.Name(), Asset: asset.String(), Equity: v.Equity(asset)})
}

func (s *Server) getEquity(w http.ResponseWriter, r *http.Request) {
	asset := currency.NewCode(mux.Vars(r)["asset"])
	restfulJSONResponse(w, r, http.StatusOK, EquityResponse{Asset: asset.String(), Equity: s.sim.Equity(asset)})
}
