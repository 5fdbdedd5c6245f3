// Package dashboard exposes a read-only JSON view of the trader's state.
// It never writes and never blocks the trading loop.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/acalderon/weathertrader/internal/domain"
	"github.com/acalderon/weathertrader/internal/ports"
)

const defaultLimit = 50

// BalanceProvider is the slice of the exchange the dashboard needs.
type BalanceProvider interface {
	Balance(ctx context.Context) (domain.Balance, error)
}

// Server serves the operator API.
type Server struct {
	store   ports.StateStore
	balance BalanceProvider
	log     *slog.Logger
	http    *http.Server
}

// NewServer builds the dashboard on addr.
func NewServer(addr string, store ports.StateStore, balance BalanceProvider, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{store: store, balance: balance, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/positions", s.handlePositions).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", s.handleOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/exits", s.handleExits).Methods(http.MethodGet)
	r.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("dashboard listening", "addr", s.http.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

type statusResponse struct {
	Revision      int64     `json:"revision"`
	UpdatedAt     time.Time `json:"updated_at"`
	BalanceUSDC   float64   `json:"balance_usdc"`
	OpenPositions int       `json:"open_positions"`
	OpenOrders    int       `json:"open_orders"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rev, updatedAt, err := s.store.Revision(ctx)
	if err != nil {
		s.fail(w, "status", err)
		return
	}
	positions, err := s.store.OpenPositions(ctx)
	if err != nil {
		s.fail(w, "status", err)
		return
	}
	orders, err := s.store.OpenOrders(ctx)
	if err != nil {
		s.fail(w, "status", err)
		return
	}

	resp := statusResponse{
		Revision:      rev,
		UpdatedAt:     updatedAt,
		OpenPositions: len(positions),
		OpenOrders:    len(orders),
	}
	// A balance fetch failure degrades the field, not the endpoint.
	if bal, err := s.balance.Balance(ctx); err == nil {
		resp.BalanceUSDC = bal.USDC
	} else {
		s.log.Warn("dashboard balance fetch failed", "err", err)
	}

	s.respond(w, resp)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.OpenPositions(r.Context())
	if err != nil {
		s.fail(w, "positions", err)
		return
	}
	s.respond(w, positions)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.OpenOrders(r.Context())
	if err != nil {
		s.fail(w, "orders", err)
		return
	}
	s.respond(w, orders)
}

func (s *Server) handleExits(w http.ResponseWriter, r *http.Request) {
	exits, err := s.store.Exits(r.Context(), limitParam(r))
	if err != nil {
		s.fail(w, "exits", err)
		return
	}
	s.respond(w, exits)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Events(r.Context(), limitParam(r))
	if err != nil {
		s.fail(w, "events", err)
		return
	}
	s.respond(w, events)
}

func limitParam(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			return n
		}
	}
	return defaultLimit
}

func (s *Server) respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("dashboard encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, err error) {
	s.log.Error("dashboard query failed", "endpoint", endpoint, "err", err)
	http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
}
