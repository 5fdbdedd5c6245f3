package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

// fakeStore is an in-memory ports.StateStore.
type fakeStore struct {
	mu        sync.Mutex
	positions map[string]domain.Position
	orders    map[string]domain.OpenOrder
	exits     []domain.ExitRecord
	events    []domain.Event
	rev       int64
	revAt     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		positions: make(map[string]domain.Position),
		orders:    make(map[string]domain.OpenOrder),
	}
}

func (s *fakeStore) bump() { s.rev++; s.revAt = time.Now() }

func (s *fakeStore) SavePosition(_ context.Context, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[p.ID] = p
	s.bump()
	return nil
}

func (s *fakeStore) UpdatePositionStatus(_ context.Context, id string, status domain.PositionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return fmt.Errorf("position %s not found", id)
	}
	p.Status = status
	s.positions[id] = p
	s.bump()
	return nil
}

func (s *fakeStore) ReduceShares(_ context.Context, id string, remaining float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return fmt.Errorf("position %s not found", id)
	}
	p.Shares = remaining
	s.positions[id] = p
	s.bump()
	return nil
}

func (s *fakeStore) OpenPositions(context.Context) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Position
	for _, p := range s.positions {
		if p.Status != domain.PositionExited {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveOrder(_ context.Context, o domain.OpenOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	s.bump()
	return nil
}

func (s *fakeStore) SettleOrder(_ context.Context, id string, status domain.OrderStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	if o.Status.Terminal() {
		return nil
	}
	o.Status = status
	o.CancelReason = reason
	s.orders[id] = o
	s.bump()
	return nil
}

func (s *fakeStore) OpenOrders(context.Context) ([]domain.OpenOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OpenOrder
	for _, o := range s.orders {
		if o.Status == domain.OrderOpen {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) HasExposure(_ context.Context, conditionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.positions {
		if p.ConditionID == conditionID && p.Status != domain.PositionExited {
			return true, nil
		}
	}
	for _, o := range s.orders {
		if o.ConditionID == conditionID && o.Status == domain.OrderOpen {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) SaveExit(_ context.Context, r domain.ExitRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.exits) + 1)
	s.exits = append(s.exits, r)
	s.bump()
	return r.ID, nil
}

func (s *fakeStore) Exits(context.Context, int) ([]domain.ExitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ExitRecord(nil), s.exits...), nil
}

func (s *fakeStore) AppendEvent(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = int64(len(s.events) + 1)
	s.events = append(s.events, ev)
	s.bump()
	return nil
}

func (s *fakeStore) Events(context.Context, int) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...), nil
}

func (s *fakeStore) Revision(context.Context) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev, s.revAt, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) eventTypes() []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventType, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

// fakeExchange is an in-memory ports.Exchange.
type fakeExchange struct {
	mu        sync.Mutex
	balance   float64
	prices    map[string]float64
	books     map[string]domain.OrderBook
	states    map[string]domain.OrderState
	cancelErr map[string]error
	placeErr  error
	placed    []domain.PlaceOrderRequest
	cancelled []string
	openIDs   []string
	nextID    int
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		balance:   500,
		prices:    make(map[string]float64),
		books:     make(map[string]domain.OrderBook),
		states:    make(map[string]domain.OrderState),
		cancelErr: make(map[string]error),
	}
}

func (x *fakeExchange) PlaceOrder(_ context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.placeErr != nil {
		return domain.PlacedOrder{}, x.placeErr
	}
	x.placed = append(x.placed, req)
	x.nextID++
	return domain.PlacedOrder{ExchangeOrderID: fmt.Sprintf("ex-%d", x.nextID)}, nil
}

func (x *fakeExchange) CancelOrder(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.cancelErr[id]; err != nil {
		return err
	}
	x.cancelled = append(x.cancelled, id)
	return nil
}

func (x *fakeExchange) OrderState(_ context.Context, id string) (domain.OrderState, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	st, ok := x.states[id]
	if !ok {
		return domain.OrderState{Status: domain.OrderOpen}, nil
	}
	return st, nil
}

func (x *fakeExchange) Price(_ context.Context, tokenID string) (float64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	p, ok := x.prices[tokenID]
	if !ok {
		return 0, fmt.Errorf("no price for %s", tokenID)
	}
	return p, nil
}

func (x *fakeExchange) OrderBook(_ context.Context, tokenID string) (domain.OrderBook, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if b, ok := x.books[tokenID]; ok {
		return b, nil
	}
	return domain.OrderBook{TokenID: tokenID}, nil
}

func (x *fakeExchange) Balance(context.Context) (domain.Balance, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return domain.Balance{USDC: x.balance}, nil
}

func (x *fakeExchange) OpenOrderIDs(context.Context) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.openIDs...), nil
}

// fakeForecast returns a canned ensemble per city name.
type fakeForecast struct {
	ensembles map[string]domain.Ensemble
	errs      map[string]error
}

func (f fakeForecast) Resolve(_ context.Context, city domain.City, _ time.Time) (domain.Ensemble, error) {
	if err := f.errs[city.Name]; err != nil {
		return domain.Ensemble{}, err
	}
	return f.ensembles[city.Name], nil
}

// fakeScanner returns canned candidates.
type fakeScanner struct {
	cands []domain.Candidate
	err   error
}

func (f fakeScanner) RunOnce(context.Context) ([]domain.Candidate, error) {
	return f.cands, f.err
}
