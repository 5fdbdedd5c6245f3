package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acalderon/weathertrader/internal/application/scanner"
	"github.com/acalderon/weathertrader/internal/domain"
	"github.com/acalderon/weathertrader/internal/ports"
)

// ScannerService is the minimal surface the engine needs from the scanner.
type ScannerService interface {
	RunOnce(ctx context.Context) ([]domain.Candidate, error)
}

// ForecastService refreshes the ensemble for a position's market during
// monitoring. *forecast.Resolver satisfies it.
type ForecastService interface {
	Resolve(ctx context.Context, city domain.City, date time.Time) (domain.Ensemble, error)
}

// Config holds the engine's trading parameters.
type Config struct {
	MaxOpenOrders   int     // resting entry orders at any time
	MaxPositions    int     // filled position slots
	MaxNewPerCycle  int     // entries placed per scan cycle
	CapitalBuffer   float64 // USDC always left unspent
	StopLossPct     float64 // exit when value/cost falls to this, percent
	ProfitTargetPct float64 // exit when value/cost reaches this, percent
	MinHoldEdge     float64 // exit when recomputed edge drops below, points
	TimeExitHours   float64 // exit inside this window to resolution
	StrengthenPts   float64 // edge gain over entry that flags STRENGTHEN
	CallTimeout     time.Duration
}

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		MaxOpenOrders:   3,
		MaxPositions:    10,
		MaxNewPerCycle:  3,
		CapitalBuffer:   5,
		StopLossPct:     80,
		ProfitTargetPct: 130,
		MinHoldEdge:     10,
		TimeExitHours:   4,
		StrengthenPts:   10,
		CallTimeout:     15 * time.Second,
	}
}

// Engine drives the trading loops: entry scan, order poll and position
// monitor. All state mutations go through the store; the scheduler
// serializes the loops so the engine never races itself.
type Engine struct {
	cfg      Config
	store    ports.StateStore
	exchange ports.Exchange
	forecast ForecastService
	scanner  ScannerService
	screener *scanner.Screener
	notifier ports.Notifier
	log      *slog.Logger

	now func() time.Time
}

// New wires an Engine. notifier may be nil.
func New(cfg Config, store ports.StateStore, exchange ports.Exchange, fc ForecastService, sc ScannerService, screener *scanner.Screener, notifier ports.Notifier, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultConfig().CallTimeout
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		exchange: exchange,
		forecast: fc,
		scanner:  sc,
		screener: screener,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// CancelPhantom marks orders the store knew about but the exchange did not.
const CancelPhantom = "NOT_ON_EXCHANGE"

// StartupSweep reconciles local OPEN orders against the exchange before the
// first cycle. An order the exchange no longer lists is marked cancelled so
// its capital unlocks.
func (e *Engine) StartupSweep(ctx context.Context) error {
	local, err := e.store.OpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("engine.StartupSweep: %w", err)
	}
	if len(local) == 0 {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()
	live, err := e.exchange.OpenOrderIDs(cctx)
	if err != nil {
		return fmt.Errorf("engine.StartupSweep: %w", err)
	}
	onExchange := make(map[string]bool, len(live))
	for _, id := range live {
		onExchange[id] = true
	}

	for _, o := range local {
		if onExchange[o.ExchangeOrderID] {
			continue
		}
		e.log.Warn("phantom order swept", "order", o.ID, "market", o.MarketName)
		if err := e.store.SettleOrder(ctx, o.ID, domain.OrderCancelled, CancelPhantom); err != nil {
			return fmt.Errorf("engine.StartupSweep settle %s: %w", o.ID, err)
		}
		e.emit(ctx, domain.Event{
			Type:        domain.EventOrderCancelled,
			ConditionID: o.ConditionID,
			Detail:      CancelPhantom,
			At:          e.now(),
		})
	}
	return nil
}

// emit journals an event. Sink failures are logged and dropped; the journal
// never blocks trading.
func (e *Engine) emit(ctx context.Context, ev domain.Event) {
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	if err := e.store.AppendEvent(ctx, ev); err != nil {
		e.log.Warn("event not journaled", "type", ev.Type, "err", err)
	}
}

func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.CallTimeout)
}
