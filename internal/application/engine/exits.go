package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acalderon/weathertrader/internal/domain"
)

// checkContext carries the refreshed market view into the exit cascade.
type checkContext struct {
	now       time.Time
	price     float64
	ensemble  *domain.Ensemble // nil when the forecast could not be refreshed
	degraded  string           // why the ensemble is missing
	openSlots bool             // room under the position cap, for STRENGTHEN
}

// MonitorPositions walks every open position through the exit cascade and
// acts on the verdicts. A position whose price fetch fails is skipped this
// cycle; a stale forecast degrades only the forecast-dependent checks.
// domain.ErrUnitMismatch aborts the whole cycle.
func (e *Engine) MonitorPositions(ctx context.Context) ([]domain.MonitorCheck, error) {
	positions, err := e.store.OpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.MonitorPositions: %w", err)
	}

	checks := make([]domain.MonitorCheck, 0, len(positions))
	for _, pos := range positions {
		cc, skip := e.refresh(ctx, pos)
		if skip {
			continue
		}
		cc.openSlots = len(positions) < e.cfg.MaxPositions

		check, err := e.evaluate(ctx, pos, cc)
		if err != nil {
			// Only a unit mismatch comes back here. Abort: a wrong unit
			// would produce wrong exits on every remaining position too.
			return nil, fmt.Errorf("engine.MonitorPositions %s: %w", pos.ID, err)
		}

		if err := e.apply(ctx, pos, check); err != nil {
			e.log.Warn("monitor action failed", "position", pos.ID, "err", err)
		}
		checks = append(checks, check)
	}

	if e.notifier != nil && len(checks) > 0 {
		if err := e.notifier.MonitorReport(ctx, checks); err != nil {
			e.log.Warn("monitor report failed", "err", err)
		}
	}
	return checks, nil
}

// refresh fetches the current price and forecast for a position. skip is
// true when not even the price is available.
func (e *Engine) refresh(ctx context.Context, pos domain.Position) (checkContext, bool) {
	cc := checkContext{now: e.now()}

	cctx, cancel := e.callCtx(ctx)
	price, err := e.exchange.Price(cctx, pos.TokenID)
	cancel()
	if err != nil {
		e.log.Warn("price unavailable, position skipped this cycle",
			"position", pos.ID, "market", pos.MarketName, "err", err)
		return cc, true
	}
	cc.price = price

	city, ok := domain.CityByName(pos.City)
	if !ok {
		cc.degraded = fmt.Sprintf("unknown city %q", pos.City)
		return cc, false
	}
	ens, err := e.forecast.Resolve(ctx, city, pos.ResolvesAt)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientSources) {
			cc.degraded = "insufficient forecast sources"
		} else {
			cc.degraded = err.Error()
		}
		e.log.Warn("forecast degraded, holding on market data only",
			"position", pos.ID, "market", pos.MarketName, "err", err)
		return cc, false
	}
	cc.ensemble = &ens
	return cc, false
}

// evaluate runs the cascade. Order is strict and the first match wins:
// consensus hold, then time exit, stop loss, edge evaporation, profit
// target, hold. The STRENGTHEN signal rides alongside and never changes
// the action.
func (e *Engine) evaluate(ctx context.Context, pos domain.Position, cc checkContext) (domain.MonitorCheck, error) {
	check := domain.MonitorCheck{
		PositionID:   pos.ID,
		ConditionID:  pos.ConditionID,
		MarketName:   pos.MarketName,
		CheckedAt:    cc.now,
		CurrentPrice: cc.price,
		Value:        pos.Value(cc.price),
		PnL:          pos.PnL(cc.price),
		PnLPct:       pos.PnLPct(cc.price),
		Forecast:     cc.ensemble,
	}

	if cc.ensemble != nil {
		consensus := cc.ensemble.Consensus.In(pos.Threshold.Unit)
		yesProb, err := domain.ImpliedProbability(consensus, pos.Threshold, cc.ensemble.Confidence)
		if err != nil {
			return check, err
		}
		check.Edge = domain.Edge(pos.Side, yesProb, cc.price)
		check.EdgeKnown = true
	}

	hold, detail, err := e.consensusHold(pos, cc)
	if err != nil {
		return check, err
	}
	valuePct := 0.0
	if pos.CostBasis > 0 {
		valuePct = check.Value / pos.CostBasis * 100
	}
	hours := pos.HoursToResolution(cc.now)

	switch {
	case hold:
		check.Action = domain.ActionHoldToResolution
		check.Detail = detail

	case hours < e.cfg.TimeExitHours:
		check.Action = domain.ActionExit
		check.ExitReason = domain.ExitTimeExit
		check.Detail = fmt.Sprintf("%.1fh to resolution", hours)

	case valuePct <= e.cfg.StopLossPct:
		check.Action = domain.ActionExit
		check.ExitReason = domain.ExitStopLoss
		check.Detail = fmt.Sprintf("value %.0f%% of cost", valuePct)

	case check.EdgeKnown && check.Edge < e.cfg.MinHoldEdge:
		check.Action = domain.ActionExit
		check.ExitReason = domain.ExitEdgeEvaporation
		check.Detail = fmt.Sprintf("edge %.1f below %.0f", check.Edge, e.cfg.MinHoldEdge)

	case valuePct >= e.cfg.ProfitTargetPct:
		check.Action = domain.ActionExit
		check.ExitReason = domain.ExitProfitTarget
		check.Detail = fmt.Sprintf("value %.0f%% of cost", valuePct)

	default:
		check.Action = domain.ActionHold
		if !check.EdgeKnown {
			check.Detail = "forecast degraded: " + cc.degraded
		}
	}

	check.Strengthen = e.strengthen(ctx, pos, cc, check)
	return check, nil
}

// strengthen reports whether the position deserves an informational
// reinforcement signal: the edge grew well past entry and a fresh entry
// would qualify again, screened with the same checks a new candidate faces.
func (e *Engine) strengthen(ctx context.Context, pos domain.Position, cc checkContext, check domain.MonitorCheck) bool {
	if check.Action == domain.ActionExit || !check.EdgeKnown || cc.ensemble == nil || !cc.openSlots {
		return false
	}
	if check.Edge < pos.EntryEdge+e.cfg.StrengthenPts {
		return false
	}
	return e.freshEntryPasses(ctx, pos, cc, check)
}

// freshEntryPasses re-runs the static entry screen against the live view of
// the position's market. The book fetch only happens once the edge gain
// already qualifies, so the extra call is rare.
func (e *Engine) freshEntryPasses(ctx context.Context, pos domain.Position, cc checkContext, check domain.MonitorCheck) bool {
	city, ok := domain.CityByName(pos.City)
	if !ok {
		return false
	}
	cctx, cancel := e.callCtx(ctx)
	book, err := e.exchange.OrderBook(cctx, pos.TokenID)
	cancel()
	if err != nil {
		e.log.Warn("book unavailable, strengthen not evaluated", "position", pos.ID, "err", err)
		return false
	}

	cand := domain.Candidate{
		Market: domain.WeatherMarket{
			ConditionID: pos.ConditionID,
			Question:    pos.MarketName,
			City:        city,
			Threshold:   pos.Threshold,
			EndDate:     pos.ResolvesAt,
		},
		Ensemble: *cc.ensemble,
		Side:     pos.Side,
		Price:    cc.price,
		BidDepth: book.BidDepthUSDC(),
		Edge:     check.Edge,
	}
	return e.screener.Recheck(&cand, cc.now)
}

// consensusHold checks whether every forecast source sits on the held side
// of the threshold by the tiered safety margin. A position that qualifies is
// held to resolution instead of being churned by price noise.
func (e *Engine) consensusHold(pos domain.Position, cc checkContext) (bool, string, error) {
	ens := cc.ensemble
	if ens == nil {
		return false, "", nil
	}
	hours := pos.HoursToResolution(cc.now)
	if hours >= 24 {
		return false, "", nil
	}
	if ens.SourceCount() < 2 || !ens.HasLocal() {
		return false, "", nil
	}
	if pos.PnLPct(cc.price) < -5 {
		return false, "", nil
	}

	margin := requiredMargin(hours, pos.Threshold.Unit)
	for _, r := range ens.Readings {
		high := r.High.In(pos.Threshold.Unit)
		d, err := high.Minus(pos.Threshold)
		if err != nil {
			return false, "", err
		}
		if pos.Side == domain.SideNo {
			d = -d
		}
		if d < margin {
			return false, "", nil
		}
	}
	detail := fmt.Sprintf("%d sources clear threshold by %.0f%s with %.1fh left",
		ens.SourceCount(), margin, pos.Threshold.Unit, hours)
	return true, detail, nil
}

// requiredMargin widens with time to resolution: a forecast 12 hours out
// needs more room to be trusted than one an hour before the market settles.
func requiredMargin(hours float64, unit domain.Unit) float64 {
	if unit == domain.UnitFahrenheit {
		switch {
		case hours > 12:
			return 5
		case hours > 6:
			return 4
		default:
			return 2
		}
	}
	switch {
	case hours > 12:
		return 3
	case hours > 6:
		return 2
	default:
		return 1
	}
}

// apply acts on a verdict: place the exit sell, flip hold status, journal.
func (e *Engine) apply(ctx context.Context, pos domain.Position, check domain.MonitorCheck) error {
	e.emit(ctx, domain.Event{
		Type:        domain.EventPositionMonitored,
		ConditionID: pos.ConditionID,
		Detail:      fmt.Sprintf("%s %s", check.Action, check.Detail),
		Payload:     check,
	})

	switch check.Action {
	case domain.ActionExit:
		return e.executeExit(ctx, pos, check)

	case domain.ActionHoldToResolution:
		if pos.Status != domain.PositionHoldToResolution {
			e.log.Info("position held to resolution", "market", pos.MarketName, "detail", check.Detail)
			return e.store.UpdatePositionStatus(ctx, pos.ID, domain.PositionHoldToResolution)
		}

	case domain.ActionHold:
		// A hold-to-resolution position whose consensus broke goes back to
		// normal monitoring.
		if pos.Status == domain.PositionHoldToResolution {
			return e.store.UpdatePositionStatus(ctx, pos.ID, domain.PositionOpen)
		}
	}
	return nil
}

// executeExit sells the full position with a GTC order. FOK would fail
// entirely on a thin book; GTC fills what it can and rests for the rest.
func (e *Engine) executeExit(ctx context.Context, pos domain.Position, check domain.MonitorCheck) error {
	req := domain.PlaceOrderRequest{
		TokenID:   pos.TokenID,
		Direction: domain.DirectionSell,
		Price:     check.CurrentPrice,
		Size:      pos.Shares,
		Kind:      domain.OrderGTC,
	}
	cctx, cancel := e.callCtx(ctx)
	placed, err := e.exchange.PlaceOrder(cctx, req)
	cancel()
	if err != nil {
		return fmt.Errorf("engine.executeExit %s: %w", pos.ID, err)
	}

	rec := domain.ExitRecord{
		PositionID:  pos.ID,
		ConditionID: pos.ConditionID,
		MarketName:  pos.MarketName,
		Side:        pos.Side,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   check.CurrentPrice,
		Shares:      pos.Shares,
		CostBasis:   pos.CostBasis,
		Proceeds:    check.Value,
		PnL:         check.PnL,
		Reason:      check.ExitReason,
		Detail:      check.Detail,
		ExitOrderID: placed.ExchangeOrderID,
		ExitedAt:    check.CheckedAt,
	}
	if rec.ExitOrderID == "" {
		rec.ExitOrderID = uuid.New().String()
	}
	if _, err := e.store.SaveExit(ctx, rec); err != nil {
		return fmt.Errorf("engine.executeExit %s: save: %w", pos.ID, err)
	}
	if err := e.store.UpdatePositionStatus(ctx, pos.ID, domain.PositionExited); err != nil {
		return fmt.Errorf("engine.executeExit %s: status: %w", pos.ID, err)
	}

	e.log.Info("position exited", "market", pos.MarketName, "reason", check.ExitReason,
		"pnl", check.PnL, "detail", check.Detail)
	e.emit(ctx, domain.Event{
		Type:        domain.EventPositionExit,
		ConditionID: pos.ConditionID,
		Detail:      fmt.Sprintf("%s pnl %.2f", check.ExitReason, check.PnL),
		Payload:     rec,
	})
	return nil
}
