package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/acalderon/weathertrader/internal/domain"
)

// PlaceEntry turns a qualifying candidate into a resting GTC order. It
// re-checks the guardrails and re-validates price and edge against live data
// immediately before placing; a market that moved away since the scan comes
// back as domain.ErrStaleData, a breached limit as domain.ErrGuardrail.
func (e *Engine) PlaceEntry(ctx context.Context, cand domain.Candidate) (domain.OpenOrder, error) {
	if err := e.checkGuardrails(ctx, cand.Market.ConditionID); err != nil {
		return domain.OpenOrder{}, err
	}

	cctx, cancel := e.callCtx(ctx)
	bal, err := e.exchange.Balance(cctx)
	cancel()
	if err != nil {
		return domain.OpenOrder{}, fmt.Errorf("engine.PlaceEntry: balance: %w", err)
	}
	avail, err := e.AvailableCapital(ctx)
	if err != nil {
		return domain.OpenOrder{}, err
	}
	stake := stakeFor(bal.USDC, avail)
	if stake <= 0 {
		return domain.OpenOrder{}, fmt.Errorf("engine.PlaceEntry: stake 0 at balance %.2f available %.2f: %w",
			bal.USDC, avail, domain.ErrGuardrail)
	}

	// Live re-validation: the scan snapshot may be stale by now.
	tokenID := cand.Market.TokenFor(cand.Side)
	cctx, cancel = e.callCtx(ctx)
	price, err := e.exchange.Price(cctx, tokenID)
	cancel()
	if err != nil {
		return domain.OpenOrder{}, fmt.Errorf("engine.PlaceEntry: price %s: %w", tokenID, err)
	}
	liveEdge := domain.Edge(cand.Side, cand.YesProb, price)
	if liveEdge < e.screener.MinEdge(cand.Market.City) {
		return domain.OpenOrder{}, fmt.Errorf("engine.PlaceEntry: edge %.1f at live price %.2f: %w",
			liveEdge, price, domain.ErrStaleData)
	}

	size := math.Floor(stake/price*100) / 100
	req := domain.PlaceOrderRequest{
		TokenID:   tokenID,
		Direction: domain.DirectionBuy,
		Price:     price,
		Size:      size,
		Kind:      domain.OrderGTC,
	}
	cctx, cancel = e.callCtx(ctx)
	placed, err := e.exchange.PlaceOrder(cctx, req)
	cancel()
	if err != nil {
		return domain.OpenOrder{}, fmt.Errorf("engine.PlaceEntry: place: %w", err)
	}

	now := e.now()
	order := domain.OpenOrder{
		ID:              uuid.New().String(),
		ExchangeOrderID: placed.ExchangeOrderID,
		ConditionID:     cand.Market.ConditionID,
		TokenID:         tokenID,
		MarketName:      cand.Market.Question,
		Side:            cand.Side,
		Price:           price,
		Amount:          price * size,
		Size:            size,
		EntryEdge:       liveEdge,
		Confidence:      cand.Ensemble.Confidence,
		Sources:         cand.Ensemble.SourceNames(),
		City:            cand.Market.City.Name,
		Threshold:       cand.Market.Threshold,
		ResolvesAt:      cand.Market.EndDate,
		LocalUsed:       cand.Ensemble.HasLocal(),
		PlacedAt:        now,
		ExpiresAt:       now.Add(domain.OrderTTL),
		Status:          domain.OrderOpen,
	}
	if err := e.store.SaveOrder(ctx, order); err != nil {
		return domain.OpenOrder{}, fmt.Errorf("engine.PlaceEntry: save: %w", err)
	}

	e.log.Info("entry placed", "market", order.MarketName, "side", order.Side,
		"price", order.Price, "size", order.Size, "edge", order.EntryEdge)
	e.emit(ctx, domain.Event{
		Type:        domain.EventOrderPlaced,
		ConditionID: order.ConditionID,
		Detail:      fmt.Sprintf("%s %.2f x %.2f edge %.1f", order.Side, order.Price, order.Size, order.EntryEdge),
		Payload:     order,
	})
	return order, nil
}

func (e *Engine) checkGuardrails(ctx context.Context, conditionID string) error {
	orders, err := e.store.OpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("engine.checkGuardrails: %w", err)
	}
	if len(orders) >= e.cfg.MaxOpenOrders {
		return fmt.Errorf("engine.checkGuardrails: %d open orders: %w", len(orders), domain.ErrGuardrail)
	}

	positions, err := e.store.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("engine.checkGuardrails: %w", err)
	}
	if len(positions) >= e.cfg.MaxPositions {
		return fmt.Errorf("engine.checkGuardrails: %d positions: %w", len(positions), domain.ErrGuardrail)
	}

	exposed, err := e.store.HasExposure(ctx, conditionID)
	if err != nil {
		return fmt.Errorf("engine.checkGuardrails: %w", err)
	}
	if exposed {
		return fmt.Errorf("engine.checkGuardrails: %s already has exposure: %w", conditionID, domain.ErrGuardrail)
	}
	return nil
}

// PollResult summarizes one order poll cycle.
type PollResult struct {
	Checked   int
	Filled    int
	Cancelled int
}

// PollOrders walks every OPEN order: settle fills into positions, pull
// orders past their TTL. One failing order logs and the rest continue;
// polling an order that turned terminal since the last cycle is a no-op.
func (e *Engine) PollOrders(ctx context.Context) (PollResult, error) {
	orders, err := e.store.OpenOrders(ctx)
	if err != nil {
		return PollResult{}, fmt.Errorf("engine.PollOrders: %w", err)
	}

	var res PollResult
	for _, o := range orders {
		res.Checked++
		outcome, err := e.pollOne(ctx, o)
		if err != nil {
			e.log.Warn("order poll failed", "order", o.ID, "market", o.MarketName, "err", err)
			continue
		}
		switch outcome {
		case pollFilled:
			res.Filled++
		case pollCancelled:
			res.Cancelled++
		}
	}
	return res, nil
}

type pollOutcome int

const (
	pollNoChange pollOutcome = iota
	pollFilled
	pollCancelled
)

func (e *Engine) pollOne(ctx context.Context, o domain.OpenOrder) (pollOutcome, error) {
	cctx, cancel := e.callCtx(ctx)
	state, err := e.exchange.OrderState(cctx, o.ExchangeOrderID)
	cancel()
	if err != nil {
		return pollNoChange, fmt.Errorf("state: %w", err)
	}

	switch {
	case state.Status == domain.OrderFilled:
		return e.settleFill(ctx, o, state)

	case o.Expired(e.now()):
		return e.cancelExpired(ctx, o)
	}
	return pollNoChange, nil
}

// settleFill converts a filled order into a position. Safe to call twice for
// the same order: the store ignores a settle on a terminal order and the
// position save is keyed by the order's id.
func (e *Engine) settleFill(ctx context.Context, o domain.OpenOrder, state domain.OrderState) (pollOutcome, error) {
	entryPrice := state.AvgPrice
	if entryPrice <= 0 {
		entryPrice = o.Price
	}
	shares := state.FilledSize
	if shares <= 0 {
		shares = o.Size
	}

	pos := domain.Position{
		ID:          o.ID,
		ConditionID: o.ConditionID,
		TokenID:     o.TokenID,
		MarketName:  o.MarketName,
		Side:        o.Side,
		EntryPrice:  entryPrice,
		Shares:      shares,
		CostBasis:   entryPrice * shares,
		EntryEdge:   o.EntryEdge,
		Confidence:  o.Confidence,
		Sources:     o.Sources,
		City:        o.City,
		Threshold:   o.Threshold,
		ResolvesAt:  o.ResolvesAt,
		LocalUsed:   o.LocalUsed,
		OpenedAt:    e.now(),
		Status:      domain.PositionOpen,
	}
	if err := e.store.SavePosition(ctx, pos); err != nil {
		return pollNoChange, fmt.Errorf("save position: %w", err)
	}
	if err := e.store.SettleOrder(ctx, o.ID, domain.OrderFilled, ""); err != nil {
		return pollNoChange, fmt.Errorf("settle: %w", err)
	}

	e.log.Info("order filled", "market", o.MarketName, "side", o.Side,
		"price", entryPrice, "shares", shares)
	e.emit(ctx, domain.Event{
		Type:        domain.EventOrderFilled,
		ConditionID: o.ConditionID,
		Detail:      fmt.Sprintf("%s filled %.2f @ %.2f", o.Side, shares, entryPrice),
		Payload:     pos,
	})
	return pollFilled, nil
}

// cancelExpired pulls an order past its TTL. A cancel the exchange rejects
// usually means the order just filled; re-poll and trust the exchange.
func (e *Engine) cancelExpired(ctx context.Context, o domain.OpenOrder) (pollOutcome, error) {
	cctx, cancel := e.callCtx(ctx)
	err := e.exchange.CancelOrder(cctx, o.ExchangeOrderID)
	cancel()
	if err != nil {
		cctx, cancel := e.callCtx(ctx)
		state, serr := e.exchange.OrderState(cctx, o.ExchangeOrderID)
		cancel()
		if serr != nil {
			return pollNoChange, fmt.Errorf("cancel: %w (re-poll: %v)", err, serr)
		}
		if state.Status == domain.OrderFilled {
			return e.settleFill(ctx, o, state)
		}
		return pollNoChange, fmt.Errorf("cancel rejected, order still %s: %w", state.Status, err)
	}

	if err := e.store.SettleOrder(ctx, o.ID, domain.OrderCancelled, domain.CancelTTLExpired); err != nil {
		return pollNoChange, fmt.Errorf("settle cancel: %w", err)
	}
	e.log.Info("order expired", "market", o.MarketName, "ttl", domain.OrderTTL)
	e.emit(ctx, domain.Event{
		Type:        domain.EventOrderCancelled,
		ConditionID: o.ConditionID,
		Detail:      domain.CancelTTLExpired,
	})
	return pollCancelled, nil
}

// Scan runs a full entry cycle: scan the markets, journal the outcome and
// place orders for the best qualifying candidates up to the per-cycle cap.
func (e *Engine) Scan(ctx context.Context) ([]domain.Candidate, error) {
	cands, err := e.scanner.RunOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.Scan: %w", err)
	}

	qualified := 0
	for _, c := range cands {
		if c.Qualifies() {
			qualified++
		}
	}
	e.emit(ctx, domain.Event{
		Type:    domain.EventScanResult,
		Detail:  fmt.Sprintf("%d analyzed, %d qualified", len(cands), qualified),
		Payload: scanSummary(cands),
	})

	placed := 0
	for _, c := range cands {
		if !c.Qualifies() || placed >= e.cfg.MaxNewPerCycle {
			continue
		}
		_, err := e.PlaceEntry(ctx, c)
		switch {
		case err == nil:
			placed++
		case errors.Is(err, domain.ErrGuardrail), errors.Is(err, domain.ErrStaleData):
			e.log.Info("entry skipped", "market", c.Market.Question, "reason", err)
		default:
			e.log.Warn("entry failed", "market", c.Market.Question, "err", err)
		}
	}

	if e.notifier != nil {
		if err := e.notifier.ScanReport(ctx, cands); err != nil {
			e.log.Warn("scan report failed", "err", err)
		}
	}
	return cands, nil
}

type candidateSummary struct {
	Market   string  `json:"market"`
	Side     string  `json:"side"`
	Edge     float64 `json:"edge"`
	Rejected string  `json:"rejected,omitempty"`
}

func scanSummary(cands []domain.Candidate) []candidateSummary {
	out := make([]candidateSummary, 0, len(cands))
	for _, c := range cands {
		out = append(out, candidateSummary{
			Market:   c.Market.Question,
			Side:     string(c.Side),
			Edge:     c.Edge,
			Rejected: c.RejectedBy,
		})
	}
	return out
}
