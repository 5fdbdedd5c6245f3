package engine

import (
	"context"
	"fmt"
	"math"
)

// TierStake returns the USDC to commit per entry given the account balance.
// Below $10 the account does not trade; below $100 it trades the minimum $5;
// above that the stake grows $5 per $100 of balance.
func TierStake(balance float64) float64 {
	switch {
	case balance < 10:
		return 0
	case balance < 100:
		return 5
	default:
		return math.Ceil(balance/100) * 5
	}
}

// AvailableCapital is the spendable balance: exchange USDC minus capital
// locked in resting orders minus the safety buffer. Never negative.
func (e *Engine) AvailableCapital(ctx context.Context) (float64, error) {
	cctx, cancel := e.callCtx(ctx)
	defer cancel()
	bal, err := e.exchange.Balance(cctx)
	if err != nil {
		return 0, fmt.Errorf("engine.AvailableCapital: %w", err)
	}

	orders, err := e.store.OpenOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("engine.AvailableCapital: %w", err)
	}
	var locked float64
	for _, o := range orders {
		locked += o.LockedCapital()
	}

	avail := bal.USDC - locked - e.cfg.CapitalBuffer
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// stakeFor sizes one entry: the tier stake, capped by what is available.
// Returns 0 when the account should not trade.
func stakeFor(balance, available float64) float64 {
	stake := TierStake(balance)
	if stake > available {
		stake = math.Floor(available)
	}
	if stake < 5 {
		return 0
	}
	return stake
}
