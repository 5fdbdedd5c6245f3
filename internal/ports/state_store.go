package ports

import (
	"context"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

// ExposureChecker answers whether a market already has skin in the game.
// StateStore satisfies it; the entry screener depends on nothing more.
type ExposureChecker interface {
	HasExposure(ctx context.Context, conditionID string) (bool, error)
}

// StateStore is the durable record of positions, orders and exits. Every
// write bumps a monotonic revision so external readers can detect change
// without diffing rows. Implemented by adapters/storage on SQLite.
type StateStore interface {
	// --- positions ---

	SavePosition(ctx context.Context, p domain.Position) error
	UpdatePositionStatus(ctx context.Context, id string, status domain.PositionStatus) error
	// ReduceShares records a partial exit: shares shrink, cost basis stays.
	ReduceShares(ctx context.Context, id string, remaining float64) error
	OpenPositions(ctx context.Context) ([]domain.Position, error)

	// --- orders ---

	SaveOrder(ctx context.Context, o domain.OpenOrder) error
	// SettleOrder moves an order to a terminal status. Settling an
	// already-terminal order is a no-op.
	SettleOrder(ctx context.Context, id string, status domain.OrderStatus, cancelReason string) error
	OpenOrders(ctx context.Context) ([]domain.OpenOrder, error)

	// HasExposure reports whether the condition id has an open position or
	// a resting order. Queried live, never from cache.
	HasExposure(ctx context.Context, conditionID string) (bool, error)

	// --- exits & journal ---

	SaveExit(ctx context.Context, r domain.ExitRecord) (int64, error)
	Exits(ctx context.Context, limit int) ([]domain.ExitRecord, error)

	AppendEvent(ctx context.Context, ev domain.Event) error
	Events(ctx context.Context, limit int) ([]domain.Event, error)

	// Revision returns the monotonic change counter and when it last moved.
	Revision(ctx context.Context) (int64, time.Time, error)

	Close() error
}
