package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/acalderon/weathertrader/internal/domain"
)

// SaveOrder inserts a freshly placed order.
func (s *SQLiteStore) SaveOrder(ctx context.Context, o domain.OpenOrder) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO open_orders (
				id, exchange_order_id, condition_id, token_id, market_name, side,
				price, amount, size, entry_edge, confidence, sources, city,
				threshold_value, threshold_unit, resolves_at, local_used,
				placed_at, expires_at, status, cancel_reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.ExchangeOrderID, o.ConditionID, o.TokenID, o.MarketName, string(o.Side),
			o.Price, o.Amount, o.Size, o.EntryEdge, o.Confidence, domain.JoinSources(o.Sources), o.City,
			o.Threshold.Value, string(o.Threshold.Unit), o.ResolvesAt.UTC(), boolToInt(o.LocalUsed),
			o.PlacedAt.UTC(), o.ExpiresAt.UTC(), string(o.Status), o.CancelReason,
		)
		if err != nil {
			return fmt.Errorf("storage.SaveOrder %s: %w", o.ID, err)
		}
		return nil
	})
}

// SettleOrder moves an order to a terminal status. Settling an order that is
// already terminal changes nothing, which makes the order poll idempotent.
func (s *SQLiteStore) SettleOrder(ctx context.Context, id string, status domain.OrderStatus, cancelReason string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE open_orders SET status = ?, cancel_reason = ?
			WHERE id = ? AND status = 'OPEN'`,
			string(status), cancelReason, id)
		if err != nil {
			return fmt.Errorf("storage.SettleOrder %s: %w", id, err)
		}
		return nil
	})
}

// OpenOrders returns the resting orders.
func (s *SQLiteStore) OpenOrders(ctx context.Context) ([]domain.OpenOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exchange_order_id, condition_id, token_id, market_name, side,
		       price, amount, size, entry_edge, confidence, sources, city,
		       threshold_value, threshold_unit, resolves_at, local_used,
		       placed_at, expires_at, status, cancel_reason
		FROM open_orders WHERE status = 'OPEN' ORDER BY placed_at`)
	if err != nil {
		return nil, fmt.Errorf("storage.OpenOrders: %w", err)
	}
	defer rows.Close()

	var out []domain.OpenOrder
	for rows.Next() {
		var o domain.OpenOrder
		var side, status, sources, unit string
		var local int
		var thresholdValue float64
		if err := rows.Scan(
			&o.ID, &o.ExchangeOrderID, &o.ConditionID, &o.TokenID, &o.MarketName, &side,
			&o.Price, &o.Amount, &o.Size, &o.EntryEdge, &o.Confidence, &sources, &o.City,
			&thresholdValue, &unit, &o.ResolvesAt, &local,
			&o.PlacedAt, &o.ExpiresAt, &status, &o.CancelReason,
		); err != nil {
			return nil, fmt.Errorf("storage.OpenOrders: %w", err)
		}
		o.Side = domain.Side(side)
		o.Status = domain.OrderStatus(status)
		o.Sources = domain.SplitSources(sources)
		o.Threshold = domain.Temperature{Value: thresholdValue, Unit: domain.Unit(unit)}
		o.LocalUsed = local != 0
		out = append(out, o)
	}
	return out, rows.Err()
}
