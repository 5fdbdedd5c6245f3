package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/acalderon/weathertrader/internal/domain"
)

// SavePosition inserts a new position. Saving a position whose id already
// exists is a no-op, so a fill settle retried after a partial failure
// converges instead of tripping the unique indexes. The partial unique index
// on condition_id still rejects a second live position for the same market.
func (s *SQLiteStore) SavePosition(ctx context.Context, p domain.Position) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM positions WHERE id = ?`, p.ID).Scan(&one)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("storage.SavePosition %s: %w", p.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions (
				id, condition_id, token_id, market_name, side,
				entry_price, shares, cost_basis, entry_edge, confidence,
				sources, city, threshold_value, threshold_unit,
				resolves_at, local_used, opened_at, status
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ConditionID, p.TokenID, p.MarketName, string(p.Side),
			p.EntryPrice, p.Shares, p.CostBasis, p.EntryEdge, p.Confidence,
			p.SourcesCSV(), p.City, p.Threshold.Value, string(p.Threshold.Unit),
			p.ResolvesAt.UTC(), boolToInt(p.LocalUsed), p.OpenedAt.UTC(), string(p.Status),
		)
		if err != nil {
			return fmt.Errorf("storage.SavePosition %s: %w", p.ID, err)
		}
		return nil
	})
}

// UpdatePositionStatus moves a position between OPEN, HOLD_TO_RESOLUTION and
// EXITED.
func (s *SQLiteStore) UpdatePositionStatus(ctx context.Context, id string, status domain.PositionStatus) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE positions SET status = ? WHERE id = ?`, string(status), id)
		if err != nil {
			return fmt.Errorf("storage.UpdatePositionStatus %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("storage.UpdatePositionStatus %s: not found", id)
		}
		return nil
	})
}

// ReduceShares records a partial exit. Cost basis stays untouched; the exit
// record carries the realized slice.
func (s *SQLiteStore) ReduceShares(ctx context.Context, id string, remaining float64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE positions SET shares = ? WHERE id = ?`, remaining, id)
		if err != nil {
			return fmt.Errorf("storage.ReduceShares %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("storage.ReduceShares %s: not found", id)
		}
		return nil
	})
}

// OpenPositions returns positions that still carry exposure, hold-to-
// resolution ones included.
func (s *SQLiteStore) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, condition_id, token_id, market_name, side,
		       entry_price, shares, cost_basis, entry_edge, confidence,
		       sources, city, threshold_value, threshold_unit,
		       resolves_at, local_used, opened_at, status
		FROM positions WHERE status != 'EXITED' ORDER BY opened_at`)
	if err != nil {
		return nil, fmt.Errorf("storage.OpenPositions: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.OpenPositions: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPosition(rows *sql.Rows) (domain.Position, error) {
	var p domain.Position
	var side, status, sources, unit string
	var local int
	var thresholdValue float64
	err := rows.Scan(
		&p.ID, &p.ConditionID, &p.TokenID, &p.MarketName, &side,
		&p.EntryPrice, &p.Shares, &p.CostBasis, &p.EntryEdge, &p.Confidence,
		&sources, &p.City, &thresholdValue, &unit,
		&p.ResolvesAt, &local, &p.OpenedAt, &status,
	)
	if err != nil {
		return p, err
	}
	p.Side = domain.Side(side)
	p.Status = domain.PositionStatus(status)
	p.Sources = domain.SplitSources(sources)
	p.Threshold = domain.Temperature{Value: thresholdValue, Unit: domain.Unit(unit)}
	p.LocalUsed = local != 0
	return p, nil
}
