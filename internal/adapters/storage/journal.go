package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/acalderon/weathertrader/internal/domain"
)

// SaveExit appends an exit record and returns its row id.
func (s *SQLiteStore) SaveExit(ctx context.Context, r domain.ExitRecord) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO exit_records (
				position_id, condition_id, market_name, side,
				entry_price, exit_price, shares, cost_basis, proceeds, pnl,
				reason, detail, exit_order_id, exited_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.PositionID, r.ConditionID, r.MarketName, string(r.Side),
			r.EntryPrice, r.ExitPrice, r.Shares, r.CostBasis, r.Proceeds, r.PnL,
			string(r.Reason), r.Detail, r.ExitOrderID, r.ExitedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("storage.SaveExit: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// Exits returns the most recent exit records, newest first.
func (s *SQLiteStore) Exits(ctx context.Context, limit int) ([]domain.ExitRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position_id, condition_id, market_name, side,
		       entry_price, exit_price, shares, cost_basis, proceeds, pnl,
		       reason, detail, exit_order_id, exited_at
		FROM exit_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Exits: %w", err)
	}
	defer rows.Close()

	var out []domain.ExitRecord
	for rows.Next() {
		var r domain.ExitRecord
		var side, reason string
		if err := rows.Scan(
			&r.ID, &r.PositionID, &r.ConditionID, &r.MarketName, &side,
			&r.EntryPrice, &r.ExitPrice, &r.Shares, &r.CostBasis, &r.Proceeds, &r.PnL,
			&reason, &r.Detail, &r.ExitOrderID, &r.ExitedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.Exits: %w", err)
		}
		r.Side = domain.Side(side)
		r.Reason = domain.ExitReason(reason)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendEvent journals an event. The payload is marshaled to JSON; a payload
// that cannot marshal is journaled without one rather than lost.
func (s *SQLiteStore) AppendEvent(ctx context.Context, ev domain.Event) error {
	var payload string
	if ev.Payload != nil {
		if b, err := json.Marshal(ev.Payload); err == nil {
			payload = string(b)
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (type, condition_id, detail, payload, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			string(ev.Type), ev.ConditionID, ev.Detail, payload, ev.At.UTC(),
		)
		if err != nil {
			return fmt.Errorf("storage.AppendEvent: %w", err)
		}
		return nil
	})
}

// Events returns the most recent journal entries, newest first. Payloads
// come back as raw JSON strings.
func (s *SQLiteStore) Events(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, condition_id, detail, payload, created_at
		FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		var typ, payload string
		if err := rows.Scan(&ev.ID, &typ, &ev.ConditionID, &ev.Detail, &payload, &ev.At); err != nil {
			return nil, fmt.Errorf("storage.Events: %w", err)
		}
		ev.Type = domain.EventType(typ)
		if payload != "" {
			ev.Payload = json.RawMessage(payload)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
