package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements ports.StateStore on SQLite (pure Go, no CGo).
// Every write runs in a transaction that also bumps the meta revision, so an
// external reader can watch one integer instead of diffing tables.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// withTx runs fn inside a transaction and bumps the revision on success.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE meta SET revision = revision + 1, updated_at = ? WHERE id = 1`,
		time.Now().UTC()); err != nil {
		tx.Rollback()
		return fmt.Errorf("bump revision: %w", err)
	}
	return tx.Commit()
}

// Revision returns the monotonic change counter and its last bump time.
func (s *SQLiteStore) Revision(ctx context.Context) (int64, time.Time, error) {
	var rev int64
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, updated_at FROM meta WHERE id = 1`).Scan(&rev, &at)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("storage.Revision: %w", err)
	}
	return rev, at, nil
}

// HasExposure reports whether the market has a live position or a resting
// order. Queried directly against the tables, never cached.
func (s *SQLiteStore) HasExposure(ctx context.Context, conditionID string) (bool, error) {
	var exposed bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM positions WHERE condition_id = ? AND status != 'EXITED'
			UNION ALL
			SELECT 1 FROM open_orders WHERE condition_id = ? AND status = 'OPEN'
		)`, conditionID, conditionID).Scan(&exposed)
	if err != nil {
		return false, fmt.Errorf("storage.HasExposure: %w", err)
	}
	return exposed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
