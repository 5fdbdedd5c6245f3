package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acalderon/weathertrader/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPosition(id, conditionID string) domain.Position {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Position{
		ID:          id,
		ConditionID: conditionID,
		TokenID:     "tok-no",
		MarketName:  "Will the highest temperature in NYC reach 54°F?",
		Side:        domain.SideNo,
		EntryPrice:  0.52,
		Shares:      10,
		CostBasis:   5.2,
		EntryEdge:   43,
		Confidence:  0.96,
		Sources:     []string{"noaa", "open_meteo", "visual_crossing"},
		City:        "NYC",
		Threshold:   domain.Fahrenheit(54),
		ResolvesAt:  now.Add(18 * time.Hour),
		LocalUsed:   true,
		OpenedAt:    now,
		Status:      domain.PositionOpen,
	}
}

func testOrder(id, conditionID string) domain.OpenOrder {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.OpenOrder{
		ID:              id,
		ExchangeOrderID: "ex-" + id,
		ConditionID:     conditionID,
		TokenID:         "tok-no",
		MarketName:      "test market",
		Side:            domain.SideNo,
		Price:           0.52,
		Amount:          5.2,
		Size:            10,
		EntryEdge:       43,
		Confidence:      0.96,
		Sources:         []string{"noaa", "open_meteo"},
		City:            "NYC",
		Threshold:       domain.Fahrenheit(54),
		ResolvesAt:      now.Add(18 * time.Hour),
		LocalUsed:       true,
		PlacedAt:        now,
		ExpiresAt:       now.Add(domain.OrderTTL),
		Status:          domain.OrderOpen,
	}
}

func TestPositionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := testPosition("pos-1", "0xc0ffee")
	require.NoError(t, s.SavePosition(ctx, want))

	got, err := s.OpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.ID, got[0].ID)
	assert.Equal(t, want.Side, got[0].Side)
	assert.Equal(t, want.Sources, got[0].Sources)
	assert.Equal(t, domain.UnitFahrenheit, got[0].Threshold.Unit)
	assert.InDelta(t, 54, got[0].Threshold.Value, 1e-9)
	assert.True(t, got[0].LocalUsed)
	assert.Equal(t, domain.PositionOpen, got[0].Status)
}

func TestOnlyOneLivePositionPerMarket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePosition(ctx, testPosition("pos-1", "0xc0ffee")))

	err := s.SavePosition(ctx, testPosition("pos-2", "0xc0ffee"))
	require.Error(t, err, "second live position for the same market must be rejected")

	// Once the first is exited the market frees up.
	require.NoError(t, s.UpdatePositionStatus(ctx, "pos-1", domain.PositionExited))
	require.NoError(t, s.SavePosition(ctx, testPosition("pos-2", "0xc0ffee")))
}

func TestSavePositionRetryIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pos := testPosition("pos-1", "0xc0ffee")
	require.NoError(t, s.SavePosition(ctx, pos))

	// A fill settle interrupted between the position insert and the order
	// update retries the whole sequence; the duplicate save must converge
	// instead of tripping the unique indexes.
	require.NoError(t, s.SavePosition(ctx, pos))

	got, err := s.OpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestPositionStatusAndShares(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePosition(ctx, testPosition("pos-1", "0xc0ffee")))

	require.NoError(t, s.UpdatePositionStatus(ctx, "pos-1", domain.PositionHoldToResolution))
	require.NoError(t, s.ReduceShares(ctx, "pos-1", 4))

	got, err := s.OpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.PositionHoldToResolution, got[0].Status)
	assert.InDelta(t, 4, got[0].Shares, 1e-9)
	assert.InDelta(t, 5.2, got[0].CostBasis, 1e-9, "cost basis never moves")

	assert.Error(t, s.UpdatePositionStatus(ctx, "missing", domain.PositionExited))
}

func TestOrderRoundTripAndSettleIdempotence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveOrder(ctx, testOrder("ord-1", "0xc0ffee")))

	open, err := s.OpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ex-ord-1", open[0].ExchangeOrderID)
	assert.Equal(t, []string{"noaa", "open_meteo"}, open[0].Sources)
	assert.True(t, open[0].ExpiresAt.Equal(open[0].PlacedAt.Add(domain.OrderTTL)))

	require.NoError(t, s.SettleOrder(ctx, "ord-1", domain.OrderCancelled, domain.CancelTTLExpired))
	open, err = s.OpenOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	// A late fill report must not resurrect a cancelled order.
	require.NoError(t, s.SettleOrder(ctx, "ord-1", domain.OrderFilled, ""))
	open, err = s.OpenOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestHasExposure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exposed, err := s.HasExposure(ctx, "0xc0ffee")
	require.NoError(t, err)
	assert.False(t, exposed)

	require.NoError(t, s.SaveOrder(ctx, testOrder("ord-1", "0xc0ffee")))
	exposed, err = s.HasExposure(ctx, "0xc0ffee")
	require.NoError(t, err)
	assert.True(t, exposed, "a resting order counts as exposure")

	require.NoError(t, s.SettleOrder(ctx, "ord-1", domain.OrderCancelled, domain.CancelTTLExpired))
	exposed, err = s.HasExposure(ctx, "0xc0ffee")
	require.NoError(t, err)
	assert.False(t, exposed)

	require.NoError(t, s.SavePosition(ctx, testPosition("pos-1", "0xc0ffee")))
	exposed, err = s.HasExposure(ctx, "0xc0ffee")
	require.NoError(t, err)
	assert.True(t, exposed)
}

func TestExitRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := domain.ExitRecord{
		PositionID:  "pos-1",
		ConditionID: "0xc0ffee",
		MarketName:  "test market",
		Side:        domain.SideNo,
		EntryPrice:  0.52,
		ExitPrice:   0.40,
		Shares:      10,
		CostBasis:   5.2,
		Proceeds:    4.0,
		PnL:         -1.2,
		Reason:      domain.ExitStopLoss,
		Detail:      "value 77% of cost",
		ExitOrderID: "ex-9",
		ExitedAt:    time.Now().UTC().Truncate(time.Second),
	}
	id, err := s.SaveExit(ctx, rec)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Exits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ExitStopLoss, got[0].Reason)
	assert.InDelta(t, -1.2, got[0].PnL, 1e-9)
}

func TestEventsJournal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AppendEvent(ctx, domain.Event{
		Type:        domain.EventOrderPlaced,
		ConditionID: "0xc0ffee",
		Detail:      "NO 0.52 x 10.00 edge 43.0",
		Payload:     map[string]any{"price": 0.52},
		At:          time.Now().UTC(),
	}))
	require.NoError(t, s.AppendEvent(ctx, domain.Event{
		Type: domain.EventScanResult,
		At:   time.Now().UTC(),
	}))

	events, err := s.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, domain.EventScanResult, events[0].Type)
	assert.Equal(t, domain.EventOrderPlaced, events[1].Type)
	assert.Contains(t, string(events[1].Payload.(json.RawMessage)), "0.52")
}

func TestRevisionBumpsOnEveryWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rev0, _, err := s.Revision(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SavePosition(ctx, testPosition("pos-1", "0xaaaa")))
	rev1, at1, err := s.Revision(ctx)
	require.NoError(t, err)
	assert.Greater(t, rev1, rev0)
	assert.False(t, at1.IsZero())

	require.NoError(t, s.SaveOrder(ctx, testOrder("ord-1", "0xbbbb")))
	require.NoError(t, s.AppendEvent(ctx, domain.Event{Type: domain.EventScanResult, At: time.Now()}))
	rev2, _, err := s.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, rev1+2, rev2)
}
