package domain

import (
	"strings"
	"time"
)

// PositionStatus tracks a position through its life.
type PositionStatus string

const (
	PositionOpen             PositionStatus = "OPEN"
	PositionHoldToResolution PositionStatus = "HOLD_TO_RESOLUTION"
	PositionExited           PositionStatus = "EXITED"
)

// Position is filled exposure in one market. CostBasis is immutable for the
// life of the position; partial exits reduce Shares and append ExitRecords.
type Position struct {
	ID          string // local uuid, carried over from the entry order
	ConditionID string
	TokenID     string
	MarketName  string
	Side        Side

	EntryPrice float64
	Shares     float64
	CostBasis  float64 // USDC paid at entry

	EntryEdge  float64 // edge at entry, percentage points
	Confidence float64
	Sources    []string
	City       string
	Threshold  Temperature
	ResolvesAt time.Time
	LocalUsed  bool

	OpenedAt time.Time
	Status   PositionStatus
}

// Value is the mark value of the remaining shares at price.
func (p Position) Value(price float64) float64 { return p.Shares * price }

// PnL is unrealized profit at price, against the full cost basis.
func (p Position) PnL(price float64) float64 { return p.Value(price) - p.CostBasis }

// PnLPct is unrealized profit as a percentage of cost basis.
func (p Position) PnLPct(price float64) float64 {
	if p.CostBasis <= 0 {
		return 0
	}
	return p.PnL(price) / p.CostBasis * 100
}

// HoursToResolution returns hours until the market resolves.
func (p Position) HoursToResolution(now time.Time) float64 {
	return p.ResolvesAt.Sub(now).Hours()
}

// SourcesCSV joins the contributing source names for storage.
func (p Position) SourcesCSV() string { return JoinSources(p.Sources) }

// JoinSources flattens a source list for storage.
func JoinSources(sources []string) string { return strings.Join(sources, ",") }

// SplitSources parses a stored source list.
func SplitSources(csv string) []string {
	if csv == "" {
		return nil
	}
	return strings.Split(csv, ",")
}

// ExitReason classifies why a position was closed. The values double as the
// priority order of the exit cascade.
type ExitReason string

const (
	ExitTimeExit        ExitReason = "TIME_EXIT"
	ExitStopLoss        ExitReason = "STOP_LOSS"
	ExitEdgeEvaporation ExitReason = "EDGE_EVAPORATION"
	ExitProfitTarget    ExitReason = "PROFIT_TARGET"
)

// ExitRecord is the permanent record of one exit, linked to its position.
type ExitRecord struct {
	ID          int64
	PositionID  string
	ConditionID string
	MarketName  string
	Side        Side
	EntryPrice  float64
	ExitPrice   float64
	Shares      float64
	CostBasis   float64
	Proceeds    float64
	PnL         float64
	Reason      ExitReason
	Detail      string
	ExitOrderID string
	ExitedAt    time.Time
}
