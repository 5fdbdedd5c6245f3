package domain

import "time"

// Action is the outcome of one position monitor check.
type Action string

const (
	ActionHold             Action = "HOLD"
	ActionHoldToResolution Action = "HOLD_TO_RESOLUTION"
	ActionExit             Action = "EXIT"
)

// MonitorCheck records one pass of the exit cascade over a position. Exactly
// one Action comes out of each check; Strengthen is an independent signal and
// never changes the action.
type MonitorCheck struct {
	PositionID  string
	ConditionID string
	MarketName  string
	CheckedAt   time.Time

	CurrentPrice float64
	Value        float64
	PnL          float64
	PnLPct       float64

	// Edge is the recomputed edge at current price. EdgeKnown is false when
	// the forecast could not be refreshed this cycle.
	Edge      float64
	EdgeKnown bool
	Forecast  *Ensemble

	Action     Action
	ExitReason ExitReason // set when Action == ActionExit
	Detail     string

	// Strengthen flags that the market has moved further in our favor and a
	// fresh entry would qualify again. Informational only.
	Strengthen bool
}

// Candidate is a market that passed analysis during a scan, with the metrics
// the screener and placement path need.
type Candidate struct {
	Market     WeatherMarket
	Ensemble   Ensemble
	Side       Side
	Price      float64
	YesProb    float64
	Edge       float64
	RankEdge   float64 // confidence-adjusted, for ordering only
	BidDepth   float64 // USDC resting on the bid side
	RejectedBy string  // first failed screen, empty when the candidate qualifies
}

// Qualifies reports whether every screen passed.
func (c Candidate) Qualifies() bool { return c.RejectedBy == "" }
