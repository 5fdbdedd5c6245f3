package domain

import (
	"fmt"
	"math"
)

// Side of a binary market.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// ImpliedProbability estimates the probability that the market resolves YES
// (observed high >= threshold) from the forecast consensus.
//
// The curve widens as confidence drops: sigma = 1.5 * (1.5 - confidence),
// in the unit the comparison happens in. A consensus far above the threshold
// saturates at 0.90, far below at 0.05, with linear ramps through the middle.
// The result is clamped to [0.02, 0.98] because a forecast is never certain.
//
// Consensus and threshold must share a unit; a mismatch returns
// ErrUnitMismatch, which the caller must treat as fatal.
func ImpliedProbability(consensus, threshold Temperature, confidence float64) (float64, error) {
	diff, err := consensus.Minus(threshold)
	if err != nil {
		return 0, fmt.Errorf("domain.ImpliedProbability: %w", err)
	}

	sigma := 1.5 * (1.5 - confidence)
	if consensus.Unit == UnitFahrenheit {
		sigma *= 9.0 / 5.0
	}

	var p float64
	switch {
	case diff >= sigma:
		p = 0.90
	case diff >= -sigma:
		// linear ramp: 0.10 at -sigma, 0.50 at 0, 0.90 at +sigma
		p = 0.50 + 0.40*(diff/sigma)
	default:
		p = 0.05
	}
	return clamp(p, 0.02, 0.98), nil
}

// SideProbability maps the YES probability to the given side.
func SideProbability(side Side, yesProb float64) float64 {
	if side == SideNo {
		return 1 - yesProb
	}
	return yesProb
}

// Edge is the gap between our probability estimate for a side and its market
// price, in percentage points.
func Edge(side Side, yesProb, price float64) float64 {
	return math.Abs(SideProbability(side, yesProb)-price) * 100
}

// ConfidenceAdjustedEdge discounts the edge by forecast confidence. Used for
// ranking candidates, not for the entry threshold itself.
func ConfidenceAdjustedEdge(edge, confidence float64) float64 {
	return edge * confidence
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
