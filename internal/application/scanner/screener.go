package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
	"github.com/acalderon/weathertrader/internal/ports"
)

// ScreenConfig holds the entry thresholds. Edges are percentage points.
type ScreenConfig struct {
	MinHoursToResolution float64
	MaxHoursToResolution float64
	MinPrice             float64
	MaxPrice             float64
	MinBidLiquidity      float64 // USDC
	MinConfidence        float64
	MinEdgeLocal         float64 // cities with a national service (US included)
	MinEdgeNoLocal       float64 // global models only
}

// DefaultScreenConfig returns the production thresholds.
func DefaultScreenConfig() ScreenConfig {
	return ScreenConfig{
		MinHoursToResolution: 4,
		MaxHoursToResolution: 72,
		MinPrice:             0.30,
		MaxPrice:             0.70,
		MinBidLiquidity:      500,
		MinConfidence:        0.80,
		MinEdgeLocal:         20,
		MinEdgeNoLocal:       25,
	}
}

// Rejection reasons, in the order the checks run. The first failure wins and
// later checks are skipped.
const (
	RejectResolutionWindow    = "resolution_window"
	RejectPriceBand           = "price_band"
	RejectLiquidity           = "liquidity"
	RejectInsufficientSources = "insufficient_sources"
	RejectLocalDisagrees      = "local_disagrees"
	RejectConfidence          = "confidence"
	RejectEdge                = "edge"
	RejectExposure            = "already_exposed"
)

// Screener applies the ordered entry checks to a candidate.
type Screener struct {
	cfg   ScreenConfig
	store ports.ExposureChecker
}

// NewScreener wires the thresholds and the store used for the live
// double-exposure check.
func NewScreener(cfg ScreenConfig, store ports.ExposureChecker) *Screener {
	return &Screener{cfg: cfg, store: store}
}

// Screen runs the cascade and stamps c.RejectedBy with the first failed
// check. A candidate that comes back with RejectedBy == "" qualifies. The
// exposure check queries the store live; an error there fails the screen
// rather than risking a duplicate position.
func (s *Screener) Screen(ctx context.Context, c *domain.Candidate, now time.Time) error {
	c.RejectedBy = s.staticChecks(c, now)
	if c.RejectedBy != "" {
		return nil
	}

	exposed, err := s.store.HasExposure(ctx, c.Market.ConditionID)
	if err != nil {
		return fmt.Errorf("scanner.Screen %s: %w", c.Market.ConditionID, err)
	}
	if exposed {
		c.RejectedBy = RejectExposure
	}
	return nil
}

func (s *Screener) staticChecks(c *domain.Candidate, now time.Time) string {
	hours := c.Market.HoursToResolution(now)
	if hours <= s.cfg.MinHoursToResolution || hours > s.cfg.MaxHoursToResolution {
		return RejectResolutionWindow
	}
	if c.Price < s.cfg.MinPrice || c.Price > s.cfg.MaxPrice {
		return RejectPriceBand
	}
	if c.BidDepth < s.cfg.MinBidLiquidity {
		return RejectLiquidity
	}
	if c.Ensemble.SourceCount() < minSourcesFor(c.Market.City) {
		return RejectInsufficientSources
	}
	if c.Ensemble.LocalDisagrees {
		return RejectLocalDisagrees
	}
	if c.Ensemble.Confidence < s.cfg.MinConfidence {
		return RejectConfidence
	}
	if c.Edge < s.MinEdge(c.Market.City) {
		return RejectEdge
	}
	return ""
}

// Recheck reports whether a candidate would pass the static entry checks
// right now. The monitor uses it for the strengthen signal on a live
// position; the exposure check is skipped because the caller already holds
// the position it is rechecking.
func (s *Screener) Recheck(c *domain.Candidate, now time.Time) bool {
	return s.staticChecks(c, now) == ""
}

// MinEdge returns the entry edge bar for a city's source tier.
func (s *Screener) MinEdge(city domain.City) float64 {
	if city.HasLocal() {
		return s.cfg.MinEdgeLocal
	}
	return s.cfg.MinEdgeNoLocal
}

func minSourcesFor(city domain.City) int {
	if city.HasLocal() {
		return 3
	}
	return 2
}
