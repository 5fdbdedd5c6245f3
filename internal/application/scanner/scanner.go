package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/acalderon/weathertrader/internal/application/forecast"
	"github.com/acalderon/weathertrader/internal/domain"
	"github.com/acalderon/weathertrader/internal/ports"
)

// Scanner runs one discovery pass: fetch open weather markets, resolve a
// forecast ensemble per market, compute the edge and screen each candidate.
// Qualifying candidates come back ranked by confidence-adjusted edge.
type Scanner struct {
	markets   ports.MarketProvider
	books     ports.BookProvider
	resolver  *forecast.Resolver
	screener  *Screener
	daysAhead int
	log       *slog.Logger
}

// New builds a Scanner. daysAhead bounds market discovery.
func New(markets ports.MarketProvider, books ports.BookProvider, resolver *forecast.Resolver, screener *Screener, daysAhead int, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	if daysAhead <= 0 {
		daysAhead = 3
	}
	return &Scanner{
		markets:   markets,
		books:     books,
		resolver:  resolver,
		screener:  screener,
		daysAhead: daysAhead,
		log:       log,
	}
}

// RunOnce scans and returns every analyzed candidate, qualifying ones first
// in rank order. A market that fails analysis is logged and skipped; only
// domain.ErrUnitMismatch aborts the scan.
func (s *Scanner) RunOnce(ctx context.Context) ([]domain.Candidate, error) {
	now := time.Now()
	markets, err := s.markets.FetchWeatherMarkets(ctx, s.daysAhead)
	if err != nil {
		return nil, fmt.Errorf("scanner.RunOnce: fetch markets: %w", err)
	}
	s.log.Info("scan started", "markets", len(markets))

	var out []domain.Candidate
	for _, m := range markets {
		cand, err := s.analyze(ctx, m)
		if err != nil {
			if errors.Is(err, domain.ErrUnitMismatch) {
				return nil, fmt.Errorf("scanner.RunOnce %s: %w", m.ConditionID, err)
			}
			s.log.Warn("market analysis failed", "market", m.Question, "error", err)
			continue
		}
		if cand.RejectedBy == "" {
			if err := s.screener.Screen(ctx, &cand, now); err != nil {
				s.log.Warn("screen failed", "market", m.Question, "error", err)
				continue
			}
		}
		out = append(out, cand)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Qualifies() != out[j].Qualifies() {
			return out[i].Qualifies()
		}
		return out[i].RankEdge > out[j].RankEdge
	})

	qualified := 0
	for _, c := range out {
		if c.Qualifies() {
			qualified++
		}
	}
	s.log.Info("scan finished", "analyzed", len(out), "qualified", qualified)
	return out, nil
}

// analyze resolves the forecast and picks the side whose model probability
// exceeds its price. ErrInsufficientSources marks the candidate rejected
// instead of failing the scan.
func (s *Scanner) analyze(ctx context.Context, m domain.WeatherMarket) (domain.Candidate, error) {
	cand := domain.Candidate{Market: m}

	ens, err := s.resolver.Resolve(ctx, m.City, m.Date)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientSources) {
			cand.RejectedBy = RejectInsufficientSources
			return cand, nil
		}
		return cand, err
	}
	cand.Ensemble = ens

	// The single unit conversion: consensus moves into the market's unit.
	consensus := ens.Consensus.In(m.Threshold.Unit)
	yesProb, err := domain.ImpliedProbability(consensus, m.Threshold, ens.Confidence)
	if err != nil {
		return cand, err
	}
	cand.YesProb = yesProb

	cand.Side, cand.Price = pickSide(yesProb, m.YesPrice, m.NoPrice)
	cand.Edge = domain.Edge(cand.Side, yesProb, cand.Price)
	cand.RankEdge = domain.ConfidenceAdjustedEdge(cand.Edge, ens.Confidence)

	book, err := s.books.OrderBook(ctx, m.TokenFor(cand.Side))
	if err != nil {
		return cand, fmt.Errorf("order book %s: %w", m.TokenFor(cand.Side), err)
	}
	cand.BidDepth = book.BidDepthUSDC()
	return cand, nil
}

// pickSide chooses the side the model says is underpriced. When neither side
// is underpriced the YES side comes back with its sub-threshold edge and the
// screener rejects it.
func pickSide(yesProb, yesPrice, noPrice float64) (domain.Side, float64) {
	yesGap := yesProb - yesPrice
	noGap := (1 - yesProb) - noPrice
	if noGap > yesGap {
		return domain.SideNo, noPrice
	}
	return domain.SideYes, yesPrice
}
