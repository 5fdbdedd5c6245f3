package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acalderon/weathertrader/internal/application/forecast"
	"github.com/acalderon/weathertrader/internal/domain"
	"github.com/acalderon/weathertrader/internal/ports"
)

type fakeMarkets struct {
	markets []domain.WeatherMarket
	err     error
}

func (f fakeMarkets) FetchWeatherMarkets(context.Context, int) ([]domain.WeatherMarket, error) {
	return f.markets, f.err
}

type fakeBooks struct {
	depth float64
}

func (f fakeBooks) OrderBook(_ context.Context, tokenID string) (domain.OrderBook, error) {
	size := f.depth / 0.50 / 2
	return domain.OrderBook{
		TokenID: tokenID,
		Bids: []domain.BookEntry{
			{Price: 0.51, Size: size},
			{Price: 0.49, Size: size},
		},
		Asks: []domain.BookEntry{{Price: 0.53, Size: 100}},
	}, nil
}

type fixedForecast struct {
	name  string
	local bool
	highC float64
}

func (f fixedForecast) Name() string { return f.name }
func (f fixedForecast) Local() bool  { return f.local }
func (f fixedForecast) ForecastHigh(context.Context, domain.City, time.Time) (domain.Temperature, error) {
	return domain.Celsius(f.highC), nil
}

// coldNYCMarket prices YES near even money while the forecast says the
// threshold is far out of reach.
func coldNYCMarket(t *testing.T, now time.Time) domain.WeatherMarket {
	t.Helper()
	return domain.WeatherMarket{
		ConditionID: "0xc0ffee",
		Question:    "Will the highest temperature in NYC reach 54°F?",
		City:        testCity(t, "NYC"),
		Date:        now.Add(24 * time.Hour),
		Threshold:   domain.Fahrenheit(54),
		EndDate:     now.Add(24 * time.Hour),
		YesTokenID:  "tok-yes",
		NoTokenID:   "tok-no",
		YesPrice:    0.48,
		NoPrice:     0.52,
	}
}

func coldProviders() []ports.ForecastProvider {
	// Highs around 9.6C (49.3F) against a 54F threshold.
	return []ports.ForecastProvider{
		fixedForecast{name: "noaa", local: true, highC: 9.5},
		fixedForecast{name: "open_meteo", highC: 9.8},
		fixedForecast{name: "visual_crossing", highC: 9.6},
	}
}

func TestRunOnceFindsColdSnapEdge(t *testing.T) {
	now := time.Now()
	resolver := forecast.NewResolver(coldProviders(), nil)
	screener := NewScreener(DefaultScreenConfig(), fakeExposure{})
	s := New(
		fakeMarkets{markets: []domain.WeatherMarket{coldNYCMarket(t, now)}},
		fakeBooks{depth: 1500},
		resolver, screener, 3, nil,
	)

	cands, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.True(t, c.Qualifies(), "rejected by %s", c.RejectedBy)
	assert.Equal(t, domain.SideNo, c.Side)
	assert.InDelta(t, 0.52, c.Price, 1e-9)
	assert.Greater(t, c.Edge, 40.0)
	assert.InDelta(t, 0.05, c.YesProb, 0.01)
}

func TestRunOnceRejectsThinBook(t *testing.T) {
	now := time.Now()
	resolver := forecast.NewResolver(coldProviders(), nil)
	screener := NewScreener(DefaultScreenConfig(), fakeExposure{})
	s := New(
		fakeMarkets{markets: []domain.WeatherMarket{coldNYCMarket(t, now)}},
		fakeBooks{depth: 300},
		resolver, screener, 3, nil,
	)

	cands, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, RejectLiquidity, cands[0].RejectedBy)
}

func TestRunOnceInsufficientSourcesIsRejectionNotError(t *testing.T) {
	now := time.Now()
	// Only one provider registered for a three-source city.
	resolver := forecast.NewResolver([]ports.ForecastProvider{
		fixedForecast{name: "open_meteo", highC: 9.8},
	}, nil)
	screener := NewScreener(DefaultScreenConfig(), fakeExposure{})
	s := New(
		fakeMarkets{markets: []domain.WeatherMarket{coldNYCMarket(t, now)}},
		fakeBooks{depth: 1500},
		resolver, screener, 3, nil,
	)

	cands, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, RejectInsufficientSources, cands[0].RejectedBy)
}

func TestRunOnceRanksByAdjustedEdge(t *testing.T) {
	now := time.Now()
	strong := coldNYCMarket(t, now)
	weak := coldNYCMarket(t, now)
	weak.ConditionID = "0xweak"
	weak.NoPrice = 0.68 // smaller gap to the model estimate
	weak.YesPrice = 0.32

	resolver := forecast.NewResolver(coldProviders(), nil)
	screener := NewScreener(DefaultScreenConfig(), fakeExposure{})
	s := New(
		fakeMarkets{markets: []domain.WeatherMarket{weak, strong}},
		fakeBooks{depth: 1500},
		resolver, screener, 3, nil,
	)

	cands, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "0xc0ffee", cands[0].Market.ConditionID)
	assert.Greater(t, cands[0].RankEdge, cands[1].RankEdge)
}

func TestPickSide(t *testing.T) {
	side, price := pickSide(0.05, 0.48, 0.52)
	assert.Equal(t, domain.SideNo, side)
	assert.InDelta(t, 0.52, price, 1e-9)

	side, price = pickSide(0.90, 0.55, 0.45)
	assert.Equal(t, domain.SideYes, side)
	assert.InDelta(t, 0.55, price, 1e-9)
}
