package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acalderon/weathertrader/internal/domain"
)

func weatherGammaMarket() gammaMarket {
	return gammaMarket{
		ConditionID:   "0xc0ffee",
		Question:      "Will the highest temperature in NYC reach 54°F on January 15?",
		Slug:          "highest-temperature-nyc-jan-15",
		EndDateISO:    "2026-01-15T23:00:00Z",
		Liquidity:     json.Number("2400.50"),
		ClobTokenIDs:  `["tok-yes", "tok-no"]`,
		OutcomePrices: `["0.48", "0.52"]`,
		Outcomes:      `["Yes", "No"]`,
		Active:        true,
	}
}

func TestMapWeatherMarket(t *testing.T) {
	m, ok := mapWeatherMarket("ev-1", weatherGammaMarket())
	require.True(t, ok)

	assert.Equal(t, "0xc0ffee", m.ConditionID)
	assert.Equal(t, "ev-1", m.EventID)
	assert.Equal(t, "NYC", m.City.Name)
	assert.Equal(t, domain.UnitFahrenheit, m.Threshold.Unit)
	assert.InDelta(t, 54, m.Threshold.Value, 1e-9)
	assert.Equal(t, "tok-yes", m.YesTokenID)
	assert.Equal(t, "tok-no", m.NoTokenID)
	assert.InDelta(t, 0.48, m.YesPrice, 1e-9)
	assert.InDelta(t, 0.52, m.NoPrice, 1e-9)
	assert.InDelta(t, 2400.50, m.Liquidity, 1e-9)
	assert.Equal(t, time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC), m.EndDate)
}

func TestMapWeatherMarketRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*gammaMarket)
	}{
		{"closed market", func(gm *gammaMarket) { gm.Closed = true }},
		{"inactive market", func(gm *gammaMarket) { gm.Active = false }},
		{"not a temperature market", func(gm *gammaMarket) {
			gm.Question = "Will it rain in NYC on January 15?"
		}},
		{"unknown city", func(gm *gammaMarket) {
			gm.Question = "Will the highest temperature in Gotham reach 54°F?"
		}},
		{"no threshold", func(gm *gammaMarket) {
			gm.Question = "Will the highest temperature in NYC break a record?"
		}},
		{"missing end date", func(gm *gammaMarket) { gm.EndDateISO = "" }},
		{"broken token list", func(gm *gammaMarket) { gm.ClobTokenIDs = `["only-one"]` }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm := weatherGammaMarket()
			tt.mutate(&gm)
			_, ok := mapWeatherMarket("ev-1", gm)
			assert.False(t, ok)
		})
	}
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		question string
		us       bool
		value    float64
		unit     domain.Unit
	}{
		{"Will the highest temperature in NYC reach 54°F?", true, 54, domain.UnitFahrenheit},
		{"Will the highest temperature in London reach 20°C?", false, 20, domain.UnitCelsius},
		{"Will the highest temperature in Chicago hit -2°F?", true, -2, domain.UnitFahrenheit},
		{"Will the high in Miami reach 90 degrees?", true, 90, domain.UnitFahrenheit},
		{"Will the high in Paris reach 30 degrees?", false, 30, domain.UnitCelsius},
		{"Will the high in Seattle exceed 71.5°F today?", true, 71.5, domain.UnitFahrenheit},
	}

	for _, tt := range tests {
		got, ok := parseThreshold(tt.question, tt.us)
		require.True(t, ok, tt.question)
		assert.Equal(t, tt.unit, got.Unit, tt.question)
		assert.InDelta(t, tt.value, got.Value, 1e-9, tt.question)
	}

	_, ok := parseThreshold("Will the market resolve YES?", true)
	assert.False(t, ok)
}

func TestMapOrderStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.OrderStatus
	}{
		{"LIVE", domain.OrderOpen},
		{"MATCHED", domain.OrderFilled},
		{"CANCELED", domain.OrderCancelled},
		{"canceled", domain.OrderCancelled},
		{"something-new", domain.OrderOpen},
	}
	for _, tt := range tests {
		st := mapOrderStatus(clobOrderStatus{
			Status:      tt.raw,
			Price:       json.Number("0.52"),
			SizeMatched: json.Number("10"),
		})
		assert.Equal(t, tt.want, st.Status, tt.raw)
		assert.InDelta(t, 10, st.FilledSize, 1e-9)
		assert.InDelta(t, 0.52, st.AvgPrice, 1e-9)
	}
}

func TestMapOrderBookSorted(t *testing.T) {
	book := mapOrderBook("tok-no", orderBookResponse{
		Bids: []bookEntryRaw{
			{Price: "0.40", Size: "100"},
			{Price: "0.51", Size: "200"},
			{Price: "0", Size: "50"}, // dropped
			{Price: "0.45", Size: "80"},
		},
		Asks: []bookEntryRaw{
			{Price: "0.60", Size: "100"},
			{Price: "0.55", Size: "30"},
		},
	})

	require.Len(t, book.Bids, 3)
	assert.InDelta(t, 0.51, book.Bids[0].Price, 1e-9, "best bid first")
	assert.InDelta(t, 0.40, book.Bids[2].Price, 1e-9)

	require.Len(t, book.Asks, 2)
	assert.InDelta(t, 0.55, book.Asks[0].Price, 1e-9, "best ask first")

	// Depth ignores the dropped zero-price level.
	assert.InDelta(t, 0.51*200+0.45*80+0.40*100, book.BidDepthUSDC(), 1e-6)
}

func TestFetchWeatherMarkets(t *testing.T) {
	gm := weatherGammaMarket()
	events := []gammaEvent{{
		ID:      "ev-1",
		Title:   "NYC daily high",
		Markets: []gammaMarket{gm, {Question: "Will it snow?", Active: true}},
	}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "weather", r.URL.Query().Get("tag_slug"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "", nil)
	markets, err := client.FetchWeatherMarkets(context.Background(), 365)
	require.NoError(t, err)
	require.Len(t, markets, 1, "the non-temperature market is skipped")
	assert.Equal(t, "0xc0ffee", markets[0].ConditionID)
	assert.Equal(t, "NYC", markets[0].City.Name)
}
