package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acalderon/weathertrader/internal/domain"
	"github.com/acalderon/weathertrader/internal/ports"
)

type fakeProvider struct {
	name  string
	local bool
	highC float64
	err   error
}

func (f fakeProvider) Name() string { return f.name }
func (f fakeProvider) Local() bool  { return f.local }
func (f fakeProvider) ForecastHigh(context.Context, domain.City, time.Time) (domain.Temperature, error) {
	if f.err != nil {
		return domain.Temperature{}, f.err
	}
	return domain.Celsius(f.highC), nil
}

func newTestResolver(providers ...ports.ForecastProvider) *Resolver {
	return NewResolver(providers, nil)
}

func mustCity(t *testing.T, name string) domain.City {
	t.Helper()
	c, ok := domain.CityByName(name)
	require.True(t, ok)
	return c
}

func TestResolveUSWeightedConsensus(t *testing.T) {
	r := newTestResolver(
		fakeProvider{name: "noaa", local: true, highC: 10},
		fakeProvider{name: "open_meteo", highC: 12},
		fakeProvider{name: "visual_crossing", highC: 11},
	)
	ens, err := r.Resolve(context.Background(), mustCity(t, "NYC"), time.Now())
	require.NoError(t, err)

	// 0.40*10 + 0.25*12 + 0.35*11 = 10.85
	assert.InDelta(t, 10.85, ens.Consensus.Value, 0.001)
	assert.Equal(t, domain.UnitCelsius, ens.Consensus.Unit)
	assert.Equal(t, 3, ens.SourceCount())
	assert.True(t, ens.HasLocal())
	assert.InDelta(t, 2.0, ens.SpreadC, 0.001)
}

func TestResolveConfidenceFullAgreement(t *testing.T) {
	r := newTestResolver(
		fakeProvider{name: "noaa", local: true, highC: 21},
		fakeProvider{name: "open_meteo", highC: 21},
		fakeProvider{name: "visual_crossing", highC: 21},
	)
	ens, err := r.Resolve(context.Background(), mustCity(t, "Chicago"), time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ens.Confidence, 0.95)
}

func TestResolveConfidenceWideSpread(t *testing.T) {
	r := newTestResolver(
		fakeProvider{name: "noaa", local: true, highC: 18},
		fakeProvider{name: "open_meteo", highC: 23},
		fakeProvider{name: "visual_crossing", highC: 20.5},
	)
	ens, err := r.Resolve(context.Background(), mustCity(t, "Denver"), time.Now())
	require.NoError(t, err)
	assert.Less(t, ens.Confidence, 0.50, "5C spread must not clear the entry bar")
}

func TestResolveTightSpreadBonus(t *testing.T) {
	r := newTestResolver(
		fakeProvider{name: "noaa", local: true, highC: 20},
		fakeProvider{name: "open_meteo", highC: 21},
		fakeProvider{name: "visual_crossing", highC: 20.5},
	)
	ens, err := r.Resolve(context.Background(), mustCity(t, "Miami"), time.Now())
	require.NoError(t, err)
	// base 1 - 1/8 = 0.875 clamps to 0.875, +0.10 agreement bonus
	assert.InDelta(t, 0.975, ens.Confidence, 0.001)
}

func TestResolveInsufficientSources(t *testing.T) {
	down := errors.New("connection refused")
	r := newTestResolver(
		fakeProvider{name: "noaa", local: true, err: down},
		fakeProvider{name: "open_meteo", highC: 12},
		fakeProvider{name: "visual_crossing", highC: 11},
	)
	_, err := r.Resolve(context.Background(), mustCity(t, "NYC"), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientSources)
}

func TestResolveNoLocalTwoSources(t *testing.T) {
	city := mustCity(t, "Paris")

	agree := newTestResolver(
		fakeProvider{name: "open_meteo", highC: 18.0},
		fakeProvider{name: "visual_crossing", highC: 18.8},
	)
	ens, err := agree.Resolve(context.Background(), city, time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 18.4, ens.Consensus.Value, 0.001)
	assert.Greater(t, ens.Confidence, 0.0)

	disagree := newTestResolver(
		fakeProvider{name: "open_meteo", highC: 18.0},
		fakeProvider{name: "visual_crossing", highC: 19.5},
	)
	ens, err = disagree.Resolve(context.Background(), city, time.Now())
	require.NoError(t, err)
	assert.Zero(t, ens.Confidence, "two global sources beyond 1C cannot be traded")
}

func TestResolveLocalDisagreementCapsConfidence(t *testing.T) {
	r := newTestResolver(
		fakeProvider{name: "metservice", local: true, highC: 24.5},
		fakeProvider{name: "open_meteo", highC: 21},
		fakeProvider{name: "visual_crossing", highC: 21.5},
	)
	ens, err := r.Resolve(context.Background(), mustCity(t, "Auckland"), time.Now())
	require.NoError(t, err)
	assert.True(t, ens.LocalDisagrees)
	assert.InDelta(t, 3.25, ens.DisagreementC, 0.001)
	assert.LessOrEqual(t, ens.Confidence, 0.50)
}

func TestResolveNonUSLocalWeights(t *testing.T) {
	r := newTestResolver(
		fakeProvider{name: "bom", local: true, highC: 30},
		fakeProvider{name: "open_meteo", highC: 28},
		fakeProvider{name: "visual_crossing", highC: 29},
	)
	ens, err := r.Resolve(context.Background(), mustCity(t, "Sydney"), time.Now())
	require.NoError(t, err)
	// 0.50*30 + 0.25*28 + 0.25*29 = 29.25
	assert.InDelta(t, 29.25, ens.Consensus.Value, 0.001)
}
