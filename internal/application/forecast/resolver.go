package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
	"github.com/acalderon/weathertrader/internal/ports"
)

// Source weighting per city tier. A national service earns the largest
// weight where one exists; NOAA is treated as the local service for US
// cities. Weights are renormalized over the sources that actually respond.
var (
	usWeights = map[string]float64{
		"noaa":            0.40,
		"visual_crossing": 0.35,
		"open_meteo":      0.25,
	}
	localWeight  = 0.50 // non-US national service
	globalSplit  = map[string]float64{"open_meteo": 0.25, "visual_crossing": 0.25}
	noLocalSplit = map[string]float64{"open_meteo": 0.50, "visual_crossing": 0.50}
)

const (
	// twoSourceAgreementC: with only the two global models, they must agree
	// within this band or the ensemble is untradable.
	twoSourceAgreementC = 1.0

	// localDisagreementC: a national service further than this from the
	// global mean caps confidence at 0.50.
	localDisagreementC = 2.0
)

// Resolver builds a weighted consensus forecast from multiple providers.
// All math happens in Celsius.
type Resolver struct {
	providers map[string]ports.ForecastProvider
	log       *slog.Logger
}

// NewResolver indexes providers by name.
func NewResolver(providers []ports.ForecastProvider, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	idx := make(map[string]ports.ForecastProvider, len(providers))
	for _, p := range providers {
		idx[p.Name()] = p
	}
	return &Resolver{providers: idx, log: log}
}

// Resolve queries every provider that covers the city and folds the readings
// into an Ensemble. Fewer readings than the city's tier minimum (3 with a
// local service, 2 without) returns domain.ErrInsufficientSources.
func (r *Resolver) Resolve(ctx context.Context, city domain.City, date time.Time) (domain.Ensemble, error) {
	names := []string{"open_meteo", "visual_crossing"}
	if city.HasLocal() {
		names = append(names, city.LocalSource)
	}

	var readings []domain.SourceReading
	for _, name := range names {
		p, ok := r.providers[name]
		if !ok {
			continue
		}
		high, err := p.ForecastHigh(ctx, city, date)
		if err != nil {
			r.log.Warn("forecast source unavailable",
				"source", name, "city", city.Name, "error", err)
			continue
		}
		readings = append(readings, domain.SourceReading{
			Source: name,
			High:   high.In(domain.UnitCelsius),
			Local:  p.Local(),
		})
	}

	minSources := 2
	if city.HasLocal() {
		minSources = 3
	}
	if len(readings) < minSources {
		return domain.Ensemble{}, fmt.Errorf("forecast.Resolve %s: %d of %d sources: %w",
			city.Name, len(readings), minSources, domain.ErrInsufficientSources)
	}

	weights := weightsFor(city)
	var wsum, acc float64
	for _, rd := range readings {
		w := weights[rd.Source]
		wsum += w
		acc += w * rd.High.Value
	}
	consensus := acc / wsum

	spread := spreadOf(readings)
	confidence := clamp(1-spread/8, 0.30, 0.95)
	if len(readings) >= 3 && spread <= 2.0 {
		confidence = math.Min(confidence+0.10, 0.98)
	}
	if !city.HasLocal() && len(readings) == 2 && spread > twoSourceAgreementC {
		confidence = 0
	}

	ens := domain.Ensemble{
		Consensus:  domain.Celsius(consensus),
		Confidence: confidence,
		Readings:   readings,
		SpreadC:    spread,
	}

	if d, ok := localDelta(readings); ok && math.Abs(d) > localDisagreementC {
		ens.LocalDisagrees = true
		ens.DisagreementC = d
		ens.Confidence = math.Min(ens.Confidence, 0.50)
		r.log.Warn("local service disagrees with global models",
			"city", city.Name, "delta_c", d)
	}
	return ens, nil
}

func weightsFor(city domain.City) map[string]float64 {
	switch {
	case city.US:
		return usWeights
	case city.HasLocal():
		w := map[string]float64{city.LocalSource: localWeight}
		for k, v := range globalSplit {
			w[k] = v
		}
		return w
	default:
		return noLocalSplit
	}
}

func spreadOf(readings []domain.SourceReading) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range readings {
		lo = math.Min(lo, r.High.Value)
		hi = math.Max(hi, r.High.Value)
	}
	return hi - lo
}

// localDelta returns localHigh - mean(globalHighs), false when either side
// is missing.
func localDelta(readings []domain.SourceReading) (float64, bool) {
	var local float64
	var hasLocal bool
	var gsum float64
	var gn int
	for _, r := range readings {
		if r.Local {
			local = r.High.Value
			hasLocal = true
		} else {
			gsum += r.High.Value
			gn++
		}
	}
	if !hasLocal || gn == 0 {
		return 0, false
	}
	return local - gsum/float64(gn), true
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
