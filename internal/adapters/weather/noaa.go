package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

const defaultNOAABase = "https://api.weather.gov"

// NOAA is the US National Weather Service. Two-step API: /points resolves
// coordinates to a gridpoint forecast URL, which is then fetched for the
// daily periods. Gridpoint URLs are stable per city, so they are cached.
type NOAA struct {
	base   string
	client *client

	mu        sync.Mutex
	gridpoint map[string]string // city name -> forecast URL
}

// NewNOAA builds the provider. An empty base falls back to production.
func NewNOAA(base string, log *slog.Logger) *NOAA {
	if base == "" {
		base = defaultNOAABase
	}
	return &NOAA{
		base:      base,
		client:    newClient("noaa", log),
		gridpoint: make(map[string]string),
	}
}

func (p *NOAA) Name() string { return "noaa" }
func (p *NOAA) Local() bool  { return true }

type noaaPointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type noaaForecastResponse struct {
	Properties struct {
		Periods []struct {
			StartTime       string `json:"startTime"`
			IsDaytime       bool   `json:"isDaytime"`
			Temperature     int    `json:"temperature"`
			TemperatureUnit string `json:"temperatureUnit"`
		} `json:"periods"`
	} `json:"properties"`
}

// api.weather.gov rejects requests without a User-Agent.
func noaaHeader() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "weathertrader (contact@weathertrader.dev)")
	return h
}

// ForecastHigh returns the daytime high for the date, converted to Celsius.
func (p *NOAA) ForecastHigh(ctx context.Context, city domain.City, date time.Time) (domain.Temperature, error) {
	forecastURL, err := p.forecastURL(ctx, city)
	if err != nil {
		return domain.Temperature{}, fmt.Errorf("noaa.ForecastHigh %s: %w", city.Name, err)
	}

	var resp noaaForecastResponse
	if err := p.client.getJSON(ctx, forecastURL, noaaHeader(), &resp); err != nil {
		return domain.Temperature{}, fmt.Errorf("noaa.ForecastHigh %s: %w", city.Name, err)
	}

	day := dateParam(date)
	for _, period := range resp.Properties.Periods {
		if !period.IsDaytime || !strings.HasPrefix(period.StartTime, day) {
			continue
		}
		t := float64(period.Temperature)
		if strings.EqualFold(period.TemperatureUnit, "C") {
			return domain.Celsius(t), nil
		}
		return domain.Fahrenheit(t).In(domain.UnitCelsius), nil
	}
	return domain.Temperature{}, fmt.Errorf("noaa.ForecastHigh %s: no daytime period for %s", city.Name, day)
}

func (p *NOAA) forecastURL(ctx context.Context, city domain.City) (string, error) {
	p.mu.Lock()
	cached, ok := p.gridpoint[city.Name]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/points/%.4f,%.4f", p.base, city.Lat, city.Lon)
	var resp noaaPointsResponse
	if err := p.client.getJSON(ctx, endpoint, noaaHeader(), &resp); err != nil {
		return "", err
	}
	if resp.Properties.Forecast == "" {
		return "", fmt.Errorf("points lookup returned no forecast URL")
	}

	p.mu.Lock()
	p.gridpoint[city.Name] = resp.Properties.Forecast
	p.mu.Unlock()
	return resp.Properties.Forecast, nil
}
