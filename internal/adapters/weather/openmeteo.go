package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

const defaultOpenMeteoBase = "https://api.open-meteo.com"

// OpenMeteo is the Open-Meteo global model. No API key, generous free tier.
type OpenMeteo struct {
	base   string
	client *client
}

// NewOpenMeteo builds the provider. An empty base falls back to production.
func NewOpenMeteo(base string, log *slog.Logger) *OpenMeteo {
	if base == "" {
		base = defaultOpenMeteoBase
	}
	return &OpenMeteo{base: base, client: newClient("open_meteo", log)}
}

func (p *OpenMeteo) Name() string { return "open_meteo" }
func (p *OpenMeteo) Local() bool  { return false }

type openMeteoResponse struct {
	Daily struct {
		Time             []string  `json:"time"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
	} `json:"daily"`
}

// ForecastHigh returns the predicted daily high in Celsius.
func (p *OpenMeteo) ForecastHigh(ctx context.Context, city domain.City, date time.Time) (domain.Temperature, error) {
	day := dateParam(date)
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", city.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", city.Lon))
	q.Set("daily", "temperature_2m_max")
	q.Set("timezone", "auto")
	q.Set("start_date", day)
	q.Set("end_date", day)

	var resp openMeteoResponse
	if err := p.client.getJSON(ctx, p.base+"/v1/forecast?"+q.Encode(), nil, &resp); err != nil {
		return domain.Temperature{}, fmt.Errorf("openmeteo.ForecastHigh %s: %w", city.Name, err)
	}
	if len(resp.Daily.Temperature2mMax) == 0 {
		return domain.Temperature{}, fmt.Errorf("openmeteo.ForecastHigh %s: no forecast for %s", city.Name, day)
	}
	return domain.Celsius(resp.Daily.Temperature2mMax[0]), nil
}
