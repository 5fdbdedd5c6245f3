package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

const defaultVisualCrossingBase = "https://weather.visualcrossing.com"

// VisualCrossing is the Visual Crossing timeline API. Requires an API key.
type VisualCrossing struct {
	base   string
	apiKey string
	client *client
}

// NewVisualCrossing builds the provider. An empty base falls back to
// production.
func NewVisualCrossing(base, apiKey string, log *slog.Logger) *VisualCrossing {
	if base == "" {
		base = defaultVisualCrossingBase
	}
	return &VisualCrossing{base: base, apiKey: apiKey, client: newClient("visual_crossing", log)}
}

func (p *VisualCrossing) Name() string { return "visual_crossing" }
func (p *VisualCrossing) Local() bool  { return false }

type visualCrossingResponse struct {
	Days []struct {
		Datetime string  `json:"datetime"`
		TempMax  float64 `json:"tempmax"`
	} `json:"days"`
}

// ForecastHigh returns the predicted daily high in Celsius.
func (p *VisualCrossing) ForecastHigh(ctx context.Context, city domain.City, date time.Time) (domain.Temperature, error) {
	day := dateParam(date)
	q := url.Values{}
	q.Set("unitGroup", "metric")
	q.Set("include", "days")
	q.Set("key", p.apiKey)

	endpoint := fmt.Sprintf("%s/VisualCrossingWebServices/rest/services/timeline/%.4f,%.4f/%s?%s",
		p.base, city.Lat, city.Lon, day, q.Encode())

	var resp visualCrossingResponse
	if err := p.client.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return domain.Temperature{}, fmt.Errorf("visualcrossing.ForecastHigh %s: %w", city.Name, err)
	}
	if len(resp.Days) == 0 {
		return domain.Temperature{}, fmt.Errorf("visualcrossing.ForecastHigh %s: no forecast for %s", city.Name, day)
	}
	return domain.Celsius(resp.Days[0].TempMax), nil
}
