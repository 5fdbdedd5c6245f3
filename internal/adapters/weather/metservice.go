package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

const defaultMetServiceBase = "https://www.metservice.com"

// MetService is New Zealand's national weather service. Its public data API
// is keyed by location name, not coordinates.
type MetService struct {
	base   string
	client *client
}

// NewMetService builds the provider. An empty base falls back to production.
func NewMetService(base string, log *slog.Logger) *MetService {
	if base == "" {
		base = defaultMetServiceBase
	}
	return &MetService{base: base, client: newClient("metservice", log)}
}

func (p *MetService) Name() string { return "metservice" }
func (p *MetService) Local() bool  { return true }

type metServiceResponse struct {
	Days []struct {
		Date string `json:"date"`
		Max  string `json:"max"` // reported as a string, e.g. "21"
	} `json:"days"`
}

// ForecastHigh returns the predicted daily high in Celsius.
func (p *MetService) ForecastHigh(ctx context.Context, city domain.City, date time.Time) (domain.Temperature, error) {
	location := strings.ReplaceAll(strings.ToLower(city.Name), " ", "-")
	endpoint := fmt.Sprintf("%s/publicData/localForecast%s", p.base, location)

	var resp metServiceResponse
	if err := p.client.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return domain.Temperature{}, fmt.Errorf("metservice.ForecastHigh %s: %w", city.Name, err)
	}

	day := dateParam(date)
	for _, d := range resp.Days {
		if !strings.HasPrefix(d.Date, day) {
			continue
		}
		high, err := strconv.ParseFloat(d.Max, 64)
		if err != nil {
			return domain.Temperature{}, fmt.Errorf("metservice.ForecastHigh %s: bad max %q: %w", city.Name, d.Max, err)
		}
		return domain.Celsius(high), nil
	}
	return domain.Temperature{}, fmt.Errorf("metservice.ForecastHigh %s: no forecast for %s", city.Name, day)
}
