package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

const defaultBOMBase = "https://api.weather.bom.gov.au"

// BOM is the Australian Bureau of Meteorology. Its API keys locations by
// geohash rather than coordinates.
type BOM struct {
	base   string
	client *client
}

// NewBOM builds the provider. An empty base falls back to production.
func NewBOM(base string, log *slog.Logger) *BOM {
	if base == "" {
		base = defaultBOMBase
	}
	return &BOM{base: base, client: newClient("bom", log)}
}

func (p *BOM) Name() string { return "bom" }
func (p *BOM) Local() bool  { return true }

type bomForecastResponse struct {
	Data []struct {
		Date    string   `json:"date"`
		TempMax *float64 `json:"temp_max"`
	} `json:"data"`
}

// ForecastHigh returns the predicted daily high in Celsius.
func (p *BOM) ForecastHigh(ctx context.Context, city domain.City, date time.Time) (domain.Temperature, error) {
	endpoint := fmt.Sprintf("%s/v1/locations/%s/forecasts/daily", p.base, geohash(city.Lat, city.Lon, 6))

	var resp bomForecastResponse
	if err := p.client.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return domain.Temperature{}, fmt.Errorf("bom.ForecastHigh %s: %w", city.Name, err)
	}

	day := dateParam(date)
	for _, d := range resp.Data {
		if !strings.HasPrefix(d.Date, day) || d.TempMax == nil {
			continue
		}
		return domain.Celsius(*d.TempMax), nil
	}
	return domain.Temperature{}, fmt.Errorf("bom.ForecastHigh %s: no forecast for %s", city.Name, day)
}

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// geohash encodes coordinates to the precision the BOM API expects.
func geohash(lat, lon float64, precision int) string {
	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	var sb strings.Builder
	var bits, ch int
	even := true

	for sb.Len() < precision {
		if even {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon >= mid {
				ch = ch<<1 | 1
				lonRange[0] = mid
			} else {
				ch <<= 1
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				ch = ch<<1 | 1
				latRange[0] = mid
			} else {
				ch <<= 1
				latRange[1] = mid
			}
		}
		even = !even

		bits++
		if bits == 5 {
			sb.WriteByte(geohashAlphabet[ch])
			bits, ch = 0, 0
		}
	}
	return sb.String()
}
