package ports

import (
	"context"

	"github.com/acalderon/weathertrader/internal/domain"
)

// MarketProvider discovers tradable weather markets.
// Implemented by adapters/polymarket over the Gamma API.
type MarketProvider interface {
	// FetchWeatherMarkets returns open highest-temperature markets for
	// registered cities resolving within the next daysAhead days.
	FetchWeatherMarkets(ctx context.Context, daysAhead int) ([]domain.WeatherMarket, error)
}
