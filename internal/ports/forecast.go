package ports

import (
	"context"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

// ForecastProvider is one weather source. Implementations always report the
// forecast high in Celsius.
type ForecastProvider interface {
	// Name identifies the provider in weights, logs and stored source lists.
	Name() string

	// Local reports whether this is a national weather service rather than
	// a global model.
	Local() bool

	// ForecastHigh returns the predicted daily high for the city's
	// coordinates on the given date.
	ForecastHigh(ctx context.Context, city domain.City, date time.Time) (domain.Temperature, error)
}
