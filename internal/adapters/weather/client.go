// Package weather implements the forecast providers behind
// ports.ForecastProvider. Every provider reports the daily high in Celsius;
// each one runs behind its own circuit breaker so a flapping upstream trips
// out without blocking the others.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	requestTimeout = 10 * time.Second

	// Free-tier friendly: one request per second per provider, small burst.
	providerRatePerSec = 1
	providerBurst      = 5
)

// ErrProviderDown wraps breaker-open failures so callers can tell a tripped
// provider from a transient fetch error.
var ErrProviderDown = errors.New("weather provider unavailable")

// client is the shared HTTP plumbing for one provider.
type client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     *slog.Logger
}

func newClient(name string, log *slog.Logger) *client {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("provider", name)

	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		},
	}

	return &client{
		http:    &http.Client{Timeout: requestTimeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(providerRatePerSec, providerBurst),
		log:     log,
	}
}

// getJSON fetches url through the rate limiter and circuit breaker, decoding
// the body into out.
func (c *client) getJSON(ctx context.Context, url string, header http.Header, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	return err
}

func dateParam(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}
