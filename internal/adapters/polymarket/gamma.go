package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

const (
	gammaEventsPath = "/events"
	gammaPageSize   = 100
	gammaMaxPages   = 10
)

// FetchWeatherMarkets walks the Gamma /events listing and returns the
// daily-high temperature markets for registered cities resolving within
// daysAhead days. Markets that fail to parse are skipped.
func (c *Client) FetchWeatherMarkets(ctx context.Context, daysAhead int) ([]domain.WeatherMarket, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, daysAhead)

	var markets []domain.WeatherMarket
	seen := make(map[string]bool)

	for page := 0; page < gammaMaxPages; page++ {
		q := url.Values{}
		q.Set("tag_slug", "weather")
		q.Set("active", "true")
		q.Set("closed", "false")
		q.Set("limit", fmt.Sprint(gammaPageSize))
		q.Set("offset", fmt.Sprint(page*gammaPageSize))

		var resp gammaEventsResponse
		if err := c.get(ctx, c.gammaLimiter, c.gammaBase+gammaEventsPath+"?"+q.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("gamma.FetchWeatherMarkets: page %d: %w", page, err)
		}

		for _, ev := range resp {
			for _, gm := range ev.Markets {
				m, ok := mapWeatherMarket(ev.ID, gm)
				if !ok || seen[m.ConditionID] {
					continue
				}
				if m.EndDate.After(cutoff) {
					continue
				}
				seen[m.ConditionID] = true
				markets = append(markets, m)
			}
		}

		if len(resp) < gammaPageSize {
			break
		}
	}

	c.log.Debug("weather market fetch complete",
		"markets", len(markets),
		"days_ahead", daysAhead,
	)
	return markets, nil
}
