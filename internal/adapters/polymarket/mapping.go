package polymarket

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

// mapOrderStatus folds the CLOB status strings into the three lifecycle
// states. A partially matched LIVE order stays OPEN until fully matched.
func mapOrderStatus(raw clobOrderStatus) domain.OrderState {
	st := domain.OrderState{Status: domain.OrderOpen}
	switch strings.ToUpper(raw.Status) {
	case "MATCHED", "FILLED":
		st.Status = domain.OrderFilled
	case "CANCELED", "CANCELLED", "EXPIRED":
		st.Status = domain.OrderCancelled
	}
	if v, err := raw.SizeMatched.Float64(); err == nil {
		st.FilledSize = v
	}
	if v, err := raw.Price.Float64(); err == nil {
		st.AvgPrice = v
	}
	return st
}

// mapOrderBook converts a raw book to domain, sorted bids-descending and
// asks-ascending.
func mapOrderBook(tokenID string, r orderBookResponse) domain.OrderBook {
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    mapBookEntries(r.Bids, false),
		Asks:    mapBookEntries(r.Asks, true),
	}
}

func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}

// thresholdPattern matches "reach 54°F", "hit 28°C", "reach 54 degrees" and
// similar phrasings in market questions.
var thresholdPattern = regexp.MustCompile(`(?i)(?:reach|hit|exceed|above|of)\s+(-?\d+(?:\.\d+)?)\s*°?\s*(F|C|degrees?)`)

// parseThreshold extracts the temperature threshold from a question. US
// questions quote Fahrenheit; everything else Celsius; "degrees" without a
// letter follows the city's convention.
func parseThreshold(question string, us bool) (domain.Temperature, bool) {
	m := thresholdPattern.FindStringSubmatch(question)
	if m == nil {
		return domain.Temperature{}, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.Temperature{}, false
	}
	unit := strings.ToUpper(m[2])
	switch {
	case unit == "F":
		return domain.Fahrenheit(v), true
	case unit == "C":
		return domain.Celsius(v), true
	case us:
		return domain.Fahrenheit(v), true
	default:
		return domain.Celsius(v), true
	}
}

// mapWeatherMarket builds a domain.WeatherMarket from a Gamma market inside
// an event. ok is false when the question is not a parseable
// highest-temperature market for a registered city.
func mapWeatherMarket(eventID string, gm gammaMarket) (domain.WeatherMarket, bool) {
	if gm.Closed || !gm.Active {
		return domain.WeatherMarket{}, false
	}
	q := strings.ToLower(gm.Question)
	if !strings.Contains(q, "temperature") && !strings.Contains(q, "high temp") {
		return domain.WeatherMarket{}, false
	}

	city, ok := domain.FindCityIn(gm.Question)
	if !ok {
		return domain.WeatherMarket{}, false
	}
	threshold, ok := parseThreshold(gm.Question, city.US)
	if !ok {
		return domain.WeatherMarket{}, false
	}

	m := domain.WeatherMarket{
		ConditionID: gm.ConditionID,
		EventID:     eventID,
		Question:    gm.Question,
		Slug:        gm.Slug,
		City:        city,
		Threshold:   threshold,
	}

	if gm.EndDateISO != "" {
		// Gamma uses several date formats; try the common ones.
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, gm.EndDateISO); err == nil {
				m.EndDate = t.UTC()
				break
			}
		}
	}
	if m.EndDate.IsZero() {
		return domain.WeatherMarket{}, false
	}
	m.Date = m.EndDate

	if v, err := gm.Liquidity.Float64(); err == nil {
		m.Liquidity = v
	}

	var tokens []string
	if err := json.Unmarshal([]byte(gm.ClobTokenIDs), &tokens); err != nil || len(tokens) < 2 {
		return domain.WeatherMarket{}, false
	}
	var outcomes []string
	_ = json.Unmarshal([]byte(gm.Outcomes), &outcomes)
	var prices []string
	_ = json.Unmarshal([]byte(gm.OutcomePrices), &prices)

	for i, tok := range tokens[:2] {
		outcome := "Yes"
		if i < len(outcomes) {
			outcome = outcomes[i]
		} else if i == 1 {
			outcome = "No"
		}
		price := 0.0
		if i < len(prices) {
			price = domain.ParsePrice(prices[i])
		}
		if strings.EqualFold(outcome, "no") {
			m.NoTokenID = tok
			m.NoPrice = price
		} else {
			m.YesTokenID = tok
			m.YesPrice = price
		}
	}
	if m.YesTokenID == "" || m.NoTokenID == "" {
		return domain.WeatherMarket{}, false
	}
	return m, true
}
