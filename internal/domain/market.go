package domain

import "time"

// WeatherMarket is a binary "highest temperature" market: it resolves YES
// when the observed daily high reaches the threshold. Threshold keeps the
// unit the market is quoted in (°F for US cities, °C elsewhere).
type WeatherMarket struct {
	ConditionID string
	EventID     string
	Question    string
	Slug        string

	City      City
	Date      time.Time // local calendar day the market measures
	Threshold Temperature
	EndDate   time.Time // resolution deadline

	YesTokenID string
	NoTokenID  string
	YesPrice   float64
	NoPrice    float64
	Liquidity  float64
}

// TokenFor returns the CLOB token id for a side.
func (m WeatherMarket) TokenFor(side Side) string {
	if side == SideNo {
		return m.NoTokenID
	}
	return m.YesTokenID
}

// PriceFor returns the quoted price for a side.
func (m WeatherMarket) PriceFor(side Side) float64 {
	if side == SideNo {
		return m.NoPrice
	}
	return m.YesPrice
}

// HoursToResolution returns hours until the market resolves. Negative when
// the deadline has passed.
func (m WeatherMarket) HoursToResolution(now time.Time) float64 {
	return m.EndDate.Sub(now).Hours()
}

// TruncateQuestion shortens a market question for table output, falling back
// to the condition id when the question is empty.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		if len(conditionID) > 20 {
			q = conditionID[:20] + "..."
		} else {
			q = conditionID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
