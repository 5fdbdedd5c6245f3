package domain

// SourceReading is one provider's forecast high for a city and date.
// Providers always report in Celsius; conversion to a market's native unit
// happens later, at the edge boundary.
type SourceReading struct {
	Source string
	High   Temperature
	Local  bool // national weather service for the city
}

// Ensemble is the weighted consensus across forecast sources.
type Ensemble struct {
	Consensus  Temperature // Celsius
	Confidence float64     // 0..1
	Readings   []SourceReading
	SpreadC    float64 // max - min across readings, °C

	// LocalDisagrees is set when the national service deviates more than
	// 2 °C from the global-source mean. It caps confidence at 0.50 and
	// blocks fresh entries.
	LocalDisagrees bool
	DisagreementC  float64
}

// SourceCount returns how many providers contributed.
func (e Ensemble) SourceCount() int { return len(e.Readings) }

// HasLocal reports whether a national weather service contributed.
func (e Ensemble) HasLocal() bool {
	for _, r := range e.Readings {
		if r.Local {
			return true
		}
	}
	return false
}

// SourceNames lists contributing providers in reading order.
func (e Ensemble) SourceNames() []string {
	names := make([]string, 0, len(e.Readings))
	for _, r := range e.Readings {
		names = append(names, r.Source)
	}
	return names
}
