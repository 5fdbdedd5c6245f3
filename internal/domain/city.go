package domain

import "strings"

// City is one entry in the supported-market registry. LocalSource names the
// national weather service that covers the city, or is empty when only the
// global providers apply.
type City struct {
	Name        string
	Lat         float64
	Lon         float64
	US          bool
	LocalSource string // "noaa", "metservice", "bom" or ""
}

// HasLocal reports whether a national weather service covers the city.
func (c City) HasLocal() bool { return c.LocalSource != "" }

// Cities is the registry of cities whose temperature markets we trade.
var Cities = []City{
	{Name: "NYC", Lat: 40.7128, Lon: -74.0060, US: true, LocalSource: "noaa"},
	{Name: "Los Angeles", Lat: 34.0522, Lon: -118.2437, US: true, LocalSource: "noaa"},
	{Name: "Chicago", Lat: 41.8781, Lon: -87.6298, US: true, LocalSource: "noaa"},
	{Name: "Miami", Lat: 25.7617, Lon: -80.1918, US: true, LocalSource: "noaa"},
	{Name: "Denver", Lat: 39.7392, Lon: -104.9903, US: true, LocalSource: "noaa"},
	{Name: "Austin", Lat: 30.2672, Lon: -97.7431, US: true, LocalSource: "noaa"},
	{Name: "Seattle", Lat: 47.6062, Lon: -122.3321, US: true, LocalSource: "noaa"},
	{Name: "London", Lat: 51.5074, Lon: -0.1278},
	{Name: "Paris", Lat: 48.8566, Lon: 2.3522},
	{Name: "Berlin", Lat: 52.5200, Lon: 13.4050},
	{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503},
	{Name: "Seoul", Lat: 37.5665, Lon: 126.9780},
	{Name: "Sydney", Lat: -33.8688, Lon: 151.2093, LocalSource: "bom"},
	{Name: "Auckland", Lat: -36.8485, Lon: 174.7633, LocalSource: "metservice"},
	{Name: "Wellington", Lat: -41.2866, Lon: 174.7756, LocalSource: "metservice"},
}

// CityByName looks a city up case-insensitively. Second return is false when
// the city is not in the registry.
func CityByName(name string) (City, bool) {
	for _, c := range Cities {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return City{}, false
}

// FindCityIn scans free text (a market question) for a registered city name.
func FindCityIn(text string) (City, bool) {
	lower := strings.ToLower(text)
	for _, c := range Cities {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c, true
		}
	}
	if strings.Contains(lower, "new york") {
		return CityByName("NYC")
	}
	return City{}, false
}
