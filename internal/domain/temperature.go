package domain

import "fmt"

// Unit is the temperature scale a value is expressed in.
type Unit string

const (
	UnitCelsius    Unit = "C"
	UnitFahrenheit Unit = "F"
)

// Temperature is a unit-tagged temperature value. All forecast math happens
// in Celsius; conversion to a market's native unit happens exactly once, at
// the edge-calculation boundary. Carrying the unit with the value turns a
// mixed-unit comparison into an explicit ErrUnitMismatch instead of a wrong
// trading decision.
type Temperature struct {
	Value float64
	Unit  Unit
}

// Celsius builds a Temperature in °C.
func Celsius(v float64) Temperature {
	return Temperature{Value: v, Unit: UnitCelsius}
}

// Fahrenheit builds a Temperature in °F.
func Fahrenheit(v float64) Temperature {
	return Temperature{Value: v, Unit: UnitFahrenheit}
}

// In converts the temperature to the given unit.
func (t Temperature) In(u Unit) Temperature {
	if t.Unit == u {
		return t
	}
	switch u {
	case UnitFahrenheit:
		return Temperature{Value: t.Value*9/5 + 32, Unit: UnitFahrenheit}
	default:
		return Temperature{Value: (t.Value - 32) * 5 / 9, Unit: UnitCelsius}
	}
}

// Minus returns t - o in t's unit. Fails with ErrUnitMismatch when the units
// differ — callers must convert explicitly first.
func (t Temperature) Minus(o Temperature) (float64, error) {
	if t.Unit != o.Unit {
		return 0, fmt.Errorf("temperature %s%s vs %s%s: %w",
			format(t.Value), t.Unit, format(o.Value), o.Unit, ErrUnitMismatch)
	}
	return t.Value - o.Value, nil
}

// Above reports whether t >= o. Same unit required.
func (t Temperature) Above(o Temperature) (bool, error) {
	d, err := t.Minus(o)
	if err != nil {
		return false, err
	}
	return d >= 0, nil
}

func (t Temperature) String() string {
	return fmt.Sprintf("%s°%s", format(t.Value), t.Unit)
}

func format(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
