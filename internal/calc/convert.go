package calc

import "math"

// MilesPerKm is the number of statute miles in one kilometre.
const MilesPerKm = 0.621371

// MetersPerKm is the number of metres in one kilometre.
const MetersPerKm = 1000.0

// KmToMiles converts kilometres to miles.
func KmToMiles(km float64) float64 { return km * MilesPerKm }

// MilesToKm converts miles to kilometres.
func MilesToKm(mi float64) float64 { return mi / MilesPerKm }

// MetersToKm converts metres to kilometres.
func MetersToKm(m float64) float64 { return m / MetersPerKm }

// CelsiusToFahrenheit applies F = C*9/5 + 32.
func CelsiusToFahrenheit(c float64) float64 { return c*9.0/5.0 + 32.0 }

// FahrenheitToCelsius applies C = (F-32)*5/9.
func FahrenheitToCelsius(f float64) float64 { return (f - 32.0) * 5.0 / 9.0 }

// Round rounds v to the given number of decimal places, sending exact
// midpoints to the nearest even digit.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(places))
	scaled := v * scale
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.RoundToEven(scaled) / scale
}
