package fare

import "math"

// CalculatePrice returns the fare in whole currency units.
//
// The first 8 km are included in basePrice; every further kilometre (after
// rounding the distance to one decimal) costs pricePerKm. A surcharge is
// always added. Inputs that make the fare meaningless (non-positive
// distance, rate or base, or any NaN/Inf) yield 0, which callers treat as
// "pending" rather than as a quote.
func CalculatePrice(distanceKm, pricePerKm, basePrice, surcharge float64) int64 {
	return price(distanceKm, pricePerKm, basePrice, surcharge, DefaultMinimumDistanceKm)
}

func price(distanceKm, pricePerKm, basePrice, surcharge, baseDistance float64) int64 {
	if !finite(distanceKm, pricePerKm, basePrice, surcharge) {
		return 0
	}
	if distanceKm <= 0 || pricePerKm <= 0 || basePrice <= 0 {
		return 0
	}

	d := roundTo1(distanceKm)
	total := basePrice + surcharge
	if d > baseDistance {
		total += (d - baseDistance) * pricePerKm
	}
	return int64(math.Round(total))
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
