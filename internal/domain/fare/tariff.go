package fare

import (
	"context"
	"errors"
	"sort"
)

// DefaultMinimumDistanceKm is the distance included in a tariff's base price.
const DefaultMinimumDistanceKm = 8.0

// ErrTariffNotFound is returned by a TariffSource that has no row for a name.
var ErrTariffNotFound = errors.New("tariff not found")

// Tariff is the pricing rule of one vehicle category.
type Tariff struct {
	VehicleTypeName   string  `json:"vehicle_type_name"`
	PricePerKm        float64 `json:"price_per_km"`
	BasePrice         float64 `json:"base_price"`
	Surcharge         float64 `json:"surcharge"`
	MinimumDistanceKm float64 `json:"minimum_distance_km"`
}

// IsZero reports whether no tariff has been selected.
func (t Tariff) IsZero() bool {
	return t.VehicleTypeName == "" && t.PricePerKm == 0 && t.BasePrice == 0
}

// Price returns the fare for distanceKm under this tariff, or 0 when it
// cannot be computed.
func (t Tariff) Price(distanceKm float64) int64 {
	return price(distanceKm, t.PricePerKm, t.BasePrice, t.Surcharge, t.minimumDistance())
}

func (t Tariff) minimumDistance() float64 {
	if t.MinimumDistanceKm <= 0 {
		return DefaultMinimumDistanceKm
	}
	return t.MinimumDistanceKm
}

// TariffSource looks up the tariff for a vehicle type.
type TariffSource interface {
	Tariff(ctx context.Context, vehicleTypeName string) (Tariff, error)
}

var defaultTariffs = map[string]Tariff{
	"MPV":      {VehicleTypeName: "MPV", PricePerKm: 3500, BasePrice: 80000, Surcharge: 45000, MinimumDistanceKm: DefaultMinimumDistanceKm},
	"Electric": {VehicleTypeName: "Electric", PricePerKm: 3000, BasePrice: 70000, Surcharge: 35000, MinimumDistanceKm: DefaultMinimumDistanceKm},
	"Sedan":    {VehicleTypeName: "Sedan", PricePerKm: 3000, BasePrice: 60000, Surcharge: 30000, MinimumDistanceKm: DefaultMinimumDistanceKm},
	"SUV":      {VehicleTypeName: "SUV", PricePerKm: 4000, BasePrice: 100000, Surcharge: 50000, MinimumDistanceKm: DefaultMinimumDistanceKm},
	"Premium":  {VehicleTypeName: "Premium", PricePerKm: 5000, BasePrice: 150000, Surcharge: 60000, MinimumDistanceKm: DefaultMinimumDistanceKm},
}

// DefaultTariffs returns the built-in tariff table, sorted by name.
func DefaultTariffs() []Tariff {
	out := make([]Tariff, 0, len(defaultTariffs))
	for _, t := range defaultTariffs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleTypeName < out[j].VehicleTypeName })
	return out
}

// DefaultTariff returns the built-in tariff for a vehicle type.
func DefaultTariff(vehicleTypeName string) (Tariff, bool) {
	t, ok := defaultTariffs[vehicleTypeName]
	return t, ok
}
