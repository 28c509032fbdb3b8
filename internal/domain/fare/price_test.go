package fare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePrice(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		perKm    float64
		base     float64
		sur      float64
		want     int64
	}{
		{"at base distance", 8, 3500, 80000, 45000, 125000},
		{"beyond base distance", 20, 3500, 80000, 45000, 167000},
		{"MPV 12.4 km", 12.4, 3500, 80000, 45000, 140400},
		{"Electric 12.4 km", 12.4, 3000, 70000, 35000, 118200},
		{"rounds distance to one decimal", 8.04, 3500, 80000, 45000, 125000},
		{"rounds up to next tenth", 8.06, 3500, 80000, 45000, 125350},
		{"short trip ignores per km", 0.1, 999999, 80000, 45000, 125000},
		{"zero surcharge", 10, 1000, 50000, 0, 52000},
		{"zero distance", 0, 3500, 80000, 45000, 0},
		{"negative distance", -5, 3500, 80000, 45000, 0},
		{"zero per km", 12, 0, 80000, 45000, 0},
		{"negative base", 12, 3500, -1, 45000, 0},
		{"NaN distance", math.NaN(), 3500, 80000, 45000, 0},
		{"NaN surcharge", 12, 3500, 80000, math.NaN(), 0},
		{"infinite rate", 12, math.Inf(1), 80000, 45000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculatePrice(tt.distance, tt.perKm, tt.base, tt.sur))
		})
	}
}

func TestCalculatePrice_FlatWithinBaseDistance(t *testing.T) {
	for _, d := range []float64{0.1, 1, 3.3, 7.99, 8} {
		for _, p := range []float64{1, 3500, 1e6} {
			assert.Equal(t, int64(math.Round(80000+45000)), CalculatePrice(d, p, 80000, 45000))
		}
	}
}

func TestTariff_PriceMatchesCalculatePrice(t *testing.T) {
	for _, tariff := range DefaultTariffs() {
		for _, d := range []float64{0.1, 8, 12.4, 33.75} {
			assert.Equal(t,
				CalculatePrice(d, tariff.PricePerKm, tariff.BasePrice, tariff.Surcharge),
				tariff.Price(d),
				"%s at %.2f km", tariff.VehicleTypeName, d,
			)
		}
	}
}

func TestTariff_CustomMinimumDistance(t *testing.T) {
	tariff := Tariff{VehicleTypeName: "Shuttle", PricePerKm: 1000, BasePrice: 20000, Surcharge: 0, MinimumDistanceKm: 5}
	assert.Equal(t, int64(25000), tariff.Price(10))

	unset := Tariff{VehicleTypeName: "Shuttle", PricePerKm: 1000, BasePrice: 20000}
	assert.Equal(t, int64(22000), unset.Price(10))
}

func TestDefaultTariffs(t *testing.T) {
	all := DefaultTariffs()
	assert.Len(t, all, 5)

	mpv, ok := DefaultTariff("MPV")
	assert.True(t, ok)
	assert.Equal(t, 3500.0, mpv.PricePerKm)
	assert.Equal(t, 80000.0, mpv.BasePrice)
	assert.Equal(t, 45000.0, mpv.Surcharge)

	_, ok = DefaultTariff("Helicopter")
	assert.False(t, ok)
}
