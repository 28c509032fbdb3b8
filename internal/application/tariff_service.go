package application

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/fare"
)

// TariffStore is the persistent tariff table.
type TariffStore interface {
	fare.TariffSource
	List(ctx context.Context) ([]fare.Tariff, error)
	Upsert(ctx context.Context, t fare.Tariff) error
}

// RouteEstimator resolves driving distance and duration between two points.
type RouteEstimator interface {
	Resolve(ctx context.Context, origin, destination fare.LatLng) fare.RouteEstimate
}

// UpsertTariffRequest is the admin payload for a vehicle type's prices.
type UpsertTariffRequest struct {
	VehicleTypeName   string  `json:"vehicle_type_name" binding:"required"`
	PricePerKm        float64 `json:"price_per_km" binding:"required"`
	BasePrice         float64 `json:"base_price" binding:"required"`
	Surcharge         float64 `json:"surcharge"`
	MinimumDistanceKm float64 `json:"minimum_distance_km"`
}

// QuoteRequest asks for fares between two points, or for a known distance.
type QuoteRequest struct {
	Origin      *fare.LatLng `json:"origin"`
	Destination *fare.LatLng `json:"destination"`
	DistanceKm  float64      `json:"distance_km"`
	VehicleType string       `json:"vehicle_type"`
}

// QuoteOption is the fare of one vehicle type.
type QuoteOption struct {
	VehicleType string `json:"vehicle_type"`
	Price       int64  `json:"price"`
}

// QuoteDTO is the response of a fare quote.
type QuoteDTO struct {
	DistanceKm  float64       `json:"distance_km"`
	DurationMin int           `json:"duration_min,omitempty"`
	RouteSource string        `json:"route_source,omitempty"`
	Currency    string        `json:"currency"`
	Options     []QuoteOption `json:"options"`
}

// TariffService looks up tariffs, falling back to the built-in table when
// the store misses or is down, and prices quotes.
type TariffService struct {
	store    TariffStore
	resolver RouteEstimator
	logger   *zap.Logger
}

// NewTariffService creates a new TariffService.
func NewTariffService(store TariffStore, resolver RouteEstimator, logger *zap.Logger) *TariffService {
	return &TariffService{store: store, resolver: resolver, logger: logger}
}

// Tariff returns the tariff of a vehicle type.
func (s *TariffService) Tariff(ctx context.Context, vehicleType string) (fare.Tariff, error) {
	vehicleType = strings.TrimSpace(vehicleType)
	if vehicleType == "" {
		return fare.Tariff{}, domain.NewValidationError("vehicle type is required")
	}

	t, err := s.store.Tariff(ctx, vehicleType)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, fare.ErrTariffNotFound) {
		s.logger.Warn("tariff lookup failed, using default table",
			zap.String("vehicle_type", vehicleType),
			zap.Error(err),
		)
	}
	if def, ok := fare.DefaultTariff(vehicleType); ok {
		return def, nil
	}
	return fare.Tariff{}, domain.NewNotFoundError("VehicleType", vehicleType)
}

// ListTariffs returns every vehicle type with its prices.
func (s *TariffService) ListTariffs(ctx context.Context) ([]fare.Tariff, error) {
	tariffs, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("tariff listing failed, using default table", zap.Error(err))
		return fare.DefaultTariffs(), nil
	}
	if len(tariffs) == 0 {
		return fare.DefaultTariffs(), nil
	}
	return tariffs, nil
}

// UpsertTariff creates or reprices a vehicle type (admin).
func (s *TariffService) UpsertTariff(ctx context.Context, req UpsertTariffRequest) (fare.Tariff, error) {
	t := fare.Tariff{
		VehicleTypeName:   strings.TrimSpace(req.VehicleTypeName),
		PricePerKm:        req.PricePerKm,
		BasePrice:         req.BasePrice,
		Surcharge:         req.Surcharge,
		MinimumDistanceKm: req.MinimumDistanceKm,
	}
	if t.MinimumDistanceKm == 0 {
		t.MinimumDistanceKm = fare.DefaultMinimumDistanceKm
	}
	if err := validateTariff(t); err != nil {
		return fare.Tariff{}, err
	}
	if err := s.store.Upsert(ctx, t); err != nil {
		return fare.Tariff{}, err
	}

	s.logger.Info("tariff updated",
		zap.String("vehicle_type", t.VehicleTypeName),
		zap.Float64("price_per_km", t.PricePerKm),
		zap.Float64("base_price", t.BasePrice),
	)
	return t, nil
}

// Quote prices a trip for one or every vehicle type.
func (s *TariffService) Quote(ctx context.Context, req QuoteRequest) (*QuoteDTO, error) {
	q := &QuoteDTO{Currency: domain.CurrencyIDR}
	switch {
	case req.Origin != nil && req.Destination != nil:
		est := s.resolver.Resolve(ctx, *req.Origin, *req.Destination)
		q.DistanceKm, q.DurationMin, q.RouteSource = est.DistanceKm, est.DurationMin, est.Source
	case req.DistanceKm > 0:
		q.DistanceKm = req.DistanceKm
	default:
		return nil, domain.NewValidationError("origin and destination, or distance_km, are required")
	}

	var tariffs []fare.Tariff
	if req.VehicleType != "" {
		t, err := s.Tariff(ctx, req.VehicleType)
		if err != nil {
			return nil, err
		}
		tariffs = []fare.Tariff{t}
	} else {
		all, err := s.ListTariffs(ctx)
		if err != nil {
			return nil, err
		}
		tariffs = all
	}

	q.Options = make([]QuoteOption, 0, len(tariffs))
	for _, t := range tariffs {
		q.Options = append(q.Options, QuoteOption{VehicleType: t.VehicleTypeName, Price: t.Price(q.DistanceKm)})
	}
	return q, nil
}

func validateTariff(t fare.Tariff) error {
	for _, v := range []float64{t.PricePerKm, t.BasePrice, t.Surcharge, t.MinimumDistanceKm} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.NewValidationError("tariff values must be finite numbers")
		}
	}
	switch {
	case t.VehicleTypeName == "":
		return domain.NewValidationError("vehicle type name is required")
	case t.PricePerKm <= 0:
		return domain.NewValidationError("price per km must be positive")
	case t.BasePrice <= 0:
		return domain.NewValidationError("base price must be positive")
	case t.Surcharge < 0:
		return domain.NewValidationError("surcharge cannot be negative")
	case t.MinimumDistanceKm < 0:
		return domain.NewValidationError("minimum distance cannot be negative")
	}
	return nil
}
