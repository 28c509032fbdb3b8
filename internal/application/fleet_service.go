package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/fare"
	"github.com/jalanria/service-rental/internal/domain/fleet"
)

// maxUnits caps the instant-booking unit listing.
const maxUnits = 100

// TariffLookup resolves the tariff of a vehicle type.
type TariffLookup interface {
	Tariff(ctx context.Context, vehicleType string) (fare.Tariff, error)
}

// RegisterVehicleRequest is the request DTO for adding a vehicle to the fleet.
type RegisterVehicleRequest struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	Model       string `json:"model" binding:"required"`
	VehicleType string `json:"vehicle_type" binding:"required"`
	Seats       int    `json:"seats" binding:"required"`
	Year        int    `json:"year"`
	Color       string `json:"color"`
	PhotoURL    string `json:"photo_url"`
}

// UpdateVehicleRequest is the request DTO for editing vehicle details.
type UpdateVehicleRequest struct {
	Model    string `json:"model"`
	Seats    int    `json:"seats"`
	Color    string `json:"color"`
	PhotoURL string `json:"photo_url"`
}

// RegisterDriverRequest is the request DTO for adding a driver.
type RegisterDriverRequest struct {
	UserID        *uuid.UUID `json:"user_id"`
	FullName      string     `json:"full_name" binding:"required"`
	Phone         string     `json:"phone" binding:"required"`
	LicenseNumber string     `json:"license_number" binding:"required"`
}

// VehicleDTO is the API representation of a vehicle.
type VehicleDTO struct {
	ID               uuid.UUID  `json:"id"`
	PlateNumber      string     `json:"plate_number"`
	Model            string     `json:"model"`
	VehicleType      string     `json:"vehicle_type"`
	Seats            int        `json:"seats"`
	Year             int        `json:"year,omitempty"`
	Color            string     `json:"color,omitempty"`
	PhotoURL         string     `json:"photo_url,omitempty"`
	Status           string     `json:"status"`
	AssignedDriverID *uuid.UUID `json:"assigned_driver_id,omitempty"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DriverDTO is the API representation of a driver.
type DriverDTO struct {
	ID            uuid.UUID  `json:"id"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	FullName      string     `json:"full_name"`
	Phone         string     `json:"phone"`
	LicenseNumber string     `json:"license_number"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UnitDTO is a vehicle and its driver offered for an instant trip.
type UnitDTO struct {
	VehicleID   uuid.UUID `json:"vehicle_id"`
	PlateNumber string    `json:"plate_number"`
	Model       string    `json:"model"`
	VehicleType string    `json:"vehicle_type"`
	Seats       int       `json:"seats"`
	Color       string    `json:"color,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	DriverID    uuid.UUID `json:"driver_id"`
	DriverName  string    `json:"driver_name"`
}

// FleetService manages vehicles and drivers.
type FleetService struct {
	vehicles fleet.VehicleRepository
	drivers  fleet.DriverRepository
	tariffs  TariffLookup
	logger   *zap.Logger
}

// NewFleetService creates a new FleetService.
func NewFleetService(
	vehicles fleet.VehicleRepository,
	drivers fleet.DriverRepository,
	tariffs TariffLookup,
	logger *zap.Logger,
) *FleetService {
	return &FleetService{
		vehicles: vehicles,
		drivers:  drivers,
		tariffs:  tariffs,
		logger:   logger,
	}
}

// RegisterVehicle adds a vehicle of a known vehicle type.
func (s *FleetService) RegisterVehicle(ctx context.Context, req RegisterVehicleRequest) (*VehicleDTO, error) {
	if _, err := s.tariffs.Tariff(ctx, req.VehicleType); err != nil {
		return nil, err
	}

	v, err := fleet.NewVehicle(req.PlateNumber, req.Model, req.VehicleType, req.Seats, req.Year, req.Color, req.PhotoURL)
	if err != nil {
		return nil, err
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("plate_number", v.PlateNumber()),
	)
	result := toVehicleDTO(v)
	return &result, nil
}

// UpdateVehicle edits the descriptive fields of a vehicle.
func (s *FleetService) UpdateVehicle(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	return s.updateVehicle(ctx, id, func(v *fleet.Vehicle) error {
		if req.Seats < 0 {
			return domain.NewValidationError("seats cannot be negative")
		}
		v.Update(req.Model, req.Seats, req.Color, req.PhotoURL)
		return nil
	})
}

// ChangeVehicleStatus moves a vehicle between available, maintenance and retired.
func (s *FleetService) ChangeVehicleStatus(ctx context.Context, id uuid.UUID, status string) (*VehicleDTO, error) {
	return s.updateVehicle(ctx, id, func(v *fleet.Vehicle) error {
		return v.ChangeStatus(fleet.VehicleStatus(status))
	})
}

// AssignVehicleDriver pairs an active driver with a vehicle. A driver
// drives at most one vehicle.
func (s *FleetService) AssignVehicleDriver(ctx context.Context, vehicleID, driverID uuid.UUID) (*VehicleDTO, error) {
	d, err := s.drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !d.Active() {
		return nil, domain.NewValidationError("driver is not active")
	}

	current, err := s.vehicles.FindByDriverID(ctx, driverID)
	switch {
	case err == nil && current.ID() != vehicleID:
		return nil, domain.NewConflictError(fmt.Sprintf("driver already drives vehicle %s", current.PlateNumber()))
	case err != nil && !isNotFound(err):
		return nil, err
	}

	return s.updateVehicle(ctx, vehicleID, func(v *fleet.Vehicle) error {
		return v.AssignDriver(driverID)
	})
}

// UnassignVehicleDriver removes the driver from a vehicle.
func (s *FleetService) UnassignVehicleDriver(ctx context.Context, vehicleID uuid.UUID) (*VehicleDTO, error) {
	return s.updateVehicle(ctx, vehicleID, func(v *fleet.Vehicle) error {
		v.UnassignDriver()
		return nil
	})
}

func (s *FleetService) updateVehicle(ctx context.Context, id uuid.UUID, fn func(*fleet.Vehicle) error) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(v); err != nil {
		return nil, err
	}

	v.IncrementVersion()
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// GetVehicle returns a single vehicle.
func (s *FleetService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles returns a filtered page of the fleet (admin).
func (s *FleetService) ListVehicles(ctx context.Context, filter fleet.VehicleFilter, page, limit int) (*domain.PaginatedResult[VehicleDTO], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid vehicle status: %s", filter.Status))
	}
	vehicles, total, err := s.vehicles.List(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// ListUnits returns the vehicles that can be booked right now, each with
// its active driver.
func (s *FleetService) ListUnits(ctx context.Context, vehicleType string) ([]UnitDTO, error) {
	vehicles, _, err := s.vehicles.List(ctx, fleet.VehicleFilter{
		Status:      fleet.VehicleAvailable,
		VehicleType: vehicleType,
	}, 1, maxUnits)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(vehicles))
	for _, v := range vehicles {
		if v.IsBookable() {
			ids = append(ids, *v.AssignedDriverID())
		}
	}
	drivers, err := s.drivers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load drivers: %w", err)
	}
	byID := make(map[uuid.UUID]*fleet.Driver, len(drivers))
	for _, d := range drivers {
		byID[d.ID()] = d
	}

	units := make([]UnitDTO, 0, len(ids))
	for _, v := range vehicles {
		if !v.IsBookable() {
			continue
		}
		d, ok := byID[*v.AssignedDriverID()]
		if !ok || !d.Active() {
			continue
		}
		units = append(units, UnitDTO{
			VehicleID:   v.ID(),
			PlateNumber: v.PlateNumber(),
			Model:       v.Model(),
			VehicleType: v.VehicleType(),
			Seats:       v.Seats(),
			Color:       v.Color(),
			PhotoURL:    v.PhotoURL(),
			DriverID:    d.ID(),
			DriverName:  d.FullName(),
		})
	}
	return units, nil
}

// ResolveUnit loads a vehicle and its driver, failing when the pair can no
// longer take an instant trip.
func (s *FleetService) ResolveUnit(ctx context.Context, vehicleID uuid.UUID) (*fleet.Vehicle, *fleet.Driver, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, nil, err
	}
	if !v.IsBookable() {
		return nil, nil, domain.NewConflictError("vehicle is no longer available")
	}
	d, err := s.drivers.FindByID(ctx, *v.AssignedDriverID())
	if err != nil {
		return nil, nil, err
	}
	if !d.Active() {
		return nil, nil, domain.NewConflictError("vehicle is no longer available")
	}
	return v, d, nil
}

// RegisterDriver adds a driver.
func (s *FleetService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*DriverDTO, error) {
	d, err := fleet.NewDriver(req.UserID, req.FullName, req.Phone, req.LicenseNumber)
	if err != nil {
		return nil, err
	}
	if err := s.drivers.Save(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("driver registered", zap.String("driver_id", d.ID().String()))
	result := toDriverDTO(d)
	return &result, nil
}

// ListDrivers returns a page of drivers (admin).
func (s *FleetService) ListDrivers(ctx context.Context, activeOnly bool, page, limit int) (*domain.PaginatedResult[DriverDTO], error) {
	drivers, total, err := s.drivers.List(ctx, activeOnly, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	dtos := make([]DriverDTO, len(drivers))
	for i, d := range drivers {
		dtos[i] = toDriverDTO(d)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// SetDriverActive activates or deactivates a driver. A deactivated driver
// is taken off their vehicle.
func (s *FleetService) SetDriverActive(ctx context.Context, id uuid.UUID, active bool) (*DriverDTO, error) {
	d, err := s.drivers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if active {
		d.Activate()
	} else {
		d.Deactivate()
	}
	d.IncrementVersion()
	if err := s.drivers.Update(ctx, d); err != nil {
		return nil, err
	}

	if !active {
		v, err := s.vehicles.FindByDriverID(ctx, id)
		switch {
		case err == nil:
			if _, err := s.UnassignVehicleDriver(ctx, v.ID()); err != nil {
				s.logger.Error("failed to unassign deactivated driver",
					zap.String("driver_id", id.String()),
					zap.String("vehicle_id", v.ID().String()),
					zap.Error(err),
				)
			}
		case !isNotFound(err):
			return nil, err
		}
	}

	result := toDriverDTO(d)
	return &result, nil
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

func toVehicleDTO(v *fleet.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:               v.ID(),
		PlateNumber:      v.PlateNumber(),
		Model:            v.Model(),
		VehicleType:      v.VehicleType(),
		Seats:            v.Seats(),
		Year:             v.Year(),
		Color:            v.Color(),
		PhotoURL:         v.PhotoURL(),
		Status:           string(v.Status()),
		AssignedDriverID: v.AssignedDriverID(),
		Version:          v.Version(),
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}
}

func toDriverDTO(d *fleet.Driver) DriverDTO {
	return DriverDTO{
		ID:            d.ID(),
		UserID:        d.UserID(),
		FullName:      d.FullName(),
		Phone:         d.Phone(),
		LicenseNumber: d.LicenseNumber(),
		Active:        d.Active(),
		CreatedAt:     d.CreatedAt(),
		UpdatedAt:     d.UpdatedAt(),
	}
}
