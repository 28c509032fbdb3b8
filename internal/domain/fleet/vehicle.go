package fleet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/common/domain"
)

// VehicleStatus is the availability of a fleet vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleRented      VehicleStatus = "rented"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

var vehicleTransitions = map[VehicleStatus][]VehicleStatus{
	VehicleAvailable:   {VehicleRented, VehicleMaintenance, VehicleRetired},
	VehicleRented:      {VehicleAvailable, VehicleMaintenance},
	VehicleMaintenance: {VehicleAvailable, VehicleRetired},
	VehicleRetired:     {},
}

// IsValid returns true if the status is recognized.
func (s VehicleStatus) IsValid() bool {
	_, ok := vehicleTransitions[s]
	return ok
}

// CanTransitionTo returns true if the vehicle may move to target.
func (s VehicleStatus) CanTransitionTo(target VehicleStatus) bool {
	for _, t := range vehicleTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Vehicle is the aggregate root for one car in the rental stock.
type Vehicle struct {
	id               uuid.UUID
	plateNumber      string
	model            string
	vehicleType      string
	seats            int
	year             int
	color            string
	photoURL         string
	status           VehicleStatus
	assignedDriverID *uuid.UUID
	version          int64
	createdAt        time.Time
	updatedAt        time.Time
}

// NewVehicle registers an available vehicle.
func NewVehicle(plateNumber, model, vehicleType string, seats, year int, color, photoURL string) (*Vehicle, error) {
	plateNumber = normalizePlate(plateNumber)
	if plateNumber == "" {
		return nil, domain.NewValidationError("plate number is required")
	}
	if model == "" {
		return nil, domain.NewValidationError("model is required")
	}
	if vehicleType == "" {
		return nil, domain.NewValidationError("vehicle type is required")
	}
	if seats < 1 {
		return nil, domain.NewValidationError("seats must be positive")
	}
	if year != 0 && (year < 1990 || year > time.Now().Year()+1) {
		return nil, domain.NewValidationError(fmt.Sprintf("implausible model year: %d", year))
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:          uuid.New(),
		plateNumber: plateNumber,
		model:       model,
		vehicleType: vehicleType,
		seats:       seats,
		year:        year,
		color:       color,
		photoURL:    photoURL,
		status:      VehicleAvailable,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructVehicle rebuilds a Vehicle from persistence data (no validation).
func ReconstructVehicle(
	id uuid.UUID,
	plateNumber, model, vehicleType string,
	seats, year int,
	color, photoURL string,
	status VehicleStatus,
	assignedDriverID *uuid.UUID,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:               id,
		plateNumber:      plateNumber,
		model:            model,
		vehicleType:      vehicleType,
		seats:            seats,
		year:             year,
		color:            color,
		photoURL:         photoURL,
		status:           status,
		assignedDriverID: assignedDriverID,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID                { return v.id }
func (v *Vehicle) PlateNumber() string          { return v.plateNumber }
func (v *Vehicle) Model() string                { return v.model }
func (v *Vehicle) VehicleType() string          { return v.vehicleType }
func (v *Vehicle) Seats() int                   { return v.seats }
func (v *Vehicle) Year() int                    { return v.year }
func (v *Vehicle) Color() string                { return v.color }
func (v *Vehicle) PhotoURL() string             { return v.photoURL }
func (v *Vehicle) Status() VehicleStatus        { return v.status }
func (v *Vehicle) AssignedDriverID() *uuid.UUID { return v.assignedDriverID }
func (v *Vehicle) Version() int64               { return v.version }
func (v *Vehicle) CreatedAt() time.Time         { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time         { return v.updatedAt }

// --- Behavior ---

// IsBookable reports whether the vehicle can be offered for an instant trip.
func (v *Vehicle) IsBookable() bool {
	return v.status == VehicleAvailable && v.assignedDriverID != nil
}

// Update applies partial updates to the vehicle details.
func (v *Vehicle) Update(model string, seats int, color, photoURL string) {
	if model != "" {
		v.model = model
	}
	if seats > 0 {
		v.seats = seats
	}
	if color != "" {
		v.color = color
	}
	if photoURL != "" {
		v.photoURL = photoURL
	}
	v.updatedAt = time.Now().UTC()
}

// ChangeStatus moves the vehicle to target if the transition is allowed.
// A retired vehicle loses its driver.
func (v *Vehicle) ChangeStatus(target VehicleStatus) error {
	if !target.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid vehicle status: %s", target))
	}
	if v.status == target {
		return nil
	}
	if !v.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(v.status), string(target))
	}
	v.status = target
	if target == VehicleRetired {
		v.assignedDriverID = nil
	}
	v.updatedAt = time.Now().UTC()
	return nil
}

// AssignDriver pairs a driver with the vehicle.
func (v *Vehicle) AssignDriver(driverID uuid.UUID) error {
	if v.status == VehicleRetired {
		return domain.NewInvalidStateError(string(v.status), "driver_assigned")
	}
	if driverID == uuid.Nil {
		return domain.NewValidationError("driver ID is required")
	}
	v.assignedDriverID = &driverID
	v.updatedAt = time.Now().UTC()
	return nil
}

// UnassignDriver removes the driver pairing.
func (v *Vehicle) UnassignDriver() {
	v.assignedDriverID = nil
	v.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (v *Vehicle) IncrementVersion() {
	v.version++
	v.updatedAt = time.Now().UTC()
}

func normalizePlate(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), " "))
}
