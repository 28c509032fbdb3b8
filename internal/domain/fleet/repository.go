package fleet

import (
	"context"

	"github.com/google/uuid"
)

// VehicleFilter narrows vehicle listings. Zero values match everything.
type VehicleFilter struct {
	Status      VehicleStatus
	VehicleType string
}

// VehicleRepository defines persistence operations for vehicles.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	FindByDriverID(ctx context.Context, driverID uuid.UUID) (*Vehicle, error)
	List(ctx context.Context, filter VehicleFilter, page, limit int) ([]*Vehicle, int64, error)
	Save(ctx context.Context, vehicle *Vehicle) error
	Update(ctx context.Context, vehicle *Vehicle) error
}

// DriverRepository defines persistence operations for drivers.
type DriverRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Driver, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Driver, error)
	List(ctx context.Context, activeOnly bool, page, limit int) ([]*Driver, int64, error)
	Save(ctx context.Context, driver *Driver) error
	Update(ctx context.Context, driver *Driver) error
}
