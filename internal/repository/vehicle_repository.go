package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/fleet"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PlateNumber      string     `gorm:"type:varchar(20);not null;uniqueIndex"`
	Model            string     `gorm:"type:varchar(100);not null"`
	VehicleType      string     `gorm:"type:varchar(50);not null;index"`
	Seats            int        `gorm:"type:int;not null"`
	Year             int        `gorm:"type:int"`
	Color            string     `gorm:"type:varchar(30)"`
	PhotoURL         string     `gorm:"type:text"`
	Status           string     `gorm:"type:varchar(20);not null;default:'available';index"`
	AssignedDriverID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Version          int64      `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// GormVehicleRepository implements fleet.VehicleRepository using GORM.
type GormVehicleRepository struct {
	db *gorm.DB
}

func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, err
	}
	return toVehicleDomain(&model), nil
}

func (r *GormVehicleRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID) (*fleet.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("assigned_driver_id = ?", driverID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle for driver", driverID.String())
		}
		return nil, err
	}
	return toVehicleDomain(&model), nil
}

func (r *GormVehicleRepository) List(ctx context.Context, filter fleet.VehicleFilter, page, limit int) ([]*fleet.Vehicle, int64, error) {
	q := r.db.WithContext(ctx).Model(&VehicleModel{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.VehicleType != "" {
		q = q.Where("vehicle_type = ?", filter.VehicleType)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []VehicleModel
	if err := q.Session(&gorm.Session{}).Order("vehicle_type ASC, plate_number ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	vehicles := make([]*fleet.Vehicle, len(models))
	for i := range models {
		vehicles[i] = toVehicleDomain(&models[i])
	}
	return vehicles, total, nil
}

func (r *GormVehicleRepository) Save(ctx context.Context, v *fleet.Vehicle) error {
	if err := r.db.WithContext(ctx).Create(toVehicleModel(v)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("vehicle %s already registered", v.PlateNumber()))
		}
		return err
	}
	return nil
}

func (r *GormVehicleRepository) Update(ctx context.Context, v *fleet.Vehicle) error {
	model := toVehicleModel(v)
	previousVersion := v.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"model":              model.Model,
			"seats":              model.Seats,
			"color":              model.Color,
			"photo_url":          model.PhotoURL,
			"status":             model.Status,
			"assigned_driver_id": model.AssignedDriverID,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("driver is already assigned to another vehicle")
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("vehicle was modified by another request")
	}
	return nil
}

func toVehicleModel(v *fleet.Vehicle) *VehicleModel {
	return &VehicleModel{
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

func toVehicleDomain(m *VehicleModel) *fleet.Vehicle {
	return fleet.ReconstructVehicle(
		m.ID,
		m.PlateNumber, m.Model, m.VehicleType,
		m.Seats, m.Year,
		m.Color, m.PhotoURL,
		fleet.VehicleStatus(m.Status),
		m.AssignedDriverID,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
