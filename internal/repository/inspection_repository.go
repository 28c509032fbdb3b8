package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/inspection"
)

// InspectionModel is the GORM model for the vehicle_inspections table.
type InspectionModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inspection_booking_kind"`
	VehicleID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	InspectorID uuid.UUID       `gorm:"type:uuid;not null"`
	Kind        string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_inspection_booking_kind"`
	OdometerKm  int             `gorm:"type:int;not null"`
	FuelPercent int             `gorm:"type:int;not null"`
	PhotoURLs   json.RawMessage `gorm:"type:jsonb;not null"`
	DamageNotes string          `gorm:"type:text"`
	InspectedAt time.Time       `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName sets the table name.
func (InspectionModel) TableName() string { return "vehicle_inspections" }

// GormInspectionRepository implements InspectionRepository using GORM.
type GormInspectionRepository struct {
	db *gorm.DB
}

// NewGormInspectionRepository creates a new GormInspectionRepository.
func NewGormInspectionRepository(db *gorm.DB) *GormInspectionRepository {
	return &GormInspectionRepository{db: db}
}

// Save persists a new inspection. Each booking holds at most one of each kind.
func (r *GormInspectionRepository) Save(ctx context.Context, in *inspection.Inspection) error {
	model, err := toInspectionModel(in)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("%s inspection already recorded for this booking", in.Kind()))
		}
		return err
	}
	return nil
}

// FindByBookingID returns all inspections of a booking, oldest first.
func (r *GormInspectionRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*inspection.Inspection, error) {
	var models []InspectionModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("inspected_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	result := make([]*inspection.Inspection, 0, len(models))
	for i := range models {
		in, err := toInspectionDomain(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, in)
	}
	return result, nil
}

// FindByBookingAndKind returns a single inspection.
func (r *GormInspectionRepository) FindByBookingAndKind(ctx context.Context, bookingID uuid.UUID, kind inspection.Kind) (*inspection.Inspection, error) {
	var model InspectionModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND kind = ?", bookingID, string(kind)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Inspection", fmt.Sprintf("%s/%s", bookingID, kind))
		}
		return nil, err
	}
	return toInspectionDomain(&model)
}

func toInspectionModel(in *inspection.Inspection) (*InspectionModel, error) {
	photos, err := json.Marshal(in.PhotoURLs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal photo urls: %w", err)
	}
	return &InspectionModel{
		ID:          in.ID(),
		BookingID:   in.BookingID(),
		VehicleID:   in.VehicleID(),
		InspectorID: in.InspectorID(),
		Kind:        string(in.Kind()),
		OdometerKm:  in.OdometerKm(),
		FuelPercent: in.FuelPercent(),
		PhotoURLs:   photos,
		DamageNotes: in.DamageNotes(),
		InspectedAt: in.InspectedAt(),
		CreatedAt:   in.CreatedAt(),
	}, nil
}

func toInspectionDomain(m *InspectionModel) (*inspection.Inspection, error) {
	var photos []string
	if err := json.Unmarshal(m.PhotoURLs, &photos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photo urls: %w", err)
	}
	return inspection.Reconstruct(
		m.ID, m.BookingID, m.VehicleID, m.InspectorID,
		inspection.Kind(m.Kind),
		m.OdometerKm, m.FuelPercent,
		photos,
		m.DamageNotes,
		m.InspectedAt, m.CreatedAt,
	), nil
}
