package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/fleet"
)

// DriverModel is the GORM model for the drivers table.
type DriverModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	FullName      string     `gorm:"type:varchar(100);not null"`
	Phone         string     `gorm:"type:varchar(30);not null"`
	LicenseNumber string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Active        bool       `gorm:"not null;default:true"`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (DriverModel) TableName() string { return "drivers" }

// GormDriverRepository implements fleet.DriverRepository using GORM.
type GormDriverRepository struct {
	db *gorm.DB
}

func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

func (r *GormDriverRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Driver, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormDriverRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*fleet.Driver, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *GormDriverRepository) findOne(ctx context.Context, cond string, id uuid.UUID) (*fleet.Driver, error) {
	var model DriverModel
	if err := r.db.WithContext(ctx).Where(cond, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Driver", id.String())
		}
		return nil, err
	}
	return toDriverDomain(&model), nil
}

// FindByIDs loads several drivers at once; unknown ids are skipped.
func (r *GormDriverRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*fleet.Driver, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []DriverModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	drivers := make([]*fleet.Driver, len(models))
	for i := range models {
		drivers[i] = toDriverDomain(&models[i])
	}
	return drivers, nil
}

func (r *GormDriverRepository) List(ctx context.Context, activeOnly bool, page, limit int) ([]*fleet.Driver, int64, error) {
	q := r.db.WithContext(ctx).Model(&DriverModel{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []DriverModel
	if err := q.Session(&gorm.Session{}).Order("full_name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	drivers := make([]*fleet.Driver, len(models))
	for i := range models {
		drivers[i] = toDriverDomain(&models[i])
	}
	return drivers, total, nil
}

func (r *GormDriverRepository) Save(ctx context.Context, d *fleet.Driver) error {
	if err := r.db.WithContext(ctx).Create(toDriverModel(d)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("driver license or account already registered")
		}
		return err
	}
	return nil
}

func (r *GormDriverRepository) Update(ctx context.Context, d *fleet.Driver) error {
	model := toDriverModel(d)
	previousVersion := d.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&DriverModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"full_name":  model.FullName,
			"phone":      model.Phone,
			"active":     model.Active,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("driver was modified by another request")
	}
	return nil
}

func toDriverModel(d *fleet.Driver) *DriverModel {
	return &DriverModel{
		ID:            d.ID(),
		UserID:        d.UserID(),
		FullName:      d.FullName(),
		Phone:         d.Phone(),
		LicenseNumber: d.LicenseNumber(),
		Active:        d.Active(),
		Version:       d.Version(),
		CreatedAt:     d.CreatedAt(),
		UpdatedAt:     d.UpdatedAt(),
	}
}

func toDriverDomain(m *DriverModel) *fleet.Driver {
	return fleet.ReconstructDriver(
		m.ID,
		m.UserID,
		m.FullName, m.Phone, m.LicenseNumber,
		m.Active,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
