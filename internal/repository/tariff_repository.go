package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jalanria/service-rental/internal/domain/fare"
)

// VehicleTypeModel is the GORM model for the vehicle_types table. One row
// holds the tariff of a vehicle category.
type VehicleTypeModel struct {
	Name              string    `gorm:"type:varchar(50);primaryKey"`
	PricePerKm        float64   `gorm:"type:numeric(12,2);not null"`
	BasePrice         float64   `gorm:"type:numeric(12,2);not null"`
	Surcharge         float64   `gorm:"type:numeric(12,2);not null;default:0"`
	MinimumDistanceKm float64   `gorm:"type:numeric(6,2);not null;default:8"`
	CreatedAt         time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt         time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleTypeModel) TableName() string { return "vehicle_types" }

// GormTariffRepository reads and writes tariffs. It implements fare.TariffSource.
type GormTariffRepository struct {
	db *gorm.DB
}

func NewGormTariffRepository(db *gorm.DB) *GormTariffRepository {
	return &GormTariffRepository{db: db}
}

// Tariff returns fare.ErrTariffNotFound when no row exists for name.
func (r *GormTariffRepository) Tariff(ctx context.Context, name string) (fare.Tariff, error) {
	var model VehicleTypeModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fare.Tariff{}, fare.ErrTariffNotFound
		}
		return fare.Tariff{}, fmt.Errorf("failed to load tariff %q: %w", name, err)
	}
	return toTariff(&model), nil
}

func (r *GormTariffRepository) List(ctx context.Context) ([]fare.Tariff, error) {
	var models []VehicleTypeModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	tariffs := make([]fare.Tariff, len(models))
	for i := range models {
		tariffs[i] = toTariff(&models[i])
	}
	return tariffs, nil
}

// Upsert inserts the tariff or replaces the prices of an existing row.
func (r *GormTariffRepository) Upsert(ctx context.Context, t fare.Tariff) error {
	now := time.Now().UTC()
	model := VehicleTypeModel{
		Name:              t.VehicleTypeName,
		PricePerKm:        t.PricePerKm,
		BasePrice:         t.BasePrice,
		Surcharge:         t.Surcharge,
		MinimumDistanceKm: t.MinimumDistanceKm,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"price_per_km", "base_price", "surcharge", "minimum_distance_km", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert tariff %q: %w", t.VehicleTypeName, err)
	}
	return nil
}

func toTariff(m *VehicleTypeModel) fare.Tariff {
	return fare.Tariff{
		VehicleTypeName:   m.Name,
		PricePerKm:        m.PricePerKm,
		BasePrice:         m.BasePrice,
		Surcharge:         m.Surcharge,
		MinimumDistanceKm: m.MinimumDistanceKm,
	}
}
