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
	bookingDomain "github.com/jalanria/service-rental/internal/domain/booking"
	"github.com/jalanria/service-rental/internal/domain/fare"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber string          `gorm:"uniqueIndex;not null;size:20"`
	RequestID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	DriverID      *uuid.UUID      `gorm:"type:uuid;index"`
	VehicleID     *uuid.UUID      `gorm:"type:uuid;index"`
	VehicleType   string          `gorm:"not null;size:50"`
	Status        string          `gorm:"not null;size:30;index"`
	PaymentStatus string          `gorm:"not null;size:20;default:'unpaid'"`
	Contact       json.RawMessage `gorm:"type:jsonb;not null"`
	Origin        json.RawMessage `gorm:"type:jsonb;not null"`
	Destination   json.RawMessage `gorm:"type:jsonb;not null"`
	Route         json.RawMessage `gorm:"type:jsonb;not null"`
	Tariff        json.RawMessage `gorm:"type:jsonb;not null"`
	Mode          string          `gorm:"not null;size:20"`
	ScheduledAt   *time.Time      `gorm:""`
	Passengers    int             `gorm:"not null;default:1"`
	Price         int64           `gorm:"not null"`
	Currency      string          `gorm:"not null;size:3;default:'IDR'"`
	PaymentMethod string          `gorm:"not null;size:30"`
	PaidAt        *time.Time      `gorm:""`
	StartedAt     *time.Time      `gorm:""`
	CompletedAt   *time.Time      `gorm:""`
	CancelledAt   *time.Time      `gorm:""`
	CancelNote    string          `gorm:"size:500"`
	Notes         string          `gorm:"size:1000"`
	Version       int64           `gorm:"not null;default:1"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(ctx, "id = ?", id, id.String())
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	return r.findOne(ctx, "booking_number = ?", number, number)
}

// FindByRequestID retrieves the booking created by a wizard.
func (r *GormBookingRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(ctx, "request_id = ?", requestID, requestID.String())
}

func (r *GormBookingRepository) findOne(ctx context.Context, cond string, arg interface{}, label string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", label)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("customer_id = ?", customerID), page, limit)
}

// FindByDriverID retrieves bookings assigned to a driver with pagination.
func (r *GormBookingRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("driver_id = ?", driverID), page, limit)
}

// ListAll retrieves bookings with optional filters and pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	q := r.db.WithContext(ctx)
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.DriverID != nil {
		q = q.Where("driver_id = ?", *filter.DriverID)
	}
	return r.list(ctx, q, page, limit)
}

func (r *GormBookingRepository) list(ctx context.Context, q *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("a booking already exists for this request")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion was called before Update, so the stored row holds version-1.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"driver_id":      model.DriverID,
			"vehicle_id":     model.VehicleID,
			"status":         model.Status,
			"payment_status": model.PaymentStatus,
			"paid_at":        model.PaidAt,
			"started_at":     model.StartedAt,
			"completed_at":   model.CompletedAt,
			"cancelled_at":   model.CancelledAt,
			"cancel_note":    model.CancelNote,
			"notes":          model.Notes,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	s := bk.Snapshot()
	d := s.Draft

	var (
		contact, origin, destination, route, tariff json.RawMessage
		err                                         error
	)
	for _, f := range []struct {
		dst *json.RawMessage
		src interface{}
		nm  string
	}{
		{&contact, d.Contact, "contact"},
		{&origin, d.Origin, "origin"},
		{&destination, d.Destination, "destination"},
		{&route, d.Route, "route"},
		{&tariff, d.Tariff, "tariff"},
	} {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", f.nm, err)
		}
	}

	return &BookingModel{
		ID:            s.ID,
		BookingNumber: s.BookingNumber,
		RequestID:     d.RequestID,
		CustomerID:    d.CustomerID,
		DriverID:      d.DriverID,
		VehicleID:     d.VehicleID,
		VehicleType:   d.VehicleType,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		Contact:       contact,
		Origin:        origin,
		Destination:   destination,
		Route:         route,
		Tariff:        tariff,
		Mode:          d.Mode,
		ScheduledAt:   d.ScheduledAt,
		Passengers:    d.Passengers,
		Price:         d.Price,
		Currency:      s.Currency,
		PaymentMethod: d.PaymentMethod,
		PaidAt:        s.PaidAt,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
		CancelledAt:   s.CancelledAt,
		CancelNote:    s.CancelNote,
		Notes:         d.Notes,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var (
		contact     bookingDomain.Contact
		origin      bookingDomain.Location
		destination bookingDomain.Location
		route       bookingDomain.RouteSpecification
		tariff      fare.Tariff
	)
	for _, f := range []struct {
		src json.RawMessage
		dst interface{}
		nm  string
	}{
		{m.Contact, &contact, "contact"},
		{m.Origin, &origin, "origin"},
		{m.Destination, &destination, "destination"},
		{m.Route, &route, "route"},
		{m.Tariff, &tariff, "tariff"},
	} {
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", f.nm, err)
		}
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:            m.ID,
		BookingNumber: m.BookingNumber,
		Draft: bookingDomain.Draft{
			RequestID:     m.RequestID,
			CustomerID:    m.CustomerID,
			Contact:       contact,
			Origin:        origin,
			Destination:   destination,
			Mode:          m.Mode,
			ScheduledAt:   m.ScheduledAt,
			Passengers:    m.Passengers,
			VehicleType:   m.VehicleType,
			VehicleID:     m.VehicleID,
			DriverID:      m.DriverID,
			Route:         route,
			Tariff:        tariff,
			Price:         m.Price,
			PaymentMethod: m.PaymentMethod,
			Notes:         m.Notes,
		},
		Currency:      m.Currency,
		PaymentStatus: bookingDomain.PaymentStatus(m.PaymentStatus),
		PaidAt:        m.PaidAt,
		Status:        status,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		CancelledAt:   m.CancelledAt,
		CancelNote:    m.CancelNote,
		Version:       m.Version,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}), nil
}
