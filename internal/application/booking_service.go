package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/domain"
	bookingDomain "github.com/jalanria/service-rental/internal/domain/booking"
	"github.com/jalanria/service-rental/internal/domain/fleet"
	"github.com/jalanria/service-rental/internal/events"
)

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID uuid.UUID
	Role   auth.Role
}

// CancelBookingRequest is the request DTO for cancelling a booking.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// AssignDriverRequest is the admin request DTO for dispatching a driver.
type AssignDriverRequest struct {
	DriverID uuid.UUID `json:"driver_id" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID                        `json:"id"`
	BookingNumber string                           `json:"booking_number"`
	CustomerID    uuid.UUID                        `json:"customer_id"`
	Contact       bookingDomain.Contact            `json:"contact"`
	Origin        bookingDomain.Location           `json:"origin"`
	Destination   bookingDomain.Location           `json:"destination"`
	Mode          string                           `json:"mode"`
	ScheduledAt   *time.Time                       `json:"scheduled_at,omitempty"`
	Passengers    int                              `json:"passengers"`
	VehicleType   string                           `json:"vehicle_type"`
	VehicleID     *uuid.UUID                       `json:"vehicle_id,omitempty"`
	DriverID      *uuid.UUID                       `json:"driver_id,omitempty"`
	Route         bookingDomain.RouteSpecification `json:"route"`
	Price         int64                            `json:"price"`
	Currency      string                           `json:"currency"`
	PaymentMethod string                           `json:"payment_method"`
	PaymentStatus string                           `json:"payment_status"`
	PaidAt        *time.Time                       `json:"paid_at,omitempty"`
	Status        string                           `json:"status"`
	StartedAt     *time.Time                       `json:"started_at,omitempty"`
	CompletedAt   *time.Time                       `json:"completed_at,omitempty"`
	CancelledAt   *time.Time                       `json:"cancelled_at,omitempty"`
	CancelNote    string                           `json:"cancel_note,omitempty"`
	Notes         string                           `json:"notes,omitempty"`
	Version       int64                            `json:"version"`
	CreatedAt     time.Time                        `json:"created_at"`
	UpdatedAt     time.Time                        `json:"updated_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	vehicles fleet.VehicleRepository
	drivers  fleet.DriverRepository
	events   eventEmitter
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	vehicles fleet.VehicleRepository,
	drivers fleet.DriverRepository,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		vehicles: vehicles,
		drivers:  drivers,
		events:   newEventEmitter(producer, logger),
		logger:   logger,
	}
}

// Wait blocks until pending booking events have been sent.
func (s *BookingService) Wait() { s.events.wait() }

// CreateFromDraft opens a booking. It is idempotent on the draft's request
// ID: a retry after a lost response returns the booking already stored.
func (s *BookingService) CreateFromDraft(ctx context.Context, d bookingDomain.Draft) (*BookingDTO, error) {
	if existing, err := s.repo.FindByRequestID(ctx, d.RequestID); err == nil {
		result := toBookingDTO(existing)
		return &result, nil
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("failed to check for existing booking: %w", err)
	}

	bk, err := bookingDomain.NewBooking(d)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		if existing, findErr := s.repo.FindByRequestID(ctx, d.RequestID); findErr == nil {
			result := toBookingDTO(existing)
			return &result, nil
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.Int64("price", bk.Price()),
	)
	s.publishBookingCreated(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking the actor may see.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, bk); err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListMyBookings returns the customer's bookings, or a driver's assigned trips.
func (s *BookingService) ListMyBookings(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var (
		bookings []*bookingDomain.Booking
		total    int64
		err      error
	)
	if actor.Role == auth.RoleDriver {
		d, findErr := s.drivers.FindByUserID(ctx, actor.UserID)
		if findErr != nil {
			return nil, findErr
		}
		bookings, total, err = s.repo.FindByDriverID(ctx, d.ID(), page, limit)
	} else {
		bookings, total, err = s.repo.FindByCustomerID(ctx, actor.UserID, page, limit)
	}
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// CancelBooking cancels a booking that is not yet in a terminal state. A
// trip cancelled mid-way releases its vehicle.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleAdmin && bk.CustomerID() != actor.UserID {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	wasRunning := bk.Status() == bookingDomain.StatusInProgress
	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	if wasRunning && bk.VehicleID() != nil {
		s.releaseVehicle(ctx, *bk.VehicleID())
	}

	s.publishStatus(ctx, bk, events.BookingCancelled, reason)
	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking confirms a pending booking (admin).
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bk.Confirm(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishStatus(ctx, bk, events.BookingConfirmed, "")
	result := toBookingDTO(bk)
	return &result, nil
}

// AssignDriver dispatches a driver, together with the vehicle they drive,
// to a pending or confirmed booking (admin).
func (s *BookingService) AssignDriver(ctx context.Context, bookingID, driverID uuid.UUID) (*BookingDTO, error) {
	d, err := s.drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !d.Active() {
		return nil, domain.NewValidationError("driver is not active")
	}
	v, err := s.vehicles.FindByDriverID(ctx, driverID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewValidationError("driver has no vehicle assigned")
		}
		return nil, err
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if v.VehicleType() != bk.VehicleType() {
		return nil, domain.NewValidationError(fmt.Sprintf("driver's vehicle is a %s, booking needs a %s", v.VehicleType(), bk.VehicleType()))
	}
	if err := bk.AssignDriver(d.ID(), v.ID()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("driver assigned",
		zap.String("booking_id", bk.ID().String()),
		zap.String("driver_id", d.ID().String()),
		zap.String("vehicle_id", v.ID().String()),
	)
	result := toBookingDTO(bk)
	return &result, nil
}

// MarkPaid records a captured payment; a pending booking becomes confirmed.
// Repeated deliveries of the same payment are harmless.
func (s *BookingService) MarkPaid(ctx context.Context, bookingID uuid.UUID, paidAt time.Time) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if bk.PaymentStatus() == bookingDomain.PaymentPaid {
		return nil
	}

	wasPending := bk.Status() == bookingDomain.StatusPending
	if err := bk.MarkPaid(paidAt); err != nil {
		return err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}

	if wasPending {
		s.publishStatus(ctx, bk, events.BookingConfirmed, "")
	}
	return nil
}

// --- Admin methods ---

// ListAllBookings returns a filtered page of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]BookingDTO, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", filter.Status))
	}
	bookings, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// authorize lets admins see everything, customers their own bookings and
// drivers the trips assigned to them.
func (s *BookingService) authorize(ctx context.Context, actor Actor, bk *bookingDomain.Booking) error {
	switch actor.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleDriver:
		d, err := s.drivers.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if isNotFound(err) {
				return domain.NewForbiddenError("booking is not assigned to this driver")
			}
			return err
		}
		if bk.DriverID() == nil || *bk.DriverID() != d.ID() {
			return domain.NewForbiddenError("booking is not assigned to this driver")
		}
		return nil
	default:
		if bk.CustomerID() != actor.UserID {
			return domain.NewForbiddenError("booking does not belong to this user")
		}
		return nil
	}
}

func (s *BookingService) releaseVehicle(ctx context.Context, vehicleID uuid.UUID) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err == nil && v.Status() == fleet.VehicleRented {
		if err = v.ChangeStatus(fleet.VehicleAvailable); err == nil {
			v.IncrementVersion()
			err = s.vehicles.Update(ctx, v)
		}
	}
	if err != nil {
		s.logger.Error("failed to release vehicle",
			zap.String("vehicle_id", vehicleID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) publishBookingCreated(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		Mode:          bk.Mode(),
		ScheduledAt:   bk.ScheduledAt(),
		VehicleType:   bk.VehicleType(),
		VehicleID:     bk.VehicleID(),
		DriverID:      bk.DriverID(),
		OriginLat:     bk.Origin().Lat,
		OriginLng:     bk.Origin().Lng,
		DestLat:       bk.Destination().Lat,
		DestLng:       bk.Destination().Lng,
		DistanceKm:    bk.Route().DistanceKm,
		Price:         bk.Price(),
		Currency:      bk.Currency(),
		PaymentMethod: bk.PaymentMethod(),
		OccurredAt:    time.Now().UTC(),
	}
	s.events.publish(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), evt)
}

func (s *BookingService) publishStatus(ctx context.Context, bk *bookingDomain.Booking, eventType, reason string) {
	evt := events.BookingStatusEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		DriverID:      bk.DriverID(),
		VehicleID:     bk.VehicleID(),
		Status:        string(bk.Status()),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	s.events.publish(ctx, events.TopicBookingEvents, eventType, bk.ID().String(), evt)
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		Contact:       bk.Contact(),
		Origin:        bk.Origin(),
		Destination:   bk.Destination(),
		Mode:          bk.Mode(),
		ScheduledAt:   bk.ScheduledAt(),
		Passengers:    bk.Passengers(),
		VehicleType:   bk.VehicleType(),
		VehicleID:     bk.VehicleID(),
		DriverID:      bk.DriverID(),
		Route:         bk.Route(),
		Price:         bk.Price(),
		Currency:      bk.Currency(),
		PaymentMethod: bk.PaymentMethod(),
		PaymentStatus: string(bk.PaymentStatus()),
		PaidAt:        bk.PaidAt(),
		Status:        string(bk.Status()),
		StartedAt:     bk.StartedAt(),
		CompletedAt:   bk.CompletedAt(),
		CancelledAt:   bk.CancelledAt(),
		CancelNote:    bk.CancelNote(),
		Notes:         bk.Notes(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}
