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
	"github.com/jalanria/service-rental/internal/domain/inspection"
	"github.com/jalanria/service-rental/internal/events"
)

// RecordInspectionRequest is the request DTO for a hand-over or return check.
// Photos are uploaded to object storage beforehand; only their URLs are kept.
type RecordInspectionRequest struct {
	Kind        string   `json:"kind" binding:"required"`
	OdometerKm  int      `json:"odometer_km"`
	FuelPercent int      `json:"fuel_percent"`
	PhotoURLs   []string `json:"photo_urls" binding:"required"`
	DamageNotes string   `json:"damage_notes"`
}

// InspectionDTO is the API response representation of an inspection.
type InspectionDTO struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	VehicleID   uuid.UUID `json:"vehicle_id"`
	InspectorID uuid.UUID `json:"inspector_id"`
	Kind        string    `json:"kind"`
	OdometerKm  int       `json:"odometer_km"`
	FuelPercent int       `json:"fuel_percent"`
	PhotoURLs   []string  `json:"photo_urls"`
	DamageNotes string    `json:"damage_notes,omitempty"`
	DrivenKm    *int      `json:"driven_km,omitempty"`
	InspectedAt time.Time `json:"inspected_at"`
}

// InspectionService records vehicle inspections. A pre-rental inspection
// starts the trip and a post-rental one completes it.
type InspectionService struct {
	repo     inspection.InspectionRepository
	bookings bookingDomain.BookingRepository
	vehicles fleet.VehicleRepository
	drivers  fleet.DriverRepository
	events   eventEmitter
	logger   *zap.Logger
}

// NewInspectionService creates a new InspectionService.
func NewInspectionService(
	repo inspection.InspectionRepository,
	bookings bookingDomain.BookingRepository,
	vehicles fleet.VehicleRepository,
	drivers fleet.DriverRepository,
	producer EventPublisher,
	logger *zap.Logger,
) *InspectionService {
	return &InspectionService{
		repo:     repo,
		bookings: bookings,
		vehicles: vehicles,
		drivers:  drivers,
		events:   newEventEmitter(producer, logger),
		logger:   logger,
	}
}

// Wait blocks until pending booking events have been sent.
func (s *InspectionService) Wait() { s.events.wait() }

// RecordInspection stores an inspection and advances the booking.
func (s *InspectionService) RecordInspection(ctx context.Context, actor Actor, bookingID uuid.UUID, req RecordInspectionRequest) (*InspectionDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkInspector(ctx, actor, bk); err != nil {
		return nil, err
	}
	if bk.VehicleID() == nil {
		return nil, domain.NewValidationError("booking has no vehicle assigned")
	}

	kind := inspection.Kind(req.Kind)
	in, err := inspection.NewInspection(bk.ID(), *bk.VehicleID(), actor.UserID, kind,
		req.OdometerKm, req.FuelPercent, req.PhotoURLs, req.DamageNotes)
	if err != nil {
		return nil, err
	}

	var pre *inspection.Inspection
	switch kind {
	case inspection.KindPreRental:
		if bk.Status() != bookingDomain.StatusConfirmed {
			return nil, domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusInProgress))
		}
		if err := bk.Start(); err != nil {
			return nil, err
		}
	case inspection.KindPostRental:
		if bk.Status() != bookingDomain.StatusInProgress {
			return nil, domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusCompleted))
		}
		pre, err = s.repo.FindByBookingAndKind(ctx, bk.ID(), inspection.KindPreRental)
		if err != nil {
			return nil, err
		}
		if err := in.CheckAgainst(pre); err != nil {
			return nil, err
		}
		if err := bk.Complete(); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, in); err != nil {
		return nil, fmt.Errorf("failed to save inspection: %w", err)
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	vehicleStatus := fleet.VehicleRented
	eventType := events.BookingStarted
	if kind == inspection.KindPostRental {
		vehicleStatus = fleet.VehicleAvailable
		eventType = events.BookingCompleted
	}
	s.setVehicleStatus(ctx, in.VehicleID(), vehicleStatus)

	s.logger.Info("inspection recorded",
		zap.String("booking_id", bk.ID().String()),
		zap.String("kind", string(kind)),
		zap.Int("odometer_km", in.OdometerKm()),
	)
	s.events.publish(ctx, events.TopicBookingEvents, eventType, bk.ID().String(), events.BookingStatusEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		DriverID:      bk.DriverID(),
		VehicleID:     bk.VehicleID(),
		Status:        string(bk.Status()),
		OccurredAt:    time.Now().UTC(),
	})

	result := toInspectionDTO(in, pre)
	return &result, nil
}

// ListInspections returns a booking's inspections, oldest first.
func (s *InspectionService) ListInspections(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]InspectionDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkInspector(ctx, actor, bk); err != nil {
		return nil, err
	}

	list, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}

	var pre *inspection.Inspection
	for _, in := range list {
		if in.Kind() == inspection.KindPreRental {
			pre = in
		}
	}
	dtos := make([]InspectionDTO, len(list))
	for i, in := range list {
		dtos[i] = toInspectionDTO(in, pre)
	}
	return dtos, nil
}

// checkInspector allows admins, and drivers on their own trips.
func (s *InspectionService) checkInspector(ctx context.Context, actor Actor, bk *bookingDomain.Booking) error {
	if actor.Role == auth.RoleAdmin {
		return nil
	}
	d, err := s.drivers.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if isNotFound(err) {
			return domain.NewForbiddenError("only the assigned driver can inspect this vehicle")
		}
		return err
	}
	if bk.DriverID() == nil || *bk.DriverID() != d.ID() {
		return domain.NewForbiddenError("only the assigned driver can inspect this vehicle")
	}
	return nil
}

func (s *InspectionService) setVehicleStatus(ctx context.Context, vehicleID uuid.UUID, status fleet.VehicleStatus) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err == nil {
		if err = v.ChangeStatus(status); err == nil {
			v.IncrementVersion()
			err = s.vehicles.Update(ctx, v)
		}
	}
	if err != nil {
		s.logger.Error("failed to update vehicle status",
			zap.String("vehicle_id", vehicleID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

func toInspectionDTO(in *inspection.Inspection, pre *inspection.Inspection) InspectionDTO {
	dto := InspectionDTO{
		ID:          in.ID(),
		BookingID:   in.BookingID(),
		VehicleID:   in.VehicleID(),
		InspectorID: in.InspectorID(),
		Kind:        string(in.Kind()),
		OdometerKm:  in.OdometerKm(),
		FuelPercent: in.FuelPercent(),
		PhotoURLs:   in.PhotoURLs(),
		DamageNotes: in.DamageNotes(),
		InspectedAt: in.InspectedAt(),
	}
	if in.Kind() == inspection.KindPostRental && pre != nil {
		driven := in.DistanceDrivenKm(pre)
		dto.DrivenKm = &driven
	}
	return dto
}
