package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/fare"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Schedule modes as stored on the booking.
const (
	ModeInstant   = "instant"
	ModeScheduled = "scheduled"
)

// Booking is the aggregate root for a confirmed trip request.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	requestID     uuid.UUID
	customerID    uuid.UUID
	contact       Contact

	origin      Location
	destination Location
	mode        string
	scheduledAt *time.Time
	passengers  int

	vehicleType string
	vehicleID   *uuid.UUID
	driverID    *uuid.UUID

	route  RouteSpecification
	tariff fare.Tariff
	price  int64

	currency      string
	paymentMethod string
	paymentStatus PaymentStatus
	paidAt        *time.Time

	status      BookingStatus
	startedAt   *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	cancelNote  string
	notes       string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// Draft carries everything needed to open a booking.
type Draft struct {
	RequestID     uuid.UUID
	CustomerID    uuid.UUID
	Contact       Contact
	Origin        Location
	Destination   Location
	Mode          string
	ScheduledAt   *time.Time
	Passengers    int
	VehicleType   string
	VehicleID     *uuid.UUID
	DriverID      *uuid.UUID
	Route         RouteSpecification
	Tariff        fare.Tariff
	Price         int64
	PaymentMethod string
	Notes         string
}

// generateBookingNumber creates a booking number in the format "TR-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "TR-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(d Draft) (*Booking, error) {
	switch {
	case d.RequestID == uuid.Nil:
		return nil, domain.NewValidationError("request ID is required")
	case d.CustomerID == uuid.Nil:
		return nil, domain.NewValidationError("customer ID is required")
	case d.Contact.FullName == "" || d.Contact.Phone == "":
		return nil, domain.NewValidationError("contact name and phone are required")
	case d.Origin.Address == "":
		return nil, domain.NewValidationError("origin address is required")
	case d.Destination.Address == "":
		return nil, domain.NewValidationError("destination address is required")
	case d.Mode != ModeInstant && d.Mode != ModeScheduled:
		return nil, domain.NewValidationError(fmt.Sprintf("invalid schedule mode: %s", d.Mode))
	case d.Mode == ModeScheduled && d.ScheduledAt == nil:
		return nil, domain.NewValidationError("scheduled bookings need a pickup time")
	case d.Passengers < 1:
		return nil, domain.NewValidationError("at least one passenger is required")
	case d.VehicleType == "":
		return nil, domain.NewValidationError("vehicle type is required")
	case d.Route.DistanceKm <= 0:
		return nil, domain.NewValidationError("route distance must be positive")
	case d.Price <= 0:
		return nil, domain.NewValidationError("price must be positive")
	case d.PaymentMethod == "":
		return nil, domain.NewValidationError("payment method is required")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		requestID:     d.RequestID,
		customerID:    d.CustomerID,
		contact:       d.Contact,
		origin:        d.Origin,
		destination:   d.Destination,
		mode:          d.Mode,
		scheduledAt:   d.ScheduledAt,
		passengers:    d.Passengers,
		vehicleType:   d.VehicleType,
		vehicleID:     d.VehicleID,
		driverID:      d.DriverID,
		route:         d.Route,
		tariff:        d.Tariff,
		price:         d.Price,
		currency:      domain.CurrencyIDR,
		paymentMethod: d.PaymentMethod,
		paymentStatus: PaymentUnpaid,
		status:        StatusPending,
		notes:         d.Notes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Snapshot is the flat persistence form of a Booking.
type Snapshot struct {
	ID            uuid.UUID
	BookingNumber string
	Draft         Draft
	Currency      string
	PaymentStatus PaymentStatus
	PaidAt        *time.Time
	Status        BookingStatus
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	CancelNote    string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	d := s.Draft
	return &Booking{
		id:            s.ID,
		bookingNumber: s.BookingNumber,
		requestID:     d.RequestID,
		customerID:    d.CustomerID,
		contact:       d.Contact,
		origin:        d.Origin,
		destination:   d.Destination,
		mode:          d.Mode,
		scheduledAt:   d.ScheduledAt,
		passengers:    d.Passengers,
		vehicleType:   d.VehicleType,
		vehicleID:     d.VehicleID,
		driverID:      d.DriverID,
		route:         d.Route,
		tariff:        d.Tariff,
		price:         d.Price,
		currency:      s.Currency,
		paymentMethod: d.PaymentMethod,
		paymentStatus: s.PaymentStatus,
		paidAt:        s.PaidAt,
		status:        s.Status,
		startedAt:     s.StartedAt,
		completedAt:   s.CompletedAt,
		cancelledAt:   s.CancelledAt,
		cancelNote:    s.CancelNote,
		notes:         d.Notes,
		version:       s.Version,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// RequestID returns the wizard that produced this booking.
func (b *Booking) RequestID() uuid.UUID { return b.requestID }

// CustomerID returns the customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

func (b *Booking) Contact() Contact          { return b.contact }
func (b *Booking) Origin() Location          { return b.origin }
func (b *Booking) Destination() Location     { return b.destination }
func (b *Booking) Mode() string              { return b.mode }
func (b *Booking) ScheduledAt() *time.Time   { return b.scheduledAt }
func (b *Booking) Passengers() int           { return b.passengers }
func (b *Booking) VehicleType() string       { return b.vehicleType }
func (b *Booking) VehicleID() *uuid.UUID     { return b.vehicleID }
func (b *Booking) DriverID() *uuid.UUID      { return b.driverID }
func (b *Booking) Route() RouteSpecification { return b.route }
func (b *Booking) Tariff() fare.Tariff       { return b.tariff }

// Price returns the quoted fare in whole currency units.
func (b *Booking) Price() int64 { return b.price }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

func (b *Booking) PaymentMethod() string        { return b.paymentMethod }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaidAt() *time.Time           { return b.paidAt }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

func (b *Booking) StartedAt() *time.Time   { return b.startedAt }
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Snapshot exports the aggregate for persistence.
func (b *Booking) Snapshot() Snapshot {
	return Snapshot{
		ID:            b.id,
		BookingNumber: b.bookingNumber,
		Draft: Draft{
			RequestID:     b.requestID,
			CustomerID:    b.customerID,
			Contact:       b.contact,
			Origin:        b.origin,
			Destination:   b.destination,
			Mode:          b.mode,
			ScheduledAt:   b.scheduledAt,
			Passengers:    b.passengers,
			VehicleType:   b.vehicleType,
			VehicleID:     b.vehicleID,
			DriverID:      b.driverID,
			Route:         b.route,
			Tariff:        b.tariff,
			Price:         b.price,
			PaymentMethod: b.paymentMethod,
			Notes:         b.notes,
		},
		Currency:      b.currency,
		PaymentStatus: b.paymentStatus,
		PaidAt:        b.paidAt,
		Status:        b.status,
		StartedAt:     b.startedAt,
		CompletedAt:   b.completedAt,
		CancelledAt:   b.cancelledAt,
		CancelNote:    b.cancelNote,
		Version:       b.version,
		CreatedAt:     b.createdAt,
		UpdatedAt:     b.updatedAt,
	}
}

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkPaid records settlement. A pending booking is confirmed by it; a
// repeated notification for a paid booking is a no-op.
func (b *Booking) MarkPaid(paidAt time.Time) error {
	if b.paymentStatus == PaymentPaid {
		return nil
	}
	if b.status == StatusCancelled {
		return domain.NewInvalidStateError(string(b.status), "paid")
	}
	paidAt = paidAt.UTC()
	b.paymentStatus = PaymentPaid
	b.paidAt = &paidAt
	if b.status == StatusPending {
		b.status = StatusConfirmed
	}
	b.updatedAt = time.Now().UTC()
	return nil
}

// AssignDriver sets the driver and vehicle for the trip. Scheduled bookings
// receive theirs here after creation.
func (b *Booking) AssignDriver(driverID, vehicleID uuid.UUID) error {
	if !b.status.AcceptsDriver() {
		return domain.NewInvalidStateError(string(b.status), "driver_assigned")
	}
	if driverID == uuid.Nil || vehicleID == uuid.Nil {
		return domain.NewValidationError("driver and vehicle are required")
	}
	b.driverID = &driverID
	b.vehicleID = &vehicleID
	b.updatedAt = time.Now().UTC()
	return nil
}

// Start transitions the booking from confirmed to in_progress.
func (b *Booking) Start() error {
	if !b.status.CanTransitionTo(StatusInProgress) {
		return domain.NewInvalidStateError(string(b.status), string(StatusInProgress))
	}
	if b.driverID == nil || b.vehicleID == nil {
		return domain.NewValidationError("a driver and vehicle must be assigned before the trip starts")
	}
	now := time.Now().UTC()
	b.status = StatusInProgress
	b.startedAt = &now
	b.updatedAt = now
	return nil
}

// Complete transitions the booking from in_progress to completed.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
