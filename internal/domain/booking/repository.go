package booking

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows admin listings.
type ListFilter struct {
	Status   BookingStatus
	DriverID *uuid.UUID
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByRequestID retrieves the booking created by a wizard, if any.
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*Booking, error)

	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)
	FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves bookings with pagination (admin).
	ListAll(ctx context.Context, filter ListFilter, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking. A second booking for the same request ID
	// is rejected with a ConflictError.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
