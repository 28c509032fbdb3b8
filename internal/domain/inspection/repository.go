package inspection

import (
	"context"

	"github.com/google/uuid"
)

// InspectionRepository defines persistence operations for inspections.
type InspectionRepository interface {
	Save(ctx context.Context, inspection *Inspection) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Inspection, error)
	FindByBookingAndKind(ctx context.Context, bookingID uuid.UUID, kind Kind) (*Inspection, error)
}
