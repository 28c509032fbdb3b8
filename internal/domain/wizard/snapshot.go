package wizard

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the serializable form of a Wizard, used by session stores.
type Snapshot struct {
	ID           uuid.UUID   `json:"id"`
	OwnerID      uuid.UUID   `json:"owner_id"`
	Step         Step        `json:"step"`
	RouteLocked  bool        `json:"route_locked"`
	RouteToken   uint64      `json:"route_token"`
	RouteSince   *time.Time  `json:"route_since,omitempty"`
	FinalizeFrom *time.Time  `json:"finalize_from,omitempty"`
	BookingID    *uuid.UUID  `json:"booking_id,omitempty"`
	Trip         TripRequest `json:"trip"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Snapshot captures the wizard's full state.
func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{
		ID:           w.id,
		OwnerID:      w.ownerID,
		Step:         w.step,
		RouteLocked:  w.routeLocked,
		RouteToken:   w.routeToken,
		RouteSince:   cloneTime(w.routeSince),
		FinalizeFrom: cloneTime(w.finalizeFrom),
		BookingID:    cloneUUID(w.bookingID),
		Trip:         w.trip.clone(),
		CreatedAt:    w.createdAt,
		UpdatedAt:    w.updatedAt,
	}
}

// Reconstruct rebuilds a Wizard from a snapshot (no validation).
func Reconstruct(s Snapshot) *Wizard {
	return &Wizard{
		id:           s.ID,
		ownerID:      s.OwnerID,
		step:         s.Step,
		routeLocked:  s.RouteLocked,
		routeToken:   s.RouteToken,
		routeSince:   cloneTime(s.RouteSince),
		finalizeFrom: cloneTime(s.FinalizeFrom),
		bookingID:    cloneUUID(s.BookingID),
		trip:         s.Trip.clone(),
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
