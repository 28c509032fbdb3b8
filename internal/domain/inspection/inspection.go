package inspection

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/common/domain"
)

// Kind says which end of the rental an inspection documents.
type Kind string

const (
	KindPreRental  Kind = "pre_rental"
	KindPostRental Kind = "post_rental"
)

// IsValid returns true if the kind is recognized.
func (k Kind) IsValid() bool {
	return k == KindPreRental || k == KindPostRental
}

const maxPhotos = 12

// Inspection records the vehicle's condition at hand-over or return.
type Inspection struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	vehicleID   uuid.UUID
	inspectorID uuid.UUID
	kind        Kind
	odometerKm  int
	fuelPercent int
	photoURLs   []string
	damageNotes string
	inspectedAt time.Time
	createdAt   time.Time
}

// NewInspection validates and creates an inspection.
func NewInspection(
	bookingID, vehicleID, inspectorID uuid.UUID,
	kind Kind,
	odometerKm, fuelPercent int,
	photoURLs []string,
	damageNotes string,
) (*Inspection, error) {
	if !kind.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid inspection kind: %s", kind))
	}
	if bookingID == uuid.Nil || vehicleID == uuid.Nil || inspectorID == uuid.Nil {
		return nil, domain.NewValidationError("booking, vehicle and inspector are required")
	}
	if odometerKm < 0 {
		return nil, domain.NewValidationError("odometer reading cannot be negative")
	}
	if fuelPercent < 0 || fuelPercent > 100 {
		return nil, domain.NewValidationError("fuel level must be between 0 and 100")
	}
	if len(photoURLs) == 0 {
		return nil, domain.NewValidationError("at least one photo is required")
	}
	if len(photoURLs) > maxPhotos {
		return nil, domain.NewValidationError(fmt.Sprintf("at most %d photos are allowed", maxPhotos))
	}

	now := time.Now().UTC()
	return &Inspection{
		id:          uuid.New(),
		bookingID:   bookingID,
		vehicleID:   vehicleID,
		inspectorID: inspectorID,
		kind:        kind,
		odometerKm:  odometerKm,
		fuelPercent: fuelPercent,
		photoURLs:   append([]string(nil), photoURLs...),
		damageNotes: damageNotes,
		inspectedAt: now,
		createdAt:   now,
	}, nil
}

// Reconstruct rebuilds an Inspection from persistence.
func Reconstruct(
	id, bookingID, vehicleID, inspectorID uuid.UUID,
	kind Kind,
	odometerKm, fuelPercent int,
	photoURLs []string,
	damageNotes string,
	inspectedAt, createdAt time.Time,
) *Inspection {
	return &Inspection{
		id:          id,
		bookingID:   bookingID,
		vehicleID:   vehicleID,
		inspectorID: inspectorID,
		kind:        kind,
		odometerKm:  odometerKm,
		fuelPercent: fuelPercent,
		photoURLs:   photoURLs,
		damageNotes: damageNotes,
		inspectedAt: inspectedAt,
		createdAt:   createdAt,
	}
}

// Getters.
func (i *Inspection) ID() uuid.UUID          { return i.id }
func (i *Inspection) BookingID() uuid.UUID   { return i.bookingID }
func (i *Inspection) VehicleID() uuid.UUID   { return i.vehicleID }
func (i *Inspection) InspectorID() uuid.UUID { return i.inspectorID }
func (i *Inspection) Kind() Kind             { return i.kind }
func (i *Inspection) OdometerKm() int        { return i.odometerKm }
func (i *Inspection) FuelPercent() int       { return i.fuelPercent }
func (i *Inspection) PhotoURLs() []string    { return append([]string(nil), i.photoURLs...) }
func (i *Inspection) DamageNotes() string    { return i.damageNotes }
func (i *Inspection) InspectedAt() time.Time { return i.inspectedAt }
func (i *Inspection) CreatedAt() time.Time   { return i.createdAt }

// CheckAgainst validates a post-rental inspection against the pre-rental one.
func (i *Inspection) CheckAgainst(pre *Inspection) error {
	if i.kind != KindPostRental || pre == nil || pre.kind != KindPreRental {
		return nil
	}
	if i.odometerKm < pre.odometerKm {
		return domain.NewValidationError(fmt.Sprintf(
			"odometer %d km is lower than the pre-rental reading %d km", i.odometerKm, pre.odometerKm))
	}
	return nil
}

// DistanceDrivenKm returns the odometer delta between pre and i.
func (i *Inspection) DistanceDrivenKm(pre *Inspection) int {
	if pre == nil {
		return 0
	}
	return i.odometerKm - pre.odometerKm
}
