package fleet

import (
	"time"

	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/common/domain"
)

// Driver is a chauffeur who can be paired with a vehicle.
type Driver struct {
	id            uuid.UUID
	userID        *uuid.UUID
	fullName      string
	phone         string
	licenseNumber string
	active        bool
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewDriver registers an active driver. userID links the driver to a login
// account and may be nil.
func NewDriver(userID *uuid.UUID, fullName, phone, licenseNumber string) (*Driver, error) {
	if fullName == "" {
		return nil, domain.NewValidationError("driver name is required")
	}
	if phone == "" {
		return nil, domain.NewValidationError("driver phone is required")
	}
	if licenseNumber == "" {
		return nil, domain.NewValidationError("license number is required")
	}
	now := time.Now().UTC()
	return &Driver{
		id:            uuid.New(),
		userID:        userID,
		fullName:      fullName,
		phone:         phone,
		licenseNumber: licenseNumber,
		active:        true,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructDriver rebuilds a Driver from persistence data (no validation).
func ReconstructDriver(
	id uuid.UUID,
	userID *uuid.UUID,
	fullName, phone, licenseNumber string,
	active bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Driver {
	return &Driver{
		id:            id,
		userID:        userID,
		fullName:      fullName,
		phone:         phone,
		licenseNumber: licenseNumber,
		active:        active,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (d *Driver) ID() uuid.UUID         { return d.id }
func (d *Driver) UserID() *uuid.UUID    { return d.userID }
func (d *Driver) FullName() string      { return d.fullName }
func (d *Driver) Phone() string         { return d.phone }
func (d *Driver) LicenseNumber() string { return d.licenseNumber }
func (d *Driver) Active() bool          { return d.active }
func (d *Driver) Version() int64        { return d.version }
func (d *Driver) CreatedAt() time.Time  { return d.createdAt }
func (d *Driver) UpdatedAt() time.Time  { return d.updatedAt }

// Deactivate takes the driver off the roster.
func (d *Driver) Deactivate() {
	d.active = false
	d.updatedAt = time.Now().UTC()
}

// Activate puts the driver back on the roster.
func (d *Driver) Activate() {
	d.active = true
	d.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (d *Driver) IncrementVersion() {
	d.version++
	d.updatedAt = time.Now().UTC()
}
