package wizard

import (
	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/domain/fare"
)

// Place is a free-text address with its geocoded coordinates, if known.
type Place struct {
	Address string       `json:"address"`
	Coords  *fare.LatLng `json:"coords,omitempty"`
}

// Equal reports whether p and o describe the same place.
func (p Place) Equal(o Place) bool {
	if p.Address != o.Address {
		return false
	}
	if p.Coords == nil || o.Coords == nil {
		return p.Coords == nil && o.Coords == nil
	}
	return *p.Coords == *o.Coords
}

// IsEmpty reports whether no address was entered.
func (p Place) IsEmpty() bool {
	return p.Address == ""
}

// routable reports whether the place can be fed to a router.
func (p Place) routable() bool {
	return p.Address != "" && p.Coords != nil && !p.Coords.IsZero()
}

// TripRequest is the booking the wizard assembles.
type TripRequest struct {
	Origin      Place        `json:"origin"`
	Destination Place        `json:"destination"`
	Mode        ScheduleMode `json:"mode"`
	PickupDate  string       `json:"pickup_date,omitempty"`
	PickupTime  string       `json:"pickup_time,omitempty"`
	Passengers  int          `json:"passengers"`

	VehicleType string      `json:"vehicle_type,omitempty"`
	VehicleID   *uuid.UUID  `json:"vehicle_id,omitempty"`
	DriverID    *uuid.UUID  `json:"driver_id,omitempty"`
	Tariff      fare.Tariff `json:"tariff"`

	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	RouteSource string  `json:"route_source,omitempty"`
	Price       int64   `json:"price"`

	FullName      string        `json:"full_name,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Email         string        `json:"email,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

func (t TripRequest) clone() TripRequest {
	out := t
	out.Origin.Coords = cloneLatLng(t.Origin.Coords)
	out.Destination.Coords = cloneLatLng(t.Destination.Coords)
	out.VehicleID = cloneUUID(t.VehicleID)
	out.DriverID = cloneUUID(t.DriverID)
	return out
}

func cloneLatLng(p *fare.LatLng) *fare.LatLng {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
