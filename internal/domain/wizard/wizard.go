package wizard

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/fare"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// pendingExpiry bounds how long an abandoned route lookup or finalize
	// (for example after a crash) blocks a new one.
	pendingExpiry = 2 * time.Minute
)

// RouteTicket identifies one route resolution. A ticket whose token no
// longer matches the wizard is stale and its result is discarded.
type RouteTicket struct {
	Token       uint64      `json:"token"`
	Origin      fare.LatLng `json:"origin"`
	Destination fare.LatLng `json:"destination"`
}

// Wizard is the aggregate root of one booking attempt.
type Wizard struct {
	id      uuid.UUID
	ownerID uuid.UUID
	step    Step

	routeLocked  bool
	routeToken   uint64
	routeSince   *time.Time
	finalizeFrom *time.Time
	bookingID    *uuid.UUID

	trip TripRequest

	createdAt time.Time
	updatedAt time.Time
}

// New starts a wizard on the location step with an instant, one-passenger trip.
func New(id, ownerID uuid.UUID) (*Wizard, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("wizard ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	now := time.Now().UTC()
	return &Wizard{
		id:      id,
		ownerID: ownerID,
		step:    StepLocation,
		trip: TripRequest{
			Mode:       ModeInstant,
			Passengers: 1,
		},
		createdAt: now,
		updatedAt: now,
	}, nil
}

// --- Getters ---

// ID returns the wizard's identifier, which doubles as the booking request key.
func (w *Wizard) ID() uuid.UUID { return w.id }

// OwnerID returns the customer who started the wizard.
func (w *Wizard) OwnerID() uuid.UUID { return w.ownerID }

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// RouteLocked reports whether distance and duration are frozen.
func (w *Wizard) RouteLocked() bool { return w.routeLocked }

// RoutePending reports whether a route lookup is in flight.
func (w *Wizard) RoutePending() bool { return pending(w.routeSince) }

// Finalizing reports whether the booking is being persisted.
func (w *Wizard) Finalizing() bool { return pending(w.finalizeFrom) }

// BookingID returns the created booking, once the wizard succeeded.
func (w *Wizard) BookingID() *uuid.UUID { return cloneUUID(w.bookingID) }

// Trip returns a copy of the trip request.
func (w *Wizard) Trip() TripRequest { return w.trip.clone() }

// Price returns the current fare, 0 while it cannot be computed.
func (w *Wizard) Price() int64 { return w.trip.Price }

func (w *Wizard) CreatedAt() time.Time { return w.createdAt }
func (w *Wizard) UpdatedAt() time.Time { return w.updatedAt }

// IsCompleted reports whether the booking was created.
func (w *Wizard) IsCompleted() bool { return w.step == StepSuccess }

// OwnedBy reports whether userID started this wizard.
func (w *Wizard) OwnedBy(userID uuid.UUID) bool { return w.ownerID == userID }

// --- Location & schedule ---

// SetOrigin replaces the pickup place. Any change to it unlocks the route
// and discards its distance, duration and price.
func (w *Wizard) SetOrigin(p Place) error {
	if err := w.ensureEditable("origin", StepLocation); err != nil {
		return err
	}
	w.setPlace(&w.trip.Origin, p)
	return nil
}

// SetDestination replaces the drop-off place, with the same route reset rules
// as SetOrigin.
func (w *Wizard) SetDestination(p Place) error {
	if err := w.ensureEditable("destination", StepLocation); err != nil {
		return err
	}
	w.setPlace(&w.trip.Destination, p)
	return nil
}

func (w *Wizard) setPlace(target *Place, p Place) {
	p.Address = strings.TrimSpace(p.Address)
	if p.Address == "" {
		p.Coords = nil
	}
	p.Coords = cloneLatLng(p.Coords)
	if target.Equal(p) {
		return
	}
	*target = p
	w.resetRoute()
	w.touch()
}

func (w *Wizard) resetRoute() {
	w.routeLocked = false
	w.routeToken++
	w.routeSince = nil
	w.trip.DistanceKm = 0
	w.trip.DurationMin = 0
	w.trip.RouteSource = ""
	w.recomputePrice()
}

// SetSchedule sets the trip mode and, for scheduled trips, the pickup date
// (YYYY-MM-DD) and time (HH:MM).
func (w *Wizard) SetSchedule(mode ScheduleMode, date, clock string) error {
	if err := w.ensureEditable("schedule", StepLocation); err != nil {
		return err
	}
	if !mode.IsValid() {
		return domain.NewValidationError("schedule mode must be instant or scheduled")
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return domain.NewValidationError("pickup date must be YYYY-MM-DD")
		}
	}
	if clock != "" {
		if _, err := time.Parse(timeLayout, clock); err != nil {
			return domain.NewValidationError("pickup time must be HH:MM")
		}
	}

	w.trip.Mode = mode
	w.trip.PickupDate = date
	w.trip.PickupTime = clock
	w.touch()
	return nil
}

// SetPassengers sets the passenger count.
func (w *Wizard) SetPassengers(n int) error {
	if err := w.ensureEditable("passengers", StepLocation); err != nil {
		return err
	}
	if n < 1 {
		return domain.NewValidationError("at least one passenger is required")
	}
	w.trip.Passengers = n
	w.touch()
	return nil
}

// --- Route ---

// NeedsRoute reports whether a route lookup should run now: both places are
// routable, the route is not locked, no distance is recorded and no lookup
// is in flight.
func (w *Wizard) NeedsRoute() bool {
	if w.IsCompleted() || w.routeLocked || w.trip.DistanceKm > 0 {
		return false
	}
	if w.RoutePending() {
		return false
	}
	return w.trip.Origin.routable() && w.trip.Destination.routable()
}

// BeginRouteResolution marks a lookup as in flight and returns its ticket.
// It returns false, without changes, when NeedsRoute is false.
func (w *Wizard) BeginRouteResolution() (RouteTicket, bool) {
	if !w.NeedsRoute() {
		return RouteTicket{}, false
	}
	now := time.Now().UTC()
	w.routeToken++
	w.routeSince = &now
	w.touch()
	return RouteTicket{
		Token:       w.routeToken,
		Origin:      *w.trip.Origin.Coords,
		Destination: *w.trip.Destination.Coords,
	}, true
}

// ApplyRoute stores the estimate for ticket, locks the route and reprices.
// It returns false and changes nothing when the ticket is stale.
func (w *Wizard) ApplyRoute(ticket RouteTicket, est fare.RouteEstimate) bool {
	if w.IsCompleted() || w.routeLocked || w.routeSince == nil || ticket.Token != w.routeToken {
		return false
	}
	if est.DistanceKm <= 0 || est.DurationMin < 1 {
		return false
	}
	w.trip.DistanceKm = est.DistanceKm
	w.trip.DurationMin = est.DurationMin
	w.trip.RouteSource = est.Source
	w.routeLocked = true
	w.routeSince = nil
	w.recomputePrice()
	w.touch()
	return true
}

// AbandonRoute clears the in-flight marker of ticket, if it is current.
func (w *Wizard) AbandonRoute(ticket RouteTicket) {
	if w.routeSince != nil && ticket.Token == w.routeToken {
		w.routeSince = nil
		w.touch()
	}
}

// --- Vehicle ---

// SelectVehicleType picks a vehicle category. Any concrete vehicle and
// driver are cleared and the price is recomputed from the locked distance.
func (w *Wizard) SelectVehicleType(t fare.Tariff) error {
	if err := w.ensureEditable("vehicle type", StepLocation, StepVehicle); err != nil {
		return err
	}
	if t.VehicleTypeName == "" {
		return domain.NewValidationError("vehicle type is required")
	}
	w.trip.VehicleType = t.VehicleTypeName
	w.trip.Tariff = t
	w.trip.VehicleID = nil
	w.trip.DriverID = nil
	w.recomputePrice()
	w.touch()
	return nil
}

// SelectVehicle picks a concrete vehicle and driver, priced with the
// vehicle's category tariff.
func (w *Wizard) SelectVehicle(vehicleID, driverID uuid.UUID, t fare.Tariff) error {
	if err := w.ensureEditable("vehicle", StepLocation, StepVehicle); err != nil {
		return err
	}
	if vehicleID == uuid.Nil || driverID == uuid.Nil {
		return domain.NewValidationError("vehicle and driver are required")
	}
	if t.VehicleTypeName == "" {
		return domain.NewValidationError("vehicle type is required")
	}
	w.trip.VehicleType = t.VehicleTypeName
	w.trip.Tariff = t
	w.trip.VehicleID = &vehicleID
	w.trip.DriverID = &driverID
	w.recomputePrice()
	w.touch()
	return nil
}

// --- Details ---

// SetPersonalDetails records the contact for the booking.
func (w *Wizard) SetPersonalDetails(fullName, phone, email string) error {
	if err := w.ensureEditable("personal details", StepDetails); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.NewValidationError("email address is invalid")
		}
	}
	w.trip.FullName = strings.TrimSpace(fullName)
	w.trip.Phone = strings.TrimSpace(phone)
	w.trip.Email = email
	w.touch()
	return nil
}

// SetPaymentMethod records how the fare is settled. An empty method clears it.
func (w *Wizard) SetPaymentMethod(m PaymentMethod) error {
	if err := w.ensureEditable("payment method", StepDetails); err != nil {
		return err
	}
	if m != "" && !m.IsValid() {
		return domain.NewValidationError("unsupported payment method: " + string(m))
	}
	w.trip.PaymentMethod = m
	w.touch()
	return nil
}

// SetNotes records free-text instructions for the driver.
func (w *Wizard) SetNotes(notes string) error {
	if err := w.ensureEditable("notes", StepLocation, StepVehicle, StepDetails); err != nil {
		return err
	}
	w.trip.Notes = strings.TrimSpace(notes)
	w.touch()
	return nil
}

// --- Navigation ---

// IsStepValid evaluates the gate that must hold to leave step.
func (w *Wizard) IsStepValid(step Step) bool {
	t := w.trip
	switch step {
	case StepLocation:
		if t.Origin.IsEmpty() || t.Destination.IsEmpty() {
			return false
		}
		if t.Mode == ModeScheduled {
			return t.PickupDate != "" && t.PickupTime != "" && t.VehicleType != ""
		}
		return w.hasUnit()
	case StepVehicle:
		if t.VehicleType == "" {
			return false
		}
		return t.Mode == ModeScheduled || w.hasUnit()
	case StepDetails:
		return t.FullName != "" && t.Phone != "" && t.PaymentMethod != ""
	}
	return false
}

func (w *Wizard) hasUnit() bool {
	return w.trip.VehicleID != nil && w.trip.DriverID != nil
}

// Next advances one step when the current gate passes. The details step
// only advances through BeginFinalize and CompleteFinalize.
func (w *Wizard) Next() error {
	switch w.step {
	case StepSuccess:
		return ErrCompleted
	case StepDetails:
		return ErrFinalizeRequired
	}
	if !w.IsStepValid(w.step) {
		return ErrStepIncomplete
	}
	w.step++
	w.touch()
	return nil
}

// Back returns to the previous step. Leaving the details step clears the
// chosen driver so it is confirmed again; the route and fare are kept.
func (w *Wizard) Back() error {
	switch w.step {
	case StepSuccess:
		return ErrCompleted
	case StepLocation:
		return ErrAtFirstStep
	case StepDetails:
		if w.Finalizing() {
			return ErrFinalizeInFlight
		}
		w.trip.DriverID = nil
	}
	w.step--
	w.touch()
	return nil
}

// BeginFinalize checks the details gate and marks the wizard as
// finalizing. The returned TripRequest is what must be persisted.
func (w *Wizard) BeginFinalize() (TripRequest, error) {
	switch {
	case w.step == StepSuccess:
		return TripRequest{}, ErrCompleted
	case w.step != StepDetails:
		return TripRequest{}, domain.NewInvalidStateError(w.step.String(), StepSuccess.String())
	case w.Finalizing():
		return TripRequest{}, ErrFinalizeInFlight
	case !w.IsStepValid(StepDetails):
		return TripRequest{}, ErrStepIncomplete
	case w.trip.Price <= 0:
		return TripRequest{}, ErrPricePending
	}
	now := time.Now().UTC()
	w.finalizeFrom = &now
	w.touch()
	return w.trip.clone(), nil
}

// CompleteFinalize moves to the terminal success step.
func (w *Wizard) CompleteFinalize(bookingID uuid.UUID) error {
	if w.IsCompleted() {
		return ErrCompleted
	}
	if w.finalizeFrom == nil {
		return ErrNotFinalizing
	}
	w.bookingID = &bookingID
	w.finalizeFrom = nil
	w.step = StepSuccess
	w.touch()
	return nil
}

// AbortFinalize records a failed persistence attempt. The wizard stays on
// the details step with its data intact.
func (w *Wizard) AbortFinalize() {
	if w.finalizeFrom != nil {
		w.finalizeFrom = nil
		w.touch()
	}
}

// --- Helpers ---

func (w *Wizard) ensureEditable(field string, steps ...Step) error {
	if w.IsCompleted() {
		return ErrCompleted
	}
	if w.Finalizing() {
		return ErrFinalizeInFlight
	}
	for _, s := range steps {
		if w.step == s {
			return nil
		}
	}
	return errNotEditable(w.step, field)
}

func (w *Wizard) recomputePrice() {
	w.trip.Price = w.trip.Tariff.Price(w.trip.DistanceKm)
}

func pending(since *time.Time) bool {
	return since != nil && time.Since(*since) < pendingExpiry
}

func (w *Wizard) touch() {
	w.updatedAt = time.Now().UTC()
}
