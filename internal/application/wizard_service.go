package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jalanria/service-rental/internal/common/domain"
	bookingDomain "github.com/jalanria/service-rental/internal/domain/booking"
	"github.com/jalanria/service-rental/internal/domain/fare"
	"github.com/jalanria/service-rental/internal/domain/fleet"
	"github.com/jalanria/service-rental/internal/domain/wizard"
)

// Geocoder turns a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (fare.LatLng, error)
}

// UnitResolver loads a bookable vehicle together with its driver.
type UnitResolver interface {
	ResolveUnit(ctx context.Context, vehicleID uuid.UUID) (*fleet.Vehicle, *fleet.Driver, error)
}

// BookingCreator persists a finished trip request.
type BookingCreator interface {
	CreateFromDraft(ctx context.Context, d bookingDomain.Draft) (*BookingDTO, error)
}

// WizardConfig holds the wizard's timeouts and pickup time zone.
// RequestTimeout bounds a whole call and must stay below the HTTP write
// timeout.
type WizardConfig struct {
	LockWait       time.Duration
	GeocodeTimeout time.Duration
	PersistTimeout time.Duration
	NotifyTimeout  time.Duration
	RequestTimeout time.Duration
	Location       *time.Location
}

func (c WizardConfig) withDefaults() WizardConfig {
	if c.LockWait <= 0 {
		c.LockWait = 10 * time.Second
	}
	if c.GeocodeTimeout <= 0 {
		c.GeocodeTimeout = 5 * time.Second
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 10 * time.Second
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 12 * time.Second
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// PlaceInput is an address with optional coordinates. Missing coordinates
// are geocoded from the address.
type PlaceInput struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// UpdateLocationRequest changes either or both ends of the trip.
type UpdateLocationRequest struct {
	Origin      *PlaceInput `json:"origin"`
	Destination *PlaceInput `json:"destination"`
}

// UpdateScheduleRequest sets the trip mode, pickup time and passengers.
type UpdateScheduleRequest struct {
	Mode       string `json:"mode" binding:"required"`
	PickupDate string `json:"pickup_date"`
	PickupTime string `json:"pickup_time"`
	Passengers *int   `json:"passengers"`
}

// SelectVehicleTypeRequest picks a vehicle category.
type SelectVehicleTypeRequest struct {
	VehicleType string `json:"vehicle_type" binding:"required"`
}

// SelectVehicleRequest picks a concrete unit for an instant trip.
type SelectVehicleRequest struct {
	VehicleID uuid.UUID `json:"vehicle_id" binding:"required"`
}

// UpdateDetailsRequest fills in the contact, payment and notes. Omitted
// fields are left as they are; an empty string clears the field.
type UpdateDetailsRequest struct {
	FullName      *string `json:"full_name"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	PaymentMethod *string `json:"payment_method"`
	Notes         *string `json:"notes"`
}

// WizardDTO is the API representation of a booking wizard.
type WizardDTO struct {
	ID           uuid.UUID          `json:"id"`
	Step         int                `json:"step"`
	StepName     string             `json:"step_name"`
	CanAdvance   bool               `json:"can_advance"`
	RouteLocked  bool               `json:"route_locked"`
	RoutePending bool               `json:"route_pending"`
	Finalizing   bool               `json:"finalizing"`
	BookingID    *uuid.UUID         `json:"booking_id,omitempty"`
	Trip         wizard.TripRequest `json:"trip"`
	Currency     string             `json:"currency"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// FinalizeResultDTO is returned once the booking has been created.
type FinalizeResultDTO struct {
	Wizard  WizardDTO  `json:"wizard"`
	Booking BookingDTO `json:"booking"`
}

// WizardService drives booking wizards kept in a session store. Every
// mutation runs under the session's lock; route lookups run outside it and
// are applied with their ticket so stale answers are dropped.
type WizardService struct {
	store    wizard.SessionStore
	resolver RouteEstimator
	geocoder Geocoder
	tariffs  TariffLookup
	units    UnitResolver
	bookings BookingCreator
	notifier Notifier
	cfg      WizardConfig
	logger   *zap.Logger

	// inflight tracks route lookups and notifications that outlive a call.
	inflight sync.WaitGroup
}

// NewWizardService creates a new WizardService. geocoder and notifier may be nil.
func NewWizardService(
	store wizard.SessionStore,
	resolver RouteEstimator,
	geocoder Geocoder,
	tariffs TariffLookup,
	units UnitResolver,
	bookings BookingCreator,
	notifier Notifier,
	cfg WizardConfig,
	logger *zap.Logger,
) *WizardService {
	return &WizardService{
		store:    store,
		resolver: resolver,
		geocoder: geocoder,
		tariffs:  tariffs,
		units:    units,
		bookings: bookings,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// CreateWizard starts a new booking attempt for the user.
func (s *WizardService) CreateWizard(ctx context.Context, userID uuid.UUID) (*WizardDTO, error) {
	w, err := wizard.New(uuid.New(), userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, w); err != nil {
		return nil, err
	}
	result := toWizardDTO(w)
	return &result, nil
}

// GetWizard returns the user's wizard.
func (s *WizardService) GetWizard(ctx context.Context, userID, id uuid.UUID) (*WizardDTO, error) {
	w, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	result := toWizardDTO(w)
	return &result, nil
}

// UpdateLocation sets the pickup and/or drop-off place and, once both are
// known, resolves the route.
func (s *WizardService) UpdateLocation(ctx context.Context, userID, id uuid.UUID, req UpdateLocationRequest) (*WizardDTO, error) {
	if req.Origin == nil && req.Destination == nil {
		return nil, domain.NewValidationError("origin or destination is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	var origin, destination wizard.Place
	var g errgroup.Group
	if req.Origin != nil {
		g.Go(func() error {
			origin = s.toPlace(ctx, *req.Origin)
			return nil
		})
	}
	if req.Destination != nil {
		g.Go(func() error {
			destination = s.toPlace(ctx, *req.Destination)
			return nil
		})
	}
	_ = g.Wait()

	return s.mutate(ctx, userID, id, func(w *wizard.Wizard) error {
		if req.Origin != nil {
			if err := w.SetOrigin(origin); err != nil {
				return err
			}
		}
		if req.Destination != nil {
			return w.SetDestination(destination)
		}
		return nil
	})
}

// UpdateSchedule sets instant or scheduled mode and the passenger count.
func (s *WizardService) UpdateSchedule(ctx context.Context, userID, id uuid.UUID, req UpdateScheduleRequest) (*WizardDTO, error) {
	return s.mutate(ctx, userID, id, func(w *wizard.Wizard) error {
		if err := w.SetSchedule(wizard.ScheduleMode(req.Mode), req.PickupDate, req.PickupTime); err != nil {
			return err
		}
		if req.Passengers != nil {
			return w.SetPassengers(*req.Passengers)
		}
		return nil
	})
}

// SelectVehicleType picks a vehicle category and reprices the trip.
func (s *WizardService) SelectVehicleType(ctx context.Context, userID, id uuid.UUID, req SelectVehicleTypeRequest) (*WizardDTO, error) {
	t, err := s.tariffs.Tariff(ctx, req.VehicleType)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, id, func(w *wizard.Wizard) error {
		return w.SelectVehicleType(t)
	})
}

// SelectVehicle picks an available vehicle with its driver.
func (s *WizardService) SelectVehicle(ctx context.Context, userID, id uuid.UUID, req SelectVehicleRequest) (*WizardDTO, error) {
	v, d, err := s.units.ResolveUnit(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	t, err := s.tariffs.Tariff(ctx, v.VehicleType())
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, id, func(w *wizard.Wizard) error {
		return w.SelectVehicle(v.ID(), d.ID(), t)
	})
}

// UpdateDetails sets the contact, payment method and notes. Only the
// fields present in the request are changed.
func (s *WizardService) UpdateDetails(ctx context.Context, userID, id uuid.UUID, req UpdateDetailsRequest) (*WizardDTO, error) {
	return s.mutate(ctx, userID, id, func(w *wizard.Wizard) error {
		if req.FullName != nil || req.Phone != nil || req.Email != nil {
			trip := w.Trip()
			if err := w.SetPersonalDetails(
				valueOr(req.FullName, trip.FullName),
				valueOr(req.Phone, trip.Phone),
				valueOr(req.Email, trip.Email),
			); err != nil {
				return err
			}
		}
		if req.PaymentMethod != nil {
			if err := w.SetPaymentMethod(wizard.PaymentMethod(*req.PaymentMethod)); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			return w.SetNotes(*req.Notes)
		}
		return nil
	})
}

// Next advances the wizard one step.
func (s *WizardService) Next(ctx context.Context, userID, id uuid.UUID) (*WizardDTO, error) {
	return s.mutate(ctx, userID, id, func(w *wizard.Wizard) error {
		return w.Next()
	})
}

// Back returns the wizard to the previous step.
func (s *WizardService) Back(ctx context.Context, userID, id uuid.UUID) (*WizardDTO, error) {
	return s.mutate(ctx, userID, id, func(w *wizard.Wizard) error {
		return w.Back()
	})
}

// Finalize persists the trip as a booking and moves the wizard to its
// terminal step. A persistence failure leaves the wizard on the details
// step and is reported as retryable. The confirmation message is sent in
// the background on a best-effort basis.
func (s *WizardService) Finalize(ctx context.Context, userID, id uuid.UUID) (*FinalizeResultDTO, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	w, err := s.load(ctx, userID, id)
	if err != nil {
		unlock()
		return nil, err
	}

	trip, err := w.BeginFinalize()
	if err != nil {
		unlock()
		return nil, err
	}
	if err := s.store.Save(ctx, w); err != nil {
		unlock()
		return nil, err
	}

	draft, err := s.toDraft(w, trip)
	if err != nil {
		s.abortFinalize(ctx, w)
		unlock()
		return nil, err
	}

	pctx, pcancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	bk, err := s.bookings.CreateFromDraft(pctx, draft)
	pcancel()
	if err != nil {
		s.abortFinalize(ctx, w)
		unlock()
		if isClientError(err) {
			return nil, err
		}
		s.logger.Error("failed to persist booking",
			zap.String("wizard_id", id.String()),
			zap.Error(err),
		)
		return nil, domain.NewUnavailableError("booking could not be saved, please try again", err)
	}

	if err := w.CompleteFinalize(bk.ID); err != nil {
		unlock()
		return nil, err
	}
	if err := s.store.Save(context.WithoutCancel(ctx), w); err != nil {
		// The booking is committed; a retry finds it by request ID.
		s.logger.Error("failed to save finalized wizard",
			zap.String("wizard_id", id.String()),
			zap.String("booking_id", bk.ID.String()),
			zap.Error(err),
		)
	}
	unlock()

	s.notify(ctx, bk)

	return &FinalizeResultDTO{Wizard: toWizardDTO(w), Booking: *bk}, nil
}

// Wait blocks until background route lookups and notifications finish.
func (s *WizardService) Wait() {
	s.inflight.Wait()
}

// --- Helpers ---

// mutate applies fn to the wizard under its lock, then settles any route
// lookup the change made necessary.
func (s *WizardService) mutate(ctx context.Context, userID, id uuid.UUID, fn func(*wizard.Wizard) error) (*WizardDTO, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	w, ticket, needsRoute, err := s.apply(ctx, userID, id, func(w *wizard.Wizard) (wizard.RouteTicket, bool, error) {
		if err := fn(w); err != nil {
			return wizard.RouteTicket{}, false, err
		}
		ticket, ok := w.BeginRouteResolution()
		return ticket, ok, nil
	})
	if err != nil {
		return nil, err
	}
	if needsRoute {
		w = s.awaitRoute(ctx, userID, id, ticket, w)
	}
	result := toWizardDTO(w)
	return &result, nil
}

// awaitRoute runs the route lookup in the background and waits for it while
// ctx allows. A lookup that outlasts ctx is still applied when it finishes;
// the caller gets the wizard with the route pending.
func (s *WizardService) awaitRoute(ctx context.Context, userID, id uuid.UUID, ticket wizard.RouteTicket, current *wizard.Wizard) *wizard.Wizard {
	done := make(chan *wizard.Wizard, 1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		done <- s.resolveRoute(ctx, userID, id, ticket, current)
	}()

	select {
	case w := <-done:
		return w
	case <-ctx.Done():
		s.logger.Info("route lookup still running, returning pending route",
			zap.String("wizard_id", id.String()),
			zap.Uint64("token", ticket.Token),
		)
		return current
	}
}

func (s *WizardService) apply(
	ctx context.Context,
	userID, id uuid.UUID,
	fn func(*wizard.Wizard) (wizard.RouteTicket, bool, error),
) (*wizard.Wizard, wizard.RouteTicket, bool, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, wizard.RouteTicket{}, false, err
	}
	defer unlock()

	w, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, wizard.RouteTicket{}, false, err
	}
	ticket, ok, err := fn(w)
	if err != nil {
		return nil, wizard.RouteTicket{}, false, err
	}
	if err := s.store.Save(ctx, w); err != nil {
		return nil, wizard.RouteTicket{}, false, err
	}
	return w, ticket, ok, nil
}

// resolveRoute looks the route up without holding the lock and applies it
// if the ticket is still current. Failures leave the lookup pending until
// its marker expires; the caller still gets the saved wizard.
func (s *WizardService) resolveRoute(ctx context.Context, userID, id uuid.UUID, ticket wizard.RouteTicket, current *wizard.Wizard) *wizard.Wizard {
	rctx := context.WithoutCancel(ctx)
	est := s.resolver.Resolve(rctx, ticket.Origin, ticket.Destination)

	w, _, _, err := s.apply(rctx, userID, id, func(w *wizard.Wizard) (wizard.RouteTicket, bool, error) {
		if !w.ApplyRoute(ticket, est) {
			s.logger.Debug("discarding stale route",
				zap.String("wizard_id", id.String()),
				zap.Uint64("token", ticket.Token),
			)
		}
		return wizard.RouteTicket{}, false, nil
	})
	if err != nil {
		s.logger.Warn("failed to apply route",
			zap.String("wizard_id", id.String()),
			zap.Error(err),
		)
		return current
	}
	return w
}

func (s *WizardService) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	defer cancel()
	return s.store.Lock(lctx, id)
}

func (s *WizardService) load(ctx context.Context, userID, id uuid.UUID) (*wizard.Wizard, error) {
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.OwnedBy(userID) {
		return nil, domain.NewForbiddenError("wizard does not belong to this user")
	}
	return w, nil
}

func (s *WizardService) abortFinalize(ctx context.Context, w *wizard.Wizard) {
	w.AbortFinalize()
	if err := s.store.Save(context.WithoutCancel(ctx), w); err != nil {
		s.logger.Error("failed to save aborted finalize",
			zap.String("wizard_id", w.ID().String()),
			zap.Error(err),
		)
	}
}

// toPlace geocodes an address that came without coordinates. A failed
// lookup leaves the place without coordinates; the route is then resolved
// once the client supplies them.
func (s *WizardService) toPlace(ctx context.Context, in PlaceInput) wizard.Place {
	p := wizard.Place{Address: strings.TrimSpace(in.Address)}
	if p.Address == "" {
		return p
	}
	if in.Lat != nil && in.Lng != nil {
		p.Coords = &fare.LatLng{Lat: *in.Lat, Lng: *in.Lng}
		return p
	}
	if s.geocoder == nil {
		return p
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GeocodeTimeout)
	defer cancel()
	ll, err := s.geocoder.Geocode(gctx, p.Address)
	if err != nil {
		s.logger.Warn("geocoding failed",
			zap.String("address", p.Address),
			zap.Error(err),
		)
		return p
	}
	p.Coords = &ll
	return p
}

func (s *WizardService) toDraft(w *wizard.Wizard, trip wizard.TripRequest) (bookingDomain.Draft, error) {
	d := bookingDomain.Draft{
		RequestID:  w.ID(),
		CustomerID: w.OwnerID(),
		Contact: bookingDomain.Contact{
			FullName: trip.FullName,
			Phone:    trip.Phone,
			Email:    trip.Email,
		},
		Origin:      toLocation(trip.Origin),
		Destination: toLocation(trip.Destination),
		Mode:        string(trip.Mode),
		Passengers:  trip.Passengers,
		VehicleType: trip.VehicleType,
		VehicleID:   trip.VehicleID,
		DriverID:    trip.DriverID,
		Route: bookingDomain.RouteSpecification{
			DistanceKm:  trip.DistanceKm,
			DurationMin: trip.DurationMin,
			Source:      trip.RouteSource,
		},
		Tariff:        trip.Tariff,
		Price:         trip.Price,
		PaymentMethod: string(trip.PaymentMethod),
		Notes:         trip.Notes,
	}
	if trip.Mode == wizard.ModeScheduled {
		at, err := time.ParseInLocation("2006-01-02 15:04", trip.PickupDate+" "+trip.PickupTime, s.cfg.Location)
		if err != nil {
			return bookingDomain.Draft{}, domain.NewValidationError("pickup date and time are invalid")
		}
		at = at.UTC()
		d.ScheduledAt = &at
	}
	return d, nil
}

func (s *WizardService) notify(ctx context.Context, bk *BookingDTO) {
	if s.notifier == nil || bk.Contact.Phone == "" {
		return
	}
	phone := bk.Contact.Phone
	bookingID := bk.ID.String()
	message := bookingMessage(bk, s.cfg.Location)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(nctx, phone, message); err != nil {
			s.logger.Error("failed to send booking notification",
				zap.String("booking_id", bookingID),
				zap.Error(err),
			)
		}
	}()
}

func bookingMessage(bk *BookingDTO, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, your booking %s has been received.\n", bk.Contact.FullName, bk.BookingNumber)
	fmt.Fprintf(&b, "Pickup: %s\n", bk.Origin.Address)
	fmt.Fprintf(&b, "Drop-off: %s\n", bk.Destination.Address)
	if bk.ScheduledAt != nil {
		fmt.Fprintf(&b, "Pickup time: %s\n", bk.ScheduledAt.In(loc).Format("02 Jan 2006 15:04"))
	} else {
		b.WriteString("Pickup time: now\n")
	}
	fmt.Fprintf(&b, "Vehicle: %s, %d passenger(s)\n", bk.VehicleType, bk.Passengers)
	fmt.Fprintf(&b, "Distance: %.1f km\n", bk.Route.DistanceKm)
	fmt.Fprintf(&b, "Total: %s %s (%s)", bk.Currency, formatThousands(bk.Price), bk.PaymentMethod)
	return b.String()
}

// formatThousands renders 167000 as 167.000.
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func toLocation(p wizard.Place) bookingDomain.Location {
	loc := bookingDomain.Location{Address: p.Address}
	if p.Coords != nil {
		loc.Lat, loc.Lng = p.Coords.Lat, p.Coords.Lng
	}
	return loc
}

// isClientError reports errors caused by the request rather than the store.
func isClientError(err error) bool {
	var (
		validation *domain.ValidationError
		state      *domain.InvalidStateError
		forbidden  *domain.ForbiddenError
	)
	return errors.As(err, &validation) || errors.As(err, &state) || errors.As(err, &forbidden)
}

func valueOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

func toWizardDTO(w *wizard.Wizard) WizardDTO {
	return WizardDTO{
		ID:           w.ID(),
		Step:         int(w.Step()),
		StepName:     w.Step().String(),
		CanAdvance:   !w.IsCompleted() && w.IsStepValid(w.Step()),
		RouteLocked:  w.RouteLocked(),
		RoutePending: w.RoutePending(),
		Finalizing:   w.Finalizing(),
		BookingID:    w.BookingID(),
		Trip:         w.Trip(),
		Currency:     domain.CurrencyIDR,
		CreatedAt:    w.CreatedAt(),
		UpdatedAt:    w.UpdatedAt(),
	}
}
