package application

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/common/kafka"
	bookingDomain "github.com/jalanria/service-rental/internal/domain/booking"
	"github.com/jalanria/service-rental/internal/domain/fare"
	"github.com/jalanria/service-rental/internal/domain/fleet"
	"github.com/jalanria/service-rental/internal/domain/inspection"
)

// --- bookings ---

type fakeBookingRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]bookingDomain.Snapshot
	saveErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{items: make(map[uuid.UUID]bookingDomain.Snapshot)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bookingDomain.ReconstructBooking(s), nil
}

func (r *fakeBookingRepo) find(match func(bookingDomain.Snapshot) bool) []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, s := range r.items {
		if match(s) {
			out = append(out, bookingDomain.ReconstructBooking(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	if got := r.find(func(s bookingDomain.Snapshot) bool { return s.BookingNumber == number }); len(got) > 0 {
		return got[0], nil
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *fakeBookingRepo) FindByRequestID(_ context.Context, requestID uuid.UUID) (*bookingDomain.Booking, error) {
	if got := r.find(func(s bookingDomain.Snapshot) bool { return s.Draft.RequestID == requestID }); len(got) > 0 {
		return got[0], nil
	}
	return nil, domain.NewNotFoundError("Booking", requestID.String())
}

func (r *fakeBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	got := r.find(func(s bookingDomain.Snapshot) bool { return s.Draft.CustomerID == customerID })
	return pageOf(got, page, limit), int64(len(got)), nil
}

func (r *fakeBookingRepo) FindByDriverID(_ context.Context, driverID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	got := r.find(func(s bookingDomain.Snapshot) bool { return s.Draft.DriverID != nil && *s.Draft.DriverID == driverID })
	return pageOf(got, page, limit), int64(len(got)), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, f bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	got := r.find(func(s bookingDomain.Snapshot) bool {
		return (f.Status == "" || s.Status == f.Status) &&
			(f.DriverID == nil || (s.Draft.DriverID != nil && *s.Draft.DriverID == *f.DriverID))
	})
	return pageOf(got, page, limit), int64(len(got)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, s := range r.items {
		out[string(s.Status)]++
	}
	return out, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, s := range r.items {
		if s.Draft.RequestID == b.RequestID() {
			return domain.NewConflictError("a booking already exists for this request")
		}
	}
	r.items[b.ID()] = b.Snapshot()
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[b.ID()]
	if !ok || cur.Version != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.items[b.ID()] = b.Snapshot()
	return nil
}

func pageOf[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- fleet ---

type fakeVehicleRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*fleet.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{items: make(map[uuid.UUID]*fleet.Vehicle)}
}

func cloneVehicle(v *fleet.Vehicle) *fleet.Vehicle {
	return fleet.ReconstructVehicle(v.ID(), v.PlateNumber(), v.Model(), v.VehicleType(), v.Seats(), v.Year(),
		v.Color(), v.PhotoURL(), v.Status(), v.AssignedDriverID(), v.Version(), v.CreatedAt(), v.UpdatedAt())
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Vehicle", id.String())
	}
	return cloneVehicle(v), nil
}

func (r *fakeVehicleRepo) FindByDriverID(_ context.Context, driverID uuid.UUID) (*fleet.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.AssignedDriverID() != nil && *v.AssignedDriverID() == driverID {
			return cloneVehicle(v), nil
		}
	}
	return nil, domain.NewNotFoundError("Vehicle for driver", driverID.String())
}

func (r *fakeVehicleRepo) List(_ context.Context, f fleet.VehicleFilter, page, limit int) ([]*fleet.Vehicle, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*fleet.Vehicle
	for _, v := range r.items {
		if (f.Status == "" || v.Status() == f.Status) && (f.VehicleType == "" || v.VehicleType() == f.VehicleType) {
			out = append(out, cloneVehicle(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlateNumber() < out[j].PlateNumber() })
	return pageOf(out, page, limit), int64(len(out)), nil
}

func (r *fakeVehicleRepo) Save(_ context.Context, v *fleet.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[v.ID()] = cloneVehicle(v)
	return nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, v *fleet.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[v.ID()]
	if !ok || cur.Version() != v.Version()-1 {
		return domain.NewConflictError("vehicle was modified by another request")
	}
	r.items[v.ID()] = cloneVehicle(v)
	return nil
}

type fakeDriverRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*fleet.Driver
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{items: make(map[uuid.UUID]*fleet.Driver)}
}

func cloneDriver(d *fleet.Driver) *fleet.Driver {
	return fleet.ReconstructDriver(d.ID(), d.UserID(), d.FullName(), d.Phone(), d.LicenseNumber(),
		d.Active(), d.Version(), d.CreatedAt(), d.UpdatedAt())
}

func (r *fakeDriverRepo) FindByID(_ context.Context, id uuid.UUID) (*fleet.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Driver", id.String())
	}
	return cloneDriver(d), nil
}

func (r *fakeDriverRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*fleet.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*fleet.Driver
	for _, id := range ids {
		if d, ok := r.items[id]; ok {
			out = append(out, cloneDriver(d))
		}
	}
	return out, nil
}

func (r *fakeDriverRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*fleet.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.items {
		if d.UserID() != nil && *d.UserID() == userID {
			return cloneDriver(d), nil
		}
	}
	return nil, domain.NewNotFoundError("Driver", userID.String())
}

func (r *fakeDriverRepo) List(_ context.Context, activeOnly bool, page, limit int) ([]*fleet.Driver, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*fleet.Driver
	for _, d := range r.items {
		if !activeOnly || d.Active() {
			out = append(out, cloneDriver(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return pageOf(out, page, limit), int64(len(out)), nil
}

func (r *fakeDriverRepo) Save(_ context.Context, d *fleet.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[d.ID()] = cloneDriver(d)
	return nil
}

func (r *fakeDriverRepo) Update(_ context.Context, d *fleet.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[d.ID()]
	if !ok || cur.Version() != d.Version()-1 {
		return domain.NewConflictError("driver was modified by another request")
	}
	r.items[d.ID()] = cloneDriver(d)
	return nil
}

// --- inspections ---

type fakeInspectionRepo struct {
	mu    sync.Mutex
	items []*inspection.Inspection
}

func (r *fakeInspectionRepo) Save(_ context.Context, in *inspection.Inspection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.items {
		if cur.BookingID() == in.BookingID() && cur.Kind() == in.Kind() {
			return domain.NewConflictError("inspection already recorded")
		}
	}
	r.items = append(r.items, in)
	return nil
}

func (r *fakeInspectionRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*inspection.Inspection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inspection.Inspection
	for _, in := range r.items {
		if in.BookingID() == bookingID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *fakeInspectionRepo) FindByBookingAndKind(_ context.Context, bookingID uuid.UUID, kind inspection.Kind) (*inspection.Inspection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.items {
		if in.BookingID() == bookingID && in.Kind() == kind {
			return in, nil
		}
	}
	return nil, domain.NewNotFoundError("Inspection", bookingID.String())
}

// --- tariffs ---

type fakeTariffStore struct {
	mu    sync.Mutex
	items map[string]fare.Tariff
	err   error
}

func newFakeTariffStore() *fakeTariffStore {
	return &fakeTariffStore{items: make(map[string]fare.Tariff)}
}

func (s *fakeTariffStore) Tariff(_ context.Context, name string) (fare.Tariff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return fare.Tariff{}, s.err
	}
	t, ok := s.items[name]
	if !ok {
		return fare.Tariff{}, fare.ErrTariffNotFound
	}
	return t, nil
}

func (s *fakeTariffStore) List(_ context.Context) ([]fare.Tariff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]fare.Tariff, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleTypeName < out[j].VehicleTypeName })
	return out, nil
}

func (s *fakeTariffStore) Upsert(_ context.Context, t fare.Tariff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items[t.VehicleTypeName] = t
	return nil
}

// --- collaborators ---

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	topics []string
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic string, e kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	phones   []string
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, phone, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.phones = append(n.phones, phone)
	n.messages = append(n.messages, message)
	return n.err
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	fakePublisher
	release chan struct{}
}

func (p *blockingPublisher) PublishEvent(ctx context.Context, topic string, e kafka.CloudEvent) error {
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.fakePublisher.PublishEvent(ctx, topic, e)
}

// blockingNotifier holds every message until release is closed.
type blockingNotifier struct {
	fakeNotifier
	release chan struct{}
}

func (n *blockingNotifier) Notify(ctx context.Context, phone, message string) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return n.fakeNotifier.Notify(ctx, phone, message)
}

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.phones...)
}

type stubResolver struct {
	mu        sync.Mutex
	estimates []fare.RouteEstimate
	calls     int
	onCall    func(call int)
}

func (r *stubResolver) Resolve(_ context.Context, _, _ fare.LatLng) fare.RouteEstimate {
	r.mu.Lock()
	r.calls++
	call, hook := r.calls, r.onCall
	idx := call - 1
	if idx >= len(r.estimates) {
		idx = len(r.estimates) - 1
	}
	est := r.estimates[idx]
	r.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return est
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type stubGeocoder struct {
	coords map[string]fare.LatLng
}

func (g stubGeocoder) Geocode(_ context.Context, address string) (fare.LatLng, error) {
	if ll, ok := g.coords[address]; ok {
		return ll, nil
	}
	return fare.LatLng{}, errors.New("address not found")
}

// rendezvousGeocoder answers only once two lookups are in flight.
type rendezvousGeocoder struct {
	coords  map[string]fare.LatLng
	mu      sync.Mutex
	waiting int
	both    chan struct{}
}

func (g *rendezvousGeocoder) Geocode(ctx context.Context, address string) (fare.LatLng, error) {
	g.mu.Lock()
	g.waiting++
	if g.waiting == 2 {
		close(g.both)
	}
	g.mu.Unlock()

	select {
	case <-g.both:
	case <-ctx.Done():
		return fare.LatLng{}, ctx.Err()
	}
	if ll, ok := g.coords[address]; ok {
		return ll, nil
	}
	return fare.LatLng{}, errors.New("address not found")
}

type failingCreator struct {
	err   error
	calls int
}

func (c *failingCreator) CreateFromDraft(context.Context, bookingDomain.Draft) (*BookingDTO, error) {
	c.calls++
	return nil, c.err
}
