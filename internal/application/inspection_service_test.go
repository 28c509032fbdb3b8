package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/fleet"
	"github.com/jalanria/service-rental/internal/events"
)

type inspectionFixture struct {
	*bookingFixture
	svc     *InspectionService
	repo    *fakeInspectionRepo
	driver  *fleet.Driver
	vehicle *fleet.Vehicle
	booking *BookingDTO
}

// newInspectionFixture prepares a confirmed Sedan booking with a driver assigned.
func newInspectionFixture(t *testing.T) *inspectionFixture {
	t.Helper()
	bf := newBookingFixture()
	f := &inspectionFixture{bookingFixture: bf, repo: &fakeInspectionRepo{}}
	f.svc = NewInspectionService(f.repo, bf.repo, bf.vehicles, bf.drivers, bf.publisher, zap.NewNop())

	f.driver, f.vehicle = bf.addUnit(t, "Sedan", "DK 7007 GG")
	f.booking = bf.create(t, uuid.New(), "Sedan")
	_, err := bf.svc.AssignDriver(context.Background(), f.booking.ID, f.driver.ID())
	require.NoError(t, err)
	_, err = bf.svc.ConfirmBooking(context.Background(), f.booking.ID)
	require.NoError(t, err)
	return f
}

func (f *inspectionFixture) driverActor() Actor {
	return Actor{UserID: *f.driver.UserID(), Role: auth.RoleDriver}
}

func (f *inspectionFixture) bookingStatus(t *testing.T) string {
	t.Helper()
	bk, err := f.bookingFixture.svc.GetBooking(context.Background(), Actor{UserID: uuid.New(), Role: auth.RoleAdmin}, f.booking.ID)
	require.NoError(t, err)
	return bk.Status
}

func (f *inspectionFixture) vehicleStatus(t *testing.T) fleet.VehicleStatus {
	t.Helper()
	v, err := f.vehicles.FindByID(context.Background(), f.vehicle.ID())
	require.NoError(t, err)
	return v.Status()
}

func TestInspectionService_FullRental(t *testing.T) {
	f := newInspectionFixture(t)
	ctx := context.Background()

	pre, err := f.svc.RecordInspection(ctx, f.driverActor(), f.booking.ID, RecordInspectionRequest{
		Kind:        "pre_rental",
		OdometerKm:  42100,
		FuelPercent: 90,
		PhotoURLs:   []string{"https://cdn.example.com/pre/front.jpg", "https://cdn.example.com/pre/back.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, f.vehicle.ID(), pre.VehicleID)
	assert.Nil(t, pre.DrivenKm)
	assert.Equal(t, "in_progress", f.bookingStatus(t))
	assert.Equal(t, fleet.VehicleRented, f.vehicleStatus(t))

	post, err := f.svc.RecordInspection(ctx, f.driverActor(), f.booking.ID, RecordInspectionRequest{
		Kind:        "post_rental",
		OdometerKm:  42138,
		FuelPercent: 70,
		PhotoURLs:   []string{"https://cdn.example.com/post/front.jpg"},
		DamageNotes: "small scratch rear bumper",
	})
	require.NoError(t, err)
	require.NotNil(t, post.DrivenKm)
	assert.Equal(t, 38, *post.DrivenKm)
	assert.Equal(t, "completed", f.bookingStatus(t))
	assert.Equal(t, fleet.VehicleAvailable, f.vehicleStatus(t))

	f.bookingFixture.svc.Wait()
	f.svc.Wait()
	types := f.publisher.types()
	assert.Contains(t, types, events.BookingStarted)
	assert.Contains(t, types, events.BookingCompleted)

	list, err := f.svc.ListInspections(ctx, Actor{UserID: uuid.New(), Role: auth.RoleAdmin}, f.booking.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pre_rental", list[0].Kind)
	require.NotNil(t, list[1].DrivenKm)
	assert.Equal(t, 38, *list[1].DrivenKm)
}

func TestInspectionService_OdometerCannotGoBackwards(t *testing.T) {
	f := newInspectionFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordInspection(ctx, f.driverActor(), f.booking.ID, RecordInspectionRequest{
		Kind: "pre_rental", OdometerKm: 5000, FuelPercent: 80, PhotoURLs: []string{"a.jpg"},
	})
	require.NoError(t, err)

	_, err = f.svc.RecordInspection(ctx, f.driverActor(), f.booking.ID, RecordInspectionRequest{
		Kind: "post_rental", OdometerKm: 4990, FuelPercent: 60, PhotoURLs: []string{"b.jpg"},
	})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, "in_progress", f.bookingStatus(t))
	assert.Len(t, f.repo.items, 1)
}

func TestInspectionService_PostRentalBeforeStart(t *testing.T) {
	f := newInspectionFixture(t)

	_, err := f.svc.RecordInspection(context.Background(), f.driverActor(), f.booking.ID, RecordInspectionRequest{
		Kind: "post_rental", OdometerKm: 100, FuelPercent: 50, PhotoURLs: []string{"a.jpg"},
	})
	var invalid *domain.InvalidStateError
	assert.ErrorAs(t, err, &invalid)
}

func TestInspectionService_RejectsOtherDrivers(t *testing.T) {
	f := newInspectionFixture(t)
	other, _ := f.addUnit(t, "Sedan", "DK 8008 HH")

	_, err := f.svc.RecordInspection(context.Background(), Actor{UserID: *other.UserID(), Role: auth.RoleDriver}, f.booking.ID,
		RecordInspectionRequest{Kind: "pre_rental", OdometerKm: 1, FuelPercent: 50, PhotoURLs: []string{"a.jpg"}})
	var forbidden *domain.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = f.svc.ListInspections(context.Background(), Actor{UserID: uuid.New(), Role: auth.RoleCustomer}, f.booking.ID)
	assert.ErrorAs(t, err, &forbidden)
}

func TestInspectionService_Validation(t *testing.T) {
	f := newInspectionFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RecordInspectionRequest
	}{
		{"unknown kind", RecordInspectionRequest{Kind: "midway", PhotoURLs: []string{"a.jpg"}}},
		{"no photos", RecordInspectionRequest{Kind: "pre_rental"}},
		{"fuel above 100", RecordInspectionRequest{Kind: "pre_rental", FuelPercent: 120, PhotoURLs: []string{"a.jpg"}}},
		{"negative odometer", RecordInspectionRequest{Kind: "pre_rental", OdometerKm: -1, PhotoURLs: []string{"a.jpg"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordInspection(ctx, f.driverActor(), f.booking.ID, tt.req)
			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
	assert.Equal(t, "confirmed", f.bookingStatus(t))
}
