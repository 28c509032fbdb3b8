package fare

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubRouter struct {
	result RouteResult
	err    error
	delay  time.Duration
	calls  int
}

func (s *stubRouter) Route(ctx context.Context, origin, destination LatLng) (RouteResult, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return RouteResult{}, ctx.Err()
		}
	}
	return s.result, s.err
}

var (
	airport = LatLng{Lat: -6.1256, Lng: 106.6559}
	hotel   = LatLng{Lat: -6.1951, Lng: 106.8230}
)

func TestResolve_SamePointSkipsRouter(t *testing.T) {
	router := &stubRouter{}
	r := NewRouteResolver(router, time.Second, zap.NewNop())

	got := r.Resolve(context.Background(), airport, LatLng{Lat: airport.Lat + 0.00005, Lng: airport.Lng - 0.00005})

	assert.Equal(t, RouteEstimate{DistanceKm: 0.1, DurationMin: 1, Source: SourceSamePoint}, got)
	assert.Zero(t, router.calls)
}

func TestResolve_RoutingSuccess(t *testing.T) {
	router := &stubRouter{result: RouteResult{DistanceMeters: 12400, DurationSeconds: 1061}}
	r := NewRouteResolver(router, time.Second, zap.NewNop())

	got := r.Resolve(context.Background(), airport, hotel)

	assert.Equal(t, 12.4, got.DistanceKm)
	assert.Equal(t, 18, got.DurationMin)
	assert.Equal(t, SourceRouting, got.Source)
	assert.Equal(t, 1, router.calls)
}

func TestResolve_RoutingClampsTinyResults(t *testing.T) {
	router := &stubRouter{result: RouteResult{DistanceMeters: 20, DurationSeconds: 0}}
	r := NewRouteResolver(router, time.Second, zap.NewNop())

	got := r.Resolve(context.Background(), airport, hotel)

	assert.Equal(t, 0.1, got.DistanceKm)
	assert.Equal(t, 1, got.DurationMin)
}

func TestResolve_FallsBackOnError(t *testing.T) {
	for name, err := range map[string]error{
		"no route": ErrNoRoute,
		"failure":  errors.New("connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			r := NewRouteResolver(&stubRouter{err: err}, time.Second, zap.NewNop())

			got := r.Resolve(context.Background(), airport, hotel)

			want := HaversineKm(airport, hotel)
			assert.InDelta(t, want, got.DistanceKm, 1e-9)
			assert.Equal(t, SourceHaversine, got.Source)
			assert.GreaterOrEqual(t, got.DurationMin, 1)
		})
	}
}

func TestResolve_FallsBackOnTimeout(t *testing.T) {
	router := &stubRouter{result: RouteResult{DistanceMeters: 12400, DurationSeconds: 1061}, delay: time.Second}
	r := NewRouteResolver(router, 20*time.Millisecond, zap.NewNop())

	got := r.Resolve(context.Background(), airport, hotel)

	assert.Equal(t, SourceHaversine, got.Source)
	assert.Greater(t, got.DistanceKm, 0.1)
}

func TestResolve_NilRouterUsesHaversine(t *testing.T) {
	r := NewRouteResolver(nil, 0, zap.NewNop())
	got := r.Resolve(context.Background(), airport, hotel)
	assert.Equal(t, SourceHaversine, got.Source)
}

func TestHaversineEstimate_NeverBelowMinimum(t *testing.T) {
	near := LatLng{Lat: airport.Lat + 0.0002, Lng: airport.Lng}
	got := haversineEstimate(airport, near)
	assert.Equal(t, 0.1, got.DistanceKm)
	assert.Equal(t, 1, got.DurationMin)
}

func TestHaversineEstimate_DurationHeuristic(t *testing.T) {
	got := haversineEstimate(airport, hotel)
	assert.Equal(t, int(got.DistanceKm*2)+1, got.DurationMin)
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	jakarta := LatLng{Lat: -6.2088, Lng: 106.8456}
	bandung := LatLng{Lat: -6.9175, Lng: 107.6191}
	assert.InDelta(t, 116, HaversineKm(jakarta, bandung), 2)
}
