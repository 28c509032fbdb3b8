package fare

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
)

// ErrNoRoute is returned by a Router when no driving path exists.
var ErrNoRoute = errors.New("no route found")

// Route estimate sources.
const (
	SourceRouting   = "routing"
	SourceHaversine = "haversine"
	SourceSamePoint = "same_point"
)

// RouteEstimate is the distance and duration of one trip.
type RouteEstimate struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	Source      string  `json:"source"`
}

// RouteResult is a raw answer from a road-routing provider.
type RouteResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Router looks up a driving route between two points.
type Router interface {
	Route(ctx context.Context, origin, destination LatLng) (RouteResult, error)
}

// RouteResolver turns two points into a RouteEstimate. It never fails:
// routing errors degrade to a great-circle estimate.
type RouteResolver struct {
	router  Router
	timeout time.Duration
	logger  *zap.Logger
}

// NewRouteResolver creates a RouteResolver. A nil router always uses the
// great-circle estimate.
func NewRouteResolver(router Router, timeout time.Duration, logger *zap.Logger) *RouteResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RouteResolver{router: router, timeout: timeout, logger: logger}
}

// Resolve returns the estimate for origin → destination.
func (r *RouteResolver) Resolve(ctx context.Context, origin, destination LatLng) RouteEstimate {
	if SamePoint(origin, destination) {
		return RouteEstimate{DistanceKm: minDistanceKm, DurationMin: 1, Source: SourceSamePoint}
	}

	if r.router != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		res, err := r.router.Route(lookupCtx, origin, destination)
		cancel()
		if err == nil {
			return RouteEstimate{
				DistanceKm:  math.Max(minDistanceKm, res.DistanceMeters/1000),
				DurationMin: max(1, int(math.Ceil(res.DurationSeconds/60))),
				Source:      SourceRouting,
			}
		}
		r.logger.Warn("routing lookup failed, using great-circle estimate",
			zap.Float64("origin_lat", origin.Lat),
			zap.Float64("origin_lng", origin.Lng),
			zap.Float64("dest_lat", destination.Lat),
			zap.Float64("dest_lng", destination.Lng),
			zap.Bool("no_route", errors.Is(err, ErrNoRoute)),
			zap.Error(err),
		)
	}

	return haversineEstimate(origin, destination)
}

func haversineEstimate(origin, destination LatLng) RouteEstimate {
	d := HaversineKm(origin, destination)
	if math.IsNaN(d) || d < minDistanceKm {
		d = minDistanceKm
	}
	return RouteEstimate{
		DistanceKm:  d,
		DurationMin: int(math.Ceil(d * 2)),
		Source:      SourceHaversine,
	}
}
