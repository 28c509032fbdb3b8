package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/jalanria/service-rental/internal/domain/fare"
)

// ErrAddressNotFound is returned when geocoding yields no result.
var ErrAddressNotFound = errors.New("address not found")

// GoogleRouter answers driving routes and geocoding lookups with the
// Google Maps web services.
type GoogleRouter struct {
	client *maps.Client
	region string
}

// NewGoogleRouter creates a GoogleRouter. Extra client options (base URL,
// HTTP client, rate limit) are passed through to the maps client.
func NewGoogleRouter(apiKey, region string, opts ...maps.ClientOption) (*GoogleRouter, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleRouter{client: client, region: region}, nil
}

// Route returns the first driving route between origin and destination.
func (g *GoogleRouter) Route(ctx context.Context, origin, destination fare.LatLng) (fare.RouteResult, error) {
	r := &maps.DirectionsRequest{
		Origin:      formatLatLng(origin),
		Destination: formatLatLng(destination),
		Mode:        maps.TravelModeDriving,
		Region:      g.region,
	}

	routes, _, err := g.client.Directions(ctx, r)
	if err != nil {
		if isNoResult(err) {
			return fare.RouteResult{}, fare.ErrNoRoute
		}
		return fare.RouteResult{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return fare.RouteResult{}, fare.ErrNoRoute
	}

	var res fare.RouteResult
	for _, leg := range routes[0].Legs {
		res.DistanceMeters += float64(leg.Distance.Meters)
		res.DurationSeconds += leg.Duration.Seconds()
	}
	return res, nil
}

// Geocode resolves a free-text address to coordinates.
func (g *GoogleRouter) Geocode(ctx context.Context, address string) (fare.LatLng, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	})
	if err != nil {
		if isNoResult(err) {
			return fare.LatLng{}, ErrAddressNotFound
		}
		return fare.LatLng{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return fare.LatLng{}, ErrAddressNotFound
	}
	loc := results[0].Geometry.Location
	return fare.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func formatLatLng(p fare.LatLng) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func isNoResult(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND")
}
