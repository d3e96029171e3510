package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"

	"fleetride/internal/types"
)

// RouteService handles interactions with the Google Maps API. It implements
// the road-distance lookup performed before a ride request is created.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API key. An empty
// key yields a service that falls back to great-circle estimates, which keeps
// local development working without Maps credentials.
func NewRouteService(apiKey string) (*RouteService, error) {
	if apiKey == "" {
		return &RouteService{}, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// RoadDistanceKm returns the one-way driving distance in kilometres between
// pickup and destination. It assumes driving mode.
func (s *RouteService) RoadDistanceKm(ctx context.Context, pickup, destination types.Location) (float64, error) {
	if s.client == nil {
		return haversineKm(pickup.Position, destination.Position), nil
	}

	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", pickup.Position.Lat, pickup.Position.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Position.Lat, destination.Position.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return float64(meters) / 1000.0, nil
}

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
