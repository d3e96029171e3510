package maps

import (
	"context"
	"math"
	"testing"

	"fleetride/internal/types"
)

func TestHaversineKm(t *testing.T) {
	taipei := types.Point{Lat: 25.0330, Lng: 121.5654}
	taoyuanAirport := types.Point{Lat: 25.0797, Lng: 121.2342}

	got := haversineKm(taipei, taoyuanAirport)
	// great-circle distance is roughly 33.8 km
	if got < 32 || got > 36 {
		t.Errorf("haversineKm = %v, want ~34", got)
	}

	if d := haversineKm(taipei, taipei); d != 0 {
		t.Errorf("zero-distance = %v", d)
	}

	// symmetric
	if a, b := haversineKm(taipei, taoyuanAirport), haversineKm(taoyuanAirport, taipei); math.Abs(a-b) > 1e-9 {
		t.Errorf("asymmetric: %v vs %v", a, b)
	}
}

func TestRoadDistanceFallsBackWithoutKey(t *testing.T) {
	svc, err := NewRouteService("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	km, err := svc.RoadDistanceKm(context.Background(),
		types.Location{Position: types.Point{Lat: 25.0330, Lng: 121.5654}},
		types.Location{Position: types.Point{Lat: 25.0797, Lng: 121.2342}},
	)
	if err != nil {
		t.Fatalf("road distance: %v", err)
	}
	if km <= 0 {
		t.Errorf("distance = %v, want > 0", km)
	}
}
