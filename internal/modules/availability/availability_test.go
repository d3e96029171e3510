// README: Availability resolver tests.
package availability

import (
	"context"
	"errors"
	"testing"

	"fleetride/internal/modules/fleet"
	"fleetride/internal/modules/ride"
	"fleetride/internal/types"
)

const (
	driver1  = types.ID("drv1")
	driver2  = types.ID("drv2")
	vehicle1 = types.ID("veh1")
	vehicle2 = types.ID("veh2")
	vehicleM = types.ID("veh_maint")
)

func setup(t *testing.T) (*Service, *ride.MemStore) {
	t.Helper()
	ctx := context.Background()

	fleetStore := fleet.NewMemStore()
	fleetSvc := fleet.NewService(fleetStore)
	for _, d := range []fleet.Driver{
		{ID: driver1, Name: "Driver One"},
		{ID: driver2, Name: "Driver Two"},
	} {
		if err := fleetSvc.RegisterDriver(ctx, d); err != nil {
			t.Fatalf("seed driver: %v", err)
		}
	}
	for _, v := range []fleet.Vehicle{
		{ID: vehicle1, Number: "ABC-1234", Type: "sedan", Status: fleet.VehicleAvailable},
		{ID: vehicle2, Number: "ABC-5678", Type: "van", Status: fleet.VehicleAvailable},
		{ID: vehicleM, Number: "XYZ-9999", Type: "sedan", Status: fleet.VehicleMaintenance},
	} {
		if _, err := fleetSvc.RegisterVehicle(ctx, v); err != nil {
			t.Fatalf("seed vehicle: %v", err)
		}
	}

	rideStore := ride.NewMemStore()
	return NewService(rideStore, fleetSvc), rideStore
}

func seedAssigned(t *testing.T, store *ride.MemStore, id types.ID, date, timeOfDay string, driverID, vehicleID types.ID) {
	t.Helper()
	d, v := driverID, vehicleID
	err := store.Create(context.Background(), &ride.Ride{
		ID:            id,
		RequesterID:   "req",
		Status:        ride.StatusAssigned,
		ScheduledDate: date,
		ScheduledTime: timeOfDay,
		DriverID:      &d,
		VehicleID:     &v,
	})
	if err != nil {
		t.Fatalf("seed ride: %v", err)
	}
}

func TestDriversForFreeSlot(t *testing.T) {
	svc, _ := setup(t)

	slots, err := svc.Drivers(context.Background(), "2026-09-01", "09:30", "")
	if err != nil {
		t.Fatalf("drivers: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(slots))
	}
	for _, s := range slots {
		if !s.Available || s.Current {
			t.Errorf("driver %s: available=%v current=%v, want free", s.Driver.ID, s.Available, s.Current)
		}
	}
}

func TestDriversBusyExactSlotOnly(t *testing.T) {
	svc, store := setup(t)
	seedAssigned(t, store, "r1", "2026-09-01", "09:30", driver1, vehicle1)

	slots, err := svc.Drivers(context.Background(), "2026-09-01", "09:30", "")
	if err != nil {
		t.Fatalf("drivers: %v", err)
	}
	for _, s := range slots {
		want := s.Driver.ID != driver1
		if s.Available != want {
			t.Errorf("driver %s available = %v, want %v", s.Driver.ID, s.Available, want)
		}
	}

	// a different time on the same date does not block
	later, err := svc.Drivers(context.Background(), "2026-09-01", "14:00", "")
	if err != nil {
		t.Fatalf("drivers: %v", err)
	}
	for _, s := range later {
		if !s.Available {
			t.Errorf("driver %s busy at an unrelated slot", s.Driver.ID)
		}
	}
}

func TestExcludeRideFreesOwnCrew(t *testing.T) {
	svc, store := setup(t)
	seedAssigned(t, store, "r1", "2026-09-01", "09:30", driver1, vehicle1)

	slots, err := svc.Drivers(context.Background(), "2026-09-01", "09:30", "r1")
	if err != nil {
		t.Fatalf("drivers: %v", err)
	}
	for _, s := range slots {
		if !s.Available {
			t.Errorf("driver %s blocked by the excluded ride's own binding", s.Driver.ID)
		}
		if s.Current != (s.Driver.ID == driver1) {
			t.Errorf("driver %s current = %v", s.Driver.ID, s.Current)
		}
	}

	vehicles, err := svc.Vehicles(context.Background(), "2026-09-01", "09:30", "r1")
	if err != nil {
		t.Fatalf("vehicles: %v", err)
	}
	for _, s := range vehicles {
		if s.Current != (s.Vehicle.ID == vehicle1) {
			t.Errorf("vehicle %s current = %v", s.Vehicle.ID, s.Current)
		}
	}
}

func TestMaintenanceVehicleNeverAvailable(t *testing.T) {
	svc, _ := setup(t)

	slots, err := svc.Vehicles(context.Background(), "2026-09-01", "09:30", "")
	if err != nil {
		t.Fatalf("vehicles: %v", err)
	}
	found := false
	for _, s := range slots {
		if s.Vehicle.ID == vehicleM {
			found = true
			if s.Available {
				t.Error("maintenance vehicle listed as available")
			}
		}
	}
	if !found {
		t.Fatal("maintenance vehicle missing from listing")
	}
}

func TestBadSlotInput(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Drivers(ctx, "tomorrow", "09:30", ""); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bad date: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.Vehicles(ctx, "2026-09-01", "9:30am", ""); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bad time: err = %v, want ErrBadRequest", err)
	}
}
