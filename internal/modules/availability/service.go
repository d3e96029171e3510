// README: Availability resolver: read-only projection of which drivers and
// vehicles are free for an exact date/time slot.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetride/internal/modules/fleet"
	"fleetride/internal/modules/ride"
	"fleetride/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// DriverSlot annotates a driver with its availability for the requested
// slot. Current marks the excluded ride's own binding so a reassignment UI
// can still show "(current)".
type DriverSlot struct {
	Driver    fleet.Driver
	Available bool
	Current   bool
}

type VehicleSlot struct {
	Vehicle   fleet.Vehicle
	Available bool
	Current   bool
}

// RideSource is the slice of the ride store the resolver reads.
type RideSource interface {
	ListBySlot(ctx context.Context, date, timeOfDay string) ([]ride.Ride, error)
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
}

// FleetSource lists the candidate pools; implemented by fleet.Service.
type FleetSource interface {
	Drivers(ctx context.Context) ([]fleet.Driver, error)
	Vehicles(ctx context.Context) ([]fleet.Vehicle, error)
}

type Service struct {
	rides RideSource
	fleet FleetSource
}

func NewService(rides RideSource, fleetSrc FleetSource) *Service {
	return &Service{rides: rides, fleet: fleetSrc}
}

// Drivers returns every driver annotated with availability for the slot.
// The scan tolerates read skew; assignments re-validate inside the store's
// transaction, so a stale "available" here is caught at assignment time.
func (s *Service) Drivers(ctx context.Context, date, timeOfDay string, excludeRideID types.ID) ([]DriverSlot, error) {
	slot, currentDriver, _, err := s.slot(ctx, date, timeOfDay, excludeRideID)
	if err != nil {
		return nil, err
	}
	drivers, err := s.fleet.Drivers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DriverSlot, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, DriverSlot{
			Driver:    d,
			Available: !ride.DriverBusyAt(slot, d.ID, excludeRideID),
			Current:   currentDriver != nil && *currentDriver == d.ID,
		})
	}
	return out, nil
}

// Vehicles is the vehicle counterpart of Drivers; vehicles under the
// maintenance override are never available regardless of scheduling.
func (s *Service) Vehicles(ctx context.Context, date, timeOfDay string, excludeRideID types.ID) ([]VehicleSlot, error) {
	slot, _, currentVehicle, err := s.slot(ctx, date, timeOfDay, excludeRideID)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.fleet.Vehicles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]VehicleSlot, 0, len(vehicles))
	for _, v := range vehicles {
		free := v.Status != fleet.VehicleMaintenance &&
			!ride.VehicleBusyAt(slot, v.ID, excludeRideID)
		out = append(out, VehicleSlot{
			Vehicle:   v,
			Available: free,
			Current:   currentVehicle != nil && *currentVehicle == v.ID,
		})
	}
	return out, nil
}

func (s *Service) slot(ctx context.Context, date, timeOfDay string, excludeRideID types.ID) ([]ride.Ride, *types.ID, *types.ID, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad date", ErrBadRequest)
	}
	if _, err := time.Parse("15:04", timeOfDay); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad time", ErrBadRequest)
	}

	slot, err := s.rides.ListBySlot(ctx, date, timeOfDay)
	if err != nil {
		return nil, nil, nil, err
	}

	var currentDriver, currentVehicle *types.ID
	if excludeRideID != "" {
		r, err := s.rides.Get(ctx, excludeRideID)
		if err != nil && !errors.Is(err, ride.ErrNotFound) {
			return nil, nil, nil, err
		}
		if r != nil {
			currentDriver = r.DriverID
			currentVehicle = r.VehicleID
		}
	}
	return slot, currentDriver, currentVehicle, nil
}
