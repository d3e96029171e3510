// README: Fleet service: driver/vehicle registration and maintenance overrides.
package fleet

import (
	"context"
	"errors"

	"fleetride/internal/types"
)

var (
	ErrNotFound      = errors.New("fleet entity not found")
	ErrBadRequest    = errors.New("bad request")
	ErrDuplicate     = errors.New("vehicle number already registered")
	ErrUnknownStatus = errors.New("unknown vehicle status")
)

type Store interface {
	CreateDriver(ctx context.Context, d *Driver) error
	GetDriver(ctx context.Context, id types.ID) (*Driver, error)
	ListDrivers(ctx context.Context) ([]Driver, error)
	CreateVehicle(ctx context.Context, v *Vehicle) error
	GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error)
	ListVehicles(ctx context.Context) ([]Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, id types.ID, status VehicleStatus) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) RegisterDriver(ctx context.Context, d Driver) error {
	if d.ID == "" || d.Name == "" {
		return ErrBadRequest
	}
	return s.store.CreateDriver(ctx, &d)
}

func (s *Service) RegisterVehicle(ctx context.Context, v Vehicle) (*Vehicle, error) {
	if !ValidVehicleNumber(v.Number) || v.Type == "" {
		return nil, ErrBadRequest
	}
	if v.ID == "" {
		v.ID = types.NewID()
	}
	if v.Status == "" {
		v.Status = VehicleAvailable
	}
	if err := s.store.CreateVehicle(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetVehicleStatus applies the explicit status override (maintenance in / out).
func (s *Service) SetVehicleStatus(ctx context.Context, id types.ID, status VehicleStatus) error {
	switch status {
	case VehicleAvailable, VehicleBusy, VehicleMaintenance:
	default:
		return ErrUnknownStatus
	}
	return s.store.UpdateVehicleStatus(ctx, id, status)
}

func (s *Service) Driver(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.GetDriver(ctx, id)
}

func (s *Service) Vehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

func (s *Service) Drivers(ctx context.Context) ([]Driver, error) {
	return s.store.ListDrivers(ctx)
}

func (s *Service) Vehicles(ctx context.Context) ([]Vehicle, error) {
	return s.store.ListVehicles(ctx)
}
