// README: In-memory fleet store for tests and local development.
package fleet

import (
	"context"
	"sort"
	"sync"

	"fleetride/internal/types"
)

type MemStore struct {
	mu       sync.RWMutex
	drivers  map[types.ID]Driver
	vehicles map[types.ID]Vehicle
}

func NewMemStore() *MemStore {
	return &MemStore{
		drivers:  make(map[types.ID]Driver),
		vehicles: make(map[types.ID]Vehicle),
	}
}

func (s *MemStore) CreateDriver(_ context.Context, d *Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[d.ID] = *d
	return nil
}

func (s *MemStore) GetDriver(_ context.Context, id types.ID) (*Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := d
	return &out, nil
}

func (s *MemStore) ListDrivers(_ context.Context) ([]Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) CreateVehicle(_ context.Context, v *Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.vehicles {
		if existing.Number == v.Number {
			return ErrDuplicate
		}
	}
	s.vehicles[v.ID] = *v
	return nil
}

func (s *MemStore) GetVehicle(_ context.Context, id types.ID) (*Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := v
	return &out, nil
}

func (s *MemStore) ListVehicles(_ context.Context) ([]Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemStore) UpdateVehicleStatus(_ context.Context, id types.ID, status VehicleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return ErrNotFound
	}
	v.Status = status
	s.vehicles[id] = v
	return nil
}
