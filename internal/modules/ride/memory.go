// README: In-memory ride store; mirrors the CAS and assignment-guard
// semantics of the PostgreSQL store under a single mutex.
package ride

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fleetride/internal/types"
)

type MemStore struct {
	mu     sync.Mutex
	rides  map[types.ID]Ride
	events []Event
	seq    int64
	nextEv int64
}

func NewMemStore() *MemStore {
	return &MemStore{rides: make(map[types.ID]Ride)}
}

func (s *MemStore) Create(_ context.Context, r *Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides[r.ID] = *r
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *MemStore) ListBySlot(_ context.Context, date, timeOfDay string) ([]Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotLocked(date, timeOfDay), nil
}

func (s *MemStore) slotLocked(date, timeOfDay string) []Ride {
	var out []Ride
	for _, r := range s.rides {
		if r.ScheduledDate != date || r.ScheduledTime != timeOfDay {
			continue
		}
		if r.Status != StatusAssigned && r.Status != StatusInProgress {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *MemStore) ListByRequester(_ context.Context, id types.ID) ([]Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Ride
	for _, r := range s.rides {
		if r.RequesterID == id {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStore) ListByDriver(_ context.Context, id types.ID) ([]Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Ride
	for _, r := range s.rides {
		if r.DriverID != nil && *r.DriverID == id {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStore) Update(_ context.Context, r *Ride, from Status, fromVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.casLocked(r, from, fromVersion), nil
}

func (s *MemStore) Assign(_ context.Context, r *Ride, from Status, fromVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-validate the slot under the same lock that applies the write.
	slot := s.slotLocked(r.ScheduledDate, r.ScheduledTime)
	if r.DriverID != nil && DriverBusyAt(slot, *r.DriverID, r.ID) {
		return false, fmt.Errorf("%w: slot already booked", ErrUnavailable)
	}
	if r.VehicleID != nil && VehicleBusyAt(slot, *r.VehicleID, r.ID) {
		return false, fmt.Errorf("%w: slot already booked", ErrUnavailable)
	}
	return s.casLocked(r, from, fromVersion), nil
}

func (s *MemStore) casLocked(r *Ride, from Status, fromVersion int) bool {
	current, ok := s.rides[r.ID]
	if !ok || current.Status != from || current.StatusVersion != fromVersion {
		return false
	}
	r.StatusVersion = fromVersion + 1
	s.rides[r.ID] = *r
	return true
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEv++
	ev := *e
	ev.ID = s.nextEv
	s.events = append(s.events, ev)
	return nil
}

func (s *MemStore) NextRideSeq(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

// Events returns a copy of the appended audit trail; test helper.
func (s *MemStore) Events(rideID types.ID) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.RideID == rideID {
			out = append(out, e)
		}
	}
	return out
}

func sortNewestFirst(rides []Ride) {
	sort.Slice(rides, func(i, j int) bool {
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
}
