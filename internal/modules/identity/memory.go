// README: In-memory user store for tests and local development.
package identity

import (
	"context"
	"sync"

	"fleetride/internal/types"
)

type MemStore struct {
	mu    sync.RWMutex
	users map[types.ID]User
}

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[types.ID]User)}
}

func (s *MemStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := u
	return &out, nil
}
