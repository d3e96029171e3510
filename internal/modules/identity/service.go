// README: Identity service: user registration and server-side role lookups.
package identity

import (
	"context"
	"errors"

	"fleetride/internal/types"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrBadRequest = errors.New("bad request")
)

// Store is the persistence surface the service needs. PgStore and MemStore
// both satisfy it.
type Store interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id types.ID) (*User, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Register(ctx context.Context, u User) error {
	if u.ID == "" || u.Name == "" {
		return ErrBadRequest
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return ErrBadRequest
	}
	return s.store.Create(ctx, &u)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*User, error) {
	return s.store.Get(ctx, id)
}

// RoleOf returns the persisted role for an actor. Every ride operation calls
// this instead of reading a role claim off the request.
func (s *Service) RoleOf(ctx context.Context, id types.ID) (Role, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}
