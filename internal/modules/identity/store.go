// README: User store backed by PostgreSQL.
package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetride/internal/types"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, name, phone, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, phone = $3, role = $4`,
		string(u.ID), u.Name, u.Phone, string(u.Role),
	)
	return err
}

func (s *PgStore) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, phone, role FROM users WHERE id = $1`, string(id),
	)
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}
