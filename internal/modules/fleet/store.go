// README: Fleet store backed by PostgreSQL.
package fleet

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

func (s *PgStore) CreateDriver(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (id, name, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = $2, phone = $3`,
		string(d.ID), d.Name, d.Phone,
	)
	return err
}

func (s *PgStore) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, phone FROM drivers WHERE id = $1`, string(id),
	)
	var d Driver
	err := row.Scan(&d.ID, &d.Name, &d.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PgStore) ListDrivers(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone FROM drivers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PgStore) CreateVehicle(ctx context.Context, v *Vehicle) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (id, number, type, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (number) DO NOTHING`,
		string(v.ID), v.Number, v.Type, string(v.Status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *PgStore) GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, number, type, status FROM vehicles WHERE id = $1`, string(id),
	)
	var v Vehicle
	var status string
	err := row.Scan(&v.ID, &v.Number, &v.Type, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.Status = VehicleStatus(status)
	return &v, nil
}

func (s *PgStore) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, number, type, status FROM vehicles ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		var status string
		if err := rows.Scan(&v.ID, &v.Number, &v.Type, &status); err != nil {
			return nil, err
		}
		v.Status = VehicleStatus(status)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PgStore) UpdateVehicleStatus(ctx context.Context, id types.ID, status VehicleStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles SET status = $1 WHERE id = $2`,
		string(status), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
