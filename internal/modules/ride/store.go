// README: Ride store backed by PostgreSQL; CAS transition writes and the
// in-transaction availability re-check for assignment.
package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const rideColumns = `
	id, code, requester_id, ride_type,
	pickup_address, pickup_lat, pickup_lng,
	dest_address, dest_lat, dest_lng,
	scheduled_date, scheduled_time, calculated_km, vehicle_type,
	status, status_version, driver_id, vehicle_id,
	start_mileage, end_mileage, actual_km,
	mgr_actor_id, mgr_approved, mgr_note, mgr_reason, mgr_at,
	adm_actor_id, adm_approved, adm_note, adm_reason, adm_at,
	created_at, started_at, completed_at, resolved_at`

func (s *PgStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, code, requester_id, ride_type,
			pickup_address, pickup_lat, pickup_lng,
			dest_address, dest_lat, dest_lng,
			scheduled_date, scheduled_time, calculated_km, vehicle_type,
			status, status_version, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17
		)`,
		string(r.ID), r.Code, string(r.RequesterID), string(r.Type),
		r.Pickup.Address, r.Pickup.Position.Lat, r.Pickup.Position.Lng,
		r.Destination.Address, r.Destination.Position.Lat, r.Destination.Position.Lng,
		r.ScheduledDate, r.ScheduledTime, r.CalculatedKm, r.VehicleType,
		string(r.Status), r.StatusVersion, r.CreatedAt,
	)
	return err
}

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *PgStore) ListBySlot(ctx context.Context, date, timeOfDay string) ([]Ride, error) {
	return s.list(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE scheduled_date = $1 AND scheduled_time = $2
		  AND status IN ('assigned','in_progress')`, date, timeOfDay)
}

func (s *PgStore) ListByRequester(ctx context.Context, id types.ID) ([]Ride, error) {
	return s.list(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE requester_id = $1 ORDER BY created_at DESC`, string(id))
}

func (s *PgStore) ListByDriver(ctx context.Context, id types.ID) ([]Ride, error) {
	return s.list(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE driver_id = $1 ORDER BY created_at DESC`, string(id))
}

func (s *PgStore) list(ctx context.Context, query string, args ...any) ([]Ride, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Update writes every mutable ride field guarded by (id, status, version).
// On success r.StatusVersion is advanced to the stored value.
func (s *PgStore) Update(ctx context.Context, r *Ride, from Status, fromVersion int) (bool, error) {
	tag, err := s.db.Exec(ctx, updateRideSQL, updateRideArgs(r, from, fromVersion)...)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	r.StatusVersion = fromVersion + 1
	return true, nil
}

// Assign re-checks slot conflicts and performs the guarded write inside one
// transaction, so the check-then-act cannot race another assignment.
func (s *PgStore) Assign(ctx context.Context, r *Ride, from Status, fromVersion int) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize assignments per slot. Row locks alone cannot stop two
	// first-assignments racing into an empty slot.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`,
		r.ScheduledDate+" "+r.ScheduledTime,
	); err != nil {
		return false, err
	}

	var conflict int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rides
		WHERE scheduled_date = $1 AND scheduled_time = $2
		  AND status IN ('assigned','in_progress')
		  AND id <> $3
		  AND (driver_id = $4 OR vehicle_id = $5)`,
		r.ScheduledDate, r.ScheduledTime, string(r.ID),
		derefID(r.DriverID), derefID(r.VehicleID),
	).Scan(&conflict)
	if err != nil {
		return false, err
	}
	if conflict > 0 {
		return false, fmt.Errorf("%w: slot already booked", ErrUnavailable)
	}

	tag, err := tx.Exec(ctx, updateRideSQL, updateRideArgs(r, from, fromVersion)...)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	r.StatusVersion = fromVersion + 1
	return true, nil
}

const updateRideSQL = `
	UPDATE rides SET
		status = $1,
		status_version = status_version + 1,
		driver_id = $2,
		vehicle_id = $3,
		start_mileage = $4,
		end_mileage = $5,
		actual_km = $6,
		mgr_actor_id = $7, mgr_approved = $8, mgr_note = $9, mgr_reason = $10, mgr_at = $11,
		adm_actor_id = $12, adm_approved = $13, adm_note = $14, adm_reason = $15, adm_at = $16,
		started_at = $17,
		completed_at = $18,
		resolved_at = $19
	WHERE id = $20 AND status = $21 AND status_version = $22`

func updateRideArgs(r *Ride, from Status, fromVersion int) []any {
	mgrActor, mgrApproved, mgrNote, mgrReason, mgrAt := approvalArgs(r.ManagerApproval)
	admActor, admApproved, admNote, admReason, admAt := approvalArgs(r.AdminApproval)
	return []any{
		string(r.Status),
		derefID(r.DriverID),
		derefID(r.VehicleID),
		r.StartMileage,
		r.EndMileage,
		r.ActualKm,
		mgrActor, mgrApproved, mgrNote, mgrReason, mgrAt,
		admActor, admApproved, admNote, admReason, admAt,
		r.StartedAt,
		r.CompletedAt,
		r.ResolvedAt,
		string(r.ID),
		string(from),
		fromVersion,
	}
}

func (s *PgStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_state_events (
			ride_id, from_status, to_status, actor_role, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID), string(e.From), string(e.To),
		e.ActorRole, derefID(e.ActorID), e.CreatedAt,
	)
	return err
}

func (s *PgStore) NextRideSeq(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT nextval('ride_code_seq')`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	var rideType, status string
	var driverID, vehicleID *string
	var mgrActor, mgrNote, mgrReason *string
	var mgrApproved *bool
	var mgrAt *time.Time
	var admActor, admNote, admReason *string
	var admApproved *bool
	var admAt *time.Time

	err := row.Scan(
		&r.ID, &r.Code, &r.RequesterID, &rideType,
		&r.Pickup.Address, &r.Pickup.Position.Lat, &r.Pickup.Position.Lng,
		&r.Destination.Address, &r.Destination.Position.Lat, &r.Destination.Position.Lng,
		&r.ScheduledDate, &r.ScheduledTime, &r.CalculatedKm, &r.VehicleType,
		&status, &r.StatusVersion, &driverID, &vehicleID,
		&r.StartMileage, &r.EndMileage, &r.ActualKm,
		&mgrActor, &mgrApproved, &mgrNote, &mgrReason, &mgrAt,
		&admActor, &admApproved, &admNote, &admReason, &admAt,
		&r.CreatedAt, &r.StartedAt, &r.CompletedAt, &r.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Type = RideType(rideType)
	r.Status = Status(status)
	if driverID != nil {
		d := types.ID(*driverID)
		r.DriverID = &d
	}
	if vehicleID != nil {
		v := types.ID(*vehicleID)
		r.VehicleID = &v
	}
	r.ManagerApproval = approvalFromColumns(mgrActor, mgrApproved, mgrNote, mgrReason, mgrAt)
	r.AdminApproval = approvalFromColumns(admActor, admApproved, admNote, admReason, admAt)
	return &r, nil
}

func approvalArgs(a *Approval) (actor *string, approved *bool, note, reason *string, at *time.Time) {
	if a == nil {
		return nil, nil, nil, nil, nil
	}
	id := string(a.ActorID)
	ok := a.Approved
	n := a.Note
	rs := a.Reason
	t := a.At
	return &id, &ok, &n, &rs, &t
}

func approvalFromColumns(actor *string, approved *bool, note, reason *string, at *time.Time) *Approval {
	if actor == nil || approved == nil || at == nil {
		return nil
	}
	a := &Approval{ActorID: types.ID(*actor), Approved: *approved, At: *at}
	if note != nil {
		a.Note = *note
	}
	if reason != nil {
		a.Reason = *reason
	}
	return a
}

func derefID(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
