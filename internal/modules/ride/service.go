// README: Ride service: approval workflow, assignment, and mileage transitions.
package ride

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fleetride/internal/modules/fleet"
	"fleetride/internal/modules/identity"
	"fleetride/internal/modules/notify"
	"fleetride/internal/types"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnavailable       = errors.New("driver or vehicle unavailable")
	ErrNoteRequired      = errors.New("approval note required")
	ErrReasonRequired    = errors.New("rejection reason required")
	ErrReasonTooShort    = errors.New("rejection reason too short")
	ErrInvalidMileage    = errors.New("invalid mileage")
	ErrNotFound          = errors.New("ride not found")
	ErrBadRequest        = errors.New("bad request")
)

const (
	minReasonLen = 10
	maxNoteLen   = 500
)

// Store is the persistence surface for rides. Update and Assign are
// compare-and-swap writes guarded by (id, from-status, from-version); Assign
// additionally re-checks slot conflicts inside the same transaction or lock
// that performs the write, and reports ErrUnavailable when the re-check fails.
type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	ListBySlot(ctx context.Context, date, timeOfDay string) ([]Ride, error)
	ListByRequester(ctx context.Context, id types.ID) ([]Ride, error)
	ListByDriver(ctx context.Context, id types.ID) ([]Ride, error)
	Update(ctx context.Context, r *Ride, from Status, fromVersion int) (bool, error)
	Assign(ctx context.Context, r *Ride, from Status, fromVersion int) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	NextRideSeq(ctx context.Context) (int64, error)
}

// Roles resolves an actor's persisted role; implemented by identity.Service.
type Roles interface {
	RoleOf(ctx context.Context, id types.ID) (identity.Role, error)
}

// FleetSource resolves assignment candidates; implemented by fleet.Service.
type FleetSource interface {
	Driver(ctx context.Context, id types.ID) (*fleet.Driver, error)
	Vehicle(ctx context.Context, id types.ID) (*fleet.Vehicle, error)
}

// Notifier publishes fire-and-forget events; a failed publish never rolls
// back a transition. Implemented by notify.Service.
type Notifier interface {
	Publish(ctx context.Context, e notify.Event)
}

type Service struct {
	store      Store
	roles      Roles
	fleet      FleetSource
	notifier   Notifier
	classifier Classifier
}

func NewService(store Store, roles Roles, fleetSrc FleetSource, notifier Notifier, classifier Classifier) *Service {
	return &Service{
		store:      store,
		roles:      roles,
		fleet:      fleetSrc,
		notifier:   notifier,
		classifier: classifier,
	}
}

type CreateCommand struct {
	RequesterID   types.ID
	Type          RideType
	Pickup        types.Location
	Destination   types.Location
	ScheduledDate string
	ScheduledTime string
	VehicleType   string
	// DistanceKm is the one-way road distance computed by the routing
	// collaborator before this call.
	DistanceKm float64
}

type ApproveCommand struct {
	RideID  types.ID
	ActorID types.ID
	Note    string
}

type RejectCommand struct {
	RideID  types.ID
	ActorID types.ID
	Reason  string
}

type AssignCommand struct {
	RideID    types.ID
	ActorID   types.ID
	DriverID  types.ID
	VehicleID types.ID
}

type StartCommand struct {
	RideID       types.ID
	ActorID      types.ID
	StartMileage float64
}

type CompleteCommand struct {
	RideID     types.ID
	ActorID    types.ID
	EndMileage float64
}

type CancelCommand struct {
	RideID  types.ID
	ActorID types.ID
}

// Create validates the request, doubles the distance for return trips, runs
// the classifier, and stores the ride at its routed awaiting state. The
// transient pending step is recorded in the event log only.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if err := s.requireRole(ctx, cmd.RequesterID, identity.RoleRequester, "create", StatusNone); err != nil {
		return nil, err
	}
	if cmd.Type != TypeOneWay && cmd.Type != TypeReturn {
		return nil, fmt.Errorf("%w: unknown ride type %q", ErrBadRequest, cmd.Type)
	}
	if cmd.VehicleType == "" || cmd.Pickup.Address == "" || cmd.Destination.Address == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrBadRequest)
	}
	if cmd.DistanceKm < 0 || math.IsNaN(cmd.DistanceKm) {
		return nil, fmt.Errorf("%w: negative distance", ErrBadRequest)
	}
	if _, err := time.Parse("2006-01-02", cmd.ScheduledDate); err != nil {
		return nil, fmt.Errorf("%w: bad scheduled date", ErrBadRequest)
	}
	if _, err := time.Parse("15:04", cmd.ScheduledTime); err != nil {
		return nil, fmt.Errorf("%w: bad scheduled time", ErrBadRequest)
	}

	calculated := cmd.DistanceKm
	if cmd.Type == TypeReturn {
		calculated *= 2
	}

	routed := StatusAwaitingAdmin
	if s.classifier.Classify(calculated).RequiresManagerApproval {
		routed = StatusAwaitingManager
	}

	seq, err := s.store.NextRideSeq(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	r := &Ride{
		ID:            types.NewID(),
		Code:          fmt.Sprintf("RB-%05d", seq),
		RequesterID:   cmd.RequesterID,
		Type:          cmd.Type,
		Pickup:        cmd.Pickup,
		Destination:   cmd.Destination,
		ScheduledDate: cmd.ScheduledDate,
		ScheduledTime: cmd.ScheduledTime,
		CalculatedKm:  calculated,
		VehicleType:   cmd.VehicleType,
		Status:        routed,
		StatusVersion: 0,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, StatusNone, StatusPending, "requester", &cmd.RequesterID, now)
	s.appendEvent(ctx, r.ID, StatusPending, routed, "system", nil, now)
	return r, nil
}

// ManagerApprove clears the manager gate. The ride passes through
// manager_approved on its way to awaiting_admin; the admin stage is never
// skipped.
func (s *Service) ManagerApprove(ctx context.Context, cmd ApproveCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, cmd.ActorID, identity.RoleManager, "manager approve", r.Status); err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusManagerApproved) {
		return nil, invalidTransition("manager approve", r.Status, identity.RoleManager)
	}
	note := strings.TrimSpace(cmd.Note)
	if len(note) > maxNoteLen {
		return nil, fmt.Errorf("%w: note exceeds %d chars", ErrBadRequest, maxNoteLen)
	}

	now := time.Now()
	next := *r
	next.Status = StatusManagerApproved
	next.ManagerApproval = &Approval{ActorID: cmd.ActorID, Approved: true, Note: note, At: now}
	if err := s.update(ctx, &next, r.Status, r.StatusVersion); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, r.Status, StatusManagerApproved, "manager", &cmd.ActorID, now)

	queued := next
	queued.Status = StatusAwaitingAdmin
	if err := s.update(ctx, &queued, StatusManagerApproved, next.StatusVersion); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, StatusManagerApproved, StatusAwaitingAdmin, "system", nil, now)

	s.publish(ctx, queued.RequesterID, notify.KindRideApproved, &queued, map[string]string{"stage": "manager"})
	return &queued, nil
}

// ManagerReject resolves the manager stage with a mandatory reason.
func (s *Service) ManagerReject(ctx context.Context, cmd RejectCommand) (*Ride, error) {
	return s.reject(ctx, cmd, identity.RoleManager, StatusAwaitingManager)
}

// AdminApprove clears the admin gate. Long-distance rides demand a non-empty
// note on the approval record.
func (s *Service) AdminApprove(ctx context.Context, cmd ApproveCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, cmd.ActorID, identity.RoleAdmin, "admin approve", r.Status); err != nil {
		return nil, err
	}
	if r.Status != StatusAwaitingAdmin || !CanTransition(r.Status, StatusApproved) {
		return nil, invalidTransition("admin approve", r.Status, identity.RoleAdmin)
	}
	note := strings.TrimSpace(cmd.Note)
	if len(note) > maxNoteLen {
		return nil, fmt.Errorf("%w: note exceeds %d chars", ErrBadRequest, maxNoteLen)
	}
	if s.classifier.Classify(r.CalculatedKm).RequiresManagerApproval && note == "" {
		return nil, ErrNoteRequired
	}

	now := time.Now()
	next := *r
	next.Status = StatusApproved
	next.AdminApproval = &Approval{ActorID: cmd.ActorID, Approved: true, Note: note, At: now}
	if err := s.update(ctx, &next, r.Status, r.StatusVersion); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, r.Status, StatusApproved, "admin", &cmd.ActorID, now)
	s.publish(ctx, next.RequesterID, notify.KindRideApproved, &next, map[string]string{"stage": "admin"})
	return &next, nil
}

// AdminReject resolves the admin stage with a mandatory reason.
func (s *Service) AdminReject(ctx context.Context, cmd RejectCommand) (*Ride, error) {
	return s.reject(ctx, cmd, identity.RoleAdmin, StatusAwaitingAdmin)
}

func (s *Service) reject(ctx context.Context, cmd RejectCommand, role identity.Role, from Status) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, cmd.ActorID, role, "reject", r.Status); err != nil {
		return nil, err
	}
	if r.Status != from || !CanTransition(r.Status, StatusRejected) {
		return nil, invalidTransition("reject", r.Status, role)
	}
	reason, err := validReason(cmd.Reason)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	next := *r
	next.Status = StatusRejected
	next.ResolvedAt = &now
	rec := &Approval{ActorID: cmd.ActorID, Approved: false, Reason: reason, At: now}
	if role == identity.RoleManager {
		next.ManagerApproval = rec
	} else {
		next.AdminApproval = rec
	}
	if err := s.update(ctx, &next, r.Status, r.StatusVersion); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, r.Status, StatusRejected, string(role), &cmd.ActorID, now)
	s.publish(ctx, next.RequesterID, notify.KindRideRejected, &next, map[string]string{"reason": reason})
	return &next, nil
}

// Assign binds a driver and vehicle to an approved ride. Availability is
// checked here and re-validated by the store inside the same transaction that
// performs the write, so a concurrent assignment cannot double-book a slot.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*Ride, error) {
	return s.assign(ctx, cmd, false)
}

// Reassign replaces the binding of an already-assigned ride. The ride's own
// current assignment does not count against the new candidates.
func (s *Service) Reassign(ctx context.Context, cmd AssignCommand) (*Ride, error) {
	return s.assign(ctx, cmd, true)
}

func (s *Service) assign(ctx context.Context, cmd AssignCommand, reassign bool) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	op := "assign"
	from := StatusApproved
	if reassign {
		op = "reassign"
		from = StatusAssigned
	}
	if err := s.requireRole(ctx, cmd.ActorID, identity.RoleAdmin, op, r.Status); err != nil {
		return nil, err
	}
	if r.Status != from || !CanTransition(r.Status, StatusAssigned) {
		return nil, invalidTransition(op, r.Status, identity.RoleAdmin)
	}

	if _, err := s.fleet.Driver(ctx, cmd.DriverID); err != nil {
		if errors.Is(err, fleet.ErrNotFound) {
			return nil, fmt.Errorf("%w: driver %s", ErrNotFound, cmd.DriverID)
		}
		return nil, err
	}
	v, err := s.fleet.Vehicle(ctx, cmd.VehicleID)
	if err != nil {
		if errors.Is(err, fleet.ErrNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, cmd.VehicleID)
		}
		return nil, err
	}
	if v.Status == fleet.VehicleMaintenance {
		return nil, fmt.Errorf("%w: vehicle %s in maintenance", ErrUnavailable, v.Number)
	}

	exclude := types.ID("")
	if reassign {
		exclude = r.ID
	}
	slot, err := s.store.ListBySlot(ctx, r.ScheduledDate, r.ScheduledTime)
	if err != nil {
		return nil, err
	}
	if DriverBusyAt(slot, cmd.DriverID, exclude) {
		return nil, fmt.Errorf("%w: driver busy at %s %s", ErrUnavailable, r.ScheduledDate, r.ScheduledTime)
	}
	if VehicleBusyAt(slot, cmd.VehicleID, exclude) {
		return nil, fmt.Errorf("%w: vehicle busy at %s %s", ErrUnavailable, r.ScheduledDate, r.ScheduledTime)
	}

	var prevDriver *types.ID
	if reassign && r.DriverID != nil {
		prev := *r.DriverID
		prevDriver = &prev
	}

	now := time.Now()
	next := *r
	next.Status = StatusAssigned
	next.DriverID = &cmd.DriverID
	next.VehicleID = &cmd.VehicleID
	ok, err := s.store.Assign(ctx, &next, from, r.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: ride state changed concurrently", ErrInvalidTransition)
	}
	s.appendEvent(ctx, r.ID, from, StatusAssigned, "admin", &cmd.ActorID, now)

	kind := notify.KindRideAssigned
	if reassign {
		kind = notify.KindRideReassigned
	}
	s.publish(ctx, next.RequesterID, kind, &next, nil)
	s.publish(ctx, cmd.DriverID, kind, &next, nil)
	if prevDriver != nil && *prevDriver != cmd.DriverID {
		s.publish(ctx, *prevDriver, notify.KindRideReassigned, &next, map[string]string{"released": "true"})
	}
	return &next, nil
}

// Start records the start odometer reading and moves the ride in progress.
// Only the assigned driver may start.
func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, cmd.ActorID, identity.RoleDriver, "start", r.Status); err != nil {
		return nil, err
	}
	if r.Status != StatusAssigned || !CanTransition(r.Status, StatusInProgress) {
		return nil, invalidTransition("start", r.Status, identity.RoleDriver)
	}
	if r.DriverID == nil || *r.DriverID != cmd.ActorID {
		return nil, invalidTransition("start", r.Status, identity.RoleDriver)
	}
	if cmd.StartMileage < 0 || math.IsNaN(cmd.StartMileage) {
		return nil, fmt.Errorf("%w: start reading %v", ErrInvalidMileage, cmd.StartMileage)
	}

	now := time.Now()
	next := *r
	next.Status = StatusInProgress
	m := cmd.StartMileage
	next.StartMileage = &m
	next.StartedAt = &now
	if err := s.update(ctx, &next, r.Status, r.StatusVersion); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, r.Status, StatusInProgress, "driver", &cmd.ActorID, now)
	s.publish(ctx, next.RequesterID, notify.KindRideStarted, &next, nil)
	return &next, nil
}

// Complete records the end odometer reading, derives actual distance, and
// finalizes the ride.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, cmd.ActorID, identity.RoleDriver, "complete", r.Status); err != nil {
		return nil, err
	}
	if r.Status != StatusInProgress || !CanTransition(r.Status, StatusCompleted) {
		return nil, invalidTransition("complete", r.Status, identity.RoleDriver)
	}
	if r.DriverID == nil || *r.DriverID != cmd.ActorID {
		return nil, invalidTransition("complete", r.Status, identity.RoleDriver)
	}
	if math.IsNaN(cmd.EndMileage) || cmd.EndMileage < 0 {
		return nil, fmt.Errorf("%w: end reading %v", ErrInvalidMileage, cmd.EndMileage)
	}
	if r.StartMileage == nil || cmd.EndMileage < *r.StartMileage {
		return nil, fmt.Errorf("%w: end reading below start", ErrInvalidMileage)
	}

	now := time.Now()
	next := *r
	next.Status = StatusCompleted
	m := cmd.EndMileage
	actual := cmd.EndMileage - *r.StartMileage
	next.EndMileage = &m
	next.ActualKm = &actual
	next.CompletedAt = &now
	if err := s.update(ctx, &next, r.Status, r.StatusVersion); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, r.Status, StatusCompleted, "driver", &cmd.ActorID, now)
	s.publish(ctx, next.RequesterID, notify.KindRideCompleted, &next, nil)
	return &next, nil
}

// Cancel lets the requester withdraw a ride that has not yet been assigned.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, cmd.ActorID, identity.RoleRequester, "cancel", r.Status); err != nil {
		return nil, err
	}
	if r.RequesterID != cmd.ActorID {
		return nil, invalidTransition("cancel", r.Status, identity.RoleRequester)
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, invalidTransition("cancel", r.Status, identity.RoleRequester)
	}

	now := time.Now()
	next := *r
	next.Status = StatusCancelled
	next.ResolvedAt = &now
	if err := s.update(ctx, &next, r.Status, r.StatusVersion); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, r.Status, StatusCancelled, "requester", &cmd.ActorID, now)
	return &next, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) HistoryByRequester(ctx context.Context, id types.ID) ([]Ride, error) {
	return s.store.ListByRequester(ctx, id)
}

func (s *Service) HistoryByDriver(ctx context.Context, id types.ID) ([]Ride, error) {
	return s.store.ListByDriver(ctx, id)
}

func (s *Service) requireRole(ctx context.Context, actorID types.ID, want identity.Role, op string, current Status) error {
	if actorID == "" {
		return fmt.Errorf("%w: missing actor", ErrBadRequest)
	}
	role, err := s.roles.RoleOf(ctx, actorID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fmt.Errorf("%w: actor %s", ErrNotFound, actorID)
		}
		return err
	}
	if role != want {
		return invalidTransition(op, current, role)
	}
	return nil
}

// update is the CAS write shared by every non-assignment transition. A lost
// race surfaces as ErrInvalidTransition: the caller must re-fetch the ride.
func (s *Service) update(ctx context.Context, r *Ride, from Status, fromVersion int) error {
	ok, err := s.store.Update(ctx, r, from, fromVersion)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: ride state changed concurrently", ErrInvalidTransition)
	}
	return nil
}

func (s *Service) appendEvent(ctx context.Context, rideID types.ID, from, to Status, role string, actor *types.ID, at time.Time) {
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:    rideID,
		From:      from,
		To:        to,
		ActorRole: role,
		ActorID:   actor,
		CreatedAt: at,
	})
}

func (s *Service) publish(ctx context.Context, userID types.ID, kind string, r *Ride, data map[string]string) {
	if s.notifier == nil {
		return
	}
	if data == nil {
		data = map[string]string{}
	}
	data["ride_code"] = r.Code
	data["status"] = string(r.Status)
	s.notifier.Publish(ctx, notify.Event{
		UserID:    userID,
		Kind:      kind,
		RideID:    r.ID,
		Data:      data,
		CreatedAt: time.Now(),
	})
}

func invalidTransition(op string, from Status, role identity.Role) error {
	return fmt.Errorf("%w: %s from %s as %s", ErrInvalidTransition, op, from, role)
}

func validReason(reason string) (string, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return "", ErrReasonRequired
	}
	if len(trimmed) < minReasonLen {
		return "", ErrReasonTooShort
	}
	if len(trimmed) > maxNoteLen {
		return "", fmt.Errorf("%w: reason exceeds %d chars", ErrBadRequest, maxNoteLen)
	}
	return trimmed, nil
}
