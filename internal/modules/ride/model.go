// README: Ride aggregate, status definitions, and the legal-transition table.
package ride

import (
	"time"

	"fleetride/internal/types"
)

type Status string

const (
	StatusNone            Status = "none"
	StatusPending         Status = "pending"
	StatusAwaitingManager Status = "awaiting_manager"
	StatusAwaitingAdmin   Status = "awaiting_admin"
	StatusManagerApproved Status = "manager_approved"
	StatusApproved        Status = "approved"
	StatusAssigned        Status = "assigned"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusRejected        Status = "rejected"
	StatusCancelled       Status = "cancelled"
)

type RideType string

const (
	TypeOneWay RideType = "one_way"
	TypeReturn RideType = "return"
)

// Approval is the per-stage ledger record. Approved carries an optional note;
// a rejection carries the mandatory reason. A stage's record, once written,
// is never overwritten (the state machine refuses a second resolution).
type Approval struct {
	ActorID  types.ID
	Approved bool
	Note     string
	Reason   string
	At       time.Time
}

type Ride struct {
	ID            types.ID
	Code          string // human-readable identifier, assigned at creation
	RequesterID   types.ID
	Type          RideType
	Pickup        types.Location
	Destination   types.Location
	ScheduledDate string // 2006-01-02; availability is exact-slot, so the
	ScheduledTime string // 15:04     pair stays in its wire form
	CalculatedKm  float64
	VehicleType   string
	Status        Status
	StatusVersion int

	// DriverID and VehicleID are set and cleared together; a ride is never
	// half-assigned.
	DriverID  *types.ID
	VehicleID *types.ID

	StartMileage *float64
	EndMileage   *float64
	ActualKm     *float64

	ManagerApproval *Approval
	AdminApproval   *Approval

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	ResolvedAt  *time.Time // rejection or cancellation time
}

type Event struct {
	ID        int64
	RideID    types.ID
	From      Status
	To        Status
	ActorRole string
	ActorID   *types.ID
	CreatedAt time.Time
}

// AllowedTransitions represents the ride lifecycle flow as code. Manager
// approval passes through manager_approved on its way to awaiting_admin so
// long-distance rides always clear both gates in order.
var AllowedTransitions = map[Status][]Status{
	StatusPending:         {StatusAwaitingManager, StatusAwaitingAdmin, StatusCancelled},
	StatusAwaitingManager: {StatusManagerApproved, StatusRejected, StatusCancelled},
	StatusManagerApproved: {StatusAwaitingAdmin},
	StatusAwaitingAdmin:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:        {StatusAssigned},
	StatusAssigned:        {StatusAssigned, StatusInProgress},
	StatusInProgress:      {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// DriverBusyAt reports whether the driver is bound to some ride in the slot
// scan (already filtered to one date/time) that blocks a new assignment.
// exclude removes a ride's own binding during reassignment.
func DriverBusyAt(rides []Ride, driverID, exclude types.ID) bool {
	for _, r := range rides {
		if r.ID == exclude {
			continue
		}
		if r.Status != StatusAssigned && r.Status != StatusInProgress {
			continue
		}
		if r.DriverID != nil && *r.DriverID == driverID {
			return true
		}
	}
	return false
}

// VehicleBusyAt is the vehicle counterpart of DriverBusyAt.
func VehicleBusyAt(rides []Ride, vehicleID, exclude types.ID) bool {
	for _, r := range rides {
		if r.ID == exclude {
			continue
		}
		if r.Status != StatusAssigned && r.Status != StatusInProgress {
			continue
		}
		if r.VehicleID != nil && *r.VehicleID == vehicleID {
			return true
		}
	}
	return false
}
