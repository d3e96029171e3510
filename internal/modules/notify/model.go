// README: Notification event definitions.
package notify

import (
	"time"

	"fleetride/internal/types"
)

const (
	KindRideApproved   = "ride_approved"
	KindRideRejected   = "ride_rejected"
	KindRideAssigned   = "ride_assigned"
	KindRideReassigned = "ride_reassigned"
	KindRideStarted    = "ride_started"
	KindRideCompleted  = "ride_completed"
)

type Event struct {
	UserID    types.ID          `json:"user_id"`
	Kind      string            `json:"kind"`
	RideID    types.ID          `json:"ride_id"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
