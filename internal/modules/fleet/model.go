// README: Driver and vehicle definitions for the fleet pool.
package fleet

import (
	"regexp"

	"fleetride/internal/types"
)

// Driver is the fleet-facing profile of a user with the driver role; its ID
// equals the user id in identity.
type Driver struct {
	ID    types.ID
	Name  string
	Phone string
}

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleBusy        VehicleStatus = "busy"
	// VehicleMaintenance is an explicit override independent of scheduling;
	// a vehicle in maintenance is never offered for assignment.
	VehicleMaintenance VehicleStatus = "maintenance"
)

type Vehicle struct {
	ID     types.ID
	Number string
	Type   string
	Status VehicleStatus
}

// vehicleNumberRe enforces the plate format: 2-3 letters, hyphen, 4 digits
// (e.g. NB-1985).
var vehicleNumberRe = regexp.MustCompile(`^[A-Z]{2,3}-[0-9]{4}$`)

func ValidVehicleNumber(n string) bool {
	return vehicleNumberRe.MatchString(n)
}
