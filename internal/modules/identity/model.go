// README: User accounts and the closed role set.
package identity

import (
	"fmt"

	"fleetride/internal/types"
)

type Role string

const (
	RoleRequester Role = "requester"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
)

// ParseRole maps a stored role string onto the closed enum. Anything outside
// the four known roles is rejected; roles are never trusted from the client.
func ParseRole(v string) (Role, error) {
	switch Role(v) {
	case RoleRequester, RoleDriver, RoleAdmin, RoleManager:
		return Role(v), nil
	}
	return "", fmt.Errorf("unknown role %q", v)
}

type User struct {
	ID    types.ID
	Name  string
	Phone string
	Role  Role
}
