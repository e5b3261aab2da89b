package types

import "github.com/m-mizutani/goerr/v2"

// Role is the role name of a user profile
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleInternal Role = "internal"
	RoleBroker   Role = "broker"

	// RoleBanned marks a profile that has been banned by an admin. It grants nothing.
	RoleBanned Role = "banned"
)

// AssignableRoles returns roles an admin can grant to a user
func AssignableRoles() []Role {
	return []Role{RoleAdmin, RoleInternal, RoleBroker}
}

// IsValid checks if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleInternal, RoleBroker, RoleBanned:
		return true
	default:
		return false
	}
}

// IsAssignable reports whether the role can be set through role management
func (r Role) IsAssignable() bool {
	switch r {
	case RoleAdmin, RoleInternal, RoleBroker:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into an assignable Role
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsAssignable() {
		return "", goerr.New("invalid role", goerr.V("role", s))
	}
	return role, nil
}
