package enums

import (
	"fmt"
	"strings"
)

// Role is the dashboard role stored on a profile.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleClient Role = "client"
)

var validRoles = []Role{
	RoleAdmin,
	RoleStaff,
	RoleClient,
}

// Roles returns every known role, highest privilege first.
func Roles() []Role {
	return append([]Role(nil), validRoles...)
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid role %q", value)
}
