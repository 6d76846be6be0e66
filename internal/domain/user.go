package domain

import (
	"slices"
	"time"
)

// Role is a capability a user holds on the platform.
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
)

// User represents an account. A user becomes a rider on sign-up and may
// later be onboarded as a driver.
type User struct {
	ID        string
	Name      string
	Email     string
	Roles     []Role
	CreatedAt time.Time
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// Rider is the rider profile of a user.
type Rider struct {
	ID     string
	UserID string
	Rating float64
}

// Principal identifies the acting party of an operation.
type Principal struct {
	UserID string
}
