// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package sec

// # Account Roles

// Role represents the authorization level granted to an account.
//
// The role set is a fixed two-value enum. Roles are assigned at registration
// and are immutable through the public API surface.
type Role string

const (
	// Unrestricted system access
	RoleAdmin Role = "admin"

	// Default role for standard registered accounts
	RoleUser Role = "user"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale leaves room for future intermediate roles
	switch r {
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}

// Identity is the resolved, request-scoped view of an authenticated account.
//
// It is produced by the identity resolver after the bearer token has been
// verified AND the account has been re-loaded from the store, then attached
// to the request context for downstream handlers.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
