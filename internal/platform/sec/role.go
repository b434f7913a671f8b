// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Roles

// Role represents the authorization level granted to a principal.
type Role string

const (
	// Unrestricted system access, including admin management
	RoleSuperAdmin Role = "superadmin"

	// Full moderation access, manages moderators and verification grants
	RoleAdmin Role = "admin"

	// Day-to-day moderation of users, posts and reports
	RoleModerator Role = "moderator"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() > 0 && r.level() >= target.level()
}

// IsAdmin reports whether the role belongs to the administrator family.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {
	switch r {
	case RoleSuperAdmin:
		return 40
	case RoleAdmin:
		return 30
	case RoleModerator:
		return 20
	default:
		return 0
	}
}

// # Account Status

// Status is the lifecycle state of a moderator account.
type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

// # Principal

// Principal is the resolved, authenticated identity attached to a request.
//
// It is a projection built fresh on every request from verified token claims
// plus a live lookup of the account. It is never persisted.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Status      Status `json:"status,omitempty"`
}

// IsBanned reports whether the principal's live status is banned.
func (p *Principal) IsBanned() bool {
	return p.Status == StatusBanned
}
