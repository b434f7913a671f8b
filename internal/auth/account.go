// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/taibuivan/modgate/internal/platform/sec"
)

// # Domain Entities

// Admin is a long-lived administrator account.
//
// Administrators hold a single 24h session token and have no ledger: a valid
// signature, a live expiry and an existing record are sufficient.
type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.Role  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal projects the admin onto the request identity.
func (admin *Admin) Principal() *sec.Principal {
	role := admin.Role
	if role == "" {
		role = sec.RoleAdmin
	}
	return &sec.Principal{
		ID:          admin.ID,
		DisplayName: admin.Name,
		Email:       admin.Email,
		Role:        role,
	}
}

// Moderator is a short-lived-session account whose refresh tokens are tracked
// in a ledger and can be revoked at any time.
type Moderator struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Status       sec.Status `json:"status"`
	BannedAt     *time.Time `json:"banned_at,omitempty"`
	BannedReason string     `json:"banned_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsBanned reports whether the moderator is currently banned.
func (moderator *Moderator) IsBanned() bool {
	return moderator.Status == sec.StatusBanned
}

// Principal projects the moderator onto the request identity.
func (moderator *Moderator) Principal() *sec.Principal {
	status := moderator.Status
	if status == "" {
		status = sec.StatusActive
	}
	return &sec.Principal{
		ID:          moderator.ID,
		DisplayName: moderator.Name,
		Email:       moderator.Email,
		Role:        sec.RoleModerator,
		Status:      status,
	}
}

// # Field Identifiers

// Field names for validation and response payloads in the authentication domain.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldReason       = "reason"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldUser         = "user"
	FieldModerator    = "moderator"
	FieldMessage      = "message"
	FieldSuccess      = "success"
	TokenTypeBearer   = "Bearer"
	MinPasswordLength = 8
)
