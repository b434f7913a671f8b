// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package moderation implements identity verification of platform users.

Verification grants are sensitive, bulk-impact writes: every attempt is gated
by the sliding-window limiter before the payload is even validated, so abusive
bursts of malformed requests still count against the actor.

Architecture:

  - Entities: User (projection of the shared users collection), Verification.
  - Service: Grant and revoke verification.
  - Repository: MongoDB-backed user lookups and verification updates.
*/
package moderation

import (
	"context"
	"time"
)

// # Domain Entities

// Verification types a user can be granted.
const (
	TypeOfficial  = "official"
	TypeCreator   = "creator"
	TypeDeveloper = "developer"
)

// VerificationTypes lists every accepted verification type.
var VerificationTypes = []string{TypeOfficial, TypeCreator, TypeDeveloper}

// UserStatusActive is the only status that may be granted verification.
const UserStatusActive = "active"

// User is the moderation view of a platform user.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Status           string     `json:"status"`
	IsVerified       bool       `json:"is_verified"`
	VerificationType string     `json:"verification_type,omitempty"`
	VerifiedBy       string     `json:"verified_by,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
}

// IsActive reports whether the user may receive a verification grant.
// Records without a status predate the field and count as active.
func (user *User) IsActive() bool {
	return user.Status == "" || user.Status == UserStatusActive
}

// Verification is a grant written onto a user.
type Verification struct {
	Type       string
	VerifiedBy string
	VerifiedAt time.Time
}

// # Repository Contracts

// UserRepository defines the data access contract for verification writes.
//
// Lookups and updates return [dberr.ErrNotFound] when no user matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)

	// SetVerification marks the user as verified.
	SetVerification(ctx context.Context, id string, verification Verification) error

	// ClearVerification removes any verification from the user.
	ClearVerification(ctx context.Context, id string) error
}

// # Field Identifiers

const (
	FieldUserID           = "userId"
	FieldVerificationType = "verificationType"
	FieldReason           = "reason"

	// ActionVerification is the limiter action shared by grant and revoke.
	ActionVerification = "verification"
)
