// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Account Data Access

// AdminRepository defines the data access contract for administrator accounts.
//
// Lookups return [dberr.ErrNotFound] when no account matches.
type AdminRepository interface {

	/*
		FindByID returns the admin with the given ID.

		Parameters:
		  - ctx: context.Context
		  - id: string

		Returns:
		  - *Admin: Hydrated entity
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	FindByID(ctx context.Context, id string) (*Admin, error)

	/*
		FindByEmail returns the admin with the given email.

		Parameters:
		  - ctx: context.Context
		  - email: string

		Returns:
		  - *Admin: Hydrated entity
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	FindByEmail(ctx context.Context, email string) (*Admin, error)

	// Create persists a new admin and assigns its ID.
	Create(ctx context.Context, admin *Admin) error
}

// ModeratorRepository defines the data access contract for moderator accounts.
type ModeratorRepository interface {
	FindByID(ctx context.Context, id string) (*Moderator, error)
	FindByEmail(ctx context.Context, email string) (*Moderator, error)

	// Create persists a new moderator and assigns its ID. A duplicate email
	// yields [dberr.ErrDuplicate].
	Create(ctx context.Context, moderator *Moderator) error

	// List returns one page of moderators, newest first, and the total count.
	List(ctx context.Context, offset, limit int) ([]*Moderator, int, error)

	// SetBanned marks the moderator as banned.
	SetBanned(ctx context.Context, id string, bannedAt time.Time, reason string) error

	// ClearBanned restores the moderator to active.
	ClearBanned(ctx context.Context, id string) error
}

// # Ledger Persistence

// LedgerStore persists the refresh token ledger of each moderator.
//
// Every method is a single atomic operation on the backend, so instances
// sharing one store never overwrite each other's changes. A clear that lands
// between two other calls is never undone by them.
type LedgerStore interface {
	// AddRefreshToken appends token to the moderator's ledger.
	AddRefreshToken(ctx context.Context, moderatorID, token string) error

	// RemoveRefreshToken deletes one occurrence of token. Absent tokens are ignored.
	RemoveRefreshToken(ctx context.Context, moderatorID, token string) error

	// ClearRefreshTokens empties the moderator's ledger.
	ClearRefreshTokens(ctx context.Context, moderatorID string) error

	// HasRefreshToken reports whether token is in the moderator's ledger.
	HasRefreshToken(ctx context.Context, moderatorID, token string) (bool, error)
}
