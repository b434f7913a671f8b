// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
)

// Ledger is the authoritative set of refresh tokens accepted for each
// moderator. It is the kill-switch for refresh tokens that have not expired.
//
// A moderator may hold any number of tokens at once, one per device. Each
// operation maps onto one atomic store call, so a revoke issued by any
// instance holds against concurrent logins on the others.
type Ledger struct {
	store LedgerStore
}

// NewLedger creates a Ledger over the given persistence boundary.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// Add records token as valid for moderatorID.
func (ledger *Ledger) Add(ctx context.Context, moderatorID, token string) error {
	if err := ledger.store.AddRefreshToken(ctx, moderatorID, token); err != nil {
		return fmt.Errorf("ledger: add failed: %w", err)
	}
	return nil
}

// Remove deletes exactly one occurrence of token. Other sessions are untouched.
func (ledger *Ledger) Remove(ctx context.Context, moderatorID, token string) error {
	if err := ledger.store.RemoveRefreshToken(ctx, moderatorID, token); err != nil {
		return fmt.Errorf("ledger: remove failed: %w", err)
	}
	return nil
}

// Clear revokes every session of moderatorID.
func (ledger *Ledger) Clear(ctx context.Context, moderatorID string) error {
	if err := ledger.store.ClearRefreshTokens(ctx, moderatorID); err != nil {
		return fmt.Errorf("ledger: clear failed: %w", err)
	}
	return nil
}

// Contains reports whether token is currently accepted for moderatorID.
func (ledger *Ledger) Contains(ctx context.Context, moderatorID, token string) (bool, error) {
	ok, err := ledger.store.HasRefreshToken(ctx, moderatorID, token)
	if err != nil {
		return false, fmt.Errorf("ledger: lookup failed: %w", err)
	}
	return ok, nil
}
