// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/modgate/internal/auth"
	"github.com/taibuivan/modgate/internal/platform/sec"
	"github.com/taibuivan/modgate/pkg/pagination"
)

/*
TestService_LoginAdmin covers admin credential checks.
*/
func TestService_LoginAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addAdmin(t, "ada@example.com", sec.RoleAdmin)

	session, err := f.service.LoginAdmin(ctx, " ADA@example.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, session.Principal.ID)

	claims, err := f.issuer.Verify(session.Token, sec.ContextAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	_, err = f.service.LoginAdmin(ctx, "ada@example.com", "wrong-password")
	requireCode(t, err, "INVALID_CREDENTIALS")

	_, err = f.service.LoginAdmin(ctx, "nobody@example.com", testPassword)
	requireCode(t, err, "INVALID_CREDENTIALS")
}

/*
TestService_LoginAdmin_NonAdminRole refuses records outside the admin roles.
*/
func TestService_LoginAdmin_NonAdminRole(t *testing.T) {
	f := newFixture(t)
	f.addAdmin(t, "odd@example.com", sec.RoleModerator)

	_, err := f.service.LoginAdmin(context.Background(), "odd@example.com", testPassword)
	requireCode(t, err, "INVALID_CREDENTIALS")
}

/*
TestService_ModeratorSessionLifecycle walks login, refresh and logout.
*/
func TestService_ModeratorSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moderator := f.addModerator(t, "mia@example.com")

	session, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, moderator.ID, session.Principal.ID)
	assert.Equal(t, 1, f.moderators.ledgerSize(moderator.ID))

	grant, err := f.service.RefreshModeratorSession(ctx, session.RefreshToken)
	require.NoError(t, err)

	claims, err := f.issuer.Verify(grant.AccessToken, sec.ContextModeratorAccess)
	require.NoError(t, err)
	assert.Equal(t, moderator.ID, claims.Subject)

	// The refresh token is not rotated.
	_, err = f.service.RefreshModeratorSession(ctx, session.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.service.LogoutModerator(ctx, session.RefreshToken))
	assert.Equal(t, 0, f.moderators.ledgerSize(moderator.ID))

	_, err = f.service.RefreshModeratorSession(ctx, session.RefreshToken)
	requireCode(t, err, "SESSION_SUPERSEDED")
}

/*
TestService_LoginModerator_Failures checks that the ban is revealed only
after the password matched.
*/
func TestService_LoginModerator_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moderator := f.addModerator(t, "mia@example.com")

	_, err := f.service.LoginModerator(ctx, "nobody@example.com", testPassword)
	requireCode(t, err, "INVALID_CREDENTIALS")

	require.NoError(t, f.service.BanModerator(ctx, moderator.ID, ""))

	_, err = f.service.LoginModerator(ctx, "mia@example.com", "wrong-password")
	requireCode(t, err, "INVALID_CREDENTIALS")

	_, err = f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	requireCode(t, err, "ACCOUNT_BANNED")
	assert.Equal(t, 0, f.moderators.ledgerSize(moderator.ID))
}

/*
TestService_MultiDeviceLogout keeps other devices signed in.
*/
func TestService_MultiDeviceLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moderator := f.addModerator(t, "mia@example.com")

	laptop, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)
	phone, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)

	assert.NotEqual(t, laptop.RefreshToken, phone.RefreshToken)
	assert.Equal(t, 2, f.moderators.ledgerSize(moderator.ID))

	require.NoError(t, f.service.LogoutModerator(ctx, laptop.RefreshToken))

	_, err = f.service.RefreshModeratorSession(ctx, laptop.RefreshToken)
	requireCode(t, err, "SESSION_SUPERSEDED")

	_, err = f.service.RefreshModeratorSession(ctx, phone.RefreshToken)
	assert.NoError(t, err)
}

/*
TestService_LogoutIdempotent ignores absent, forged and repeated tokens.
*/
func TestService_LogoutIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addModerator(t, "mia@example.com")

	session, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)

	assert.NoError(t, f.service.LogoutModerator(ctx, ""))
	assert.NoError(t, f.service.LogoutModerator(ctx, "not-a-jwt"))
	assert.NoError(t, f.service.LogoutModerator(ctx, session.RefreshToken))
	assert.NoError(t, f.service.LogoutModerator(ctx, session.RefreshToken))
}

/*
TestService_LogoutExpiredToken still prunes a genuine expired refresh token.
*/
func TestService_LogoutExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moderator := f.addModerator(t, "mia@example.com")

	past := f.issuer.WithClock(func() time.Time { return time.Now().Add(-sec.ModeratorRefreshTokenTTL - time.Minute) })
	expired, _, err := past.IssueModeratorRefreshToken(moderator.Principal())
	require.NoError(t, err)
	require.NoError(t, f.ledger.Add(ctx, moderator.ID, expired))

	_, err = f.service.RefreshModeratorSession(ctx, expired)
	requireCode(t, err, "UNAUTHORIZED")

	require.NoError(t, f.service.LogoutModerator(ctx, expired))
	assert.Equal(t, 0, f.moderators.ledgerSize(moderator.ID))
}

/*
TestService_RefreshFailures covers missing and invalid refresh tokens.
*/
func TestService_RefreshFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moderator := f.addModerator(t, "mia@example.com")

	_, err := f.service.RefreshModeratorSession(ctx, "")
	requireCode(t, err, "UNAUTHORIZED")

	_, err = f.service.RefreshModeratorSession(ctx, "garbage")
	requireCode(t, err, "UNAUTHORIZED")

	// An access token is not a refresh token.
	access, _, err := f.issuer.IssueModeratorAccessToken(moderator.Principal())
	require.NoError(t, err)
	_, err = f.service.RefreshModeratorSession(ctx, access)
	requireCode(t, err, "UNAUTHORIZED")

	// A genuine refresh token for an unknown moderator.
	ghost := &sec.Principal{ID: "65a1f0c2e4b0a1b2c3d4e5f6", Role: sec.RoleModerator}
	orphan, _, err := f.issuer.IssueModeratorRefreshToken(ghost)
	require.NoError(t, err)
	_, err = f.service.RefreshModeratorSession(ctx, orphan)
	requireCode(t, err, "UNAUTHORIZED")
}

/*
TestService_RefreshLookupBounded checks that the live moderator lookup runs
under a deadline.
*/
func TestService_RefreshLookupBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addModerator(t, "mia@example.com")

	session, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)

	_, err = f.service.RefreshModeratorSession(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, f.moderators.lastLookupBounded())
}

/*
TestService_UnknownEmailCostsOneHash checks that an unknown account still
pays for one bcrypt comparison, against the fixed dummy hash.
*/
func TestService_UnknownEmailCostsOneHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var compared []string
	f.service.SetPasswordVerifier(func(plain, storedHash string) (bool, error) {
		compared = append(compared, storedHash)
		return sec.VerifyPassword(plain, storedHash)
	})

	_, err := f.service.LoginModerator(ctx, "nobody@example.com", testPassword)
	requireCode(t, err, "INVALID_CREDENTIALS")

	_, err = f.service.LoginAdmin(ctx, "nobody@example.com", testPassword)
	requireCode(t, err, "INVALID_CREDENTIALS")

	assert.Equal(t, []string{sec.DummyPasswordHash(), sec.DummyPasswordHash()}, compared)
}

/*
TestService_RevokeAll invalidates every refresh token but not live access tokens.
*/
func TestService_RevokeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moderator := f.addModerator(t, "mia@example.com")

	first, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)
	second, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.RevokeAllModeratorSessions(ctx, moderator.ID))

	for _, session := range []*auth.ModeratorSession{first, second} {
		_, err := f.service.RefreshModeratorSession(ctx, session.RefreshToken)
		requireCode(t, err, "SESSION_SUPERSEDED")
	}

	// Access tokens live until their short expiry.
	principal, err := f.resolver.AuthenticateModerator(ctx, first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, moderator.ID, principal.ID)

	err = f.service.RevokeAllModeratorSessions(ctx, "65a1f0c2e4b0a1b2c3d4e5f6")
	requireCode(t, err, "NOT_FOUND")
}

/*
TestService_BanIsImmediate cuts access and refresh on ban, and unban does not
restore revoked sessions.
*/
func TestService_BanIsImmediate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	moderator := f.addModerator(t, "mia@example.com")

	session, err := f.service.LoginModerator(ctx, "mia@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.BanModerator(ctx, moderator.ID, "  abuse  "))

	stored, err := f.moderators.FindByID(ctx, moderator.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsBanned())
	assert.Equal(t, "abuse", stored.BannedReason)
	require.NotNil(t, stored.BannedAt)

	_, err = f.resolver.AuthenticateModerator(ctx, session.AccessToken)
	requireCode(t, err, "ACCOUNT_BANNED")

	_, err = f.service.RefreshModeratorSession(ctx, session.RefreshToken)
	requireCode(t, err, "ACCOUNT_BANNED")

	err = f.service.BanModerator(ctx, moderator.ID, "again")
	requireCode(t, err, "BAD_REQUEST")

	require.NoError(t, f.service.UnbanModerator(ctx, moderator.ID))

	stored, err = f.moderators.FindByID(ctx, moderator.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsBanned())
	assert.Nil(t, stored.BannedAt)

	_, err = f.service.RefreshModeratorSession(ctx, session.RefreshToken)
	requireCode(t, err, "SESSION_SUPERSEDED")

	err = f.service.UnbanModerator(ctx, moderator.ID)
	requireCode(t, err, "BAD_REQUEST")
}

/*
TestService_CreateModerator normalizes email and rejects duplicates.
*/
func TestService_CreateModerator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	moderator := f.addModerator(t, "  Mia@Example.com ")
	assert.Equal(t, "mia@example.com", moderator.Email)
	assert.Equal(t, sec.StatusActive, moderator.Status)
	assert.NotEqual(t, testPassword, moderator.PasswordHash)

	_, err := f.service.CreateModerator(ctx, auth.CreateModeratorInput{
		Name:     "Other",
		Email:    "MIA@example.com",
		Password: testPassword,
	})
	requireCode(t, err, "CONFLICT")
}

/*
TestService_ListModerators pages through moderators.
*/
func TestService_ListModerators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		f.addModerator(t, email)
	}

	page, total, err := f.service.ListModerators(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 2)

	page, _, err = f.service.ListModerators(ctx, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
