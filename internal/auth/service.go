// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements authentication for the two principal kinds of the
admin API and the moderator account lifecycle.

Administrators hold one long-lived session token in a cookie. Moderators hold
a short-lived access token plus a revocable refresh token tracked in a ledger.

Architecture:

  - Resolver: Unified authenticator consulted by every protected route.
  - Ledger: Set of accepted refresh tokens per moderator (the kill-switch).
  - Service: Login, refresh, logout, revocation and moderator management.
  - Repository: Abstracted interfaces for MongoDB (accounts) and Redis (ledger).
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/modgate/internal/platform/apperr"
	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/internal/platform/ctxutil"
	"github.com/taibuivan/modgate/internal/platform/dberr"
	"github.com/taibuivan/modgate/internal/platform/metrics"
	"github.com/taibuivan/modgate/internal/platform/sec"
	"github.com/taibuivan/modgate/pkg/pagination"
)

// Login kinds and outcomes used as metric labels.
const (
	kindAdmin     = "admin"
	kindModerator = "moderator"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeBanned  = "banned"
)

// Service implements the session and account use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to credential checks,
// ledger handling or ban semantics must be reviewed with the resolver.
type Service struct {
	admins     AdminRepository
	moderators ModeratorRepository
	ledger     *Ledger
	issuer     *sec.TokenIssuer
	metrics    *metrics.Metrics
	now        func() time.Time

	lookupTimeout  time.Duration
	verifyPassword func(plain, storedHash string) (bool, error)
}

// NewService constructs a new [Service]. metrics may be nil.
func NewService(
	admins AdminRepository,
	moderators ModeratorRepository,
	ledger *Ledger,
	issuer *sec.TokenIssuer,
	m *metrics.Metrics,
) *Service {
	return &Service{
		admins:     admins,
		moderators: moderators,
		ledger:     ledger,
		issuer:     issuer,
		metrics:    m,
		now:        time.Now,

		lookupTimeout:  constants.PrincipalLookupTimeout,
		verifyPassword: sec.VerifyPassword,
	}
}

// # Session Types

// AdminSession is an established administrator session.
type AdminSession struct {
	Token     string
	ExpiresAt time.Time
	Principal *sec.Principal
}

// ModeratorSession is an established moderator session.
type ModeratorSession struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Principal        *sec.Principal
}

// AccessGrant is a freshly minted moderator access token.
type AccessGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

// # Administrator Sessions

/*
LoginAdmin verifies administrator credentials and issues a 24h session token.

Returns:
  - *AdminSession: Token and principal
  - error: INVALID_CREDENTIALS (never says which half was wrong) or storage errors
*/
func (service *Service) LoginAdmin(ctx context.Context, email, password string) (*AdminSession, error) {
	admin, err := service.admins.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if dberr.IsNotFound(err) {
			service.burnPasswordCheck(password)
			service.metrics.ObserveLogin(kindAdmin, outcomeFailure)
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	if !service.passwordMatches(ctx, password, admin.PasswordHash, admin.ID) {
		service.metrics.ObserveLogin(kindAdmin, outcomeFailure)
		return nil, apperr.InvalidCredentials()
	}

	principal := admin.Principal()
	if !principal.Role.IsAdmin() {
		service.metrics.ObserveLogin(kindAdmin, outcomeFailure)
		return nil, apperr.InvalidCredentials()
	}

	token, expiresAt, err := service.issuer.IssueAdminToken(principal)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	service.metrics.ObserveLogin(kindAdmin, outcomeSuccess)
	ctxutil.GetLogger(ctx).InfoContext(ctx, "admin_login_succeeded", slog.String("admin_id", admin.ID))

	return &AdminSession{Token: token, ExpiresAt: expiresAt, Principal: principal}, nil
}

// # Moderator Sessions

/*
LoginModerator verifies moderator credentials and opens a new device session.

The password is checked before the ban status, so account state is only
revealed to callers who know the secret. The refresh token is recorded in the
ledger before the session is returned.

Returns:
  - *ModeratorSession: Access token, refresh token and principal
  - error: INVALID_CREDENTIALS, ACCOUNT_BANNED or storage errors
*/
func (service *Service) LoginModerator(ctx context.Context, email, password string) (*ModeratorSession, error) {
	moderator, err := service.moderators.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if dberr.IsNotFound(err) {
			service.burnPasswordCheck(password)
			service.metrics.ObserveLogin(kindModerator, outcomeFailure)
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	if !service.passwordMatches(ctx, password, moderator.PasswordHash, moderator.ID) {
		service.metrics.ObserveLogin(kindModerator, outcomeFailure)
		return nil, apperr.InvalidCredentials()
	}

	if moderator.IsBanned() {
		service.metrics.ObserveLogin(kindModerator, outcomeBanned)
		return nil, apperr.Banned("Your moderator account has been banned. Contact admin.")
	}

	principal := moderator.Principal()

	accessToken, accessExpiresAt, err := service.issuer.IssueModeratorAccessToken(principal)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, refreshExpiresAt, err := service.issuer.IssueModeratorRefreshToken(principal)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := service.ledger.Add(ctx, moderator.ID, refreshToken); err != nil {
		return nil, apperr.Internal(err)
	}

	service.metrics.ObserveLogin(kindModerator, outcomeSuccess)
	ctxutil.GetLogger(ctx).InfoContext(ctx, "moderator_login_succeeded", slog.String("moderator_id", moderator.ID))

	return &ModeratorSession{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
		Principal:        principal,
	}, nil
}

/*
RefreshModeratorSession exchanges a refresh token for a new access token.

The refresh token itself is not rotated and stays valid until it expires, is
logged out, or is revoked.

Returns:
  - *AccessGrant: New access token
  - error: UNAUTHORIZED, ACCOUNT_BANNED or SESSION_SUPERSEDED
*/
func (service *Service) RefreshModeratorSession(ctx context.Context, refreshToken string) (*AccessGrant, error) {

	// 1. Presence
	if refreshToken == "" {
		service.metrics.ObserveAuthFailure("missing_credentials")
		return nil, apperr.Unauthorized("No refresh token")
	}

	// 2. Signature and expiry under the refresh context
	claims, err := service.issuer.Verify(refreshToken, sec.ContextModeratorRefresh)
	if err != nil {
		service.metrics.ObserveAuthFailure("invalid_refresh_token")
		return nil, apperr.Unauthorized("Invalid refresh token").WithCause(err)
	}

	// 3. Live account state
	lookupCtx, cancel := context.WithTimeout(ctx, service.lookupTimeout)
	moderator, err := service.moderators.FindByID(lookupCtx, claims.Subject)
	cancel()
	if err != nil {
		service.metrics.ObserveAuthFailure("unknown_principal")
		if !dberr.IsNotFound(err) {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "moderator_refresh_lookup_failed",
				slog.String("moderator_id", claims.Subject),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperr.Unauthorized("Moderator not found").WithCause(err)
	}

	if moderator.IsBanned() {
		service.metrics.ObserveAuthFailure("banned")
		return nil, apperr.Banned("Your moderator account has been banned.")
	}

	// 4. Kill-switch
	accepted, err := service.ledger.Contains(ctx, moderator.ID, refreshToken)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !accepted {
		service.metrics.ObserveAuthFailure("session_superseded")
		return nil, apperr.SessionSuperseded()
	}

	// 5. New access token
	accessToken, expiresAt, err := service.issuer.IssueModeratorAccessToken(moderator.Principal())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &AccessGrant{AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

/*
LogoutModerator removes the presented refresh token from the ledger.

Other devices keep their sessions. The call is idempotent: absent, forged or
already removed tokens are ignored. Expired but genuine tokens are still
removed.
*/
func (service *Service) LogoutModerator(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := service.issuer.VerifyIgnoringExpiry(refreshToken, sec.ContextModeratorRefresh)
	if err != nil {
		ctxutil.GetLogger(ctx).DebugContext(ctx, "moderator_logout_ignored_token", slog.String("error", err.Error()))
		return nil
	}

	if err := service.ledger.Remove(ctx, claims.Subject, refreshToken); err != nil {
		if dberr.IsNotFound(err) {
			return nil
		}
		return apperr.Internal(err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "moderator_logged_out", slog.String("moderator_id", claims.Subject))
	return nil
}

/*
RevokeAllModeratorSessions clears the moderator's ledger.

Every refresh token issued so far stops working immediately. Access tokens
already handed out stay valid until their short expiry.
*/
func (service *Service) RevokeAllModeratorSessions(ctx context.Context, moderatorID string) error {
	if _, err := service.findModerator(ctx, moderatorID); err != nil {
		return err
	}

	if err := service.ledger.Clear(ctx, moderatorID); err != nil {
		return apperr.Internal(err)
	}

	service.metrics.ObserveSessionsRevoked("revoke_all")
	ctxutil.GetLogger(ctx).InfoContext(ctx, "moderator_sessions_revoked", slog.String("moderator_id", moderatorID))
	return nil
}

// # Moderator Management

// CreateModeratorInput holds the data required to enroll a moderator.
type CreateModeratorInput struct {
	Name     string
	Email    string
	Password string
}

/*
CreateModerator hashes the password and persists a new active moderator.

Returns:
  - *Moderator: Created entity
  - error: CONFLICT when the email is taken, or storage errors
*/
func (service *Service) CreateModerator(ctx context.Context, input CreateModeratorInput) (*Moderator, error) {
	email := normalizeEmail(input.Email)

	// Verify email uniqueness. The unique index still guards concurrent inserts.
	if _, err := service.moderators.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Moderator with this email already exists")
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	moderator := &Moderator{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Status:       sec.StatusActive,
		CreatedAt:    service.now().UTC(),
	}

	if err := service.moderators.Create(ctx, moderator); err != nil {
		if errors.Is(err, dberr.ErrDuplicate) {
			return nil, apperr.Conflict("Moderator with this email already exists")
		}
		return nil, err
	}

	return moderator, nil
}

// ListModerators returns one page of moderators and the total count.
func (service *Service) ListModerators(ctx context.Context, params pagination.Params) ([]*Moderator, int, error) {
	return service.moderators.List(ctx, params.Offset(), params.Limit)
}

/*
BanModerator marks the moderator as banned and clears the ledger.

The status is written first: from that moment the resolver rejects every
access token and refresh token of the moderator, even if clearing the ledger
fails afterwards.
*/
func (service *Service) BanModerator(ctx context.Context, moderatorID, reason string) error {
	moderator, err := service.findModerator(ctx, moderatorID)
	if err != nil {
		return err
	}

	if moderator.IsBanned() {
		return apperr.BadRequest("Moderator already banned")
	}

	if err := service.moderators.SetBanned(ctx, moderatorID, service.now().UTC(), strings.TrimSpace(reason)); err != nil {
		return err
	}

	if err := service.ledger.Clear(ctx, moderatorID); err != nil {
		return apperr.Internal(fmt.Errorf("ban applied but ledger not cleared: %w", err))
	}

	service.metrics.ObserveSessionsRevoked("ban")
	ctxutil.GetLogger(ctx).InfoContext(ctx, "moderator_banned", slog.String("moderator_id", moderatorID))
	return nil
}

// UnbanModerator restores a banned moderator. Revoked sessions stay revoked.
func (service *Service) UnbanModerator(ctx context.Context, moderatorID string) error {
	moderator, err := service.findModerator(ctx, moderatorID)
	if err != nil {
		return err
	}

	if !moderator.IsBanned() {
		return apperr.BadRequest("Moderator is not banned")
	}

	if err := service.moderators.ClearBanned(ctx, moderatorID); err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "moderator_unbanned", slog.String("moderator_id", moderatorID))
	return nil
}

// # Helpers

func (service *Service) findModerator(ctx context.Context, moderatorID string) (*Moderator, error) {
	moderator, err := service.moderators.FindByID(ctx, moderatorID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Moderator")
		}
		return nil, err
	}
	return moderator, nil
}

// passwordMatches compares a password with a stored hash. A corrupt hash is
// logged as a data-integrity problem and treated as a mismatch.
func (service *Service) passwordMatches(ctx context.Context, password, storedHash, accountID string) bool {
	ok, err := service.verifyPassword(password, storedHash)
	if err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "auth_stored_hash_malformed",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return ok
}

// burnPasswordCheck spends one bcrypt comparison on an unknown account, so the
// response time does not reveal whether the email exists.
func (service *Service) burnPasswordCheck(password string) {
	_, _ = service.verifyPassword(password, sec.DummyPasswordHash())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
