// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/modgate/internal/platform/apperr"
	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/internal/platform/ctxutil"
	"github.com/taibuivan/modgate/internal/platform/dberr"
	"github.com/taibuivan/modgate/internal/platform/metrics"
	"github.com/taibuivan/modgate/internal/platform/sec"
)

// # Resolution Result

// Kind tags the variant held by a [Result].
type Kind int

const (
	KindFailure Kind = iota
	KindAdmin
	KindModerator
)

// Credentials are the raw credential forms a request may carry.
type Credentials struct {
	// AdminToken is the value of the admin session cookie.
	AdminToken string

	// Authorization is the raw Authorization header.
	Authorization string
}

// Result is either an admin principal, a moderator principal or a failure.
type Result struct {
	Kind      Kind
	Principal *sec.Principal
	Err       error
}

func failure(err error) Result {
	return Result{Kind: KindFailure, Err: err}
}

// # Resolver

// Resolver turns request credentials into a live principal.
//
// The admin cookie takes precedence over the bearer header. When the cookie
// is present its verdict is final: a request is never re-interpreted as a
// moderator because the admin credential failed.
type Resolver struct {
	issuer        *sec.TokenIssuer
	admins        AdminRepository
	moderators    ModeratorRepository
	metrics       *metrics.Metrics
	lookupTimeout time.Duration
}

// NewResolver constructs a Resolver. metrics may be nil.
func NewResolver(issuer *sec.TokenIssuer, admins AdminRepository, moderators ModeratorRepository, m *metrics.Metrics) *Resolver {
	return &Resolver{
		issuer:        issuer,
		admins:        admins,
		moderators:    moderators,
		metrics:       m,
		lookupTimeout: constants.PrincipalLookupTimeout,
	}
}

/*
Resolve applies the precedence rules to the given credentials.

 1. Admin cookie present: authenticate as admin or fail.
 2. Else bearer token present: authenticate as moderator or fail.
 3. Else fail with Unauthenticated.

A malformed Authorization header counts as absent.
*/
func (resolver *Resolver) Resolve(ctx context.Context, credentials Credentials) Result {
	if credentials.AdminToken != "" {
		principal, err := resolver.AuthenticateAdmin(ctx, credentials.AdminToken)
		if err != nil {
			return failure(err)
		}
		return Result{Kind: KindAdmin, Principal: principal}
	}

	if bearer, ok := BearerToken(credentials.Authorization); ok {
		principal, err := resolver.AuthenticateModerator(ctx, bearer)
		if err != nil {
			return failure(err)
		}
		return Result{Kind: KindModerator, Principal: principal}
	}

	resolver.metrics.ObserveAuthFailure("missing_credentials")
	return failure(apperr.Unauthorized("Not authenticated"))
}

// Authenticate adapts [Resolver.Resolve] to the middleware contract.
func (resolver *Resolver) Authenticate(ctx context.Context, adminToken, authorization string) (*sec.Principal, error) {
	result := resolver.Resolve(ctx, Credentials{AdminToken: adminToken, Authorization: authorization})
	return result.Principal, result.Err
}

/*
AuthenticateAdmin verifies an admin session token and re-fetches the account.

The role comes from the live record. Name and email embedded in the token are
display data only and are replaced by the record's values.

Returns:
  - *sec.Principal: The live admin principal
  - error: apperr.Unauthorized on any token or lookup failure
*/
func (resolver *Resolver) AuthenticateAdmin(ctx context.Context, token string) (*sec.Principal, error) {
	claims, err := resolver.issuer.Verify(token, sec.ContextAdmin)
	if err != nil {
		return nil, resolver.tokenFailure(ctx, err)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, resolver.lookupTimeout)
	defer cancel()

	admin, err := resolver.admins.FindByID(lookupCtx, claims.Subject)
	if err != nil {
		return nil, resolver.lookupFailure(ctx, claims.Subject, err)
	}

	return admin.Principal(), nil
}

/*
AuthenticateModerator verifies a moderator access token and re-fetches the account.

The live status is checked on every call, which is what makes a ban effective
before the access token expires.

Returns:
  - *sec.Principal: The live moderator principal
  - error: apperr.Unauthorized, apperr.Forbidden (wrong role) or ACCOUNT_BANNED
*/
func (resolver *Resolver) AuthenticateModerator(ctx context.Context, token string) (*sec.Principal, error) {
	claims, err := resolver.issuer.Verify(token, sec.ContextModeratorAccess)
	if err != nil {
		return nil, resolver.tokenFailure(ctx, err)
	}

	if claims.Role != string(sec.RoleModerator) {
		resolver.metrics.ObserveAuthFailure("wrong_role")
		return nil, apperr.Forbidden("Moderator access required")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, resolver.lookupTimeout)
	defer cancel()

	moderator, err := resolver.moderators.FindByID(lookupCtx, claims.Subject)
	if err != nil {
		return nil, resolver.lookupFailure(ctx, claims.Subject, err)
	}

	if moderator.IsBanned() {
		resolver.metrics.ObserveAuthFailure("banned")
		return nil, apperr.Banned("Your moderator account has been banned.")
	}

	return moderator.Principal(), nil
}

// # Helpers

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	prefixLength := len(constants.BearerPrefix)
	if len(header) <= prefixLength || !strings.EqualFold(header[:prefixLength], constants.BearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[prefixLength:])
	return token, token != ""
}

// tokenFailure maps a verification error to Unauthenticated, keeping the
// expired and invalid cases apart in metrics and logs.
func (resolver *Resolver) tokenFailure(ctx context.Context, err error) error {
	reason := "invalid_token"
	if errors.Is(err, sec.ErrTokenExpired) {
		reason = "expired_token"
	}

	resolver.metrics.ObserveAuthFailure(reason)
	ctxutil.GetLogger(ctx).DebugContext(ctx, "auth_token_rejected",
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)

	return apperr.Unauthorized("Invalid or expired token").WithCause(err)
}

// lookupFailure maps an absent account or a failed lookup to Unauthenticated.
func (resolver *Resolver) lookupFailure(ctx context.Context, subject string, err error) error {
	if dberr.IsNotFound(err) {
		resolver.metrics.ObserveAuthFailure("unknown_principal")
		return apperr.Unauthorized("Not authenticated")
	}

	resolver.metrics.ObserveAuthFailure("lookup_failed")
	ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_principal_lookup_failed",
		slog.String("subject", subject),
		slog.String("error", err.Error()),
	)

	return apperr.Unauthorized("Not authenticated").WithCause(err)
}
