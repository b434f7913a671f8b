// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"

	"github.com/taibuivan/modgate/internal/platform/apperr"
	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/internal/platform/ctxutil"
	"github.com/taibuivan/modgate/internal/platform/respond"
	"github.com/taibuivan/modgate/internal/platform/sec"
)

// Authenticator resolves request credentials into a live principal.
//
// # Why an interface?
//
// Defining Authenticator here decouples the middleware from the `auth`
// resolver implementation, allowing us to inject fakes during unit testing.
type Authenticator interface {
	Authenticate(ctx context.Context, adminToken, authorization string) (*sec.Principal, error)
}

// Authenticate resolves the caller from the admin cookie or the bearer header.
//
// # Flow
//  1. Read the 'admin_token' cookie and the 'Authorization' header.
//  2. Delegate to the [Authenticator], which prefers the cookie when present.
//  3. On failure, abort with the resolver's error (401 or 403).
//  4. Inject [*sec.Principal] into the request context for downstream use.
//
// Unlike the optional authentication of public APIs, every route mounted
// behind this middleware requires a principal.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Credential Extraction ──────────────────────────────────────
			adminToken := ""
			if cookie, err := request.Cookie(constants.AdminTokenCookieName); err == nil {
				adminToken = cookie.Value
			}
			authorization := request.Header.Get(constants.HeaderAuthorization)

			// ── 2. Resolution ─────────────────────────────────────────────────
			principal, err := authenticator.Authenticate(request.Context(), adminToken, authorization)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			if sink, ok := writer.(principalSink); ok {
				sink.setPrincipal(principal.ID, string(principal.Role))
			}

			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireRole blocks requests if the principal's role is below minimum.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. A missing principal
// yields 401, an insufficient role yields 403.
func RequireRole(minimum sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !principal.Role.AtLeast(minimum) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
