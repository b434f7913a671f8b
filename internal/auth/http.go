// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/internal/platform/middleware"
	requestutil "github.com/taibuivan/modgate/internal/platform/request"
	"github.com/taibuivan/modgate/internal/platform/respond"
	"github.com/taibuivan/modgate/internal/platform/sec"
	"github.com/taibuivan/modgate/internal/platform/validate"
	"github.com/taibuivan/modgate/pkg/pagination"
)

// Handler implements the session and moderator management HTTP endpoints.
//
// # Scope
//
// Public routes establish and tear down sessions. Protected routes expect the
// unified [middleware.Authenticate] to have run and attach role gates.
type Handler struct {
	authService *Service
	secure      bool
}

// NewHandler constructs a new [Handler].
//
// secure switches the cookies to production mode (Secure, and SameSite=None
// for the cross-site admin dashboard).
func NewHandler(service *Service, secure bool) *Handler {
	return &Handler{authService: service, secure: secure}
}

// RegisterPublic mounts the credential exchange routes.
//
// # Endpoints
//   - POST /login             : Admin login, sets the admin cookie.
//   - POST /logout            : Admin logout, clears the admin cookie.
//   - POST /moderator/login   : Moderator login, returns an access token.
//   - POST /moderator/refresh : Exchanges the refresh cookie for an access token.
//   - POST /moderator/logout  : Ends the current moderator device session.
func (handler *Handler) RegisterPublic(router chi.Router) {
	router.Post("/login", handler.loginAdmin)
	router.Post("/logout", handler.logoutAdmin)

	router.Post("/moderator/login", handler.loginModerator)
	router.Post("/moderator/refresh", handler.refreshModerator)
	router.Post("/moderator/logout", handler.logoutModerator)
}

// RegisterProtected mounts routes that require an authenticated principal.
func (handler *Handler) RegisterProtected(router chi.Router) {
	router.Get("/me", handler.me)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/moderators", handler.createModerator)
		admin.Get("/moderators", handler.listModerators)
		admin.Post("/moderators/{id}/ban", handler.banModerator)
		admin.Post("/moderators/{id}/unban", handler.unbanModerator)
		admin.Post("/moderators/{id}/revoke-sessions", handler.revokeSessions)
	})
}

// # Request Payloads

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (input credentialsRequest) validate() error {
	return (&validate.Validator{}).
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Err()
}

type createModeratorRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type banRequest struct {
	Reason string `json:"reason"`
}

// # Administrator Sessions

// loginAdmin handles POST /login.
//
// # Returns
//   - 200 OK with the admin profile and the admin_token cookie.
//   - 400 Bad Request when email or password is missing.
//   - 401 Unauthorized for bad credentials.
func (handler *Handler) loginAdmin(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.LoginAdmin(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, handler.adminCookie(session.Token, session.ExpiresAt))

	respond.OK(writer, map[string]any{
		FieldUser: session.Principal,
	})
}

// logoutAdmin handles POST /logout. The admin token is stateless, so logging
// out only removes the cookie.
func (handler *Handler) logoutAdmin(writer http.ResponseWriter, request *http.Request) {
	http.SetCookie(writer, handler.expiredCookie(constants.AdminTokenCookieName, constants.AdminTokenCookiePath, handler.adminSameSite()))

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "Admin logged out",
	})
}

// me handles GET /me and returns the resolved principal.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldUser: principal})
}

// # Moderator Sessions

// loginModerator handles POST /moderator/login.
//
// # Returns
//   - 200 OK with the access token, the moderator and the refresh cookie.
//   - 401 Unauthorized for bad credentials.
//   - 403 Forbidden (ACCOUNT_BANNED) when the moderator is banned.
func (handler *Handler) loginModerator(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.LoginModerator(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, handler.refreshCookie(session.RefreshToken, session.RefreshExpiresAt))

	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   TokenTypeBearer,
		FieldExpiresIn:   int(sec.ModeratorAccessTokenTTL.Seconds()),
		FieldModerator:   session.Principal,
	})
}

// refreshModerator handles POST /moderator/refresh.
func (handler *Handler) refreshModerator(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)

	grant, err := handler.authService.RefreshModeratorSession(request.Context(), refreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken: grant.AccessToken,
		FieldTokenType:   TokenTypeBearer,
		FieldExpiresIn:   int(sec.ModeratorAccessTokenTTL.Seconds()),
	})
}

// logoutModerator handles POST /moderator/logout. The refresh cookie is
// cleared whatever the ledger outcome.
func (handler *Handler) logoutModerator(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)

	http.SetCookie(writer, handler.expiredCookie(constants.RefreshTokenCookieName, constants.RefreshTokenCookiePath, http.SameSiteStrictMode))

	if err := handler.authService.LogoutModerator(request.Context(), refreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "Moderator logged out",
	})
}

// # Moderator Management

// createModerator handles POST /moderators.
//
// # Returns
//   - 201 Created with the moderator.
//   - 400 Bad Request on validation failure.
//   - 409 Conflict when the email is already registered.
func (handler *Handler) createModerator(writer http.ResponseWriter, request *http.Request) {
	var input createModeratorRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := (&validate.Validator{}).
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 100).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	moderator, err := handler.authService.CreateModerator(request.Context(), CreateModeratorInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, moderator)
}

// listModerators handles GET /moderators?page=&limit=.
func (handler *Handler) listModerators(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	moderators, total, err := handler.authService.ListModerators(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, moderators, pagination.NewMeta(params.Page, params.Limit, total))
}

// banModerator handles POST /moderators/{id}/ban with an optional reason.
func (handler *Handler) banModerator(writer http.ResponseWriter, request *http.Request) {
	moderatorID, ok := handler.moderatorID(writer, request)
	if !ok {
		return
	}

	var input banRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	if err := (&validate.Validator{}).MaxLen(FieldReason, input.Reason, 500).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.BanModerator(request.Context(), moderatorID, input.Reason); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "Moderator banned and logged out",
	})
}

// unbanModerator handles POST /moderators/{id}/unban.
func (handler *Handler) unbanModerator(writer http.ResponseWriter, request *http.Request) {
	moderatorID, ok := handler.moderatorID(writer, request)
	if !ok {
		return
	}

	if err := handler.authService.UnbanModerator(request.Context(), moderatorID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "Moderator unbanned",
	})
}

// revokeSessions handles POST /moderators/{id}/revoke-sessions.
func (handler *Handler) revokeSessions(writer http.ResponseWriter, request *http.Request) {
	moderatorID, ok := handler.moderatorID(writer, request)
	if !ok {
		return
	}

	if err := handler.authService.RevokeAllModeratorSessions(request.Context(), moderatorID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "All moderator sessions revoked",
	})
}

// # Helpers

// moderatorID reads and validates the {id} path parameter. On failure the
// error response is already written.
func (handler *Handler) moderatorID(writer http.ResponseWriter, request *http.Request) (string, bool) {
	moderatorID := requestutil.ID(request, "id")
	if err := (&validate.Validator{}).ObjectID("id", moderatorID).Err(); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}
	return moderatorID, true
}

func (handler *Handler) adminSameSite() http.SameSite {
	if handler.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (handler *Handler) adminCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     constants.AdminTokenCookieName,
		Value:    token,
		Path:     constants.AdminTokenCookiePath,
		Expires:  expiresAt,
		MaxAge:   int(sec.AdminTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   handler.secure,
		SameSite: handler.adminSameSite(),
	}
}

func (handler *Handler) refreshCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		MaxAge:   int(sec.ModeratorRefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   handler.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (handler *Handler) expiredCookie(name, path string, sameSite http.SameSite) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   handler.secure,
		SameSite: sameSite,
	}
}
