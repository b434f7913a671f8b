// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/modgate/internal/platform/middleware"
	requestutil "github.com/taibuivan/modgate/internal/platform/request"
	"github.com/taibuivan/modgate/internal/platform/respond"
	"github.com/taibuivan/modgate/internal/platform/sec"
	"github.com/taibuivan/modgate/internal/platform/validate"
	"github.com/taibuivan/modgate/internal/ratelimit"
)

// Handler implements the verification HTTP endpoints.
type Handler struct {
	service *Service
	gate    *ratelimit.Gate
}

// NewHandler constructs a new [Handler]. gate throttles every attempt.
func NewHandler(service *Service, gate *ratelimit.Gate) *Handler {
	return &Handler{service: service, gate: gate}
}

// RegisterRoutes mounts the verification routes behind the admin role gate.
//
// # Endpoints
//   - POST /verify-user         : Grants a verification badge.
//   - POST /revoke-verification : Removes a verification badge.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/verify-user", handler.verifyUser)
		admin.Post("/revoke-verification", handler.revokeVerification)
	})
}

type verifyRequest struct {
	UserID           string `json:"userId"`
	VerificationType string `json:"verificationType"`
	Reason           string `json:"reason"`
}

type revokeRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// verifyUser handles POST /verify-user.
//
// # Returns
//   - 200 OK with the verification state.
//   - 400 Bad Request on validation failure or for a non-active user.
//   - 404 Not Found when the user does not exist.
//   - 429 Too Many Requests (THROTTLED) when a limiter window is exhausted.
func (handler *Handler) verifyUser(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 1. Throttle ───────────────────────────────────────────────────────
	if !handler.throttle(writer, request, input.UserID) {
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────
	err := (&validate.Validator{}).
		Required(FieldUserID, input.UserID).
		ObjectID(FieldUserID, input.UserID).
		OneOf(FieldVerificationType, input.VerificationType, VerificationTypes...).
		Required(FieldReason, input.Reason).
		MaxLen(FieldReason, input.Reason, 500).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.VerifyUser(request.Context(), principal.ID, VerifyInput{
		UserID:           input.UserID,
		VerificationType: input.VerificationType,
		Reason:           strings.TrimSpace(input.Reason),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"success":           true,
		"user_id":           user.ID,
		"is_verified":       user.IsVerified,
		"verification_type": user.VerificationType,
		"verified_at":       user.VerifiedAt,
	})
}

// revokeVerification handles POST /revoke-verification.
func (handler *Handler) revokeVerification(writer http.ResponseWriter, request *http.Request) {
	var input revokeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !handler.throttle(writer, request, input.UserID) {
		return
	}

	err := (&validate.Validator{}).
		Required(FieldUserID, input.UserID).
		ObjectID(FieldUserID, input.UserID).
		Required(FieldReason, input.Reason).
		MaxLen(FieldReason, input.Reason, 500).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.RevokeVerification(request.Context(), principal.ID, input.UserID, input.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"success":     true,
		"user_id":     user.ID,
		"is_verified": user.IsVerified,
	})
}

// throttle records one attempt for the caller. On rejection the error
// response is already written.
func (handler *Handler) throttle(writer http.ResponseWriter, request *http.Request, targetID string) bool {
	actorID := ""
	if principal := requestutil.Principal(request); principal != nil {
		actorID = principal.ID
	}

	if err := handler.gate.Allow(request.Context(), actorID, strings.TrimSpace(targetID)); err != nil {
		respond.Error(writer, request, err)
		return false
	}
	return true
}
