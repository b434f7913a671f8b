// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/modgate/internal/moderation"
	"github.com/taibuivan/modgate/internal/platform/ctxutil"
	"github.com/taibuivan/modgate/internal/platform/sec"
	"github.com/taibuivan/modgate/internal/ratelimit"
)

// asPrincipal stands in for the authentication middleware.
func asPrincipal(principal *sec.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if principal != nil {
				request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))
			}
			next.ServeHTTP(writer, request)
		})
	}
}

func newRouter(principal *sec.Principal) http.Handler {
	limiter := ratelimit.NewMemory(ratelimit.DefaultPolicy())
	gate := ratelimit.NewGate(limiter, moderation.ActionVerification, nil)
	handler := moderation.NewHandler(moderation.NewService(newFakeUsers()), gate)

	router := chi.NewRouter()
	router.Use(asPrincipal(principal))
	handler.RegisterRoutes(router)
	return router
}

type envelope struct {
	Data   map[string]any `json:"data"`
	Code   string         `json:"code"`
	Reason string         `json:"reason"`
}

func post(t *testing.T, router http.Handler, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var decoded envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder, decoded
}

var admin = &sec.Principal{ID: adminID, Role: sec.RoleAdmin}

/*
TestHandler_VerifyUser grants a badge through the HTTP surface.
*/
func TestHandler_VerifyUser(t *testing.T) {
	router := newRouter(admin)

	recorder, body := post(t, router, "/verify-user",
		`{"userId":"`+activeUserID+`","verificationType":"official","reason":"press office"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, body.Data["is_verified"])
	assert.Equal(t, "official", body.Data["verification_type"])

	recorder, body = post(t, router, "/revoke-verification", `{"userId":"`+activeUserID+`","reason":"expired"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, false, body.Data["is_verified"])
}

/*
TestHandler_VerifyUser_Validation rejects bad payloads and maps service errors.
*/
func TestHandler_VerifyUser_Validation(t *testing.T) {
	router := newRouter(admin)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing_user", `{"verificationType":"official","reason":"r"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad_type", `{"userId":"` + activeUserID + `","verificationType":"celebrity","reason":"r"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"blank_reason", `{"userId":"` + activeUserID + `","verificationType":"official","reason":"  "}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown_user", `{"userId":"` + missingUserID + `","verificationType":"official","reason":"r"}`, http.StatusNotFound, "NOT_FOUND"},
		{"suspended_user", `{"userId":"` + suspendedUserID + `","verificationType":"official","reason":"r"}`, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, body := post(t, router, "/verify-user", tt.body)
			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

/*
TestHandler_Throttled counts invalid attempts and rejects the sixth call in a minute.
*/
func TestHandler_Throttled(t *testing.T) {
	router := newRouter(admin)

	for i := 0; i < 5; i++ {
		recorder, _ := post(t, router, "/verify-user", `{"verificationType":"nope"}`)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	}

	recorder, body := post(t, router, "/verify-user",
		`{"userId":"`+activeUserID+`","verificationType":"official","reason":"r"}`)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "THROTTLED", body.Code)
	assert.Equal(t, "burst", body.Reason)
	assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
}

/*
TestHandler_RoleGate keeps moderators and anonymous callers out.
*/
func TestHandler_RoleGate(t *testing.T) {
	recorder, _ := post(t, newRouter(&sec.Principal{ID: "m", Role: sec.RoleModerator}), "/verify-user", `{}`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder, _ = post(t, newRouter(nil), "/verify-user", `{}`)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
