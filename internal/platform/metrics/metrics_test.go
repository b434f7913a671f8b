// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/modgate/internal/platform/metrics"
)

/*
TestMetrics_Recording verifies the domain counters.
*/
func TestMetrics_Recording(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	m.ObserveLogin("moderator", "success")
	m.ObserveLogin("moderator", "success")
	m.ObserveAuthFailure("banned")
	m.ObserveThrottled("verification", "burst")
	m.ObserveSessionsRevoked("ban")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("moderator", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("banned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThrottledTotal.WithLabelValues("verification", "burst")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsRevoked.WithLabelValues("ban")))
}

/*
TestMetrics_NilSafe ensures a nil collector set can be passed to services.
*/
func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveLogin("admin", "failure")
		m.ObserveAuthFailure("invalid_token")
		m.ObserveThrottled("verification", "hourly")
		m.ObserveSessionsRevoked("revoke_all")
	})
}

/*
TestMetrics_Middleware labels requests by route pattern and exposes them.
*/
func TestMetrics_Middleware(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	router := chi.NewRouter()
	router.Use(m.Middleware())
	router.Post("/moderators/{id}/ban", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Handle("/metrics", m.Handler())

	request := httptest.NewRequest(http.MethodPost, "/moderators/abc/ban", nil)
	router.ServeHTTP(httptest.NewRecorder(), request)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/moderators/{id}/ban", "204")))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "modgate_http_requests_total")
}
