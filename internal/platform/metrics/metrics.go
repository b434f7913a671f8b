// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the admin API.

Collectors are registered on an injected [prometheus.Registry] so tests can use
a private registry. Every recording method is safe on a nil [*Metrics], which
lets domain services run without instrumentation in unit tests.

Families:

  - HTTP: request count and latency per chi route pattern.
  - Auth: login outcomes and authentication failures by reason.
  - Throttling: sliding-window rejections by action and window.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modgate"

// Metrics holds all Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	LoginsTotal       *prometheus.CounterVec
	AuthFailuresTotal *prometheus.CounterVec
	SessionsRevoked   *prometheus.CounterVec

	// Throttling metrics
	ThrottledTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by principal kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Rejected authentications and refreshes by reason",
			},
			[]string{"reason"},
		),
		SessionsRevoked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moderator_sessions_revoked_total",
				Help:      "Moderator ledger clears by trigger",
			},
			[]string{"trigger"},
		),

		ThrottledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "throttled_total",
				Help:      "Sensitive actions rejected by a sliding window",
			},
			[]string{"action", "window"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.AuthFailuresTotal,
		m.SessionsRevoked,
		m.ThrottledTotal,
	)

	return m
}

// # Recording

// ObserveLogin counts a login attempt. kind is "admin" or "moderator".
func (m *Metrics) ObserveLogin(kind, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveAuthFailure counts a rejected authentication or refresh.
func (m *Metrics) ObserveAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveSessionsRevoked counts a ledger clear.
func (m *Metrics) ObserveSessionsRevoked(trigger string) {
	if m == nil {
		return
	}
	m.SessionsRevoked.WithLabelValues(trigger).Inc()
}

// ObserveThrottled counts a sliding-window rejection.
func (m *Metrics) ObserveThrottled(action, window string) {
	if m == nil {
		return
	}
	m.ThrottledTotal.WithLabelValues(action, window).Inc()
}

// # HTTP

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP requests.
//
// The route label is the chi pattern (e.g. /api/admin/moderators/{id}/ban), so
// path parameters never inflate label cardinality.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if routeContext := chi.RouteContext(r.Context()); routeContext != nil {
				if pattern := routeContext.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
