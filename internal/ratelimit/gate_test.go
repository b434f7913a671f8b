// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/modgate/internal/platform/apperr"
	"github.com/taibuivan/modgate/internal/platform/metrics"
	"github.com/taibuivan/modgate/internal/ratelimit"
)

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, string, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis unavailable")
}

/*
TestGate_Throttled maps a rejection to a THROTTLED error with reason and retry hint.
*/
func TestGate_Throttled(t *testing.T) {
	clock := newClock()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	gate := ratelimit.NewGate(ratelimit.NewMemory(ratelimit.DefaultPolicy(), ratelimit.WithClock(clock.Now)), action, m)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, gate.Allow(ctx, "admin-1", "user-1"))
	}
	clock.Advance(1500 * time.Millisecond)

	appErr := apperr.As(gate.Allow(ctx, "admin-1", "user-1"))
	require.NotNil(t, appErr)
	assert.Equal(t, "THROTTLED", appErr.Code)
	assert.Equal(t, "burst", appErr.Reason)
	assert.Equal(t, 429, appErr.HTTPStatus)
	assert.Equal(t, 59, appErr.RetryAfter)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThrottledTotal.WithLabelValues(action, "burst")))
}

/*
TestGate_BackendFailure rejects the call when the limiter cannot answer.
*/
func TestGate_BackendFailure(t *testing.T) {
	gate := ratelimit.NewGate(failingLimiter{}, action, nil)

	appErr := apperr.As(gate.Allow(context.Background(), "admin-1", "user-1"))
	require.NotNil(t, appErr)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
}

/*
TestGate_AnonymousActor refuses to meter calls without an actor.
*/
func TestGate_AnonymousActor(t *testing.T) {
	gate := ratelimit.NewGate(failingLimiter{}, action, nil)

	appErr := apperr.As(gate.Allow(context.Background(), "", "user-1"))
	require.NotNil(t, appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}
