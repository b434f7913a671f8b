// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/taibuivan/modgate/internal/platform/apperr"
	"github.com/taibuivan/modgate/internal/platform/ctxutil"
	"github.com/taibuivan/modgate/internal/platform/metrics"
)

var windowMessages = map[Window]string{
	WindowHourly:        "Rate limit exceeded. Try again later.",
	WindowBurst:         "Too many verification actions. Slow down.",
	WindowUniqueTargets: "Verification limit reached. Try again later.",
}

// Gate binds a [Limiter] to one named action and turns rejections into
// THROTTLED application errors.
type Gate struct {
	limiter Limiter
	action  string
	metrics *metrics.Metrics
}

// NewGate creates a Gate for action. metrics may be nil.
func NewGate(limiter Limiter, action string, m *metrics.Metrics) *Gate {
	return &Gate{limiter: limiter, action: action, metrics: m}
}

// Allow checks and records one attempt by actorID on targetID.
//
// A backend failure rejects the call: sensitive actions are never let through
// unmetered.
func (g *Gate) Allow(ctx context.Context, actorID, targetID string) error {
	if actorID == "" {
		return apperr.Unauthorized("Authentication required")
	}

	decision, err := g.limiter.Check(ctx, actorID, g.action, targetID)
	if err != nil {
		return apperr.Internal(err)
	}

	if decision.Allowed {
		return nil
	}

	g.metrics.ObserveThrottled(g.action, string(decision.Window))
	ctxutil.GetLogger(ctx).WarnContext(ctx, "ratelimit_throttled",
		slog.String("actor_id", actorID),
		slog.String("action", g.action),
		slog.String("window", string(decision.Window)),
		slog.Duration("retry_after", decision.RetryAfter),
	)

	return apperr.Throttled(string(decision.Window), windowMessages[decision.Window], retryAfterSeconds(decision.RetryAfter))
}

// retryAfterSeconds rounds up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
