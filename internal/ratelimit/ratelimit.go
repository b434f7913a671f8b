// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit throttles sensitive, bulk-impact moderation actions with
layered sliding windows per actor.

Every call is evaluated against three windows in a fixed order and stops at
the first violation, so a rejected call never advances any counter:

 1. Hourly: at most ActionLimit actions in the trailing ActionWindow.
 2. Burst: at most BurstLimit actions in the trailing BurstWindow.
 3. Unique targets: at most TargetLimit distinct targets in the trailing
    TargetWindow. Repeating a known target refreshes its timestamp instead.

Backends:

  - [Memory]: process-local state with one lock per (action, actor) key.
  - [Redis]: sorted sets updated by a single Lua script, shared by every instance.
*/
package ratelimit

import (
	"context"
	"time"
)

// # Windows

// Window names the sliding window that rejected a call.
type Window string

const (
	WindowHourly        Window = "hourly"
	WindowBurst         Window = "burst"
	WindowUniqueTargets Window = "unique_targets"
)

// # Policy

// Policy holds the limits of the three windows.
type Policy struct {
	ActionLimit  int
	ActionWindow time.Duration

	BurstLimit  int
	BurstWindow time.Duration

	TargetLimit  int
	TargetWindow time.Duration
}

// DefaultPolicy returns 30 actions per hour, 5 per minute and 20 distinct
// targets per hour.
func DefaultPolicy() Policy {
	return Policy{
		ActionLimit:  30,
		ActionWindow: time.Hour,
		BurstLimit:   5,
		BurstWindow:  time.Minute,
		TargetLimit:  20,
		TargetWindow: time.Hour,
	}
}

// # Decision

// Decision is the outcome of a single [Limiter.Check].
type Decision struct {
	Allowed bool

	// Window is set when the call was rejected.
	Window Window

	// RetryAfter is the time until the oldest blocking entry leaves its window.
	RetryAfter time.Duration
}

func allow() Decision {
	return Decision{Allowed: true}
}

func reject(window Window, retryAfter time.Duration) Decision {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{Window: window, RetryAfter: retryAfter}
}

// # Limiter

// Limiter evaluates and records one attempt of action by actorID.
//
// targetID may be empty, in which case the unique-target window is skipped.
// A call is recorded only when the returned decision allows it.
type Limiter interface {
	Check(ctx context.Context, actorID, action, targetID string) (Decision, error)
}

// Option configures a backend.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func stateKey(action, actorID string) string {
	return action + ":" + actorID
}
