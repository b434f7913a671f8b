// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// actorState holds the counters of one (action, actor) pair.
//
// Both lists are appended in non-decreasing time order, so pruning only ever
// drops from the front.
type actorState struct {
	mu      sync.Mutex
	actions []time.Time
	bursts  []time.Time
	targets map[string]time.Time
}

// Memory is an in-process [Limiter].
//
// Guarantees hold per process only. Deployments with several instances use
// [Redis] instead.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu     sync.Mutex
	states map[string]*actorState
}

// NewMemory creates an empty in-memory limiter.
func NewMemory(policy Policy, opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		policy: policy,
		now:    o.now,
		states: make(map[string]*actorState),
	}
}

// state returns the counters for key, creating them on first use.
//
// The map lock is held only for the lookup, so unrelated actors never wait on
// each other.
func (m *Memory) state(key string) *actorState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[key]
	if !ok {
		state = &actorState{targets: make(map[string]time.Time)}
		m.states[key] = state
	}
	return state
}

// Check implements [Limiter].
func (m *Memory) Check(_ context.Context, actorID, action, targetID string) (Decision, error) {
	state := m.state(stateKey(action, actorID))

	// The three checks and the recording are one critical section per key.
	state.mu.Lock()
	defer state.mu.Unlock()

	now := m.now()

	// 1. Hourly action cap
	state.actions = prune(state.actions, m.policy.ActionWindow, now)
	if len(state.actions) >= m.policy.ActionLimit {
		return reject(WindowHourly, state.actions[0].Add(m.policy.ActionWindow).Sub(now)), nil
	}

	// 2. Burst cap
	state.bursts = prune(state.bursts, m.policy.BurstWindow, now)
	if len(state.bursts) >= m.policy.BurstLimit {
		return reject(WindowBurst, state.bursts[0].Add(m.policy.BurstWindow).Sub(now)), nil
	}

	// 3. Unique-target cap
	if targetID != "" {
		oldest := now
		for id, seenAt := range state.targets {
			if now.Sub(seenAt) > m.policy.TargetWindow {
				delete(state.targets, id)
				continue
			}
			if seenAt.Before(oldest) {
				oldest = seenAt
			}
		}

		if _, known := state.targets[targetID]; !known && len(state.targets) >= m.policy.TargetLimit {
			return reject(WindowUniqueTargets, oldest.Add(m.policy.TargetWindow).Sub(now)), nil
		}
		state.targets[targetID] = now
	}

	state.actions = append(state.actions, now)
	state.bursts = append(state.bursts, now)

	return allow(), nil
}

// prune drops entries older than window from the front of a time-ordered list.
func prune(list []time.Time, window time.Duration, now time.Time) []time.Time {
	drop := 0
	for drop < len(list) && now.Sub(list[drop]) > window {
		drop++
	}
	if drop == 0 {
		return list
	}
	return append(list[:0], list[drop:]...)
}
