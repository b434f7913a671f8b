// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/pkg/uuid"
)

// slidingWindowScript evaluates the three windows and records the call in one
// atomic step.
//
// KEYS[1] is the actions sorted set (score = ms timestamp, member = unique id).
// KEYS[2] is the targets sorted set (score = ms timestamp, member = target id).
// The burst window is a score range over KEYS[1].
//
// It returns {code, retryMs} where code 0 allows the call and 1, 2, 3 name the
// hourly, burst and unique-target windows.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local actionWindow = tonumber(ARGV[2])
local actionLimit = tonumber(ARGV[3])
local burstWindow = tonumber(ARGV[4])
local burstLimit = tonumber(ARGV[5])
local targetWindow = tonumber(ARGV[6])
local targetLimit = tonumber(ARGV[7])
local target = ARGV[8]
local member = ARGV[9]

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', '(' .. (now - actionWindow))
if redis.call('ZCARD', KEYS[1]) >= actionLimit then
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  return {1, tonumber(oldest[2]) + actionWindow - now}
end

if redis.call('ZCOUNT', KEYS[1], now - burstWindow, '+inf') >= burstLimit then
  local oldest = redis.call('ZRANGEBYSCORE', KEYS[1], now - burstWindow, '+inf', 'WITHSCORES', 'LIMIT', 0, 1)
  return {2, tonumber(oldest[2]) + burstWindow - now}
end

if target ~= '' then
  redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', '(' .. (now - targetWindow))
  if not redis.call('ZSCORE', KEYS[2], target) and redis.call('ZCARD', KEYS[2]) >= targetLimit then
    local oldest = redis.call('ZRANGE', KEYS[2], 0, 0, 'WITHSCORES')
    return {3, tonumber(oldest[2]) + targetWindow - now}
  end
  redis.call('ZADD', KEYS[2], now, target)
  redis.call('PEXPIRE', KEYS[2], targetWindow)
end

redis.call('ZADD', KEYS[1], now, member)
redis.call('PEXPIRE', KEYS[1], actionWindow)
return {0, 0}
`)

var windowCodes = map[int64]Window{
	1: WindowHourly,
	2: WindowBurst,
	3: WindowUniqueTargets,
}

// Redis is a [Limiter] whose counters live in Redis, shared by every instance.
//
// Timestamps come from the injected clock, so instances are expected to run
// with synchronized clocks.
type Redis struct {
	client redis.Scripter
	policy Policy
	now    func() time.Time
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(client redis.Scripter, policy Policy, opts ...Option) *Redis {
	o := buildOptions(opts)
	return &Redis{client: client, policy: policy, now: o.now}
}

// Check implements [Limiter].
func (r *Redis) Check(ctx context.Context, actorID, action, targetID string) (Decision, error) {
	// The hash tag keeps both keys of one actor in the same cluster slot.
	base := constants.RedisPrefixRateLimit + "{" + stateKey(action, actorID) + "}"
	keys := []string{base + ":actions", base + ":targets"}

	result, err := slidingWindowScript.Run(ctx, r.client, keys,
		r.now().UnixMilli(),
		r.policy.ActionWindow.Milliseconds(),
		r.policy.ActionLimit,
		r.policy.BurstWindow.Milliseconds(),
		r.policy.BurstLimit,
		r.policy.TargetWindow.Milliseconds(),
		r.policy.TargetLimit,
		targetID,
		uuid.New(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis check failed: %w", err)
	}

	if len(result) != 2 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", result)
	}

	if result[0] == 0 {
		return allow(), nil
	}

	window, ok := windowCodes[result[0]]
	if !ok {
		return Decision{}, fmt.Errorf("ratelimit: unknown window code %d", result[0])
	}

	return reject(window, time.Duration(result[1])*time.Millisecond), nil
}
