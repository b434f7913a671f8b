// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/internal/platform/sec"
)

// RedisLedgerStore implements [LedgerStore] with one Redis list per moderator.
//
// Every add resets the key TTL to the refresh token lifetime, so a ledger
// whose newest token has expired disappears on its own.
type RedisLedgerStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisLedgerStore creates a Redis-backed ledger store.
func NewRedisLedgerStore(client redis.Cmdable) *RedisLedgerStore {
	return &RedisLedgerStore{client: client, ttl: sec.ModeratorRefreshTokenTTL}
}

func ledgerKey(moderatorID string) string {
	return constants.RedisPrefixLedger + moderatorID
}

// AddRefreshToken implements [LedgerStore]. The push and the TTL refresh run
// in one MULTI/EXEC block.
func (store *RedisLedgerStore) AddRefreshToken(ctx context.Context, moderatorID, token string) error {
	key := ledgerKey(moderatorID)

	_, err := store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, token)
		pipe.Expire(ctx, key, store.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_ledger_add_failed: %w", err)
	}
	return nil
}

// RemoveRefreshToken implements [LedgerStore] with LREM count 1.
func (store *RedisLedgerStore) RemoveRefreshToken(ctx context.Context, moderatorID, token string) error {
	if err := store.client.LRem(ctx, ledgerKey(moderatorID), 1, token).Err(); err != nil {
		return fmt.Errorf("redis_ledger_remove_failed: %w", err)
	}
	return nil
}

// ClearRefreshTokens implements [LedgerStore].
func (store *RedisLedgerStore) ClearRefreshTokens(ctx context.Context, moderatorID string) error {
	if err := store.client.Del(ctx, ledgerKey(moderatorID)).Err(); err != nil {
		return fmt.Errorf("redis_ledger_clear_failed: %w", err)
	}
	return nil
}

/*
HasRefreshToken implements [LedgerStore].

A missing key is an empty ledger.
*/
func (store *RedisLedgerStore) HasRefreshToken(ctx context.Context, moderatorID, token string) (bool, error) {
	tokens, err := store.client.LRange(ctx, ledgerKey(moderatorID), 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("redis_ledger_load_failed: %w", err)
	}
	return slices.Contains(tokens, token), nil
}
