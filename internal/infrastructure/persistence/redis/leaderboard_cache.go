// Package redis implements Redis caching for Guild Rank Hub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Key patterns for leaderboard cache.
//
// Each (community, limit) pair gets its own value key, and the community's
// index set tracks every value key written for it. Invalidation reads the
// index and deletes everything in one round trip, so mutations never need
// to know which limits were requested.
const (
	// keyLeaderboardTop is the prefix for cached top-N values.
	keyLeaderboardTop = "leaderboard:top:"

	// keyLeaderboardIndex is the prefix for per-community key index sets.
	keyLeaderboardIndex = "leaderboard:index:"
)

// TTLLeaderboard is the default TTL for cached leaderboards.
// Invalidation on mutation is the primary freshness mechanism; the TTL
// only bounds staleness when an invalidation is lost.
const TTLLeaderboard = 5 * time.Minute

// LeaderboardCache implements leaderboard.Cache on Redis.
type LeaderboardCache struct {
	client *Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
// A non-positive ttl falls back to TTLLeaderboard.
func NewLeaderboardCache(client *Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = TTLLeaderboard
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

func topKey(communityID shared.CommunityID, limit int) string {
	return fmt.Sprintf("%s%s:%d", keyLeaderboardTop, communityID, limit)
}

func indexKey(communityID shared.CommunityID) string {
	return keyLeaderboardIndex + string(communityID)
}

// GetTop returns the cached top-N for a community, or ErrCacheMiss.
func (c *LeaderboardCache) GetTop(ctx context.Context, communityID shared.CommunityID, limit int) ([]leaderboard.Entry, error) {
	data, err := c.client.rdb.Get(ctx, topKey(communityID, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	var entries []leaderboard.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return entries, nil
}

// SetTop caches the top-N for a community and records the key in the
// community's index set.
func (c *LeaderboardCache) SetTop(ctx context.Context, communityID shared.CommunityID, limit int, entries []leaderboard.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	key := topKey(communityID, limit)
	index := indexKey(communityID)

	pipe := c.client.rdb.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, index, key)
	pipe.Expire(ctx, index, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// Invalidate drops every cached leaderboard of the community.
func (c *LeaderboardCache) Invalidate(ctx context.Context, communityID shared.CommunityID) error {
	index := indexKey(communityID)

	keys, err := c.client.rdb.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	keys = append(keys, index)
	if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)
