// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// share.go provides a Valkey-backed cache for the public share view.
// Rendered share pages (HTML and JSON) are stored per share id so repeat
// visits skip the store queries and template execution. Any change to a
// shared form invalidates its entries.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// shareKeyPrefix is the Valkey key prefix for cached share views.
	shareKeyPrefix = "share:"

	// DefaultShareTTL is how long a rendered share view stays cached.
	DefaultShareTTL = 5 * time.Minute
)

// Format selects the cached representation of a share view.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

var formats = []Format{FormatHTML, FormatJSON}

// ShareCache manages share view caching in Valkey.
type ShareCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewShareCache creates a new share cache backed by the given Valkey client.
func NewShareCache(client *redis.Client, ttl time.Duration) *ShareCache {
	if ttl == 0 {
		ttl = DefaultShareTTL
	}
	return &ShareCache{client: client, ttl: ttl}
}

// ShareKey returns the Valkey key for one representation of a share view.
func ShareKey(shareID string, f Format) string {
	return shareKeyPrefix + shareID + ":" + string(f)
}

// Get retrieves a cached share view. Returns false on miss.
func (sc *ShareCache) Get(ctx context.Context, shareID string, f Format) ([]byte, bool) {
	val, err := sc.client.Get(ctx, ShareKey(shareID, f)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("share cache get error", "share_id", shareID, "error", err)
		return nil, false
	}
	slog.Debug("share cache hit", "share_id", shareID, "format", f)
	return val, true
}

// entryTTL caps ttl so an entry expires no later than until. A zero until
// leaves ttl unchanged.
func entryTTL(ttl time.Duration, until, now time.Time) time.Duration {
	if until.IsZero() {
		return ttl
	}
	if left := until.Sub(now); left < ttl {
		return left
	}
	return ttl
}

// Set stores a rendered share view with the configured TTL, cut short at
// until when the view is known to go stale then. Views already past until
// are not stored.
func (sc *ShareCache) Set(ctx context.Context, shareID string, f Format, body []byte, until time.Time) {
	ttl := entryTTL(sc.ttl, until, time.Now())
	if ttl <= 0 {
		return
	}
	if err := sc.client.Set(ctx, ShareKey(shareID, f), body, ttl).Err(); err != nil {
		slog.Warn("share cache set error", "share_id", shareID, "error", err)
	}
}

// Invalidate removes every cached representation of one share view.
func (sc *ShareCache) Invalidate(ctx context.Context, shareID string) {
	if shareID == "" {
		return
	}
	keys := make([]string, 0, len(formats))
	for _, f := range formats {
		keys = append(keys, ShareKey(shareID, f))
	}
	if err := sc.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("share cache invalidate error", "share_id", shareID, "error", err)
		return
	}
	slog.Debug("share cache invalidated", "share_id", shareID)
}

// InvalidateAll removes all cached share views by scanning for the prefix.
// Used when a user is renamed, since any share view could show the name.
func (sc *ShareCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := sc.client.Scan(ctx, cursor, shareKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("share cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := sc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("share cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("share cache fully cleared", "deleted", deleted)
	}
}
