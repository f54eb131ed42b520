// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package notify keeps the ephemeral notification feed in Valkey and
// streams new notifications to connected browsers over websockets.
//
// The feed is a capped list (newest first) whose key expires after a period
// of inactivity. Every published notification is also sent on a pub/sub
// channel so that all server instances can push it to their own clients.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"collabforms/internal/models"
)

const (
	// feedKey holds the JSON-encoded notifications, newest first.
	feedKey = "notify:feed"

	// channel carries each notification as it is published.
	channel = "notify:events"

	// DefaultSize is how many notifications the feed retains.
	DefaultSize = 50

	// DefaultTTL is how long the feed survives without new notifications.
	DefaultTTL = 24 * time.Hour
)

// Feed is the Valkey-backed notification feed.
type Feed struct {
	client *redis.Client
	size   int
	ttl    time.Duration
}

// NewFeed creates a feed backed by the given Valkey client. Zero values
// select the defaults.
func NewFeed(client *redis.Client, size int, ttl time.Duration) *Feed {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Feed{client: client, size: size, ttl: ttl}
}

// Publish appends notifications to the feed, trims it to its capacity,
// refreshes its expiry and announces each one on the pub/sub channel.
func (f *Feed) Publish(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	payloads := make([][]byte, len(ns))
	for i, n := range ns {
		b, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("notify marshal: %w", err)
		}
		payloads[i] = b
	}

	_, err := f.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, b := range payloads {
			p.LPush(ctx, feedKey, b)
		}
		p.LTrim(ctx, feedKey, 0, int64(f.size-1))
		p.Expire(ctx, feedKey, f.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("notify push: %w", err)
	}

	for _, b := range payloads {
		if err := f.client.Publish(ctx, channel, b).Err(); err != nil {
			// The feed already holds the notification; clients will see it
			// on their next poll.
			slog.Warn("notify publish failed", "error", err)
		}
	}
	return nil
}

// List returns the retained notifications, newest first.
func (f *Feed) List(ctx context.Context) ([]models.Notification, error) {
	raw, err := f.client.LRange(ctx, feedKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("notify list: %w", err)
	}

	ns := make([]models.Notification, 0, len(raw))
	for _, item := range raw {
		var n models.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			slog.Warn("notify skipping malformed entry", "error", err)
			continue
		}
		ns = append(ns, n)
	}
	return ns, nil
}

// Dismiss removes the notification with the given id. It reports whether
// a notification was removed.
func (f *Feed) Dismiss(ctx context.Context, id int64) (bool, error) {
	raw, err := f.client.LRange(ctx, feedKey, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("notify dismiss: %w", err)
	}

	for _, item := range raw {
		var n models.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil || n.ID != id {
			continue
		}
		removed, err := f.client.LRem(ctx, feedKey, 1, item).Result()
		if err != nil {
			return false, fmt.Errorf("notify dismiss: %w", err)
		}
		return removed > 0, nil
	}
	return false, nil
}

// Subscribe returns a channel of notifications published from now on. The
// channel is closed when ctx is cancelled or the subscription fails.
func (f *Feed) Subscribe(ctx context.Context) (<-chan models.Notification, error) {
	pubsub := f.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("notify subscribe: %w", err)
	}

	out := make(chan models.Notification)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					slog.Warn("notify dropping malformed event", "error", err)
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
