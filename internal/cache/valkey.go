// Package cache provides the Valkey (Redis-compatible) connection shared by
// sessions, sign-in counters and the notification feed, and the cache of
// rendered share views.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// clientName identifies collabforms connections in CLIENT LIST.
const clientName = "collabforms"

// ConnectValkey opens the shared Valkey client and pings it. Command
// timeouts are kept short so a stalled Valkey fails a request instead of
// hanging it; pub/sub subscriptions are unaffected.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	addr := net.JoinHostPort(host, port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		ClientName:   clientName,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", addr, err)
	}

	slog.Info("valkey connected", "addr", addr)
	return client, nil
}
