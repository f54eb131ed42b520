// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// attemptPrefix namespaces failed sign-in counters in Valkey.
	attemptPrefix = "login_fail:"

	DefaultMaxFailures = 5
	DefaultLockout     = 15 * time.Minute
)

// Attempts counts failed PIN sign-ins per email. Once an account reaches
// max failures it stays locked until the counter expires, no matter which
// address the guesses come from.
type Attempts struct {
	client  *redis.Client
	max     int
	lockout time.Duration
}

// NewAttempts creates a failure counter backed by Valkey. The lockout
// window starts at the first failure.
func NewAttempts(client *redis.Client, max int, lockout time.Duration) *Attempts {
	if max <= 0 {
		max = DefaultMaxFailures
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	return &Attempts{client: client, max: max, lockout: lockout}
}

func attemptKey(email string) string {
	return attemptPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Locked reports whether email has used up its failed attempts.
func (a *Attempts) Locked(ctx context.Context, email string) (bool, error) {
	n, err := a.client.Get(ctx, attemptKey(email)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempts get: %w", err)
	}
	return n >= a.max, nil
}

// Fail records a failed attempt for email.
func (a *Attempts) Fail(ctx context.Context, email string) error {
	key := attemptKey(email)
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, a.lockout)
		return nil
	})
	if err != nil {
		return fmt.Errorf("attempts fail: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful sign-in.
func (a *Attempts) Reset(ctx context.Context, email string) error {
	if err := a.client.Del(ctx, attemptKey(email)).Err(); err != nil {
		return fmt.Errorf("attempts reset: %w", err)
	}
	return nil
}
