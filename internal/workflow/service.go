// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"log/slog"
	"time"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

// Service runs the form workflow against a Store. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	store Store
	seq   *Sequence
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSequence sets the generator for notification ids.
func WithSequence(seq *Sequence) Option {
	return func(s *Service) { s.seq = seq }
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		seq:   &defaultSequence,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

func requireAdmin(actor models.User, action string) error {
	if !actor.IsAdmin() {
		return fault.Deniedf("only admins can %s", action)
	}
	return nil
}

// undoLog collects compensating actions for a multi-step operation that
// runs without a transaction. A nil log records nothing.
type undoLog struct {
	steps []undoStep
}

type undoStep struct {
	what string
	fn   func(ctx context.Context) error
}

func (u *undoLog) push(what string, fn func(ctx context.Context) error) {
	if u == nil {
		return
	}
	u.steps = append(u.steps, undoStep{what: what, fn: fn})
}

// rollback runs the recorded steps newest first and returns the
// descriptions of the ones that failed.
func (u *undoLog) rollback(ctx context.Context) []string {
	var failed []string
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		if err := step.fn(ctx); err != nil {
			slog.Error("compensation step failed", "step", step.what, "error", err)
			failed = append(failed, step.what)
		}
	}
	return failed
}

// atomically runs fn inside a transaction when the store supports one.
// Otherwise fn runs directly against the store and, if it fails, the steps
// it recorded in the undo log are replayed in reverse.
func (s *Service) atomically(ctx context.Context, op string, fn func(st Store, undo *undoLog) error) error {
	if a, ok := s.store.(Atomic); ok {
		err := a.Atomically(ctx, func(tx Store) error {
			return fn(tx, nil)
		})
		if err != nil && !isFault(err) {
			return fault.Persist(err, "%s failed", op)
		}
		return err
	}

	undo := &undoLog{}
	err := fn(s.store, undo)
	if err == nil {
		return nil
	}
	if len(undo.steps) == 0 {
		return err
	}

	failed := undo.rollback(ctx)
	if len(failed) > 0 {
		return fault.Wrap(fault.Persistence, err,
			"%s failed and could not be fully undone; partial state left after: %v", op, failed)
	}
	if isFault(err) {
		return err
	}
	return fault.Persist(err, "%s failed", op)
}

func isFault(err error) bool {
	_, ok := fault.As(err)
	return ok
}
