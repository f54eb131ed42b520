// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"sync/atomic"
	"time"
)

// Sequence hands out notification ids derived from the creation time in
// milliseconds. Ids are strictly increasing even when several are issued
// within the same millisecond.
type Sequence struct {
	last atomic.Int64
}

// Next returns the id for a notification created at t.
func (s *Sequence) Next(t time.Time) int64 {
	ms := t.UnixMilli()
	for {
		last := s.last.Load()
		next := ms
		if next <= last {
			next = last + 1
		}
		if s.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

var defaultSequence Sequence
