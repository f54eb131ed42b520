// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"math"
	"time"

	"github.com/google/uuid"

	"collabforms/internal/models"
)

// ProgressState buckets a form for the dashboard filter.
type ProgressState string

const (
	StateNotStarted ProgressState = "not-started"
	StateInProgress ProgressState = "in-progress"
	StateOverdue    ProgressState = "overdue"
	StateCompleted  ProgressState = "completed"
)

// Valid reports whether s is a known progress state.
func (s ProgressState) Valid() bool {
	switch s {
	case StateNotStarted, StateInProgress, StateOverdue, StateCompleted:
		return true
	}
	return false
}

// Progress is the derived completion status of a form.
type Progress struct {
	SectionCount   int           `json:"section_count"`
	CompletedCount int           `json:"completed_count"`
	Percent        float64       `json:"percent"`
	IsComplete     bool          `json:"is_complete"`
	IsOverdue      bool          `json:"is_overdue"`
	State          ProgressState `json:"state"`
}

// Rounded returns the percentage rounded to the nearest whole number.
func (p Progress) Rounded() int {
	return int(math.Round(p.Percent))
}

// ComputeProgress derives a form's progress from its sections and the
// responses. sections may contain sections of other forms and responses
// may contain any responses; only those belonging to form are counted.
func ComputeProgress(form models.Form, sections []models.Section, responses []models.Response, now time.Time) Progress {
	own := make(map[uuid.UUID]bool)
	for _, s := range sections {
		if s.FormID == form.ID {
			own[s.ID] = true
		}
	}

	p := Progress{SectionCount: len(own)}
	counted := make(map[uuid.UUID]bool)
	for _, r := range responses {
		if own[r.SectionID] && !counted[r.SectionID] && r.IsCompleted() {
			counted[r.SectionID] = true
			p.CompletedCount++
		}
	}

	if p.SectionCount > 0 {
		p.Percent = float64(p.CompletedCount) / float64(p.SectionCount) * 100
	}
	p.IsComplete = p.SectionCount > 0 && p.CompletedCount == p.SectionCount
	p.IsOverdue = form.DueDate != nil && !p.IsComplete && now.After(dueMidnight(*form.DueDate))

	switch {
	case p.IsComplete:
		p.State = StateCompleted
	case p.IsOverdue:
		p.State = StateOverdue
	case p.CompletedCount > 0:
		p.State = StateInProgress
	default:
		p.State = StateNotStarted
	}
	return p
}

// dueMidnight truncates a due date to 00:00 UTC of its calendar day.
func dueMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
