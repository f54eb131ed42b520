// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"collabforms/internal/models"
)

// CascadeInput is the state right after a section was submitted.
type CascadeInput struct {
	Actor     models.User
	Form      models.Form
	Section   models.Section    // the section that was just completed
	Sections  []models.Section  // all sections of Form
	Responses []models.Response // responses after the submission
	Users     []models.User
	Now       time.Time
	Seq       *Sequence // nil uses the process-wide sequence
}

// Cascade derives the notifications emitted by a completed section: the
// completion itself, a reminder for the next assignee, and a message when
// the whole form is done. Each check runs independently.
func Cascade(in CascadeInput) []models.Notification {
	seq := in.Seq
	if seq == nil {
		seq = &defaultSequence
	}
	var out []models.Notification
	emit := func(format string, args ...any) {
		out = append(out, models.Notification{
			ID:        seq.Next(in.Now),
			Message:   fmt.Sprintf(format, args...),
			CreatedAt: in.Now,
		})
	}

	emit(`%s completed the "%s" section in "%s".`, in.Actor.Name, in.Section.Title, in.Form.Title)

	byID := models.ResponsesBySection(in.Responses)

	// The next assignee is reminded only once every section before theirs
	// is done, so a section submitted ahead of its predecessors stays quiet.
	var next *models.Section
	ready := true
	for i := range in.Sections {
		s := &in.Sections[i]
		if s.FormID != in.Form.ID {
			continue
		}
		if s.Order == in.Section.Order+1 {
			next = s
		}
		if s.Order <= in.Section.Order {
			if r := byID[s.ID]; r == nil || !r.IsCompleted() {
				ready = false
			}
		}
	}
	if next != nil && ready && next.AssignedTo != in.Actor.ID {
		r := byID[next.ID]
		if u := findUser(in.Users, next.AssignedTo); u != nil && r != nil && !r.IsCompleted() {
			emit(`Hi %s, "%s" is complete. It's your turn for "%s".`, u.FirstName(), in.Section.Title, next.Title)
		}
	}

	total, done := 0, 0
	for _, s := range in.Sections {
		if s.FormID != in.Form.ID {
			continue
		}
		total++
		if r := byID[s.ID]; r != nil && r.IsCompleted() {
			done++
		}
	}
	if total > 0 && done == total {
		emit(`🎉 The form "%s" is now fully completed!`, in.Form.Title)
	}

	return out
}

func findUser(users []models.User, id uuid.UUID) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}
