// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"collabforms/internal/models"
)

type cascadeFixture struct {
	users     []models.User
	form      models.Form
	sections  []models.Section
	responses []models.Response
}

// newCascadeFixture builds a published form with three sections assigned
// to three different users, in order.
func newCascadeFixture() *cascadeFixture {
	f := &cascadeFixture{
		users: []models.User{
			{ID: uuid.New(), Name: "Alice Smith", Role: models.RoleUser},
			{ID: uuid.New(), Name: "Bob Jones", Role: models.RoleUser},
			{ID: uuid.New(), Name: "Carol White", Role: models.RoleUser},
		},
	}
	f.form = models.Form{ID: uuid.New(), Title: "Q3 Proposal", Status: models.FormStatusPublished}
	for i, title := range []string{"Overview", "Budget", "Sign-off"} {
		sec := models.Section{ID: uuid.New(), FormID: f.form.ID, Title: title, AssignedTo: f.users[i].ID, Order: i + 1}
		f.sections = append(f.sections, sec)
		f.responses = append(f.responses, models.Response{
			ID: uuid.New(), SectionID: sec.ID, FilledBy: sec.AssignedTo, Status: models.ResponseStatusPending,
		})
	}
	return f
}

// complete marks section i as completed and returns the cascade for it.
func (f *cascadeFixture) complete(i int) []models.Notification {
	f.responses[i].Status = models.ResponseStatusCompleted
	return Cascade(CascadeInput{
		Actor:     f.users[i],
		Form:      f.form,
		Section:   f.sections[i],
		Sections:  f.sections,
		Responses: f.responses,
		Users:     f.users,
		Now:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Seq:       &Sequence{},
	})
}

func messages(notes []models.Notification) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Message
	}
	return out
}

func assertMessages(t *testing.T, got []models.Notification, want ...string) {
	t.Helper()
	msgs := messages(got)
	if len(msgs) != len(want) {
		t.Fatalf("got %d notifications %q, want %d %q", len(msgs), msgs, len(want), want)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, msgs[i], want[i])
		}
	}
}

// TestCascadeMiddleSectionFirst submits section 2 while section 1 is still
// open: only the completion message fires.
func TestCascadeMiddleSectionFirst(t *testing.T) {
	f := newCascadeFixture()
	notes := f.complete(1)
	assertMessages(t, notes, `Bob Jones completed the "Budget" section in "Q3 Proposal".`)
}

func TestCascadeMiddleSectionAfterFirst(t *testing.T) {
	f := newCascadeFixture()
	f.responses[0].Status = models.ResponseStatusCompleted
	notes := f.complete(1)
	assertMessages(t, notes,
		`Bob Jones completed the "Budget" section in "Q3 Proposal".`,
		`Hi Carol, "Budget" is complete. It's your turn for "Sign-off".`,
	)
}

func TestCascadeFirstSectionRemindsNext(t *testing.T) {
	f := newCascadeFixture()
	notes := f.complete(0)
	assertMessages(t, notes,
		`Alice Smith completed the "Overview" section in "Q3 Proposal".`,
		`Hi Bob, "Overview" is complete. It's your turn for "Budget".`,
	)
}

func TestCascadeLastSectionCompletesForm(t *testing.T) {
	f := newCascadeFixture()
	f.responses[0].Status = models.ResponseStatusCompleted
	f.responses[1].Status = models.ResponseStatusCompleted
	notes := f.complete(2)
	assertMessages(t, notes,
		`Carol White completed the "Sign-off" section in "Q3 Proposal".`,
		`🎉 The form "Q3 Proposal" is now fully completed!`,
	)
}

func TestCascadeNoReminderForSameAssignee(t *testing.T) {
	f := newCascadeFixture()
	f.sections[1].AssignedTo = f.users[0].ID
	notes := f.complete(0)
	assertMessages(t, notes, `Alice Smith completed the "Overview" section in "Q3 Proposal".`)
}

// TestCascadeNoReminderWhenNextDone covers a first section submitted last:
// the next section is already done, so only the completion messages fire.
func TestCascadeNoReminderWhenNextDone(t *testing.T) {
	f := newCascadeFixture()
	f.responses[1].Status = models.ResponseStatusCompleted
	f.responses[2].Status = models.ResponseStatusCompleted
	notes := f.complete(0)
	assertMessages(t, notes,
		`Alice Smith completed the "Overview" section in "Q3 Proposal".`,
		`🎉 The form "Q3 Proposal" is now fully completed!`,
	)
}

func TestCascadeIDsIncrease(t *testing.T) {
	f := newCascadeFixture()
	notes := f.complete(0)
	for i := 1; i < len(notes); i++ {
		if notes[i].ID <= notes[i-1].ID {
			t.Errorf("ids not increasing: %d then %d", notes[i-1].ID, notes[i].ID)
		}
	}
}

func TestSequenceMonotonic(t *testing.T) {
	var seq Sequence
	now := time.UnixMilli(1_700_000_000_000)
	a := seq.Next(now)
	b := seq.Next(now)
	c := seq.Next(now.Add(-time.Second))
	if a != now.UnixMilli() {
		t.Errorf("first id = %d, want %d", a, now.UnixMilli())
	}
	if !(a < b && b < c) {
		t.Errorf("ids not strictly increasing: %d %d %d", a, b, c)
	}
}
