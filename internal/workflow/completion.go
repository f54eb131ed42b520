// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

// CanEdit reports whether actor may fill in section right now: the actor
// must be its assignee, hold the User role, and the response must still
// be pending.
func CanEdit(actor models.User, section models.Section, response *models.Response) bool {
	return actor.Role == models.RoleUser &&
		actor.ID == section.AssignedTo &&
		response != nil &&
		!response.IsCompleted()
}

// SectionView is what an actor gets to see of one section.
type SectionView struct {
	Section      models.Section        `json:"section"`
	Status       models.ResponseStatus `json:"status"`
	Editable     bool                  `json:"editable"`
	Answers      models.Answers        `json:"answers,omitempty"`
	Placeholder  string                `json:"placeholder,omitempty"`
	AssigneeName string                `json:"assignee_name"`
}

// ViewSection applies the read rules for a section. Assignees, admins and
// viewers see the stored answers. Other users see the answers only once
// the section is completed; until then they get a placeholder naming the
// assignee.
func ViewSection(actor models.User, section models.Section, response *models.Response, assignee *models.User) SectionView {
	v := SectionView{
		Section:  section,
		Status:   models.ResponseStatusPending,
		Editable: CanEdit(actor, section, response),
	}
	name := "an unknown user"
	if assignee != nil {
		name = assignee.Name
	}
	v.AssigneeName = name
	if response != nil {
		v.Status = response.Status
	}

	privileged := actor.ID == section.AssignedTo || actor.IsAdmin() || actor.IsViewer()
	completed := response != nil && response.IsCompleted()
	if response != nil && (privileged || completed) {
		v.Answers = response.Content
		return v
	}
	v.Placeholder = fmt.Sprintf("Pending submission. Awaiting completion from %s.", name)
	return v
}

// Submission is the outcome of a successful section submit.
type Submission struct {
	Response      models.Response       `json:"response"`
	Notifications []models.Notification `json:"notifications"`
}

// SubmitSection stores the assignee's answers for a section and locks it.
// A section can be submitted once; a second attempt fails with
// InvalidState, including when another request won the race.
func (s *Service) SubmitSection(ctx context.Context, actor models.User, sectionID uuid.UUID, answers models.Answers) (*Submission, error) {
	section, form, response, err := s.openSection(ctx, actor, sectionID)
	if err != nil {
		return nil, err
	}
	if err := ValidateAnswers(section.Questions, answers); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if answers == nil {
		answers = models.Answers{}
	}
	updated := *response
	updated.Content = answers
	updated.Status = models.ResponseStatusCompleted
	updated.FilledBy = actor.ID
	updated.CompletedAt = &now

	changed, err := s.store.Responses().Complete(ctx, &updated)
	if err != nil {
		return nil, fault.Persist(err, "save response")
	}
	if !changed {
		return nil, fault.InvalidStatef("section %q was already submitted", section.Title)
	}

	sections, err := s.store.Sections().ListByForm(ctx, form.ID)
	if err != nil {
		return nil, fault.Persist(err, "load sections")
	}
	responses, err := s.store.Responses().ListBySections(ctx, models.SectionIDs(sections))
	if err != nil {
		return nil, fault.Persist(err, "load responses")
	}
	// The submit already happened; make sure the snapshot reflects it even
	// if the store lags behind.
	for i := range responses {
		if responses[i].ID == updated.ID {
			responses[i] = updated
		}
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fault.Persist(err, "load users")
	}

	notes := Cascade(CascadeInput{
		Actor:     actor,
		Form:      *form,
		Section:   *section,
		Sections:  sections,
		Responses: responses,
		Users:     users,
		Now:       now,
		Seq:       s.seq,
	})
	return &Submission{Response: updated, Notifications: notes}, nil
}

// openSection loads a section with its form and response and checks that
// actor may fill it in now.
func (s *Service) openSection(ctx context.Context, actor models.User, sectionID uuid.UUID) (*models.Section, *models.Form, *models.Response, error) {
	section, err := s.store.Sections().FindByID(ctx, sectionID)
	if err != nil {
		return nil, nil, nil, fault.Persist(err, "load section")
	}
	if section == nil {
		return nil, nil, nil, fault.NotFoundf("section not found")
	}
	form, err := s.store.Forms().FindByID(ctx, section.FormID)
	if err != nil {
		return nil, nil, nil, fault.Persist(err, "load form")
	}
	if form == nil {
		return nil, nil, nil, fault.NotFoundf("form not found")
	}
	response, err := s.store.Responses().FindBySection(ctx, section.ID)
	if err != nil {
		return nil, nil, nil, fault.Persist(err, "load response")
	}
	if response == nil {
		return nil, nil, nil, fault.InvalidStatef("section %q has no response record", section.Title)
	}

	if !form.IsPublished() {
		return nil, nil, nil, fault.InvalidStatef("form %q is not published", form.Title)
	}
	if actor.ID != section.AssignedTo || actor.Role != models.RoleUser {
		return nil, nil, nil, fault.Deniedf("only the assignee can submit %q", section.Title)
	}
	if response.IsCompleted() {
		return nil, nil, nil, fault.InvalidStatef("section %q was already submitted", section.Title)
	}
	return section, form, response, nil
}

// PrepareUpload checks that actor may attach a file to the section and
// that the section asks for one. It returns the section.
func (s *Service) PrepareUpload(ctx context.Context, actor models.User, sectionID uuid.UUID) (*models.Section, error) {
	section, _, _, err := s.openSection(ctx, actor, sectionID)
	if err != nil {
		return nil, err
	}
	for _, q := range section.Questions {
		if q.Type == models.QuestionFileUpload {
			return section, nil
		}
	}
	return nil, fault.Validationf("section %q has no file-upload question", section.Title)
}

// FormDetail is a form together with the sections an actor may read.
type FormDetail struct {
	Form     models.Form   `json:"form"`
	Progress Progress      `json:"progress"`
	Sections []SectionView `json:"sections"`
}

// GetForm loads a form with per-section views for actor. Users may only
// open published forms assigned to them; draft, template and trashed
// forms are admin-only.
func (s *Service) GetForm(ctx context.Context, actor models.User, id uuid.UUID) (*FormDetail, error) {
	form, err := s.store.Forms().FindByID(ctx, id)
	if err != nil {
		return nil, fault.Persist(err, "load form")
	}
	if form == nil {
		return nil, fault.NotFoundf("form not found")
	}
	sections, err := s.store.Sections().ListByForm(ctx, id)
	if err != nil {
		return nil, fault.Persist(err, "load sections")
	}
	models.SortSections(sections)

	if !actor.IsAdmin() {
		visible := VisibleForms(actor, []models.Form{*form}, sections)
		if len(visible) == 0 {
			return nil, fault.NotFoundf("form not found")
		}
	}

	responses, err := s.store.Responses().ListBySections(ctx, models.SectionIDs(sections))
	if err != nil {
		return nil, fault.Persist(err, "load responses")
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fault.Persist(err, "load users")
	}

	byID := models.ResponsesBySection(responses)
	views := make([]SectionView, 0, len(sections))
	for _, sec := range sections {
		views = append(views, ViewSection(actor, sec, byID[sec.ID], findUser(users, sec.AssignedTo)))
	}
	return &FormDetail{
		Form:     *form,
		Progress: ComputeProgress(*form, sections, responses, s.now()),
		Sections: views,
	}, nil
}
