// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

// SectionInput describes one section of a form being created or edited.
type SectionInput struct {
	Title      string           `json:"title"`
	AssignedTo uuid.UUID        `json:"assigned_to"`
	Questions  models.Questions `json:"questions"`
}

// FormInput is the editor payload for creating or replacing a form.
type FormInput struct {
	Title    string            `json:"title"`
	DueDate  *models.Date      `json:"due_date,omitempty"`
	Status   models.FormStatus `json:"status"`
	Sections []SectionInput    `json:"sections"`
}

// FormRecord is a form together with the records written for it.
type FormRecord struct {
	Form          models.Form           `json:"form"`
	Sections      []models.Section      `json:"sections"`
	Responses     []models.Response     `json:"responses,omitempty"`
	Notifications []models.Notification `json:"notifications,omitempty"`
}

// Confirmation gates destructive operations.
type Confirmation struct {
	Confirmed bool
}

func (s *Service) notice(format string, args ...any) models.Notification {
	now := s.now().UTC()
	return models.Notification{
		ID:        s.seq.Next(now),
		Message:   fmt.Sprintf(format, args...),
		CreatedAt: now,
	}
}

// normalizeInput validates a form payload and returns a cleaned copy with
// question ids filled in. Assignees are checked against the store.
func (s *Service) normalizeInput(ctx context.Context, in FormInput) (FormInput, error) {
	out := FormInput{
		Title:   strings.TrimSpace(in.Title),
		DueDate: in.DueDate,
		Status:  in.Status,
	}
	if out.Status == "" {
		out.Status = models.FormStatusDraft
	}
	if out.Title == "" {
		return out, fault.Validationf("form title is required")
	}
	if out.Status != models.FormStatusDraft && out.Status != models.FormStatusPublished {
		return out, fault.Validationf("form status must be draft or published")
	}
	if len(in.Sections) == 0 {
		return out, fault.Validationf("a form needs at least one section")
	}
	if out.DueDate != nil {
		d := models.NewDate(out.DueDate.Time)
		out.DueDate = &d
	}

	assignees := make(map[uuid.UUID]bool)
	for i, sec := range in.Sections {
		title := strings.TrimSpace(sec.Title)
		if title == "" {
			return out, fault.Validationf("section %d needs a title", i+1)
		}
		if sec.AssignedTo == uuid.Nil {
			return out, fault.Validationf("section %q must be assigned to a user", title)
		}
		questions, err := normalizeQuestions(title, sec.Questions)
		if err != nil {
			return out, err
		}
		out.Sections = append(out.Sections, SectionInput{
			Title:      title,
			AssignedTo: sec.AssignedTo,
			Questions:  questions,
		})
		assignees[sec.AssignedTo] = true
	}

	for id := range assignees {
		u, err := s.store.Users().FindByID(ctx, id)
		if err != nil {
			return out, fault.Persist(err, "load assignee")
		}
		if u == nil {
			return out, fault.Validationf("assigned user %s does not exist", id)
		}
	}
	return out, nil
}

func normalizeQuestions(section string, in models.Questions) (models.Questions, error) {
	out := make(models.Questions, 0, len(in))
	seen := make(map[string]bool)
	for i, q := range in {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return nil, fault.Validationf("question %d in %q needs text", i+1, section)
		}
		if !q.Type.Valid() {
			return nil, fault.Validationf("question %q has unknown type %q", q.Text, q.Type)
		}
		if q.Type.HasOptions() {
			var opts []string
			for _, o := range q.Options {
				if o = strings.TrimSpace(o); o != "" {
					opts = append(opts, o)
				}
			}
			if len(opts) == 0 {
				return nil, fault.Validationf("question %q needs at least one option", q.Text)
			}
			q.Options = opts
		} else {
			q.Options = nil
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if seen[q.ID] {
			return nil, fault.Validationf("duplicate question id %q in %q", q.ID, section)
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out, nil
}

// insertSections writes sections for form in the given order, plus one
// pending response per section when withResponses is set.
func insertSections(ctx context.Context, st Store, undo *undoLog, formID uuid.UUID, in []SectionInput, withResponses bool) ([]models.Section, []models.Response, error) {
	sections := make([]models.Section, 0, len(in))
	var responses []models.Response
	for i, si := range in {
		sec := models.Section{
			FormID:     formID,
			Title:      si.Title,
			AssignedTo: si.AssignedTo,
			Order:      i + 1,
			Questions:  si.Questions,
		}
		if err := st.Sections().Insert(ctx, &sec); err != nil {
			return nil, nil, fault.Persist(err, "insert section %q", sec.Title)
		}
		id := sec.ID
		undo.push("delete section "+id.String(), func(ctx context.Context) error {
			return st.Sections().Delete(ctx, id)
		})
		sections = append(sections, sec)

		if !withResponses {
			continue
		}
		resp := models.Response{
			SectionID: sec.ID,
			Content:   models.Answers{},
			FilledBy:  sec.AssignedTo,
			Status:    models.ResponseStatusPending,
		}
		if err := st.Responses().Insert(ctx, &resp); err != nil {
			return nil, nil, fault.Persist(err, "insert response for %q", sec.Title)
		}
		rid := resp.ID
		undo.push("delete response "+rid.String(), func(ctx context.Context) error {
			return st.Responses().Delete(ctx, rid)
		})
		responses = append(responses, resp)
	}
	return sections, responses, nil
}

// removeSections deletes the responses and then the sections of a form,
// recording how to put them back.
func removeSections(ctx context.Context, st Store, undo *undoLog, formID uuid.UUID) error {
	sections, err := st.Sections().ListByForm(ctx, formID)
	if err != nil {
		return fault.Persist(err, "load sections")
	}
	if len(sections) == 0 {
		return nil
	}
	ids := models.SectionIDs(sections)
	responses, err := st.Responses().ListBySections(ctx, ids)
	if err != nil {
		return fault.Persist(err, "load responses")
	}

	if err := st.Responses().DeleteBySections(ctx, ids); err != nil {
		return fault.Persist(err, "delete responses")
	}
	undo.push("restore responses", func(ctx context.Context) error {
		for i := range responses {
			r := responses[i]
			if err := st.Responses().Insert(ctx, &r); err != nil {
				return err
			}
		}
		return nil
	})

	if err := st.Sections().DeleteByForm(ctx, formID); err != nil {
		return fault.Persist(err, "delete sections")
	}
	undo.push("restore sections", func(ctx context.Context) error {
		for i := range sections {
			sec := sections[i]
			if err := st.Sections().Insert(ctx, &sec); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

func (s *Service) loadForm(ctx context.Context, st Store, id uuid.UUID) (*models.Form, error) {
	form, err := st.Forms().FindByID(ctx, id)
	if err != nil {
		return nil, fault.Persist(err, "load form")
	}
	if form == nil {
		return nil, fault.NotFoundf("form not found")
	}
	return form, nil
}

// CreateForm creates a draft or published form with its sections and one
// pending response per section.
func (s *Service) CreateForm(ctx context.Context, actor models.User, in FormInput) (*FormRecord, error) {
	if err := requireAdmin(actor, "create forms"); err != nil {
		return nil, err
	}
	in, err := s.normalizeInput(ctx, in)
	if err != nil {
		return nil, err
	}

	rec := &FormRecord{}
	err = s.atomically(ctx, "create form", func(st Store, undo *undoLog) error {
		form := models.Form{
			Title:     in.Title,
			CreatedBy: actor.ID,
			Status:    in.Status,
			DueDate:   in.DueDate.Ptr(),
		}
		if err := st.Forms().Insert(ctx, &form); err != nil {
			return fault.Persist(err, "insert form")
		}
		undo.push("delete form "+form.ID.String(), func(ctx context.Context) error {
			return st.Forms().Delete(ctx, form.ID)
		})

		sections, responses, err := insertSections(ctx, st, undo, form.ID, in.Sections, true)
		if err != nil {
			return err
		}
		rec.Form, rec.Sections, rec.Responses = form, sections, responses
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec.Notifications = []models.Notification{s.notice(`Form "%s" created successfully.`, rec.Form.Title)}
	return rec, nil
}

// EditForm replaces a form's title, due date, status and its complete
// section set. Old sections and responses are discarded, so any answers
// already given are lost.
func (s *Service) EditForm(ctx context.Context, actor models.User, id uuid.UUID, in FormInput) (*FormRecord, error) {
	if err := requireAdmin(actor, "edit forms"); err != nil {
		return nil, err
	}
	current, err := s.loadForm(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case models.FormStatusDeleted:
		return nil, fault.InvalidStatef("restore %q before editing it", current.Title)
	case models.FormStatusTemplate:
		return nil, fault.InvalidStatef("templates cannot be edited; start a new form from it instead")
	}
	in, err = s.normalizeInput(ctx, in)
	if err != nil {
		return nil, err
	}

	rec := &FormRecord{}
	err = s.atomically(ctx, "edit form", func(st Store, undo *undoLog) error {
		if err := removeSections(ctx, st, undo, id); err != nil {
			return err
		}

		form, err := s.loadForm(ctx, st, id)
		if err != nil {
			return err
		}
		previous := *form
		form.Title = in.Title
		form.DueDate = in.DueDate.Ptr()
		form.Status = in.Status
		if err := st.Forms().Update(ctx, form); err != nil {
			return fault.Persist(err, "update form")
		}
		undo.push("restore form "+id.String(), func(ctx context.Context) error {
			return st.Forms().Update(ctx, &previous)
		})

		sections, responses, err := insertSections(ctx, st, undo, id, in.Sections, true)
		if err != nil {
			return err
		}
		rec.Form, rec.Sections, rec.Responses = *form, sections, responses
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec.Notifications = []models.Notification{s.notice(`Form "%s" has been updated.`, rec.Form.Title)}
	return rec, nil
}

// setStatus moves a form from one of the allowed statuses to next.
func (s *Service) setStatus(ctx context.Context, actor models.User, id uuid.UUID, action string, next models.FormStatus, allowed func(models.FormStatus) bool) (*models.Form, error) {
	if err := requireAdmin(actor, action); err != nil {
		return nil, err
	}
	form, err := s.loadForm(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if !allowed(form.Status) {
		return nil, fault.InvalidStatef("cannot %s a %s form", action, form.Status)
	}
	form.Status = next
	if err := s.store.Forms().Update(ctx, form); err != nil {
		return nil, fault.Persist(err, "update form status")
	}
	return form, nil
}

// PublishForm makes a draft visible to its assignees.
func (s *Service) PublishForm(ctx context.Context, actor models.User, id uuid.UUID) (*models.Form, error) {
	return s.setStatus(ctx, actor, id, "publish", models.FormStatusPublished, func(st models.FormStatus) bool {
		return st == models.FormStatusDraft
	})
}

// DeleteForm moves a form to the trash. Its sections and responses stay.
func (s *Service) DeleteForm(ctx context.Context, actor models.User, id uuid.UUID) (*models.Form, error) {
	return s.setStatus(ctx, actor, id, "trash", models.FormStatusDeleted, func(st models.FormStatus) bool {
		return st != models.FormStatusDeleted
	})
}

// RestoreForm takes a form out of the trash. It always comes back as a
// draft and has to be published again.
func (s *Service) RestoreForm(ctx context.Context, actor models.User, id uuid.UUID) (*models.Form, error) {
	return s.setStatus(ctx, actor, id, "restore", models.FormStatusDraft, func(st models.FormStatus) bool {
		return st == models.FormStatusDeleted
	})
}

// PurgeForm permanently removes a form, its sections and their responses,
// and returns the form as it was before deletion so callers can drop
// anything keyed by its share id. Nothing is touched unless
// confirm.Confirmed is set.
func (s *Service) PurgeForm(ctx context.Context, actor models.User, id uuid.UUID, confirm Confirmation) (*models.Form, error) {
	if err := requireAdmin(actor, "delete forms permanently"); err != nil {
		return nil, err
	}
	if !confirm.Confirmed {
		return nil, fault.New(fault.ConfirmationRequired, "permanent deletion must be confirmed")
	}
	if _, err := s.loadForm(ctx, s.store, id); err != nil {
		return nil, err
	}

	var purged *models.Form
	err := s.atomically(ctx, "purge form", func(st Store, undo *undoLog) error {
		if err := removeSections(ctx, st, undo, id); err != nil {
			return err
		}
		form, err := s.loadForm(ctx, st, id)
		if err != nil {
			return err
		}
		if err := st.Forms().Delete(ctx, id); err != nil {
			return fault.Persist(err, "delete form")
		}
		undo.push("restore form "+id.String(), func(ctx context.Context) error {
			return st.Forms().Insert(ctx, form)
		})
		purged = form
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purged, nil
}

// cloneForm copies source's sections into a new form with the given title
// and status.
func (s *Service) cloneForm(ctx context.Context, actor models.User, source *models.Form, title string, status models.FormStatus, withResponses bool) (*FormRecord, error) {
	rec := &FormRecord{}
	err := s.atomically(ctx, "copy form", func(st Store, undo *undoLog) error {
		sections, err := st.Sections().ListByForm(ctx, source.ID)
		if err != nil {
			return fault.Persist(err, "load sections")
		}
		models.SortSections(sections)

		form := models.Form{Title: title, CreatedBy: actor.ID, Status: status}
		if err := st.Forms().Insert(ctx, &form); err != nil {
			return fault.Persist(err, "insert form")
		}
		undo.push("delete form "+form.ID.String(), func(ctx context.Context) error {
			return st.Forms().Delete(ctx, form.ID)
		})

		in := make([]SectionInput, len(sections))
		for i, sec := range sections {
			in[i] = SectionInput{Title: sec.Title, AssignedTo: sec.AssignedTo, Questions: sec.Questions}
		}
		newSections, responses, err := insertSections(ctx, st, undo, form.ID, in, withResponses)
		if err != nil {
			return err
		}
		rec.Form, rec.Sections, rec.Responses = form, newSections, responses
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DuplicateForm copies a draft into a new draft titled "Copy of ...". The
// copy has no due date and fresh pending responses.
func (s *Service) DuplicateForm(ctx context.Context, actor models.User, id uuid.UUID) (*FormRecord, error) {
	if err := requireAdmin(actor, "duplicate forms"); err != nil {
		return nil, err
	}
	source, err := s.loadForm(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if source.Status != models.FormStatusDraft {
		return nil, fault.InvalidStatef("only drafts can be duplicated")
	}

	rec, err := s.cloneForm(ctx, actor, source, models.CopyTitlePrefix+source.Title, models.FormStatusDraft, true)
	if err != nil {
		return nil, err
	}
	rec.Notifications = []models.Notification{s.notice(`Draft "%s" duplicated successfully.`, source.Title)}
	return rec, nil
}

// SaveAsTemplate stores a reusable copy of a form's sections. Templates
// carry no responses.
func (s *Service) SaveAsTemplate(ctx context.Context, actor models.User, id uuid.UUID) (*FormRecord, error) {
	if err := requireAdmin(actor, "create templates"); err != nil {
		return nil, err
	}
	source, err := s.loadForm(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if source.IsDeleted() {
		return nil, fault.InvalidStatef("restore %q before saving it as a template", source.Title)
	}

	title := models.TemplateTitlePrefix + stripTemplatePrefix(source.Title)
	rec, err := s.cloneForm(ctx, actor, source, title, models.FormStatusTemplate, false)
	if err != nil {
		return nil, err
	}
	rec.Notifications = []models.Notification{s.notice(`"%s" saved as a new template.`, source.Title)}
	return rec, nil
}

// InstantiateFromTemplate returns an unsaved draft payload pre-filled from
// a template. The template itself is not modified.
func (s *Service) InstantiateFromTemplate(ctx context.Context, actor models.User, templateID uuid.UUID) (*FormInput, error) {
	if err := requireAdmin(actor, "create forms"); err != nil {
		return nil, err
	}
	tmpl, err := s.loadForm(ctx, s.store, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl.Status != models.FormStatusTemplate {
		return nil, fault.InvalidStatef("%q is not a template", tmpl.Title)
	}
	sections, err := s.store.Sections().ListByForm(ctx, tmpl.ID)
	if err != nil {
		return nil, fault.Persist(err, "load sections")
	}
	models.SortSections(sections)

	draft := &FormInput{
		Title:    stripTemplatePrefix(tmpl.Title),
		Status:   models.FormStatusDraft,
		Sections: make([]SectionInput, 0, len(sections)),
	}
	for _, sec := range sections {
		questions := make(models.Questions, len(sec.Questions))
		copy(questions, sec.Questions)
		draft.Sections = append(draft.Sections, SectionInput{
			Title:      sec.Title,
			AssignedTo: sec.AssignedTo,
			Questions:  questions,
		})
	}
	return draft, nil
}

// stripTemplatePrefix removes a leading "[Template]" marker, ignoring case
// and the whitespace after it.
func stripTemplatePrefix(title string) string {
	marker := strings.TrimSpace(models.TemplateTitlePrefix)
	if len(title) >= len(marker) && strings.EqualFold(title[:len(marker)], marker) {
		return strings.TrimLeft(title[len(marker):], " \t")
	}
	return title
}

// ShareForm returns the public share token of a form, issuing one on the
// first call. Later calls return the same token.
func (s *Service) ShareForm(ctx context.Context, actor models.User, id uuid.UUID) (*models.Form, error) {
	if err := requireAdmin(actor, "share forms"); err != nil {
		return nil, err
	}
	form, err := s.loadForm(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if form.HasShareID() {
		return form, nil
	}
	token := uuid.NewString()
	form.ShareID = &token
	if err := s.store.Forms().Update(ctx, form); err != nil {
		return nil, fault.Persist(err, "save share id")
	}
	return form, nil
}

// PublicForm is the read-only view served on a share link.
type PublicForm struct {
	Form     models.Form     `json:"form"`
	Progress Progress        `json:"progress"`
	Sections []PublicSection `json:"sections"`
}

// StaleAt returns when the view's progress flips to overdue on its own,
// with no write to the form. It is zero when that cannot happen.
func (pf *PublicForm) StaleAt() time.Time {
	if pf.Form.DueDate == nil || pf.Progress.IsComplete || pf.Progress.IsOverdue {
		return time.Time{}
	}
	return dueMidnight(*pf.Form.DueDate)
}

// PublicSection is one section of a shared form.
type PublicSection struct {
	Title     string                `json:"title"`
	Order     int                   `json:"order"`
	Assignee  string                `json:"assignee"`
	Status    models.ResponseStatus `json:"status"`
	Questions models.Questions      `json:"questions"`
	Answers   models.Answers        `json:"answers,omitempty"`
}

// ResolveShare looks up a published form by its share token. Unknown
// tokens and forms that are not published both report NotFound.
func (s *Service) ResolveShare(ctx context.Context, shareID string) (*PublicForm, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return nil, fault.NotFoundf("shared form not found")
	}
	form, err := s.store.Forms().FindByShareID(ctx, shareID)
	if err != nil {
		return nil, fault.Persist(err, "load shared form")
	}
	if form == nil || !form.IsPublished() {
		return nil, fault.NotFoundf("shared form not found")
	}

	sections, err := s.store.Sections().ListByForm(ctx, form.ID)
	if err != nil {
		return nil, fault.Persist(err, "load sections")
	}
	models.SortSections(sections)
	responses, err := s.store.Responses().ListBySections(ctx, models.SectionIDs(sections))
	if err != nil {
		return nil, fault.Persist(err, "load responses")
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fault.Persist(err, "load users")
	}

	byID := models.ResponsesBySection(responses)
	out := &PublicForm{
		Form:     *form,
		Progress: ComputeProgress(*form, sections, responses, s.now()),
	}
	for _, sec := range sections {
		ps := PublicSection{
			Title:     sec.Title,
			Order:     sec.Order,
			Status:    models.ResponseStatusPending,
			Questions: sec.Questions,
		}
		if u := findUser(users, sec.AssignedTo); u != nil {
			ps.Assignee = u.Name
		}
		if r := byID[sec.ID]; r != nil {
			ps.Status = r.Status
			if r.IsCompleted() {
				ps.Answers = r.Content
			}
		}
		out.Sections = append(out.Sections, ps)
	}
	return out, nil
}
