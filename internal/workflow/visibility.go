// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

// VisibleForms returns the forms shown in an actor's main listing. Admins
// and viewers see every published form; users see the published forms in
// which at least one section is assigned to them.
func VisibleForms(actor models.User, forms []models.Form, sections []models.Section) []models.Form {
	assigned := make(map[uuid.UUID]bool)
	if actor.Role == models.RoleUser {
		for _, s := range sections {
			if s.AssignedTo == actor.ID {
				assigned[s.FormID] = true
			}
		}
	}

	var out []models.Form
	for _, f := range forms {
		if !f.IsPublished() {
			continue
		}
		switch actor.Role {
		case models.RoleAdmin, models.RoleViewer:
			out = append(out, f)
		case models.RoleUser:
			if assigned[f.ID] {
				out = append(out, f)
			}
		}
	}
	return out
}

// View selects one of the dashboard listings.
type View string

const (
	ViewPublished View = "published"
	ViewDrafts    View = "drafts"
	ViewTemplates View = "templates"
	ViewTrash     View = "trash"
)

// ParseView converts a query value into a View. An empty value selects the
// published listing.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewPublished, nil
	case ViewPublished, ViewDrafts, ViewTemplates, ViewTrash:
		return v, nil
	}
	return "", fault.Validationf("unknown view %q", s)
}

func (v View) status() models.FormStatus {
	switch v {
	case ViewDrafts:
		return models.FormStatusDraft
	case ViewTemplates:
		return models.FormStatusTemplate
	case ViewTrash:
		return models.FormStatusDeleted
	}
	return models.FormStatusPublished
}

// ListFilter narrows a listing.
type ListFilter struct {
	Query     string        // case-insensitive title substring
	CreatorID uuid.UUID     // admins only; zero means any creator
	State     ProgressState // published view only; empty means any
}

// ListEntry is one row of a listing.
type ListEntry struct {
	Form        models.Form `json:"form"`
	Progress    Progress    `json:"progress"`
	CreatorName string      `json:"creator_name"`
}

// Listing builds the rows of a dashboard view for actor. The drafts,
// templates and trash views are admin-only.
func Listing(actor models.User, view View, filter ListFilter, snap *Snapshot, now time.Time) ([]ListEntry, error) {
	if view != ViewPublished && !actor.IsAdmin() {
		return nil, fault.Deniedf("only admins can open the %s view", view)
	}

	var candidates []models.Form
	if view == ViewPublished {
		candidates = VisibleForms(actor, snap.Forms, snap.Sections)
	} else {
		for _, f := range snap.Forms {
			if f.Status == view.status() {
				candidates = append(candidates, f)
			}
		}
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	entries := make([]ListEntry, 0, len(candidates))
	for _, f := range candidates {
		if query != "" && !strings.Contains(strings.ToLower(f.Title), query) {
			continue
		}
		if actor.IsAdmin() && filter.CreatorID != uuid.Nil && f.CreatedBy != filter.CreatorID {
			continue
		}

		p := ComputeProgress(f, snap.Sections, snap.Responses, now)
		if view == ViewPublished && filter.State != "" && p.State != filter.State {
			continue
		}

		e := ListEntry{Form: f, Progress: p}
		if u := snap.User(f.CreatedBy); u != nil {
			e.CreatorName = u.Name
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Creators returns the users who created at least one non-template form,
// for the creator filter.
func Creators(snap *Snapshot) []models.User {
	seen := make(map[uuid.UUID]bool)
	var out []models.User
	for _, f := range snap.Forms {
		if f.Status == models.FormStatusTemplate || seen[f.CreatedBy] {
			continue
		}
		seen[f.CreatedBy] = true
		if u := snap.User(f.CreatedBy); u != nil {
			out = append(out, *u)
		}
	}
	return out
}

// ListForms loads the store and builds a listing for actor.
func (s *Service) ListForms(ctx context.Context, actor models.User, view View, filter ListFilter) ([]ListEntry, error) {
	if view != ViewPublished && !actor.IsAdmin() {
		return nil, fault.Deniedf("only admins can open the %s view", view)
	}
	snap, err := LoadSnapshot(ctx, s.store)
	if err != nil {
		return nil, fault.Persist(err, "load forms")
	}
	return Listing(actor, view, filter, snap, s.now())
}

// ListCreators returns the options of the admin creator filter.
func (s *Service) ListCreators(ctx context.Context, actor models.User) ([]models.User, error) {
	if err := requireAdmin(actor, "filter by creator"); err != nil {
		return nil, err
	}
	snap, err := LoadSnapshot(ctx, s.store)
	if err != nil {
		return nil, fault.Persist(err, "load forms")
	}
	return Creators(snap), nil
}
