// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"collabforms/internal/fault"
	"collabforms/internal/models"
	"collabforms/internal/workflow"
)

type listResponse struct {
	View  workflow.View        `json:"view"`
	Forms []workflow.ListEntry `json:"forms"`
}

// ListForms serves one dashboard view with its search, creator and
// progress filters.
func (a *API) ListForms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := workflow.ParseView(q.Get("view"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	filter := workflow.ListFilter{Query: q.Get("q")}
	if raw := q.Get("creator"); raw != "" {
		if filter.CreatorID, err = uuid.Parse(raw); err != nil {
			respondError(w, r, fault.Validationf("invalid creator id %q", raw))
			return
		}
	}
	if raw := q.Get("state"); raw != "" {
		filter.State = workflow.ProgressState(raw)
		if !filter.State.Valid() {
			respondError(w, r, fault.Validationf("unknown progress state %q", raw))
			return
		}
	}

	entries, err := a.service.ListForms(r.Context(), actor(r), view, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{View: view, Forms: entries})
}

// ListCreators returns the users the dashboard can filter by.
func (a *API) ListCreators(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListCreators(r.Context(), actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"creators": users})
}

// CreateForm saves a new draft or published form.
func (a *API) CreateForm(w http.ResponseWriter, r *http.Request) {
	var in workflow.FormInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateFormInput(in); err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := a.service.CreateForm(r.Context(), actor(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.publish(r.Context(), rec.Notifications)
	respondJSON(w, http.StatusCreated, rec)
}

// GetForm returns a form with the sections the caller may read.
func (a *API) GetForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	detail, err := a.service.GetForm(r.Context(), actor(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	for i := range detail.Sections {
		detail.Sections[i].Answers = signFiles(r.Context(), a.uploader, detail.Sections[i].Answers)
	}
	respondJSON(w, http.StatusOK, detail)
}

// EditForm replaces a form's fields and sections.
func (a *API) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in workflow.FormInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateFormInput(in); err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := a.service.EditForm(r.Context(), actor(r), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), &rec.Form)
	a.publish(r.Context(), rec.Notifications)
	respondJSON(w, http.StatusOK, rec)
}

type transition func(ctx context.Context, actor models.User, id uuid.UUID) (*models.Form, error)

// statusHandler adapts a lifecycle transition to an HTTP handler.
func (a *API) statusHandler(fn transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		form, err := fn(r.Context(), actor(r), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		a.invalidate(r.Context(), form)
		respondJSON(w, http.StatusOK, form)
	}
}

// PublishForm moves a draft to published.
func (a *API) PublishForm(w http.ResponseWriter, r *http.Request) {
	a.statusHandler(a.service.PublishForm)(w, r)
}

// TrashForm moves a form to the trash.
func (a *API) TrashForm(w http.ResponseWriter, r *http.Request) {
	a.statusHandler(a.service.DeleteForm)(w, r)
}

// RestoreForm brings a trashed form back as a draft.
func (a *API) RestoreForm(w http.ResponseWriter, r *http.Request) {
	a.statusHandler(a.service.RestoreForm)(w, r)
}

// DuplicateForm copies a draft.
func (a *API) DuplicateForm(w http.ResponseWriter, r *http.Request) {
	a.recordHandler(w, r, a.service.DuplicateForm)
}

// SaveAsTemplate copies a form into the template library.
func (a *API) SaveAsTemplate(w http.ResponseWriter, r *http.Request) {
	a.recordHandler(w, r, a.service.SaveAsTemplate)
}

func (a *API) recordHandler(w http.ResponseWriter, r *http.Request, fn func(context.Context, models.User, uuid.UUID) (*workflow.FormRecord, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rec, err := fn(r.Context(), actor(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.publish(r.Context(), rec.Notifications)
	respondJSON(w, http.StatusCreated, rec)
}

type shareResponse struct {
	Form models.Form `json:"form"`
	URL  string      `json:"url"`
}

// ShareForm returns the public link of a form, issuing it on first use.
func (a *API) ShareForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	form, err := a.service.ShareForm(r.Context(), actor(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shareResponse{Form: *form, URL: shareURL(a.baseURL, *form.ShareID)})
}

// PurgeForm permanently deletes a trashed form. The caller must pass
// confirm=true.
func (a *API) PurgeForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	form, err := a.service.PurgeForm(r.Context(), actor(r), id, workflow.Confirmation{Confirmed: confirmed})
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), form)
	w.WriteHeader(http.StatusNoContent)
}

// TemplateDraft returns an editor payload prefilled from a template.
func (a *API) TemplateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	in, err := a.service.InstantiateFromTemplate(r.Context(), actor(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, in)
}
