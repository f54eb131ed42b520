package handlers

import (
	"net/http"

	"collabforms/internal/workflow"
)

// ListUsers returns the user directory.
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// CreateUser adds a user to the directory.
func (a *API) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in workflow.UserInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateUserName(in.Name); err != nil {
		respondError(w, r, err)
		return
	}

	u, notes, err := a.service.CreateUser(r.Context(), actor(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.publish(r.Context(), notes)
	respondJSON(w, http.StatusCreated, u)
}

// UpdateUser edits a profile. Share views show assignee names, so all of
// them are dropped.
func (a *API) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in workflow.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if in.Name != nil {
		if err := validateUserName(*in.Name); err != nil {
			respondError(w, r, err)
			return
		}
	}

	u, notes, err := a.service.UpdateUser(r.Context(), actor(r), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.shares.InvalidateAll(r.Context())
	a.publish(r.Context(), notes)
	respondJSON(w, http.StatusOK, u)
}
