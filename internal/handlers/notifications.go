package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

type notificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

// ListNotifications returns the feed, newest first.
func (a *API) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := a.notifier.List(r.Context())
	if err != nil {
		respondError(w, r, fault.Persist(err, "list notifications"))
		return
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	respondJSON(w, http.StatusOK, notificationsResponse{Notifications: notes})
}

// DismissNotification removes one entry from the feed.
func (a *API) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, r, fault.NotFoundf("notification not found"))
		return
	}
	ok, err := a.notifier.Dismiss(r.Context(), id)
	if err != nil {
		respondError(w, r, fault.Persist(err, "dismiss notification %d", id))
		return
	}
	if !ok {
		respondError(w, r, fault.NotFoundf("notification not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
