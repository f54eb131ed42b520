package handlers

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"collabforms/internal/models"
)

func TestNotifications(t *testing.T) {
	e := newTestEnv(t)

	rec := call(t, e.api.ListNotifications, http.MethodGet, "/api/notifications", nil, &e.viewer, nil)
	assertStatus(t, rec, http.StatusOK)
	if got := rec.Body.String(); got != "{\"notifications\":[]}\n" {
		t.Errorf("empty feed = %q", got)
	}

	e.createForm(t, models.FormStatusDraft)
	notes, _ := e.notifier.List(context.Background())
	if len(notes) != 0 {
		t.Fatalf("service calls must not publish on their own, got %v", notes)
	}

	rec = call(t, e.api.CreateForm, http.MethodPost, "/api/forms", e.formInput(models.FormStatusDraft), &e.admin, nil)
	assertStatus(t, rec, http.StatusCreated)

	rec = call(t, e.api.ListNotifications, http.MethodGet, "/api/notifications", nil, &e.viewer, nil)
	var body notificationsResponse
	decode(t, rec, &body)
	if len(body.Notifications) != 1 {
		t.Fatalf("notifications = %+v", body.Notifications)
	}

	id := strconv.FormatInt(body.Notifications[0].ID, 10)
	rec = call(t, e.api.DismissNotification, http.MethodDelete, "/api/notifications/x", nil, &e.viewer, map[string]string{"id": id})
	assertStatus(t, rec, http.StatusNoContent)

	rec = call(t, e.api.DismissNotification, http.MethodDelete, "/api/notifications/x", nil, &e.viewer, map[string]string{"id": id})
	assertStatus(t, rec, http.StatusNotFound)

	rec = call(t, e.api.DismissNotification, http.MethodDelete, "/api/notifications/x", nil, &e.viewer, map[string]string{"id": "abc"})
	assertStatus(t, rec, http.StatusNotFound)
}
