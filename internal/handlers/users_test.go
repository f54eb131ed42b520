package handlers

import (
	"net/http"
	"strings"
	"testing"

	"collabforms/internal/models"
)

func TestListUsers(t *testing.T) {
	e := newTestEnv(t)
	rec := call(t, e.api.ListUsers, http.MethodGet, "/api/users", nil, &e.viewer, nil)
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Users []models.User `json:"users"`
	}
	decode(t, rec, &body)
	if len(body.Users) != 4 {
		t.Errorf("users = %d, want 4", len(body.Users))
	}
	if strings.Contains(rec.Body.String(), "pin") {
		t.Error("directory exposes PIN data")
	}
}

func TestCreateUser(t *testing.T) {
	e := newTestEnv(t)

	rec := call(t, e.api.CreateUser, http.MethodPost, "/api/users",
		map[string]any{"name": "Eve Adams", "email": "Eve@Example.com", "role": "Viewer", "pin": "5555"}, &e.admin, nil)
	assertStatus(t, rec, http.StatusCreated)

	var u models.User
	decode(t, rec, &u)
	if u.Email != "eve@example.com" || u.Role != models.RoleViewer || u.Color == "" {
		t.Errorf("user = %+v", u)
	}
	if msgs := e.notifier.messages(); len(msgs) != 1 || !strings.Contains(msgs[0], "Eve Adams") {
		t.Errorf("notifications = %v", msgs)
	}

	tests := []struct {
		name  string
		actor models.User
		body  map[string]any
		want  int
	}{
		{"not admin", e.users[0], map[string]any{"name": "X", "email": "x@example.com", "role": "User"}, http.StatusForbidden},
		{"duplicate email", e.admin, map[string]any{"name": "X", "email": "BOB@example.com", "role": "User"}, http.StatusBadRequest},
		{"bad role", e.admin, map[string]any{"name": "X", "email": "x@example.com", "role": "Owner"}, http.StatusBadRequest},
		{"bad pin", e.admin, map[string]any{"name": "X", "email": "x@example.com", "role": "User", "pin": "12a4"}, http.StatusBadRequest},
		{"long name", e.admin, map[string]any{"name": strings.Repeat("n", maxUserNameLen+1), "email": "x@example.com", "role": "User"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, e.api.CreateUser, http.MethodPost, "/api/users", tt.body, &tt.actor, nil)
			assertStatus(t, rec, tt.want)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	e := newTestEnv(t)
	self := e.users[0]
	params := map[string]string{"id": self.ID.String()}

	rec := call(t, e.api.UpdateUser, http.MethodPut, "/api/users/x",
		map[string]any{"name": "Robert Jones"}, &self, params)
	assertStatus(t, rec, http.StatusOK)

	var u models.User
	decode(t, rec, &u)
	if u.Name != "Robert Jones" {
		t.Errorf("name = %q", u.Name)
	}
	if e.shares.cleared != 1 {
		t.Errorf("share cache cleared %d times, want 1", e.shares.cleared)
	}

	rec = call(t, e.api.UpdateUser, http.MethodPut, "/api/users/x",
		map[string]any{"role": "Admin"}, &self, params)
	assertStatus(t, rec, http.StatusForbidden)

	rec = call(t, e.api.UpdateUser, http.MethodPut, "/api/users/x",
		map[string]any{"name": "Hacked"}, &e.users[1], params)
	assertStatus(t, rec, http.StatusForbidden)

	rec = call(t, e.api.UpdateUser, http.MethodPut, "/api/users/x",
		map[string]any{"role": "Viewer"}, &e.admin, params)
	assertStatus(t, rec, http.StatusOK)
}
