package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"collabforms/internal/models"
	"collabforms/internal/policy"
	"collabforms/internal/session"
)

// fakeSessions returns a fixed session (or error) for every request.
type fakeSessions struct {
	data *session.Data
	err  error
}

func (f fakeSessions) Get(context.Context, *http.Request) (*session.Data, error) {
	return f.data, f.err
}

// fakeUsers resolves ids from a map.
type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f[id], nil
}

// roleAuthorizer allows an action only for the listed roles.
type roleAuthorizer map[policy.Action][]models.Role

func (a roleAuthorizer) Allowed(u *models.User, action policy.Action, _ string) (bool, error) {
	if u == nil {
		return false, nil
	}
	for _, r := range a[action] {
		if u.Role == r {
			return true, nil
		}
	}
	return false, nil
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func newUser(role models.Role) *models.User {
	return &models.User{ID: uuid.New(), Name: "Test User", Email: "test@collabforms.local", Role: role}
}

func TestLoadActor(t *testing.T) {
	alice := newUser(models.RoleUser)
	users := fakeUsers{alice.ID: alice}

	tests := []struct {
		name      string
		sessions  fakeSessions
		wantActor bool
		wantSess  bool
	}{
		{"no session", fakeSessions{}, false, false},
		{"session error is ignored", fakeSessions{err: errors.New("valkey down")}, false, false},
		{"valid session", fakeSessions{data: &session.Data{UserID: alice.ID}}, true, true},
		{"session for a deleted user", fakeSessions{data: &session.Data{UserID: uuid.New()}}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actor *models.User
			var sess *session.Data
			handler := LoadActor(tt.sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actor = ActorFromCtx(r.Context())
				sess = SessionFromCtx(r.Context())
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))

			if (actor != nil) != tt.wantActor {
				t.Errorf("actor present = %v, want %v", actor != nil, tt.wantActor)
			}
			if actor != nil && actor.ID != alice.ID {
				t.Errorf("actor = %s, want %s", actor.ID, alice.ID)
			}
			if (sess != nil) != tt.wantSess {
				t.Errorf("session present = %v, want %v", sess != nil, tt.wantSess)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	t.Run("rejects anonymous requests with 401 JSON", func(t *testing.T) {
		next, called := okHandler()
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/forms", nil))

		if *called {
			t.Error("next handler should not be called")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		var body errorBody
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Kind != "unauthenticated" {
			t.Errorf("kind: got %q, want unauthenticated", body.Kind)
		}
	})

	t.Run("passes signed-in users through", func(t *testing.T) {
		next, called := okHandler()
		req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
		req = req.WithContext(WithActor(req.Context(), newUser(models.RoleViewer)))
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, req)

		if !*called || rr.Code != http.StatusOK {
			t.Errorf("called=%v status=%d, want pass-through", *called, rr.Code)
		}
	})
}

func TestAuthorize(t *testing.T) {
	authz := roleAuthorizer{policy.FormManage: {models.RoleAdmin}}

	tests := []struct {
		name       string
		actor      *models.User
		wantStatus int
	}{
		{"admin allowed", newUser(models.RoleAdmin), http.StatusOK},
		{"user forbidden", newUser(models.RoleUser), http.StatusForbidden},
		{"viewer forbidden", newUser(models.RoleViewer), http.StatusForbidden},
		{"anonymous forbidden", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			req := httptest.NewRequest(http.MethodPost, "/api/forms", nil)
			if tt.actor != nil {
				req = req.WithContext(WithActor(req.Context(), tt.actor))
			}
			rr := httptest.NewRecorder()
			Authorize(authz, policy.FormManage)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if *called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("next called = %v", *called)
			}
		})
	}
}

type failingAuthorizer struct{}

func (failingAuthorizer) Allowed(*models.User, policy.Action, string) (bool, error) {
	return false, errors.New("policy set unavailable")
}

func TestAuthorizePolicyErrorIsInternal(t *testing.T) {
	next, called := okHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/forms", nil)
	req = req.WithContext(WithActor(req.Context(), newUser(models.RoleAdmin)))
	rr := httptest.NewRecorder()
	Authorize(failingAuthorizer{}, policy.FormManage)(next).ServeHTTP(rr, req)

	if *called {
		t.Error("next handler should not be called")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
	var body errorBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Kind != "internal" {
		t.Errorf("kind: got %q, want internal", body.Kind)
	}
	if body.Error != "internal server error" {
		t.Errorf("error: got %q, want generic message", body.Error)
	}
}

func TestAuthorizeWithCedarPolicy(t *testing.T) {
	authz, err := policy.New()
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}

	next, _ := okHandler()
	handler := Authorize(authz, policy.SectionSubmit)(next)

	for role, want := range map[models.Role]int{
		models.RoleUser:   http.StatusOK,
		models.RoleAdmin:  http.StatusForbidden,
		models.RoleViewer: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/sections/x/submit", nil)
		req = req.WithContext(WithActor(req.Context(), newUser(role)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("%s: status %d, want %d", role, rr.Code, want)
		}
	}
}

func TestActorFromCtxEmpty(t *testing.T) {
	if ActorFromCtx(context.Background()) != nil {
		t.Error("expected nil actor on empty context")
	}
	if SessionFromCtx(context.Background()) != nil {
		t.Error("expected nil session on empty context")
	}
}
