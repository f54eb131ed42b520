package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"collabforms/internal/fault"
	"collabforms/internal/models"
	"collabforms/internal/session"
	"collabforms/internal/workflow"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	service  *workflow.Service
	sessions Sessions
	guard    LoginGuard
}

// NewAuth creates a new Auth handler group.
func NewAuth(service *workflow.Service, sessions Sessions, guard LoginGuard) *Auth {
	return &Auth{
		service:  service,
		sessions: sessions,
		guard:    guard,
	}
}

type loginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

// Login checks an email and PIN and starts a session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx := r.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	locked, err := a.guard.Locked(ctx, email)
	if err != nil {
		respondError(w, r, fault.Persist(err, "check sign-in attempts"))
		return
	}
	if locked {
		slog.Warn("sign-in locked", "email", email)
		respondError(w, r, fault.New(fault.Throttled, "too many failed attempts, try again later"))
		return
	}

	user, err := a.service.Authenticate(ctx, email, req.PIN)
	if err != nil {
		if fault.Is(err, fault.PermissionDenied) {
			if ferr := a.guard.Fail(ctx, email); ferr != nil {
				slog.Error("record failed sign-in", "email", email, "error", ferr)
			}
		}
		respondError(w, r, err)
		return
	}
	if err := a.guard.Reset(ctx, email); err != nil {
		slog.Error("reset sign-in attempts", "email", email, "error", err)
	}

	_, err = a.sessions.Create(ctx, w, &session.Data{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		respondError(w, r, fault.Persist(err, "create session"))
		return
	}

	slog.Info("user signed in", "user_id", user.ID, "role", user.Role)
	respondJSON(w, http.StatusOK, meResponse{User: *user})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User models.User `json:"user"`
}

// Me returns the signed-in user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, meResponse{User: actor(r)})
}
