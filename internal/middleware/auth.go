// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"collabforms/internal/fault"
	"collabforms/internal/models"
	"collabforms/internal/policy"
	"collabforms/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"

	// ActorKey is the context key for the signed-in user.
	ActorKey contextKey = "actor"
)

// SessionReader loads the session attached to a request.
type SessionReader interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
}

// UserFinder resolves the user behind a session.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authorizer decides whether a user may perform a route action.
type Authorizer interface {
	Allowed(user *models.User, action policy.Action, route string) (bool, error)
}

// LoadActor retrieves the session from Valkey, loads the user it refers to
// and stores both in the request context. Downstream handlers can access
// them via SessionFromCtx() and ActorFromCtx(). The user is re-read on every
// request so role changes and deletions apply immediately. This middleware
// does NOT enforce authentication.
func LoadActor(sessions SessionReader, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := sessions.Get(r.Context(), r)
			if err != nil {
				// Log but don't block; treat as unauthenticated.
				slog.Warn("session load failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if data == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, data)
			user, err := users.FindByID(ctx, data.UserID)
			if err != nil {
				slog.Warn("session user lookup failed", "user_id", data.UserID, "error", err)
			}
			if user != nil {
				ctx = context.WithValue(ctx, ActorKey, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a signed-in user with 401.
// Must be applied after LoadActor in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFromCtx(r.Context()) == nil {
			writeFault(w, fault.New(fault.Unauthenticated, "sign in required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Authorize returns 403 unless the policy allows the signed-in user to
// perform action. Must be applied after RequireAuth.
func Authorize(authz Authorizer, action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromCtx(r.Context())
			ok, err := authz.Allowed(actor, action, r.URL.Path)
			if err != nil {
				slog.Error("policy evaluation failed", "action", action, "error", err)
				writeFault(w, fault.Wrap(fault.Internal, err, "authorization failed"))
				return
			}
			if !ok {
				writeFault(w, fault.Deniedf("you are not allowed to do that"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// ActorFromCtx extracts the signed-in user from the request context.
func ActorFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(ActorKey).(*models.User)
	return u
}

// WithActor returns a copy of ctx carrying user as the signed-in actor.
func WithActor(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ActorKey, user)
}
