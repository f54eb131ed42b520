// Package router sets up all HTTP routes and middleware chains for
// collabforms. It organizes routes into a public share surface and an
// authenticated JSON API whose routes are gated by the role policy.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"collabforms/internal/handlers"
	"collabforms/internal/middleware"
	"collabforms/internal/policy"
)

// Deps holds everything the router wires together.
type Deps struct {
	Sessions      middleware.SessionReader
	Users         middleware.UserFinder
	Policy        middleware.Authorizer
	LoginLimiter  *middleware.RateLimiter
	Stream        http.Handler // notification websocket
	SecureCookies bool

	Auth   *handlers.Auth
	API    *handlers.API
	Public *handlers.Public
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(d.SecureCookies))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Public share links, read-only and unauthenticated.
	r.Get("/share/{shareID}", d.Public.SharePage)
	r.Get("/share/{shareID}/qr.png", d.Public.ShareQR)

	r.Route("/api", func(r chi.Router) {
		r.Get("/share/{shareID}", d.Public.ShareJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewCSRF(d.SecureCookies))
			r.Use(middleware.LoadActor(d.Sessions, d.Users))

			// PIN login: accessible without a session, throttled per IP.
			r.With(d.LoginLimiter.Middleware).Post("/session", d.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				can := func(action policy.Action) func(http.Handler) http.Handler {
					return middleware.Authorize(d.Policy, action)
				}

				r.Delete("/session", d.Auth.Logout)
				r.Get("/me", d.Auth.Me)

				// Forms
				r.Route("/forms", func(r chi.Router) {
					r.With(can(policy.FormRead)).Get("/", d.API.ListForms)
					r.With(can(policy.FormRead)).Get("/{id}", d.API.GetForm)

					r.Group(func(r chi.Router) {
						r.Use(can(policy.FormManage))
						r.Get("/creators", d.API.ListCreators)
						r.Post("/", d.API.CreateForm)
						r.Put("/{id}", d.API.EditForm)
						r.Delete("/{id}", d.API.PurgeForm)
						r.Post("/{id}/publish", d.API.PublishForm)
						r.Post("/{id}/trash", d.API.TrashForm)
						r.Post("/{id}/restore", d.API.RestoreForm)
						r.Post("/{id}/duplicate", d.API.DuplicateForm)
						r.Post("/{id}/template", d.API.SaveAsTemplate)
						r.Post("/{id}/share", d.API.ShareForm)
					})
				})

				// Templates
				r.With(can(policy.FormManage)).Get("/templates/{id}/draft", d.API.TemplateDraft)

				// Sections
				r.With(can(policy.SectionSubmit)).Post("/sections/{id}/submit", d.API.SubmitSection)
				r.With(can(policy.SectionUpload)).Post("/sections/{id}/uploads", d.API.CreateUpload)

				// Users
				r.With(can(policy.UserRead)).Get("/users", d.API.ListUsers)
				r.With(can(policy.UserManage)).Post("/users", d.API.CreateUser)
				r.With(can(policy.UserUpdate)).Put("/users/{id}", d.API.UpdateUser)

				// Notifications
				r.With(can(policy.NotificationRead)).Get("/notifications", d.API.ListNotifications)
				r.With(can(policy.NotificationRead)).Get("/notifications/stream", d.Stream.ServeHTTP)
				r.With(can(policy.NotificationDismiss)).Delete("/notifications/{id}", d.API.DismissNotification)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
