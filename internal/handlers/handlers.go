// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for collabforms.
// Handlers are grouped by concern (auth, api, public) and receive
// their dependencies through the handler struct. The API speaks JSON;
// the only HTML page is the public share view.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"collabforms/internal/cache"
	"collabforms/internal/fault"
	"collabforms/internal/middleware"
	"collabforms/internal/models"
	"collabforms/internal/session"
	"collabforms/internal/storage"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Sessions creates and destroys login sessions.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// LoginGuard counts failed sign-ins per email.
type LoginGuard interface {
	Locked(ctx context.Context, email string) (bool, error)
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// Notifier stores and broadcasts notifications.
type Notifier interface {
	Publish(ctx context.Context, ns []models.Notification) error
	List(ctx context.Context) ([]models.Notification, error)
	Dismiss(ctx context.Context, id int64) (bool, error)
}

// ShareCache holds rendered share views.
type ShareCache interface {
	Get(ctx context.Context, shareID string, f cache.Format) ([]byte, bool)
	Set(ctx context.Context, shareID string, f cache.Format, body []byte, until time.Time)
	Invalidate(ctx context.Context, shareID string)
	InvalidateAll(ctx context.Context)
}

// Uploader issues presigned object storage URLs for file answers.
type Uploader interface {
	PresignUpload(ctx context.Context, key, contentType string, size int64) (*storage.Upload, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// respondError maps a workflow error to its HTTP status. Persistence
// faults are logged and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := fault.KindOf(err)
	msg := "internal server error"
	if f, ok := fault.As(err); ok && fault.IsClientError(err) {
		msg = f.Message
	} else {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, kind.HTTPStatus(), errorResponse{Error: msg, Kind: kind.String()})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fault.Validationf("request body exceeds %d bytes", maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fault.Validationf("request body is empty")
		}
		return fault.Validationf("malformed request body: %v", err)
	}
	if dec.More() {
		return fault.Validationf("request body has trailing data")
	}
	return nil
}

// idParam parses a UUID URL parameter.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fault.NotFoundf("%s %q not found", name, raw)
	}
	return id, nil
}

// actor returns the signed-in user. Routes that call it sit behind
// RequireAuth, so a missing actor is a wiring bug.
func actor(r *http.Request) models.User {
	u := middleware.ActorFromCtx(r.Context())
	if u == nil {
		panic(fmt.Sprintf("handlers: no actor on %s %s", r.Method, r.URL.Path))
	}
	return *u
}
