// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"collabforms/internal/models"
	"collabforms/internal/workflow"
)

// API groups the JSON handlers for forms, sections, users and
// notifications.
type API struct {
	service  *workflow.Service
	notifier Notifier
	shares   ShareCache
	uploader Uploader // nil when object storage is not configured
	baseURL  string
}

// NewAPI creates a new API handler group. uploader may be nil if S3 is not
// configured; upload routes then answer 503.
func NewAPI(service *workflow.Service, notifier Notifier, shares ShareCache, uploader Uploader, baseURL string) *API {
	return &API{
		service:  service,
		notifier: notifier,
		shares:   shares,
		uploader: uploader,
		baseURL:  baseURL,
	}
}

// publish pushes notifications to the feed. The operation that produced
// them already succeeded, so failures are only logged.
func (a *API) publish(ctx context.Context, notes []models.Notification) {
	if len(notes) == 0 {
		return
	}
	if err := a.notifier.Publish(ctx, notes); err != nil {
		slog.Error("publish notifications failed", "count", len(notes), "error", err)
	}
}

// invalidate drops the cached share views of form, if it has been shared.
func (a *API) invalidate(ctx context.Context, form *models.Form) {
	if form != nil && form.HasShareID() {
		a.shares.Invalidate(ctx, *form.ShareID)
	}
}

// invalidateByID is invalidate for callers that only hold the form id.
func (a *API) invalidateByID(ctx context.Context, formID uuid.UUID) {
	form, err := a.service.Store().Forms().FindByID(ctx, formID)
	if err != nil {
		slog.Warn("share cache invalidation skipped", "form_id", formID, "error", err)
		return
	}
	a.invalidate(ctx, form)
}

// shareURL returns the public link for a share id.
func shareURL(baseURL, shareID string) string {
	return baseURL + "/share/" + shareID
}

// signFiles returns a copy of answers where every file answer carries a
// presigned download URL. Without an uploader answers are returned as is.
func signFiles(ctx context.Context, up Uploader, answers models.Answers) models.Answers {
	if up == nil || len(answers) == 0 {
		return answers
	}
	out := make(models.Answers, len(answers))
	for id, ans := range answers {
		if ans.Kind == models.AnswerFile && ans.File != nil && ans.File.Key != "" {
			meta := *ans.File
			url, err := up.PresignedURL(ctx, meta.Key)
			if err != nil {
				slog.Warn("presign file answer failed", "key", meta.Key, "error", err)
			} else {
				meta.URL = url
			}
			ans = models.FileAnswer(meta)
		}
		out[id] = ans
	}
	return out
}
