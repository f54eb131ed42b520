// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"collabforms/internal/fault"
	"collabforms/internal/models"
	"collabforms/internal/storage"
)

type submitRequest struct {
	Answers models.Answers `json:"answers"`
}

// SubmitSection stores the caller's answers for an assigned section and
// broadcasts the resulting notifications.
func (a *API) SubmitSection(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	// File answers must point at objects issued for this section. Download
	// URLs are signed on read and never stored.
	ids := make([]string, 0, len(req.Answers))
	for qid := range req.Answers {
		ids = append(ids, qid)
	}
	sort.Strings(ids)
	for _, qid := range ids {
		ans := req.Answers[qid]
		if ans.Kind != models.AnswerFile || ans.File == nil {
			continue
		}
		if !storage.BelongsTo(ans.File.Key, id) {
			respondError(w, r, fault.Validationf("file for question %q was not uploaded to this section", qid))
			return
		}
		meta := *ans.File
		meta.URL = ""
		req.Answers[qid] = models.FileAnswer(meta)
	}

	sub, err := a.service.SubmitSection(r.Context(), actor(r), id, req.Answers)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if sec, err := a.service.Store().Sections().FindByID(r.Context(), id); err == nil && sec != nil {
		a.invalidateByID(r.Context(), sec.FormID)
	}
	a.publish(r.Context(), sub.Notifications)
	respondJSON(w, http.StatusOK, sub)
}

type uploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type uploadResponse struct {
	Upload *storage.Upload `json:"upload"`
	File   models.FileMeta `json:"file"`
}

// CreateUpload issues a presigned PUT URL for a file answer. The client
// uploads the file directly and then submits the returned file metadata
// as the answer.
func (a *API) CreateUpload(w http.ResponseWriter, r *http.Request) {
	if a.uploader == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "file uploads are not configured"})
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, r, fault.Validationf("file name is required"))
		return
	}
	if req.Size <= 0 || req.Size > storage.MaxUploadSize {
		respondError(w, r, fault.Validationf("file size must be between 1 and %d bytes", storage.MaxUploadSize))
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	section, err := a.service.PrepareUpload(r.Context(), actor(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	key := storage.ObjectKey(section.ID, req.Name)
	up, err := a.uploader.PresignUpload(r.Context(), key, req.ContentType, req.Size)
	if err != nil {
		slog.Error("presign upload failed", "section_id", section.ID, "error", err)
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: "could not prepare the upload"})
		return
	}

	respondJSON(w, http.StatusCreated, uploadResponse{
		Upload: up,
		File: models.FileMeta{
			Key:         key,
			Name:        req.Name,
			Size:        req.Size,
			ContentType: req.ContentType,
		},
	})
}
