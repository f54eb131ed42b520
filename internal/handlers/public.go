// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"collabforms/internal/cache"
	"collabforms/internal/fault"
	"collabforms/internal/render"
	"collabforms/internal/workflow"
)

// Public groups the unauthenticated share-link handlers. It checks the
// Valkey share cache before resolving the form, and stores rendered
// results on miss.
type Public struct {
	service  *workflow.Service
	renderer *render.Renderer
	shares   ShareCache
	uploader Uploader
	baseURL  string
}

// NewPublic creates a new Public handler group. uploader may be nil if S3
// is not configured.
func NewPublic(service *workflow.Service, renderer *render.Renderer, shares ShareCache, uploader Uploader, baseURL string) *Public {
	return &Public{
		service:  service,
		renderer: renderer,
		shares:   shares,
		uploader: uploader,
		baseURL:  baseURL,
	}
}

// resolve loads a shared form and signs its file answers.
func (p *Public) resolve(ctx context.Context, shareID string) (*workflow.PublicForm, error) {
	pf, err := p.service.ResolveShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	for i := range pf.Sections {
		pf.Sections[i].Answers = signFiles(ctx, p.uploader, pf.Sections[i].Answers)
	}
	return pf, nil
}

// SharePage renders the read-only HTML view of a shared form.
func (p *Public) SharePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shareID := chi.URLParam(r, "shareID")

	// Check L2 cache first.
	if cached, ok := p.shares.Get(ctx, shareID, cache.FormatHTML); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(cached)
		return
	}

	pf, err := p.resolve(ctx, shareID)
	if err != nil {
		if fault.Is(err, fault.NotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("resolve share failed", "share_id", shareID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	url := shareURL(p.baseURL, shareID)
	rendered, err := p.renderer.Share(&render.SharePage{
		Form:   pf,
		URL:    url,
		QRCode: render.QRDataURI(url),
	})
	if err != nil {
		slog.Error("render share page failed", "share_id", shareID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.shares.Set(ctx, shareID, cache.FormatHTML, rendered, pf.StaleAt())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(rendered)
}

// ShareJSON serves the same view as SharePage as JSON.
func (p *Public) ShareJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shareID := chi.URLParam(r, "shareID")

	if cached, ok := p.shares.Get(ctx, shareID, cache.FormatJSON); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	pf, err := p.resolve(ctx, shareID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	body, err := json.Marshal(pf)
	if err != nil {
		respondError(w, r, fault.Wrap(fault.Persistence, err, "encode shared form"))
		return
	}

	p.shares.Set(ctx, shareID, cache.FormatJSON, body, pf.StaleAt())

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// ShareQR serves a PNG QR code of a share link.
func (p *Public) ShareQR(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")
	if _, err := p.service.ResolveShare(r.Context(), shareID); err != nil {
		if fault.Is(err, fault.NotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("resolve share failed", "share_id", shareID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	png, err := render.QRCode(shareURL(p.baseURL, shareID))
	if err != nil {
		slog.Error("qr code failed", "share_id", shareID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}
