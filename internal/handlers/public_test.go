// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"collabforms/internal/cache"
	"collabforms/internal/models"
	"collabforms/internal/workflow"
)

// sharedForm creates a published form with its first section submitted and
// returns its share id.
func sharedForm(t *testing.T, e *testEnv) (*workflow.FormRecord, string) {
	t.Helper()
	ctx := context.Background()
	form := e.createForm(t, models.FormStatusPublished)
	if _, err := e.svc.SubmitSection(ctx, e.users[0], form.Sections[0].ID, models.Answers{
		"q1": models.TextAnswer("Developers <script>alert(1)</script>"),
	}); err != nil {
		t.Fatalf("SubmitSection: %v", err)
	}
	shared, err := e.svc.ShareForm(ctx, e.admin, form.Form.ID)
	if err != nil {
		t.Fatalf("ShareForm: %v", err)
	}
	return form, *shared.ShareID
}

func TestSharePage(t *testing.T) {
	e := newTestEnv(t)
	_, shareID := sharedForm(t, e)
	params := map[string]string{"shareID": shareID}

	rec := call(t, e.public.SharePage, http.MethodGet, "/share/"+shareID, nil, nil, params)
	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}

	page := rec.Body.String()
	for _, want := range []string{
		"Q3 Project Proposal",
		"Marketing Plan",
		"<strong>target</strong>",
		"Developers &lt;script&gt;",
		"Pending submission.",
		"data:image/png;base64,",
		testBaseURL + "/share/" + shareID,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Error("answer rendered without escaping")
	}

	if _, ok := e.shares.Get(context.Background(), shareID, cache.FormatHTML); !ok {
		t.Error("rendered page was not cached")
	}

	// A cached entry is served as is.
	e.shares.Set(context.Background(), shareID, cache.FormatHTML, []byte("cached"), time.Time{})
	rec = call(t, e.public.SharePage, http.MethodGet, "/share/"+shareID, nil, nil, params)
	if rec.Body.String() != "cached" {
		t.Errorf("body = %q, want cached entry", rec.Body.String())
	}
}

func TestShareJSON(t *testing.T) {
	e := newTestEnv(t)
	_, shareID := sharedForm(t, e)

	rec := call(t, e.public.ShareJSON, http.MethodGet, "/api/share/"+shareID, nil, nil, map[string]string{"shareID": shareID})
	assertStatus(t, rec, http.StatusOK)

	var body workflow.PublicForm
	decode(t, rec, &body)
	if body.Progress.CompletedCount != 1 || body.Progress.SectionCount != 2 {
		t.Errorf("progress = %+v", body.Progress)
	}
	if body.Sections[0].Assignee != "Bob Jones" || body.Sections[0].Answers == nil {
		t.Errorf("first section = %+v", body.Sections[0])
	}
	if body.Sections[1].Answers != nil {
		t.Errorf("pending section exposes answers: %+v", body.Sections[1].Answers)
	}
	if _, ok := e.shares.Get(context.Background(), shareID, cache.FormatJSON); !ok {
		t.Error("JSON view was not cached")
	}
}

func TestShareCacheExpiresWhenFormTurnsOverdue(t *testing.T) {
	dueSoon := models.NewDate(testNow.AddDate(0, 0, 2))
	pastDue := models.NewDate(testNow.AddDate(0, 0, -2))

	tests := []struct {
		name string
		due  *models.Date
		want time.Time
	}{
		{"no due date", nil, time.Time{}},
		{"due in two days", &dueSoon, time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC)},
		{"already overdue", &pastDue, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			ctx := context.Background()
			in := e.formInput(models.FormStatusPublished)
			in.DueDate = tt.due
			form, err := e.svc.CreateForm(ctx, e.admin, in)
			if err != nil {
				t.Fatalf("CreateForm: %v", err)
			}
			shared, err := e.svc.ShareForm(ctx, e.admin, form.Form.ID)
			if err != nil {
				t.Fatalf("ShareForm: %v", err)
			}
			shareID := *shared.ShareID
			params := map[string]string{"shareID": shareID}

			assertStatus(t, call(t, e.public.ShareJSON, http.MethodGet, "/api/share/"+shareID, nil, nil, params), http.StatusOK)
			assertStatus(t, call(t, e.public.SharePage, http.MethodGet, "/share/"+shareID, nil, nil, params), http.StatusOK)

			for _, f := range []cache.Format{cache.FormatJSON, cache.FormatHTML} {
				if got := e.shares.until[cache.ShareKey(shareID, f)]; !got.Equal(tt.want) {
					t.Errorf("%s cached until %v, want %v", f, got, tt.want)
				}
			}
		})
	}
}

func TestShareNotFound(t *testing.T) {
	e := newTestEnv(t)
	form, shareID := sharedForm(t, e)

	rec := call(t, e.public.SharePage, http.MethodGet, "/share/nope", nil, nil, map[string]string{"shareID": "nope"})
	assertStatus(t, rec, http.StatusNotFound)

	if _, err := e.svc.DeleteForm(context.Background(), e.admin, form.Form.ID); err != nil {
		t.Fatalf("DeleteForm: %v", err)
	}
	rec = call(t, e.public.ShareJSON, http.MethodGet, "/api/share/x", nil, nil, map[string]string{"shareID": shareID})
	assertStatus(t, rec, http.StatusNotFound)
	assertErrorKind(t, rec, "not_found")

	rec = call(t, e.public.ShareQR, http.MethodGet, "/share/x/qr.png", nil, nil, map[string]string{"shareID": shareID})
	assertStatus(t, rec, http.StatusNotFound)
}

func TestShareQR(t *testing.T) {
	e := newTestEnv(t)
	_, shareID := sharedForm(t, e)

	rec := call(t, e.public.ShareQR, http.MethodGet, "/share/x/qr.png", nil, nil, map[string]string{"shareID": shareID})
	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}
