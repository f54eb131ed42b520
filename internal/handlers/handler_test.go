// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory workflow store; Valkey, S3 and the
// session store are replaced by recording fakes.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"collabforms/internal/cache"
	"collabforms/internal/middleware"
	"collabforms/internal/models"
	"collabforms/internal/render"
	"collabforms/internal/session"
	"collabforms/internal/storage"
	"collabforms/internal/workflow"
	"collabforms/internal/workflow/workflowtest"
)

const testBaseURL = "https://forms.example.com"

var testNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

type fakeSessions struct {
	mu        sync.Mutex
	created   []*session.Data
	destroyed int
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, data)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "test-session"})
	return "test-session", nil
}

func (f *fakeSessions) Destroy(context.Context, http.ResponseWriter, *http.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
	return nil
}

// fakeGuard locks an email after max recorded failures.
type fakeGuard struct {
	mu    sync.Mutex
	max   int
	fails map[string]int
}

func newFakeGuard(max int) *fakeGuard {
	return &fakeGuard{max: max, fails: make(map[string]int)}
}

func (f *fakeGuard) Locked(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fails[email] >= f.max, nil
}

func (f *fakeGuard) Fail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[email]++
	return nil
}

func (f *fakeGuard) Reset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fails, email)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (f *fakeNotifier) Publish(_ context.Context, ns []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(ns, f.notes...)
	return nil
}

func (f *fakeNotifier) List(context.Context) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.notes...), nil
}

func (f *fakeNotifier) Dismiss(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.notes))
	for i, n := range f.notes {
		out[i] = n.Message
	}
	return out
}

type fakeShares struct {
	mu          sync.Mutex
	entries     map[string][]byte
	until       map[string]time.Time
	invalidated []string
	cleared     int
}

func newFakeShares() *fakeShares {
	return &fakeShares{entries: make(map[string][]byte), until: make(map[string]time.Time)}
}

func (f *fakeShares) Get(_ context.Context, shareID string, fm cache.Format) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.entries[cache.ShareKey(shareID, fm)]
	return b, ok
}

func (f *fakeShares) Set(_ context.Context, shareID string, fm cache.Format, body []byte, until time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[cache.ShareKey(shareID, fm)] = body
	f.until[cache.ShareKey(shareID, fm)] = until
}

func (f *fakeShares) Invalidate(_ context.Context, shareID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, shareID)
	delete(f.entries, cache.ShareKey(shareID, cache.FormatHTML))
	delete(f.entries, cache.ShareKey(shareID, cache.FormatJSON))
}

func (f *fakeShares) InvalidateAll(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.entries = make(map[string][]byte)
}

type fakeUploader struct{}

func (fakeUploader) PresignUpload(_ context.Context, key, _ string, _ int64) (*storage.Upload, error) {
	return &storage.Upload{
		Key:       key,
		URL:       "https://s3.test/bucket/" + key + "?X-Amz-Signature=put",
		Method:    http.MethodPut,
		ExpiresAt: testNow.Add(storage.UploadURLTTL),
	}, nil
}

func (fakeUploader) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://s3.test/bucket/" + key + "?X-Amz-Signature=get", nil
}

// testEnv wires the handler groups to an in-memory store and fakes.
type testEnv struct {
	store    *workflowtest.Store
	svc      *workflow.Service
	sessions *fakeSessions
	guard    *fakeGuard
	notifier *fakeNotifier
	shares   *fakeShares
	api      *API
	auth     *Auth
	public   *Public
	admin    models.User
	viewer   models.User
	users    []models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithUploader(t, fakeUploader{})
}

func newTestEnvWithUploader(t *testing.T, up Uploader) *testEnv {
	t.Helper()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	st := workflowtest.New()
	svc := workflow.NewService(st,
		workflow.WithClock(func() time.Time { return testNow }),
		workflow.WithSequence(&workflow.Sequence{}),
	)
	e := &testEnv{
		store:    st,
		svc:      svc,
		sessions: &fakeSessions{},
		guard:    newFakeGuard(3),
		notifier: &fakeNotifier{},
		shares:   newFakeShares(),
	}
	e.api = NewAPI(svc, e.notifier, e.shares, up, testBaseURL)
	e.auth = NewAuth(svc, e.sessions, e.guard)
	e.public = NewPublic(svc, renderer, e.shares, up, testBaseURL)

	e.admin = st.AddUser("Ada Admin", "ada@example.com", models.RoleAdmin)
	e.viewer = st.AddUser("Vic Viewer", "vic@example.com", models.RoleViewer)
	e.users = []models.User{
		st.AddUser("Bob Jones", "bob@example.com", models.RoleUser),
		st.AddUser("Carol White", "carol@example.com", models.RoleUser),
	}
	return e
}

// formInput builds an editor payload with one section per user.
func (e *testEnv) formInput(status models.FormStatus) workflow.FormInput {
	in := workflow.FormInput{Title: "Q3 Project Proposal", Status: status}
	for i, u := range e.users {
		in.Sections = append(in.Sections, workflow.SectionInput{
			Title:      []string{"Marketing Plan", "Sales Projections"}[i],
			AssignedTo: u.ID,
			Questions: models.Questions{
				{ID: "q1", Text: "Describe the **target** audience.", Type: models.QuestionParagraph, Required: true},
				{ID: "q2", Text: "Supporting deck", Type: models.QuestionFileUpload},
			},
		})
	}
	return in
}

func (e *testEnv) createForm(t *testing.T, status models.FormStatus) *workflow.FormRecord {
	t.Helper()
	rec, err := e.svc.CreateForm(context.Background(), e.admin, e.formInput(status))
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	return rec
}

// call runs h against a request with the given actor and chi URL params.
// body is JSON-encoded unless it is a string.
func call(t *testing.T, h http.HandlerFunc, method, target string, body any, actor *models.User, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actor != nil {
		ctx = middleware.WithActor(ctx, actor)
	}

	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

// decode unmarshals a recorder body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// assertStatus fails the test when the response code differs.
func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, strings.TrimSpace(rec.Body.String()))
	}
}

func assertErrorKind(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var body errorResponse
	decode(t, rec, &body)
	if body.Kind != want {
		t.Errorf("error kind = %q, want %q (message %q)", body.Kind, want, body.Error)
	}
}
