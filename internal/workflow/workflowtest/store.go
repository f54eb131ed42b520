// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workflowtest provides an in-memory workflow.Store for tests.
// It enforces the same keys and references as the PostgreSQL schema and
// can be told to fail specific calls, which exercises the compensating
// path of multi-step operations.
package workflowtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"collabforms/internal/fault"
	"collabforms/internal/models"
	"collabforms/internal/workflow"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("injected failure")

// Operation names accepted by FailOn.
const (
	OpUserInsert              = "users.insert"
	OpUserUpdate              = "users.update"
	OpFormInsert              = "forms.insert"
	OpFormUpdate              = "forms.update"
	OpFormDelete              = "forms.delete"
	OpSectionInsert           = "sections.insert"
	OpSectionDelete           = "sections.delete"
	OpSectionDeleteByForm     = "sections.delete_by_form"
	OpResponseInsert          = "responses.insert"
	OpResponseDelete          = "responses.delete"
	OpResponseDeleteBySection = "responses.delete_by_sections"
	OpResponseComplete        = "responses.complete"
	OpList                    = "list"
)

// Store is a concurrency-safe in-memory store. It does not implement
// workflow.Atomic.
type Store struct {
	mu        sync.Mutex
	users     []models.User
	forms     []models.Form
	sections  []models.Section
	responses []models.Response

	calls map[string]int
	fail  map[string]int // op -> call number that fails (1-based)
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		calls: make(map[string]int),
		fail:  make(map[string]int),
		now:   time.Now,
	}
}

var _ workflow.Store = (*Store)(nil)

// FailOn makes the nth call (1-based, counted from now) to op return
// ErrInjected.
func (s *Store) FailOn(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = s.calls[op] + n
}

// check counts a call to op and reports an injected failure. Callers hold mu.
func (s *Store) check(op string) error {
	s.calls[op]++
	if n, ok := s.fail[op]; ok && s.calls[op] == n {
		delete(s.fail, op)
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	return nil
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Counts returns the number of stored forms, sections and responses.
func (s *Store) Counts() (forms, sections, responses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms), len(s.sections), len(s.responses)
}

// AddUser stores a user directly, bypassing the service. It is meant for
// test fixtures.
func (s *Store) AddUser(name, email string, role models.Role) models.User {
	id := uuid.New()
	u := models.User{
		ID:    id,
		Name:  name,
		Email: models.NormalizeEmail(email),
		Role:  role,
		Color: models.ColorFor(id),
	}
	if err := s.Users().Insert(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

func (s *Store) Users() workflow.UserRepository         { return userRepo{s} }
func (s *Store) Forms() workflow.FormRepository         { return formRepo{s} }
func (s *Store) Sections() workflow.SectionRepository   { return sectionRepo{s} }
func (s *Store) Responses() workflow.ResponseRepository { return responseRepo{s} }

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

type userRepo struct{ s *Store }

func (r userRepo) Insert(_ context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpUserInsert); err != nil {
		return err
	}
	assignID(&u.ID)
	for _, existing := range s.users {
		if existing.ID == u.ID {
			return fmt.Errorf("insert user: duplicate id: %w", fault.ErrUniqueViolation)
		}
		if models.NormalizeEmail(existing.Email) == models.NormalizeEmail(u.Email) {
			return fmt.Errorf("insert user: %w", fault.ErrUniqueViolation)
		}
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users = append(s.users, *u)
	return nil
}

func (r userRepo) Update(_ context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpUserUpdate); err != nil {
		return err
	}
	for _, existing := range s.users {
		if existing.ID != u.ID && models.NormalizeEmail(existing.Email) == models.NormalizeEmail(u.Email) {
			return fmt.Errorf("update user: %w", fault.ErrUniqueViolation)
		}
	}
	for i := range s.users {
		if s.users[i].ID == u.ID {
			u.UpdatedAt = s.now().UTC()
			s.users[i] = *u
			return nil
		}
	}
	return fmt.Errorf("update user: %w", fault.ErrNotFound)
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range s.users {
		if models.NormalizeEmail(u.Email) == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) List(context.Context) ([]models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpList); err != nil {
		return nil, err
	}
	return append([]models.User(nil), s.users...), nil
}

type formRepo struct{ s *Store }

func (r formRepo) Insert(_ context.Context, f *models.Form) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpFormInsert); err != nil {
		return err
	}
	assignID(&f.ID)
	for _, existing := range s.forms {
		if existing.ID == f.ID {
			return fmt.Errorf("insert form: duplicate id: %w", fault.ErrUniqueViolation)
		}
	}
	now := s.now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	s.forms = append(s.forms, *f)
	return nil
}

func (r formRepo) Update(_ context.Context, f *models.Form) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpFormUpdate); err != nil {
		return err
	}
	for i := range s.forms {
		if s.forms[i].ID == f.ID {
			f.UpdatedAt = s.now().UTC()
			s.forms[i] = *f
			return nil
		}
	}
	return fmt.Errorf("update form: %w", fault.ErrNotFound)
}

func (r formRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpFormDelete); err != nil {
		return err
	}
	for _, sec := range s.sections {
		if sec.FormID == id {
			return errors.New("delete form: still referenced by sections")
		}
	}
	for i := range s.forms {
		if s.forms[i].ID == id {
			s.forms = append(s.forms[:i], s.forms[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r formRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Form, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.ID == id {
			return &f, nil
		}
	}
	return nil, nil
}

func (r formRepo) FindByShareID(_ context.Context, shareID string) (*models.Form, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.ShareID != nil && *f.ShareID == shareID {
			return &f, nil
		}
	}
	return nil, nil
}

func (r formRepo) List(context.Context) ([]models.Form, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpList); err != nil {
		return nil, err
	}
	return append([]models.Form(nil), s.forms...), nil
}

type sectionRepo struct{ s *Store }

func (r sectionRepo) Insert(_ context.Context, sec *models.Section) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpSectionInsert); err != nil {
		return err
	}
	found := false
	for _, f := range s.forms {
		if f.ID == sec.FormID {
			found = true
			break
		}
	}
	if !found {
		return errors.New("insert section: form does not exist")
	}
	assignID(&sec.ID)
	for _, existing := range s.sections {
		if existing.ID == sec.ID {
			return fmt.Errorf("insert section: duplicate id: %w", fault.ErrUniqueViolation)
		}
		if existing.FormID == sec.FormID && existing.Order == sec.Order {
			return fmt.Errorf("insert section: duplicate order: %w", fault.ErrUniqueViolation)
		}
	}
	s.sections = append(s.sections, *sec)
	return nil
}

// referenced reports whether a response still points at the section.
func (s *Store) referenced(sectionID uuid.UUID) bool {
	for _, resp := range s.responses {
		if resp.SectionID == sectionID {
			return true
		}
	}
	return false
}

func (r sectionRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpSectionDelete); err != nil {
		return err
	}
	if s.referenced(id) {
		return errors.New("delete section: still referenced by a response")
	}
	for i := range s.sections {
		if s.sections[i].ID == id {
			s.sections = append(s.sections[:i], s.sections[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r sectionRepo) DeleteByForm(_ context.Context, formID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpSectionDeleteByForm); err != nil {
		return err
	}
	kept := s.sections[:0:0]
	for _, sec := range s.sections {
		if sec.FormID != formID {
			kept = append(kept, sec)
			continue
		}
		if s.referenced(sec.ID) {
			return errors.New("delete sections: still referenced by a response")
		}
	}
	s.sections = kept
	return nil
}

func (r sectionRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Section, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sec := range s.sections {
		if sec.ID == id {
			return &sec, nil
		}
	}
	return nil, nil
}

func (r sectionRepo) ListByForm(_ context.Context, formID uuid.UUID) ([]models.Section, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpList); err != nil {
		return nil, err
	}
	var out []models.Section
	for _, sec := range s.sections {
		if sec.FormID == formID {
			out = append(out, sec)
		}
	}
	models.SortSections(out)
	return out, nil
}

func (r sectionRepo) List(context.Context) ([]models.Section, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpList); err != nil {
		return nil, err
	}
	return append([]models.Section(nil), s.sections...), nil
}

type responseRepo struct{ s *Store }

func (r responseRepo) Insert(_ context.Context, resp *models.Response) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpResponseInsert); err != nil {
		return err
	}
	found := false
	for _, sec := range s.sections {
		if sec.ID == resp.SectionID {
			found = true
			break
		}
	}
	if !found {
		return errors.New("insert response: section does not exist")
	}
	assignID(&resp.ID)
	for _, existing := range s.responses {
		if existing.ID == resp.ID || existing.SectionID == resp.SectionID {
			return fmt.Errorf("insert response: %w", fault.ErrUniqueViolation)
		}
	}
	if resp.Content == nil {
		resp.Content = models.Answers{}
	}
	s.responses = append(s.responses, *resp)
	return nil
}

func (r responseRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpResponseDelete); err != nil {
		return err
	}
	for i := range s.responses {
		if s.responses[i].ID == id {
			s.responses = append(s.responses[:i], s.responses[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r responseRepo) DeleteBySections(_ context.Context, sectionIDs []uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpResponseDeleteBySection); err != nil {
		return err
	}
	drop := make(map[uuid.UUID]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		drop[id] = true
	}
	kept := s.responses[:0:0]
	for _, resp := range s.responses {
		if !drop[resp.SectionID] {
			kept = append(kept, resp)
		}
	}
	s.responses = kept
	return nil
}

func (r responseRepo) FindBySection(_ context.Context, sectionID uuid.UUID) (*models.Response, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, resp := range s.responses {
		if resp.SectionID == sectionID {
			return &resp, nil
		}
	}
	return nil, nil
}

func (r responseRepo) ListBySections(_ context.Context, sectionIDs []uuid.UUID) ([]models.Response, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpList); err != nil {
		return nil, err
	}
	want := make(map[uuid.UUID]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		want[id] = true
	}
	var out []models.Response
	for _, resp := range s.responses {
		if want[resp.SectionID] {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r responseRepo) List(context.Context) ([]models.Response, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpList); err != nil {
		return nil, err
	}
	return append([]models.Response(nil), s.responses...), nil
}

func (r responseRepo) Complete(_ context.Context, resp *models.Response) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpResponseComplete); err != nil {
		return false, err
	}
	for i := range s.responses {
		if s.responses[i].ID != resp.ID {
			continue
		}
		if s.responses[i].Status != models.ResponseStatusPending {
			return false, nil
		}
		s.responses[i].Content = resp.Content
		s.responses[i].FilledBy = resp.FilledBy
		s.responses[i].Status = models.ResponseStatusCompleted
		s.responses[i].CompletedAt = resp.CompletedAt
		return true, nil
	}
	return false, nil
}
