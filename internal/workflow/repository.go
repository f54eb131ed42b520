// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workflow implements the collaborative form protocol: form
// lifecycle transitions, section locking and submission, progress
// computation, the notification cascade, and role-based visibility.
//
// The package never talks to a database directly. It consumes the
// repository interfaces below, which internal/store implements on top of
// PostgreSQL and workflowtest implements in memory.
package workflow

import (
	"context"

	"github.com/google/uuid"

	"collabforms/internal/models"
)

// Lookup methods return (nil, nil) when the record does not exist.
// Insert methods fill in server-assigned fields (id, timestamps); an id set
// by the caller is kept.

// UserRepository persists users.
type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// FormRepository persists forms.
type FormRepository interface {
	Insert(ctx context.Context, f *models.Form) error
	Update(ctx context.Context, f *models.Form) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Form, error)
	FindByShareID(ctx context.Context, shareID string) (*models.Form, error)
	List(ctx context.Context) ([]models.Form, error)
}

// SectionRepository persists sections.
type SectionRepository interface {
	Insert(ctx context.Context, s *models.Section) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByForm(ctx context.Context, formID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Section, error)
	ListByForm(ctx context.Context, formID uuid.UUID) ([]models.Section, error)
	List(ctx context.Context) ([]models.Section, error)
}

// ResponseRepository persists section responses.
type ResponseRepository interface {
	Insert(ctx context.Context, r *models.Response) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySections(ctx context.Context, sectionIDs []uuid.UUID) error
	FindBySection(ctx context.Context, sectionID uuid.UUID) (*models.Response, error)
	ListBySections(ctx context.Context, sectionIDs []uuid.UUID) ([]models.Response, error)
	List(ctx context.Context) ([]models.Response, error)

	// Complete stores r's content and marks it completed, but only while
	// the stored row is still pending. It reports whether a row changed.
	Complete(ctx context.Context, r *models.Response) (bool, error)
}

// Store groups the four record collections.
type Store interface {
	Users() UserRepository
	Forms() FormRepository
	Sections() SectionRepository
	Responses() ResponseRepository
}

// Atomic is implemented by stores that can run a group of calls as one
// transaction. fn receives a Store bound to the transaction; returning an
// error rolls everything back.
type Atomic interface {
	Atomically(ctx context.Context, fn func(tx Store) error) error
}

// Snapshot is a read-only copy of every record the listing and progress
// functions work on.
type Snapshot struct {
	Users     []models.User
	Forms     []models.Form
	Sections  []models.Section
	Responses []models.Response
}

// LoadSnapshot reads all records from the store.
func LoadSnapshot(ctx context.Context, st Store) (*Snapshot, error) {
	users, err := st.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	forms, err := st.Forms().List(ctx)
	if err != nil {
		return nil, err
	}
	sections, err := st.Sections().List(ctx)
	if err != nil {
		return nil, err
	}
	responses, err := st.Responses().List(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Users: users, Forms: forms, Sections: sections, Responses: responses}, nil
}

// SectionsOf returns the sections of one form in workflow order.
func (s *Snapshot) SectionsOf(formID uuid.UUID) []models.Section {
	var out []models.Section
	for _, sec := range s.Sections {
		if sec.FormID == formID {
			out = append(out, sec)
		}
	}
	models.SortSections(out)
	return out
}

// User returns the user with the given id, or nil.
func (s *Snapshot) User(id uuid.UUID) *models.User {
	return findUser(s.Users, id)
}
