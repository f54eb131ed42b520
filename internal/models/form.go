// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// FormStatus represents where a form is in its lifecycle.
type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"
	FormStatusPublished FormStatus = "published"
	FormStatusTemplate  FormStatus = "template"
	FormStatusDeleted   FormStatus = "deleted"
)

// Valid reports whether s is a known form status.
func (s FormStatus) Valid() bool {
	switch s {
	case FormStatusDraft, FormStatusPublished, FormStatusTemplate, FormStatusDeleted:
		return true
	}
	return false
}

// TemplateTitlePrefix marks forms created by "save as template".
const TemplateTitlePrefix = "[Template] "

// CopyTitlePrefix marks forms created by duplicating a draft.
const CopyTitlePrefix = "Copy of "

// Form is a named collection of ordered sections routed to multiple
// assignees. Its sections and responses live in their own tables.
type Form struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by"`
	Status    FormStatus `json:"status" db:"status"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	ShareID   *string    `json:"share_id,omitempty" db:"share_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsPublished returns true if the form is visible to its assignees.
func (f *Form) IsPublished() bool {
	return f.Status == FormStatusPublished
}

// IsDeleted returns true if the form sits in the trash.
func (f *Form) IsDeleted() bool {
	return f.Status == FormStatusDeleted
}

// HasShareID reports whether a public share token was already issued.
func (f *Form) HasShareID() bool {
	return f.ShareID != nil && *f.ShareID != ""
}
