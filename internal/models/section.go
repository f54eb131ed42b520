// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// QuestionType selects how a question is answered.
type QuestionType string

const (
	QuestionShortAnswer    QuestionType = "short-answer"
	QuestionParagraph      QuestionType = "paragraph"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionCheckboxes     QuestionType = "checkboxes"
	QuestionSignature      QuestionType = "signature"
	QuestionRating         QuestionType = "rating"
	QuestionDate           QuestionType = "date"
	QuestionMobile         QuestionType = "mobile"
	QuestionEmail          QuestionType = "email"
	QuestionURL            QuestionType = "url"
	QuestionFileUpload     QuestionType = "file-upload"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{
	QuestionShortAnswer, QuestionParagraph, QuestionMultipleChoice, QuestionCheckboxes,
	QuestionSignature, QuestionRating, QuestionDate, QuestionMobile,
	QuestionEmail, QuestionURL, QuestionFileUpload,
}

// Valid reports whether t is a supported question type.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether answers to this type are picked from a list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionMultipleChoice || t == QuestionCheckboxes
}

// Question is a single prompt inside a section. Questions are immutable
// once saved: editing a form replaces its sections wholesale.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required,omitempty"`
}

// Questions is the ordered question list of a section, stored as JSONB.
type Questions []Question

// Value implements driver.Valuer.
func (q Questions) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

// Scan implements sql.Scanner.
func (q *Questions) Scan(src any) error {
	return scanJSON(src, q)
}

// Find returns the question with the given id, or nil.
func (q Questions) Find(id string) *Question {
	for i := range q {
		if q[i].ID == id {
			return &q[i]
		}
	}
	return nil
}

// Section is one assignable unit of a form, owned by exactly one user.
type Section struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FormID     uuid.UUID `json:"form_id" db:"form_id"`
	Title      string    `json:"title" db:"title"`
	AssignedTo uuid.UUID `json:"assigned_to" db:"assigned_to"`
	Order      int       `json:"order" db:"sort_order"`
	Questions  Questions `json:"questions" db:"questions"`
}

// SortSections orders sections by their workflow position in place.
func SortSections(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
}

// SectionIDs collects the ids of the given sections.
func SectionIDs(sections []Section) []uuid.UUID {
	ids := make([]uuid.UUID, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}

// scanJSON decodes a JSONB column into dst.
func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("scan json: unsupported type %T", src)
	}
}
