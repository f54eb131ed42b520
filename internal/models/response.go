// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ResponseStatus tracks whether a section has been submitted.
type ResponseStatus string

const (
	ResponseStatusPending   ResponseStatus = "pending"
	ResponseStatusCompleted ResponseStatus = "completed"
)

// FileMeta describes an uploaded file referenced by a file-upload answer.
type FileMeta struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	URL         string `json:"url,omitempty"`
}

// AnswerKind identifies which field of an Answer carries its value.
type AnswerKind int

const (
	AnswerEmpty AnswerKind = iota
	AnswerText
	AnswerList
	AnswerFile
)

// Answer holds one answer value: a string, a list of strings, or file
// metadata. The JSON form is the bare value.
type Answer struct {
	Kind AnswerKind
	Text string
	List []string
	File *FileMeta
}

// TextAnswer builds a string answer.
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

// ListAnswer builds a multi-value answer.
func ListAnswer(items ...string) Answer { return Answer{Kind: AnswerList, List: items} }

// FileAnswer builds a file-upload answer.
func FileAnswer(f FileMeta) Answer { return Answer{Kind: AnswerFile, File: &f} }

// IsBlank reports whether the answer carries no usable value.
func (a Answer) IsBlank() bool {
	switch a.Kind {
	case AnswerText:
		return len(bytes.TrimSpace([]byte(a.Text))) == 0
	case AnswerList:
		return len(a.List) == 0
	case AnswerFile:
		return a.File == nil || a.File.Key == ""
	}
	return true
}

// Raw returns the answer as a plain Go value (string, []string, or
// map[string]any for files), suitable for expression environments.
func (a Answer) Raw() any {
	switch a.Kind {
	case AnswerText:
		return a.Text
	case AnswerList:
		return a.List
	case AnswerFile:
		if a.File == nil {
			return nil
		}
		return map[string]any{
			"key":          a.File.Key,
			"name":         a.File.Name,
			"size":         a.File.Size,
			"content_type": a.File.ContentType,
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerList:
		if a.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.List)
	case AnswerFile:
		return json.Marshal(a.File)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are accepted and kept
// as their decimal text so that ratings may be sent either way.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("answer list: %w", err)
		}
		*a = ListAnswer(items...)
	case '{':
		var f FileMeta
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("answer file: %w", err)
		}
		*a = FileAnswer(f)
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("answer: unsupported value %s", data)
		}
		*a = TextAnswer(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}

// Answers maps question ids to answers and is stored as JSONB.
type Answers map[string]Answer

// Value implements driver.Valuer.
func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Answers) Scan(src any) error {
	return scanJSON(src, a)
}

// Response is the single answer record for a section.
type Response struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	SectionID   uuid.UUID      `json:"section_id" db:"section_id"`
	Content     Answers        `json:"content" db:"content"`
	FilledBy    uuid.UUID      `json:"filled_by" db:"filled_by"`
	Status      ResponseStatus `json:"status" db:"status"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// IsCompleted returns true once the section has been submitted.
func (r *Response) IsCompleted() bool {
	return r.Status == ResponseStatusCompleted
}

// ResponsesBySection indexes responses by their section id.
func ResponsesBySection(responses []Response) map[uuid.UUID]*Response {
	m := make(map[uuid.UUID]*Response, len(responses))
	for i := range responses {
		m[responses[i].SectionID] = &responses[i]
	}
	return m
}
