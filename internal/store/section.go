// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"collabforms/internal/models"
)

const sectionColumns = `id, form_id, title, assigned_to, sort_order, questions`

// SectionStore handles section rows.
type SectionStore struct {
	q sqlx.ExtContext
}

// NewSectionStore creates a new SectionStore on the given pool or
// transaction.
func NewSectionStore(q sqlx.ExtContext) *SectionStore {
	return &SectionStore{q: q}
}

// Insert creates a section.
func (s *SectionStore) Insert(ctx context.Context, sec *models.Section) error {
	err := sqlx.GetContext(ctx, s.q, sec, `
		INSERT INTO sections (id, form_id, title, assigned_to, sort_order, questions)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6)
		RETURNING `+sectionColumns,
		nullID(sec.ID), sec.FormID, sec.Title, sec.AssignedTo, sec.Order, sec.Questions,
	)
	if err != nil {
		return fmt.Errorf("insert section: %w", classify(err))
	}
	return nil
}

// Delete removes one section.
func (s *SectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// DeleteByForm removes every section of a form.
func (s *SectionStore) DeleteByForm(ctx context.Context, formID uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM sections WHERE form_id = $1`, formID); err != nil {
		return fmt.Errorf("delete sections by form: %w", err)
	}
	return nil
}

// FindByID retrieves a section. Returns nil if not found.
func (s *SectionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	var sec models.Section
	ok, err := get(ctx, s.q, &sec, `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find section by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &sec, nil
}

// ListByForm returns a form's sections in workflow order.
func (s *SectionStore) ListByForm(ctx context.Context, formID uuid.UUID) ([]models.Section, error) {
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, s.q, &sections,
		`SELECT `+sectionColumns+` FROM sections WHERE form_id = $1 ORDER BY sort_order ASC`, formID); err != nil {
		return nil, fmt.Errorf("list sections by form: %w", err)
	}
	return sections, nil
}

// List returns every section.
func (s *SectionStore) List(ctx context.Context) ([]models.Section, error) {
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, s.q, &sections,
		`SELECT `+sectionColumns+` FROM sections ORDER BY form_id, sort_order`); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}
