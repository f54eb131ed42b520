// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

const formColumns = `id, title, created_by, status, due_date, share_id, created_at, updated_at`

// FormStore handles form rows.
type FormStore struct {
	q sqlx.ExtContext
}

// NewFormStore creates a new FormStore on the given pool or transaction.
func NewFormStore(q sqlx.ExtContext) *FormStore {
	return &FormStore{q: q}
}

// Insert creates a form and fills in its id and timestamps.
func (s *FormStore) Insert(ctx context.Context, f *models.Form) error {
	err := sqlx.GetContext(ctx, s.q, f, `
		INSERT INTO forms (id, title, created_by, status, due_date, share_id)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6)
		RETURNING `+formColumns,
		nullID(f.ID), f.Title, f.CreatedBy, f.Status, f.DueDate, f.ShareID,
	)
	if err != nil {
		return fmt.Errorf("insert form: %w", classify(err))
	}
	return nil
}

// Update saves title, status, due date and share id.
func (s *FormStore) Update(ctx context.Context, f *models.Form) error {
	ok, err := get(ctx, s.q, f, `
		UPDATE forms SET title = $2, status = $3, due_date = $4, share_id = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+formColumns,
		f.ID, f.Title, f.Status, f.DueDate, f.ShareID,
	)
	if err != nil {
		return fmt.Errorf("update form: %w", classify(err))
	}
	if !ok {
		return fmt.Errorf("update form %s: %w", f.ID, fault.ErrNotFound)
	}
	return nil
}

// Delete removes a form row. Sections must already be gone.
func (s *FormStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM forms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return nil
}

// FindByID retrieves a form by id. Returns nil if not found.
func (s *FormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Form, error) {
	var f models.Form
	ok, err := get(ctx, s.q, &f, `SELECT `+formColumns+` FROM forms WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find form by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// FindByShareID retrieves a form by its public share token. Returns nil if
// not found.
func (s *FormStore) FindByShareID(ctx context.Context, shareID string) (*models.Form, error) {
	var f models.Form
	ok, err := get(ctx, s.q, &f, `SELECT `+formColumns+` FROM forms WHERE share_id = $1`, shareID)
	if err != nil {
		return nil, fmt.Errorf("find form by share id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// List returns all forms, newest first.
func (s *FormStore) List(ctx context.Context) ([]models.Form, error) {
	var forms []models.Form
	if err := sqlx.SelectContext(ctx, s.q, &forms, `SELECT `+formColumns+` FROM forms ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}
