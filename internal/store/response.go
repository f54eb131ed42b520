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

const responseColumns = `id, section_id, content, filled_by, status, completed_at`

// ResponseStore handles response rows.
type ResponseStore struct {
	q sqlx.ExtContext
}

// NewResponseStore creates a new ResponseStore on the given pool or
// transaction.
func NewResponseStore(q sqlx.ExtContext) *ResponseStore {
	return &ResponseStore{q: q}
}

// Insert creates a response.
func (s *ResponseStore) Insert(ctx context.Context, r *models.Response) error {
	if r.Content == nil {
		r.Content = models.Answers{}
	}
	err := sqlx.GetContext(ctx, s.q, r, `
		INSERT INTO responses (id, section_id, content, filled_by, status, completed_at)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6)
		RETURNING `+responseColumns,
		nullID(r.ID), r.SectionID, r.Content, r.FilledBy, r.Status, r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", classify(err))
	}
	return nil
}

// Delete removes one response.
func (s *ResponseStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM responses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	return nil
}

// DeleteBySections removes the responses of the given sections.
func (s *ResponseStore) DeleteBySections(ctx context.Context, sectionIDs []uuid.UUID) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM responses WHERE section_id = ANY($1::uuid[])`, idArray(sectionIDs)); err != nil {
		return fmt.Errorf("delete responses by sections: %w", err)
	}
	return nil
}

// FindBySection retrieves the response of a section. Returns nil if not
// found.
func (s *ResponseStore) FindBySection(ctx context.Context, sectionID uuid.UUID) (*models.Response, error) {
	var r models.Response
	ok, err := get(ctx, s.q, &r, `SELECT `+responseColumns+` FROM responses WHERE section_id = $1`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("find response by section: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListBySections returns the responses of the given sections.
func (s *ResponseStore) ListBySections(ctx context.Context, sectionIDs []uuid.UUID) ([]models.Response, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	var responses []models.Response
	if err := sqlx.SelectContext(ctx, s.q, &responses,
		`SELECT `+responseColumns+` FROM responses WHERE section_id = ANY($1::uuid[])`, idArray(sectionIDs)); err != nil {
		return nil, fmt.Errorf("list responses by sections: %w", err)
	}
	return responses, nil
}

// List returns every response.
func (s *ResponseStore) List(ctx context.Context) ([]models.Response, error) {
	var responses []models.Response
	if err := sqlx.SelectContext(ctx, s.q, &responses, `SELECT `+responseColumns+` FROM responses`); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

// Complete stores the answers and locks the response. The update only
// applies while the row is still pending.
func (s *ResponseStore) Complete(ctx context.Context, r *models.Response) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE responses
		SET content = $2, filled_by = $3, status = 'completed', completed_at = $4
		WHERE id = $1 AND status = 'pending'
	`, r.ID, r.Content, r.FilledBy, r.CompletedAt)
	if err != nil {
		return false, fmt.Errorf("complete response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete response rows: %w", err)
	}
	return n == 1, nil
}
