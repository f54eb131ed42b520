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

const userColumns = `id, name, email, role, color, pin_hash, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	q sqlx.ExtContext
}

// NewUserStore creates a new UserStore on the given pool or transaction.
func NewUserStore(q sqlx.ExtContext) *UserStore {
	return &UserStore{q: q}
}

// Insert creates a user. The email is stored lower-cased.
func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	err := sqlx.GetContext(ctx, s.q, u, `
		INSERT INTO users (id, name, email, role, color, pin_hash)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		nullID(u.ID), u.Name, u.Email, u.Role, u.Color, u.PINHash,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", classify(err))
	}
	return nil
}

// Update saves a user's profile, role and PIN hash.
func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	err := sqlx.GetContext(ctx, s.q, u, `
		UPDATE users SET name = $2, email = $3, role = $4, color = $5, pin_hash = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.Role, u.Color, u.PINHash,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", classify(err))
	}
	return nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	ok, err := get(ctx, s.q, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail retrieves a user by email, ignoring case. Returns nil if not
// found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	ok, err := get(ctx, s.q, &u, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, models.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// List returns all users ordered by creation date.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := sqlx.SelectContext(ctx, s.q, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
