// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides PostgreSQL access for users, forms, sections and
// responses. Each store struct wraps a sqlx handle, which is either the
// connection pool or an open transaction, and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"collabforms/internal/fault"
	"collabforms/internal/workflow"
)

// Store bundles the repositories and implements workflow.Store and
// workflow.Atomic.
type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

// New wraps a pgx-backed *sql.DB.
func New(db *sql.DB) *Store {
	x := sqlx.NewDb(db, "pgx")
	return &Store{db: x, q: x}
}

var (
	_ workflow.Store  = (*Store)(nil)
	_ workflow.Atomic = (*Store)(nil)
)

func (s *Store) Users() workflow.UserRepository         { return NewUserStore(s.q) }
func (s *Store) Forms() workflow.FormRepository         { return NewFormStore(s.q) }
func (s *Store) Sections() workflow.SectionRepository   { return NewSectionStore(s.q) }
func (s *Store) Responses() workflow.ResponseRepository { return NewResponseStore(s.q) }

// Atomically runs fn in a single transaction. Nested calls reuse the open
// transaction.
func (s *Store) Atomically(ctx context.Context, fn func(tx workflow.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// classify maps driver errors onto the fault sentinels.
func classify(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", fault.ErrUniqueViolation, err)
	}
	return err
}

// nullID turns the zero UUID into NULL so the column default applies.
func nullID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

// idArray encodes ids as a PostgreSQL array for `= ANY($1::uuid[])`.
func idArray(ids []uuid.UUID) pq.StringArray {
	arr := make(pq.StringArray, len(ids))
	for i, id := range ids {
		arr[i] = id.String()
	}
	return arr
}

// get runs a single-row query and returns (false, nil) when no row matched.
func get(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) (bool, error) {
	err := sqlx.GetContext(ctx, q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
