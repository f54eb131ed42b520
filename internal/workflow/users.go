// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

// UserInput is the payload for creating a user.
type UserInput struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	PIN   string      `json:"pin,omitempty"`
}

// UserUpdate carries the fields to change; nil fields are left alone.
type UserUpdate struct {
	Name  *string      `json:"name,omitempty"`
	Email *string      `json:"email,omitempty"`
	Role  *models.Role `json:"role,omitempty"`
	PIN   *string      `json:"pin,omitempty"`
}

// ValidatePIN checks that pin is exactly four digits.
func ValidatePIN(pin string) error {
	if len(pin) != 4 {
		return fault.Validationf("PIN must be exactly 4 digits")
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return fault.Validationf("PIN must be exactly 4 digits")
		}
	}
	return nil
}

func hashPIN(pin string) (*string, error) {
	if err := ValidatePIN(pin); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, err, "hash PIN")
	}
	h := string(hash)
	return &h, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

// checkEmail normalizes email and makes sure no other user holds it.
func (s *Service) checkEmail(ctx context.Context, email string, self uuid.UUID) (string, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return "", fault.Validationf("email is required")
	}
	if !validEmail(email) {
		return "", fault.Validationf("%q is not a valid email address", email)
	}
	existing, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return "", fault.Persist(err, "look up email")
	}
	if existing != nil && existing.ID != self {
		return "", fault.Validationf("email %q is already in use", email)
	}
	return email, nil
}

func uniqueErr(err error, email string) error {
	if errors.Is(err, fault.ErrUniqueViolation) {
		return fault.Validationf("email %q is already in use", email)
	}
	return fault.Persist(err, "save user")
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fault.Persist(err, "list users")
	}
	return users, nil
}

// CreateUser adds a user. The colour is picked from the palette based on
// the new id.
func (s *Service) CreateUser(ctx context.Context, actor models.User, in UserInput) (*models.User, []models.Notification, error) {
	if err := requireAdmin(actor, "create users"); err != nil {
		return nil, nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, fault.Validationf("name is required")
	}
	if !in.Role.Valid() {
		return nil, nil, fault.Validationf("unknown role %q", in.Role)
	}
	email, err := s.checkEmail(ctx, in.Email, uuid.Nil)
	if err != nil {
		return nil, nil, err
	}

	id := uuid.New()
	u := &models.User{
		ID:    id,
		Name:  name,
		Email: email,
		Role:  in.Role,
		Color: models.ColorFor(id),
	}
	if in.PIN != "" {
		if u.PINHash, err = hashPIN(in.PIN); err != nil {
			return nil, nil, err
		}
	}
	if err := s.store.Users().Insert(ctx, u); err != nil {
		return nil, nil, uniqueErr(err, email)
	}
	return u, []models.Notification{s.notice(`User "%s" created successfully.`, u.Name)}, nil
}

// UpdateUser changes a user's profile. Admins may edit anyone, including
// the role. Other users may only edit their own name, email and PIN.
func (s *Service) UpdateUser(ctx context.Context, actor models.User, id uuid.UUID, in UserUpdate) (*models.User, []models.Notification, error) {
	self := actor.ID == id
	if !actor.IsAdmin() {
		if !self {
			return nil, nil, fault.Deniedf("you can only edit your own profile")
		}
		if in.Role != nil && *in.Role != actor.Role {
			return nil, nil, fault.Deniedf("only admins can change roles")
		}
	}

	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, nil, fault.Persist(err, "load user")
	}
	if u == nil {
		return nil, nil, fault.NotFoundf("user not found")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, nil, fault.Validationf("name is required")
		}
		u.Name = name
	}
	if in.Email != nil {
		if u.Email, err = s.checkEmail(ctx, *in.Email, u.ID); err != nil {
			return nil, nil, err
		}
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, nil, fault.Validationf("unknown role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.PIN != nil {
		if u.PINHash, err = hashPIN(*in.PIN); err != nil {
			return nil, nil, err
		}
	}

	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, nil, uniqueErr(err, u.Email)
	}
	return u, []models.Notification{s.notice(`User "%s" updated.`, u.Name)}, nil
}

// Authenticate returns the user whose email and PIN match. Any mismatch,
// including a user without a PIN, is reported the same way.
func (s *Service) Authenticate(ctx context.Context, email, pin string) (*models.User, error) {
	denied := fault.Deniedf("invalid email or PIN")
	if ValidatePIN(pin) != nil {
		return nil, denied
	}
	u, err := s.store.Users().FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, fault.Persist(err, "look up user")
	}
	if u == nil || !u.HasPIN() {
		return nil, denied
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.PINHash), []byte(pin)) != nil {
		return nil, denied
	}
	return u, nil
}
