// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleUser   Role = "User"
	RoleViewer Role = "Viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// Palette is the fixed set of display colours handed out to new users.
var Palette = []string{
	"sky-600", "lime-600", "amber-600", "violet-600", "rose-600",
	"teal-600", "cyan-600", "fuchsia-600", "emerald-600", "indigo-600",
}

// ColorFor picks the palette entry for a user id. The same id always maps
// to the same colour.
func ColorFor(id uuid.UUID) string {
	h := fnv.New32a()
	h.Write(id[:])
	return Palette[h.Sum32()%uint32(len(Palette))]
}

// User represents a person who can sign in and be assigned form sections.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	Color     string    `json:"color" db:"color"`
	PINHash   *string   `json:"-" db:"pin_hash"` // Never serialize the hash
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsViewer returns true if the user has the read-only viewer role.
func (u *User) IsViewer() bool {
	return u.Role == RoleViewer
}

// HasPIN reports whether a PIN credential has been set for the user.
func (u *User) HasPIN() bool {
	return u.PINHash != nil && *u.PINHash != ""
}

// FirstName returns the first word of the user's name, used to address
// them in reminders.
func (u *User) FirstName() string {
	if f := strings.Fields(u.Name); len(f) > 0 {
		return f[0]
	}
	return u.Name
}

// NormalizeEmail lower-cases and trims an email so that uniqueness checks
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
