package authcore

import (
	"context"
	"fmt"
	"time"
)

// Role is the closed role enumeration. Free-form role strings are rejected at
// the data-model boundary via ParseRole; nothing downstream compares raw
// strings.
type Role string

const (
	// RoleAdmin administers the installation.
	RoleAdmin Role = "admin"
	// RoleClinician is a treating practitioner.
	RoleClinician Role = "clinician"
	// RolePatient is a treated person.
	RolePatient Role = "patient"
)

// ParseRole validates s against the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleClinician, RolePatient:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Valid reports whether r is a member of the closed enumeration.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Principal is an authenticated identity record. It is owned by the
// PrincipalStore; the auth core reads it and writes it only at registration.
type Principal struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// Profile carries the role-specific registration fields persisted alongside a
// Principal in the same transaction.
type Profile struct {
	// BirthDate applies to patients, formatted YYYY-MM-DD.
	BirthDate string
	// LicenseNumber and Department apply to clinicians.
	LicenseNumber string
	Department    string
}

// RegisterInput is the request shape for Engine.Register.
type RegisterInput struct {
	Name    string
	Email   string
	Secret  string
	Role    Role
	Profile Profile
}

// PrincipalStore is the narrow contract the engine holds on the external user
// store. Implementations must make Create atomic: a concurrent reader of the
// same principal id observes either the principal and its role-specific
// record together or neither.
type PrincipalStore interface {
	// FindByEmail returns ErrPrincipalNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	// FindByID returns ErrPrincipalNotFound when no record matches.
	FindByID(ctx context.Context, id string) (*Principal, error)
	// Create persists p and its role-specific profile as one logical unit,
	// returning ErrDuplicateEmail when the email is already taken. A failed
	// profile insert rolls back the principal insert.
	Create(ctx context.Context, p *Principal, profile Profile) error
}
