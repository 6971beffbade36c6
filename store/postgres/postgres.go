// Package postgres implements the PrincipalStore contract on PostgreSQL via
// database/sql. The principal row and its role-specific row are written in a
// single transaction, so concurrent readers observe both or neither.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/clinichub/authcore"
)

// Store persists principals and their role-specific records in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create implements authcore.PrincipalStore.
func (s *Store) Create(ctx context.Context, p *authcore.Principal, profile authcore.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertPrincipal = `
		INSERT INTO principals (id, name, email, role, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, insertPrincipal,
		p.ID, p.Name, p.Email, string(p.Role), p.PasswordHash, p.Active, p.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return authcore.ErrDuplicateEmail
		}
		return fmt.Errorf("insert principal: %w", err)
	}

	switch p.Role {
	case authcore.RolePatient:
		const insertPatient = `
			INSERT INTO patients (principal_id, birth_date)
			VALUES ($1, NULLIF($2, ''))`
		if _, err := tx.ExecContext(ctx, insertPatient, p.ID, profile.BirthDate); err != nil {
			return fmt.Errorf("insert patient record: %w", err)
		}
	case authcore.RoleClinician:
		const insertClinician = `
			INSERT INTO clinicians (principal_id, license_number, department)
			VALUES ($1, $2, NULLIF($3, ''))`
		if _, err := tx.ExecContext(ctx, insertClinician, p.ID, profile.LicenseNumber, profile.Department); err != nil {
			return fmt.Errorf("insert clinician record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindByEmail implements authcore.PrincipalStore.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.Principal, error) {
	const query = `
		SELECT id, name, email, role, password_hash, active, created_at
		FROM principals WHERE email = $1`
	return s.scanPrincipal(s.db.QueryRowContext(ctx, query, email))
}

// FindByID implements authcore.PrincipalStore.
func (s *Store) FindByID(ctx context.Context, id string) (*authcore.Principal, error) {
	const query = `
		SELECT id, name, email, role, password_hash, active, created_at
		FROM principals WHERE id = $1`
	return s.scanPrincipal(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) scanPrincipal(row *sql.Row) (*authcore.Principal, error) {
	var (
		p    authcore.Principal
		role string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Email, &role, &p.PasswordHash, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("scan principal: %w", err)
	}

	parsed, err := authcore.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("principal %s carries unknown role %q", p.ID, role)
	}
	p.Role = parsed

	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

var _ authcore.PrincipalStore = (*Store)(nil)
