package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Register creates a principal and its role-specific record as one logical
// unit. The store contract guarantees atomicity: if the profile insert fails,
// the principal insert is rolled back and no partial state is observable.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*Principal, error) {
	if err := validateRegisterInput(input, e.config.MinSecretLength); err != nil {
		return nil, err
	}

	digest, err := e.hasher.Hash(input.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p := &Principal{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		Role:         input.Role,
		PasswordHash: digest,
		Active:       true,
		CreatedAt:    e.config.Now(),
	}

	if err := e.store.Create(ctx, p, input.Profile); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditRegister,
		PrincipalID: p.ID,
		Email:       p.Email,
		Success:     true,
		Metadata:    map[string]string{"role": string(p.Role)},
	})

	return p, nil
}

func validateRegisterInput(input RegisterInput, minSecretLength int) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if len(input.Secret) < minSecretLength {
		return fmt.Errorf("%w: secret must be at least %d bytes", ErrInvalidInput, minSecretLength)
	}
	if !input.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if input.Role == RolePatient && input.Profile.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", input.Profile.BirthDate); err != nil {
			return fmt.Errorf("%w: birth date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if input.Role == RoleClinician && strings.TrimSpace(input.Profile.LicenseNumber) == "" {
		return fmt.Errorf("%w: clinician registration requires a license number", ErrInvalidInput)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
