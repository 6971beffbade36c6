package authcore

import (
	"context"
	"errors"
)

// Authenticate validates email/secret and issues a fresh access+refresh pair.
//
// Unknown email, wrong secret, and inactive principal all fail with the same
// ErrInvalidCredentials: callers cannot probe which accounts exist. A decoy
// hash verification runs on the unknown-email path so its timing matches the
// wrong-secret path.
func (e *Engine) Authenticate(ctx context.Context, email, secret string) (*Principal, string, string, error) {
	email = normalizeEmail(email)
	if email == "" || secret == "" {
		return nil, "", "", ErrInvalidCredentials
	}

	ip := clientIPFromContext(ctx)
	if e.limiter != nil {
		if err := e.limiter.Check(ctx, email, ip); err != nil {
			return nil, "", "", e.throttleErr(ctx, email, err)
		}
	}

	p, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrPrincipalNotFound) {
			return nil, "", "", storeErr(err)
		}
		_, _ = e.hasher.Verify(secret, e.decoyHash)
		return nil, "", "", e.loginFailed(ctx, email, "")
	}

	match, err := e.hasher.Verify(secret, p.PasswordHash)
	if err != nil || !match || !p.Active {
		return nil, "", "", e.loginFailed(ctx, email, p.ID)
	}

	access, refresh, err := e.issuePair(p)
	if err != nil {
		return nil, "", "", err
	}

	if e.limiter != nil {
		_ = e.limiter.Reset(ctx, email, ip)
	}
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditLogin,
		PrincipalID: p.ID,
		Email:       email,
		Success:     true,
	})

	return p, access, refresh, nil
}

func (e *Engine) loginFailed(ctx context.Context, email, principalID string) error {
	if e.limiter != nil {
		if err := e.limiter.RecordFailure(ctx, email, clientIPFromContext(ctx)); err != nil {
			return e.throttleErr(ctx, email, err)
		}
	}
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditLoginFailed,
		PrincipalID: principalID,
		Email:       email,
		Success:     false,
		Error:       ErrInvalidCredentials.Error(),
	})
	return ErrInvalidCredentials
}

func (e *Engine) throttleErr(ctx context.Context, email string, err error) error {
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditLoginFailed,
		Email:     email,
		Success:   false,
		Error:     ErrLoginRateLimited.Error(),
	})
	return ErrLoginRateLimited
}
