package authcore

import (
	"context"
	"errors"

	"github.com/clinichub/authcore/token"
)

// Refresh exchanges a refresh token for a brand-new access+refresh pair.
//
// Every failure mode — expired, malformed, bad signature, wrong kind, or a
// subject that no longer exists or is inactive — collapses to
// ErrInvalidRefreshToken; codec and store detail never leaks to the caller.
//
// Refresh tokens are reusable until natural expiry: a successful refresh
// neither revokes the presented refresh token nor any outstanding access
// token, which stays valid until its own expiry.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", ErrInvalidRefreshToken
	}

	claims, err := e.codec.Verify(refreshToken)
	if err != nil {
		return "", "", ErrInvalidRefreshToken
	}
	if claims.Kind != token.KindRefresh {
		return "", "", ErrInvalidRefreshToken
	}

	p, err := e.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return "", "", ErrInvalidRefreshToken
		}
		return "", "", storeErr(err)
	}
	if !p.Active {
		return "", "", ErrInvalidRefreshToken
	}

	access, refresh, err := e.issuePair(p)
	if err != nil {
		return "", "", err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditRefresh,
		PrincipalID: p.ID,
		Success:     true,
	})

	return access, refresh, nil
}
